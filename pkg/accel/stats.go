package accel

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// BVHStats summarises the shape of a built BVH.
type BVHStats struct {
	Triangles    int
	NodesUsed    int
	NodesAlloc   int
	Leaves       int
	MaxDepth     int
	AvgLeafDepth float64
	MaxLeafSize  int
	AvgLeafSize  float64

	// LeafDepths holds the depth of every leaf in node order.
	LeafDepths []int
}

// Stats walks the tree and collects BVHStats.
func (b *BVH) Stats() BVHStats {
	st := BVHStats{
		Triangles:  len(b.Tris),
		NodesUsed:  b.NodesUsed,
		NodesAlloc: len(b.Nodes),
	}

	var depthSum, sizeSum int
	for i := range b.NodesUsed {
		n := &b.Nodes[i]
		if n.Depth > st.MaxDepth {
			st.MaxDepth = n.Depth
		}
		if !n.IsLeaf() {
			continue
		}
		st.Leaves++
		st.LeafDepths = append(st.LeafDepths, n.Depth)
		depthSum += n.Depth
		sizeSum += n.Count
		if n.Count > st.MaxLeafSize {
			st.MaxLeafSize = n.Count
		}
	}
	if st.Leaves > 0 {
		st.AvgLeafDepth = float64(depthSum) / float64(st.Leaves)
		st.AvgLeafSize = float64(sizeSum) / float64(st.Leaves)
	}
	return st
}

// Table renders the statistics as a text table.
func (st BVHStats) Table(title string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"BVH", title})
	table.Append([]string{"Triangles", fmt.Sprint(st.Triangles)})
	table.Append([]string{"Nodes", fmt.Sprintf("%d / %d allocated", st.NodesUsed, st.NodesAlloc)})
	table.Append([]string{"Leaves", fmt.Sprint(st.Leaves)})
	table.Append([]string{"Max depth", fmt.Sprint(st.MaxDepth)})
	table.Append([]string{"Avg leaf depth", fmt.Sprintf("%.2f", st.AvgLeafDepth)})
	table.Append([]string{"Leaf size", fmt.Sprintf("avg %.2f, max %d", st.AvgLeafSize, st.MaxLeafSize)})
	table.SetFooter([]string{"Load factor", fmt.Sprint(LoadFactor)})
	table.Render()
	return buf.String()
}
