package render

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// RenderStats counts the work done by a Renderer since the last ResetStats.
type RenderStats struct {
	Meshes       int
	MeshesCulled int

	NodesVisited int
	NodesCulled  int

	TrianglesSubmitted  int
	TrianglesClipped    int // discarded entirely by the clipper
	TrianglesCulled     int // back faces
	TrianglesRasterized int

	FragmentsTested  int
	FragmentsWritten int
}

// Add accumulates o into s.
func (s *RenderStats) Add(o RenderStats) {
	s.Meshes += o.Meshes
	s.MeshesCulled += o.MeshesCulled
	s.NodesVisited += o.NodesVisited
	s.NodesCulled += o.NodesCulled
	s.TrianglesSubmitted += o.TrianglesSubmitted
	s.TrianglesClipped += o.TrianglesClipped
	s.TrianglesCulled += o.TrianglesCulled
	s.TrianglesRasterized += o.TrianglesRasterized
	s.FragmentsTested += o.FragmentsTested
	s.FragmentsWritten += o.FragmentsWritten
}

// Summary is a one-line form for status bars.
func (s RenderStats) Summary() string {
	return fmt.Sprintf("%d tris, %d raster, %d/%d nodes, %d frags",
		s.TrianglesSubmitted, s.TrianglesRasterized, s.NodesVisited, s.NodesVisited+s.NodesCulled, s.FragmentsWritten)
}

// Table renders the counters as a text table.
func (s RenderStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Stage", "Processed", "Rejected"})
	table.Append([]string{"Meshes", fmt.Sprint(s.Meshes), fmt.Sprint(s.MeshesCulled)})
	table.Append([]string{"BVH nodes", fmt.Sprint(s.NodesVisited), fmt.Sprint(s.NodesCulled)})
	table.Append([]string{"Triangles", fmt.Sprint(s.TrianglesSubmitted), fmt.Sprint(s.TrianglesClipped + s.TrianglesCulled)})
	table.Append([]string{"Rasterized", fmt.Sprint(s.TrianglesRasterized), ""})
	table.Append([]string{"Fragments", fmt.Sprint(s.FragmentsTested), fmt.Sprint(s.FragmentsTested - s.FragmentsWritten)})
	table.Render()
	return buf.String()
}
