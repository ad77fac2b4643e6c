package main

import (
	"fmt"

	"github.com/urfave/cli"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/taigrr/rastercore/pkg/accel"
)

// ShowStats builds the BVH for a model and reports its shape.
func ShowStats(ctx *cli.Context) error {
	setupLogging(ctx)

	mesh, name, err := loadMesh(ctx.Args().First())
	if err != nil {
		return err
	}
	st := mesh.Collider().Stats()
	logger.Noticef("%s\n%s", name, st.Table(name))

	if path := ctx.String("plot"); path != "" {
		if err := plotLeafDepths(st, name, path); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
	}
	return nil
}

// leafDepthValues converts the leaf depths for plotting.
func leafDepthValues(st accel.BVHStats) plotter.Values {
	vs := make(plotter.Values, len(st.LeafDepths))
	for i, d := range st.LeafDepths {
		vs[i] = float64(d)
	}
	return vs
}

// plotLeafDepths saves a histogram with one bin per tree level.
func plotLeafDepths(st accel.BVHStats, name, path string) error {
	if st.Leaves == 0 {
		return fmt.Errorf("%s: BVH has no leaves", name)
	}
	p := plot.New()
	p.Title.Text = name + " leaf depth"
	p.X.Label.Text = "depth"
	p.Y.Label.Text = "leaves"

	h, err := plotter.NewHist(leafDepthValues(st), st.MaxDepth+1)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(15*vg.Centimeter, 10*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
