package main

import (
	"fmt"
	"math"

	"github.com/urfave/cli"

	"github.com/taigrr/rastercore/pkg/math3d"
	"github.com/taigrr/rastercore/pkg/render"
)

// RenderFrame draws one frame offscreen and writes it as PNG.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	width, height := ctx.Int("width"), ctx.Int("height")
	if width < 1 || height < 1 {
		return fmt.Errorf("frame size %dx%d: must be positive", width, height)
	}

	s, err := newScene(ctx)
	if err != nil {
		return err
	}
	opts, err := rendererOptions(ctx)
	if err != nil {
		return err
	}
	bg, err := render.ParseRGB(ctx.String("bg"))
	if err != nil {
		return err
	}

	rot := math3d.RotateX(ctx.Float64("pitch") * math.Pi / 180).
		Mul(math3d.RotateY(ctx.Float64("yaw") * math.Pi / 180))
	s.update(rot)

	cam := newCamera(float64(width)/float64(height), s.viewDistance())
	r := render.NewRenderer(cam)
	r.Options = opts
	r.FragmentShader = render.TexturedFragmentShader
	r.Resources = render.ShaderResources{Texture: s.texture, BaseColor: s.baseColor}

	fb := render.NewFramebuffer(width, height)
	fb.Clear(bg)
	if err := s.renderTo(r, fb); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if depth := ctx.Int("bvh-depth"); depth >= 0 {
		wf := render.NewWireframe(cam, fb)
		for _, inst := range s.instances {
			wf.DrawBVH(inst.BVH, inst.Transform, depth, bvhInnerColor, bvhLeafColor)
		}
	}

	out := ctx.String("out")
	if err := fb.SavePNG(out); err != nil {
		return err
	}
	logger.Infof("wrote %s (%dx%d)", out, width, height)

	if path := ctx.String("depth-out"); path != "" {
		if err := fb.SaveDepthPNG(path); err != nil {
			return err
		}
		logger.Infof("wrote %s", path)
	}

	logger.Noticef("frame statistics\n%s", r.Stats.Table())
	return nil
}
