// rastercore renders triangle meshes on the CPU, either live in the terminal
// or offscreen to PNG.
//
// Viewer controls:
//
//	Mouse drag  - Rotate (click also picks the instance under the cursor)
//	Scroll, +/- - Zoom
//	W/S, A/D    - Pitch and yaw
//	Q/E         - Roll
//	Space       - Random spin
//	R           - Reset view
//	M           - Cycle shading (textured, flat, normals, depth)
//	B           - Toggle back-face culling
//	X           - Toggle BVH overlay
//	L           - Position light (mouse to aim, click to set, Esc to cancel)
//	?           - Toggle HUD
//	Esc         - Quit
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "rastercore"
	app.Usage = "render triangle meshes with a BVH-accelerated CPU rasterizer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "view",
			Usage: "interactive terminal viewer",
			Description: `
Draw the model with half-block characters, two pixels per terminal cell.
The model may be a .glb/.gltf file or one of the built-in primitives: cube,
sphere or plane. With --grid N the model is instanced on an N x N grid and
the instances are gathered into a TLAS used for culling and picking.`,
			ArgsUsage: "[model]",
			Flags: append(sceneFlags(),
				cli.IntFlag{
					Name:  "fps",
					Value: 60,
					Usage: "target frames per second",
				},
			),
			Action: View,
		},
		{
			Name:      "render",
			Usage:     "render a single frame to PNG",
			ArgsUsage: "[model]",
			Flags: append(sceneFlags(),
				cli.IntFlag{
					Name:  "width",
					Value: 640,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 480,
					Usage: "frame height",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
				cli.StringFlag{
					Name:  "depth-out",
					Usage: "also write the depth attachment to this file",
				},
				cli.Float64Flag{
					Name:  "yaw",
					Value: 30,
					Usage: "model yaw in degrees",
				},
				cli.Float64Flag{
					Name:  "pitch",
					Value: 20,
					Usage: "model pitch in degrees",
				},
				cli.IntFlag{
					Name:  "bvh-depth",
					Value: -1,
					Usage: "overlay BVH node bounds down to this depth (-1 disables)",
				},
			),
			Action: RenderFrame,
		},
		{
			Name:      "stats",
			Usage:     "print BVH statistics for a model",
			ArgsUsage: "[model]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "plot",
					Usage: "write a leaf depth histogram to this PNG",
				},
			},
			Action: ShowStats,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// sceneFlags are shared by the commands that draw.
func sceneFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "texture",
			Usage: "texture image (PNG/JPG), overrides the model's own",
		},
		cli.StringFlag{
			Name:  "bg",
			Value: "30,30,40",
			Usage: "background color as R,G,B",
		},
		cli.IntFlag{
			Name:  "grid",
			Value: 1,
			Usage: "instance the model on an N x N grid",
		},
		cli.StringFlag{
			Name:  "depth-test",
			Value: "less",
			Usage: "depth comparison: always, never, less, equal, lequal, greater, notequal, gequal",
		},
		cli.BoolFlag{
			Name:  "cull-backfaces",
			Usage: "skip triangles facing away from the camera",
		},
		cli.BoolFlag{
			Name:  "no-bvh",
			Usage: "submit every triangle instead of walking the mesh BVH",
		},
	}
}
