package main

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/math3d"
	"github.com/taigrr/rastercore/pkg/models"
	"github.com/taigrr/rastercore/pkg/render"
	"github.com/urfave/cli"
)

// gridSpacing separates instances, which are normalized to a 2-unit box.
const gridSpacing = 3.0

// loadMesh opens a model file or builds a named primitive, then centers it
// and scales it to fit a 2-unit box. The result always has a collider.
func loadMesh(arg string) (*models.Mesh, string, error) {
	var mesh *models.Mesh
	switch arg {
	case "", "cube":
		mesh = models.NewCube(2)
	case "sphere":
		mesh = models.NewUVSphere(1, 24, 48)
	case "plane":
		mesh = models.NewPlane(2, 8)
	default:
		m, err := models.Load(arg)
		if err != nil {
			return nil, "", fmt.Errorf("load model: %w", err)
		}
		mesh = m
		arg = filepath.Base(arg)
	}
	if arg == "" {
		arg = "cube"
	}

	size := mesh.Size()
	if maxDim := math.Max(size.X, math.Max(size.Y, size.Z)); maxDim > 0 {
		scale := 2 / maxDim
		mesh.Transform(math3d.ScaleUniform(scale).Mul(math3d.Translate(mesh.Center().Negate())))
	}
	if mesh.Collider() == nil {
		if err := mesh.BuildCollider(); err != nil {
			return nil, "", err
		}
	}
	return mesh, arg, nil
}

// gridTransforms lays n x n instances out in the XY plane around the origin.
func gridTransforms(n int, spacing float64) []math3d.Mat4 {
	out := make([]math3d.Mat4, 0, n*n)
	half := float64(n-1) / 2
	for j := range n {
		for i := range n {
			out = append(out, math3d.Translate(math3d.V3(
				(float64(i)-half)*spacing,
				(half-float64(j))*spacing,
				0,
			)))
		}
	}
	return out
}

// linearMesh hides the collider so every face is submitted.
type linearMesh struct {
	*models.Mesh
}

func (linearMesh) Collider() *accel.BVH { return nil }

// scene is a mesh instanced on a grid. The TLAS over the instances is
// rebuilt whenever they move.
type scene struct {
	name      string
	mesh      *models.Mesh
	drawMesh  render.Mesh
	texture   *render.Texture
	baseColor render.Color

	grid      []math3d.Mat4
	instances []accel.BVHInstance
	tlas      *accel.TLAS
}

func newScene(ctx *cli.Context) (*scene, error) {
	mesh, name, err := loadMesh(ctx.Args().First())
	if err != nil {
		return nil, err
	}

	n := ctx.Int("grid")
	if n < 1 || n*n > accel.MaxInstances {
		return nil, fmt.Errorf("grid %d: want 1 to %d instances", n, accel.MaxInstances)
	}

	s := &scene{
		name:      name,
		mesh:      mesh,
		drawMesh:  mesh,
		baseColor: render.RGB(200, 200, 200),
		grid:      gridTransforms(n, gridSpacing),
	}
	if ctx.Bool("no-bvh") {
		s.drawMesh = linearMesh{mesh}
	}
	if mat := mesh.GetMaterial(0); mat != nil {
		c := mat.BaseColor
		s.baseColor = render.RGBA(unit(c[0]), unit(c[1]), unit(c[2]), unit(c[3]))
	}

	switch path := ctx.String("texture"); {
	case path != "":
		if s.texture, err = render.LoadTexture(path); err != nil {
			return nil, err
		}
	case mesh.BaseMap() != nil:
		s.texture = render.TextureFromImage(mesh.BaseMap())
		logger.Infof("using embedded texture %dx%d", s.texture.Width, s.texture.Height)
	default:
		s.texture = render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100))
	}

	s.instances = make([]accel.BVHInstance, len(s.grid))
	s.update(math3d.Identity())
	logger.Infof("scene %s: %d triangles x %d instances", name, mesh.TriangleCount(), len(s.instances))
	return s, nil
}

func unit(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// update places every instance under rotation and rebuilds the TLAS.
func (s *scene) update(rotation math3d.Mat4) {
	for i, g := range s.grid {
		s.instances[i] = accel.NewBVHInstance(s.mesh.Collider(), g.Mul(rotation))
	}
	s.tlas = accel.NewTLAS(s.instances)
}

// viewDistance is a camera distance that fits the whole grid.
func (s *scene) viewDistance() float64 {
	n := math.Sqrt(float64(len(s.grid)))
	return 5 + (n-1)*gridSpacing*1.2
}

// renderTo draws every instance whose bounds reach the view volume.
func (s *scene) renderTo(r *render.Renderer, fb *render.Framebuffer) error {
	var err error
	s.tlas.QueryInstances(r.Camera.ClippingFrustumAABB(), func(i int) {
		if err != nil {
			return
		}
		err = r.RenderEntityMesh(fb, s.drawMesh, s.instances[i].Transform)
	})
	return err
}

// pick returns the instance and face under pixel (px, py), or ok false.
func (s *scene) pick(cam *render.Camera, px, py float64, width, height int) (instance, face int, ok bool) {
	seg := cam.ScreenSegment(px, py, width, height)
	if !s.tlas.IntersectLineSegment(&seg) {
		return -1, -1, false
	}
	return seg.CollidingBVHIndex, seg.CollidingPrimitive, true
}

// rendererOptions maps the shared command flags onto render.Options.
func rendererOptions(ctx *cli.Context) (render.Options, error) {
	opts := render.DefaultOptions()
	method, err := render.ParseDepthTestMethod(ctx.String("depth-test"))
	if err != nil {
		return opts, err
	}
	opts.DepthTest = method
	opts.CullBackFaces = ctx.Bool("cull-backfaces")
	return opts, nil
}

func newCamera(aspect, distance float64) *render.Camera {
	cam := render.NewCamera()
	cam.SetAspectRatio(aspect)
	cam.SetClipPlanes(0.1, 100)
	cam.SetPosition(math3d.V3(0, 0, distance))
	cam.LookAt(math3d.Zero3())
	return cam
}
