package render

import (
	"math"

	"github.com/taigrr/rastercore/pkg/accel"
	"github.com/taigrr/rastercore/pkg/log"
	"github.com/taigrr/rastercore/pkg/math3d"
)

var logger = log.New("render")

// Mesh is the geometry the renderer draws. Collider may return nil, in which
// case every face is submitted.
type Mesh interface {
	accel.TriangleMesh
	VertexCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetTangent(i int) (tangent, bitangent math3d.Vec3)
	Collider() *accel.BVH
}

// Options configures a Renderer.
type Options struct {
	// CullBackFaces drops triangles with negative screen-space area, which
	// are counter-clockwise as seen on screen. Meshes wind front faces
	// clockwise.
	CullBackFaces bool
	// DepthOnly skips fragment shading and color writes.
	DepthOnly bool
	// FrustumCull rejects whole meshes whose world bounds miss the frustum.
	FrustumCull bool
	DepthTest   DepthTestMethod
}

func DefaultOptions() Options {
	return Options{
		FrustumCull: true,
		DepthTest:   DepthTestLess,
	}
}

var white = math3d.V4(1, 1, 1, 1)

// Renderer draws meshes into framebuffers. It keeps scratch state between
// calls and is not safe for concurrent use.
type Renderer struct {
	Camera         *Camera
	VertexShader   VertexShader
	FragmentShader FragmentShader
	Resources      ShaderResources

	// LightDirection points toward the light.
	LightDirection math3d.Vec3
	Ambient        float64

	Options Options
	Stats   RenderStats

	ctx     ShaderContext
	clipper Clipper
}

// NewRenderer returns a renderer with the default vertex shader and Lambert
// lighting.
func NewRenderer(camera *Camera) *Renderer {
	return &Renderer{
		Camera:         camera,
		VertexShader:   DefaultVertexShader,
		FragmentShader: LambertFragmentShader,
		Resources:      ShaderResources{BaseColor: RGB(200, 200, 200)},
		LightDirection: math3d.V3(0.5, 1, 0.3).Normalize(),
		Ambient:        0.3,
		Options:        DefaultOptions(),
	}
}

// ResetStats zeroes the counters, typically once per frame.
func (r *Renderer) ResetStats() {
	r.Stats = RenderStats{}
}

// target is the framebuffer bound for the duration of one draw.
type target struct {
	fb    *Framebuffer
	depth *ZBuffer
}

// RenderEntityMesh draws mesh under the world transform. It fails without
// drawing anything when fb lacks an attachment the options require.
func (r *Renderer) RenderEntityMesh(fb *Framebuffer, mesh Mesh, world math3d.Mat4) error {
	if fb == nil {
		return ErrNoFramebuffer
	}
	if fb.Depth == nil {
		return ErrNoDepthAttachment
	}
	if !r.Options.DepthOnly && fb.Pixels == nil {
		return ErrNoColorAttachment
	}
	if r.VertexShader == nil {
		return ErrNoVertexShader
	}

	cam := r.Camera
	depth := fb.Depth
	if depth.Near() != cam.Near || depth.Far() != cam.Far {
		depth.SetProjection(cam.Near, cam.Far)
		logger.Debugf("depth range set to [%g, %g]", cam.Near, cam.Far)
	}
	depth.DepthTestMethod = r.Options.DepthTest

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	r.ctx = ShaderContext{
		World:               world,
		View:                view,
		Projection:          proj,
		WorldViewProjection: proj.Mul(view).Mul(world),
		NormalMatrix:        world.NormalMatrix(),
		CameraPosition:      cam.Position,
		LightDirection:      r.LightDirection.Normalize(),
		Ambient:             r.Ambient,
	}

	r.Stats.Meshes++
	collider := mesh.Collider()
	if r.Options.FrustumCull {
		bounds := meshBounds(mesh, collider).Transform(world)
		if !cam.Frustum().IntersectsAABB(bounds) {
			r.Stats.MeshesCulled++
			return nil
		}
	}

	t := target{fb: fb, depth: depth}
	if collider == nil {
		for face := range mesh.TriangleCount() {
			r.drawFace(&t, mesh, face)
		}
		return nil
	}
	r.visit(&t, mesh, collider, 0, world, cam.ClippingFrustumAABB())
	return nil
}

func meshBounds(mesh Mesh, collider *accel.BVH) accel.AABB {
	if collider != nil {
		return collider.Bounds()
	}
	b := accel.EmptyAABB()
	for i := range mesh.VertexCount() {
		b.Grow(mesh.GetPosition(i))
	}
	return b
}

// visit walks the collider, pruning subtrees whose world bounds miss the
// frustum box.
func (r *Renderer) visit(t *target, mesh Mesh, bvh *accel.BVH, idx int, world math3d.Mat4, clip accel.AABB) {
	node := &bvh.Nodes[idx]
	if !node.Bounds.Transform(world).Intersects(clip) {
		r.Stats.NodesCulled++
		return
	}
	r.Stats.NodesVisited++

	if node.IsLeaf() {
		for _, face := range bvh.Primitives(node) {
			r.drawFace(t, mesh, face)
		}
		return
	}
	r.visit(t, mesh, bvh, node.LeftChild, world, clip)
	r.visit(t, mesh, bvh, node.LeftChild+1, world, clip)
}

func (r *Renderer) drawFace(t *target, mesh Mesh, face int) {
	var tri ClipTriangle
	for i, vi := range mesh.GetFace(face) {
		pos, normal, uv := mesh.GetVertex(vi)
		tangent, bitangent := mesh.GetTangent(vi)
		tri[i] = r.VertexShader(&r.ctx, VertexIn{
			Position:  pos,
			Normal:    normal,
			UV:        uv,
			Tangent:   tangent,
			Bitangent: bitangent,
			Color:     white,
		})
	}
	r.Stats.TrianglesSubmitted++

	out := r.clipper.Clip(tri)
	if len(out) == 0 {
		r.Stats.TrianglesClipped++
		return
	}
	for i := range out {
		r.rasterize(t, &out[i])
	}
}

// screenVertex is a clipped vertex after the perspective divide.
type screenVertex struct {
	x, y float64
	invW float64
}

// edgeCoeffs returns A, B, C with A*x + B*y + C equal to the cross product
// of (p1 - p0) and (p - p0).
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, c float64) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

func (r *Renderer) rasterize(t *target, tri *ClipTriangle) {
	fb := t.fb
	w, h := fb.Width, fb.Height

	var sv [3]screenVertex
	for i := range tri {
		p := tri[i].Position
		// Clipping against the near plane guarantees w > 0.
		invW := 1 / p.W
		sv[i].x, sv[i].y = ndcToScreen(p.X*invW, p.Y*invW, w, h)
		sv[i].invW = invW
	}

	area := (sv[1].x-sv[0].x)*(sv[2].y-sv[0].y) - (sv[1].y-sv[0].y)*(sv[2].x-sv[0].x)
	if area == 0 {
		return
	}
	if area < 0 && r.Options.CullBackFaces {
		r.Stats.TrianglesCulled++
		return
	}
	r.Stats.TrianglesRasterized++

	minX := max(0, int(math.Floor(min(sv[0].x, sv[1].x, sv[2].x))))
	maxX := min(w-1, int(math.Ceil(max(sv[0].x, sv[1].x, sv[2].x))))
	minY := max(0, int(math.Floor(min(sv[0].y, sv[1].y, sv[2].y))))
	maxY := min(h-1, int(math.Ceil(max(sv[0].y, sv[1].y, sv[2].y))))
	if minX > maxX || minY > maxY {
		return
	}

	a0, b0, c0 := edgeCoeffs(sv[1].x, sv[1].y, sv[2].x, sv[2].y)
	a1, b1, c1 := edgeCoeffs(sv[2].x, sv[2].y, sv[0].x, sv[0].y)
	a2, b2, c2 := edgeCoeffs(sv[0].x, sv[0].y, sv[1].x, sv[1].y)
	if area < 0 {
		// Flip so inside points give non-negative edge values either way.
		a0, b0, c0 = -a0, -b0, -c0
		a1, b1, c1 = -a1, -b1, -c1
		a2, b2, c2 = -a2, -b2, -c2
		area = -area
	}
	invArea := 1 / area

	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	e0Row := a0*px + b0*py + c0
	e1Row := a1*px + b1*py + c1
	e2Row := a2*px + b2*py + c2

	for y := minY; y <= maxY; y++ {
		e0, e1, e2 := e0Row, e1Row, e2Row
		for x := minX; x <= maxX; x++ {
			if e0 >= 0 && e1 >= 0 && e2 >= 0 {
				r.shade(t, tri, &sv, x, y, e0*invArea, e1*invArea, e2*invArea)
			}
			e0 += a0
			e1 += a1
			e2 += a2
		}
		e0Row += b0
		e1Row += b1
		e2Row += b2
	}
}

// shade depth-tests one covered pixel and, if it passes, runs the fragment
// shader. bc0..bc2 are screen-space barycentrics.
func (r *Renderer) shade(t *target, tri *ClipTriangle, sv *[3]screenVertex, x, y int, bc0, bc1, bc2 float64) {
	pw0 := bc0 * sv[0].invW
	pw1 := bc1 * sv[1].invW
	pw2 := bc2 * sv[2].invW
	oneOverW := pw0 + pw1 + pw2
	if oneOverW <= 0 {
		return
	}
	linear := 1 / oneOverW

	r.Stats.FragmentsTested++
	depth, ok := t.depth.Test(x, y, linear)
	if !ok {
		return
	}
	r.Stats.FragmentsWritten++
	t.depth.Set(x, y, depth)
	if r.Options.DepthOnly || r.FragmentShader == nil {
		return
	}

	// Perspective-correct weights.
	w0, w1, w2 := pw0*linear, pw1*linear, pw2*linear
	v0, v1, v2 := &tri[0], &tri[1], &tri[2]
	mix3 := func(a, b, c math3d.Vec3) math3d.Vec3 {
		return a.Scale(w0).Add(b.Scale(w1)).Add(c.Scale(w2))
	}
	s := GeometrySample{
		X:             x,
		Y:             y,
		Depth:         depth,
		LinearDepth:   linear,
		WorldPosition: mix3(v0.WorldPosition, v1.WorldPosition, v2.WorldPosition),
		Normal:        mix3(v0.Normal, v1.Normal, v2.Normal),
		Tangent:       mix3(v0.Tangent, v1.Tangent, v2.Tangent),
		Bitangent:     mix3(v0.Bitangent, v1.Bitangent, v2.Bitangent),
		UV:            v0.UV.Scale(w0).Add(v1.UV.Scale(w1)).Add(v2.UV.Scale(w2)),
		Color:         v0.Color.Scale(w0).Add(v1.Color.Scale(w1)).Add(v2.Color.Scale(w2)),
	}
	t.fb.SetPixel(x, y, r.FragmentShader(&r.ctx, &r.Resources, &s))
}
