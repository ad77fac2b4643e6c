package render

import (
	"math"

	"github.com/taigrr/rastercore/pkg/math3d"
)

// VertexIn is what the traversal feeds a vertex shader for each corner of a
// submitted triangle.
type VertexIn struct {
	Position  math3d.Vec3
	Normal    math3d.Vec3
	UV        math3d.Vec2
	Tangent   math3d.Vec3
	Bitangent math3d.Vec3
	Color     math3d.Vec4 // linear RGBA in [0, 1]
}

// VertexOut is a shaded vertex. Position is in clip space; every other field
// is interpolated across the triangle.
type VertexOut struct {
	Position      math3d.Vec4
	WorldPosition math3d.Vec3
	Normal        math3d.Vec3
	Tangent       math3d.Vec3
	Bitangent     math3d.Vec3
	UV            math3d.Vec2
	Color         math3d.Vec4
}

// Lerp interpolates every attribute of v toward o. The clipper relies on
// this being the only interpolation path so splits stay seamless.
func (v VertexOut) Lerp(o VertexOut, t float64) VertexOut {
	return VertexOut{
		Position:      v.Position.Lerp(o.Position, t),
		WorldPosition: v.WorldPosition.Lerp(o.WorldPosition, t),
		Normal:        v.Normal.Lerp(o.Normal, t),
		Tangent:       v.Tangent.Lerp(o.Tangent, t),
		Bitangent:     v.Bitangent.Lerp(o.Bitangent, t),
		UV:            v.UV.Lerp(o.UV, t),
		Color:         v.Color.Lerp(o.Color, t),
	}
}

// ShaderContext carries per-entity uniforms.
type ShaderContext struct {
	World               math3d.Mat4
	View                math3d.Mat4
	Projection          math3d.Mat4
	WorldViewProjection math3d.Mat4
	NormalMatrix        math3d.Mat4

	CameraPosition math3d.Vec3
	// LightDirection points from the surface toward the light.
	LightDirection math3d.Vec3
	Ambient        float64
}

// ShaderResources are the bindings available to fragment shaders.
type ShaderResources struct {
	Texture   *Texture
	BaseColor Color
}

// GeometrySample is one rasterized fragment with perspective-correct
// attributes.
type GeometrySample struct {
	X, Y int

	// Depth is the encoded value that will be stored; LinearDepth is the
	// view distance it came from.
	Depth       float32
	LinearDepth float64

	WorldPosition math3d.Vec3
	Normal        math3d.Vec3
	Tangent       math3d.Vec3
	Bitangent     math3d.Vec3
	UV            math3d.Vec2
	Color         math3d.Vec4
}

type (
	VertexShader   func(ctx *ShaderContext, in VertexIn) VertexOut
	FragmentShader func(ctx *ShaderContext, res *ShaderResources, s *GeometrySample) Color
)

// DefaultVertexShader projects the position and moves the tangent frame into
// world space.
func DefaultVertexShader(ctx *ShaderContext, in VertexIn) VertexOut {
	return VertexOut{
		Position:      ctx.WorldViewProjection.MulVec4(math3d.V4FromV3(in.Position, 1)),
		WorldPosition: ctx.World.MulVec3(in.Position),
		Normal:        ctx.NormalMatrix.MulVec3Dir(in.Normal).Normalize(),
		Tangent:       ctx.World.MulVec3Dir(in.Tangent).Normalize(),
		Bitangent:     ctx.World.MulVec3Dir(in.Bitangent).Normalize(),
		UV:            in.UV,
		Color:         in.Color,
	}
}

func lambert(ctx *ShaderContext, normal math3d.Vec3) float64 {
	diffuse := math.Max(0, normal.Normalize().Dot(ctx.LightDirection))
	return ctx.Ambient + (1-ctx.Ambient)*diffuse
}

// LambertFragmentShader shades the base color with a single directional light.
func LambertFragmentShader(ctx *ShaderContext, res *ShaderResources, s *GeometrySample) Color {
	c := ModulateColor(res.BaseColor, vec4ToColor(s.Color))
	return MultiplyColor(c, lambert(ctx, s.Normal))
}

// TexturedFragmentShader samples res.Texture at the fragment UV and lights
// it. Without a texture it behaves like LambertFragmentShader.
func TexturedFragmentShader(ctx *ShaderContext, res *ShaderResources, s *GeometrySample) Color {
	if res.Texture == nil {
		return LambertFragmentShader(ctx, res, s)
	}
	c := ModulateColor(res.Texture.Sample(s.UV.X, s.UV.Y), vec4ToColor(s.Color))
	return MultiplyColor(c, lambert(ctx, s.Normal))
}

// NormalFragmentShader maps the world normal from [-1, 1] to RGB.
func NormalFragmentShader(_ *ShaderContext, _ *ShaderResources, s *GeometrySample) Color {
	n := s.Normal.Normalize()
	return RGB(unitToByte(n.X*0.5+0.5), unitToByte(n.Y*0.5+0.5), unitToByte(n.Z*0.5+0.5))
}

// DepthFragmentShader writes the encoded depth as grey, near is black.
func DepthFragmentShader(_ *ShaderContext, _ *ShaderResources, s *GeometrySample) Color {
	g := unitToByte(float64(s.Depth))
	return RGB(g, g, g)
}

// FlatFragmentShader ignores lighting and returns the base color.
func FlatFragmentShader(_ *ShaderContext, res *ShaderResources, _ *GeometrySample) Color {
	return res.BaseColor
}

func unitToByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func vec4ToColor(v math3d.Vec4) Color {
	return RGBA(unitToByte(v.X), unitToByte(v.Y), unitToByte(v.Z), unitToByte(v.W))
}
