package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/taigrr/rastercore/pkg/math3d"
	"github.com/taigrr/rastercore/pkg/render"
)

// ShadingMode selects the fragment shader used by the viewer.
type ShadingMode int

const (
	ShadingTextured ShadingMode = iota
	ShadingFlat
	ShadingNormals
	ShadingDepth
	numShadingModes
)

func (m ShadingMode) String() string {
	switch m {
	case ShadingTextured:
		return "textured"
	case ShadingFlat:
		return "flat"
	case ShadingNormals:
		return "normals"
	case ShadingDepth:
		return "depth"
	}
	return fmt.Sprintf("ShadingMode(%d)", int(m))
}

// Shader returns the fragment shader for m.
func (m ShadingMode) Shader() render.FragmentShader {
	switch m {
	case ShadingFlat:
		return render.LambertFragmentShader
	case ShadingNormals:
		return render.NormalFragmentShader
	case ShadingDepth:
		return render.DepthFragmentShader
	}
	return render.TexturedFragmentShader
}

// ViewState is the viewer's UI state.
type ViewState struct {
	Shading     ShadingMode
	ShowBVH     bool
	ShowHUD     bool
	LightMode   bool
	LightDir    math3d.Vec3
	PendingDir  math3d.Vec3 // follows the mouse in light mode
	Picked      int         // instance under the last click, -1 for none
	PickedFace  int
	CullEnabled bool
}

func NewViewState() *ViewState {
	return &ViewState{
		LightDir:   math3d.V3(0.5, 1, 0.3).Normalize(),
		Picked:     -1,
		PickedFace: -1,
	}
}

// Light is the direction the renderer should use this frame.
func (v *ViewState) Light() math3d.Vec3 {
	if v.LightMode {
		return v.PendingDir
	}
	return v.LightDir
}

// ScreenToLightDir maps a terminal cell onto the hemisphere facing the
// viewer. The center of the screen gives a light straight from the camera.
func ScreenToLightDir(x, y, width, height int) math3d.Vec3 {
	nx := (float64(x)/float64(width))*2 - 1
	ny := (float64(y)/float64(height))*2 - 1

	lenSq := nx*nx + ny*ny
	if lenSq > 1 {
		l := math.Sqrt(lenSq)
		nx /= l
		ny /= l
		lenSq = 1
	}
	return math3d.V3(nx, -ny, math.Sqrt(1-lenSq)).Normalize()
}

// HUD prints an overlay on the first and last terminal rows.
type HUD struct {
	name      string
	triangles int
	instances int

	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

func NewHUD(name string, triangles, instances int) *HUD {
	return &HUD{
		name:      name,
		triangles: triangles,
		instances: instances,
		fpsTime:   time.Now(),
	}
}

// Tick counts a frame and refreshes the FPS estimate once a second.
func (h *HUD) Tick() {
	h.fpsFrames++
	if elapsed := time.Since(h.fpsTime); elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiDim       = "\x1b[2m"
	ansiBgBlack   = "\x1b[40m"
	ansiFgWhite   = "\x1b[97m"
	ansiFgGreen   = "\x1b[92m"
	ansiFgYellow  = "\x1b[93m"
	ansiFgCyan    = "\x1b[96m"
	ansiClearLine = "\x1b[2K"
)

func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// Overlay builds the escape sequence that redraws the HUD rows. Both rows
// are always cleared so hiding the HUD takes effect immediately.
func (h *HUD) Overlay(width, height int, v *ViewState, stats render.RenderStats) string {
	var b strings.Builder
	b.WriteString(moveTo(1, 1) + ansiClearLine)
	b.WriteString(moveTo(height, 1) + ansiClearLine)

	if v.LightMode {
		msg := " LIGHT MODE - move mouse to aim, click to set, Esc to cancel "
		fmt.Fprintf(&b, "%s%s%s%s%s%s", moveTo(height, max((width-len(msg))/2, 1)),
			ansiBgBlack, ansiBold, ansiFgYellow, msg, ansiReset)
		return b.String()
	}
	if !v.ShowHUD {
		return b.String()
	}

	fmt.Fprintf(&b, "%s%s%s %.0f FPS %s", moveTo(1, 1), ansiBgBlack, ansiFgGreen, h.fps, ansiReset)
	fmt.Fprintf(&b, "%s%s%s%s %s %s", moveTo(1, max((width-len(h.name)-2)/2, 1)),
		ansiBold, ansiBgBlack, ansiFgWhite, h.name, ansiReset)

	count := fmt.Sprintf(" %d tris x %d ", h.triangles, h.instances)
	fmt.Fprintf(&b, "%s%s%s%s%s%s", moveTo(1, max(width-len(count), 1)),
		ansiBgBlack, ansiFgCyan, ansiBold, count, ansiReset)

	status := fmt.Sprintf(" %s  %s cull  %s bvh  %s", v.Shading, check(v.CullEnabled), check(v.ShowBVH), stats.Summary())
	if v.Picked >= 0 {
		status += fmt.Sprintf("  picked %d/%d", v.Picked, v.PickedFace)
	}
	fmt.Fprintf(&b, "%s%s%s%s %s", moveTo(height, 1), ansiBgBlack, ansiFgWhite, status, ansiReset)

	hint := " L: light "
	fmt.Fprintf(&b, "%s%s%s%s%s%s", moveTo(height, max(width-len(hint), 1)),
		ansiBgBlack, ansiDim, ansiFgYellow, hint, ansiReset)
	return b.String()
}
