package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/urfave/cli"

	"github.com/taigrr/rastercore/pkg/math3d"
	"github.com/taigrr/rastercore/pkg/render"
)

const (
	torqueStrength  = 3.0
	zoomStep        = 0.5
	bvhOverlayDepth = 3
)

var (
	tlasColor     = render.RGB(0, 255, 128)
	pickedColor   = render.RGB(255, 220, 0)
	bvhInnerColor = render.RGB(80, 120, 255)
	bvhLeafColor  = render.RGB(255, 80, 160)
)

// viewer is the state shared by the event handlers and the frame loop. Both
// run on the same goroutine.
type viewer struct {
	term  *uv.Terminal
	scene *scene
	cam   *render.Camera
	r     *render.Renderer

	out    *render.TerminalRenderer
	fb     *render.Framebuffer
	width  int
	height int

	rotation *Rotation
	state    *ViewState
	hud      *HUD
	distance float64
	minDist  float64
	maxDist  float64

	torque    struct{ pitch, yaw, roll float64 }
	mouseDown bool
	lastX     int
	lastY     int
}

// View runs the interactive terminal viewer until Esc or a signal.
func View(ctx *cli.Context) error {
	setupLogging(ctx)

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
	fps := ctx.Int("fps")
	if fps < 1 {
		return fmt.Errorf("fps %d: must be positive", fps)
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// any-event mouse tracking, SGR encoding
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			logger.Warningf("terminal shutdown: %v", err)
		}
	}()

	dist := s.viewDistance()
	v := &viewer{
		term:     term,
		scene:    s,
		cam:      newCamera(1, dist),
		rotation: NewRotation(fps),
		state:    NewViewState(),
		hud:      NewHUD(s.name, s.mesh.TriangleCount(), len(s.instances)),
		distance: dist,
		minDist:  1,
		maxDist:  math.Max(20, dist*2),
	}
	v.r = render.NewRenderer(v.cam)
	v.r.Options = opts
	v.r.Resources = render.ShaderResources{Texture: s.texture, BaseColor: s.baseColor}
	v.state.CullEnabled = opts.CullBackFaces
	v.resize(width, height)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	events := term.Events()
	frame := time.Second / time.Duration(fps)
	last := time.Now()
	for {
		now := time.Now()
		dt := math.Min(now.Sub(last).Seconds(), 0.1)
		last = now

	drain:
		for {
			select {
			case <-runCtx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if v.handle(ev) {
					return nil
				}
			default:
				break drain
			}
		}

		if err := v.frame(dt, bg); err != nil {
			return err
		}

		if elapsed := time.Since(now); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
}

// resize matches the framebuffer and camera to a terminal of w x h cells.
func (v *viewer) resize(w, h int) {
	v.width, v.height = w, h
	v.out = render.NewTerminalRenderer(v.term, w, h)
	fbw, fbh := v.out.FramebufferSize()
	v.fb = render.NewFramebuffer(fbw, fbh)
	v.cam.SetAspectRatio(float64(fbw) / float64(max(fbh, 1)))
	logger.Debugf("framebuffer %dx%d", fbw, fbh)
}

func (v *viewer) zoom(delta float64) {
	v.distance = math.Max(v.minDist, math.Min(v.maxDist, v.distance+delta))
	v.cam.SetPosition(math3d.V3(0, 0, v.distance))
}

// handle applies one terminal event and reports whether the viewer should
// quit.
func (v *viewer) handle(ev uv.Event) bool {
	st := v.state
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.term.Erase()
		v.term.Resize(ev.Width, ev.Height)
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("ctrl+c"):
			return true
		case ev.MatchString("escape"):
			if !st.LightMode {
				return true
			}
			st.LightMode = false
		case ev.MatchString("w", "up"):
			v.torque.pitch = -torqueStrength
		case ev.MatchString("s", "down"):
			v.torque.pitch = torqueStrength
		case ev.MatchString("a", "left"):
			v.torque.yaw = -torqueStrength
		case ev.MatchString("d", "right"):
			v.torque.yaw = torqueStrength
		case ev.MatchString("q"):
			v.torque.roll = -torqueStrength
		case ev.MatchString("e"):
			v.torque.roll = torqueStrength
		case ev.MatchString("space"):
			v.rotation.Impulse(
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
			)
		case ev.MatchString("r"):
			v.rotation.Reset()
			v.distance = v.scene.viewDistance()
			v.zoom(0)
			st.Picked, st.PickedFace = -1, -1
		case ev.MatchString("+", "="):
			v.zoom(-zoomStep)
		case ev.MatchString("-", "_"):
			v.zoom(zoomStep)
		case ev.MatchString("m"):
			st.Shading = (st.Shading + 1) % numShadingModes
			v.r.FragmentShader = st.Shading.Shader()
		case ev.MatchString("b"):
			st.CullEnabled = !st.CullEnabled
			v.r.Options.CullBackFaces = st.CullEnabled
		case ev.MatchString("x"):
			st.ShowBVH = !st.ShowBVH
		case ev.MatchString("l"):
			st.LightMode = true
			st.PendingDir = st.LightDir
		case ev.MatchString("?", "shift+/"):
			st.ShowHUD = !st.ShowHUD
		}

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w", "up", "s", "down"):
			v.torque.pitch = 0
		case ev.MatchString("a", "left", "d", "right"):
			v.torque.yaw = 0
		case ev.MatchString("q", "e"):
			v.torque.roll = 0
		}

	case uv.MouseClickEvent:
		if st.LightMode {
			st.LightDir = st.PendingDir
			st.LightMode = false
			break
		}
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y
		v.pick(ev.X, ev.Y)

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		switch {
		case st.LightMode:
			st.PendingDir = ScreenToLightDir(ev.X, ev.Y, v.width, v.height)
		case v.mouseDown:
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.rotation.Impulse(float64(dy)*0.03, float64(dx)*0.03, 0)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.zoom(-zoomStep)
		case uv.MouseWheelDown:
			v.zoom(zoomStep)
		}
	}
	return false
}

// pick selects the instance under a terminal cell. A cell covers two
// framebuffer rows; the ray goes through its center.
func (v *viewer) pick(col, row int) {
	px, py := float64(col)+0.5, float64(row*2)+1
	inst, face, ok := v.scene.pick(v.cam, px, py, v.fb.Width, v.fb.Height)
	if !ok {
		v.state.Picked, v.state.PickedFace = -1, -1
		return
	}
	v.state.Picked, v.state.PickedFace = inst, face
	logger.Debugf("picked instance %d face %d", inst, face)
}

// frame advances the simulation by dt seconds and presents one image.
func (v *viewer) frame(dt float64, bg render.Color) error {
	// Key release events are unreliable, so held torque fades on its own.
	v.rotation.Impulse(v.torque.pitch*dt, v.torque.yaw*dt, v.torque.roll*dt)
	v.torque.pitch *= 0.9
	v.torque.yaw *= 0.9
	v.torque.roll *= 0.9
	v.rotation.Step()

	v.scene.update(v.rotation.Matrix())

	v.r.ResetStats()
	v.r.LightDirection = v.state.Light()
	v.fb.Clear(bg)
	if err := v.scene.renderTo(v.r, v.fb); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if v.state.ShowBVH {
		wf := render.NewWireframe(v.cam, v.fb)
		if len(v.scene.instances) > 1 {
			wf.DrawTLAS(v.scene.tlas, v.state.Picked, tlasColor, pickedColor)
		}
		for i, inst := range v.scene.instances {
			if i == v.state.Picked || len(v.scene.instances) == 1 {
				wf.DrawBVH(inst.BVH, inst.Transform, bvhOverlayDepth, bvhInnerColor, bvhLeafColor)
			}
		}
	}

	v.out.Render(v.fb)
	if err := v.out.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	v.hud.Tick()
	fmt.Fprint(os.Stdout, v.hud.Overlay(v.width, v.height, v.state, v.r.Stats))
	return nil
}
