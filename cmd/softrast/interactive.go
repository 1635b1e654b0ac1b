package main

import (
	"context"
	"fmt"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/softrast/pkg/capture"
	"github.com/taigrr/softrast/pkg/render"
	"github.com/taigrr/softrast/pkg/scene"
)

// keyHold is how long a movement key counts as held after its last press
// or repeat. Terminals rarely report key releases.
const keyHold = 150 * time.Millisecond

// lookPerCell scales a mouse drag of one cell into camera look input.
const lookPerCell = 8.0

// toggleKeys maps keys to the renderer switches they flip.
var toggleKeys = map[string]render.UniformKind{
	"m": render.UniformMSAA,
	"p": render.UniformPhong,
	"l": render.UniformLighting,
	"x": render.UniformWireframe,
	"b": render.UniformBoxBlur,
	"g": render.UniformGaussianBlur,
	"o": render.UniformLightBloom,
	"v": render.UniformPerspectiveCorrection,
	"z": render.UniformDepthTest,
}

// viewer is the interactive session state.
type viewer struct {
	opts  *options
	world *world
	term  *uv.Terminal
	out   *render.TerminalRenderer

	cols, rows int
	fb         *render.Framebuffer
	r          *render.Renderer
	cam        *scene.FlyCamera
	hud        *HUD
	stats      scene.DrawStats

	// Keyboard toggles survive renderer rebuilds on resize.
	toggles map[render.UniformKind]bool
	filter  *render.FilterMode
	cull    *render.CullMode

	held       map[string]time.Time
	mouseDown  bool
	lastX      int
	lastY      int
	lookX      float64
	lookY      float64
	rec        *capture.Recorder
	recPath    string
	status     string
	statusTill time.Time
}

func runInteractive(ctx context.Context, opts *options, model string) error {
	if opts.fps <= 0 {
		return fmt.Errorf("--fps %d: %w", opts.fps, errUsage)
	}
	w, err := loadWorld(opts, model)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	_ = term.Resize(cols, rows)

	// Any-event mouse tracking with SGR coordinates.
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")

	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}()

	v := &viewer{
		opts:    opts,
		world:   w,
		term:    term,
		out:     render.NewTerminalRenderer(term, cols, rows),
		hud:     newHUD(),
		toggles: make(map[render.UniformKind]bool),
		held:    make(map[string]time.Time),
	}
	if err := v.resize(cols, rows); err != nil {
		return err
	}
	defer func() { v.r.Close() }()
	if w.cfg != nil {
		if err := w.cfg.ApplyCamera(v.cam); err != nil {
			return err
		}
	}

	var updates <-chan *scene.Config
	if opts.config != "" {
		watcher, err := scene.Watch(ctx, opts.config)
		if err != nil {
			return err
		}
		defer watcher.Close()
		updates = watcher.Updates()
	}

	return v.loop(ctx, updates)
}

func (v *viewer) loop(ctx context.Context, updates <-chan *scene.Config) error {
	frame := time.Second / time.Duration(v.opts.fps)
	last := time.Now()
	events := v.term.Events()

	for {
		select {
		case <-ctx.Done():
			return v.stopRecording()
		case cfg, ok := <-updates:
			if !ok {
				updates = nil
				break
			}
			v.reload(cfg)
		default:
		}

		quit, err := v.drainEvents(events)
		if err != nil {
			return err
		}
		if quit {
			return v.stopRecording()
		}

		now := time.Now()
		dt := min(now.Sub(last).Seconds(), 0.1)
		last = now

		v.cam.Update(dt, v.inputs(now))
		v.world.scene.Update(dt)

		if v.stats, err = drawFrame(v.r, v.fb, v.world.scene, v.cam); err != nil {
			return err
		}
		if v.rec != nil {
			if err := v.rec.Frame(v.fb.Color); err != nil {
				return err
			}
		}

		v.out.Render(v.fb)
		v.hud.UpdateFPS()
		v.hud.Draw(v.term, v.cols, v.rows, v.hudInfo(now))
		if err := v.out.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}

		if elapsed := time.Since(now); elapsed < frame {
			time.Sleep(frame - elapsed)
		}
	}
}

// drainEvents handles every pending terminal event without blocking.
func (v *viewer) drainEvents(events <-chan uv.Event) (quit bool, err error) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return true, nil
			}
			if quit, err := v.handle(ev); quit || err != nil {
				return quit, err
			}
		default:
			return false, nil
		}
	}
}

func (v *viewer) handle(ev uv.Event) (quit bool, err error) {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.term.Erase()
		_ = v.term.Resize(ev.Width, ev.Height)
		return false, v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		return v.key(ev)

	case uv.KeyReleaseEvent:
		for _, k := range []string{"w", "s", "a", "d", "up", "down", "left", "right", "space", "e", "q", "+", "-"} {
			if ev.MatchString(k) {
				delete(v.held, k)
			}
		}

	case uv.MouseClickEvent:
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.mouseDown {
			v.lookX += float64(ev.X-v.lastX) * lookPerCell
			v.lookY += float64(ev.Y-v.lastY) * lookPerCell
			v.lastX, v.lastY = ev.X, ev.Y
		}
	}
	return false, nil
}

func (v *viewer) key(ev uv.KeyPressEvent) (quit bool, err error) {
	now := time.Now()
	for _, k := range []string{"w", "s", "a", "d", "up", "down", "left", "right", "space", "e", "q"} {
		if ev.MatchString(k) {
			v.held[k] = now
			return false, nil
		}
	}

	switch {
	case ev.MatchString("escape", "ctrl+c"):
		return true, nil
	case ev.MatchString("+", "="):
		v.held["+"] = now
	case ev.MatchString("-", "_"):
		v.held["-"] = now
	case ev.MatchString("f"):
		u := v.r.Uniform()
		f := (u.Filter + 1) % 2
		v.filter = &f
		v.r.SetTextureFilter(f)
		v.flash("filter " + f.String())
	case ev.MatchString("c"):
		u := v.r.Uniform()
		c := (u.CullMode + 1) % 4
		v.cull = &c
		v.r.SetCullMode(c)
		v.flash("cull " + c.String())
	case ev.MatchString("r"):
		if v.rec == nil {
			v.startRecording()
		} else if err := v.stopRecording(); err != nil {
			v.flash("record: " + err.Error())
		}
	case ev.MatchString("?", "shift+/"):
		v.hud.show = !v.hud.show
	default:
		for k, kind := range toggleKeys {
			if ev.MatchString(k) {
				u := v.r.Uniform()
				on := !u.Bool(kind)
				v.toggles[kind] = on
				return false, v.r.SetUniformBool(kind, on)
			}
		}
	}
	return false, nil
}

// inputs turns held keys and the accumulated drag into camera input.
func (v *viewer) inputs(now time.Time) scene.Inputs {
	held := func(keys ...string) bool {
		for _, k := range keys {
			if t, ok := v.held[k]; ok && now.Sub(t) < keyHold {
				return true
			}
		}
		return false
	}
	in := scene.Inputs{
		DeltaX:    v.lookX,
		DeltaY:    v.lookY,
		Forward:   held("w", "up"),
		Backward:  held("s", "down"),
		Left:      held("a", "left"),
		Right:     held("d", "right"),
		Upward:    held("space", "e"),
		Downward:  held("q"),
		SpeedUp:   held("+"),
		SpeedDown: held("-"),
	}
	v.lookX, v.lookY = 0, 0
	return in
}

// resize rebuilds the framebuffer and renderer for a new cell area,
// keeping the keyboard toggles. A running recording is saved first since
// its frame size changes.
func (v *viewer) resize(cols, rows int) error {
	if v.rec != nil {
		if err := v.stopRecording(); err != nil {
			render.Logger().Warn("save recording on resize", "err", err)
		}
	}
	v.cols, v.rows = cols, rows
	v.out.Resize(cols, rows)
	width, height := v.out.FramebufferSize()

	fb := render.NewFramebuffer(width, height)
	r, err := render.New(fb.Color, fb.Depth, width, height)
	if err != nil {
		return err
	}
	if v.r != nil {
		v.r.Close()
	}
	v.fb, v.r = fb, r

	if v.cam == nil {
		v.cam = scene.NewFlyCamera(width, height)
	} else {
		v.cam.SetSize(width, height)
	}
	return v.applySettings()
}

// applySettings pushes config and flags, then the keyboard toggles.
func (v *viewer) applySettings() error {
	if err := v.world.configure(v.r, v.opts); err != nil {
		return err
	}
	for kind, on := range v.toggles {
		if err := v.r.SetUniformBool(kind, on); err != nil {
			return err
		}
	}
	if v.filter != nil {
		v.r.SetTextureFilter(*v.filter)
	}
	if v.cull != nil {
		v.r.SetCullMode(*v.cull)
	}
	return nil
}

// reload swaps in a changed config. The file's renderer settings replace
// the keyboard toggles; the camera stays where it is.
func (v *viewer) reload(cfg *scene.Config) {
	s, err := cfg.Build()
	if err != nil {
		render.Logger().Warn("scene reload failed", "err", err)
		v.flash("reload failed")
		return
	}
	prevScene, prevCfg := v.world.scene, v.world.cfg
	v.world.scene, v.world.cfg = s, cfg
	clear(v.toggles)
	v.filter, v.cull = nil, nil
	if err := v.applySettings(); err != nil {
		render.Logger().Warn("scene reload failed", "err", err)
		v.world.scene, v.world.cfg = prevScene, prevCfg
		_ = v.applySettings()
		v.flash("reload failed")
		return
	}
	v.flash("reloaded")
}

func (v *viewer) startRecording() {
	v.recPath = v.opts.record
	if v.recPath == "" {
		v.recPath = time.Now().Format("softrast-20060102-150405.gif")
	}
	v.rec = capture.NewRecorder(v.fb.Width, v.fb.Height, capture.Options{Delay: gifDelay(v.opts.fps)})
}

func (v *viewer) stopRecording() error {
	if v.rec == nil {
		return nil
	}
	rec := v.rec
	v.rec = nil
	if rec.Len() == 0 {
		return nil
	}
	if err := rec.Save(v.recPath); err != nil {
		return err
	}
	v.flash("saved " + v.recPath)
	return nil
}

func (v *viewer) flash(msg string) {
	v.status = msg
	v.statusTill = time.Now().Add(2 * time.Second)
}

func (v *viewer) hudInfo(now time.Time) hudInfo {
	info := hudInfo{
		name:      v.world.name,
		stats:     v.stats,
		uniform:   v.r.Uniform(),
		speed:     v.cam.Speed,
		recording: -1,
	}
	if v.rec != nil {
		info.recording = v.rec.Len()
	}
	if now.Before(v.statusTill) {
		info.status = v.status
	}
	return info
}
