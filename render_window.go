package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/config"
	"github.com/stewi1014/fractalvis/eventloop"
	"github.com/stewi1014/fractalvis/glrender"
	"github.com/stewi1014/fractalvis/hud"
	"github.com/stewi1014/fractalvis/input"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
)

// runGLFW shows a single render window without the config window. Edits
// come from the remote or the config file.
func runGLFW(ctx context.Context, cfg config.Config, v programs.Variant) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw.Init failed: %w", err)
	}
	defer glfw.Terminate()

	ctx, quit := context.WithCancelCause(ctx)
	defer quit(nil)

	w, err := NewGLFWWindow(cfg, v)
	if err != nil {
		return err
	}
	defer w.Destroy()
	defer w.posted.Close()

	if err := startServices(ctx, quit, cfg, w.post, w); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, w.posted.Wake)
	defer stop()

	for !w.ShouldClose() && ctx.Err() == nil {
		glfw.WaitEvents()
		w.posted.Run()
		if w.dirty {
			w.draw()
		}
	}

	return context.Cause(ctx)
}

func NewGLFWWindow(cfg config.Config, v programs.Variant) (*GLFWWindow, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if cfg.Debug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	window, err := glfw.CreateWindow(
		cfg.Window.Width,
		cfg.Window.Height,
		"fractalvis",
		nil,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("glfw.CreateWindow failed: %w", err)
	}

	w := &GLFWWindow{
		Window:   window,
		logger:   slog.Default(),
		posted:   eventloop.New(64, glfw.PostEmptyEvent),
		renderer: glrender.New(slog.Default()),
		dirty:    true,
	}

	w.MakeContextCurrent()
	if err := w.renderer.Init(cfg.Debug); err != nil {
		window.Destroy()
		return nil, err
	}

	w.session = viewer.NewSession(v, monitorSurface{}, cfg.Options())
	if err := cfg.Apply(w.session); err != nil {
		window.Destroy()
		return nil, err
	}
	w.session.Attach(windowSize{window})
	if err := w.renderer.Load(w.session.Program()); err != nil {
		window.Destroy()
		return nil, err
	}
	w.renderer.Viewport(window.GetFramebufferSize())
	w.session.OnChange(w.changed)
	w.SetTitle(hud.NewReadout(w.session.Snapshot()).Title())

	window.SetMouseButtonCallback(w.mouseButton)
	window.SetCursorPosCallback(w.cursorPos)
	window.SetScrollCallback(w.scroll)
	window.SetSizeCallback(func(*glfw.Window, int, int) { w.session.Resize() })
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.renderer.Viewport(width, height)
		w.dirty = true
	})
	window.SetRefreshCallback(func(*glfw.Window) { w.dirty = true })

	return w, nil
}

type GLFWWindow struct {
	*glfw.Window
	logger *slog.Logger

	session  *viewer.Session
	renderer *glrender.Renderer
	posted   *eventloop.Queue
	dirty    bool
}

func (w *GLFWWindow) Session() *viewer.Session {
	return w.session
}

func (w *GLFWWindow) ReloadProgram() {
	if err := w.renderer.Load(w.session.Program()); err != nil {
		w.logger.Warn("shader reload failed", "err", err)
		return
	}
	w.dirty = true
}

// post queues f to run on the window's goroutine. f is dropped once the
// event loop has exited.
func (w *GLFWWindow) post(f func()) {
	if !w.posted.Post(f) {
		w.logger.Debug("event loop closed, dropping posted func")
	}
}

func (w *GLFWWindow) draw() {
	w.renderer.Draw(w.session.Uniforms())
	w.SwapBuffers()
	w.dirty = false
}

func (w *GLFWWindow) changed(snap viewer.Snapshot) {
	if w.renderer.Loaded() != snap.Variant {
		w.ReloadProgram()
	}
	w.SetTitle(hud.NewReadout(snap).Title())
	w.dirty = true
}

func (w *GLFWWindow) cursor() mgl64.Vec2 {
	x, y := w.GetCursorPos()
	return mgl64.Vec2{x, y}
}

func (w *GLFWWindow) mouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	ev := input.Pointer{Pos: w.cursor()}
	switch button {
	case glfw.MouseButtonLeft:
		ev.Button = input.ButtonPrimary
	case glfw.MouseButtonMiddle:
		ev.Button = input.ButtonMiddle
	case glfw.MouseButtonRight:
		ev.Button = input.ButtonSecondary
	default:
		return
	}

	switch action {
	case glfw.Press:
		w.session.PointerDown(ev)
	case glfw.Release:
		w.session.PointerUp(ev)
	}
}

func (w *GLFWWindow) cursorPos(_ *glfw.Window, x, y float64) {
	w.session.PointerMove(mgl64.Vec2{x, y})
}

// scroll converts GLFW offsets, positive when scrolling up, to wheel deltas.
func (w *GLFWWindow) scroll(_ *glfw.Window, _, yoff float64) {
	w.session.Wheel(input.Wheel{
		DeltaY: -yoff * input.NotchDelta,
		Pos:    w.cursor(),
	})
}

// windowSize reports the window size in screen coordinates, the space cursor
// positions are reported in.
type windowSize struct {
	window *glfw.Window
}

func (s windowSize) Size() (width, height int) {
	return s.window.GetSize()
}

type monitorSurface struct{}

func (monitorSurface) Size() (width, height int) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return 0, 0
	}
	mode := monitor.GetVideoMode()
	if mode == nil {
		return 0, 0
	}
	return mode.Width, mode.Height
}
