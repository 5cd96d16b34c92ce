package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractalvis/config"
	"github.com/stewi1014/fractalvis/glrender"
	"github.com/stewi1014/fractalvis/hud"
	"github.com/stewi1014/fractalvis/input"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
	"github.com/stewi1014/fractalvis/viewport"
)

func NewRenderWindow(
	app *gtk.Application,
	conn net.Conn,
	ctx context.Context,
	quit context.CancelCauseFunc,
	cfg config.Config,
	v programs.Variant,
) *RenderWindow {
	var err error
	w := &RenderWindow{
		ctx:      ctx,
		quit:     quit,
		debug:    cfg.Debug,
		logger:   slog.Default(),
		messages: newMessenger(conn, slog.Default()),
	}

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.SetDefaultSize(cfg.Window.Width, cfg.Window.Height)

	w.gla, err = gtk.GLAreaNew()
	if err != nil {
		quit(fmt.Errorf("gtk.GLAreaNew: %w", err))
		return nil
	}

	w.session = viewer.NewSession(v, displaySurface{}, cfg.Options())
	if err := cfg.Apply(w.session); err != nil {
		quit(err)
		return nil
	}
	w.renderer = glrender.New(w.logger)

	w.gla.SetRequiredVersion(4, 6)
	w.gla.Connect("realize", w.glaRealize)
	w.gla.Connect("render", w.glaRender)
	w.gla.Connect("unrealize", w.glaUnrealize)

	w.gla.SetEvents(
		int(gdk.BUTTON_PRESS_MASK) |
			int(gdk.BUTTON_RELEASE_MASK) |
			int(gdk.POINTER_MOTION_MASK) |
			int(gdk.SCROLL_MASK) |
			int(gdk.SMOOTH_SCROLL_MASK),
	)
	w.gla.Connect("resize", w.resize)
	w.gla.Connect("scroll-event", w.scroll)
	w.gla.Connect("button-press-event", w.button)
	w.gla.Connect("button-release-event", w.button)
	w.gla.Connect("motion-notify-event", w.motion)

	w.Add(w.gla)
	w.ShowAll()

	w.session.Attach(&glaSurface{gla: w.gla, window: w.ApplicationWindow})
	w.session.OnChange(w.changed)
	w.SetTitle(hud.NewReadout(w.session.Snapshot()).Title())

	go w.messages.handleSend(ctx, quit)
	go w.messages.handleReceive(ctx, quit, w.receive)
	w.messages.Send(ptr(w.session.Snapshot()))

	return w
}

// displaySurface reports the primary monitor size.
type displaySurface struct{}

func (displaySurface) Size() (width, height int) {
	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return 0, 0
	}

	monitor, err := display.GetPrimaryMonitor()
	if err != nil {
		return 0, 0
	}

	geometry := monitor.GetGeometry()
	return geometry.GetWidth(), geometry.GetHeight()
}

// glaSurface is the GL area, reporting the window as its parent.
type glaSurface struct {
	gla    *gtk.GLArea
	window *gtk.ApplicationWindow
}

func (s *glaSurface) Size() (width, height int) {
	return s.gla.GetAllocatedWidth(), s.gla.GetAllocatedHeight()
}

func (s *glaSurface) Parent() viewport.Surface {
	return windowSurface{s.window}
}

type windowSurface struct {
	window *gtk.ApplicationWindow
}

func (s windowSurface) Size() (width, height int) {
	return s.window.GetSize()
}

type RenderWindow struct {
	*gtk.ApplicationWindow
	gla *gtk.GLArea

	ctx    context.Context
	quit   context.CancelCauseFunc
	debug  bool
	logger *slog.Logger

	session  *viewer.Session
	renderer *glrender.Renderer
	messages *messenger
}

// Session is only safe to use on the GTK main loop.
func (w *RenderWindow) Session() *viewer.Session {
	return w.session
}

// ReloadProgram recompiles the current variant's program.
func (w *RenderWindow) ReloadProgram() {
	if !w.gla.GetRealized() {
		return
	}
	w.gla.MakeCurrent()
	if err := w.renderer.Load(w.session.Program()); err != nil {
		w.logger.Warn("shader reload failed", "err", err)
		return
	}
	w.gla.QueueRender()
}

func (w *RenderWindow) glaRealize(gla *gtk.GLArea) {
	gla.MakeCurrent()

	if err := w.renderer.Init(w.debug); err != nil {
		w.quit(err)
		return
	}
	if err := w.renderer.Load(w.session.Program()); err != nil {
		w.quit(err)
	}
}

func (w *RenderWindow) glaRender(gla *gtk.GLArea) {
	gla.AttachBuffers()
	w.renderer.Draw(w.session.Uniforms())
}

func (w *RenderWindow) glaUnrealize(gla *gtk.GLArea) {
	gla.MakeCurrent()
	w.renderer.Delete()
}

func (w *RenderWindow) resize(gla *gtk.GLArea, width, height int) {
	w.renderer.Viewport(width, height)
	w.session.Resize()
}

func (w *RenderWindow) changed(snap viewer.Snapshot) {
	if w.gla.GetRealized() && w.renderer.Loaded() != snap.Variant {
		w.ReloadProgram()
	}
	w.gla.QueueRender()
	w.SetTitle(hud.NewReadout(snap).Title())
	w.messages.Send(&snap)
}

func (w *RenderWindow) button(gla *gtk.GLArea, event *gdk.Event) {
	button := gdk.EventButtonNewFromEvent(event)
	ev := input.Pointer{
		Button: input.Button(button.Button()),
		Pos:    mgl64.Vec2{button.X(), button.Y()},
	}

	switch button.Type() {
	case gdk.EVENT_BUTTON_PRESS:
		w.session.PointerDown(ev)
	case gdk.EVENT_BUTTON_RELEASE:
		w.session.PointerUp(ev)
	}
}

func (w *RenderWindow) motion(gla *gtk.GLArea, event *gdk.Event) {
	x, y := gdk.EventMotionNewFromEvent(event).MotionVal()
	w.session.PointerMove(mgl64.Vec2{x, y})
}

func (w *RenderWindow) scroll(gla *gtk.GLArea, event *gdk.Event) {
	scroll := gdk.EventScrollNewFromEvent(event)
	ev := input.Wheel{Pos: mgl64.Vec2{scroll.X(), scroll.Y()}}

	switch scroll.Direction() {
	case gdk.SCROLL_SMOOTH:
		ev.DeltaY = scroll.DeltaY() * input.NotchDelta
	case gdk.SCROLL_DOWN:
		ev.DeltaY = input.NotchDelta
	case gdk.SCROLL_UP:
		ev.DeltaY = -input.NotchDelta
	default:
		return
	}

	w.session.Wheel(ev)
}

func (w *RenderWindow) receive(v any) {
	switch msg := v.(type) {
	case *viewer.Edit, *viewer.Reset, *viewer.SelectVariant:
		glib.IdleAdd(func() {
			if err := w.session.Apply(msg); err != nil {
				w.logger.Warn("config window message rejected", "err", err)
			}
		})

	case *SaveRequest:
		glib.IdleAdd(func() {
			save(w.ctx, w.ApplicationWindow, *msg, w.session.Variant(), w.session.Uniforms())
		})

	default:
		w.logger.Warn("unknown message received", "type", fmt.Sprintf("%T", v))
	}
}

func ptr[T any](v T) *T {
	return &v
}
