// Package viewer ties the viewport tracker, the pan/zoom controller and the
// drag point together and derives the per-frame shader parameters from them.
//
// Each piece of state has a single writer: the tracker owns the dimension and
// scale, the navigation controller owns zoom and offset and the drag
// controller owns the drag position. A Session only routes events and
// validates direct edits. c and the world offset are never stored; they are
// projected from the owning state whenever they are read.
package viewer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/coords"
	"github.com/stewi1014/fractalvis/dragpoint"
	"github.com/stewi1014/fractalvis/input"
	"github.com/stewi1014/fractalvis/navigation"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewport"
)

const (
	DefaultMinZoom = navigation.DefaultMinZoom
	MinPower       = 1
	MaxIterations  = 1 << 16
)

type Options struct {
	Sensitivity  float64
	MinZoom      float64
	HandleRadius float64
	TrackParent  bool
}

func DefaultOptions() Options {
	return Options{
		Sensitivity:  navigation.DefaultSensitivity,
		MinZoom:      DefaultMinZoom,
		HandleRadius: dragpoint.DefaultHandleRadius,
		TrackParent:  true,
	}
}

// Session is driven from a single goroutine. Observers run synchronously
// after every change.
type Session struct {
	variant programs.Variant
	opts    Options

	nav     *navigation.Controller
	tracker *viewport.Tracker
	drag    *dragpoint.Controller

	power      float64
	iterations int32

	observers map[int]func(Snapshot)
	nextID    int
}

// NewSession starts a session showing variant v in its default state.
// display is the fallback size used while no surface is attached and may be nil.
func NewSession(v programs.Variant, display viewport.Surface, opts Options) *Session {
	s := &Session{
		opts:      opts,
		nav:       navigation.New(),
		observers: make(map[int]func(Snapshot)),
	}
	s.tracker = viewport.NewTracker(display, s.nav)
	s.drag = dragpoint.New(mgl64.Vec2{}, s.view())
	s.Configure(opts)
	s.load(v)
	return s
}

// Configure applies new options. A zero field keeps the current value.
func (s *Session) Configure(opts Options) {
	if opts.Sensitivity > 0 {
		s.opts.Sensitivity = opts.Sensitivity
		s.nav.SetSensitivity(opts.Sensitivity)
	}
	if opts.MinZoom > 0 {
		s.opts.MinZoom = opts.MinZoom
	} else if s.opts.MinZoom <= 0 {
		s.opts.MinZoom = DefaultMinZoom
	}
	s.nav.SetMinZoom(s.opts.MinZoom)
	if opts.HandleRadius > 0 {
		s.opts.HandleRadius = opts.HandleRadius
		s.drag.SetHandleRadius(opts.HandleRadius)
	}
	s.opts.TrackParent = opts.TrackParent
}

func (s *Session) load(v programs.Variant) {
	state := v.DefaultState()
	s.variant = v
	s.power = state.Power
	s.iterations = state.Iterations

	s.nav.SetZoom(state.Zoom)
	s.nav.SetOffset(state.Offset)
	s.tracker.Update()
	s.drag.SetPos(state.DragPos, s.view())
}

func (s *Session) view() dragpoint.View {
	return dragpoint.View{
		Zoom:   s.nav.Zoom(),
		Offset: s.nav.Offset(),
		Extent: s.tracker.Extent(),
	}
}

// viewChanged propagates a zoom or offset change to the scale and the drag point.
func (s *Session) viewChanged() {
	s.tracker.Update()
	if s.drag.Reproject(s.view()) {
		Logger().Debug("drag point reprojected", "pos", s.drag.Pos())
	}
}

// Attach starts tracking a render surface. The drag point keeps its screen
// position against the new surface.
func (s *Session) Attach(surface viewport.Surface) {
	s.tracker.Attach(surface, s.opts.TrackParent)
	s.drag.SetPos(s.drag.Pos(), s.view())
	s.notify()
}

func (s *Session) Detach() {
	s.tracker.Detach()
}

// Resize re-reads the surface size. The offset and drag point are scaled with
// the viewport so c and the world offset stay where they were.
func (s *Session) Resize() bool {
	oldExtent := s.tracker.Extent()
	if !s.tracker.Update() {
		return false
	}

	if extent := s.tracker.Extent(); extent != oldExtent && oldExtent > 0 {
		s.nav.Rescale(extent / oldExtent)
	}
	s.drag.Reproject(s.view())

	Logger().Debug("viewport resized", "dim", s.tracker.Dim(), "scale", s.tracker.Scale())
	s.notify()
	return true
}

func (s *Session) PointerDown(ev input.Pointer) bool {
	var changed bool
	switch ev.Button {
	case input.ButtonSecondary:
		s.nav.PointerDown(ev)
		Logger().Debug("pan start", "pos", ev.Pos)
	case input.ButtonPrimary:
		changed = s.drag.PointerDown(ev, s.tracker.Dim(), s.view())
		Logger().Debug("drag start", "pos", ev.Pos, "relocated", changed)
	}

	if changed {
		s.notify()
	}
	return changed
}

func (s *Session) PointerMove(pos mgl64.Vec2) bool {
	changed := false
	if s.nav.PointerMove(pos) {
		s.viewChanged()
		changed = true
	}
	if s.drag.PointerMove(pos, s.tracker.Dim()) {
		changed = true
	}

	if changed {
		s.notify()
	}
	return changed
}

func (s *Session) PointerUp(ev input.Pointer) bool {
	changed := s.nav.PointerUp(ev)
	if s.drag.PointerUp(ev) {
		changed = true
	}
	if changed {
		s.notify()
	}
	return changed
}

func (s *Session) Wheel(ev input.Wheel) bool {
	if !s.nav.Wheel(ev, s.tracker.Dim()) {
		return false
	}
	s.viewChanged()

	Logger().Debug("wheel zoom", "zoom", s.nav.Zoom(), "offset", s.nav.Offset())
	s.notify()
	return true
}

// Apply handles an Edit, Reset or SelectVariant message.
func (s *Session) Apply(msg any) error {
	switch m := msg.(type) {
	case Edit:
		return s.Edit(m.Field, m.Value)
	case *Edit:
		return s.Edit(m.Field, m.Value)
	case Reset:
		return s.Reset(m.Field)
	case *Reset:
		return s.Reset(m.Field)
	case SelectVariant:
		return s.Select(m.Name)
	case *SelectVariant:
		return s.Select(m.Name)
	}
	return fmt.Errorf("unsupported message %T", msg)
}

// Edit sets a field directly. Offsets and c are world values. Non finite
// values are rejected and out of range values clamped.
func (s *Session) Edit(field Field, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %v = %v", ErrInvalidValue, field, value)
	}

	p := s.Params()
	switch field {
	case FieldZoom:
		if value < s.opts.MinZoom {
			Logger().Warn("zoom clamped", "value", value, "min", s.opts.MinZoom)
			value = s.opts.MinZoom
		}
		if s.nav.SetZoom(value) {
			s.viewChanged()
		}

	case FieldOffsetX, FieldOffsetY:
		world := p.Offset
		world[axis(field)] = value
		if s.nav.SetOffset(coords.WorldToOffset(world, s.tracker.Scale(), s.tracker.Dim())) {
			s.viewChanged()
		}

	case FieldCX, FieldCY:
		world := p.C
		world[axis(field)] = value
		s.drag.SetPos(coords.WorldToNormal(world, s.tracker.Scale(), s.tracker.Dim(), s.nav.Offset()), s.view())

	case FieldPower:
		s.power = math.Max(MinPower, value)

	case FieldIterations:
		s.iterations = int32(math.Max(1, math.Min(MaxIterations, math.Round(value))))

	default:
		return fmt.Errorf("%w: unknown field %v", ErrInvalidValue, field)
	}

	s.notify()
	return nil
}

// Reset returns a field to its default. Offset and c components reset to the
// screen centre.
func (s *Session) Reset(field Field) error {
	state := s.variant.DefaultState()

	switch field {
	case FieldZoom:
		if s.nav.SetZoom(1) {
			s.viewChanged()
		}

	case FieldOffsetX, FieldOffsetY:
		offset := s.nav.Offset()
		offset[axis(field)] = 0
		if s.nav.SetOffset(offset) {
			s.viewChanged()
		}

	case FieldCX, FieldCY:
		pos := s.drag.Pos()
		pos[axis(field)] = 0
		s.drag.SetPos(pos, s.view())

	case FieldPower:
		s.power = programs.DefaultPower

	case FieldIterations:
		s.iterations = state.Iterations

	default:
		return fmt.Errorf("%w: unknown field %v", ErrInvalidValue, field)
	}

	s.notify()
	return nil
}

// Select switches to the named variant and loads its default state.
func (s *Session) Select(name string) error {
	v, err := programs.Lookup(name)
	if err != nil {
		return err
	}

	s.load(v)
	Logger().Info("variant selected", "variant", name)
	s.notify()
	return nil
}

func axis(f Field) int {
	if f == FieldOffsetY || f == FieldCY {
		return 1
	}
	return 0
}

func (s *Session) Variant() programs.Variant {
	return s.variant
}

// Program returns the shader program for the current variant.
func (s *Session) Program() programs.Program {
	return programs.ProgramFor(s.variant)
}

// Params projects the current state into world space.
func (s *Session) Params() programs.Params {
	scale, dim, offset := s.tracker.Scale(), s.tracker.Dim(), s.nav.Offset()
	return programs.Params{
		C:          coords.NormalToWorld(s.drag.Pos(), scale, dim, offset),
		Offset:     coords.OffsetToWorld(offset, scale, dim),
		Scale:      scale,
		Power:      s.power,
		Iterations: s.iterations,
	}
}

// Uniforms returns the values for the next frame.
func (s *Session) Uniforms() programs.Uniforms {
	return s.variant.Uniforms(s.Params())
}

func (s *Session) Snapshot() Snapshot {
	p := s.Params()
	return Snapshot{
		Variant:      s.variant.Name(),
		Dim:          s.tracker.Dim(),
		Scale:        p.Scale,
		Zoom:         s.nav.Zoom(),
		Offset:       s.nav.Offset(),
		DragPos:      s.drag.Pos(),
		Power:        p.Power,
		Iterations:   p.Iterations,
		C:            p.C,
		ShaderOffset: p.Offset,
		Panning:      s.nav.Mode() == navigation.Panning,
		Dragging:     s.drag.Dragging(),
	}
}

// OnChange registers fn to be called with a snapshot after every change.
// The returned func removes it.
func (s *Session) OnChange(fn func(Snapshot)) (remove func()) {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		delete(s.observers, id)
	}
}

func (s *Session) notify() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.observers {
		fn(snap)
	}
}
