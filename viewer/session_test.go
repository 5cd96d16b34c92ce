package viewer

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/coords"
	"github.com/stewi1014/fractalvis/input"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewport"
)

func approx(a, b mgl64.Vec2, tol float64) bool {
	for i := range a {
		scale := math.Max(1, math.Max(math.Abs(a[i]), math.Abs(b[i])))
		if math.Abs(a[i]-b[i]) > tol*scale {
			return false
		}
	}
	return true
}

func newSession(t *testing.T, width, height int) (*Session, *viewport.Static) {
	t.Helper()
	surface := &viewport.Static{Width: width, Height: height}
	s := NewSession(programs.Julia{}, nil, DefaultOptions())
	s.Attach(surface)
	return s, surface
}

func click(s *Session, x, y float64) {
	pos := mgl64.Vec2{x, y}
	s.PointerDown(input.Pointer{Button: input.ButtonPrimary, Pos: pos})
	s.PointerUp(input.Pointer{Button: input.ButtonPrimary, Pos: pos})
}

func pan(s *Session, from, to mgl64.Vec2) {
	s.PointerDown(input.Pointer{Button: input.ButtonSecondary, Pos: from})
	s.PointerMove(to)
	s.PointerUp(input.Pointer{Button: input.ButtonSecondary, Pos: to})
}

func TestDefaultUniforms(t *testing.T) {
	s, _ := newSession(t, 1000, 1000)
	u := s.Uniforms()

	if u.Power != 2 {
		t.Errorf("Power = %v, want 2", u.Power)
	}
	if u.Scale != (mgl64.Vec2{2, 2}) {
		t.Errorf("Scale = %v, want (2, 2)", u.Scale)
	}
	if u.Offset != (mgl64.Vec2{}) {
		t.Errorf("Offset = %v, want origin", u.Offset)
	}
	if !approx(u.C, mgl64.Vec2{0.2, 0}, 1e-12) {
		t.Errorf("C = %v, want (0.2, 0)", u.C)
	}
}

func TestClickScenario(t *testing.T) {
	s, _ := newSession(t, 1000, 1000)
	click(s, 750, 250)

	snap := s.Snapshot()
	if snap.DragPos != (mgl64.Vec2{250, 250}) {
		t.Errorf("DragPos = %v, want (250, 250)", snap.DragPos)
	}
	if !approx(snap.C, mgl64.Vec2{0.5, 0.5}, 1e-12) {
		t.Errorf("C = %v, want (0.5, 0.5)", snap.C)
	}
}

func TestDragZoomCommute(t *testing.T) {
	tests := []struct {
		name   string
		client mgl64.Vec2
		want   mgl64.Vec2
	}{
		{"centre", mgl64.Vec2{400, 300}, mgl64.Vec2{0, 0}},
		{"off centre", mgl64.Vec2{500, 300}, mgl64.Vec2{1.0 / 3, 0}},
		{"corner", mgl64.Vec2{0, 0}, mgl64.Vec2{-4.0 / 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t, 800, 600)
			click(s, tt.client[0], tt.client[1])
			if c := s.Params().C; !approx(c, tt.want, 1e-12) {
				t.Fatalf("C after click = %v, want %v", c, tt.want)
			}

			if err := s.Edit(FieldZoom, 2); err != nil {
				t.Fatal(err)
			}
			if c := s.Params().C; !approx(c, tt.want, 1e-12) {
				t.Errorf("C after zoom edit = %v, want %v", c, tt.want)
			}

			s.Wheel(input.Wheel{DeltaY: -300, Pos: mgl64.Vec2{123, 456}})
			if c := s.Params().C; !approx(c, tt.want, 1e-12) {
				t.Errorf("C after wheel = %v, want %v", c, tt.want)
			}

			pan(s, mgl64.Vec2{100, 100}, mgl64.Vec2{180, 40})
			if c := s.Params().C; !approx(c, tt.want, 1e-12) {
				t.Errorf("C after pan = %v, want %v", c, tt.want)
			}
		})
	}
}

func TestDragAfterZoomUsesNewMapping(t *testing.T) {
	s, _ := newSession(t, 800, 600)
	s.Wheel(input.Wheel{DeltaY: -1000, Pos: mgl64.Vec2{200, 100}})

	client := mgl64.Vec2{650, 120}
	click(s, client[0], client[1])

	snap := s.Snapshot()
	want := coords.NormalToWorld(coords.ClientToNormal(client, snap.Dim), snap.Scale, snap.Dim, snap.Offset)
	if !approx(snap.C, want, 1e-12) {
		t.Errorf("C = %v, want world under pointer %v", snap.C, want)
	}
}

func TestWheelAnchor(t *testing.T) {
	s, _ := newSession(t, 800, 600)
	pan(s, mgl64.Vec2{0, 0}, mgl64.Vec2{33, -71})

	cursor := mgl64.Vec2{610, 95}
	under := func() mgl64.Vec2 {
		snap := s.Snapshot()
		return coords.NormalToWorld(coords.ClientToNormal(cursor, snap.Dim), snap.Scale, snap.Dim, snap.Offset)
	}

	before := under()
	for _, delta := range []float64{-100, -100, 250, -40} {
		s.Wheel(input.Wheel{DeltaY: delta, Pos: cursor})
		if after := under(); !approx(before, after, 1e-9) {
			t.Fatalf("world under cursor moved from %v to %v", before, after)
		}
	}
}

func finite(v mgl64.Vec2) bool {
	return !math.IsNaN(v[0]) && !math.IsNaN(v[1]) && !math.IsInf(v[0], 0) && !math.IsInf(v[1], 0)
}

func TestWheelZoomFloor(t *testing.T) {
	for _, minZoom := range []float64{DefaultMinZoom, 0.25} {
		opts := DefaultOptions()
		opts.MinZoom = minZoom
		s := NewSession(programs.Julia{}, nil, opts)
		s.Attach(&viewport.Static{Width: 800, Height: 600})
		click(s, 520, 210)
		c := s.Snapshot().C

		cursor := mgl64.Vec2{700, 40}
		for i := 0; i < 100000; i++ {
			if !s.Wheel(input.Wheel{DeltaY: 100, Pos: cursor}) {
				break
			}
		}

		snap := s.Snapshot()
		if snap.Zoom != minZoom {
			t.Errorf("min %v: zoom = %v after zooming out", minZoom, snap.Zoom)
		}
		for name, v := range map[string]mgl64.Vec2{
			"scale": snap.Scale, "c": snap.C, "offset": snap.ShaderOffset, "drag": snap.DragPos,
		} {
			if !finite(v) {
				t.Errorf("min %v: %s = %v at the zoom floor", minZoom, name, v)
			}
		}

		for i := 0; i < 200; i++ {
			s.Wheel(input.Wheel{DeltaY: -100, Pos: cursor})
		}
		snap = s.Snapshot()
		if !finite(snap.C) || !finite(snap.DragPos) {
			t.Fatalf("min %v: c = %v, drag = %v after zooming back in", minZoom, snap.C, snap.DragPos)
		}
		if !approx(snap.C, c, 1e-6) {
			t.Errorf("min %v: c moved from %v to %v", minZoom, c, snap.C)
		}
	}
}

func TestResizeStability(t *testing.T) {
	s, surface := newSession(t, 800, 600)
	click(s, 520, 200)
	pan(s, mgl64.Vec2{10, 10}, mgl64.Vec2{60, 30})

	before := s.Params()

	surface.Resize(1600, 1200)
	if !s.Resize() {
		t.Fatal("Resize() reported no change")
	}

	after := s.Params()
	if sc := after.Scale; math.Abs(sc[0]/1600-sc[1]/1200) > 1e-15 {
		t.Errorf("scale %v lost its aspect", sc)
	}
	if !approx(after.C, before.C, 1e-12) {
		t.Errorf("C moved from %v to %v", before.C, after.C)
	}
	if !approx(after.Offset, before.Offset, 1e-12) {
		t.Errorf("world offset moved from %v to %v", before.Offset, after.Offset)
	}

	if s.Resize() {
		t.Error("second Resize() with the same size reported a change")
	}
}

func TestEditWorldValues(t *testing.T) {
	s, _ := newSession(t, 800, 600)
	c := s.Params().C

	if err := s.Edit(FieldCX, 0.75); err != nil {
		t.Fatal(err)
	}
	if got := s.Params().C; !approx(got, mgl64.Vec2{0.75, c[1]}, 1e-12) {
		t.Errorf("C = %v, want (0.75, %v)", got, c[1])
	}

	if err := s.Edit(FieldCY, -0.25); err != nil {
		t.Fatal(err)
	}
	c = s.Params().C
	if !approx(c, mgl64.Vec2{0.75, -0.25}, 1e-12) {
		t.Errorf("C = %v, want (0.75, -0.25)", c)
	}

	if err := s.Edit(FieldOffsetX, 0.3); err != nil {
		t.Fatal(err)
	}
	p := s.Params()
	if !approx(p.Offset, mgl64.Vec2{0.3, 0}, 1e-12) {
		t.Errorf("world offset = %v, want (0.3, 0)", p.Offset)
	}
	if !approx(p.C, c, 1e-12) {
		t.Errorf("offset edit moved C from %v to %v", c, p.C)
	}
}

func TestEditValidation(t *testing.T) {
	s, _ := newSession(t, 800, 600)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := s.Edit(FieldZoom, v); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Edit(zoom, %v) error = %v, want ErrInvalidValue", v, err)
		}
	}

	for _, v := range []float64{0, -3, 1e-9} {
		if err := s.Edit(FieldZoom, v); err != nil {
			t.Fatal(err)
		}
		if z := s.Snapshot().Zoom; z != DefaultMinZoom {
			t.Errorf("Edit(zoom, %v) gave zoom %v, want %v", v, z, DefaultMinZoom)
		}
	}

	s.Edit(FieldPower, 0.2)
	if p := s.Snapshot().Power; p != MinPower {
		t.Errorf("power = %v, want %v", p, MinPower)
	}

	s.Edit(FieldIterations, 99.6)
	if i := s.Snapshot().Iterations; i != 100 {
		t.Errorf("iterations = %v, want 100", i)
	}

	if err := s.Edit(Field(42), 1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Edit(unknown) error = %v", err)
	}
}

func TestReset(t *testing.T) {
	s, _ := newSession(t, 800, 600)
	s.Edit(FieldZoom, 5)
	s.Edit(FieldPower, 3)
	pan(s, mgl64.Vec2{0, 0}, mgl64.Vec2{40, 40})
	click(s, 100, 100)

	for _, f := range []Field{FieldZoom, FieldOffsetX, FieldOffsetY, FieldCX, FieldPower} {
		if err := s.Reset(f); err != nil {
			t.Fatalf("Reset(%v): %v", f, err)
		}
	}

	snap := s.Snapshot()
	if snap.Zoom != 1 || snap.Power != 2 {
		t.Errorf("zoom=%v power=%v after reset", snap.Zoom, snap.Power)
	}
	if snap.Offset != (mgl64.Vec2{}) {
		t.Errorf("offset = %v after reset", snap.Offset)
	}
	if snap.DragPos[0] != 0 {
		t.Errorf("drag x = %v after reset", snap.DragPos[0])
	}
}

func TestSelectVariant(t *testing.T) {
	s, _ := newSession(t, 800, 600)
	s.Edit(FieldZoom, 8)

	if err := s.Apply(&SelectVariant{Name: "mandelbrot"}); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Variant != "mandelbrot" || snap.Zoom != 1 || snap.DragPos != (mgl64.Vec2{}) {
		t.Errorf("snapshot after select = %+v", snap)
	}
	if s.Program().Name != "mandelbrot" {
		t.Errorf("Program() = %q", s.Program().Name)
	}

	if err := s.Select("nope"); !errors.Is(err, programs.ErrUnknownVariant) {
		t.Errorf("Select(unknown) error = %v", err)
	}
}

func TestApply(t *testing.T) {
	s, _ := newSession(t, 800, 600)

	var msg Edit
	if err := json.Unmarshal([]byte(`{"field":"zoom","value":4}`), &msg); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(msg); err != nil {
		t.Fatal(err)
	}
	if z := s.Snapshot().Zoom; z != 4 {
		t.Errorf("zoom = %v, want 4", z)
	}

	if err := s.Apply(&Reset{Field: FieldZoom}); err != nil {
		t.Fatal(err)
	}
	if z := s.Snapshot().Zoom; z != 1 {
		t.Errorf("zoom = %v, want 1", z)
	}

	if err := s.Apply("zoom"); err == nil {
		t.Error("Apply(string) succeeded")
	}
}

func TestObservers(t *testing.T) {
	s, _ := newSession(t, 800, 600)

	var got []Snapshot
	remove := s.OnChange(func(snap Snapshot) {
		got = append(got, snap)
	})

	s.Edit(FieldZoom, 2)
	s.Wheel(input.Wheel{DeltaY: 100, Pos: mgl64.Vec2{1, 1}})
	if len(got) != 2 {
		t.Fatalf("observer called %d times, want 2", len(got))
	}
	if got[0].Zoom != 2 {
		t.Errorf("first snapshot zoom = %v", got[0].Zoom)
	}

	remove()
	s.Edit(FieldZoom, 3)
	if len(got) != 2 {
		t.Error("removed observer still called")
	}
}

func TestFieldText(t *testing.T) {
	for f := FieldZoom; f <= FieldIterations; f++ {
		text, err := f.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Field
		if err := back.UnmarshalText(text); err != nil || back != f {
			t.Errorf("%v round tripped to %v (%v)", f, back, err)
		}
	}
	if _, err := ParseField("colour"); err == nil {
		t.Error("ParseField(colour) succeeded")
	}
}
