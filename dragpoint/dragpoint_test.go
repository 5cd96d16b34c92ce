package dragpoint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/coords"
	"github.com/stewi1014/fractalvis/input"
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

func world(pos mgl64.Vec2, dim mgl64.Vec2, v View) mgl64.Vec2 {
	return coords.NormalToWorld(pos, viewport.Scale(dim, v.Zoom), dim, v.Offset)
}

func TestClickRelocatesAndDrags(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	view := View{Zoom: 1, Extent: 600}
	c := New(mgl64.Vec2{100, 0}, view)

	if !c.PointerDown(input.Pointer{Button: input.ButtonPrimary, Pos: mgl64.Vec2{400, 300}}, dim, view) {
		t.Fatal("click away from the handle did not move the point")
	}
	if !c.Dragging() {
		t.Fatal("click did not start a drag")
	}
	if got := c.Pos(); got != (mgl64.Vec2{0, 0}) {
		t.Errorf("Pos() = %v, want centre", got)
	}

	c.PointerMove(mgl64.Vec2{500, 250}, dim)
	if got, want := c.Pos(), (mgl64.Vec2{100, 50}); got != want {
		t.Errorf("Pos() after move = %v, want %v", got, want)
	}

	c.PointerUp(input.Pointer{Button: input.ButtonPrimary})
	if c.Dragging() {
		t.Error("release did not end the drag")
	}
	if c.PointerMove(mgl64.Vec2{0, 0}, dim) {
		t.Error("move after release changed the point")
	}
}

func TestSecondaryIgnored(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	c := New(mgl64.Vec2{100, 0}, View{Zoom: 1, Extent: 600})
	if c.PointerDown(input.Pointer{Button: input.ButtonSecondary, Pos: mgl64.Vec2{1, 1}}, dim, c.Shadow()) {
		t.Error("secondary press moved the point")
	}
	if c.Dragging() {
		t.Error("secondary press started a drag")
	}
}

func TestGrabHandleKeepsDelta(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	view := View{Zoom: 1, Extent: 600}
	c := New(mgl64.Vec2{100, 0}, view)

	// handle sits at client (500, 300)
	if c.PointerDown(input.Pointer{Button: input.ButtonPrimary, Pos: mgl64.Vec2{503, 296}}, dim, view) {
		t.Error("grabbing the handle relocated the point")
	}
	if !c.Dragging() {
		t.Fatal("grabbing the handle did not start a drag")
	}

	c.PointerMove(mgl64.Vec2{513, 306}, dim)
	if got, want := c.Pos(), (mgl64.Vec2{110, -10}); !approx(got, want, 1e-12) {
		t.Errorf("Pos() = %v, want %v", got, want)
	}
}

func TestDragBounded(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	view := View{Zoom: 1, Extent: 600}
	c := New(mgl64.Vec2{}, view)
	c.PointerDown(input.Pointer{Button: input.ButtonPrimary, Pos: mgl64.Vec2{100, 100}}, dim, view)

	c.PointerMove(mgl64.Vec2{-50, 9000}, dim)
	if got, want := c.Pos(), (mgl64.Vec2{-400, -300}); got != want {
		t.Errorf("Pos() = %v, want %v", got, want)
	}
}

func TestReprojectPreservesWorld(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	views := []View{
		{Zoom: 2, Offset: mgl64.Vec2{0, 0}, Extent: 600},
		{Zoom: 2, Offset: mgl64.Vec2{-120, 45}, Extent: 600},
		{Zoom: 0.25, Offset: mgl64.Vec2{3000, -1}, Extent: 600},
		{Zoom: 1e4, Offset: mgl64.Vec2{-5e6, 2e6}, Extent: 600},
	}

	start := View{Zoom: 1, Extent: 600}
	c := New(mgl64.Vec2{100, -37}, start)
	want := world(c.Pos(), dim, start)

	for _, v := range views {
		c.Reproject(v)
		if got := world(c.Pos(), dim, v); !approx(got, want, 1e-9) {
			t.Errorf("after %+v: world = %v, want %v", v, got, want)
		}
		if c.Shadow() != v {
			t.Errorf("shadow = %+v, want %+v", c.Shadow(), v)
		}
	}
}

func TestReprojectFormula(t *testing.T) {
	c := New(mgl64.Vec2{10, 20}, View{Zoom: 1, Offset: mgl64.Vec2{5, 5}, Extent: 100})
	c.Reproject(View{Zoom: 2, Offset: mgl64.Vec2{1, -1}, Extent: 100})

	// ((10+5)/1)*2-1, ((20+5)/1)*2+1
	if got, want := c.Pos(), (mgl64.Vec2{29, 51}); got != want {
		t.Errorf("Pos() = %v, want %v", got, want)
	}
}

func TestReprojectSkipsUnchanged(t *testing.T) {
	v := View{Zoom: 3, Offset: mgl64.Vec2{7, 8}, Extent: 500}
	c := New(mgl64.Vec2{1, 2}, v)
	if c.Reproject(v) {
		t.Error("Reproject with an unchanged view reported a change")
	}
	if got := c.Pos(); got != (mgl64.Vec2{1, 2}) {
		t.Errorf("Pos() = %v", got)
	}
}

func TestReprojectNoDrift(t *testing.T) {
	dim := mgl64.Vec2{1000, 1000}
	start := View{Zoom: 1, Extent: 1000}
	c := New(mgl64.Vec2{250, -125}, start)
	want := world(c.Pos(), dim, start)

	v := start
	for i := 0; i < 1000; i++ {
		v.Zoom *= math.Exp(0.05 * math.Sin(float64(i)))
		v.Offset = v.Offset.Add(mgl64.Vec2{float64(i%7) - 3, float64(i%5) - 2})
		c.Reproject(v)
	}

	if got := world(c.Pos(), dim, v); !approx(got, want, 1e-7) {
		t.Errorf("world drifted to %v, want %v", got, want)
	}
}

func TestReprojectWhileDragging(t *testing.T) {
	dim := mgl64.Vec2{800, 600}
	view := View{Zoom: 1, Extent: 600}
	c := New(mgl64.Vec2{}, view)
	c.PointerDown(input.Pointer{Button: input.ButtonPrimary, Pos: mgl64.Vec2{500, 300}}, dim, view)

	zoomed := View{Zoom: 2, Extent: 600}
	if c.Reproject(zoomed) {
		t.Error("reprojected during a drag")
	}
	if c.Shadow() != zoomed {
		t.Error("shadow not refreshed during a drag")
	}

	c.PointerUp(input.Pointer{Button: input.ButtonPrimary})
	if c.Reproject(zoomed) {
		t.Error("stale shadow caused a second reprojection")
	}
}

func TestReprojectExtent(t *testing.T) {
	small := mgl64.Vec2{800, 600}
	large := mgl64.Vec2{1600, 1200}

	v := View{Zoom: 1, Offset: mgl64.Vec2{20, 10}, Extent: 600}
	c := New(mgl64.Vec2{100, 50}, v)
	want := world(c.Pos(), small, v)

	resized := View{Zoom: 1, Offset: v.Offset.Mul(2), Extent: 1200}
	c.Reproject(resized)
	if got := world(c.Pos(), large, resized); !approx(got, want, 1e-12) {
		t.Errorf("world after resize = %v, want %v", got, want)
	}
}
