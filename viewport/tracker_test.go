package viewport

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type fixedZoom float64

func (z fixedZoom) Zoom() float64 { return float64(z) }

type child struct {
	Static
	parent Surface
}

func (c *child) Parent() Surface { return c.parent }

func TestScaleAspect(t *testing.T) {
	dims := []mgl64.Vec2{{800, 600}, {600, 800}, {1, 1}, {1920, 1080}, {3, 7919}}
	zooms := []float64{1e-3, 0.5, 1, 2, 1e6}

	for _, dim := range dims {
		for _, zoom := range zooms {
			s := Scale(dim, zoom)
			lhs, rhs := s[0]/dim[0], s[1]/dim[1]
			if math.Abs(lhs-rhs) > 1e-12*math.Max(lhs, rhs) {
				t.Errorf("Scale(%v, %v) = %v: %v != %v", dim, zoom, s, lhs, rhs)
			}
			if short := math.Min(s[0], s[1]); math.Abs(short-2/zoom) > 1e-12*short {
				t.Errorf("Scale(%v, %v) short axis = %v, want %v", dim, zoom, short, 2/zoom)
			}
		}
	}
}

func TestTrackerUpdate(t *testing.T) {
	surface := &Static{Width: 800, Height: 600}
	tr := NewTracker(nil, fixedZoom(1))
	tr.Attach(surface, false)

	if got, want := tr.Dim(), (mgl64.Vec2{800, 600}); got != want {
		t.Fatalf("Dim() = %v, want %v", got, want)
	}
	if got, want := tr.Scale(), (mgl64.Vec2{8.0 / 3, 2}); math.Abs(got[0]-want[0]) > 1e-12 || got[1] != want[1] {
		t.Fatalf("Scale() = %v, want %v", got, want)
	}

	if tr.Update() {
		t.Error("Update() with unchanged size reported a change")
	}

	surface.Resize(1600, 1200)
	if !tr.Update() {
		t.Error("Update() after resize reported no change")
	}
	if got := tr.Extent(); got != 1200 {
		t.Errorf("Extent() = %v, want 1200", got)
	}
}

func TestTrackerZoom(t *testing.T) {
	zoom := fixedZoom(2)
	tr := NewTracker(&Static{Width: 1000, Height: 1000}, zoom)

	if got, want := tr.Scale(), (mgl64.Vec2{1, 1}); got != want {
		t.Errorf("Scale() at zoom 2 = %v, want %v", got, want)
	}
}

func TestTrackerDegenerate(t *testing.T) {
	t.Run("falls back to display", func(t *testing.T) {
		tr := NewTracker(&Static{Width: 1024, Height: 768}, fixedZoom(1))
		tr.Attach(&Static{}, false)
		if got, want := tr.Dim(), (mgl64.Vec2{1024, 768}); got != want {
			t.Errorf("Dim() = %v, want %v", got, want)
		}
	})

	t.Run("falls back to default", func(t *testing.T) {
		tr := NewTracker(nil, fixedZoom(1))
		if got := tr.Dim(); got != DefaultDim {
			t.Errorf("Dim() = %v, want %v", got, DefaultDim)
		}
	})

	t.Run("keeps previous size", func(t *testing.T) {
		surface := &Static{Width: 640, Height: 480}
		tr := NewTracker(nil, fixedZoom(1))
		tr.Attach(surface, false)

		surface.Resize(0, 0)
		if tr.Update() {
			t.Error("Update() on a hidden surface reported a change")
		}
		if got, want := tr.Dim(), (mgl64.Vec2{640, 480}); got != want {
			t.Errorf("Dim() = %v, want %v", got, want)
		}
	})

	t.Run("one pixel minimum", func(t *testing.T) {
		tr := NewTracker(nil, fixedZoom(1))
		tr.Attach(&Static{Width: 1, Height: 1}, false)
		if got, want := tr.Dim(), (mgl64.Vec2{1, 1}); got != want {
			t.Errorf("Dim() = %v, want %v", got, want)
		}
		if s := tr.Scale(); s[0] <= 0 || s[1] <= 0 {
			t.Errorf("Scale() = %v, want positive", s)
		}
	})
}

func TestTrackerParent(t *testing.T) {
	parent := &Static{Width: 900, Height: 700}
	c := &child{Static: Static{Width: 300, Height: 200}, parent: parent}

	tr := NewTracker(nil, fixedZoom(1))
	tr.Attach(c, true)
	if got, want := tr.Dim(), (mgl64.Vec2{900, 700}); got != want {
		t.Errorf("Dim() tracking parent = %v, want %v", got, want)
	}

	tr.Attach(c, false)
	if got, want := tr.Dim(), (mgl64.Vec2{300, 200}); got != want {
		t.Errorf("Dim() tracking element = %v, want %v", got, want)
	}
}
