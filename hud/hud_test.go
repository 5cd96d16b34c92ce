package hud

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/viewer"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{1.23456, 3, "1.23"},
		{-2.71828, 3, "-2.72"},
		{1.23456, 2, "1.2"},
		{-2.71828, 2, "-2.7"},
		{0, 2, "0"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(1), 2, "Infinity"},
		{math.Inf(-1), 2, "-Infinity"},
	}
	for _, tt := range tests {
		if got := Number(tt.v, tt.digits); got != tt.want {
			t.Errorf("Number(%v, %d) = %q, want %q", tt.v, tt.digits, got, tt.want)
		}
	}
}

func TestReadout(t *testing.T) {
	r := NewReadout(viewer.Snapshot{
		Variant:      "julia",
		Zoom:         1.23456,
		C:            mgl64.Vec2{1.23456, -2.71828},
		ShaderOffset: mgl64.Vec2{0, 0},
		DragPos:      mgl64.Vec2{0, 0},
		Power:        0,
	})

	if r.C != "1.2, -2.7" {
		t.Errorf("C = %q", r.C)
	}
	if r.Zoom != "1.2x" {
		t.Errorf("Zoom = %q", r.Zoom)
	}
	if r.Offset != "0, 0" {
		t.Errorf("Offset = %q", r.Offset)
	}

	lines := r.Lines()
	prefixes := []string{"c: ", "zoom: ", "offset: ", "raw: ", "power: "}
	if len(lines) != len(prefixes) {
		t.Fatalf("got %d lines, want %d", len(lines), len(prefixes))
	}
	for i, p := range prefixes {
		if !strings.HasPrefix(lines[i], p) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], p)
		}
	}

	if title := r.Title(); !strings.HasPrefix(title, "julia") {
		t.Errorf("Title() = %q", title)
	}
}
