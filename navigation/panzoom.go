// Package navigation implements panning with the secondary button and
// cursor-anchored zooming with the wheel.
package navigation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/coords"
	"github.com/stewi1014/fractalvis/input"
)

const (
	// DefaultSensitivity converts wheel delta into a zoom exponent.
	DefaultSensitivity = 0.0005

	// DefaultMinZoom is the furthest the wheel zooms out.
	DefaultMinZoom = 0.001
)

type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	if m == Panning {
		return "panning"
	}
	return "idle"
}

// Controller is the only writer of zoom and offset.
type Controller struct {
	zoom        float64
	offset      mgl64.Vec2
	mode        Mode
	anchor      mgl64.Vec2
	sensitivity float64
	minZoom     float64
}

func New() *Controller {
	return &Controller{
		zoom:        1,
		sensitivity: DefaultSensitivity,
		minZoom:     DefaultMinZoom,
	}
}

func (c *Controller) Zoom() float64 {
	return c.zoom
}

func (c *Controller) Offset() mgl64.Vec2 {
	return c.offset
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) Sensitivity() float64 {
	return c.sensitivity
}

// SetSensitivity ignores non-positive values.
func (c *Controller) SetSensitivity(k float64) {
	if k > 0 && !math.IsInf(k, 0) {
		c.sensitivity = k
	}
}

func (c *Controller) MinZoom() float64 {
	return c.minZoom
}

// SetMinZoom sets the wheel's zoom floor. Non-positive values are ignored.
// The current zoom is left alone even when it is below z.
func (c *Controller) SetMinZoom(z float64) {
	if usable(z) {
		c.minZoom = z
	}
}

// SetZoom sets the zoom without re-anchoring. z must be strictly positive.
func (c *Controller) SetZoom(z float64) bool {
	if c.zoom == z {
		return false
	}
	c.zoom = z
	return true
}

func (c *Controller) SetOffset(offset mgl64.Vec2) bool {
	if c.offset == offset {
		return false
	}
	c.offset = offset
	return true
}

// PointerDown enters panning on a secondary press.
func (c *Controller) PointerDown(ev input.Pointer) bool {
	if ev.Button != input.ButtonSecondary {
		return false
	}
	c.mode = Panning
	c.anchor = ev.Pos
	return true
}

// PointerMove adds the delta since the last sample to the offset while panning.
func (c *Controller) PointerMove(pos mgl64.Vec2) bool {
	if c.mode != Panning {
		return false
	}

	delta := pos.Sub(c.anchor)
	c.anchor = pos
	if delta == (mgl64.Vec2{}) {
		return false
	}

	c.offset = c.offset.Add(coords.RawOffsetToNormal(delta))
	return true
}

func (c *Controller) PointerUp(ev input.Pointer) bool {
	if ev.Button != input.ButtonSecondary || c.mode != Panning {
		return false
	}
	c.mode = Idle
	return true
}

// Wheel multiplies the zoom and moves the offset so the world point under the
// pointer stays put. Zooming out stops at the minimum zoom. Events that would
// leave the zoom, scale or offset non-finite are dropped.
func (c *Controller) Wheel(ev input.Wheel, dim mgl64.Vec2) bool {
	factor := math.Exp(-ev.DeltaY * c.sensitivity)
	if !usable(factor) {
		return false
	}

	zoom := c.zoom * factor
	if factor < 1 && zoom < c.minZoom {
		if c.zoom <= c.minZoom {
			return false
		}
		zoom = c.minZoom
		factor = zoom / c.zoom
	}
	if factor == 1 || !usable(zoom) || !usable(2/zoom) {
		return false
	}

	center := mgl64.Vec2{
		dim[0]/2 - ev.Pos[0],
		ev.Pos[1] - dim[1]/2,
	}
	offset := mgl64.Vec2{
		center[0] - factor*(center[0]-c.offset[0]),
		center[1] - factor*(center[1]-c.offset[1]),
	}
	if !finite(offset) {
		return false
	}

	c.zoom = zoom
	c.offset = offset
	return true
}

// Rescale multiplies the offset by ratio so its world meaning survives a
// change of the viewport's shorter side.
func (c *Controller) Rescale(ratio float64) bool {
	if ratio == 1 || !usable(ratio) {
		return false
	}
	c.offset = c.offset.Mul(ratio)
	return true
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func finite(v mgl64.Vec2) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
