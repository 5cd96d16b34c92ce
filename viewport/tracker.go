// Package viewport tracks the pixel size of the render surface and the world
// extent visible through it.
package viewport

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultDim is used when neither the surface nor the display report a usable size.
var DefaultDim = mgl64.Vec2{1200, 800}

// Surface reports its current size in pixels. A detached or hidden surface reports 0x0.
type Surface interface {
	Size() (width, height int)
}

// ParentSurface is implemented by surfaces that can report the container they sit in.
type ParentSurface interface {
	Surface
	Parent() Surface
}

// ZoomReader supplies the zoom factor the scale is derived from.
type ZoomReader interface {
	Zoom() float64
}

// Static is a Surface with a fixed size.
type Static struct {
	Width, Height int
}

func (s *Static) Size() (int, int) {
	return s.Width, s.Height
}

// Resize changes the reported size. Callers still need to call Tracker.Update.
func (s *Static) Resize(width, height int) {
	s.Width, s.Height = width, height
}

// Tracker is the only writer of the viewport dimension and scale.
type Tracker struct {
	display     Surface
	surface     Surface
	zoom        ZoomReader
	trackParent bool

	dim   mgl64.Vec2
	scale mgl64.Vec2
}

// NewTracker returns a tracker that falls back to display when no surface is
// attached. display may be nil.
func NewTracker(display Surface, zoom ZoomReader) *Tracker {
	t := &Tracker{
		display: display,
		zoom:    zoom,
	}
	t.Update()
	return t
}

// Attach starts tracking s. When trackParent is set and s can report its
// parent, the parent's size is used instead.
func (t *Tracker) Attach(s Surface, trackParent bool) bool {
	t.surface = s
	t.trackParent = trackParent
	return t.Update()
}

func (t *Tracker) Detach() {
	t.surface = nil
}

// Update re-reads the surface size and recomputes the scale. It reports
// whether the dimension or scale changed. A degenerate surface size falls
// back to the display size, then to the previous dimension, then to DefaultDim.
func (t *Tracker) Update() bool {
	dim, ok := t.measure()
	if !ok {
		if valid(t.dim) {
			dim = t.dim
		} else {
			dim = DefaultDim
		}
	}

	scale := Scale(dim, t.currentZoom())
	if dim == t.dim && scale == t.scale {
		return false
	}

	t.dim, t.scale = dim, scale
	return true
}

func (t *Tracker) measure() (mgl64.Vec2, bool) {
	if s := t.target(); s != nil {
		if w, h := s.Size(); w > 0 && h > 0 {
			return clamp(w, h), true
		}
	}

	if t.display != nil {
		if w, h := t.display.Size(); w > 0 && h > 0 {
			return clamp(w, h), true
		}
	}

	return mgl64.Vec2{}, false
}

func (t *Tracker) target() Surface {
	if t.surface == nil {
		return nil
	}
	if t.trackParent {
		if p, ok := t.surface.(ParentSurface); ok {
			if parent := p.Parent(); parent != nil {
				return parent
			}
		}
	}
	return t.surface
}

func (t *Tracker) currentZoom() float64 {
	if t.zoom == nil {
		return 1
	}
	return t.zoom.Zoom()
}

func (t *Tracker) Dim() mgl64.Vec2 {
	return t.dim
}

func (t *Tracker) Scale() mgl64.Vec2 {
	return t.scale
}

// Extent is the shorter side of the viewport in pixels.
func (t *Tracker) Extent() float64 {
	return math.Min(t.dim[0], t.dim[1])
}

// Scale returns the world half-extent visible on each axis. The shorter axis
// always spans 2/zoom world units either side of the centre.
func Scale(dim mgl64.Vec2, zoom float64) mgl64.Vec2 {
	minScale := 2 / zoom
	minDim := math.Min(dim[0], dim[1])
	return mgl64.Vec2{
		minScale * dim[0] / minDim,
		minScale * dim[1] / minDim,
	}
}

func clamp(w, h int) mgl64.Vec2 {
	return mgl64.Vec2{math.Max(1, float64(w)), math.Max(1, float64(h))}
}

func valid(dim mgl64.Vec2) bool {
	return dim[0] >= 1 && dim[1] >= 1
}
