// Package dragpoint tracks the user controlled point that defines c.
//
// The point is stored in normalized screen space. When the view is panned or
// zoomed while the point is not being dragged, it is reprojected so that it
// keeps its world position.
package dragpoint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/coords"
	"github.com/stewi1014/fractalvis/input"
)

// DefaultHandleRadius is the grab distance around the handle in pixels.
const DefaultHandleRadius = 8

// View is the part of the navigation state a drag position depends on.
// Extent is the shorter side of the viewport in pixels.
type View struct {
	Zoom   float64
	Offset mgl64.Vec2
	Extent float64
}

// Controller is the only writer of the drag position.
type Controller struct {
	pos    mgl64.Vec2
	shadow View

	dragging     bool
	grab         mgl64.Vec2
	handleRadius float64
}

func New(pos mgl64.Vec2, view View) *Controller {
	return &Controller{
		pos:          pos,
		shadow:       view,
		handleRadius: DefaultHandleRadius,
	}
}

func (c *Controller) Pos() mgl64.Vec2 {
	return c.pos
}

func (c *Controller) Dragging() bool {
	return c.dragging
}

// Shadow returns the view the position was last projected against.
func (c *Controller) Shadow() View {
	return c.shadow
}

func (c *Controller) SetHandleRadius(r float64) {
	if r >= 0 {
		c.handleRadius = r
	}
}

// SetPos places the point programmatically against the current view.
func (c *Controller) SetPos(pos mgl64.Vec2, view View) bool {
	c.shadow = view
	if c.pos == pos {
		return false
	}
	c.pos = pos
	return true
}

// OnHandle reports whether a client position is within grab distance of the handle.
func (c *Controller) OnHandle(client, dim mgl64.Vec2) bool {
	handle := coords.NormalToClient(c.pos, dim)
	return client.Sub(handle).Len() <= c.handleRadius
}

// PointerDown starts a drag on a primary press. A press away from the handle
// first moves the point under the pointer, so a single press-and-hold drags.
func (c *Controller) PointerDown(ev input.Pointer, dim mgl64.Vec2, view View) bool {
	if ev.Button != input.ButtonPrimary {
		return false
	}

	c.dragging = true
	c.shadow = view

	client := bound(ev.Pos, dim)
	if c.OnHandle(ev.Pos, dim) {
		c.grab = c.pos.Sub(coords.ClientToNormal(client, dim))
		return false
	}

	c.grab = mgl64.Vec2{}
	c.pos = coords.ClientToNormal(client, dim)
	return true
}

// PointerMove follows the pointer while dragging, kept inside the surface.
func (c *Controller) PointerMove(client, dim mgl64.Vec2) bool {
	if !c.dragging {
		return false
	}

	pos := coords.ClientToNormal(bound(client, dim), dim).Add(c.grab)
	if pos == c.pos {
		return false
	}
	c.pos = pos
	return true
}

func (c *Controller) PointerUp(ev input.Pointer) bool {
	if ev.Button != input.ButtonPrimary || !c.dragging {
		return false
	}
	c.dragging = false
	c.grab = mgl64.Vec2{}
	return true
}

// Reproject moves the point so its world position is unchanged by a new view.
// While dragging the pointer owns the position and only the shadow is updated.
func (c *Controller) Reproject(view View) bool {
	old := c.shadow
	if old == view {
		return false
	}
	c.shadow = view

	if c.dragging {
		return false
	}

	ratio := 1.0
	if old.Extent > 0 && view.Extent > 0 && old.Extent != view.Extent {
		ratio = view.Extent / old.Extent
	}

	p := c.pos.Add(old.Offset)
	k := view.Zoom * ratio
	pos := mgl64.Vec2{
		p[0]/old.Zoom*k - view.Offset[0],
		p[1]/old.Zoom*k - view.Offset[1],
	}
	if pos == c.pos {
		return false
	}
	c.pos = pos
	return true
}

func bound(client, dim mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		math.Max(0, math.Min(dim[0], client[0])),
		math.Max(0, math.Min(dim[1], client[1])),
	}
}
