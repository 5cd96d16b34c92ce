// Package input holds the pointer and wheel event records consumed by the controllers.
// Positions are client coordinates: pixels from the top-left of the render surface, y down.
package input

import "github.com/go-gl/mathgl/mgl64"

// Button identifies a pointer button. Values follow GDK numbering.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonMiddle
	ButtonSecondary
)

func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	}
	return "none"
}

type Pointer struct {
	Button Button
	Pos    mgl64.Vec2
}

// Wheel is a vertical scroll. DeltaY follows the browser convention,
// roughly 100 per notch with positive values scrolling down.
type Wheel struct {
	DeltaY float64
	Pos    mgl64.Vec2
}

// NotchDelta is the DeltaY reported for one discrete scroll step.
const NotchDelta = 100
