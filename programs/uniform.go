package programs

import (
	"github.com/go-gl/mathgl/mgl64"
)

// State is the navigation state a variant starts from.
type State struct {
	DragPos    mgl64.Vec2
	Offset     mgl64.Vec2
	Zoom       float64
	Power      float64
	Iterations int32
}

// Params are the frame values derived from the current view.
// C and Offset are in world space.
type Params struct {
	C          mgl64.Vec2
	Offset     mgl64.Vec2
	Scale      mgl64.Vec2
	Power      float64
	Iterations int32
}

// Uniforms is the record handed to the renderer every frame.
// The tag names the GLSL uniform each field is uploaded to.
type Uniforms struct {
	C          mgl64.Vec2 `uniform:"c" json:"c"`
	Offset     mgl64.Vec2 `uniform:"offset" json:"offset"`
	Scale      mgl64.Vec2 `uniform:"scale" json:"scale"`
	Power      float64    `uniform:"power" json:"power"`
	Iterations int32      `uniform:"iterations" json:"iterations"`
}

// World maps a position in normalized device coordinates ([-1, 1] on both
// axes, y up) to the world position the renderer evaluates there.
func (u Uniforms) World(ndc mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		ndc[0]*u.Scale[0] + u.Offset[0],
		ndc[1]*u.Scale[1] + u.Offset[1],
	}
}

func passthrough(p Params) Uniforms {
	return Uniforms{
		C:          p.C,
		Offset:     p.Offset,
		Scale:      p.Scale,
		Power:      p.Power,
		Iterations: p.Iterations,
	}
}
