package programs

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

//go:embed shaders/julia.frag
var juliaFragment string

// Julia iterates z^power + c from each pixel, with c set by the drag point.
type Julia struct{}

func (Julia) Name() string {
	return "julia"
}

func (Julia) Description() string {
	return "The Julia set of f(z) = z^power + c. Drag the point to change c; " +
		"colour shows how fast each point diverges."
}

func (Julia) DefaultState() State {
	return State{
		DragPos:    mgl64.Vec2{100, 0},
		Zoom:       1,
		Power:      DefaultPower,
		Iterations: DefaultIterations,
	}
}

func (Julia) Controls() []Control {
	return baseControls()
}

func (Julia) Uniforms(p Params) Uniforms {
	return passthrough(p)
}

func (Julia) Program() Program {
	return Program{
		Name:           "julia",
		VertexShader:   defaultVertexShader,
		FragmentShader: juliaFragment,
	}
}

func (Julia) PixelFunc() PixelFunc {
	return func(uniforms Uniforms, world mgl64.Vec2) mgl32.Vec3 {
		c := toComplex(uniforms.C)
		max := int(uniforms.Iterations)

		iterations := escape(toComplex(world), max, func(z complex128) complex128 {
			return pow(z, uniforms.Power) + c
		})
		return Colour(iterations, max)
	}
}
