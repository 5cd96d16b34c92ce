package programs

import (
	_ "embed"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

//go:embed shaders/burningship.frag
var burningShipFragment string

// BurningShip folds z into the first quadrant before every step.
type BurningShip struct{}

func (BurningShip) Name() string {
	return "burningship"
}

func (BurningShip) Description() string {
	return "The Burning Ship fractal, f(z) = (|Re z| + i|Im z|)^power + c with c taken " +
		"from each pixel. The drag point sets the starting value of z."
}

func (BurningShip) DefaultState() State {
	return State{
		Zoom:       1,
		Power:      DefaultPower,
		Iterations: DefaultIterations,
	}
}

func (BurningShip) Controls() []Control {
	return baseControls()
}

func (BurningShip) Uniforms(p Params) Uniforms {
	return passthrough(p)
}

func (BurningShip) Program() Program {
	return Program{
		Name:           "burningship",
		VertexShader:   defaultVertexShader,
		FragmentShader: burningShipFragment,
	}
}

func (BurningShip) PixelFunc() PixelFunc {
	return func(uniforms Uniforms, world mgl64.Vec2) mgl32.Vec3 {
		c := toComplex(world)
		max := int(uniforms.Iterations)

		iterations := escape(toComplex(uniforms.C), max, func(z complex128) complex128 {
			folded := complex(math.Abs(real(z)), math.Abs(imag(z)))
			return pow(folded, uniforms.Power) + c
		})
		return Colour(iterations, max)
	}
}
