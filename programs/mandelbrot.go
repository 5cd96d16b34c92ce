package programs

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

//go:embed shaders/mandelbrot.frag
var mandelbrotFragment string

// Mandelbrot takes c from the pixel. The drag point sets the starting z,
// so the classic set is drawn with the point at the origin.
type Mandelbrot struct{}

func (Mandelbrot) Name() string {
	return "mandelbrot"
}

func (Mandelbrot) Description() string {
	return "The Mandelbrot set of f(z) = z^power + c with c taken from each pixel. " +
		"The drag point perturbs the starting value of z."
}

func (Mandelbrot) DefaultState() State {
	return State{
		Zoom:       1,
		Power:      DefaultPower,
		Iterations: DefaultIterations,
	}
}

func (Mandelbrot) Controls() []Control {
	return baseControls()
}

func (Mandelbrot) Uniforms(p Params) Uniforms {
	return passthrough(p)
}

func (Mandelbrot) Program() Program {
	return Program{
		Name:           "mandelbrot",
		VertexShader:   defaultVertexShader,
		FragmentShader: mandelbrotFragment,
	}
}

func (Mandelbrot) PixelFunc() PixelFunc {
	return func(uniforms Uniforms, world mgl64.Vec2) mgl32.Vec3 {
		c := toComplex(world)
		max := int(uniforms.Iterations)

		iterations := escape(toComplex(uniforms.C), max, func(z complex128) complex128 {
			return pow(z, uniforms.Power) + c
		})
		return Colour(iterations, max)
	}
}
