package programs

import (
	"math"
	"math/cmplx"

	"github.com/go-gl/mathgl/mgl64"
)

// escape counts iterations of step until z leaves the bailout diamond.
func escape(z complex128, max int, step func(complex128) complex128) int {
	iterations := 0
	for math.Abs(real(z))+math.Abs(imag(z)) <= 4 && iterations < max {
		z = step(z)
		iterations++
	}
	return iterations
}

func pow(z complex128, p float64) complex128 {
	switch p {
	case 2:
		return z * z
	case 3:
		return z * z * z
	case 4:
		z2 := z * z
		return z2 * z2
	}
	if z == 0 {
		return 0
	}
	return cmplx.Pow(z, complex(p, 0))
}

func toComplex(v mgl64.Vec2) complex128 {
	return complex(v[0], v[1])
}
