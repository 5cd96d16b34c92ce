// Package programs defines the fractal variants the viewer can display.
//
// A variant describes itself, its starting state, the numeric controls it
// wants on screen, its GLSL program and an optional CPU implementation used
// for exporting images.
package programs

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNoCPUImplementation = errors.New("fractal does not have a CPU implementation")
	ErrUnknownVariant      = errors.New("unknown fractal variant")
)

var (
	NullColour = mgl32.Vec3{0.1, 0.1, 0.1}
)

const (
	DefaultPower      = 2
	DefaultIterations = 256
)

//go:embed shaders/default.vert
var defaultVertexShader string

// Program holds the shader sources for a variant.
type Program struct {
	Name           string
	VertexShader   string
	FragmentShader string
}

// Control describes a numeric field a variant exposes for editing.
// Field is the edit field name understood by the viewer.
type Control struct {
	Field string
	Label string
	Step  float64
	Min   float64
	Max   float64
	Reset float64
}

// PixelFunc evaluates the fractal at a world position.
type PixelFunc func(uniforms Uniforms, world mgl64.Vec2) mgl32.Vec3

type Variant interface {
	Name() string
	Description() string
	DefaultState() State
	Controls() []Control
	Uniforms(Params) Uniforms
	Program() Program
	PixelFunc() PixelFunc
}

func init() {
	for _, v := range []Variant{Julia{}, Mandelbrot{}, BurningShip{}} {
		if err := Register(v); err != nil {
			panic(err)
		}
	}
}

var (
	mu        sync.RWMutex
	variants  []Variant
	fragments = map[string]string{}
)

// Register adds a variant. Names must be unique.
func Register(v Variant) error {
	mu.Lock()
	defer mu.Unlock()

	for _, existing := range variants {
		if existing.Name() == v.Name() {
			return fmt.Errorf("variant %q already registered", v.Name())
		}
	}
	variants = append(variants, v)
	return nil
}

func Variants() []Variant {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Variant(nil), variants...)
}

func Lookup(name string) (Variant, error) {
	mu.RLock()
	defer mu.RUnlock()

	for _, v := range variants {
		if v.Name() == name {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Default returns the first registered variant.
func Default() Variant {
	mu.RLock()
	defer mu.RUnlock()
	return variants[0]
}

// SetFragmentShader replaces the fragment shader of a registered variant.
// An empty source restores the built in shader.
func SetFragmentShader(name, source string) error {
	if _, err := Lookup(name); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if source == "" {
		delete(fragments, name)
	} else {
		fragments[name] = source
	}
	return nil
}

// ProgramFor returns the variant's program with any replaced fragment shader applied.
func ProgramFor(v Variant) Program {
	p := v.Program()

	mu.RLock()
	defer mu.RUnlock()
	if src, ok := fragments[v.Name()]; ok {
		p.FragmentShader = src
	}
	return p
}

// GetImage returns the variant evaluated over a width x height pixel grid
// centred on the origin.
func GetImage(v Variant, uniforms Uniforms, width, height int) (Image, error) {
	pixelFunc := v.PixelFunc()
	if pixelFunc == nil {
		return nil, ErrNoCPUImplementation
	}

	return &programImage{
		uniforms: uniforms,
		bounds: image.Rect(
			-width/2,
			-height/2,
			width-width/2,
			height-height/2,
		),
		pixelFunc: pixelFunc,
	}, nil
}

// Image is a fractal sampled in normalized device coordinates.
type Image interface {
	GetPixel(ndc mgl64.Vec2) mgl32.Vec3
	Bounds() image.Rectangle
}

type programImage struct {
	uniforms  Uniforms
	bounds    image.Rectangle
	pixelFunc PixelFunc
}

func (i *programImage) GetPixel(ndc mgl64.Vec2) mgl32.Vec3 {
	return i.pixelFunc(i.uniforms, i.uniforms.World(ndc))
}

func (i *programImage) Bounds() image.Rectangle {
	return i.bounds
}

// Colour maps an escape count to the palette shared with the shaders.
func Colour(iterations, max int) mgl32.Vec3 {
	if iterations >= max {
		return NullColour
	}

	t := 3 * float64(iterations) / float64(max)
	return mgl32.Vec3{
		float32(0.5 + 0.5*math.Cos(2*math.Pi*(t+0.00))),
		float32(0.5 + 0.5*math.Cos(2*math.Pi*(t+0.33))),
		float32(0.5 + 0.5*math.Cos(2*math.Pi*(t+0.67))),
	}
}

func baseControls() []Control {
	return []Control{
		{Field: "zoom", Label: "Zoom", Step: 0.1, Min: 0.001, Max: 1e12, Reset: 1},
		{Field: "offset.x", Label: "Offset X", Step: 0.01, Min: -1e6, Max: 1e6},
		{Field: "offset.y", Label: "Offset Y", Step: 0.01, Min: -1e6, Max: 1e6},
		{Field: "c.x", Label: "C X", Step: 0.01, Min: -1e6, Max: 1e6},
		{Field: "c.y", Label: "C Y", Step: 0.01, Min: -1e6, Max: 1e6},
		{Field: "power", Label: "Power", Step: 0.1, Min: 1, Max: 64, Reset: DefaultPower},
		{Field: "iterations", Label: "Iterations", Step: 16, Min: 1, Max: 1 << 16, Reset: DefaultIterations},
	}
}
