package export

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/programs"
)

// WrapWithProgress replaces *img with an image counting its reads and returns
// a func reporting the fraction of pixels read so far.
func WrapWithProgress(img *image.Image) func() float64 {
	p := &ProgressImage{
		Image: *img,
	}

	*img = p
	return p.Progress
}

type ProgressImage struct {
	image.Image
	count atomic.Int64
}

func (i *ProgressImage) At(x, y int) color.Color {
	i.count.Add(1)
	return i.Image.At(x, y)
}

func (i *ProgressImage) Progress() float64 {
	end := i.Bounds().Dx() * i.Bounds().Dy()
	if end == 0 {
		return 1
	}
	return min(1, float64(i.count.Load())/float64(end))
}

func (i *ProgressImage) Opaque() bool {
	return true
}

// AntiAlias9x samples a 3x3 grid around each position and returns the
// average colour. spacing is the distance between samples in pixels.
func AntiAlias9x(img programs.Image, spacing float64) programs.Image {
	b := img.Bounds()
	return &antialias9xImage{
		Image: img,
		step: mgl64.Vec2{
			2 * spacing / float64(max(1, b.Dx())),
			2 * spacing / float64(max(1, b.Dy())),
		},
	}
}

type antialias9xImage struct {
	programs.Image
	step mgl64.Vec2
}

func (i *antialias9xImage) GetPixel(ndc mgl64.Vec2) mgl32.Vec3 {
	var sum mgl32.Vec3
	for dx := -1.0; dx <= 1; dx++ {
		for dy := -1.0; dy <= 1; dy++ {
			sum = sum.Add(i.Image.GetPixel(mgl64.Vec2{
				ndc[0] + dx*i.step[0],
				ndc[1] + dy*i.step[1],
			}))
		}
	}
	return sum.Mul(1 / float32(9))
}

// ToImage maps the centred pixel grid of img onto normalized device
// coordinates, with y pointing up and each axis spanning [-1, 1].
func ToImage(img programs.Image) image.Image {
	b := img.Bounds()
	return &imageImage{
		Image: img,
		half: mgl64.Vec2{
			float64(max(1, b.Dx())) / 2,
			float64(max(1, b.Dy())) / 2,
		},
	}
}

type imageImage struct {
	programs.Image
	half mgl64.Vec2
}

func (i *imageImage) At(x, y int) color.Color {
	c := i.GetPixel(mgl64.Vec2{
		(float64(x) + 0.5) / i.half[0],
		-(float64(y) + 0.5) / i.half[1],
	})
	return toNRGBA(c)
}

func (i *imageImage) ColorModel() color.Model {
	return color.NRGBAModel
}

func (i *imageImage) Opaque() bool {
	return true
}

func toNRGBA(c mgl32.Vec3) color.NRGBA {
	return color.NRGBA{
		R: uint8(mgl32.Clamp(c[0], 0, 1) * 255),
		G: uint8(mgl32.Clamp(c[1], 0, 1) * 255),
		B: uint8(mgl32.Clamp(c[2], 0, 1) * 255),
		A: 0xff,
	}
}

// BufferImage returns an image that renders img into memory when Buffer is called.
func BufferImage(img image.Image) *BufferedImage {
	b := img.Bounds()
	return &BufferedImage{
		NRGBA: image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
		src:   img,
	}
}

type BufferedImage struct {
	*image.NRGBA
	src image.Image
}

const chunkSize = 50

// Buffer renders the source image in column chunks, one goroutine per chunk.
func (b *BufferedImage) Buffer(ctx context.Context) error {
	bounds := b.src.Bounds()
	var wg sync.WaitGroup

	for chunkMin := bounds.Min.X; chunkMin < bounds.Max.X; chunkMin += chunkSize {
		chunkMax := min(chunkMin+chunkSize, bounds.Max.X)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for x := chunkMin; x < chunkMax; x++ {
				if ctx.Err() != nil {
					return
				}

				for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
					b.Set(x-bounds.Min.X, y-bounds.Min.Y, b.src.At(x, y))
				}
			}
		}()
	}

	wg.Wait()

	return ctx.Err()
}

func (b *BufferedImage) Opaque() bool {
	return true
}
