// Package export renders a variant on the CPU and writes it as PNG.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/stewi1014/fractalvis/programs"
	"golang.org/x/image/draw"
)

var ErrBadSize = errors.New("image size must be positive")

type Options struct {
	Width, Height int
	// Antialias is the spacing in pixels of the 3x3 sample grid. Zero disables it.
	Antialias float64
	// Supersample renders at an integer multiple of the size and scales down.
	Supersample int
	// Progress, if set, is called periodically with the fraction rendered.
	Progress func(float64)
	Logger   *slog.Logger
}

const progressInterval = 200 * time.Millisecond

// Render evaluates v with uniforms over an image of the requested size.
func Render(ctx context.Context, v programs.Variant, uniforms programs.Uniforms, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, opts.Width, opts.Height)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ss := max(1, opts.Supersample)

	fractal, err := programs.GetImage(v, uniforms, opts.Width*ss, opts.Height*ss)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", v.Name(), err)
	}
	if opts.Antialias > 0 {
		fractal = AntiAlias9x(fractal, opts.Antialias*float64(ss))
	}

	img := ToImage(fractal)
	progress := WrapWithProgress(&img)
	buff := BufferImage(img)

	if opts.Progress != nil {
		stop := reportProgress(progress, opts.Progress)
		defer stop()
	}

	start := time.Now()
	if err := buff.Buffer(ctx); err != nil {
		return nil, err
	}
	logger.Debug("rendered", "variant", v.Name(), "width", opts.Width*ss, "height", opts.Height*ss, "took", time.Since(start))

	if ss == 1 {
		return buff.NRGBA, nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(out, out.Bounds(), buff.NRGBA, buff.Bounds(), draw.Src, nil)
	return out, nil
}

func reportProgress(progress func() float64, report func(float64)) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				report(progress())
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		report(progress())
	}
}

// Encode renders and writes a PNG to w.
func Encode(ctx context.Context, w io.Writer, v programs.Variant, uniforms programs.Uniforms, opts Options) error {
	img, err := Render(ctx, v, uniforms, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Save renders to a PNG file at path. The file is removed if rendering fails
// or ctx is cancelled.
func Save(ctx context.Context, path string, v programs.Variant, uniforms programs.Uniforms, opts Options) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return Encode(ctx, file, v, uniforms, opts)
}
