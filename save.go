package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractalvis/export"
	"github.com/stewi1014/fractalvis/programs"
)

func init() {
	gob.Register(&SaveRequest{})
}

// SaveRequest asks the render window to export the current view.
type SaveRequest struct {
	Name          string
	Width, Height int
	Antialias     float64
	Supersample   int
}

func save(
	ctx context.Context,
	window *gtk.ApplicationWindow,
	req SaveRequest,
	variant programs.Variant,
	uniforms programs.Uniforms,
) {
	ctx, cancel := context.WithCancelCause(ctx)
	AttachErrorDialog(window, ctx)

	dialog, err := NewProgressDialog(
		ctx, window, "Save Image",
		fmt.Sprintf("Saving %v", req.Name),
		func() { cancel(context.Canceled) },
	)
	if err != nil {
		cancel(err)
		return
	}

	go func() {
		defer CatchPanicToContext(cancel)

		err := export.Save(ctx, req.Name, variant, uniforms, export.Options{
			Width:       req.Width,
			Height:      req.Height,
			Antialias:   req.Antialias,
			Supersample: req.Supersample,
			Progress:    dialog.Report,
			Logger:      slog.Default(),
		})
		if err != nil {
			cancel(err)
			return
		}
		slog.Info("image saved", "file", req.Name)

		glib.IdleAdd(func() {
			defer cancel(nil)

			err := NewPreviewDialog(window, req.Name, func() {
				if err := os.Remove(req.Name); err != nil {
					slog.Warn("removing image", "err", err)
				}
			})
			if err != nil {
				slog.Warn("image preview", "err", err)
			}
		})
	}()
}
