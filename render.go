package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/stewi1014/fractalvis/export"
	"github.com/stewi1014/fractalvis/hud"
	"github.com/stewi1014/fractalvis/viewer"
	"github.com/stewi1014/fractalvis/viewport"
)

type renderFlags struct {
	output      string
	zoom        float64
	offsetX     float64
	offsetY     float64
	cX          float64
	cY          float64
	antialias   float64
	supersample int
	quiet       bool
}

func newRenderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a fractal to a PNG file without opening a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "fractal.png", "output file")
	cmd.Flags().Float64Var(&f.zoom, "zoom", 1, "zoom factor")
	cmd.Flags().Float64Var(&f.offsetX, "offset-x", 0, "world x at the image centre")
	cmd.Flags().Float64Var(&f.offsetY, "offset-y", 0, "world y at the image centre")
	cmd.Flags().Float64Var(&f.cX, "c-x", 0, "real part of c")
	cmd.Flags().Float64Var(&f.cY, "c-y", 0, "imaginary part of c")
	cmd.Flags().Float64Var(&f.antialias, "antialias", 0, "3x3 antialias sample spacing in pixels, 0 to disable")
	cmd.Flags().IntVar(&f.supersample, "supersample", 1, "render at this multiple of the size and scale down")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not report progress")

	return cmd
}

func runRender(cmd *cobra.Command, f renderFlags) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)

	v, err := lookupVariant(cfg)
	if err != nil {
		return err
	}
	if cfg.ShaderDir != "" {
		logger.Debug("shader_dir is ignored when rendering on the CPU", "dir", cfg.ShaderDir)
	}

	session := viewer.NewSession(v, nil, cfg.Options())
	session.Attach(&viewport.Static{Width: cfg.Window.Width, Height: cfg.Window.Height})
	if err := cfg.Apply(session); err != nil {
		return err
	}

	// Zoom first so offset and c are placed in the final mapping.
	edits := []struct {
		flag  string
		field viewer.Field
		value float64
	}{
		{"zoom", viewer.FieldZoom, f.zoom},
		{"offset-x", viewer.FieldOffsetX, f.offsetX},
		{"offset-y", viewer.FieldOffsetY, f.offsetY},
		{"c-x", viewer.FieldCX, f.cX},
		{"c-y", viewer.FieldCY, f.cY},
	}
	for _, e := range edits {
		if !cmd.Flags().Changed(e.flag) {
			continue
		}
		if err := session.Edit(e.field, e.value); err != nil {
			return fmt.Errorf("--%s: %w", e.flag, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := export.Options{
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		Antialias:   f.antialias,
		Supersample: f.supersample,
		Logger:      logger,
	}
	if !f.quiet {
		stderr := cmd.ErrOrStderr()
		opts.Progress = func(p float64) {
			fmt.Fprintf(stderr, "\rrendering %3.0f%%", p*100)
		}
		defer fmt.Fprintln(stderr)
	}

	if err := export.Save(ctx, f.output, session.Variant(), session.Uniforms(), opts); err != nil {
		return fmt.Errorf("rendering %s: %w", f.output, err)
	}

	logger.Info("saved", "file", f.output, "view", hud.NewReadout(session.Snapshot()).Title())
	return nil
}
