package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/stewi1014/fractalvis/config"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
)

var version = "dev"

// Flags shared by every command. They override the config file when set.
var (
	configPath string
	logLevel   string
	variant    string
	power      float64
	iterations int
	width      int
	height     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fractalvis",
		Short: "Interactive Julia and Mandelbrot set viewer",
		Long: `fractalvis renders escape time fractals on the GPU. Drag with the left
button to move the point c, drag with the right button to pan and scroll to zoom.`,
		Version:      version,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&variant, "variant", "", "fractal variant to show")
	flags.Float64Var(&power, "power", programs.DefaultPower, "exponent of the iterated polynomial")
	flags.IntVar(&iterations, "iterations", programs.DefaultIterations, "maximum iterations per pixel")
	flags.IntVar(&width, "width", 1200, "window or image width in pixels")
	flags.IntVar(&height, "height", 800, "window or image height in pixels")

	rootCmd.AddCommand(newViewCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newVariantsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies any flags set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if changed("variant") {
		cfg.Variant = variant
	}
	if changed("power") {
		cfg.Power = power
	}
	if changed("iterations") {
		cfg.Iterations = int32(iterations)
	}
	if changed("width") {
		cfg.Window.Width = width
	}
	if changed("height") {
		cfg.Window.Height = height
	}

	return cfg, cfg.Validate()
}

func setupLogging(cfg config.Config) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	viewer.SetLogger(logger)
	return logger
}

func lookupVariant(cfg config.Config) (programs.Variant, error) {
	if cfg.Variant == "" {
		return programs.Default(), nil
	}
	return programs.Lookup(cfg.Variant)
}

func newVariantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the available fractal variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, v := range programs.Variants() {
				fmt.Fprintf(out, "%-12s %s\n", v.Name(), v.Description())
			}
			return nil
		},
	}
}
