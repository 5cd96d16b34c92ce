package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/stewi1014/fractalvis/config"
	"github.com/stewi1014/fractalvis/remote"
	"github.com/stewi1014/fractalvis/viewer"
)

func newViewCommand() *cobra.Command {
	var (
		window    string
		remoteArg string
		shaderDir string
		debug     bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("remote") {
				cfg.RemoteAddr = remoteArg
			}
			if cmd.Flags().Changed("shader-dir") {
				cfg.ShaderDir = shaderDir
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			return runView(cfg, window)
		},
	}

	cmd.Flags().StringVar(&window, "window", "gtk", "window system, gtk or glfw")
	cmd.Flags().StringVar(&remoteArg, "remote", "", "serve the websocket remote on this address")
	cmd.Flags().StringVar(&shaderDir, "shader-dir", "", "directory of <variant>.frag shader overrides")
	cmd.Flags().BoolVar(&debug, "debug", false, "log OpenGL debug output")

	return cmd
}

func runView(cfg config.Config, window string) error {
	logger := setupLogging(cfg)

	v, err := lookupVariant(cfg)
	if err != nil {
		return err
	}
	if cfg.ShaderDir != "" {
		loaded, err := config.LoadShaders(cfg.ShaderDir)
		if err != nil {
			return err
		}
		logger.Info("loaded shader overrides", "dir", cfg.ShaderDir, "variants", loaded)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch window {
	case "gtk":
		err = runGTK(ctx, cfg, v)
	case "glfw":
		err = runGLFW(ctx, cfg, v)
	default:
		return fmt.Errorf("unknown window system %q", window)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// host is a window owning a session. Its methods are called on the GUI loop.
type host interface {
	Session() *viewer.Session
	ReloadProgram()
}

// startServices starts the config watcher and the websocket remote for h.
// post runs a func on the GUI loop. It must be called on the GUI loop.
func startServices(ctx context.Context, quit context.CancelCauseFunc, cfg config.Config, post func(func()), h host) error {
	logger := slog.Default()

	if configPath != "" || cfg.ShaderDir != "" {
		watcher, err := config.NewWatcher(configPath, cfg.ShaderDir)
		if err != nil {
			return err
		}
		watcher.Logger = logger
		watcher.OnConfig = func(c config.Config) {
			post(func() {
				if err := c.Apply(h.Session()); err != nil {
					logger.Warn("applying reloaded config", "err", err)
				}
			})
		}
		watcher.OnShader = func(variant string) {
			post(func() {
				if h.Session().Variant().Name() == variant {
					h.ReloadProgram()
				}
			})
		}
		go func() {
			defer CatchPanicToContext(quit)
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	if cfg.RemoteAddr != "" {
		srv := remote.NewServer(func(msg any) {
			post(func() {
				if err := h.Session().Apply(msg); err != nil {
					logger.Warn("remote command rejected", "err", err)
				}
			})
		})
		srv.Logger = logger
		h.Session().OnChange(srv.Publish)
		srv.Publish(h.Session().Snapshot())

		go func() {
			defer CatchPanicToContext(quit)
			if err := srv.ListenAndServe(ctx, cfg.RemoteAddr); err != nil {
				quit(fmt.Errorf("remote: %w", err))
			}
		}()
	}

	return nil
}
