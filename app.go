package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractalvis/config"
	"github.com/stewi1014/fractalvis/programs"
)

const applicationID = "com.github.stewi1014.fractalvis"

// runGTK shows the render and config windows until either is closed or ctx is done.
func runGTK(ctx context.Context, cfg config.Config, v programs.Variant) error {
	runtime.LockOSThread()

	gtk.Init(&os.Args)
	app, err := gtk.ApplicationNew(applicationID, glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return fmt.Errorf("gtk.ApplicationNew failed: %w", err)
	}

	appContext, appQuit := context.WithCancelCause(ctx)
	app.Connect("activate", func() {
		client, listener := NewPipeListener(appContext)

		renderWindow := NewRenderWindow(app, client, appContext, appQuit, cfg, v)
		if renderWindow == nil {
			return
		}
		renderWindow.Connect("destroy", func() {
			appQuit(nil)
		})

		configWindow := NewConfigWindow(app, listener, appContext, appQuit)
		if configWindow == nil {
			return
		}
		configWindow.Connect("destroy", func() {
			appQuit(nil)
		})
		configWindow.SetTitle("fractalvis config")

		if err := startServices(appContext, appQuit, cfg, func(f func()) { glib.IdleAdd(f) }, renderWindow); err != nil {
			appQuit(err)
		}
	})

	go func() {
		<-appContext.Done()
		glib.IdleAdd(app.Quit)
	}()
	app.Run(nil)
	return context.Cause(appContext)
}
