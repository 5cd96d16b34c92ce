package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
)

func CatchPanicToContext(ctxCancel context.CancelCauseFunc) {
	if v := recover(); v != nil {
		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", v)
		}
		err = fmt.Errorf("%w\n%v", err, string(debug.Stack()))
		if ctxCancel != nil {
			ctxCancel(err)
		}
	}
}

// AttachErrorDialog shows the cause of ctx once it is done, unless ctx was
// cancelled without an error.
func AttachErrorDialog(parent gtk.IWindow, ctx context.Context) {
	context.AfterFunc(ctx, func() {
		err := context.Cause(ctx)
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("operation failed", "err", err)
		glib.IdleAdd(func() {
			NewErrorDialog(parent, err)
		})
	})
}

// NewErrorDialog shows err without blocking the main loop.
func NewErrorDialog(parent gtk.IWindow, err error) {
	dialog := gtk.MessageDialogNew(
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		gtk.MESSAGE_ERROR,
		gtk.BUTTONS_CLOSE,
		"%s",
		err.Error(),
	)
	dialog.Connect("response", dialog.Destroy)
	dialog.SetKeepAbove(true)
	dialog.ShowAll()
}

// ProgressDialog shows the fraction last passed to Report. The bar pulses
// until the first report.
type ProgressDialog struct {
	*gtk.Dialog
	bar *gtk.ProgressBar

	// float64 bits, or reportNone before the first report.
	progress atomic.Uint64
}

const reportNone = math.MaxUint64

// NewProgressDialog shows a progress dialog until ctx is done. onCancel runs
// when the user presses Cancel.
func NewProgressDialog(ctx context.Context, parent gtk.IWindow, title, text string, onCancel func()) (*ProgressDialog, error) {
	dialog, err := gtk.DialogNewWithButtons(
		title,
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		[]interface{}{"Cancel", gtk.RESPONSE_CANCEL},
	)
	if err != nil {
		return nil, err
	}
	p := &ProgressDialog{Dialog: dialog}
	p.progress.Store(reportNone)

	dialog.Connect("response", func(_ *gtk.Dialog, response gtk.ResponseType) {
		if response == gtk.RESPONSE_CANCEL {
			onCancel()
		}
	})

	content, err := dialog.GetContentArea()
	if err != nil {
		return nil, err
	}
	label, err := gtk.LabelNew(text)
	if err != nil {
		return nil, err
	}
	if p.bar, err = gtk.ProgressBarNew(); err != nil {
		return nil, err
	}
	p.bar.SetShowText(true)
	p.bar.SetSizeRequest(500, 40)
	content.PackStart(label, false, false, 6)
	content.PackStart(p.bar, true, true, 6)

	dialog.SetKeepAbove(true)
	dialog.ShowAll()
	go p.poll(ctx)
	return p, nil
}

// Report records the current fraction. It is safe to call from any goroutine
// and matches the signature of export.Options.Progress.
func (p *ProgressDialog) Report(fraction float64) {
	p.progress.Store(math.Float64bits(fraction))
}

func (p *ProgressDialog) poll(ctx context.Context) {
	ticker := time.NewTicker(time.Second / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bits := p.progress.Load()
			glib.IdleAdd(func() {
				if bits == reportNone {
					p.bar.Pulse()
					return
				}
				p.bar.SetFraction(math.Float64frombits(bits))
			})
		case <-ctx.Done():
			glib.IdleAdd(p.Destroy)
			return
		}
	}
}

// NewPreviewDialog shows the image at path scaled to fit 800x600. onDelete
// runs if the user chooses to discard it.
func NewPreviewDialog(parent gtk.IWindow, path string, onDelete func()) error {
	pixbuf, err := gdk.PixbufNewFromFileAtScale(path, 800, 600, true)
	if err != nil {
		return err
	}
	image, err := gtk.ImageNewFromPixbuf(pixbuf)
	if err != nil {
		return err
	}

	dialog, err := gtk.DialogNewWithButtons(
		path,
		parent,
		gtk.DIALOG_DESTROY_WITH_PARENT,
		[]interface{}{"Delete", gtk.RESPONSE_REJECT},
		[]interface{}{"Keep", gtk.RESPONSE_ACCEPT},
	)
	if err != nil {
		return err
	}
	dialog.Connect("response", func(d *gtk.Dialog, response gtk.ResponseType) {
		if response == gtk.RESPONSE_REJECT && onDelete != nil {
			onDelete()
		}
		d.Destroy()
	})

	content, err := dialog.GetContentArea()
	if err != nil {
		return err
	}
	content.PackStart(image, true, true, 0)
	dialog.ShowAll()
	return nil
}
