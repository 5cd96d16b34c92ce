package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/stewi1014/fractalvis/hud"
	"github.com/stewi1014/fractalvis/programs"
	"github.com/stewi1014/fractalvis/viewer"
)

func NewConfigWindow(
	app *gtk.Application,
	listener net.Listener,
	ctx context.Context,
	quit context.CancelCauseFunc,
) *ConfigWindow {
	var err error
	w := &ConfigWindow{
		quit:   quit,
		logger: slog.Default(),
	}

	conn, err := listener.Accept()
	if err != nil {
		quit(fmt.Errorf("accepting config connection: %w", err))
		return nil
	}
	w.messages = newMessenger(conn, w.logger)

	w.ApplicationWindow, err = gtk.ApplicationWindowNew(app)
	if err != nil {
		quit(fmt.Errorf("gtk.ApplicationWindowNew: %w", err))
		return nil
	}

	w.SetDefaultSize(320, 700)

	if err := w.build(); err != nil {
		quit(err)
		return nil
	}
	w.ShowAll()

	go w.messages.handleSend(ctx, quit)
	go w.messages.handleReceive(ctx, quit, w.receive)

	return w
}

type ConfigWindow struct {
	*gtk.ApplicationWindow
	quit   context.CancelCauseFunc
	logger *slog.Logger

	messages *messenger

	box         *gtk.Box
	variants    *gtk.ComboBoxText
	description *gtk.Label
	controls    *gtk.Grid
	spins       map[viewer.Field]*gtk.SpinButton
	readout     []*gtk.Label

	// Set while widgets are updated from a snapshot so their change
	// signals are not sent back.
	updating bool
	variant  string
	last     viewer.Snapshot
}

func (w *ConfigWindow) build() error {
	var err error
	if w.box, err = gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 6); err != nil {
		return err
	}
	w.box.SetMarginStart(8)
	w.box.SetMarginEnd(8)
	w.box.SetMarginTop(8)
	w.box.SetMarginBottom(8)

	if w.variants, err = gtk.ComboBoxTextNew(); err != nil {
		return err
	}
	for _, v := range programs.Variants() {
		w.variants.Append(v.Name(), v.Name())
	}
	w.variants.Connect("changed", func() {
		name := w.variants.GetActiveID()
		if w.updating || name == "" || name == w.variant {
			return
		}
		w.messages.Send(&viewer.SelectVariant{Name: name})
	})
	w.box.PackStart(w.variants, false, false, 0)

	if w.description, err = gtk.LabelNew(""); err != nil {
		return err
	}
	w.description.SetLineWrap(true)
	w.description.SetXAlign(0)
	w.box.PackStart(w.description, false, false, 0)

	for range hud.Lines(viewer.Snapshot{}) {
		l, err := gtk.LabelNew("")
		if err != nil {
			return err
		}
		l.SetXAlign(0)
		l.SetSelectable(true)
		w.readout = append(w.readout, l)
		w.box.PackEnd(l, false, false, 0)
	}

	saveButton, err := gtk.ButtonNewWithLabel("Save Image")
	if err != nil {
		return err
	}
	saveButton.Connect("clicked", w.saveClicked)
	w.box.PackEnd(saveButton, false, false, 0)

	w.Add(w.box)
	return nil
}

// buildControls replaces the control grid with the controls of v.
func (w *ConfigWindow) buildControls(v programs.Variant) error {
	if w.controls != nil {
		w.box.Remove(w.controls)
		w.controls.Destroy()
	}

	grid, err := gtk.GridNew()
	if err != nil {
		return err
	}
	grid.SetColumnSpacing(6)
	grid.SetRowSpacing(4)
	w.spins = make(map[viewer.Field]*gtk.SpinButton)

	for row, control := range v.Controls() {
		field, err := viewer.ParseField(control.Field)
		if err != nil {
			return err
		}

		label, err := gtk.LabelNew(control.Label)
		if err != nil {
			return err
		}
		label.SetXAlign(0)

		spin, err := gtk.SpinButtonNewWithRange(control.Min, control.Max, control.Step)
		if err != nil {
			return err
		}
		spin.SetDigits(6)
		spin.SetHExpand(true)
		spin.Connect("value-changed", func(spin *gtk.SpinButton) {
			if w.updating {
				return
			}
			w.messages.Send(&viewer.Edit{Field: field, Value: spin.GetValue()})
		})

		reset, err := gtk.ButtonNewWithLabel("Reset")
		if err != nil {
			return err
		}
		reset.Connect("clicked", func() {
			w.messages.Send(&viewer.Reset{Field: field})
		})

		grid.Attach(label, 0, row, 1, 1)
		grid.Attach(spin, 1, row, 1, 1)
		grid.Attach(reset, 2, row, 1, 1)
		w.spins[field] = spin
	}

	w.controls = grid
	w.box.PackStart(grid, false, false, 6)
	grid.ShowAll()
	return nil
}

func (w *ConfigWindow) receive(v any) {
	switch msg := v.(type) {
	case *viewer.Snapshot:
		glib.IdleAdd(func() {
			w.update(*msg)
		})
	default:
		w.logger.Warn("unknown message received", "type", fmt.Sprintf("%T", v))
	}
}

func (w *ConfigWindow) update(snap viewer.Snapshot) {
	w.updating = true
	defer func() { w.updating = false }()
	w.last = snap

	if snap.Variant != w.variant {
		v, err := programs.Lookup(snap.Variant)
		if err != nil {
			w.logger.Warn("snapshot for unknown variant", "err", err)
			return
		}
		if err := w.buildControls(v); err != nil {
			w.quit(err)
			return
		}
		w.variant = snap.Variant
		w.variants.SetActiveID(snap.Variant)
		w.description.SetText(v.Description())
	}

	for field, spin := range w.spins {
		spin.SetValue(fieldValue(snap, field))
	}
	for i, line := range hud.Lines(snap) {
		if i < len(w.readout) {
			w.readout[len(w.readout)-1-i].SetText(line)
		}
	}
}

func fieldValue(snap viewer.Snapshot, field viewer.Field) float64 {
	switch field {
	case viewer.FieldZoom:
		return snap.Zoom
	case viewer.FieldOffsetX:
		return snap.ShaderOffset[0]
	case viewer.FieldOffsetY:
		return snap.ShaderOffset[1]
	case viewer.FieldCX:
		return snap.C[0]
	case viewer.FieldCY:
		return snap.C[1]
	case viewer.FieldPower:
		return snap.Power
	case viewer.FieldIterations:
		return float64(snap.Iterations)
	}
	return 0
}

func (w *ConfigWindow) saveClicked() {
	chooser, err := gtk.FileChooserDialogNewWith2Buttons(
		"Save Image",
		w,
		gtk.FILE_CHOOSER_ACTION_SAVE,
		"Cancel", gtk.RESPONSE_CANCEL,
		"Save", gtk.RESPONSE_ACCEPT,
	)
	if err != nil {
		NewErrorDialog(w, err)
		return
	}
	defer chooser.Destroy()

	chooser.SetDoOverwriteConfirmation(true)
	chooser.SetCurrentName(w.variant + ".png")
	if chooser.Run() != gtk.RESPONSE_ACCEPT {
		return
	}

	name := chooser.GetFilename()
	if filepath.Ext(name) == "" {
		name += ".png"
	}

	w.messages.Send(&SaveRequest{
		Name:        name,
		Width:       int(w.last.Dim[0]),
		Height:      int(w.last.Dim[1]),
		Supersample: 2,
	})
}
