// Package hud formats session readouts for display.
package hud

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stewi1014/fractalvis/viewer"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Digits is the number of significant digits shown by Lines.
const Digits = 2

var printer = message.NewPrinter(language.English)

// Number formats v rounded to digits significant digits.
func Number(v float64, digits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	return printer.Sprint(number.Decimal(v, number.Precision(digits), number.NoSeparator()))
}

// Vec formats a pair as "x, y".
func Vec(v mgl64.Vec2, digits int) string {
	return Number(v[0], digits) + ", " + Number(v[1], digits)
}

// Readout is the text shown for each value.
type Readout struct {
	Variant string
	C       string
	Zoom    string
	Offset  string
	Raw     string
	Power   string
}

func NewReadout(snap viewer.Snapshot) Readout {
	return Readout{
		Variant: snap.Variant,
		C:       Vec(snap.C, Digits),
		Zoom:    Number(snap.Zoom, Digits) + "x",
		Offset:  Vec(snap.ShaderOffset, Digits),
		Raw:     Vec(snap.DragPos, Digits),
		Power:   Number(snap.Power, Digits),
	}
}

// Lines returns the readout as labelled lines.
func (r Readout) Lines() []string {
	return []string{
		fmt.Sprintf("c: %s", r.C),
		fmt.Sprintf("zoom: %s", r.Zoom),
		fmt.Sprintf("offset: %s", r.Offset),
		fmt.Sprintf("raw: %s", r.Raw),
		fmt.Sprintf("power: %s", r.Power),
	}
}

// Title is a one line summary suitable for a window title.
func (r Readout) Title() string {
	return fmt.Sprintf("%s  c=(%s)  zoom=%s", r.Variant, r.C, r.Zoom)
}

func Lines(snap viewer.Snapshot) []string {
	return NewReadout(snap).Lines()
}
