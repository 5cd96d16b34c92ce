package viewer

import (
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidValue = errors.New("invalid value")

func init() {
	gob.Register(&Edit{})
	gob.Register(&Reset{})
	gob.Register(&SelectVariant{})
	gob.Register(&Snapshot{})
}

// Field names a numeric value that can be edited directly.
type Field int

const (
	FieldZoom Field = iota
	FieldOffsetX
	FieldOffsetY
	FieldCX
	FieldCY
	FieldPower
	FieldIterations
)

var fieldNames = [...]string{
	FieldZoom:       "zoom",
	FieldOffsetX:    "offset.x",
	FieldOffsetY:    "offset.y",
	FieldCX:         "c.x",
	FieldCY:         "c.y",
	FieldPower:      "power",
	FieldIterations: "iterations",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

func ParseField(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func (f Field) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(fieldNames) {
		return nil, fmt.Errorf("unknown field %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Edit sets a field to an absolute value. Offsets and c are given in world space.
type Edit struct {
	Field Field   `json:"field"`
	Value float64 `json:"value"`
}

// Reset returns a field to its default.
type Reset struct {
	Field Field `json:"field"`
}

// SelectVariant switches the fractal and resets the view to its default state.
type SelectVariant struct {
	Name string `json:"name"`
}

// Snapshot is an immutable copy of the session state and its derived values.
type Snapshot struct {
	Variant      string     `json:"variant"`
	Dim          mgl64.Vec2 `json:"dim"`
	Scale        mgl64.Vec2 `json:"scale"`
	Zoom         float64    `json:"zoom"`
	Offset       mgl64.Vec2 `json:"offset"`
	DragPos      mgl64.Vec2 `json:"dragPos"`
	Power        float64    `json:"power"`
	Iterations   int32      `json:"iterations"`
	C            mgl64.Vec2 `json:"c"`
	ShaderOffset mgl64.Vec2 `json:"shaderOffset"`
	Panning      bool       `json:"panning"`
	Dragging     bool       `json:"dragging"`
}
