package tilebuilder

import (
	"image"
)

// Operation type tags.
const (
	KindPaste    = "paste"
	KindOffset   = "offset"
	KindSetTiles = "set_tiles"
	KindScale    = "scale"
)

// Operation is one step of a build task. The set of operations is closed:
// Paste, Offset, SetTiles and Scale.
type Operation interface {
	Kind() string
	operation()
}

// Paste copies SourceRect of the image at Source into the selected tiles,
// with its top left corner at Target in tile-local coordinates. Pixels are
// overwritten, not blended, and anything past the tile edge is clipped.
type Paste struct {
	Source     string
	SourceRect image.Rectangle
	Target     image.Point
	Tile       int
}

// Offset shifts the selected tiles circularly by (DX, DY).
type Offset struct {
	DX, DY int
	Tile   int
}

// SetTiles changes the tile grid to Cols x Rows.
type SetTiles struct {
	Cols, Rows int
}

// Scale resizes the whole canvas by (SX, SY) with nearest-neighbour sampling.
type Scale struct {
	SX, SY float64
}

func (Paste) Kind() string    { return KindPaste }
func (Offset) Kind() string   { return KindOffset }
func (SetTiles) Kind() string { return KindSetTiles }
func (Scale) Kind() string    { return KindScale }

func (Paste) operation()    {}
func (Offset) operation()   {}
func (SetTiles) operation() {}
func (Scale) operation()    {}

func kindOf(op Operation) string {
	if op == nil {
		return "<nil>"
	}
	return op.Kind()
}
