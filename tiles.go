package tilebuilder

import (
	"fmt"
	"image"
)

// AllTiles selects every tile of the grid.
const AllTiles = -1

// TileGrid partitions a canvas into Cols x Rows equal tiles, indexed row-major
// from the top left tile (0).
//
// The grid reads the canvas size on every call. After a Scale the grid may no
// longer divide the canvas evenly until the next SetTiles.
type TileGrid struct {
	Cols, Rows int
	canvas     *Canvas
}

func NewTileGrid(c *Canvas) *TileGrid {
	return &TileGrid{Cols: 1, Rows: 1, canvas: c}
}

// TileSize returns the size of one tile for the current canvas.
func (g *TileGrid) TileSize() image.Point {
	return image.Pt(g.canvas.Width()/g.Cols, g.canvas.Height()/g.Rows)
}

// TileRect returns the pixel rectangle of tile index (max exclusive).
func (g *TileGrid) TileRect(index int) image.Rectangle {
	size := g.TileSize()
	origin := image.Pt((index%g.Cols)*size.X, (index/g.Cols)*size.Y)
	return image.Rectangle{Min: origin, Max: origin.Add(size)}
}

// Count is the number of tiles in the grid.
func (g *TileGrid) Count() int { return g.Cols * g.Rows }

// Resolve expands a tile selector into tile indices. AllTiles yields every
// index; any other value must be a valid index.
func (g *TileGrid) Resolve(selector int) ([]int, error) {
	if selector == AllTiles {
		out := make([]int, g.Count())
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	if selector < 0 || selector >= g.Count() {
		return nil, fmt.Errorf("%w: %d (grid is %dx%d)", ErrInvalidTileIndex, selector, g.Cols, g.Rows)
	}
	return []int{selector}, nil
}

// Set replaces the grid dimensions. The canvas must divide evenly.
func (g *TileGrid) Set(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("%w: tile counts must be positive, got %dx%d", ErrInvalidTileGrid, cols, rows)
	}
	w, h := g.canvas.Width(), g.canvas.Height()
	if w%cols != 0 {
		return fmt.Errorf("%w: image width (%d) is not divisible by the number of tiles (%d)", ErrInvalidTileGrid, w, cols)
	}
	if h%rows != 0 {
		return fmt.Errorf("%w: image height (%d) is not divisible by the number of tiles (%d)", ErrInvalidTileGrid, h, rows)
	}
	g.Cols, g.Rows = cols, rows
	return nil
}
