package tilebuilder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"math"
	"math/big"
	"strconv"

	"github.com/setanarut/tilebuilder/utils"
)

// ImageBuilder applies operations to one canvas and its tile grid.
type ImageBuilder struct {
	Canvas *Canvas
	Tiles  *TileGrid
	Loader utils.ImageLoader
}

// NewImageBuilder creates a canvas of the given size filled with bg and a
// 1x1 tile grid. Source images for pastes are read through loader.
func NewImageBuilder(size image.Point, bg color.NRGBA, loader utils.ImageLoader) (*ImageBuilder, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", size.X, size.Y)
	}
	c := NewCanvas(size.X, size.Y, bg)
	return &ImageBuilder{
		Canvas: c,
		Tiles:  NewTileGrid(c),
		Loader: loader,
	}, nil
}

// ApplyOperations runs ops in order and stops at the first failure, which is
// returned as an *OperationError. ctx is checked before every operation.
func (b *ImageBuilder) ApplyOperations(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return &OperationError{Index: i, Kind: kindOf(op), Err: err}
		}
		if err := b.Apply(op); err != nil {
			return &OperationError{Index: i, Kind: kindOf(op), Err: err}
		}
	}
	return nil
}

// Apply runs a single operation.
func (b *ImageBuilder) Apply(op Operation) error {
	switch op := op.(type) {
	case Paste:
		return b.pasteFile(op)
	case *Paste:
		return b.pasteFile(*op)
	case Offset:
		return b.Offset(op.DX, op.DY, op.Tile)
	case *Offset:
		return b.Offset(op.DX, op.DY, op.Tile)
	case SetTiles:
		return b.Tiles.Set(op.Cols, op.Rows)
	case *SetTiles:
		return b.Tiles.Set(op.Cols, op.Rows)
	case Scale:
		return b.Scale(op.SX, op.SY)
	case *Scale:
		return b.Scale(op.SX, op.SY)
	}
	return fmt.Errorf("%w: %s", ErrUnknownOperationType, kindOf(op))
}

func (b *ImageBuilder) pasteFile(op Paste) error {
	if b.Loader == nil {
		return errors.New("no image loader configured")
	}
	img, err := b.Loader.Load(op.Source)
	if err != nil {
		return err
	}
	src, err := utils.Crop(img, op.SourceRect)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Source, err)
	}
	return b.Paste(src, op.Target, op.Tile)
}

// Paste overwrites the selected tiles with src placed at target (tile-local).
func (b *ImageBuilder) Paste(src *image.NRGBA, target image.Point, tile int) error {
	indices, err := b.Tiles.Resolve(tile)
	if err != nil {
		return err
	}
	size := src.Rect.Size()
	for _, i := range indices {
		r := b.Tiles.TileRect(i)
		local := image.Rectangle{Max: r.Size()}
		dst := image.Rectangle{Min: target, Max: target.Add(size)}.Intersect(local)
		if dst.Empty() {
			continue
		}
		sp := src.Rect.Min.Add(dst.Min.Sub(target))
		rowLen := dst.Dx() * 4
		for y := range dst.Dy() {
			si := src.PixOffset(sp.X, sp.Y+y)
			di := b.Canvas.Img.PixOffset(r.Min.X+dst.Min.X, r.Min.Y+dst.Min.Y+y)
			copy(b.Canvas.Img.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
		}
	}
	return nil
}

// Offset shifts the selected tiles by (dx, dy) with wrap-around: a pixel at
// (x, y) moves to ((x+dx) mod w, (y+dy) mod h).
func (b *ImageBuilder) Offset(dx, dy, tile int) error {
	indices, err := b.Tiles.Resolve(tile)
	if err != nil {
		return err
	}
	for _, i := range indices {
		r := b.Tiles.TileRect(i)
		w, h := r.Dx(), r.Dy()
		if w == 0 || h == 0 {
			continue
		}
		sx, sy := mod(dx, w), mod(dy, h)
		buf := b.Canvas.region(r)
		out := image.NewNRGBA(buf.Rect)
		for y := range h {
			srcRow := buf.Pix[y*buf.Stride : y*buf.Stride+w*4]
			ny := (y + sy) % h
			dstRow := out.Pix[ny*out.Stride : ny*out.Stride+w*4]
			copy(dstRow[sx*4:], srcRow[:(w-sx)*4])
			copy(dstRow[:sx*4], srcRow[(w-sx)*4:])
		}
		b.Canvas.putRegion(out, r.Min)
	}
	return nil
}

// Scale resizes the canvas by (sx, sy) using nearest-neighbour sampling.
// Both scaled dimensions must be exact integers. The tile grid is left
// unchanged.
func (b *ImageBuilder) Scale(sx, sy float64) error {
	w, h := b.Canvas.Width(), b.Canvas.Height()
	nw, err := scaledDim("width", w, sx)
	if err != nil {
		return err
	}
	nh, err := scaledDim("height", h, sy)
	if err != nil {
		return err
	}

	src := b.Canvas.Img
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	for y := range nh {
		srcY := (2*y + 1) * h / (2 * nh)
		for x := range nw {
			srcX := (2*x + 1) * w / (2 * nw)
			si := src.PixOffset(srcX, srcY)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	b.Canvas.Img = dst
	return nil
}

// scaledDim returns n*f, computed exactly from the shortest decimal form of f,
// so 10 * 0.1 is 1 while 32 * 0.3 is still rejected.
func scaledDim(name string, n int, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, fmt.Errorf("%w: %s factor %g", ErrInvalidScale, name, f)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		return 0, fmt.Errorf("%w: %s factor %g", ErrInvalidScale, name, f)
	}
	r.Mul(r, new(big.Rat).SetInt64(int64(n)))
	if !r.IsInt() {
		return 0, fmt.Errorf("%w: the scaled image %s is not an integer (%d * %g = %s)",
			ErrNonIntegerScaledSize, name, n, f, r.FloatString(4))
	}
	v := r.Num()
	if v.Sign() <= 0 || !v.IsInt64() || v.Int64() > math.MaxInt32 {
		return 0, fmt.Errorf("%w: scaled image %s %s out of range", ErrInvalidScale, name, v)
	}
	return int(v.Int64()), nil
}

// Save writes the canvas to output. Missing directories are created; an
// existing file is never replaced.
func (b *ImageBuilder) Save(output string) error {
	err := utils.SaveImage(b.Canvas.Image(), output)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrOutputAlreadyExists, output)
	}
	return err
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
