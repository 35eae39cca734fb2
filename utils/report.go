package utils

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// TileReport summarizes one tile of a built texture.
type TileReport struct {
	Index   int
	Rect    image.Rectangle
	Visible int // pixels with non-zero alpha
	Palette []colorful.Color
	// Luminance statistics over visible pixels.
	LumaMean   float64
	LumaStdDev float64
}

// InspectTiles splits img into a cols x rows grid and reports each tile.
// The grid must divide the image evenly.
func InspectTiles(img image.Image, cols, rows, k int, method PaletteMethod) ([]TileReport, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("tile counts must be positive, got %dx%d", cols, rows)
	}
	src := ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w%cols != 0 || h%rows != 0 {
		return nil, fmt.Errorf("image size %dx%d is not divisible into %dx%d tiles", w, h, cols, rows)
	}
	tw, th := w/cols, h/rows

	reports := make([]TileReport, 0, cols*rows)
	for i := range cols * rows {
		r := image.Rect((i%cols)*tw, (i/cols)*th, (i%cols+1)*tw, (i/cols+1)*th)
		tile := src.SubImage(r).(*image.NRGBA)

		var luma []float64
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := tile.NRGBAAt(x, y)
				if c.A == 0 {
					continue
				}
				col, _ := colorful.MakeColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
				luma = append(luma, Luminance(col))
			}
		}

		rep := TileReport{Index: i, Rect: r, Visible: len(luma)}
		switch len(luma) {
		case 0:
		case 1:
			rep.LumaMean = luma[0]
		default:
			rep.LumaMean, rep.LumaStdDev = stat.MeanStdDev(luma, nil)
		}
		rep.Palette = ExtractPalette(tile, k, method)
		SortPaletteByBrightness(rep.Palette)
		reports = append(reports, rep)
	}
	return reports, nil
}

// WriteReport prints reports as one line per tile.
func WriteReport(w io.Writer, reports []TileReport) error {
	for _, r := range reports {
		hex := make([]string, len(r.Palette))
		for i, c := range r.Palette {
			hex[i] = c.Hex()
		}
		_, err := fmt.Fprintf(w, "tile %d %v visible=%d luma=%.3f±%.3f palette=[%s]\n",
			r.Index, r.Rect, r.Visible, r.LumaMean, r.LumaStdDev, strings.Join(hex, " "))
		if err != nil {
			return err
		}
	}
	return nil
}
