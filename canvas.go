package tilebuilder

import (
	"image"
	"image/color"
)

// Canvas is the mutable pixel buffer of one build task.
// Pixels are stored with straight (non-premultiplied) alpha so that pastes
// copy source channels bit for bit.
type Canvas struct {
	Img *image.NRGBA
}

// NewCanvas returns a w x h canvas filled with bg.
func NewCanvas(w, h int, bg color.NRGBA) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	return &Canvas{Img: img}
}

func (c *Canvas) Width() int { return c.Img.Rect.Dx() }

func (c *Canvas) Height() int { return c.Img.Rect.Dy() }

func (c *Canvas) Size() image.Point { return c.Img.Rect.Size() }

// Image exposes the buffer for encoding.
func (c *Canvas) Image() image.Image { return c.Img }

// region copies r out of the canvas into a new buffer anchored at the origin.
func (c *Canvas) region(r image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	rowLen := r.Dx() * 4
	for y := range r.Dy() {
		src := c.Img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+rowLen], c.Img.Pix[src:src+rowLen])
	}
	return out
}

// putRegion writes buf back into the canvas with its origin at at.
func (c *Canvas) putRegion(buf *image.NRGBA, at image.Point) {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	rowLen := w * 4
	for y := range h {
		dst := c.Img.PixOffset(at.X, at.Y+y)
		copy(c.Img.Pix[dst:dst+rowLen], buf.Pix[y*buf.Stride:y*buf.Stride+rowLen])
	}
}
