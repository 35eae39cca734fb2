package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrSourceRegion is returned when a crop rectangle does not lie within the
// source image.
var ErrSourceRegion = errors.New("source region outside image bounds")

// ImageLoader gives read-only access to source images by path.
type ImageLoader interface {
	Load(path string) (image.Image, error)
}

// FileLoader decodes images from the filesystem and keeps them for reuse.
// It is safe for concurrent use.
type FileLoader struct {
	mu    sync.Mutex
	cache map[string]image.Image
}

func NewFileLoader() *FileLoader {
	return &FileLoader{cache: make(map[string]image.Image)}
}

func (l *FileLoader) Load(path string) (image.Image, error) {
	key := filepath.Clean(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.cache[key]; ok {
		return img, nil
	}
	img, err := ReadImage(key)
	if err != nil {
		return nil, err
	}
	l.cache[key] = img
	return img, nil
}

// ReadImage decodes the image at path. png, jpeg, gif, bmp, tiff and webp
// are supported.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Crop copies r out of img. r is given relative to the top left corner of
// img and must lie within it.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	b := img.Bounds()
	if r.Dx() < 0 || r.Dy() < 0 || !r.Add(b.Min).In(b) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrSourceRegion, r, b.Sub(b.Min))
	}
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		rowLen := r.Dx() * 4
		for y := range r.Dy() {
			i := src.PixOffset(b.Min.X+r.Min.X, b.Min.Y+r.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+rowLen], src.Pix[i:i+rowLen])
		}
		return out, nil
	}
	for y := range r.Dy() {
		for x := range r.Dx() {
			c := img.At(b.Min.X+r.Min.X+x, b.Min.Y+r.Min.Y+y)
			out.SetNRGBA(x, y, color.NRGBAModel.Convert(c).(color.NRGBA))
		}
	}
	return out, nil
}

// ToNRGBA returns img as a straight-alpha buffer anchored at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	out, _ := Crop(img, image.Rectangle{Max: img.Bounds().Size()})
	return out
}

// Format is an output encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "png"
	}
}

// FormatFromPath picks the encoder from the file extension; unknown
// extensions are written as png.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatPNG
	}
}

func EncodeImage(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// SaveImage writes img to filename, creating missing parent directories.
// An existing file is never replaced: the returned error then satisfies
// errors.Is(err, fs.ErrExist).
func SaveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img, FormatFromPath(filename)); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(filename)
		return err
	}
	return nil
}
