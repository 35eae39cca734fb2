package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor", "":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q", s)
}

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// Luminance is the relative luminance of c (Rec. 709 weights on linear RGB).
func Luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// SortPaletteByBrightness orders colors from darkest to brightest.
func SortPaletteByBrightness(palette []colorful.Color) {
	slices.SortFunc(palette, func(a, b colorful.Color) int {
		ya, yb := Luminance(a), Luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

// ExtractPalette picks up to k representative colors of img. Fully
// transparent pixels are ignored. An image with no visible pixel has an
// empty palette.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []colorful.Color {
	if k <= 0 {
		return nil
	}
	if method == PaletteMethodKMeans {
		if p := extractKMeansPalette(img, k); len(p) != 0 {
			return p
		}
	}
	return extractDominantPalette(img, k)
}

func extractDominantPalette(img image.Image, k int) []colorful.Color {
	if !hasVisiblePixel(img) {
		return nil
	}
	candidates := dominantcolor.FindWeight(img, max(24, k*8))
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(color.RGBA{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B, A: 255})
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: max(c.Weight, 1e-6)})
	}
	return selectDiverseColors(weighted, k)
}

func extractKMeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	// Subsample large tiles to keep kmeans tractable.
	const maxSamples = 12000
	step := 1
	if n := b.Dx() * b.Dy(); n > maxSamples {
		step = int(math.Sqrt(float64(n)/maxSamples)) + 1
	}

	var dataset clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k*4, len(dataset)))
	if err != nil {
		return nil
	}
	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		weighted = append(weighted, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return selectDiverseColors(weighted, k)
}

// selectDiverseColors seeds with the heaviest candidate, then greedily adds
// the candidate farthest (in Lab) from everything picked so far, biased
// towards heavy candidates.
func selectDiverseColors(cands []weightedColor, k int) []colorful.Color {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	seed := 0
	for i, c := range cands {
		if c.Weight > maxW {
			maxW, seed = c.Weight, i
		}
	}

	picked := []int{seed}
	used := make([]bool, len(cands))
	used[seed] = true
	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if used[i] {
				continue
			}
			d := math.MaxFloat64
			for _, p := range picked {
				d = min(d, c.Col.DistanceLab(cands[p].Col))
			}
			score := d * (0.55 + 0.45*math.Sqrt(c.Weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		picked = append(picked, best)
	}

	out := make([]colorful.Color, len(picked))
	for i, p := range picked {
		out[i] = cands[p].Col
	}
	return out
}

func hasVisiblePixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return true
			}
		}
	}
	return false
}
