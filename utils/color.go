package utils

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor reads a background colour: "#rgb", "#rgba", "#rrggbb",
// "#rrggbbaa" or a CSS colour name. Colours without alpha are opaque.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		name := strings.ToLower(s)
		if name == "transparent" {
			return color.NRGBA{}, nil
		}
		c, ok := colornames.Map[name]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
		}
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}

	var rgb, alpha string
	switch len(s) {
	case 4, 7:
		rgb = s
	case 5:
		rgb, alpha = s[:4], s[4:]+s[4:]
	case 9:
		rgb, alpha = s[:7], s[7:]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	col, err := colorful.Hex(rgb)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	out := color.NRGBA{R: r, G: g, B: b, A: 255}
	if alpha != "" {
		a, err := strconv.ParseUint(alpha, 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color alpha %q: %w", s, err)
		}
		out.A = uint8(a)
	}
	return out, nil
}
