package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is the pixel type of framebuffers and textures.
type Color = color.RGBA

var (
	ColorBlack = Color{R: 0, G: 0, B: 0, A: 255}
	ColorWhite = Color{R: 255, G: 255, B: 255, A: 255}
	ColorRed   = Color{R: 255, G: 0, B: 0, A: 255}
	ColorGreen = Color{R: 0, G: 255, B: 0, A: 255}
	ColorBlue  = Color{R: 0, G: 0, B: 255, A: 255}
	ColorGray  = Color{R: 128, G: 128, B: 128, A: 255}
)

func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ParseRGB parses "r,g,b" with components in 0..255.
func ParseRGB(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("color %q: want r,g,b", s)
	}
	var c [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		c[i] = uint8(v)
	}
	return RGB(c[0], c[1], c[2]), nil
}

func lerpColor(a, b Color, t float64) Color {
	l := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return Color{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

// MultiplyColor scales RGB by intensity, saturating at 255. Alpha is kept.
func MultiplyColor(c Color, intensity float64) Color {
	m := func(x uint8) uint8 {
		return uint8(math.Min(255, float64(x)*intensity))
	}
	return Color{R: m(c.R), G: m(c.G), B: m(c.B), A: c.A}
}

// ModulateColor multiplies two colors channel by channel.
func ModulateColor(a, b Color) Color {
	m := func(x, y uint8) uint8 {
		return uint8(int(x) * int(y) / 255)
	}
	return Color{R: m(a.R, b.R), G: m(a.G, b.G), B: m(a.B, b.B), A: m(a.A, b.A)}
}
