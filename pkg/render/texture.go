package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"os"
)

// WrapMode controls UVs outside [0, 1].
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClamp
)

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterBilinear
)

// Texture is an RGBA image sampled by fragment shaders.
type Texture struct {
	Width, Height int
	Pixels        []Color
	WrapU, WrapV  WrapMode
	Filter        FilterMode
}

func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pixels: make([]Color, width*height)}
}

// LoadTexture decodes a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage copies img into a texture.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := NewTexture(b.Dx(), b.Dy())
	for y := range tex.Height {
		for x := range tex.Width {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			tex.Pixels[y*tex.Width+x] = Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
		}
	}
	return tex
}

// NewCheckerTexture returns a checkerboard with cells of size pixels.
func NewCheckerTexture(width, height, size int, a, b Color) *Texture {
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			c := a
			if (x/size+y/size)%2 == 1 {
				c = b
			}
			tex.Pixels[y*width+x] = c
		}
	}
	return tex
}

// At returns the texel at (x, y) after applying the wrap modes.
func (t *Texture) At(x, y int) Color {
	return t.Pixels[wrapIndex(y, t.Height, t.WrapV)*t.Width+wrapIndex(x, t.Width, t.WrapU)]
}

// Sample looks up (u, v) with v = 0 at the bottom of the image.
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}
	u = wrapUnit(u, t.WrapU)
	v = 1 - wrapUnit(v, t.WrapV)

	fx := u * float64(t.Width)
	fy := v * float64(t.Height)
	if t.Filter == FilterNearest {
		return t.At(min(int(fx), t.Width-1), min(int(fy), t.Height-1))
	}

	fx -= 0.5
	fy -= 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)
	top := lerpColor(t.At(ix, iy), t.At(ix+1, iy), tx)
	bot := lerpColor(t.At(ix, iy+1), t.At(ix+1, iy+1), tx)
	return lerpColor(top, bot, ty)
}

func wrapUnit(c float64, mode WrapMode) float64 {
	if mode == WrapClamp {
		return math.Max(0, math.Min(1, c))
	}
	return c - math.Floor(c)
}

func wrapIndex(i, n int, mode WrapMode) int {
	if mode == WrapClamp {
		return max(0, min(n-1, i))
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
