package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Framebuffer is a render target with an optional color attachment and an
// optional depth attachment. Drawing into it is the caller's exclusive
// right for the duration of a render call.
type Framebuffer struct {
	Width  int
	Height int

	// Pixels is the row-major color attachment, nil for depth-only targets.
	Pixels []color.RGBA
	// Depth is the depth attachment, nil for color-only targets.
	Depth *ZBuffer
}

// Default depth range until a renderer syncs it to its camera.
const (
	defaultNear = 0.1
	defaultFar  = 100
)

// NewFramebuffer returns a target with both attachments.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
		Depth:  NewZBuffer(width, height, defaultNear, defaultFar),
	}
}

// NewColorFramebuffer returns a target without depth, suitable for overlays.
func NewColorFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// NewDepthFramebuffer returns a depth-only target for shadow or pre-pass
// rendering.
func NewDepthFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Depth:  NewZBuffer(width, height, defaultNear, defaultFar),
	}
}

// Resize reallocates both attachments, keeping whichever were present.
func (fb *Framebuffer) Resize(width, height int) {
	fb.Width, fb.Height = width, height
	if fb.Pixels != nil {
		fb.Pixels = make([]color.RGBA, width*height)
	}
	if fb.Depth != nil {
		fb.Depth.Resize(width, height)
	}
}

// Clear fills the color attachment and resets depth.
func (fb *Framebuffer) Clear(c color.RGBA) {
	if n := len(fb.Pixels); n > 0 {
		fb.Pixels[0] = c
		for i := 1; i < n; i *= 2 {
			copy(fb.Pixels[i:], fb.Pixels[:i])
		}
	}
	if fb.Depth != nil {
		fb.Depth.Clear()
	}
}

func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if fb.Pixels == nil || x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns transparent black outside the target.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if fb.Pixels == nil || x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws with Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage copies the color attachment into an image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for i, p := range fb.Pixels {
		img.SetRGBA(i%fb.Width, i/fb.Width, p)
	}
	return img
}

// DepthImage renders the depth attachment as greyscale, near is black.
func (fb *Framebuffer) DepthImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, fb.Width, fb.Height))
	if fb.Depth == nil {
		return img
	}
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetGray(x, y, color.Gray{Y: unitToByte(float64(fb.Depth.GetNormalized(x, y)))})
		}
	}
	return img
}

// SavePNG writes the color attachment to path.
func (fb *Framebuffer) SavePNG(path string) error {
	if fb.Pixels == nil {
		return ErrNoColorAttachment
	}
	return writePNG(path, fb.ToImage())
}

// SaveDepthPNG writes the depth attachment to path.
func (fb *Framebuffer) SaveDepthPNG(path string) error {
	if fb.Depth == nil {
		return ErrNoDepthAttachment
	}
	return writePNG(path, fb.DepthImage())
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
