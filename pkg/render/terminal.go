package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw writes the color attachment into area of scr. Each terminal cell
// shows two framebuffer rows as an upper half block: the foreground is the
// top pixel and the background the bottom one.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := (row - area.Min.Y) * 2
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(x, top)),
					Bg: cellColor(fb.GetPixel(x, top+1)),
				},
			})
		}
	}
}

func cellColor(c Color) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// TerminalRenderer presents framebuffers on a terminal.
type TerminalRenderer struct {
	term          *uv.Terminal
	width, height int
}

// NewTerminalRenderer targets a width x height cell region of term.
func NewTerminalRenderer(term *uv.Terminal, width, height int) *TerminalRenderer {
	return &TerminalRenderer{term: term, width: width, height: height}
}

// FramebufferSize is the pixel size that fills the terminal: one column per
// cell, two rows per cell.
func (r *TerminalRenderer) FramebufferSize() (width, height int) {
	return r.width, r.height * 2
}

// Render copies fb into the terminal's back buffer.
func (r *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(r.term, uv.Rect(0, 0, r.width, r.height))
}

// Flush sends pending changes to the terminal.
func (r *TerminalRenderer) Flush() error {
	return r.term.Display()
}
