package viz

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const upperHalf = "▀"

// HalfBlocks converts a frame to terminal rows. Odd trailing rows are
// paired with black.
func HalfBlocks(img *image.RGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := color.RGBA{A: 255}
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			sb.WriteString(cell(top, bottom))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func cell(top, bottom color.RGBA) string {
	return lipgloss.NewStyle().
		Foreground(hex(top)).
		Background(hex(bottom)).
		Render(upperHalf)
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// TerminalSurface keeps the last presented frame as terminal text.
type TerminalSurface struct {
	view string
}

func NewTerminalSurface() *TerminalSurface { return &TerminalSurface{} }

func (s *TerminalSurface) Present(frame *image.RGBA) error {
	s.view = HalfBlocks(frame)
	return nil
}

func (s *TerminalSurface) View() string { return s.view }
