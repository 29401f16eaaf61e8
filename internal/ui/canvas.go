package ui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/cellbuf"
)

// Canvas is a lightweight helper around cellbuf.Screen that lets us compose
// lipgloss-rendered strings into a cell buffer before turning the frame back
// into a string for Bubble Tea.
type Canvas struct {
	screen *cellbuf.Screen
	writer *cellbuf.ScreenWriter
	width  int
	height int
}

func NewCanvas(width, height int) *Canvas {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	screen := cellbuf.NewScreen(io.Discard, width, height, &cellbuf.ScreenOptions{
		ShowCursor: false,
		AltScreen:  false,
	})
	return &Canvas{
		screen: screen,
		writer: cellbuf.NewScreenWriter(screen),
		width:  width,
		height: height,
	}
}

// DrawStringAt writes the provided block starting at x,y.
func (c *Canvas) DrawStringAt(x, y int, content string) {
	if content == "" || c == nil || c.writer == nil {
		return
	}
	c.drawBlockAt(x, y, splitLines(content))
}

// bottomRightOverlay anchors the block to the bottom-right corner, keeping
// bottomMargin rows free for the footer.
func (c *Canvas) bottomRightOverlay(overlay string, padding, bottomMargin int) {
	lines := splitLines(overlay)
	if len(lines) == 0 || c == nil {
		return
	}
	startY := max(c.height-len(lines)-padding-bottomMargin, 0)
	startX := max(c.width-maxLineWidth(lines)-padding, 0)
	c.drawBlockAt(startX, startY, lines)
}

func (c *Canvas) drawBlockAt(x, y int, lines []string) {
	x, y = max(x, 0), max(y, 0)
	for i, line := range lines {
		row := y + i
		if row >= c.height {
			break
		}
		if line == "" {
			continue
		}
		c.writer.PrintCropAt(x, row, line, "")
	}
}

// Render returns the composed frame as a newline-delimited string.
func (c *Canvas) Render() string {
	if c == nil || c.screen == nil {
		return ""
	}
	raw := cellbuf.Render(c.screen)
	_ = c.screen.Close()
	return strings.ReplaceAll(raw, "\r\n", "\n")
}

// overlayBottomRight draws each block over base, stacked upwards from the
// bottom-right corner.
func overlayBottomRight(base string, width, height, bottomMargin int, blocks ...string) string {
	if len(blocks) == 0 || width <= 0 || height <= 0 {
		return base
	}
	canvas := NewCanvas(width, height)
	canvas.DrawStringAt(0, 0, base)
	offset := bottomMargin
	for _, block := range blocks {
		if block == "" {
			continue
		}
		canvas.bottomRightOverlay(block, 1, offset)
		offset += lipgloss.Height(block)
	}
	return canvas.Render()
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

func maxLineWidth(lines []string) int {
	widest := 0
	for _, line := range lines {
		widest = max(widest, lipgloss.Width(line))
	}
	return widest
}
