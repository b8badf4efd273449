package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/ui/theme"
)

const minCellWidth = 5

// RenderGrid draws a 3x3 grid. Empty cells render as a dim dot. cellWidth
// is the inner width of each cell.
func RenderGrid(g *problem.Grid, cellWidth int) string {
	if g == nil {
		return ""
	}
	if cellWidth < minCellWidth {
		cellWidth = minCellWidth
	}

	rows := make([]string, problem.GridSize)
	for r := 0; r < problem.GridSize; r++ {
		cells := make([]string, problem.GridSize)
		for c := 0; c < problem.GridSize; c++ {
			v, ok := g.Cell(r, c)
			if !ok {
				cells[c] = theme.GridEmpty.Width(cellWidth).Render("·")
				continue
			}
			cells[c] = theme.GridCell.Width(cellWidth).Render(truncateCell(v, cellWidth))
		}
		rows[r] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func truncateCell(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// RenderDiagramCard describes a generated diagram. Terminals cannot show
// the bitmap inline, so the card names its format, size and where it was
// saved, if anywhere.
func RenderDiagramCard(img *problem.Image, savedAt string, width int) string {
	if img == nil {
		return ""
	}
	lines := []string{
		theme.Section.Render("Diagram"),
		fmt.Sprintf("%s, %s", img.MIMEType, humanBytes(len(img.Data))),
	}
	if savedAt != "" {
		lines = append(lines, theme.Hint.Render("saved to "+savedAt))
	} else {
		lines = append(lines, theme.Hint.Render("press s to save"))
	}
	w := width - 4
	if w < 20 {
		w = 20
	}
	return theme.Card.Width(w).Render(strings.Join(lines, "\n"))
}

// RenderVisual picks the native grid over a diagram, and renders nothing
// when neither exists.
func RenderVisual(g *problem.Grid, img *problem.Image, savedAt string, width int) string {
	switch problem.PreferredRender(g, img) {
	case problem.RenderGrid:
		return RenderGrid(g, gridCellWidth(width))
	case problem.RenderDiagram:
		return RenderDiagramCard(img, savedAt, width)
	default:
		return ""
	}
}

func gridCellWidth(width int) int {
	w := (width - 2*problem.GridSize) / problem.GridSize
	if w > 16 {
		w = 16
	}
	return w
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
