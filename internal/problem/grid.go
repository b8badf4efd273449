package problem

import "fmt"

// GridSize is the fixed side length of a grid layout.
const GridSize = 3

// Grid is a 3x3 matrix of optional cells, used for table-style questions
// that render better as text than as an image.
type Grid [GridSize][GridSize]*string

// HasContent reports whether any cell is set.
func (g *Grid) HasContent() bool {
	if g == nil {
		return false
	}
	for _, row := range g {
		for _, cell := range row {
			if cell != nil {
				return true
			}
		}
	}
	return false
}

// Cell returns the text of a cell and whether it is set. Coordinates
// outside the grid report an unset cell.
func (g *Grid) Cell(row, col int) (string, bool) {
	if g == nil || row < 0 || row >= GridSize || col < 0 || col >= GridSize || g[row][col] == nil {
		return "", false
	}
	return *g[row][col], true
}

// GridFromRows builds a Grid from decoded JSON rows. Anything other than
// exactly three rows of three cells is an error.
func GridFromRows(rows [][]*string) (*Grid, error) {
	if rows == nil {
		return nil, nil
	}
	if len(rows) != GridSize {
		return nil, fmt.Errorf("grid has %d rows, want %d", len(rows), GridSize)
	}
	var g Grid
	for i, row := range rows {
		if len(row) != GridSize {
			return nil, fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), GridSize)
		}
		copy(g[i][:], row)
	}
	return &g, nil
}

// RenderPath is how a question's figure is displayed.
type RenderPath int

const (
	RenderNone RenderPath = iota
	RenderGrid
	RenderDiagram
)

func (p RenderPath) String() string {
	switch p {
	case RenderGrid:
		return "grid"
	case RenderDiagram:
		return "diagram"
	default:
		return "none"
	}
}

// PreferredRender picks the grid whenever it has content, then the diagram.
func PreferredRender(grid *Grid, diagram *Image) RenderPath {
	switch {
	case grid.HasContent():
		return RenderGrid
	case diagram != nil && len(diagram.Data) > 0:
		return RenderDiagram
	default:
		return RenderNone
	}
}
