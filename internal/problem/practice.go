package problem

import "fmt"

// Difficulty is the three-level ordinal scale of practice questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the levels in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Ordinal returns 1..3, or 0 for an unknown level.
func (d Difficulty) Ordinal() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Valid reports whether d is one of the three levels.
func (d Difficulty) Valid() bool { return d.Ordinal() > 0 }

// ParseDifficulty validates a level name.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Practice is one variant question generated from weak points.
type Practice struct {
	Question    string     `json:"question"`
	Solution    []string   `json:"solution"`
	Answer      string     `json:"answer"`
	Difficulty  Difficulty `json:"difficulty"`
	ProblemType string     `json:"problem_type,omitempty"`
	Diagram     *Image     `json:"diagram,omitempty"`
	GridData    *Grid      `json:"grid_data,omitempty"`
}

// Render returns the preferred display path for the practice item.
func (p *Practice) Render() RenderPath {
	return PreferredRender(p.GridData, p.Diagram)
}
