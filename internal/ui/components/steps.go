package components

import (
	"strings"

	"github.com/abhisek/examlens/internal/ui/theme"
)

// Steps renders a breadcrumb of workflow steps with the current one
// highlighted and earlier ones marked done.
type Steps struct {
	Labels  []string
	Current int
}

// NewSteps creates a breadcrumb.
func NewSteps(labels []string, current int) Steps {
	return Steps{Labels: labels, Current: current}
}

// View renders the breadcrumb.
func (s Steps) View() string {
	parts := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		switch {
		case i < s.Current:
			parts[i] = theme.StepDone.Render("✓ " + l)
		case i == s.Current:
			parts[i] = theme.StepActive.Render("● " + l)
		default:
			parts[i] = theme.StepPending.Render("○ " + l)
		}
	}
	return strings.Join(parts, theme.StepPending.Render("  ›  "))
}
