package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/examlens/internal/ui/theme"
)

// Choice is a single-line option picker cycled with tab / shift+tab or
// left / right.
type Choice struct {
	Options  []string
	Selected int
}

// NewChoice creates a picker with the first option selected.
func NewChoice(options []string) Choice {
	return Choice{Options: options}
}

// Update handles cycling keys.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c, nil
	}
	switch kmsg.String() {
	case "tab", "right":
		c.Selected = (c.Selected + 1) % len(c.Options)
	case "shift+tab", "left":
		c.Selected = (c.Selected - 1 + len(c.Options)) % len(c.Options)
	}
	return c, nil
}

// Value returns the selected option, or "" when there are none.
func (c Choice) Value() string {
	if c.Selected < 0 || c.Selected >= len(c.Options) {
		return ""
	}
	return c.Options[c.Selected]
}

// View renders every option, highlighting the selected one.
func (c Choice) View() string {
	parts := make([]string, len(c.Options))
	for i, opt := range c.Options {
		if i == c.Selected {
			parts[i] = theme.Selected.Render("[" + opt + "]")
		} else {
			parts[i] = theme.StepPending.Render(" " + opt + " ")
		}
	}
	return strings.Join(parts, " ")
}
