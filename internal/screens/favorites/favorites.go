// Package favorites lists the learner's saved practice questions.
package favorites

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/router"
	"github.com/abhisek/examlens/internal/screen"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/ui/components"
	"github.com/abhisek/examlens/internal/ui/layout"
	"github.com/abhisek/examlens/internal/ui/theme"
)

// ExportName is the file written by the export key.
const ExportName = "favorites.json"

// FavoritesScreen browses, removes and exports favorites.
type FavoritesScreen struct {
	ctx     context.Context
	machine *session.Machine
	favs    *favorites.Service
	outDir  string

	items    []favorites.Favorite
	selected int
	expanded bool
	notice   string
	errMsg   string
}

var _ screen.Screen = (*FavoritesScreen)(nil)
var _ screen.KeyHintProvider = (*FavoritesScreen)(nil)

// New creates a FavoritesScreen.
func New(ctx context.Context, machine *session.Machine, favs *favorites.Service, outDir string) *FavoritesScreen {
	return &FavoritesScreen{ctx: ctx, machine: machine, favs: favs, outDir: outDir, items: favs.List()}
}

func (s *FavoritesScreen) Init() tea.Cmd {
	return nil
}

func (s *FavoritesScreen) Title() string {
	return "Favorites"
}

func (s *FavoritesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Solution"},
		{Key: "D", Description: "Remove"},
		{Key: "X", Description: "Export"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *FavoritesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "esc":
		_ = s.machine.Back()
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
			s.expanded = false
		}
	case "down", "j":
		if s.selected < len(s.items)-1 {
			s.selected++
			s.expanded = false
		}
	case "enter":
		s.expanded = !s.expanded
	case "d":
		s.remove()
	case "x":
		s.export()
	}
	return s, nil
}

func (s *FavoritesScreen) remove() {
	if s.selected >= len(s.items) {
		return
	}
	if _, err := s.favs.Remove(s.ctx, s.items[s.selected].ID); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.items = s.favs.List()
	if s.selected >= len(s.items) && s.selected > 0 {
		s.selected--
	}
	s.expanded = false
	s.notice = "Removed"
}

func (s *FavoritesScreen) export() {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		s.errMsg = err.Error()
		return
	}
	path := filepath.Join(s.outDir, ExportName)
	f, err := os.Create(path)
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	defer f.Close()
	if err := s.favs.Export(f); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.notice = "Exported to " + path
}

func (s *FavoritesScreen) View(width, height int) string {
	if len(s.items) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No favorites yet. Press F on a practice question to save it.")
	}

	inner := width - 6
	var b strings.Builder
	b.WriteString("\n")
	for i, f := range s.items {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		diff := theme.Difficulty[string(f.Difficulty)]
		line := fmt.Sprintf("%s%s  %s  %s", prefix,
			f.FavoritedAt.Local().Format("Jan 02"),
			diff.Render(fmt.Sprintf("%-6s", f.Difficulty)),
			style.Render(oneLine(f.Question, inner-20)))
		b.WriteString("  " + line + "\n")

		if i == s.selected && s.expanded {
			b.WriteString(detail(f, inner))
		}
	}
	if s.errMsg != "" {
		b.WriteString("\n  " + theme.ErrorCard.Render(s.errMsg) + "\n")
	}
	if s.notice != "" {
		b.WriteString("\n  " + theme.Hint.Render(s.notice) + "\n")
	}
	return b.String()
}

func detail(f favorites.Favorite, width int) string {
	var b strings.Builder
	b.WriteString(layout.Wrap(theme.Body.Bold(true), f.Question, width) + "\n")
	if v := components.RenderVisual(f.GridData, f.Diagram, "", width); v != "" {
		b.WriteString(v + "\n")
	}
	for i, step := range f.Solution {
		b.WriteString(layout.Wrap(theme.Body, fmt.Sprintf("%d. %s", i+1, step), width) + "\n")
	}
	b.WriteString(theme.Correct.Render("Answer: ") + theme.Body.Render(f.Answer) + "\n")

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	for i, l := range lines {
		lines[i] = "      " + l
	}
	return "\n" + strings.Join(lines, "\n") + "\n\n"
}

func oneLine(s string, n int) string {
	if n < 10 {
		n = 10
	}
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
