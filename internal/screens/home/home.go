// Package home is the start screen: scan a new question, resume the
// current one or browse favorites.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/router"
	"github.com/abhisek/examlens/internal/screen"
	favscreen "github.com/abhisek/examlens/internal/screens/favorites"
	"github.com/abhisek/examlens/internal/screens/study"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/ui/components"
	"github.com/abhisek/examlens/internal/ui/theme"
)

const titleArt = `┌─┐─┐ ┬┌─┐┌┬┐┬  ┌─┐┌┐┌┌─┐
├┤ ┌┴┬┘├─┤│││││  ├┤ │││└─┐
└─┘┴ └─┴ ┴┴ ┴┴─┘└─┘┘└┘└─┘`

// Options are the dependencies the home screen hands to the screens it
// opens.
type Options struct {
	Ctx       context.Context
	Machine   *session.Machine
	Favorites *favorites.Service
	OutputDir string
	Log       *logger.Logger
	// Offline is set when no provider is configured; scanning is disabled.
	Offline string
}

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	opts Options
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)
var _ screen.StatusProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	h := &HomeScreen{opts: opts}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) items() []components.MenuItem {
	st := h.opts.Machine.Snapshot()
	resume := ""
	if st.Problem != nil {
		resume = truncate(st.Problem.OriginalText, 40)
	}
	favCount := 0
	if h.opts.Favorites != nil {
		favCount = len(h.opts.Favorites.List())
	}

	return []components.MenuItem{
		{Label: "SCAN A QUESTION", Disabled: h.opts.Offline != "", Action: h.scan},
		{Label: "RESUME", Detail: resume, Disabled: st.Problem == nil, Action: h.resume},
		{Label: "FAVORITES", Detail: fmt.Sprintf("%d saved", favCount), Disabled: h.opts.Favorites == nil, Action: h.openFavorites},
		{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	}
}

func (h *HomeScreen) newStudy() screen.Screen {
	return study.New(h.opts.Ctx, h.opts.Machine, h.opts.Favorites, h.opts.OutputDir, h.opts.Log)
}

func (h *HomeScreen) scan() tea.Cmd {
	if err := h.opts.Machine.BeginScan(); err != nil {
		return nil
	}
	s := h.newStudy()
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) resume() tea.Cmd {
	if err := h.opts.Machine.Forward(); err != nil {
		return nil
	}
	s := h.newStudy()
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) openFavorites() tea.Cmd {
	if err := h.opts.Machine.OpenFavorites(); err != nil {
		return nil
	}
	s := favscreen.New(h.opts.Ctx, h.opts.Machine, h.opts.Favorites, h.opts.OutputDir)
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

// Resume rebuilds the menu when a screen above is popped.
func (h *HomeScreen) Resume() tea.Cmd {
	selected := h.menu.Selected
	h.menu = components.NewMenu(h.items())
	if selected < len(h.menu.Items) && !h.menu.Items[selected].Disabled {
		h.menu.Selected = selected
	}
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := width - 8
	if cw > 64 {
		cw = 64
	}

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(titleArt))
	sections = append(sections, theme.Subtitle.Width(cw).Render("Photograph a question. Explain your reasoning. Practice what you missed."))
	if h.opts.Offline != "" {
		sections = append(sections, theme.ErrorCard.Width(cw).Render("No content provider: "+h.opts.Offline))
	}
	sections = append(sections, theme.Card.Width(cw).Render(strings.TrimRight(h.menu.View(), "\n")))

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) Status() string {
	if h.opts.Favorites == nil {
		return ""
	}
	return fmt.Sprintf("★ %d", len(h.opts.Favorites.List()))
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
