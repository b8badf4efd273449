// Package study is the interactive scan → reason → compare → practice
// screen. It renders the session machine's snapshot and runs every
// pipeline operation as a tea.Cmd.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/media"
	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/router"
	"github.com/abhisek/examlens/internal/screen"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/ui/components"
	"github.com/abhisek/examlens/internal/ui/layout"
)

// StudyScreen implements screen.Screen for one study session.
type StudyScreen struct {
	ctx     context.Context
	machine *session.Machine
	favs    *favorites.Service
	outDir  string
	log     *logger.Logger

	paths     components.TextInput
	subject   components.Choice
	reasoning components.TextInput
	spinner   spinner.Model

	pending     bool
	practiceIdx int
	reveal      bool
	saved       map[string]string
	notice      string
	errMsg      string
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)
var _ screen.StatusProvider = (*StudyScreen)(nil)

// New creates a StudyScreen over machine. favs may be nil, which disables
// favoriting.
func New(ctx context.Context, machine *session.Machine, favs *favorites.Service, outDir string, log *logger.Logger) *StudyScreen {
	subjects := make([]string, len(problem.Subjects))
	for i, s := range problem.Subjects {
		subjects[i] = string(s)
	}
	return &StudyScreen{
		ctx:       ctx,
		machine:   machine,
		favs:      favs,
		outDir:    outDir,
		log:       log,
		paths:     components.NewTextInput("Photos:", "page1.jpg, page2.jpg", 0),
		subject:   components.NewChoice(subjects),
		reasoning: components.NewTextInput("Your reasoning:", "explain how you solved it", 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		saved:     make(map[string]string),
	}
}

func (s *StudyScreen) Init() tea.Cmd {
	st := s.machine.Snapshot()
	if st.Stage == session.StageUserInput {
		s.reasoning.SetValue(st.LearnerInput)
		return s.reasoning.Init()
	}
	return s.paths.Init()
}

func (s *StudyScreen) Title() string {
	return "Study"
}

func (s *StudyScreen) Status() string {
	if s.favs == nil {
		return ""
	}
	return fmt.Sprintf("★ %d", len(s.favs.List()))
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case opDoneMsg:
		return s.handleOpDone(msg)

	case savedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		for k, v := range msg.Paths {
			s.saved[k] = v
		}
		if len(msg.Paths) > 0 {
			s.notice = fmt.Sprintf("Saved %d diagram(s) to %s", len(msg.Paths), s.outDir)
		}
		return s, nil

	case spinner.TickMsg:
		if !s.pending {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	return s.forwardToInput(msg)
}

func (s *StudyScreen) handleOpDone(msg opDoneMsg) (screen.Screen, tea.Cmd) {
	s.pending = false
	if msg.Err != nil && (session.IsStale(msg.Err) || errors.Is(msg.Err, session.ErrBusy)) {
		return s, nil
	}

	st := s.machine.Snapshot()
	switch st.Stage {
	case session.StageUserInput:
		s.reasoning.SetValue(st.LearnerInput)
	case session.StagePractice:
		s.practiceIdx = 0
		s.reveal = false
	}
	return s, nil
}

// run launches op against the machine in a command goroutine.
func (s *StudyScreen) run(op func(ctx context.Context) error) tea.Cmd {
	s.pending = true
	s.notice = ""
	s.errMsg = ""
	ctx := s.ctx
	return tea.Batch(
		s.spinner.Tick,
		func() tea.Msg { return opDoneMsg{Err: op(ctx)} },
	)
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	st := s.machine.Snapshot()

	switch key {
	case "ctrl+n":
		s.machine.Reset()
		return s, func() tea.Msg { return router.PopToRootMsg{} }
	case "ctrl+r":
		return s, s.retry(st)
	}

	if st.Busy || s.pending {
		return s, nil
	}

	switch st.Stage {
	case session.StageScanning:
		return s.handleScanningKey(msg)
	case session.StageStart:
		return s.handleFailedScanKey(key, st)
	case session.StageUserInput:
		return s.handleUserInputKey(msg)
	case session.StageComparison:
		return s.handleComparisonKey(key, st)
	case session.StagePractice:
		return s.handlePracticeKey(key, st)
	}
	return s, nil
}

func (s *StudyScreen) retry(st session.State) tea.Cmd {
	if st.Err == nil || !st.Err.Retryable || st.Busy || s.pending {
		return nil
	}
	return s.run(s.machine.Retry)
}

func (s *StudyScreen) back() tea.Cmd {
	if err := s.machine.Back(); err != nil {
		return nil
	}
	s.notice = ""
	s.errMsg = ""
	if s.machine.Stage() == session.StageStart {
		return func() tea.Msg { return router.PopScreenMsg{} }
	}
	return nil
}

func (s *StudyScreen) handleScanningKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, s.back()
	case "tab", "shift+tab":
		s.subject, _ = s.subject.Update(msg)
		return s, nil
	case "enter":
		images, err := readImages(s.paths.Value())
		if err != nil {
			s.errMsg = err.Error()
			return s, nil
		}
		subject := problem.ParseSubject(s.subject.Value())
		s.saved = make(map[string]string)
		return s, s.run(func(ctx context.Context) error {
			return s.machine.SubmitCapture(ctx, images, subject)
		})
	}
	var cmd tea.Cmd
	s.paths, cmd = s.paths.Update(msg)
	return s, cmd
}

// handleFailedScanKey handles Start after a failed capture.
func (s *StudyScreen) handleFailedScanKey(key string, st session.State) (screen.Screen, tea.Cmd) {
	switch key {
	case "r":
		return s, s.retry(st)
	case "enter":
		if err := s.machine.BeginScan(); err != nil {
			return s, nil
		}
		s.errMsg = ""
		return s, nil
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *StudyScreen) handleUserInputKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, s.back()
	case "ctrl+s":
		return s, s.saveDiagrams()
	case "tab":
		if err := s.machine.Forward(); err == nil {
			s.errMsg = ""
		}
		return s, nil
	case "enter":
		text := s.reasoning.Value()
		if text == "" {
			s.errMsg = "Describe your reasoning first."
			return s, nil
		}
		return s, s.run(func(ctx context.Context) error {
			return s.machine.SubmitReasoning(ctx, text)
		})
	}
	var cmd tea.Cmd
	s.reasoning, cmd = s.reasoning.Update(msg)
	return s, cmd
}

func (s *StudyScreen) handleComparisonKey(key string, st session.State) (screen.Screen, tea.Cmd) {
	switch key {
	case "esc":
		return s, s.back()
	case "r":
		return s, s.retry(st)
	case "s":
		return s, s.saveDiagrams()
	case "tab":
		if err := s.machine.Forward(); err == nil {
			s.practiceIdx = 0
		}
		return s, nil
	case "p", "enter":
		return s, s.run(s.machine.GeneratePractice)
	}
	return s, nil
}

func (s *StudyScreen) handlePracticeKey(key string, st session.State) (screen.Screen, tea.Cmd) {
	switch key {
	case "esc":
		return s, s.back()
	case "left", "h":
		if s.practiceIdx > 0 {
			s.practiceIdx--
			s.reveal = false
		}
	case "right", "l":
		if s.practiceIdx < len(st.Practice)-1 {
			s.practiceIdx++
			s.reveal = false
		}
	case "a", "enter":
		s.reveal = !s.reveal
	case "s":
		return s, s.saveDiagrams()
	case "f":
		return s, s.toggleFavorite(st)
	}
	return s, nil
}

func (s *StudyScreen) toggleFavorite(st session.State) tea.Cmd {
	if s.favs == nil || s.practiceIdx >= len(st.Practice) {
		return nil
	}
	added, err := s.favs.Toggle(s.ctx, st.Practice[s.practiceIdx])
	switch {
	case err != nil:
		s.errMsg = err.Error()
	case added:
		s.notice = "Added to favorites"
	default:
		s.notice = "Removed from favorites"
	}
	return nil
}

// saveDiagrams writes the problem and practice diagrams to the output
// directory.
func (s *StudyScreen) saveDiagrams() tea.Cmd {
	st := s.machine.Snapshot()
	dir := s.outDir
	return func() tea.Msg {
		out := make(map[string]string)
		var errs []error
		save := func(key string, img *problem.Image) {
			if img == nil {
				return
			}
			p, err := img.Save(dir, key)
			if err != nil {
				errs = append(errs, err)
				return
			}
			out[key] = p
		}
		if st.Problem != nil {
			save(problemKey, st.Problem.Diagram)
		}
		for i, p := range st.Practice {
			save(practiceKey(i), p.Diagram)
		}
		return savedMsg{Paths: out, Err: errors.Join(errs...)}
	}
}

const problemKey = "problem-diagram"

func practiceKey(i int) string { return fmt.Sprintf("practice-%d-diagram", i+1) }

func (s *StudyScreen) forwardToInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch s.machine.Stage() {
	case session.StageScanning:
		s.paths, cmd = s.paths.Update(msg)
	case session.StageUserInput:
		s.reasoning, cmd = s.reasoning.Update(msg)
	}
	return s, cmd
}

// readImages loads comma-separated image paths.
func readImages(input string) ([]*problem.Image, error) {
	var images []*problem.Image
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		img, err := media.ReadImage(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.New("enter at least one photo path")
	}
	return images, nil
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	st := s.machine.Snapshot()
	if st.Busy || s.pending {
		return []layout.KeyHint{{Key: "Ctrl+N", Description: "Cancel"}}
	}
	switch st.Stage {
	case session.StageScanning:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Analyze"},
			{Key: "Tab", Description: "Subject"},
			{Key: "Esc", Description: "Back"},
		}
	case session.StageStart:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Enter", Description: "New photos"},
			{Key: "Esc", Description: "Home"},
		}
	case session.StageUserInput:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Compare"}}
		if st.Err != nil && st.Err.Retryable {
			hints = append(hints, layout.KeyHint{Key: "Ctrl+R", Description: "Retry"})
		}
		return append(hints,
			layout.KeyHint{Key: "Ctrl+S", Description: "Save diagram"},
			layout.KeyHint{Key: "Esc", Description: "Back"},
		)
	case session.StageComparison:
		hints := []layout.KeyHint{{Key: "P", Description: "Practice"}}
		if st.Err != nil && st.Err.Retryable {
			hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry"})
		}
		return append(hints,
			layout.KeyHint{Key: "Esc", Description: "Back"},
			layout.KeyHint{Key: "Ctrl+N", Description: "New"},
		)
	case session.StagePractice:
		return []layout.KeyHint{
			{Key: "←→", Description: "Question"},
			{Key: "A", Description: "Answer"},
			{Key: "F", Description: "Favorite"},
			{Key: "S", Description: "Save"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return nil
}
