package study

import (
	"fmt"
	"strings"

	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/ui/components"
	"github.com/abhisek/examlens/internal/ui/layout"
	"github.com/abhisek/examlens/internal/ui/theme"
)

var stepLabels = []string{"Scan", "Analyze", "Reason", "Compare", "Practice"}

func stepIndex(st session.Stage) int {
	switch st {
	case session.StageScanning, session.StageStart:
		return 0
	case session.StageAnalyzing:
		return 1
	case session.StageUserInput:
		return 2
	case session.StageComparison:
		return 3
	case session.StagePractice:
		return 4
	}
	return 0
}

var busyText = map[session.Stage]string{
	session.StageAnalyzing:  "Reading the photos and drawing the diagram...",
	session.StageUserInput:  "Comparing your reasoning with the standard solution...",
	session.StageComparison: "Writing three practice questions...",
}

func (s *StudyScreen) View(width, height int) string {
	st := s.machine.Snapshot()
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	var b strings.Builder
	b.WriteString("  " + components.NewSteps(stepLabels, stepIndex(st.Stage)).View())
	b.WriteString("\n  " + layout.Rule(inner) + "\n\n")

	if st.Busy || s.pending {
		text := busyText[st.Stage]
		if text == "" {
			text = "Working..."
		}
		b.WriteString("  " + s.spinner.View() + " " + theme.Body.Render(text) + "\n")
		return clip(b.String(), height)
	}

	var body string
	switch st.Stage {
	case session.StageScanning:
		body = s.renderScanning(inner)
	case session.StageStart:
		body = s.renderFailedScan(st, inner)
	case session.StageUserInput:
		body = s.renderUserInput(st, inner)
	case session.StageComparison:
		body = s.renderComparison(st, inner)
	case session.StagePractice:
		body = s.renderPractice(st, inner)
	}
	b.WriteString(indent(body))

	if s.errMsg != "" {
		b.WriteString("\n" + indent(theme.ErrorCard.Render(s.errMsg)))
	}
	if s.notice != "" {
		b.WriteString("\n  " + theme.Hint.Render(s.notice))
	}
	return clip(b.String(), height)
}

func (s *StudyScreen) renderScanning(width int) string {
	var b strings.Builder
	b.WriteString(theme.Section.Render("Photograph the question"))
	b.WriteString("\n")
	b.WriteString(layout.Wrap(theme.Hint, "Enter one or more image paths separated by commas. Several photos are merged into one question.", width))
	b.WriteString("\n\n")
	b.WriteString(s.paths.View())
	b.WriteString("\n\n")
	b.WriteString(theme.Section.Render("Subject ") + s.subject.View())
	b.WriteString("\n")
	return b.String()
}

func (s *StudyScreen) renderFailedScan(st session.State, width int) string {
	if st.Err == nil {
		return theme.Hint.Render("Press Enter to scan a question.")
	}
	msg := "Could not read the question: " + st.Err.Err.Error()
	return theme.ErrorCard.Width(width).Render(msg) + "\n" +
		theme.Hint.Render("Press R to try the same photos again, or Enter to choose new ones.")
}

func (s *StudyScreen) renderProblem(p *problem.Record, width int) string {
	var b strings.Builder
	meta := []string{string(p.Subject)}
	if p.Grade != "" {
		meta = append(meta, "grade "+p.Grade)
	}
	if p.ProblemType != "" {
		meta = append(meta, p.ProblemType)
	}
	b.WriteString(theme.Hint.Render(strings.Join(meta, " · ")))
	b.WriteString("\n")
	b.WriteString(layout.Wrap(theme.Body.Bold(true), p.OriginalText, width))
	b.WriteString("\n")
	if v := components.RenderVisual(p.GridData, p.Diagram, s.saved[problemKey], width); v != "" {
		b.WriteString("\n" + v + "\n")
	}
	if len(p.KeyKnowledgePoints) > 0 {
		b.WriteString("\n" + theme.Section.Render("Knowledge points") + "\n")
		b.WriteString(bullets(p.KeyKnowledgePoints, width))
	}
	return b.String()
}

func (s *StudyScreen) renderUserInput(st session.State, width int) string {
	var b strings.Builder
	b.WriteString(s.renderProblem(st.Problem, width))
	b.WriteString("\n")
	b.WriteString(s.reasoning.View())
	b.WriteString("\n")
	if st.Err != nil {
		b.WriteString("\n" + theme.ErrorCard.Width(width).Render(st.Err.Err.Error()))
		if st.Err.Retryable {
			b.WriteString("\n" + theme.Hint.Render("Ctrl+R retries with the same reasoning."))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *StudyScreen) renderComparison(st session.State, width int) string {
	c := st.Comparison
	p := st.Problem
	var b strings.Builder

	if p != nil {
		b.WriteString(theme.Section.Render("Standard solution") + "\n")
		b.WriteString(numbered(p.StandardSolution, width))
		b.WriteString(theme.Correct.Render("Answer: ") + theme.Body.Render(p.FinalAnswer) + "\n\n")
	}

	if c != nil {
		b.WriteString(theme.Section.Render("Analysis") + "\n")
		b.WriteString(layout.Wrap(theme.Body, c.AnalysisText, width) + "\n")
		if len(c.Discrepancies) > 0 {
			b.WriteString("\n" + theme.Section.Render("Where your reasoning differs") + "\n")
			b.WriteString(bullets(c.Discrepancies, width))
		}
		if len(c.WeakPoints) > 0 {
			b.WriteString("\n" + theme.Section.Render("Weak points") + "\n")
			b.WriteString(bullets(c.WeakPoints, width))
		}
		if tb := c.TextbookReference; tb != nil {
			b.WriteString("\n" + theme.Section.Render("Textbook") + "\n")
			loc := strings.Join(nonEmpty(tb.Title, tb.Chapter, tb.Section), ", ")
			b.WriteString(theme.Body.Render(loc) + "\n")
			if tb.Excerpt != "" {
				b.WriteString(layout.Wrap(theme.Hint, "“"+tb.Excerpt+"”", width) + "\n")
			}
			if tb.URI != "" {
				b.WriteString(theme.Link.Render(tb.URI) + "\n")
			}
		}
		if len(c.GroundingReferences) > 0 {
			b.WriteString("\n" + theme.Section.Render("Sources") + "\n")
			for _, r := range c.GroundingReferences {
				b.WriteString("• " + theme.Body.Render(r.Title) + "  " + theme.Link.Render(r.URI) + "\n")
			}
		}
	}

	if st.Err != nil {
		b.WriteString("\n" + theme.ErrorCard.Width(width).Render("Practice generation failed: "+st.Err.Err.Error()) + "\n")
	}
	return b.String()
}

func (s *StudyScreen) renderPractice(st session.State, width int) string {
	if len(st.Practice) == 0 {
		return theme.Hint.Render("No practice questions.")
	}
	idx := s.practiceIdx
	if idx >= len(st.Practice) {
		idx = len(st.Practice) - 1
	}
	p := st.Practice[idx]

	var tabs []string
	for i, item := range st.Practice {
		label := fmt.Sprintf(" %d %s ", i+1, item.Difficulty)
		if i == idx {
			tabs = append(tabs, theme.Selected.Render("["+strings.TrimSpace(label)+"]"))
		} else {
			tabs = append(tabs, theme.StepPending.Render(label))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(tabs, " "))
	if s.favs != nil && s.favs.IsFavorite(p.Question) {
		b.WriteString("  " + theme.Favorite.Render("★ favorite"))
	}
	b.WriteString("\n\n")

	style, ok := theme.Difficulty[string(p.Difficulty)]
	if !ok {
		style = theme.Body
	}
	b.WriteString(style.Render(strings.ToUpper(string(p.Difficulty))))
	if p.ProblemType != "" {
		b.WriteString(theme.Hint.Render("  " + p.ProblemType))
	}
	b.WriteString("\n")
	b.WriteString(layout.Wrap(theme.Body.Bold(true), p.Question, width) + "\n")

	if v := components.RenderVisual(p.GridData, p.Diagram, s.saved[practiceKey(idx)], width); v != "" {
		b.WriteString("\n" + v + "\n")
	}

	if s.reveal {
		b.WriteString("\n" + theme.Section.Render("Solution") + "\n")
		b.WriteString(numbered(p.Solution, width))
		b.WriteString(theme.Correct.Render("Answer: ") + theme.Body.Render(p.Answer) + "\n")
	} else {
		b.WriteString("\n" + theme.Hint.Render("Press A to show the solution.") + "\n")
	}
	return b.String()
}

func bullets(items []string, width int) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString(layout.Wrap(theme.Body, "• "+it, width) + "\n")
	}
	return b.String()
}

func numbered(steps []string, width int) string {
	var b strings.Builder
	for i, st := range steps {
		b.WriteString(layout.Wrap(theme.Body, fmt.Sprintf("%d. %s", i+1, st), width) + "\n")
	}
	return b.String()
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

// clip drops lines that do not fit in height.
func clip(s string, height int) string {
	if height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= height {
		return s
	}
	return strings.Join(lines[:height], "\n")
}
