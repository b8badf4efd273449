// Package narration reads solutions aloud through the speech capability.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/media"
	"github.com/abhisek/examlens/internal/problem"
)

// ErrEmptyScript is returned when there is nothing to read.
var ErrEmptyScript = errors.New("narration: script is empty")

// Narrator synthesizes speech on the high tier and falls back to the low
// tier once.
type Narrator struct {
	high, low llm.SpeechProvider
	voice     string
	log       *logger.Logger
}

// New creates a Narrator. voice may be empty.
func New(high, low llm.SpeechProvider, voice string, log *logger.Logger) *Narrator {
	return &Narrator{high: high, low: low, voice: voice, log: log}
}

// Speak synthesizes script.
func (n *Narrator) Speak(ctx context.Context, script string) (*media.Audio, error) {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil, ErrEmptyScript
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeSpeech)
	req := llm.SpeechRequest{Text: script, Voice: n.voice}

	audio, highErr := n.high.Synthesize(ctx, req)
	if highErr == nil {
		return audio, nil
	}
	if ctx.Err() != nil || n.low == nil {
		return nil, fmt.Errorf("synthesize speech: %w", highErr)
	}
	n.log.Debug("speech high tier failed, falling back", "model", n.high.ModelID(), "error", highErr)

	audio, lowErr := n.low.Synthesize(ctx, req)
	if lowErr != nil {
		return nil, fmt.Errorf("synthesize speech: high: %v; low: %w", highErr, lowErr)
	}
	return audio, nil
}

// SolutionScript is the spoken form of a record's standard solution.
func SolutionScript(r *problem.Record) string {
	if r == nil {
		return ""
	}
	return script(r.OriginalText, r.StandardSolution, r.FinalAnswer)
}

// PracticeScript is the spoken form of a practice question and its worked
// solution.
func PracticeScript(p problem.Practice) string {
	return script(p.Question, p.Solution, p.Answer)
}

func script(question string, steps []string, answer string) string {
	var b strings.Builder
	if q := strings.TrimSpace(question); q != "" {
		b.WriteString("The question. ")
		b.WriteString(sentence(q))
	}
	n := 0
	for _, s := range steps {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "\nStep %d. %s", n, sentence(s))
	}
	if a := strings.TrimSpace(answer); a != "" {
		b.WriteString("\nThe answer is ")
		b.WriteString(sentence(a))
	}
	return strings.TrimSpace(b.String())
}

// sentence ends s with terminal punctuation so the voice pauses.
func sentence(s string) string {
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
