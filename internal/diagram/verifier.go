package diagram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// Verdict is the verifier's judgment of one diagram.
type Verdict struct {
	IsAccurate bool
	Feedback   string

	// FailedOpen is set when the check itself failed and the verdict
	// defaulted to accurate.
	FailedOpen bool
}

// DiagramVerifier judges a diagram against the question text.
type DiagramVerifier interface {
	Verify(ctx context.Context, questionText string, img *problem.Image) Verdict
}

// VerdictSchema defines the JSON schema for diagram verification responses.
var VerdictSchema = &llm.Schema{
	Name:        "diagram-verdict",
	Description: "Whether a generated diagram faithfully illustrates the question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_accurate": map[string]any{
				"type":        "boolean",
				"description": "True when labels, relationships and text in the diagram are all correct",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "When inaccurate, the concrete defect to fix. Empty when accurate.",
			},
		},
		"required":             []any{"is_accurate", "feedback"},
		"additionalProperties": false,
	},
}

const verifySystemPrompt = `You review diagrams generated for exam questions.

Check the attached diagram against the question:
- Every label, value and unit matches the question.
- Geometric or physical relationships are correct: positions, proportions, connections, directions of forces or motion.
- There is no garbled, misspelled or invented text.

Answer is_accurate=true only if all checks pass. Otherwise describe the single most important defect in one or two sentences so an illustrator can fix it.`

const defaultFeedback = "The diagram does not match the question. Redraw it following the description exactly."

// VerifierConfig holds generation limits for verification.
type VerifierConfig struct {
	MaxTokens int
}

// Verifier checks diagrams on the high text tier. Any failure of the
// check yields an accurate verdict.
type Verifier struct {
	provider llm.Provider
	cfg      VerifierConfig
	log      *logger.Logger

	failOpen atomic.Int64
}

// NewVerifier creates a Verifier.
func NewVerifier(provider llm.Provider, cfg VerifierConfig, log *logger.Logger) *Verifier {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	return &Verifier{provider: provider, cfg: cfg, log: log}
}

type verdictOutput struct {
	IsAccurate *bool  `json:"is_accurate"`
	Feedback   string `json:"feedback"`
}

func (v *Verifier) Verify(ctx context.Context, questionText string, img *problem.Image) Verdict {
	if img == nil {
		return v.failedOpen(fmt.Errorf("no diagram to verify"))
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeDiagramVerify)

	resp, err := v.provider.Generate(ctx, llm.Request{
		System:    verifySystemPrompt,
		Messages:  llm.UserMessage("Question:\n"+strings.TrimSpace(questionText), img),
		Schema:    VerdictSchema,
		MaxTokens: v.cfg.MaxTokens,
	})
	if err != nil {
		return v.failedOpen(err)
	}

	var raw verdictOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return v.failedOpen(fmt.Errorf("parse verdict: %w", err))
	}
	if raw.IsAccurate == nil {
		return v.failedOpen(fmt.Errorf("parse verdict: is_accurate missing"))
	}
	if *raw.IsAccurate {
		return Verdict{IsAccurate: true}
	}

	fb := strings.TrimSpace(raw.Feedback)
	if fb == "" {
		fb = defaultFeedback
	}
	return Verdict{Feedback: fb}
}

// FailOpenCount returns how many verdicts defaulted to accurate because the
// check failed.
func (v *Verifier) FailOpenCount() int64 {
	return v.failOpen.Load()
}

func (v *Verifier) failedOpen(err error) Verdict {
	n := v.failOpen.Add(1)
	v.log.Warn("diagram verification failed, accepting diagram", "error", err, "fail_open_total", n)
	return Verdict{IsAccurate: true, FailedOpen: true}
}
