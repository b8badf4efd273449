// Package diagnosis compares a learner's reasoning with the standard
// solution and names the weak points to practice.
package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// ErrEmptyInput is returned when the learner's reasoning is blank.
var ErrEmptyInput = errors.New("learner reasoning is empty")

// CapabilityUnavailableError means the configured credential cannot serve
// the grounded comparison model. The user has to act on Remediation.
type CapabilityUnavailableError struct {
	Model       string
	Remediation string
	Err         error
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("comparison model %q is unavailable: %s", e.Model, e.Remediation)
}

func (e *CapabilityUnavailableError) Unwrap() error { return e.Err }

// ComparisonHardFailure means both tiers failed.
type ComparisonHardFailure struct {
	Primary, Fallback error
}

func (e *ComparisonHardFailure) Error() string {
	return fmt.Sprintf("comparison failed: %v (fallback: %v)", e.Primary, e.Fallback)
}

func (e *ComparisonHardFailure) Unwrap() []error { return []error{e.Primary, e.Fallback} }

const remediation = "the API key cannot reach this model; set text.high_model to a model your key can use or configure a key with access"

// ComparatorConfig holds generation limits for comparison.
type ComparatorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultComparatorConfig returns sensible defaults.
func DefaultComparatorConfig() ComparatorConfig {
	return ComparatorConfig{
		MaxTokens:   2048,
		Temperature: 0.3,
	}
}

// Comparator runs a grounded comparison on the high tier with one
// ungrounded low-tier fallback.
type Comparator struct {
	high, low llm.Provider
	cfg       ComparatorConfig
	log       *logger.Logger
}

// NewComparator creates a Comparator.
func NewComparator(high, low llm.Provider, cfg ComparatorConfig, log *logger.Logger) *Comparator {
	return &Comparator{high: high, low: low, cfg: cfg, log: log}
}

type comparisonOutput struct {
	AnalysisText      string                     `json:"analysis_text"`
	Discrepancies     []string                   `json:"discrepancies"`
	WeakPoints        []string                   `json:"weak_points"`
	TextbookReference *problem.TextbookReference `json:"textbook_reference"`
}

// Compare diagnoses learnerInput against the problem's standard solution.
func (c *Comparator) Compare(ctx context.Context, p *problem.Record, learnerInput string) (*problem.Comparison, error) {
	learnerInput = strings.TrimSpace(learnerInput)
	if learnerInput == "" {
		return nil, ErrEmptyInput
	}
	if p == nil {
		return nil, errors.New("compare: no problem")
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeComparison)

	userMsg, err := buildComparisonMessage(p, learnerInput)
	if err != nil {
		return nil, fmt.Errorf("build comparison prompt: %w", err)
	}
	req := llm.Request{
		System:      comparisonSystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		Schema:      ComparisonSchema,
		Grounding:   true,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	cmp, primaryErr := c.attempt(ctx, c.high, req)
	if primaryErr == nil {
		return cmp, nil
	}
	if llm.IsCapabilityUnavailable(primaryErr) {
		return nil, &CapabilityUnavailableError{
			Model:       c.high.ModelID(),
			Remediation: remediation,
			Err:         primaryErr,
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.log.Warn("grounded comparison failed, falling back", "model", c.high.ModelID(), "error", primaryErr)
	req.Grounding = false
	cmp, fallbackErr := c.attempt(ctx, c.low, req)
	if fallbackErr == nil {
		return cmp, nil
	}
	return nil, &ComparisonHardFailure{Primary: primaryErr, Fallback: fallbackErr}
}

func (c *Comparator) attempt(ctx context.Context, provider llm.Provider, req llm.Request) (*problem.Comparison, error) {
	resp, err := provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	var raw comparisonOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse comparison response: %w", err)
	}
	if strings.TrimSpace(raw.AnalysisText) == "" {
		return nil, errors.New("parse comparison response: analysis_text is empty")
	}

	refs := make([]problem.Reference, 0, len(resp.Citations))
	for _, cit := range resp.Citations {
		refs = append(refs, problem.Reference{Title: cit.Title, URI: cit.URI})
	}
	cmp := problem.NewComparison(raw.AnalysisText, raw.Discrepancies, raw.WeakPoints, refs, raw.TextbookReference)

	c.log.Debug("comparison ready",
		"model", resp.Model,
		"weak_points", len(cmp.WeakPoints),
		"references", len(cmp.GroundingReferences),
		"dropped_references", len(refs)-len(cmp.GroundingReferences),
	)
	return cmp, nil
}

const comparisonSystemPrompt = `You are an experienced teacher diagnosing a student's reasoning on an exam question.

Instructions:
- Compare the student's reasoning with the standard solution step by step.
- List each concrete discrepancy in solution order. If the reasoning is fully correct, return an empty list.
- Name the weak points as short concept tags the student should practice. Always return at least one.
- Cite a standard textbook section for the main concept when you are confident; otherwise return null. Use only https links.
- Be encouraging and specific. Do not repeat the full solution.`

var comparisonUserTemplate = template.Must(template.New("comparison").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": func(s []string) string { return strings.Join(s, ", ") },
}).Parse(`Subject: {{.Subject}}{{if .Grade}} (grade {{.Grade}}){{end}}
Question:
{{.OriginalText}}

Standard solution:
{{range $i, $s := .StandardSolution}}{{inc $i}}. {{$s}}
{{end}}Final answer: {{.FinalAnswer}}
{{if .KeyKnowledgePoints}}Knowledge points: {{join .KeyKnowledgePoints}}
{{end}}
Student's reasoning:
{{.LearnerInput}}`))

type comparisonData struct {
	*problem.Record
	LearnerInput string
}

func buildComparisonMessage(p *problem.Record, learnerInput string) (string, error) {
	var buf bytes.Buffer
	if err := comparisonUserTemplate.Execute(&buf, comparisonData{Record: p, LearnerInput: learnerInput}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
