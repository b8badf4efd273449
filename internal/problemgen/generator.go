// Package problemgen generates variant practice questions and draws a
// diagram for each.
package problemgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// Generator produces a practice batch with one structured call, then
// enriches the items one at a time.
type Generator struct {
	provider llm.Provider
	diagrams DiagramLoop
	config   Config
	log      *logger.Logger
}

// New creates a Generator. diagrams may be nil to skip enrichment.
func New(provider llm.Provider, diagrams DiagramLoop, cfg Config, log *logger.Logger) *Generator {
	return &Generator{provider: provider, diagrams: diagrams, config: cfg, log: log}
}

// practiceOutput is the raw LLM response before validation.
type practiceOutput struct {
	Items []struct {
		Question    string   `json:"question"`
		Solution    []string `json:"solution"`
		Answer      string   `json:"answer"`
		Difficulty  string   `json:"difficulty"`
		ProblemType string   `json:"problem_type"`
	} `json:"items"`
}

// Generate returns exactly BatchSize practice items. A skeleton failure is
// returned as an error; a missing diagram is not.
func (g *Generator) Generate(ctx context.Context, weakPoints []string, p *problem.Record) ([]problem.Practice, error) {
	items, err := g.Skeleton(ctx, GenerateInput{WeakPoints: weakPoints, Problem: p})
	if err != nil {
		return nil, err
	}
	if err := g.Enrich(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Skeleton generates and validates the batch without diagrams.
func (g *Generator) Skeleton(ctx context.Context, input GenerateInput) ([]problem.Practice, error) {
	if input.Problem == nil {
		return nil, errors.New("practice generation needs a problem")
	}
	ctx = llm.WithPurpose(ctx, llm.PurposePractice)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(input, g.config)),
		Schema:      PracticeBatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw practiceOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(raw.Items) != BatchSize {
		return nil, fmt.Errorf("practice batch has %d items, want %d", len(raw.Items), BatchSize)
	}

	items := make([]problem.Practice, len(raw.Items))
	for i, it := range raw.Items {
		items[i] = problem.Practice{
			Question:    strings.TrimSpace(it.Question),
			Solution:    it.Solution,
			Answer:      strings.TrimSpace(it.Answer),
			Difficulty:  problem.Difficulty(strings.ToLower(strings.TrimSpace(it.Difficulty))),
			ProblemType: strings.TrimSpace(it.ProblemType),
		}
		if items[i].ProblemType == "" {
			items[i].ProblemType = input.Problem.ProblemType
		}

		// Run validators in order.
		for _, v := range g.config.Validators {
			if verr := v.Validate(&items[i], input); verr != nil {
				verr.Index = i
				return nil, verr
			}
		}
	}

	if dup := findDuplicate(items); dup >= 0 {
		return nil, &ValidationError{
			Validator: "distinct",
			Index:     dup,
			Message:   "question repeats an earlier item",
			Retryable: true,
		}
	}

	return items, nil
}

// Enrich runs the diagram loop for each item in order. A cancelled context
// stops enrichment and is returned.
func (g *Generator) Enrich(ctx context.Context, items []problem.Practice) error {
	if g.diagrams == nil {
		return nil
	}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		items[i].Diagram = g.diagrams.Run(ctx, items[i].Question, nil)
		g.log.Debug("practice item enriched", "index", i, "diagram", items[i].Diagram != nil)
	}
	return ctx.Err()
}
