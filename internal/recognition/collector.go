// Package recognition turns captured question photos into a problem record.
package recognition

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

// ErrNoImages is returned when Recognize is called without any capture.
var ErrNoImages = errors.New("recognition needs at least one image")

// RecognitionParseError means the provider answer could not be turned into
// a record. No partial record accompanies it.
type RecognitionParseError struct {
	Content json.RawMessage
	Err     error
}

func (e *RecognitionParseError) Error() string {
	return fmt.Sprintf("parse recognition response: %v", e.Err)
}

func (e *RecognitionParseError) Unwrap() error { return e.Err }

// Config holds generation limits for recognition.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   4096,
		Temperature: 0.2,
	}
}

// Collector performs recognition on the high text tier.
type Collector struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// NewCollector creates a Collector.
func NewCollector(provider llm.Provider, cfg Config, log *logger.Logger) *Collector {
	return &Collector{provider: provider, cfg: cfg, log: log}
}

type recognitionOutput struct {
	OriginalText       string      `json:"original_text"`
	Subject            string      `json:"subject"`
	Grade              string      `json:"grade"`
	StandardSolution   []string    `json:"standard_solution"`
	FinalAnswer        string      `json:"final_answer"`
	KeyKnowledgePoints []string    `json:"key_knowledge_points"`
	ProblemType        string      `json:"problem_type"`
	DiagramDescription string      `json:"diagram_description"`
	GridData           [][]*string `json:"grid_data"`
}

// Recognize sends every image in one call and returns the record.
func (c *Collector) Recognize(ctx context.Context, images []*problem.Image, subject problem.Subject) (*problem.Record, error) {
	var imgs []*problem.Image
	for _, img := range images {
		if img != nil && len(img.Data) > 0 {
			imgs = append(imgs, img)
		}
	}
	if len(imgs) == 0 {
		return nil, ErrNoImages
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeRecognition)

	userMsg, err := buildUserMessage(len(imgs), subject)
	if err != nil {
		return nil, fmt.Errorf("build recognition prompt: %w", err)
	}

	resp, err := c.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(userMsg, imgs...),
		Schema:      RecognitionSchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return nil, &RecognitionParseError{Content: invalid.Content, Err: err}
		}
		var truncated *llm.ErrMaxTokensExceeded
		if errors.As(err, &truncated) {
			return nil, &RecognitionParseError{Content: truncated.Content, Err: err}
		}
		return nil, fmt.Errorf("recognition call: %w", err)
	}

	rec, err := parseRecord(resp.Content)
	if err != nil {
		return nil, &RecognitionParseError{Content: resp.Content, Err: err}
	}

	c.log.Debug("problem recognized",
		"images", len(imgs),
		"subject", rec.Subject,
		"problem_type", rec.ProblemType,
		"has_diagram_description", rec.DiagramDescription != "",
		"grid", rec.GridData.HasContent(),
	)
	return rec, nil
}

func parseRecord(content json.RawMessage) (*problem.Record, error) {
	var raw recognitionOutput
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(raw.OriginalText)
	if text == "" {
		return nil, errors.New("original_text is empty")
	}
	grid, err := problem.GridFromRows(raw.GridData)
	if err != nil {
		return nil, fmt.Errorf("grid_data: %w", err)
	}

	steps := make([]string, 0, len(raw.StandardSolution))
	for _, s := range raw.StandardSolution {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}

	return &problem.Record{
		OriginalText:       text,
		Subject:            strings.TrimSpace(raw.Subject),
		Grade:              strings.TrimSpace(raw.Grade),
		StandardSolution:   steps,
		FinalAnswer:        strings.TrimSpace(raw.FinalAnswer),
		KeyKnowledgePoints: problem.DedupStrings(raw.KeyKnowledgePoints),
		ProblemType:        strings.TrimSpace(raw.ProblemType),
		DiagramDescription: strings.TrimSpace(raw.DiagramDescription),
		GridData:           grid,
	}, nil
}
