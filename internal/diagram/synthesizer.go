// Package diagram generates question figures and checks them against the
// question text, with one bounded correction attempt.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// SynthesisInput describes one diagram to draw.
type SynthesisInput struct {
	Description string

	// Seed is the original capture. The output must keep its layout and
	// labels.
	Seed *problem.Image

	// Feedback is a defect reported by the verifier that the new drawing
	// must fix.
	Feedback string
}

// ImageSynthesizer draws a diagram or returns nil.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) *problem.Image
}

// GenerationSoftFailure records that every tier failed to draw a diagram.
// It is logged, never returned to callers.
type GenerationSoftFailure struct {
	High, Low error
}

func (e *GenerationSoftFailure) Error() string {
	return fmt.Sprintf("diagram generation failed on both tiers: high: %v; low: %v", e.High, e.Low)
}

func (e *GenerationSoftFailure) Unwrap() []error { return []error{e.High, e.Low} }

// Synthesizer tries the high image tier, then exactly one low-tier call.
type Synthesizer struct {
	high, low llm.ImageProvider
	log       *logger.Logger
}

// NewSynthesizer creates a Synthesizer over two image tiers.
func NewSynthesizer(high, low llm.ImageProvider, log *logger.Logger) *Synthesizer {
	return &Synthesizer{high: high, low: low, log: log}
}

// Synthesize returns the drawn diagram, or nil when the description is
// empty or both tiers failed.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) *problem.Image {
	if strings.TrimSpace(in.Description) == "" {
		return nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeDiagram)
	req := llm.ImageRequest{Prompt: buildImagePrompt(in), Seed: in.Seed}

	img, highErr := s.high.GenerateImage(ctx, req)
	if highErr == nil && img != nil {
		return img
	}
	if highErr == nil {
		highErr = llm.ErrNoImage
	}
	if ctx.Err() != nil {
		s.log.Debug("diagram synthesis cancelled", "error", highErr)
		return nil
	}
	s.log.Debug("diagram high tier failed, falling back", "model", s.high.ModelID(), "error", highErr)

	img, lowErr := s.low.GenerateImage(ctx, req)
	if lowErr == nil && img != nil {
		return img
	}
	if lowErr == nil {
		lowErr = llm.ErrNoImage
	}

	soft := &GenerationSoftFailure{High: highErr, Low: lowErr}
	if errors.Is(ctx.Err(), context.Canceled) {
		s.log.Debug("diagram synthesis cancelled", "error", soft)
		return nil
	}
	s.log.Warn("diagram synthesis gave up", "error", soft, "seeded", in.Seed != nil, "correction", in.Feedback != "")
	return nil
}

func buildImagePrompt(in SynthesisInput) string {
	var b strings.Builder
	b.WriteString("Draw a clean, textbook-style exam diagram on a white background.\n")
	b.WriteString("Use crisp lines and legible labels. Do not write the question text, a title or any explanation into the image.\n\n")
	b.WriteString("Diagram: ")
	b.WriteString(strings.TrimSpace(in.Description))
	b.WriteString("\n")
	if in.Seed != nil {
		b.WriteString("\nThe attached photo is the original figure. You MUST keep its layout, relative positions and every label exactly as shown; redraw it cleanly without adding or removing elements.\n")
	}
	if fb := strings.TrimSpace(in.Feedback); fb != "" {
		b.WriteString("\nA previous drawing was rejected. You MUST fix this defect: ")
		b.WriteString(fb)
		b.WriteString("\n")
	}
	return b.String()
}
