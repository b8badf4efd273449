package diagram

import (
	"context"
	"sync/atomic"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// Stats counts the work done by a Loop.
type Stats struct {
	Runs          int64
	Syntheses     int64
	Verifications int64
	Corrections   int64
	FailOpens     int64
	Diagrams      int64
}

// Loop runs synthesize, verify and at most one corrective synthesis for a
// single artifact. It never re-verifies.
type Loop struct {
	synth  ImageSynthesizer
	verify DiagramVerifier
	log    *logger.Logger

	runs, syntheses, verifications, corrections, failOpens, diagrams atomic.Int64
}

// NewLoop creates a Loop.
func NewLoop(synth ImageSynthesizer, verify DiagramVerifier, log *logger.Logger) *Loop {
	return &Loop{synth: synth, verify: verify, log: log}
}

// Run draws a diagram for description and checks it against the same text.
func (l *Loop) Run(ctx context.Context, description string, seed *problem.Image) *problem.Image {
	return l.RunWithQuestion(ctx, description, description, seed)
}

// RunWithQuestion draws from description and verifies against question.
// It returns nil when no diagram could be drawn.
func (l *Loop) RunWithQuestion(ctx context.Context, description, question string, seed *problem.Image) *problem.Image {
	l.runs.Add(1)

	first := l.synthesize(ctx, SynthesisInput{Description: description, Seed: seed})
	if first == nil {
		l.log.Debug("correction loop: no diagram")
		return nil
	}

	l.verifications.Add(1)
	verdict := l.verify.Verify(ctx, question, first)
	if verdict.FailedOpen {
		l.failOpens.Add(1)
	}
	if verdict.IsAccurate {
		l.diagrams.Add(1)
		return first
	}

	l.corrections.Add(1)
	l.log.Debug("correction loop: redrawing", "feedback", verdict.Feedback)
	second := l.synthesize(ctx, SynthesisInput{Description: description, Seed: seed, Feedback: verdict.Feedback})
	l.diagrams.Add(1)
	if second == nil {
		return first
	}
	return second
}

func (l *Loop) synthesize(ctx context.Context, in SynthesisInput) *problem.Image {
	l.syntheses.Add(1)
	return l.synth.Synthesize(ctx, in)
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Runs:          l.runs.Load(),
		Syntheses:     l.syntheses.Load(),
		Verifications: l.verifications.Load(),
		Corrections:   l.corrections.Load(),
		FailOpens:     l.failOpens.Load(),
		Diagrams:      l.diagrams.Load(),
	}
}
