package session

import (
	"github.com/abhisek/examlens/internal/diagnosis"
	"github.com/abhisek/examlens/internal/diagram"
	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problemgen"
	"github.com/abhisek/examlens/internal/recognition"
)

// Pipeline is the set of components built on a gateway.
type Pipeline struct {
	Recognizer *recognition.Collector
	Loop       *diagram.Loop
	Verifier   *diagram.Verifier
	Comparator *diagnosis.Comparator
	Practice   *problemgen.Generator
}

// NewPipeline wires every pipeline component to the gateway tiers.
func NewPipeline(gw *llm.Gateway, log *logger.Logger) *Pipeline {
	synth := diagram.NewSynthesizer(gw.Image(llm.TierHigh), gw.Image(llm.TierLow), log.With("component", "synthesizer"))
	verifier := diagram.NewVerifier(gw.Text(llm.TierHigh), diagram.VerifierConfig{}, log.With("component", "verifier"))
	loop := diagram.NewLoop(synth, verifier, log.With("component", "correction-loop"))

	return &Pipeline{
		Recognizer: recognition.NewCollector(gw.Text(llm.TierHigh), recognition.DefaultConfig(), log.With("component", "recognition")),
		Loop:       loop,
		Verifier:   verifier,
		Comparator: diagnosis.NewComparator(gw.Text(llm.TierHigh), gw.Text(llm.TierLow), diagnosis.DefaultComparatorConfig(), log.With("component", "comparator")),
		Practice:   problemgen.New(gw.Text(llm.TierHigh), loop, problemgen.DefaultConfig(), log.With("component", "practice")),
	}
}

// Deps adapts the pipeline for NewMachine.
func (p *Pipeline) Deps(log *logger.Logger) Deps {
	return Deps{
		Recognizer: p.Recognizer,
		Diagrams:   p.Loop,
		Comparator: p.Comparator,
		Practice:   p.Practice,
		Log:        log,
	}
}
