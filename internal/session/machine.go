package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

// Recognizer turns captures into a problem record.
type Recognizer interface {
	Recognize(ctx context.Context, images []*problem.Image, subject problem.Subject) (*problem.Record, error)
}

// DiagramRunner runs the correction loop for one artifact.
type DiagramRunner interface {
	RunWithQuestion(ctx context.Context, description, question string, seed *problem.Image) *problem.Image
}

// Comparator diagnoses learner reasoning.
type Comparator interface {
	Compare(ctx context.Context, p *problem.Record, learnerInput string) (*problem.Comparison, error)
}

// PracticeGenerator produces the practice batch.
type PracticeGenerator interface {
	Generate(ctx context.Context, weakPoints []string, p *problem.Record) ([]problem.Practice, error)
}

// Deps are the pipeline components the machine drives.
type Deps struct {
	Recognizer Recognizer
	Diagrams   DiagramRunner
	Comparator Comparator
	Practice   PracticeGenerator
	Log        *logger.Logger
}

// Machine owns the session state. All methods are safe for concurrent use;
// at most one pipeline operation runs at a time.
type Machine struct {
	mu     sync.Mutex
	st     State
	cancel context.CancelFunc
	deps   Deps
}

// NewMachine creates a Machine in the start stage.
func NewMachine(deps Deps) *Machine {
	return &Machine{deps: deps, st: State{Stage: StageStart}}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.st
	s.Images = append([]*problem.Image(nil), m.st.Images...)
	s.Practice = append([]problem.Practice(nil), m.st.Practice...)
	return s
}

// Stage returns the current stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Stage
}

// BeginScan moves Start to Scanning.
func (m *Machine) BeginScan() error {
	return m.move(StageScanning, func(s *State) bool { return s.Stage == StageStart })
}

// OpenFavorites moves Start to Favorites.
func (m *Machine) OpenFavorites() error {
	return m.move(StageFavorites, func(s *State) bool { return s.Stage == StageStart })
}

var backTargets = map[Stage]Stage{
	StageScanning:   StageStart,
	StageUserInput:  StageStart,
	StageComparison: StageUserInput,
	StagePractice:   StageComparison,
	StageFavorites:  StageStart,
}

// Back moves one stage upstream. Computed records are kept.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	to, ok := backTargets[m.st.Stage]
	if !ok {
		return &TransitionError{From: m.st.Stage, To: m.st.Stage}
	}
	if m.st.Busy {
		return ErrBusy
	}
	m.transition(to)
	return nil
}

// Forward re-enters the next stage when its record already exists.
func (m *Machine) Forward() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Busy {
		return ErrBusy
	}
	var to Stage
	var ready bool
	switch m.st.Stage {
	case StageStart:
		to, ready = StageUserInput, m.st.Problem != nil
	case StageUserInput:
		to, ready = StageComparison, m.st.Comparison != nil
	case StageComparison:
		to, ready = StagePractice, len(m.st.Practice) > 0
	default:
		return &TransitionError{From: m.st.Stage, To: m.st.Stage}
	}
	if !ready {
		return &TransitionError{From: m.st.Stage, To: to}
	}
	m.transition(to)
	return nil
}

// Reset clears every record, cancels any in-flight operation and returns
// to Start. It is legal from any stage.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	epoch := m.st.Epoch + 1
	m.st = State{Stage: StageStart, Epoch: epoch}
	m.deps.Log.Debug("session reset", "epoch", epoch)
}

// SubmitCapture recognizes the captured images and draws the diagram,
// moving Scanning through Analyzing to UserInput. On failure the machine
// returns to Start with Err set.
func (m *Machine) SubmitCapture(ctx context.Context, images []*problem.Image, subject problem.Subject) error {
	opCtx, epoch, err := m.begin(ctx, StageAnalyzing, func(s *State) bool { return s.Stage == StageScanning }, func(s *State) {
		s.Stage = StageAnalyzing
		s.Images = append([]*problem.Image(nil), images...)
		s.Subject = subject
	})
	if err != nil {
		return err
	}

	rec, err := m.deps.Recognizer.Recognize(opCtx, images, subject)
	if err == nil {
		rec = m.attachDiagram(opCtx, rec, images)
	}

	return m.finish(epoch, func(s *State) error {
		if err != nil {
			s.Stage = StageStart
			s.Err = &StageError{Stage: StageAnalyzing, Err: err, Retryable: len(images) > 0}
			return err
		}
		s.Problem = rec
		s.Comparison = nil
		s.Practice = nil
		s.LearnerInput = ""
		s.Stage = StageUserInput
		return nil
	})
}

func (m *Machine) attachDiagram(ctx context.Context, rec *problem.Record, images []*problem.Image) *problem.Record {
	var seed *problem.Image
	if len(images) > 0 {
		seed = images[0]
	}
	// A populated grid is rendered natively; no image is needed.
	if m.deps.Diagrams != nil && !rec.GridData.HasContent() {
		if img := m.deps.Diagrams.RunWithQuestion(ctx, rec.DiagramDescription, rec.OriginalText, seed); img != nil {
			rec = rec.WithDiagram(img)
		}
	}
	if seed != nil {
		rec = rec.WithSourceImage(seed)
	}
	return rec
}

// SubmitReasoning compares the learner's reasoning and moves UserInput to
// Comparison. On failure the machine stays in UserInput with the input
// kept.
func (m *Machine) SubmitReasoning(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.st.Stage != StageUserInput {
			return &TransitionError{From: m.st.Stage, To: StageComparison}
		}
		if m.st.Busy {
			return ErrBusy
		}
		m.st.LearnerInput = text
		m.st.Err = &StageError{Stage: StageUserInput, Err: ErrEmptyReasoning}
		return ErrEmptyReasoning
	}

	var rec *problem.Record
	opCtx, epoch, err := m.begin(ctx, StageComparison, func(s *State) bool {
		return s.Stage == StageUserInput && s.Problem != nil
	}, func(s *State) {
		s.LearnerInput = text
		rec = s.Problem
	})
	if err != nil {
		return err
	}

	cmp, err := m.deps.Comparator.Compare(opCtx, rec, text)

	return m.finish(epoch, func(s *State) error {
		if err != nil {
			s.Err = &StageError{Stage: StageUserInput, Err: err, Retryable: true}
			return err
		}
		s.Comparison = cmp
		s.Practice = nil
		s.Stage = StageComparison
		return nil
	})
}

// GeneratePractice builds the practice batch and moves Comparison to
// Practice. On failure the machine stays in Comparison.
func (m *Machine) GeneratePractice(ctx context.Context) error {
	var (
		rec  *problem.Record
		weak []string
	)
	opCtx, epoch, err := m.begin(ctx, StagePractice, func(s *State) bool {
		return s.Stage == StageComparison && s.Comparison != nil
	}, func(s *State) {
		rec = s.Problem
		weak = s.Comparison.WeakPoints
	})
	if err != nil {
		return err
	}

	items, err := m.deps.Practice.Generate(opCtx, weak, rec)

	return m.finish(epoch, func(s *State) error {
		if err != nil {
			s.Err = &StageError{Stage: StageComparison, Err: err, Retryable: true}
			return err
		}
		s.Practice = items
		s.Stage = StagePractice
		return nil
	})
}

// Retry re-runs the operation behind the pending StageError.
func (m *Machine) Retry(ctx context.Context) error {
	m.mu.Lock()
	serr := m.st.Err
	if serr == nil || !serr.Retryable || m.st.Busy {
		m.mu.Unlock()
		return ErrNothingToRetry
	}
	switch serr.Stage {
	case StageAnalyzing:
		if m.st.Stage != StageStart {
			m.mu.Unlock()
			return ErrNothingToRetry
		}
		images, subject := m.st.Images, m.st.Subject
		m.st.Stage = StageScanning
		m.mu.Unlock()
		return m.SubmitCapture(ctx, images, subject)
	case StageUserInput:
		text := m.st.LearnerInput
		m.mu.Unlock()
		return m.SubmitReasoning(ctx, text)
	case StageComparison:
		m.mu.Unlock()
		return m.GeneratePractice(ctx)
	default:
		m.mu.Unlock()
		return ErrNothingToRetry
	}
}

// move performs a synchronous transition guarded by legal.
func (m *Machine) move(to Stage, legal func(*State) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !legal(&m.st) {
		return &TransitionError{From: m.st.Stage, To: to}
	}
	if m.st.Busy {
		return ErrBusy
	}
	m.transition(to)
	return nil
}

func (m *Machine) transition(to Stage) {
	m.deps.Log.Debug("session transition", "from", m.st.Stage.String(), "to", to.String())
	m.st.Stage = to
	m.st.Err = nil
}

// begin starts a pipeline operation: it checks the guard, marks the
// machine busy and captures the epoch the result must commit under.
func (m *Machine) begin(ctx context.Context, to Stage, legal func(*State) bool, prepare func(*State)) (context.Context, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Busy {
		return nil, 0, ErrBusy
	}
	if !legal(&m.st) {
		return nil, 0, &TransitionError{From: m.st.Stage, To: to}
	}
	opCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.st.Busy = true
	m.st.Err = nil
	prepare(&m.st)
	m.deps.Log.Debug("session operation started", "stage", m.st.Stage.String(), "target", to.String(), "epoch", m.st.Epoch)
	return opCtx, m.st.Epoch, nil
}

// finish commits an operation's result unless the session was reset while
// it ran.
func (m *Machine) finish(epoch uint64, commit func(*State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Epoch != epoch {
		m.deps.Log.Debug("discarding stale result", "epoch", epoch, "current", m.st.Epoch)
		return ErrStale
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.st.Busy = false
	err := commit(&m.st)
	if err != nil {
		m.deps.Log.Warn("session stage failed", "stage", m.st.Stage.String(), "error", err)
	} else {
		m.deps.Log.Debug("session transition", "to", m.st.Stage.String())
	}
	return err
}

// IsStale reports whether err means a discarded result.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }
