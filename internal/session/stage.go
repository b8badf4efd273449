// Package session sequences the pipeline into navigable stages.
package session

import (
	"errors"
	"fmt"

	"github.com/abhisek/examlens/internal/problem"
)

// Stage is a step of the workflow.
type Stage int

const (
	StageStart Stage = iota
	StageScanning
	StageAnalyzing
	StageUserInput
	StageComparison
	StagePractice
	StageFavorites
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageScanning:
		return "scanning"
	case StageAnalyzing:
		return "analyzing"
	case StageUserInput:
		return "user-input"
	case StageComparison:
		return "comparison"
	case StagePractice:
		return "practice"
	case StageFavorites:
		return "favorites"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// State is the live session. Machine hands out copies via Snapshot.
type State struct {
	Stage Stage

	Problem    *problem.Record
	Comparison *problem.Comparison
	Practice   []problem.Practice

	// LearnerInput is kept across failed comparisons.
	LearnerInput string

	// Images and Subject are the last capture, kept for retry.
	Images  []*problem.Image
	Subject problem.Subject

	// Err is the last stage failure, cleared by the next transition.
	Err *StageError

	// Busy is set while a pipeline operation is in flight.
	Busy bool

	// Epoch increases on every Reset. Results computed under an older
	// epoch are discarded.
	Epoch uint64
}

var (
	// ErrStale is returned by an operation whose result was discarded
	// because the session was reset while it ran.
	ErrStale = errors.New("session: result discarded after reset")

	// ErrBusy is returned when a pipeline operation is already in flight.
	ErrBusy = errors.New("session: another operation is in progress")

	// ErrEmptyReasoning is returned when the learner submits blank text.
	ErrEmptyReasoning = errors.New("session: reasoning is empty")

	// ErrNothingToRetry is returned by Retry when no failure is pending.
	ErrNothingToRetry = errors.New("session: nothing to retry")
)

// TransitionError reports an illegal move. State is left untouched.
type TransitionError struct {
	From, To Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("session: cannot move from %s to %s", e.From, e.To)
}

// StageError is a hard failure surfaced to the user. Retryable failures
// can be re-run with Machine.Retry.
type StageError struct {
	Stage     Stage
	Err       error
	Retryable bool
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
