package problemgen

import (
	"fmt"

	"github.com/abhisek/examlens/internal/problem"
)

// Validator checks a generated practice item.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator (for error messages
	// and logging), e.g. "structural", "distinct".
	Name() string

	// Validate checks the item and returns nil if it passes.
	Validate(item *problem.Practice, input GenerateInput) *ValidationError
}

// ValidationError describes why an item failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Index     int    // Position of the item in the batch
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: item %d: %s", e.Validator, e.Index+1, e.Message)
}
