package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/examlens/internal/problem"
)

const (
	maxQuestionLen = 2000
	maxStepLen     = 1500
	maxAnswerLen   = 300
)

// StructuralValidator checks that required fields are present, within
// length limits, and have valid enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(p *problem.Practice, _ GenerateInput) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...), Retryable: true}
	}

	if strings.TrimSpace(p.Question) == "" {
		return fail("question is empty")
	}
	if len(p.Question) > maxQuestionLen {
		return fail("question exceeds %d characters", maxQuestionLen)
	}
	if len(p.Solution) == 0 {
		return fail("solution has no steps")
	}
	for i, step := range p.Solution {
		if strings.TrimSpace(step) == "" {
			return fail("solution step %d is empty", i+1)
		}
		if len(step) > maxStepLen {
			return fail("solution step %d exceeds %d characters", i+1, maxStepLen)
		}
	}
	if strings.TrimSpace(p.Answer) == "" {
		return fail("answer is empty")
	}
	if len(p.Answer) > maxAnswerLen {
		return fail("answer exceeds %d characters", maxAnswerLen)
	}
	if !p.Difficulty.Valid() {
		return fail("difficulty must be \"easy\", \"medium\", or \"hard\", got %q", p.Difficulty)
	}
	return nil
}
