package problemgen

import (
	"strings"
	"unicode"

	"github.com/abhisek/examlens/internal/problem"
)

// DistinctValidator rejects practice items that restate the source
// question instead of varying it.
type DistinctValidator struct{}

func (v *DistinctValidator) Name() string { return "distinct" }

func (v *DistinctValidator) Validate(p *problem.Practice, input GenerateInput) *ValidationError {
	if input.Problem == nil {
		return nil
	}
	if normalizeQuestion(p.Question) == normalizeQuestion(input.Problem.OriginalText) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question repeats the original problem",
			Retryable: true,
		}
	}
	return nil
}

// normalizeQuestion folds case, whitespace and punctuation so trivially
// reformatted copies compare equal.
func normalizeQuestion(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findDuplicate returns the index of the first item whose question repeats
// an earlier one, or -1.
func findDuplicate(items []problem.Practice) int {
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		key := normalizeQuestion(it.Question)
		if seen[key] {
			return i
		}
		seen[key] = true
	}
	return -1
}
