package problemgen

import (
	"context"

	"github.com/abhisek/examlens/internal/problem"
)

// BatchSize is the number of practice questions per batch.
const BatchSize = 3

// GenerateInput holds all context needed to generate a practice batch.
type GenerateInput struct {
	// WeakPoints are the concept tags from the comparison. The batch
	// targets them.
	WeakPoints []string

	// Problem is the recognized question. Practice items keep its
	// subject and problem type.
	Problem *problem.Record
}

// DiagramLoop draws a (verified where possible) diagram for one question.
// *diagram.Loop satisfies it.
type DiagramLoop interface {
	Run(ctx context.Context, description string, seed *problem.Image) *problem.Image
}
