package problemgen

import (
	"strings"
	"testing"

	"github.com/abhisek/examlens/internal/problem"
)

func validItem() *problem.Practice {
	return &problem.Practice{
		Question:   "Two gears with radii 3 cm and 6 cm mesh. Find the ratio of angular speeds.",
		Solution:   []string{"Contact speed is equal.", "omega1/omega2 = 6/3."},
		Answer:     "2:1",
		Difficulty: problem.DifficultyEasy,
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Validator: "test-validator",
		Index:     1,
		Message:   "something went wrong",
		Retryable: true,
	}
	expected := `validator "test-validator": item 2: something went wrong`
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestDefaultConfig_ValidatorChain(t *testing.T) {
	cfg := DefaultConfig()
	names := []string{"structural", "distinct"}
	if len(cfg.Validators) != len(names) {
		t.Fatalf("expected %d validators, got %d", len(names), len(cfg.Validators))
	}
	for i, v := range cfg.Validators {
		if v.Name() != names[i] {
			t.Errorf("validator %d: expected %q, got %q", i, names[i], v.Name())
		}
	}
}

func TestStructural(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *problem.Practice)
		want   string // substring of the message, empty for pass
	}{
		{"valid", func(p *problem.Practice) {}, ""},
		{"empty question", func(p *problem.Practice) { p.Question = " " }, "question is empty"},
		{"long question", func(p *problem.Practice) { p.Question = strings.Repeat("x", maxQuestionLen+1) }, "question exceeds"},
		{"no steps", func(p *problem.Practice) { p.Solution = nil }, "no steps"},
		{"blank step", func(p *problem.Practice) { p.Solution = []string{"ok", ""} }, "step 2 is empty"},
		{"empty answer", func(p *problem.Practice) { p.Answer = "" }, "answer is empty"},
		{"bad difficulty", func(p *problem.Practice) { p.Difficulty = "trivial" }, "difficulty"},
	}
	v := &StructuralValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validItem()
			tt.mutate(p)
			err := v.Validate(p, GenerateInput{})
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Message, tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
			if err.Validator != "structural" || !err.Retryable {
				t.Errorf("unexpected error fields: %+v", err)
			}
		})
	}
}

func TestDistinct(t *testing.T) {
	v := &DistinctValidator{}
	src := &problem.Record{OriginalText: "Find the ratio of angular speeds!"}

	p := validItem()
	p.Question = "find the RATIO of angular speeds"
	if err := v.Validate(p, GenerateInput{Problem: src}); err == nil {
		t.Error("restated question should fail")
	}
	if err := v.Validate(validItem(), GenerateInput{Problem: src}); err != nil {
		t.Errorf("distinct question should pass: %v", err)
	}
	if err := v.Validate(p, GenerateInput{}); err != nil {
		t.Errorf("no source problem should pass: %v", err)
	}
}

func TestBuildWeakPoints(t *testing.T) {
	got := buildWeakPoints([]string{"a", "b", "c"}, nil, 2)
	if got != "1. a\n2. b" {
		t.Errorf("got %q", got)
	}
	if got := buildWeakPoints(nil, []string{"k"}, 5); got != "1. k" {
		t.Errorf("knowledge points should stand in, got %q", got)
	}
	if got := buildWeakPoints(nil, nil, 5); !strings.HasPrefix(got, "None") {
		t.Errorf("got %q", got)
	}
}
