package problemgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/examlens/internal/llm"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

func testProblem() *problem.Record {
	return &problem.Record{
		OriginalText:       "Three wheels with radii r, 2r and r share a belt. Find the ratio of angular speeds.",
		Subject:            "Physics",
		Grade:              "10",
		FinalAnswer:        "2:1:2",
		KeyKnowledgePoints: []string{"circular motion"},
		ProblemType:        "physics: circular motion",
	}
}

func validBatchJSON() json.RawMessage {
	return json.RawMessage(`{"items": [
		{"question": "Two gears with radii 3 cm and 6 cm mesh. Find the ratio of angular speeds.", "solution": ["Contact speed is equal.", "omega1/omega2 = 6/3."], "answer": "2:1", "difficulty": "easy", "problem_type": "physics: circular motion"},
		{"question": "A belt links wheels of radius 10 cm and 25 cm. The small wheel turns at 5 rad/s. Find the large wheel's angular speed.", "solution": ["v = 0.5 m/s.", "omega = 0.5/0.25."], "answer": "2 rad/s", "difficulty": "Medium", "problem_type": ""},
		{"question": "Wheels A, B and C of radii r, 3r and 2r share a belt; B is fixed to a coaxial wheel D of radius r. Find omega_A : omega_D.", "solution": ["Belt speed equal for A, B, C.", "B and D share omega."], "answer": "3:1", "difficulty": "hard", "problem_type": "physics: circular motion"}
	]}`)
}

// recordingLoop is a DiagramLoop that records calls and returns a diagram
// for every question except those listed in skip.
type recordingLoop struct {
	mu        sync.Mutex
	questions []string
	skip      map[int]bool
	onCall    func(i int)
}

func (l *recordingLoop) Run(_ context.Context, description string, seed *problem.Image) *problem.Image {
	l.mu.Lock()
	i := len(l.questions)
	l.questions = append(l.questions, description)
	l.mu.Unlock()
	if l.onCall != nil {
		l.onCall(i)
	}
	if seed != nil || l.skip[i] {
		return nil
	}
	return &problem.Image{MIMEType: "image/png", Data: []byte{byte(i + 1)}}
}

func TestGenerate_BatchWithDiagrams(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validBatchJSON()})
	loop := &recordingLoop{skip: map[int]bool{1: true}}
	gen := New(mock, loop, DefaultConfig(), logger.Nop())

	items, err := gen.Generate(context.Background(), []string{"belt drive linear speed"}, testProblem())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != BatchSize {
		t.Fatalf("expected %d items, got %d", BatchSize, len(items))
	}
	for i, it := range items {
		if !it.Difficulty.Valid() {
			t.Errorf("item %d: invalid difficulty %q", i, it.Difficulty)
		}
		if loop.questions[i] != it.Question {
			t.Errorf("item %d: loop ran for %q, want the item's question", i, loop.questions[i])
		}
	}
	if items[1].Difficulty != problem.DifficultyMedium {
		t.Errorf("difficulty should be normalized, got %q", items[1].Difficulty)
	}
	if items[1].ProblemType != "physics: circular motion" {
		t.Errorf("empty problem type should inherit the original, got %q", items[1].ProblemType)
	}
	if items[0].Diagram == nil || items[1].Diagram != nil || items[2].Diagram == nil {
		t.Errorf("diagrams should attach independently: %v %v %v", items[0].Diagram, items[1].Diagram, items[2].Diagram)
	}
	if items[0].GridData != nil {
		t.Error("practice items carry no grid data")
	}

	req := mock.Call(0)
	if req.Schema != PracticeBatchSchema {
		t.Error("expected practice-batch schema")
	}
	if !strings.Contains(req.Messages[0].Content, "1. belt drive linear speed") {
		t.Errorf("weak points missing from prompt: %q", req.Messages[0].Content)
	}
}

func TestGenerate_SkeletonFailures(t *testing.T) {
	tests := []struct {
		name     string
		resp     llm.MockResponse
		wantVErr string
	}{
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}, ""},
		{"not json", llm.MockResponse{Content: json.RawMessage(`oops`)}, ""},
		{"two items", llm.MockResponse{Content: json.RawMessage(`{"items":[{"question":"a"},{"question":"b"}]}`)}, ""},
		{"bad difficulty", llm.MockResponse{Content: json.RawMessage(strings.Replace(string(validBatchJSON()), `"hard"`, `"expert"`, 1))}, "structural"},
		{"empty answer", llm.MockResponse{Content: json.RawMessage(strings.Replace(string(validBatchJSON()), `"2:1"`, `""`, 1))}, "structural"},
		{"duplicate items", llm.MockResponse{Content: json.RawMessage(`{"items":[
			{"question":"Q one?","solution":["s"],"answer":"a","difficulty":"easy","problem_type":"t"},
			{"question":"q ONE","solution":["s"],"answer":"a","difficulty":"medium","problem_type":"t"},
			{"question":"Q three?","solution":["s"],"answer":"a","difficulty":"hard","problem_type":"t"}]}`)}, "distinct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := &recordingLoop{}
			gen := New(llm.NewMockProvider(tt.resp), loop, DefaultConfig(), logger.Nop())

			items, err := gen.Generate(context.Background(), nil, testProblem())
			if err == nil || items != nil {
				t.Fatalf("expected hard failure, got %v, %v", items, err)
			}
			if len(loop.questions) != 0 {
				t.Error("no enrichment after a skeleton failure")
			}
			var verr *ValidationError
			if tt.wantVErr == "" {
				if errors.As(err, &verr) {
					t.Errorf("unexpected validation error: %v", err)
				}
				return
			}
			if !errors.As(err, &verr) || verr.Validator != tt.wantVErr {
				t.Errorf("expected %s validation error, got %v", tt.wantVErr, err)
			}
		})
	}
}

func TestGenerate_CancelStopsEnrichment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := &recordingLoop{onCall: func(i int) {
		if i == 0 {
			cancel()
		}
	}}
	gen := New(llm.NewMockProvider(llm.MockResponse{Content: validBatchJSON()}), loop, DefaultConfig(), logger.Nop())

	_, err := gen.Generate(ctx, nil, testProblem())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(loop.questions) != 1 {
		t.Errorf("enrichment should stop after cancel, ran %d times", len(loop.questions))
	}
}

func TestGenerate_NilLoopSkipsDiagrams(t *testing.T) {
	gen := New(llm.NewMockProvider(llm.MockResponse{Content: validBatchJSON()}), nil, DefaultConfig(), logger.Nop())

	items, err := gen.Generate(context.Background(), nil, testProblem())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, it := range items {
		if it.Diagram != nil {
			t.Error("expected no diagrams")
		}
	}
}

func TestGenerate_Purpose(t *testing.T) {
	var purpose string
	p := providerFunc(func(ctx context.Context, _ llm.Request) (*llm.Response, error) {
		purpose = llm.PurposeFrom(ctx)
		return &llm.Response{Content: validBatchJSON()}, nil
	})
	if _, err := New(p, nil, DefaultConfig(), nil).Generate(context.Background(), nil, testProblem()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purpose != llm.PurposePractice {
		t.Errorf("purpose = %q", purpose)
	}
}

type providerFunc func(context.Context, llm.Request) (*llm.Response, error)

func (f providerFunc) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

func (f providerFunc) ModelID() string { return "func" }
