package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Started by go.opencensus.io package init (transitive dep of google.golang.org/genai).
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type recognizeFunc func(context.Context, []*problem.Image, problem.Subject) (*problem.Record, error)

func (f recognizeFunc) Recognize(ctx context.Context, images []*problem.Image, s problem.Subject) (*problem.Record, error) {
	return f(ctx, images, s)
}

type diagramFunc func(ctx context.Context, description, question string, seed *problem.Image) *problem.Image

func (f diagramFunc) RunWithQuestion(ctx context.Context, description, question string, seed *problem.Image) *problem.Image {
	return f(ctx, description, question, seed)
}

type compareFunc func(context.Context, *problem.Record, string) (*problem.Comparison, error)

func (f compareFunc) Compare(ctx context.Context, p *problem.Record, in string) (*problem.Comparison, error) {
	return f(ctx, p, in)
}

type practiceFunc func(context.Context, []string, *problem.Record) ([]problem.Practice, error)

func (f practiceFunc) Generate(ctx context.Context, weak []string, p *problem.Record) ([]problem.Practice, error) {
	return f(ctx, weak, p)
}

var (
	capture  = &problem.Image{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}}
	drawn    = &problem.Image{MIMEType: "image/png", Data: []byte{1}}
	testRec  = &problem.Record{OriginalText: "q", DiagramDescription: "d", ProblemType: "physics"}
	testCmp  = &problem.Comparison{AnalysisText: "a", WeakPoints: []string{"w"}}
	testPrac = []problem.Practice{
		{Question: "p1", Difficulty: problem.DifficultyEasy},
		{Question: "p2", Difficulty: problem.DifficultyMedium},
		{Question: "p3", Difficulty: problem.DifficultyHard},
	}
)

// happyDeps succeeds at every stage.
func happyDeps() Deps {
	return Deps{
		Recognizer: recognizeFunc(func(context.Context, []*problem.Image, problem.Subject) (*problem.Record, error) {
			r := *testRec
			return &r, nil
		}),
		Diagrams: diagramFunc(func(context.Context, string, string, *problem.Image) *problem.Image { return drawn }),
		Comparator: compareFunc(func(context.Context, *problem.Record, string) (*problem.Comparison, error) {
			return testCmp, nil
		}),
		Practice: practiceFunc(func(context.Context, []string, *problem.Record) ([]problem.Practice, error) {
			return testPrac, nil
		}),
		Log: logger.Nop(),
	}
}

// advance drives a machine to the given stage with happy deps.
func advance(t *testing.T, m *Machine, to Stage) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		stage Stage
		run   func() error
	}{
		{StageScanning, m.BeginScan},
		{StageUserInput, func() error { return m.SubmitCapture(ctx, []*problem.Image{capture}, problem.SubjectAuto) }},
		{StageComparison, func() error { return m.SubmitReasoning(ctx, "my reasoning") }},
		{StagePractice, func() error { return m.GeneratePractice(ctx) }},
	}
	for _, s := range steps {
		if m.Stage() == to {
			return
		}
		if err := s.run(); err != nil {
			t.Fatalf("advance to %s: %v", s.stage, err)
		}
	}
	if m.Stage() != to {
		t.Fatalf("could not reach %s, at %s", to, m.Stage())
	}
}

func TestHappyPath(t *testing.T) {
	m := NewMachine(happyDeps())
	advance(t, m, StagePractice)

	s := m.Snapshot()
	if s.Problem.Diagram != drawn || s.Problem.SourceImage != capture {
		t.Errorf("problem should carry diagram and source image: %+v", s.Problem)
	}
	if testRec.Diagram != nil {
		t.Error("recognized record must not be mutated")
	}
	if s.Comparison != testCmp || len(s.Practice) != 3 || s.LearnerInput != "my reasoning" {
		t.Errorf("unexpected state: %+v", s)
	}
	if s.Busy || s.Err != nil {
		t.Errorf("machine should be idle: busy=%v err=%v", s.Busy, s.Err)
	}
}

func TestGridSkipsDiagramLoop(t *testing.T) {
	deps := happyDeps()
	grid := &problem.Grid{}
	cell := "5"
	grid[1][1] = &cell
	deps.Recognizer = recognizeFunc(func(context.Context, []*problem.Image, problem.Subject) (*problem.Record, error) {
		return &problem.Record{OriginalText: "magic square", DiagramDescription: "grid", GridData: grid}, nil
	})
	called := false
	deps.Diagrams = diagramFunc(func(context.Context, string, string, *problem.Image) *problem.Image {
		called = true
		return drawn
	})
	m := NewMachine(deps)
	advance(t, m, StageUserInput)

	if called {
		t.Error("diagram loop should not run for grid problems")
	}
	if r := m.Snapshot().Problem.Render(); r != problem.RenderGrid {
		t.Errorf("render = %s", r)
	}
}

func TestIllegalTransitionsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		at     Stage
		op     func(m *Machine) error
		wantTo Stage
	}{
		{"scan from user input", StageUserInput, func(m *Machine) error { return m.BeginScan() }, StageScanning},
		{"capture from start", StageStart, func(m *Machine) error {
			return m.SubmitCapture(ctx, []*problem.Image{capture}, problem.SubjectAuto)
		}, StageAnalyzing},
		{"reasoning from start", StageStart, func(m *Machine) error { return m.SubmitReasoning(ctx, "x") }, StageComparison},
		{"practice from user input", StageUserInput, func(m *Machine) error { return m.GeneratePractice(ctx) }, StagePractice},
		{"favorites from comparison", StageComparison, func(m *Machine) error { return m.OpenFavorites() }, StageFavorites},
		{"forward without comparison", StageUserInput, func(m *Machine) error { return m.Forward() }, StageComparison},
		{"forward without problem", StageStart, func(m *Machine) error { return m.Forward() }, StageUserInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(happyDeps())
			advance(t, m, tt.at)
			before := m.Snapshot()

			err := tt.op(m)
			var terr *TransitionError
			if !errors.As(err, &terr) {
				t.Fatalf("expected TransitionError, got %v", err)
			}
			if terr.From != tt.at || terr.To != tt.wantTo {
				t.Errorf("transition error = %v", terr)
			}
			after := m.Snapshot()
			if after.Stage != before.Stage || after.Problem != before.Problem || after.Comparison != before.Comparison {
				t.Errorf("state changed: %+v -> %+v", before, after)
			}
		})
	}
}

func TestBackPreservesRecordsAndForwardResumes(t *testing.T) {
	m := NewMachine(happyDeps())
	advance(t, m, StagePractice)

	wantBack := []Stage{StageComparison, StageUserInput, StageStart}
	for _, want := range wantBack {
		if err := m.Back(); err != nil {
			t.Fatalf("back: %v", err)
		}
		if m.Stage() != want {
			t.Fatalf("stage = %s, want %s", m.Stage(), want)
		}
	}
	s := m.Snapshot()
	if s.Problem == nil || s.Comparison == nil || len(s.Practice) != 3 {
		t.Fatal("back must keep records")
	}

	for _, want := range []Stage{StageUserInput, StageComparison, StagePractice} {
		if err := m.Forward(); err != nil {
			t.Fatalf("forward: %v", err)
		}
		if m.Stage() != want {
			t.Fatalf("stage = %s, want %s", m.Stage(), want)
		}
	}
	if err := m.Forward(); err == nil {
		t.Error("no stage after practice")
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	m := NewMachine(happyDeps())
	if err := m.OpenFavorites(); err != nil {
		t.Fatalf("open favorites: %v", err)
	}
	if err := m.Back(); err != nil || m.Stage() != StageStart {
		t.Fatalf("back from favorites: %v, %s", err, m.Stage())
	}
	if err := m.Back(); err == nil {
		t.Error("no stage before start")
	}
}

func TestRecognitionFailureReturnsToStart(t *testing.T) {
	deps := happyDeps()
	calls := 0
	deps.Recognizer = recognizeFunc(func(context.Context, []*problem.Image, problem.Subject) (*problem.Record, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("parse failed")
		}
		return testRec, nil
	})
	m := NewMachine(deps)
	m.BeginScan()

	err := m.SubmitCapture(context.Background(), []*problem.Image{capture}, problem.SubjectPhysics)
	if err == nil {
		t.Fatal("expected error")
	}
	s := m.Snapshot()
	if s.Stage != StageStart || s.Problem != nil {
		t.Fatalf("expected Start without problem, got %s %+v", s.Stage, s.Problem)
	}
	if s.Err == nil || s.Err.Stage != StageAnalyzing || !s.Err.Retryable {
		t.Fatalf("expected retryable analyzing error, got %+v", s.Err)
	}

	if err := m.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	s = m.Snapshot()
	if s.Stage != StageUserInput || s.Subject != problem.SubjectPhysics || s.Err != nil {
		t.Errorf("retry should reuse the capture: %+v", s)
	}
}

func TestComparisonFailureKeepsInput(t *testing.T) {
	deps := happyDeps()
	fail := true
	deps.Comparator = compareFunc(func(context.Context, *problem.Record, string) (*problem.Comparison, error) {
		if fail {
			return nil, errors.New("both tiers failed")
		}
		return testCmp, nil
	})
	m := NewMachine(deps)
	advance(t, m, StageUserInput)

	if err := m.SubmitReasoning(context.Background(), "radius ratio 1:2:1"); err == nil {
		t.Fatal("expected error")
	}
	s := m.Snapshot()
	if s.Stage != StageUserInput || s.LearnerInput != "radius ratio 1:2:1" || s.Comparison != nil {
		t.Fatalf("unexpected state: %+v", s)
	}
	if s.Err == nil || s.Err.Stage != StageUserInput {
		t.Fatalf("expected stage error, got %v", s.Err)
	}

	fail = false
	if err := m.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if m.Stage() != StageComparison {
		t.Errorf("stage = %s", m.Stage())
	}
}

func TestEmptyReasoningIsRejected(t *testing.T) {
	m := NewMachine(happyDeps())
	advance(t, m, StageUserInput)

	err := m.SubmitReasoning(context.Background(), "   ")
	if !errors.Is(err, ErrEmptyReasoning) {
		t.Fatalf("expected ErrEmptyReasoning, got %v", err)
	}
	s := m.Snapshot()
	if s.Stage != StageUserInput || s.Err == nil || s.Err.Retryable {
		t.Errorf("unexpected state: %+v", s)
	}
	if err := m.Retry(context.Background()); !errors.Is(err, ErrNothingToRetry) {
		t.Errorf("empty input is not retryable, got %v", err)
	}
}

func TestPracticeFailureStaysInComparison(t *testing.T) {
	deps := happyDeps()
	deps.Practice = practiceFunc(func(context.Context, []string, *problem.Record) ([]problem.Practice, error) {
		return nil, errors.New("skeleton invalid")
	})
	m := NewMachine(deps)
	advance(t, m, StageComparison)

	if err := m.GeneratePractice(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	s := m.Snapshot()
	if s.Stage != StageComparison || s.Practice != nil {
		t.Errorf("should stay in comparison without practice: %+v", s)
	}
	if err := m.Forward(); err == nil {
		t.Error("forward to practice must fail without a batch")
	}
}

func TestResetClearsEverything(t *testing.T) {
	m := NewMachine(happyDeps())
	advance(t, m, StagePractice)

	m.Reset()
	s := m.Snapshot()
	if s.Stage != StageStart || s.Problem != nil || s.Comparison != nil || s.Practice != nil || s.LearnerInput != "" || s.Images != nil {
		t.Errorf("reset should clear records: %+v", s)
	}
	if s.Epoch != 1 {
		t.Errorf("epoch = %d, want 1", s.Epoch)
	}
}

func waitBusy(t *testing.T, m *Machine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !m.Snapshot().Busy {
		if time.Now().After(deadline) {
			t.Fatal("operation never started")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestResetDiscardsStaleResult(t *testing.T) {
	release := make(chan struct{})
	deps := happyDeps()
	// Ignores cancellation so only the epoch check protects the state.
	deps.Recognizer = recognizeFunc(func(context.Context, []*problem.Image, problem.Subject) (*problem.Record, error) {
		<-release
		return testRec, nil
	})
	m := NewMachine(deps)
	m.BeginScan()

	done := make(chan error, 1)
	go func() {
		done <- m.SubmitCapture(context.Background(), []*problem.Image{capture}, problem.SubjectAuto)
	}()
	waitBusy(t, m)

	if err := m.BeginScan(); err == nil {
		t.Error("scan while analyzing should fail")
	}
	m.Reset()
	close(release)

	if err := <-done; !errors.Is(err, ErrStale) || !IsStale(err) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	s := m.Snapshot()
	if s.Stage != StageStart || s.Problem != nil || s.Busy {
		t.Errorf("stale result resurrected state: %+v", s)
	}
}

func TestResetCancelsInFlightCall(t *testing.T) {
	deps := happyDeps()
	blocking := true
	deps.Comparator = compareFunc(func(ctx context.Context, _ *problem.Record, _ string) (*problem.Comparison, error) {
		if !blocking {
			return testCmp, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := NewMachine(deps)
	advance(t, m, StageUserInput)

	done := make(chan error, 1)
	go func() { done <- m.SubmitReasoning(context.Background(), "reasoning") }()
	waitBusy(t, m)

	if err := m.Back(); !errors.Is(err, ErrBusy) {
		t.Errorf("back while busy: got %v, want ErrBusy", err)
	}
	if err := m.SubmitReasoning(context.Background(), "again"); !errors.Is(err, ErrBusy) {
		t.Errorf("second submit: got %v, want ErrBusy", err)
	}

	m.Reset()
	select {
	case err := <-done:
		if !errors.Is(err, ErrStale) {
			t.Fatalf("expected ErrStale, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight call was not cancelled")
	}

	// The machine accepts new work after the reset.
	blocking = false
	advance(t, m, StageComparison)
}
