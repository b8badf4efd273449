package study

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/router"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/store"
)

type fakeRecognizer struct {
	err     error
	subject problem.Subject
	images  int
}

func (f *fakeRecognizer) Recognize(_ context.Context, images []*problem.Image, s problem.Subject) (*problem.Record, error) {
	f.subject, f.images = s, len(images)
	if f.err != nil {
		return nil, f.err
	}
	return &problem.Record{
		OriginalText:       "Find the angular speed ratio of the three pulleys.",
		Subject:            string(problem.SubjectPhysics),
		StandardSolution:   []string{"Equal rim speed.", "omega = v / r."},
		FinalAnswer:        "2:1:2",
		KeyKnowledgePoints: []string{"circular motion"},
		DiagramDescription: "three pulleys",
	}, nil
}

type fakeLoop struct{}

func (fakeLoop) RunWithQuestion(context.Context, string, string, *problem.Image) *problem.Image {
	return &problem.Image{MIMEType: "image/png", Data: []byte{1, 2, 3}}
}

type fakeComparator struct{ err error }

func (f *fakeComparator) Compare(context.Context, *problem.Record, string) (*problem.Comparison, error) {
	if f.err != nil {
		return nil, f.err
	}
	return problem.NewComparison("Ratio inverted.", []string{"omega ~ 1/r"}, []string{"belt drives"},
		[]problem.Reference{{Title: "Belts", URI: "https://example.org/belts"}}, nil), nil
}

type fakePractice struct{}

func (fakePractice) Generate(context.Context, []string, *problem.Record) ([]problem.Practice, error) {
	return []problem.Practice{
		{Question: "gear pair", Solution: []string{"s"}, Answer: "2:1", Difficulty: problem.DifficultyEasy},
		{Question: "belt pair", Solution: []string{"s"}, Answer: "2 rad/s", Difficulty: problem.DifficultyMedium},
		{Question: "coaxial wheels", Solution: []string{"s"}, Answer: "3:1", Difficulty: problem.DifficultyHard},
	}, nil
}

type fixture struct {
	screen  *StudyScreen
	machine *session.Machine
	rec     *fakeRecognizer
	cmp     *fakeComparator
	favs    *favorites.Service
	outDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	favs, err := favorites.Load(context.Background(), s.FavoriteRepo(), logger.Nop())
	if err != nil {
		t.Fatalf("load favorites: %v", err)
	}

	f := &fixture{rec: &fakeRecognizer{}, cmp: &fakeComparator{}, favs: favs, outDir: t.TempDir()}
	f.machine = session.NewMachine(session.Deps{
		Recognizer: f.rec,
		Diagrams:   fakeLoop{},
		Comparator: f.cmp,
		Practice:   fakePractice{},
		Log:        logger.Nop(),
	})
	if err := f.machine.BeginScan(); err != nil {
		t.Fatalf("begin scan: %v", err)
	}
	f.screen = New(context.Background(), f.machine, favs, f.outDir, logger.Nop())
	f.screen.Init()
	return f
}

// send delivers msg and runs the resulting commands to completion,
// feeding their results back. Navigation messages are returned.
func (f *fixture) send(msg tea.Msg) []tea.Msg {
	_, cmd := f.screen.Update(msg)
	return f.drain(cmd)
}

func (f *fixture) drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var nav []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			nav = append(nav, f.drain(c)...)
		}
	case opDoneMsg, savedMsg:
		_, next := f.screen.Update(msg)
		nav = append(nav, f.drain(next)...)
	case router.PopScreenMsg, router.PopToRootMsg:
		nav = append(nav, msg)
	}
	return nav
}

// typeText feeds keystrokes without running the input's cursor commands.
func (f *fixture) typeText(s string) {
	for _, r := range s {
		f.screen.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func key(code rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: code} }

func writePhoto(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFullWalkthrough(t *testing.T) {
	f := newFixture(t)

	a, b := writePhoto(t, "a.jpg"), writePhoto(t, "b.jpg")
	f.screen.paths.SetValue(a + ", " + b)
	f.send(key(tea.KeyTab)) // Math
	f.send(key(tea.KeyTab)) // Physics
	f.send(key(tea.KeyEnter))

	if st := f.machine.Stage(); st != session.StageUserInput {
		t.Fatalf("stage = %s, want user-input (err %q)", st, f.screen.errMsg)
	}
	if f.rec.images != 2 || f.rec.subject != problem.SubjectPhysics {
		t.Errorf("recognizer got %d images, subject %q", f.rec.images, f.rec.subject)
	}
	if v := f.screen.View(100, 60); !strings.Contains(v, "angular speed ratio") || !strings.Contains(v, "Diagram") {
		t.Errorf("problem view missing question or diagram:\n%s", v)
	}

	f.typeText("ratio 1:2:1")
	f.send(key(tea.KeyEnter))
	if st := f.machine.Stage(); st != session.StageComparison {
		t.Fatalf("stage = %s, want comparison", st)
	}
	v := f.screen.View(100, 80)
	for _, want := range []string{"Ratio inverted.", "belt drives", "https://example.org/belts", "2:1:2"} {
		if !strings.Contains(v, want) {
			t.Errorf("comparison view missing %q", want)
		}
	}

	f.send(key('p'))
	if st := f.machine.Stage(); st != session.StagePractice {
		t.Fatalf("stage = %s, want practice", st)
	}

	f.send(key(tea.KeyRight))
	f.send(key('f'))
	if !f.favs.IsFavorite("belt pair") {
		t.Fatal("second practice question should be a favorite")
	}
	if !strings.Contains(f.screen.View(100, 60), "★ favorite") {
		t.Error("favorite marker not shown")
	}
	f.send(key('f'))
	if f.favs.IsFavorite("belt pair") {
		t.Fatal("second toggle should remove the favorite")
	}

	f.send(key('a'))
	if !strings.Contains(f.screen.View(100, 60), "2 rad/s") {
		t.Error("revealed answer not shown")
	}

	f.send(key('s'))
	if _, err := os.Stat(filepath.Join(f.outDir, "problem-diagram.png")); err != nil {
		t.Errorf("problem diagram not saved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.outDir, "practice-1-diagram.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("practice items have no diagrams here, got %v", err)
	}
}

func TestBackNavigationPopsAtStart(t *testing.T) {
	f := newFixture(t)
	f.screen.paths.SetValue(writePhoto(t, "a.jpg"))
	f.send(key(tea.KeyEnter))

	f.typeText("my attempt")
	f.send(key(tea.KeyEnter))
	if f.machine.Stage() != session.StageComparison {
		t.Fatalf("stage = %s", f.machine.Stage())
	}

	if nav := f.send(key(tea.KeyEscape)); len(nav) != 0 {
		t.Fatalf("unexpected navigation %v", nav)
	}
	if f.machine.Stage() != session.StageUserInput {
		t.Fatalf("stage = %s, want user-input", f.machine.Stage())
	}

	nav := f.send(key(tea.KeyEscape))
	if len(nav) != 1 {
		t.Fatalf("expected a pop, got %v", nav)
	}
	if _, ok := nav[0].(router.PopScreenMsg); !ok {
		t.Fatalf("expected PopScreenMsg, got %T", nav[0])
	}
	st := f.machine.Snapshot()
	if st.Stage != session.StageStart || st.Comparison == nil {
		t.Errorf("back should keep records: %+v", st)
	}
}

func TestRecognitionFailureAndRetry(t *testing.T) {
	f := newFixture(t)
	f.rec.err = errors.New("unreadable photo")
	f.screen.paths.SetValue(writePhoto(t, "a.jpg"))
	f.send(key(tea.KeyEnter))

	st := f.machine.Snapshot()
	if st.Stage != session.StageStart || st.Err == nil {
		t.Fatalf("expected start with error, got %s %v", st.Stage, st.Err)
	}
	if v := f.screen.View(100, 40); !strings.Contains(v, "unreadable photo") {
		t.Errorf("error not rendered:\n%s", v)
	}

	f.rec.err = nil
	f.send(key('r'))
	if f.machine.Stage() != session.StageUserInput {
		t.Fatalf("retry should reach user-input, got %s", f.machine.Stage())
	}
}

func TestComparisonFailureKeepsInput(t *testing.T) {
	f := newFixture(t)
	f.screen.paths.SetValue(writePhoto(t, "a.jpg"))
	f.send(key(tea.KeyEnter))

	f.cmp.err = errors.New("both tiers down")
	f.typeText("attempt")
	f.send(key(tea.KeyEnter))

	st := f.machine.Snapshot()
	if st.Stage != session.StageUserInput || st.LearnerInput != "attempt" {
		t.Fatalf("expected to stay with input kept, got %s %q", st.Stage, st.LearnerInput)
	}
	if f.screen.reasoning.Value() != "attempt" {
		t.Errorf("reasoning input = %q", f.screen.reasoning.Value())
	}

	f.cmp.err = nil
	f.send(tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	if f.machine.Stage() != session.StageComparison {
		t.Fatalf("ctrl+r should retry, got %s", f.machine.Stage())
	}
}

func TestEmptyInputs(t *testing.T) {
	f := newFixture(t)

	f.send(key(tea.KeyEnter))
	if f.screen.errMsg == "" || f.machine.Stage() != session.StageScanning {
		t.Fatalf("empty path list should be rejected locally, stage %s", f.machine.Stage())
	}

	f.screen.paths.SetValue(filepath.Join(t.TempDir(), "missing.jpg"))
	f.send(key(tea.KeyEnter))
	if !strings.Contains(f.screen.errMsg, "missing.jpg") {
		t.Fatalf("expected read error, got %q", f.screen.errMsg)
	}

	f.screen.paths.SetValue(writePhoto(t, "a.jpg"))
	f.send(key(tea.KeyEnter))
	f.send(key(tea.KeyEnter))
	if f.machine.Stage() != session.StageUserInput || f.screen.errMsg == "" {
		t.Fatalf("empty reasoning should be rejected, stage %s", f.machine.Stage())
	}
}

func TestResetReturnsHome(t *testing.T) {
	f := newFixture(t)
	f.screen.paths.SetValue(writePhoto(t, "a.jpg"))
	f.send(key(tea.KeyEnter))

	nav := f.send(tea.KeyPressMsg{Code: 'n', Mod: tea.ModCtrl})
	if len(nav) != 1 {
		t.Fatalf("expected pop to root, got %v", nav)
	}
	if _, ok := nav[0].(router.PopToRootMsg); !ok {
		t.Fatalf("expected PopToRootMsg, got %T", nav[0])
	}
	st := f.machine.Snapshot()
	if st.Stage != session.StageStart || st.Problem != nil {
		t.Errorf("reset should clear the session: %+v", st)
	}
}

func TestStaleResultIgnored(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.screen.Update(opDoneMsg{Err: session.ErrStale})
	if cmd != nil || f.screen.errMsg != "" {
		t.Fatal("stale results must be dropped silently")
	}
}
