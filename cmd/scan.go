package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/media"
	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/session"
	"github.com/abhisek/examlens/internal/ui/components"
)

var scanCmd = &cobra.Command{
	Use:   "scan <photo> [photo...]",
	Short: "Run the pipeline once on photographed pages and print the result",
	Long: `Recognizes the question in the given photos (in page order), prints the
standard solution and saves the verified diagram. With --reasoning the
reasoning is compared against the solution; with --practice a practice
batch is generated for the weak points found.

Example:
  examlens scan page1.jpg page2.jpg --subject physics \
    --reasoning "I used v = d/t with the total distance" --practice`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("subject", "s", "", "Subject hint (math, physics, chemistry, ...)")
	scanCmd.Flags().StringP("reasoning", "r", "", "Your reasoning to compare against the solution")
	scanCmd.Flags().BoolP("practice", "p", false, "Generate practice questions (requires --reasoning)")
	scanCmd.Flags().String("out", "", "Directory for saved diagrams")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reasoning, _ := cmd.Flags().GetString("reasoning")
	practice, _ := cmd.Flags().GetBool("practice")
	subject, _ := cmd.Flags().GetString("subject")
	if practice && strings.TrimSpace(reasoning) == "" {
		return errors.New("--practice requires --reasoning")
	}

	images := make([]*problem.Image, 0, len(args))
	for _, p := range args {
		img, err := media.ReadImage(p)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := newGateway(ctx, st.EventRepo())
	if err != nil {
		return err
	}
	pipe := session.NewPipeline(gw, log)
	m := session.NewMachine(pipe.Deps(log.With("component", "session")))

	if err := m.BeginScan(); err != nil {
		return err
	}
	if err := m.SubmitCapture(ctx, images, problem.ParseSubject(subject)); err != nil {
		return fmt.Errorf("recognize question: %w", err)
	}

	out := cmd.OutOrStdout()
	dir := outputDir(cmd)
	snap := m.Snapshot()
	printProblem(out, snap.Problem, saveDiagram(out, dir, "problem-diagram", snap.Problem.Diagram))

	if strings.TrimSpace(reasoning) != "" {
		if err := m.SubmitReasoning(ctx, reasoning); err != nil {
			return fmt.Errorf("compare reasoning: %w", err)
		}
		printComparison(out, m.Snapshot().Comparison)

		if practice {
			if err := m.GeneratePractice(ctx); err != nil {
				return fmt.Errorf("generate practice: %w", err)
			}
			for i, p := range m.Snapshot().Practice {
				saved := saveDiagram(out, dir, fmt.Sprintf("practice-%d-diagram", i+1), p.Diagram)
				printPractice(out, i+1, p, saved)
			}
		}
	}

	stats := pipe.Loop.Stats()
	log.Debug("scan finished", "loop_runs", stats.Runs, "corrections", stats.Corrections, "fail_opens", stats.FailOpens)
	return nil
}

// saveDiagram writes img to dir and returns the path, or "" when there is
// nothing to save or the write failed.
func saveDiagram(w io.Writer, dir, base string, img *problem.Image) string {
	if img == nil {
		return ""
	}
	path, err := img.Save(dir, base)
	if err != nil {
		log.Warn("save diagram failed", "base", base, "error", err)
		fmt.Fprintf(w, "(could not save %s: %v)\n", base, err)
		return ""
	}
	return path
}

func printProblem(w io.Writer, r *problem.Record, saved string) {
	section(w, "QUESTION")
	fmt.Fprintln(w, r.OriginalText)
	meta := nonEmptyJoin(" · ", r.Subject, r.Grade, r.ProblemType)
	if meta != "" {
		fmt.Fprintln(w, meta)
	}

	section(w, "STANDARD SOLUTION")
	for i, step := range r.StandardSolution {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, "\nAnswer: %s\n", r.FinalAnswer)

	if len(r.KeyKnowledgePoints) > 0 {
		section(w, "KEY KNOWLEDGE POINTS")
		for _, k := range r.KeyKnowledgePoints {
			fmt.Fprintf(w, "- %s\n", k)
		}
	}
	printVisual(w, r.GridData, r.Diagram, saved)
}

func printComparison(w io.Writer, c *problem.Comparison) {
	section(w, "ANALYSIS")
	fmt.Fprintln(w, c.AnalysisText)
	if len(c.Discrepancies) > 0 {
		section(w, "DISCREPANCIES")
		for _, d := range c.Discrepancies {
			fmt.Fprintf(w, "- %s\n", d)
		}
	}
	if len(c.WeakPoints) > 0 {
		section(w, "WEAK POINTS")
		for _, wp := range c.WeakPoints {
			fmt.Fprintf(w, "- %s\n", wp)
		}
	}
	if tb := c.TextbookReference; tb != nil {
		section(w, "TEXTBOOK")
		fmt.Fprintln(w, nonEmptyJoin(", ", tb.Title, tb.Chapter, tb.Section))
		if tb.Excerpt != "" {
			fmt.Fprintf(w, "%q\n", tb.Excerpt)
		}
		if tb.URI != "" {
			fmt.Fprintln(w, tb.URI)
		}
	}
	if len(c.GroundingReferences) > 0 {
		section(w, "REFERENCES")
		for _, ref := range c.GroundingReferences {
			fmt.Fprintf(w, "- %s\n  %s\n", ref.Title, ref.URI)
		}
	}
}

func printPractice(w io.Writer, n int, p problem.Practice, saved string) {
	section(w, fmt.Sprintf("PRACTICE %d (%s)", n, p.Difficulty))
	fmt.Fprintln(w, p.Question)
	printVisual(w, p.GridData, p.Diagram, saved)
	fmt.Fprintln(w)
	for i, step := range p.Solution {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	fmt.Fprintf(w, "Answer: %s\n", p.Answer)
}

func printVisual(w io.Writer, g *problem.Grid, img *problem.Image, saved string) {
	if problem.PreferredRender(g, img) == problem.RenderNone {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.RenderVisual(g, img, saved, 72))
}

func nonEmptyJoin(sep string, parts ...string) string {
	var keep []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, sep)
}
