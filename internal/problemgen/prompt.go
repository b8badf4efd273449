package problemgen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an experienced teacher writing targeted practice questions.

Rules:
- Write exactly 3 variant questions that drill the listed weak points, in the same subject and style as the original question.
- Do not copy the original question. Change the numbers, the setting or what is asked.
- Order them from easier to harder and label each as easy, medium or hard.
- Every question must be self-contained. If it needs a figure, describe the figure precisely inside the question text, with all labels.
- Give a step-by-step solution, one paragraph per step, then the final answer on its own.
- Use plain text for formulas. No LaTeX.`

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, cfg Config) string {
	var b strings.Builder

	p := input.Problem
	fmt.Fprintf(&b, "Subject: %s\n", p.Subject)
	if p.Grade != "" {
		fmt.Fprintf(&b, "Grade: %s\n", p.Grade)
	}
	if p.ProblemType != "" {
		fmt.Fprintf(&b, "Problem type: %s\n", p.ProblemType)
	}
	fmt.Fprintf(&b, "\nOriginal question:\n%s\n", p.OriginalText)
	if p.FinalAnswer != "" {
		fmt.Fprintf(&b, "Original answer: %s\n", p.FinalAnswer)
	}

	b.WriteString("\nWeak points to practice:\n")
	b.WriteString(buildWeakPoints(input.WeakPoints, p.KeyKnowledgePoints, cfg.MaxWeakPoints))

	return b.String()
}

// buildWeakPoints formats weak points for the prompt, respecting the max
// limit. Without weak points the knowledge points stand in.
func buildWeakPoints(weak, knowledge []string, max int) string {
	if len(weak) == 0 {
		weak = knowledge
	}
	if len(weak) == 0 {
		return "None stated; vary the original question's core concept."
	}

	if max > 0 && len(weak) > max {
		weak = weak[:max]
	}

	var b strings.Builder
	for i, w := range weak {
		fmt.Fprintf(&b, "%d. %s\n", i+1, w)
	}
	return strings.TrimRight(b.String(), "\n")
}
