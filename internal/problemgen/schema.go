package problemgen

import "github.com/abhisek/examlens/internal/llm"

// PracticeBatchSchema defines the JSON schema for practice batch responses.
var PracticeBatchSchema = &llm.Schema{
	Name:        "practice-batch",
	Description: "Exactly three variant practice questions targeting the learner's weak points",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":     "array",
				"minItems": BatchSize,
				"maxItems": BatchSize,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "A complete, self-contained question. If it needs a figure, describe the figure inside the question text.",
						},
						"solution": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Worked solution, one paragraph per step",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The final answer only",
						},
						"difficulty": map[string]any{
							"type":        "string",
							"enum":        []any{"easy", "medium", "hard"},
							"description": "Difficulty relative to the original question",
						},
						"problem_type": map[string]any{
							"type":        "string",
							"description": "Category tag, same style as the original problem type",
						},
					},
					"required":             []any{"question", "solution", "answer", "difficulty", "problem_type"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"items"},
		"additionalProperties": false,
	},
}
