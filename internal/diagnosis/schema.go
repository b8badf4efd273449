package diagnosis

import "github.com/abhisek/examlens/internal/llm"

// ComparisonSchema defines the JSON schema for diagnostic comparison responses.
var ComparisonSchema = &llm.Schema{
	Name:        "diagnostic-comparison",
	Description: "Diagnosis of a learner's reasoning against the standard solution of an exam question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"analysis_text": map[string]any{
				"type":        "string",
				"description": "A short paragraph addressed to the learner explaining where their reasoning holds and where it breaks",
			},
			"discrepancies": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Each concrete difference between the learner's reasoning and the standard solution, in solution order",
			},
			"weak_points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short concept tags the learner should practice, e.g. \"belt drive linear speed\"",
			},
			"textbook_reference": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"title":   map[string]any{"type": "string"},
					"chapter": map[string]any{"type": "string"},
					"section": map[string]any{"type": "string"},
					"excerpt": map[string]any{"type": "string"},
					"uri":     map[string]any{"type": "string"},
				},
				"required":             []any{"title", "chapter", "section", "excerpt", "uri"},
				"additionalProperties": false,
				"description":          "Where the concept is taught in a standard textbook, or null when unsure. Unknown parts are empty strings.",
			},
		},
		"required":             []any{"analysis_text", "discrepancies", "weak_points", "textbook_reference"},
		"additionalProperties": false,
	},
}
