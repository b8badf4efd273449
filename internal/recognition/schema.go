package recognition

import "github.com/abhisek/examlens/internal/llm"

var nullableCell = map[string]any{"type": []any{"string", "null"}}

// RecognitionSchema defines the JSON schema for recognition responses.
var RecognitionSchema = &llm.Schema{
	Name:        "problem-recognition",
	Description: "A photographed exam question transcribed into a structured record with its standard solution",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"original_text": map[string]any{
				"type":        "string",
				"description": "The full question text, merged into one coherent question when several photos were given",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "The actual discipline of the question, e.g. Physics",
			},
			"grade": map[string]any{
				"type":        "string",
				"description": "Estimated school grade or level",
			},
			"standard_solution": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Ordered solution steps, one step per entry",
			},
			"final_answer": map[string]any{
				"type":        "string",
				"description": "The final answer only",
			},
			"key_knowledge_points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concepts the question tests, each stated once",
			},
			"problem_type": map[string]any{
				"type":        "string",
				"description": "Category tag reflecting the subject, e.g. \"physics: circular motion\"",
			},
			"diagram_description": map[string]any{
				"type":        "string",
				"description": "A precise description of the figure needed to illustrate the question, with every label. Empty string when no figure is needed.",
			},
			"grid_data": map[string]any{
				"type": []any{"array", "null"},
				"items": map[string]any{
					"type":     "array",
					"items":    nullableCell,
					"minItems": 3,
					"maxItems": 3,
				},
				"minItems":    3,
				"maxItems":    3,
				"description": "For 3x3 table or matrix questions, the cell texts row by row with null for blank cells. Null otherwise.",
			},
		},
		"required": []any{
			"original_text", "subject", "grade", "standard_solution", "final_answer",
			"key_knowledge_points", "problem_type", "diagram_description", "grid_data",
		},
		"additionalProperties": false,
	},
}
