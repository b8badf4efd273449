package recognition

import (
	"bytes"
	"text/template"

	"github.com/abhisek/examlens/internal/problem"
)

const systemPrompt = `You are an expert teacher transcribing photographed exam questions.

Rules:
- Transcribe the question exactly, fixing only obvious OCR noise. Keep formulas in plain text.
- Solve the question and give the standard solution as ordered steps, then the final answer on its own.
- List the key knowledge points the question tests.
- If the question includes or needs a figure, describe it precisely enough to redraw it: shapes, relative positions, every label and value. Otherwise return an empty diagram_description.
- If the question is built around a 3x3 table or grid, fill grid_data row by row and use null for blank cells. Otherwise return null.`

var userTemplate = template.Must(template.New("recognition").Parse(`{{if gt .Count 1}}The {{.Count}} attached photos show parts of ONE question, in order. Merge them into a single coherent original_text; do not list them as separate questions.
{{else}}The attached photo shows one exam question.
{{end}}{{if .Hint}}The subject is likely {{.Hint}}, but report the actual subject you see.
{{end}}Return the structured record.`))

type promptData struct {
	Count int
	Hint  string
}

func buildUserMessage(count int, subject problem.Subject) (string, error) {
	data := promptData{Count: count}
	if subject != "" && subject != problem.SubjectAuto {
		data.Hint = string(subject)
	}
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
