// Package problem holds the records produced by the recognition, comparison
// and practice stages.
package problem

import (
	"strings"

	"github.com/abhisek/examlens/internal/media"
)

// Image is an encoded raster payload.
type Image = media.Image

// ImageFromBytes wraps raw bytes and sniffs their MIME type.
func ImageFromBytes(data []byte) *Image {
	return media.NewImage(data, "")
}

// Subject is a discipline hint for recognition.
type Subject string

const (
	SubjectAuto      Subject = "Auto"
	SubjectMath      Subject = "Math"
	SubjectPhysics   Subject = "Physics"
	SubjectChemistry Subject = "Chemistry"
	SubjectBiology   Subject = "Biology"
	SubjectEnglish   Subject = "English"
	SubjectHistory   Subject = "History"
	SubjectGeography Subject = "Geography"
)

// Subjects lists the selectable hints, Auto first.
var Subjects = []Subject{
	SubjectAuto, SubjectMath, SubjectPhysics, SubjectChemistry,
	SubjectBiology, SubjectEnglish, SubjectHistory, SubjectGeography,
}

// ParseSubject matches s case-insensitively against Subjects. Unknown
// values are returned as-is so a free-form discipline still biases the
// prompt.
func ParseSubject(s string) Subject {
	s = strings.TrimSpace(s)
	if s == "" {
		return SubjectAuto
	}
	for _, sub := range Subjects {
		if strings.EqualFold(string(sub), s) {
			return sub
		}
	}
	return Subject(s)
}

// Record is a recognized exam question. It is created once per recognition
// call; the only later change is attaching a diagram or the source capture,
// which WithDiagram and WithSourceImage do on a copy.
type Record struct {
	OriginalText       string
	Subject            string
	Grade              string
	StandardSolution   []string
	FinalAnswer        string
	KeyKnowledgePoints []string
	ProblemType        string

	// DiagramDescription drives diagram synthesis. Empty means the
	// question has nothing to draw.
	DiagramDescription string

	Diagram     *Image
	SourceImage *Image
	GridData    *Grid
}

// WithDiagram returns a copy of r carrying img.
func (r Record) WithDiagram(img *Image) *Record {
	r.Diagram = img
	return &r
}

// WithSourceImage returns a copy of r carrying the original capture.
func (r Record) WithSourceImage(img *Image) *Record {
	r.SourceImage = img
	return &r
}

// Render returns the preferred display path for the record.
func (r *Record) Render() RenderPath {
	return PreferredRender(r.GridData, r.Diagram)
}

// DedupStrings trims entries, drops empties and keeps the first occurrence
// of each value.
func DedupStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
