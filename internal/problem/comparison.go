package problem

import "strings"

// Reference is a web source attached to a grounded comparison.
type Reference struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// TextbookReference is a structured citation of where the topic is taught.
type TextbookReference struct {
	Title   string `json:"title"`
	Chapter string `json:"chapter,omitempty"`
	Section string `json:"section,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// Comparison is the diagnostic result of a learner's reasoning against the
// standard solution. Build it with NewComparison; it is not modified after.
type Comparison struct {
	AnalysisText        string
	Discrepancies       []string
	WeakPoints          []string
	GroundingReferences []Reference
	TextbookReference   *TextbookReference
}

// NewComparison assembles a Comparison. Only URIs that start with https://
// survive: other references are dropped and any other textbook URI is
// blanked.
func NewComparison(analysis string, discrepancies, weakPoints []string, refs []Reference, textbook *TextbookReference) *Comparison {
	c := &Comparison{
		AnalysisText:  strings.TrimSpace(analysis),
		Discrepancies: discrepancies,
		WeakPoints:    DedupStrings(weakPoints),
	}
	for _, r := range refs {
		if !IsSecureURI(r.URI) {
			continue
		}
		if r.Title == "" {
			r.Title = r.URI
		}
		c.GroundingReferences = append(c.GroundingReferences, r)
	}
	if textbook != nil {
		tb := *textbook
		if !IsSecureURI(tb.URI) {
			tb.URI = ""
		}
		c.TextbookReference = &tb
	}
	return c
}

// IsSecureURI reports whether uri, as given, starts with the https scheme.
// Leading whitespace fails the check; URIs are never rewritten.
func IsSecureURI(uri string) bool {
	return len(uri) > len("https://") && strings.EqualFold(uri[:len("https://")], "https://")
}
