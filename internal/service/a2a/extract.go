package a2a

import "strings"

// Extractor pulls reply text out of one known result shape. It reports
// false when the shape is absent or the text is blank.
type Extractor struct {
	Name    string
	Extract func(r *Result) (string, bool)
}

// DefaultExtractors are tried in order; the first hit wins.
var DefaultExtractors = []Extractor{
	{Name: "artifact", Extract: fromArtifacts},
	{Name: "status_message", Extract: fromStatusMessage},
}

func fromArtifacts(r *Result) (string, bool) {
	if r == nil || len(r.Artifacts) == 0 {
		return "", false
	}
	return nonBlank(FirstText(r.Artifacts[0].Parts))
}

func fromStatusMessage(r *Result) (string, bool) {
	if r == nil || r.Status == nil || r.Status.Message == nil {
		return "", false
	}
	return nonBlank(FirstText(r.Status.Message.Parts))
}

func nonBlank(s string) (string, bool) {
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// ExtractText applies extractors in order and returns the first text found
// along with the strategy name.
func ExtractText(r *Result, extractors []Extractor) (text, strategy string, ok bool) {
	for _, e := range extractors {
		if t, found := e.Extract(r); found {
			return t, e.Name, true
		}
	}
	return "", "", false
}
