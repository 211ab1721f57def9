package provider

import (
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches interpolation placeholders that machine
// translation engines must never see.
const placeholderPattern = `\{\{[^{}]*\}\}|\{[A-Za-z0-9_.]+\}|%[sdvf]|\$[0-9]+`

// segment is a run of text that is either sent to the engine or kept verbatim.
type segment struct {
	Text      string
	Preserved bool
}

// splitPreserved cuts text at every protected term and placeholder. Joining
// the Text of all segments gives back text unchanged.
func splitPreserved(text string, protected []string) []segment {
	expr := preserveExpr(protected)

	var segments []segment
	var start int
	for _, match := range expr.FindAllStringIndex(text, -1) {
		if match[0] == match[1] {
			continue
		}
		if match[0] > start {
			segments = append(segments, segment{Text: text[start:match[0]]})
		}
		segments = append(segments, segment{Text: text[match[0]:match[1]], Preserved: true})
		start = match[1]
	}
	if start < len(text) {
		segments = append(segments, segment{Text: text[start:]})
	}
	return segments
}

// preserveExpr builds an alternation of the protected terms, longest first,
// followed by the placeholder patterns.
func preserveExpr(protected []string) *regexp.Regexp {
	terms := make([]string, 0, len(protected))
	for _, term := range protected {
		if term != "" {
			terms = append(terms, term)
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return len(terms[i]) > len(terms[j])
	})

	alternatives := make([]string, 0, len(terms)+1)
	for _, term := range terms {
		alternatives = append(alternatives, regexp.QuoteMeta(term))
	}
	alternatives = append(alternatives, placeholderPattern)

	return regexp.MustCompile(strings.Join(alternatives, "|"))
}

func joinSegments(segments []segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
