// Package escape reversibly masks expression-delimiter syntax so the
// generic markup tokenizer does not misparse it as tags. Expressions can
// contain characters that are meaningful to markup (angle brackets, for
// one), while the tokenizer only understands markup.
package escape

import "strings"

const (
	exprOpen  = "<%"
	exprClose = "%>"
	mapOpen   = "%{"
)

// Sentinels are reserved strings assumed absent from genuine source text.
const (
	sentOpen  = "⟪svx:eo⟫"
	sentClose = "⟪svx:ec⟫"
	sentLT    = "⟪svx:lt⟫"
	sentMap   = "⟪svx:mo⟫"
)

// Mask protects expression syntax from tokenization. The masked region is
// the outermost span from the first opening marker to the last closing
// marker in the document; within it the expression markers, the map-open
// marker and every literal '<' are replaced by sentinels. A second pass
// over the whole document masks the three markers wherever they appear
// outside the matched span, which covers expressions embedded directly in
// attribute values.
//
// The outermost-span match is greedy on purpose: two independent
// expression regions with markup between them are masked as one region,
// and that markup comes back out as text. Compatibility depends on this
// exact behavior.
func Mask(text string) string {
	start := strings.Index(text, exprOpen)
	end := strings.LastIndex(text, exprClose)
	if start >= 0 && end > start {
		stop := end + len(exprClose)
		text = text[:start] + maskRegion(text[start:stop]) + text[stop:]
	}
	text = strings.ReplaceAll(text, exprOpen, sentOpen)
	text = strings.ReplaceAll(text, exprClose, sentClose)
	text = strings.ReplaceAll(text, mapOpen, sentMap)
	return text
}

func maskRegion(s string) string {
	s = strings.ReplaceAll(s, exprOpen, sentOpen)
	s = strings.ReplaceAll(s, exprClose, sentClose)
	s = strings.ReplaceAll(s, mapOpen, sentMap)
	s = strings.ReplaceAll(s, "<", sentLT)
	return s
}

// Unmask is the exact inverse of Mask, applied globally.
func Unmask(text string) string {
	text = strings.ReplaceAll(text, sentOpen, exprOpen)
	text = strings.ReplaceAll(text, sentClose, exprClose)
	text = strings.ReplaceAll(text, sentMap, mapOpen)
	text = strings.ReplaceAll(text, sentLT, "<")
	return text
}
