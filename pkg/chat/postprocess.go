// Package chat contains the pure string-processing step that turns the
// answer engine's raw output into display text plus structured product
// references.
package chat

import (
	"regexp"
	"sort"
	"strings"
)

// The engine embeds product references as literal markers, e.g.
// "**Product ID: 42**". The pattern is case-sensitive and matches one
// or more digits; anything else (missing closing emphasis, non-digit
// content) is left in the text untouched.
var (
	markerPattern = regexp.MustCompile(`\*\*Product ID: (\d+)\*\*`)

	// Second pass for marker-shaped residue anchored at line starts,
	// with optional surrounding emphasis runes.
	residuePattern = regexp.MustCompile(`(?m)^[*_]*Product ID: \d+[*_]*`)

	whitespaceRun = regexp.MustCompile(`\s{2,}`)
)

// ExtractProductIDs scans raw for product-id markers, strips them from the
// text, and normalizes whitespace. Extracted ids are returned ascending by
// numeric value; duplicates are preserved when the raw text repeats a
// marker. The cleaned text is trimmed and has runs of two or more
// whitespace characters collapsed to a single space.
func ExtractProductIDs(raw string) ([]string, string) {
	ids := make([]string, 0, 4)
	for _, match := range markerPattern.FindAllStringSubmatch(raw, -1) {
		ids = append(ids, match[1])
	}

	cleaned := markerPattern.ReplaceAllString(raw, "")
	cleaned = residuePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")

	sort.SliceStable(ids, func(i, j int) bool {
		return numericLess(ids[i], ids[j])
	})
	return ids, cleaned
}

// numericLess compares digit strings by numeric value ("9" < "10"),
// tolerating leading zeros and lengths beyond the int range.
func numericLess(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
