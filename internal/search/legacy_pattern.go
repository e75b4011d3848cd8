// README: Legacy heuristic parser used by the smart-skip path (spec §4.2):
// when the gate times out but the query matches a simple "<cat> in <loc>"
// shape, the orchestrator proceeds straight to routing without a full
// extraction call.
package search

import "regexp"

var (
	simplePatternLatin = regexp.MustCompile(`(?i)^\s*([a-z][a-z\s]*?)\s+in\s+([a-z][a-z\s]*)\s*$`)
	// Hebrew equivalent: "<cat> ב<loc>" or "<cat> ליד <loc>".
	simplePatternHebrew = regexp.MustCompile(`^\s*([\x{0590}-\x{05FF}\s]+?)\s+(?:ב|ליד)\s*([\x{0590}-\x{05FF}\s]+)\s*$`)
)

// legacyParsed is the result of the simple-pattern heuristic parse.
type legacyParsed struct {
	Category string
	Location string
}

// matchSimplePattern reports whether q matches a well-defined simple pattern
// and, if so, returns the extracted category/location pair.
func matchSimplePattern(q string) (legacyParsed, bool) {
	if m := simplePatternLatin.FindStringSubmatch(q); m != nil {
		return legacyParsed{Category: trimSpace(m[1]), Location: trimSpace(m[2])}, true
	}
	if m := simplePatternHebrew.FindStringSubmatch(q); m != nil {
		return legacyParsed{Category: trimSpace(m[1]), Location: trimSpace(m[2])}, true
	}
	return legacyParsed{}, false
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
