// README: Near-me lexical marker set and the deterministic NEARBY override
// (spec §4.1 step 3, §6 "Near-me marker set").
package search

import "strings"

// nearMeMarkers is the configuration constant set of multilingual near-me
// lexical markers. At minimum the Latin-script set named in spec §6, plus
// the Hebrew equivalents exercised by scenario S3.
var nearMeMarkers = []string{
	"near me",
	"nearby",
	"around me",
	"close to me",
	"in my area",
	"לידי",
	"ליד",
	"קרוב אלי",
	"בסביבה",
}

// detectNearMeMarker reports whether q contains a near-me lexical marker.
func detectNearMeMarker(q string) bool {
	lower := strings.ToLower(q)
	for _, m := range nearMeMarkers {
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
