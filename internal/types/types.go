// README: Common value objects shared across modules.
package types

// ID is an opaque identifier shared by request ids, session ids, and job ids.
type ID string

func (id ID) String() string { return string(id) }

// Point is a caller or candidate coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point carries a plausible coordinate pair.
// The zero value {0,0} is a real point off the coast of Africa, not "unset" —
// callers that need optionality use *Point, not this check, for that case.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
