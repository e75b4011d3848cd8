// README: Post-filter engine (C6). Pure, deterministic, no logging or input
// mutation — the orchestrator owns the stage timing around this call.
package search

import (
	"time"
)

// PostFilterStats reports before/after counts; the orchestrator logs them on
// the postfilter stage_completed event.
type PostFilterStats struct {
	Before          int `json:"before"`
	After           int `json:"after"`
	Removed         int `json:"removed"`
	UnknownExcluded int `json:"unknownExcluded"`
}

// ApplyPostFilter filters candidates against filters, per spec §4.6.
// Tristate opening-hours: UNKNOWN is kept by default and never counted in
// UnknownExcluded (that field always reports 0 here — the engine never
// excludes on account of unknown hours, consistent with the conservative
// default).
func ApplyPostFilter(candidates []PlaceCandidate, filters FinalFilters) ([]PlaceCandidate, PostFilterStats) {
	stats := PostFilterStats{Before: len(candidates)}
	kept := make([]PlaceCandidate, 0, len(candidates))

	for _, c := range candidates {
		if !passesOpenState(c, filters) {
			continue
		}
		if !passesPriceLevel(c, filters) {
			continue
		}
		// Kosher/accessible/parking: the provider candidates used here carry
		// no such signal, so these constraints are documented no-ops per
		// spec §4.6 — they never cause removal.
		kept = append(kept, c)
	}

	stats.After = len(kept)
	stats.Removed = stats.Before - stats.After
	stats.UnknownExcluded = 0
	return kept, stats
}

func passesOpenState(c PlaceCandidate, f FinalFilters) bool {
	switch f.OpenState {
	case OpenStateNow:
		if !c.CurrentOpeningHoursKnown {
			return true // UNKNOWN kept
		}
		return c.OpenNow != nil && *c.OpenNow
	case OpenStateAt:
		if f.OpenAt == nil {
			return true
		}
		return passesWeeklyWindow(c, f.OpenAt.Day, f.OpenAt.Time, f.OpenAt.Time, f.OpenAt.Timezone)
	case OpenStateBetween:
		if f.OpenBetween == nil {
			return true
		}
		return passesWeeklyWindow(c, f.OpenBetween.Day, f.OpenBetween.Start, f.OpenBetween.End, f.OpenBetween.Timezone)
	default:
		return true
	}
}

// passesWeeklyWindow reports whether candidate c's hours overlap the
// requested day+[start,end] window. Unknown hours are kept (conservative).
// day, start and end are compared directly with the candidate's local weekly
// hours; timezone is not applied.
func passesWeeklyWindow(c PlaceCandidate, day int, start, end, timezone string) bool {
	if !c.CurrentOpeningHoursKnown {
		return true
	}
	if day < 0 || day > 6 {
		return true
	}
	startMin, ok1 := parseHHMM(start)
	endMin, ok2 := parseHHMM(end)
	if !ok1 || !ok2 {
		return true
	}
	if endMin < startMin {
		endMin = startMin // inverted range: only the start minute is checked
	}
	intervals := c.WeeklyHours.Days[day]
	if intervals == nil {
		// No recorded hours for this day at all: known-hours place, closed.
		return false
	}
	for _, iv := range intervals {
		if overlaps(iv.StartMinute, iv.EndMinute, startMin, endMin) {
			return true
		}
	}
	return false
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

func parseHHMM(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func passesPriceLevel(c PlaceCandidate, f FinalFilters) bool {
	if f.PriceLevel == nil {
		return true
	}
	if c.PriceLevel == nil {
		return true // provider didn't expose it: no-op, never excludes
	}
	return *c.PriceLevel <= *f.PriceLevel
}
