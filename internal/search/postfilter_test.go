package search

import "testing"

func boolPtr(b bool) *bool  { return &b }
func intPtr(n int) *int     { return &n }

func TestApplyPostFilter_OpenNow_UnknownKept(t *testing.T) {
	candidates := []PlaceCandidate{
		{ProviderID: "1", CurrentOpeningHoursKnown: false},
		{ProviderID: "2", CurrentOpeningHoursKnown: true, OpenNow: boolPtr(true)},
		{ProviderID: "3", CurrentOpeningHoursKnown: true, OpenNow: boolPtr(false)},
	}
	filters := FinalFilters{OpenState: OpenStateNow}

	kept, stats := ApplyPostFilter(candidates, filters)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept (unknown + open), got %d", len(kept))
	}
	if stats.Before != 3 || stats.After != 2 || stats.Removed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.UnknownExcluded != 0 {
		t.Errorf("expected UnknownExcluded always 0, got %d", stats.UnknownExcluded)
	}
}

func TestApplyPostFilter_PriceLevel(t *testing.T) {
	candidates := []PlaceCandidate{
		{ProviderID: "cheap", PriceLevel: intPtr(1)},
		{ProviderID: "expensive", PriceLevel: intPtr(4)},
		{ProviderID: "unknown-price", PriceLevel: nil},
	}
	filters := FinalFilters{PriceLevel: intPtr(2)}

	kept, _ := ApplyPostFilter(candidates, filters)

	if len(kept) != 2 {
		t.Fatalf("expected cheap + unknown-price kept, got %d: %+v", len(kept), kept)
	}
	for _, c := range kept {
		if c.ProviderID == "expensive" {
			t.Error("expensive place should have been filtered out")
		}
	}
}

func TestApplyPostFilter_NoFilters_KeepsAll(t *testing.T) {
	candidates := []PlaceCandidate{{ProviderID: "1"}, {ProviderID: "2"}}
	kept, stats := ApplyPostFilter(candidates, FinalFilters{})
	if len(kept) != 2 || stats.Removed != 0 {
		t.Errorf("expected all candidates kept, got %+v", stats)
	}
}

func TestApplyPostFilter_OpenAt_WeeklyWindow(t *testing.T) {
	hours := WeeklyHours{}
	hours.Days[2] = []Interval{{StartMinute: 17 * 60, EndMinute: 22 * 60}}

	open := PlaceCandidate{ProviderID: "open", CurrentOpeningHoursKnown: true, WeeklyHours: hours}
	closedThatDay := PlaceCandidate{ProviderID: "closed", CurrentOpeningHoursKnown: true, WeeklyHours: WeeklyHours{}}

	filters := FinalFilters{OpenState: OpenStateAt, OpenAt: &OpenAt{Day: 2, Time: "18:00"}}

	kept, _ := ApplyPostFilter([]PlaceCandidate{open, closedThatDay}, filters)

	if len(kept) != 1 || kept[0].ProviderID != "open" {
		t.Errorf("expected only 'open' to pass the weekly window check, got %+v", kept)
	}
}

func TestApplyPostFilter_OpenBetween_NoOverlapExcludes(t *testing.T) {
	hours := WeeklyHours{}
	hours.Days[5] = []Interval{{StartMinute: 9 * 60, EndMinute: 11 * 60}}
	candidate := PlaceCandidate{ProviderID: "morning-only", CurrentOpeningHoursKnown: true, WeeklyHours: hours}

	filters := FinalFilters{OpenState: OpenStateBetween, OpenBetween: &OpenBetween{Day: 5, Start: "18:00", End: "20:00"}}

	kept, _ := ApplyPostFilter([]PlaceCandidate{candidate}, filters)

	if len(kept) != 0 {
		t.Errorf("expected no overlap between morning hours and evening window, got %+v", kept)
	}
}

func TestOverlaps(t *testing.T) {
	if !overlaps(60, 120, 90, 150) {
		t.Error("expected partial overlap to be true")
	}
	if overlaps(60, 120, 120, 180) {
		t.Error("touching endpoints should not count as overlap")
	}
	if overlaps(0, 10, 20, 30) {
		t.Error("disjoint intervals should not overlap")
	}
}

func TestParseHHMM(t *testing.T) {
	m, ok := parseHHMM("18:30")
	if !ok || m != 18*60+30 {
		t.Errorf("parseHHMM(18:30) = %d, %v", m, ok)
	}
	if _, ok := parseHHMM("not-a-time"); ok {
		t.Error("expected parse failure for invalid input")
	}
}
