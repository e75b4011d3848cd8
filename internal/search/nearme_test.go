package search

import "testing"

func TestDetectNearMeMarker(t *testing.T) {
	tests := []struct {
		q    string
		want bool
	}{
		{"sushi near me", true},
		{"pizza nearby please", true},
		{"restaurants around me", true},
		{"places close to me", true},
		{"food in my area", true},
		{"מסעדות לידי", true},
		{"בסביבה", true},
		{"pizza in tel aviv", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := detectNearMeMarker(tt.q); got != tt.want {
			t.Errorf("detectNearMeMarker(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestDetectNearMeMarker_CaseInsensitive(t *testing.T) {
	if !detectNearMeMarker("Sushi NEAR ME now") {
		t.Error("expected case-insensitive match")
	}
}
