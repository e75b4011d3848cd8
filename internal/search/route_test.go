package search

import (
	"testing"

	"platefinder/internal/types"
)

func TestStripLocationTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pizza in tel aviv", "pizza"},
		{"sushi near the beach", "sushi"},
		{"burger at main street", "burger"},
		{"ramen", "ramen"},
	}
	for _, tt := range tests {
		if got := stripLocationTokens(tt.in); got != tt.want {
			t.Errorf("stripLocationTokens(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapParameters_Nearby(t *testing.T) {
	loc := &types.Point{Lat: 32.08, Lng: 34.78}
	out := routeModelOutput{Route: RouteNearby, Keyword: "pizza near me", RegionHint: "IL", LanguageHint: "en"}

	params := mapParameters(out, loc)

	if params.Kind != ParamNearby {
		t.Fatalf("expected ParamNearby, got %v", params.Kind)
	}
	if params.Center == nil || *params.Center != *loc {
		t.Errorf("expected center %v, got %v", loc, params.Center)
	}
	if params.Keyword != "pizza" {
		t.Errorf("expected stripped keyword 'pizza', got %q", params.Keyword)
	}
	if err := params.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestMapParameters_Nearby_NoUserLocation(t *testing.T) {
	out := routeModelOutput{Route: RouteNearby, Keyword: "pizza"}
	params := mapParameters(out, nil)
	if params.Center != nil {
		t.Errorf("expected nil center when userLoc is nil, got %v", params.Center)
	}
}

func TestMapParameters_Landmark(t *testing.T) {
	out := routeModelOutput{Route: RouteLandmark, GeocodeQuery: "Eiffel Tower", TextQuery: "restaurants"}
	params := mapParameters(out, nil)

	if params.Kind != ParamLandmark {
		t.Fatalf("expected ParamLandmark, got %v", params.Kind)
	}
	if params.GeocodeQuery != "Eiffel Tower" {
		t.Errorf("expected geocode query preserved, got %q", params.GeocodeQuery)
	}
	if err := params.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestMapParameters_TextSearch_WithBias(t *testing.T) {
	loc := &types.Point{Lat: 32.08, Lng: 34.78}
	out := routeModelOutput{Route: RouteTextSearch, TextQuery: "restaurants in tel aviv", BiasRadiusMeters: 1000}

	params := mapParameters(out, loc)

	if params.Kind != ParamTextSearch {
		t.Fatalf("expected ParamTextSearch, got %v", params.Kind)
	}
	if !params.HasBias() {
		t.Error("expected bias to be attached when userLoc and BiasRadiusMeters are both set")
	}
	if err := params.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestMapParameters_TextSearch_NoBiasWithoutRadius(t *testing.T) {
	loc := &types.Point{Lat: 32.08, Lng: 34.78}
	out := routeModelOutput{Route: RouteTextSearch, TextQuery: "restaurants"}

	params := mapParameters(out, loc)

	if params.HasBias() {
		t.Error("expected no bias when BiasRadiusMeters is zero")
	}
}

func TestMapParameters_DefaultsToTextSearch(t *testing.T) {
	out := routeModelOutput{Route: Route("UNKNOWN"), TextQuery: "tacos"}
	params := mapParameters(out, nil)
	if params.Kind != ParamTextSearch {
		t.Errorf("expected unrecognized route to default to TEXTSEARCH, got %v", params.Kind)
	}
}
