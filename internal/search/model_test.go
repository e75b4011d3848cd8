package search

import (
	"testing"

	"platefinder/internal/types"
)

func TestProviderParameters_Validate(t *testing.T) {
	lat, lng, radius := 32.08, 34.78, 500.0

	tests := []struct {
		name    string
		params  ProviderParameters
		wantErr error
	}{
		{
			name:    "textsearch requires textQuery",
			params:  ProviderParameters{Kind: ParamTextSearch},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "textsearch with center is invalid",
			params:  ProviderParameters{Kind: ParamTextSearch, TextQuery: "pizza", Center: &types.Point{Lat: lat, Lng: lng}},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "valid textsearch",
			params:  ProviderParameters{Kind: ParamTextSearch, TextQuery: "pizza"},
			wantErr: nil,
		},
		{
			name:    "nearby requires center",
			params:  ProviderParameters{Kind: ParamNearby},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "valid nearby",
			params:  ProviderParameters{Kind: ParamNearby, Center: &types.Point{Lat: lat, Lng: lng}},
			wantErr: nil,
		},
		{
			name:    "landmark requires geocode query",
			params:  ProviderParameters{Kind: ParamLandmark},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "unknown kind is invalid",
			params:  ProviderParameters{Kind: ParamKind("BOGUS")},
			wantErr: ErrInvalidParameters,
		},
		{
			name:    "partial bias is rejected",
			params:  ProviderParameters{Kind: ParamTextSearch, TextQuery: "pizza", BiasLat: &lat},
			wantErr: ErrPartialBias,
		},
		{
			name:    "full bias is accepted",
			params:  ProviderParameters{Kind: ParamTextSearch, TextQuery: "pizza", BiasLat: &lat, BiasLng: &lng, BiasRadius: &radius},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviderParameters_HasBias(t *testing.T) {
	lat, lng, radius := 32.08, 34.78, 500.0

	p := ProviderParameters{Kind: ParamTextSearch, TextQuery: "pizza"}
	if p.HasBias() {
		t.Error("expected no bias")
	}

	p.BiasLat, p.BiasLng, p.BiasRadius = &lat, &lng, &radius
	if !p.HasBias() {
		t.Error("expected bias present")
	}

	stripped := p.WithoutBias()
	if stripped.HasBias() {
		t.Error("WithoutBias should clear all three bias fields")
	}
	if !p.HasBias() {
		t.Error("WithoutBias must not mutate the receiver")
	}
}

func TestPipelineContext_RecordStage_ConcurrentSafe(t *testing.T) {
	pc := NewPipelineContext(SearchRequest{RequestID: types.ID("r1")}, "trace-1")

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			pc.RecordStage("stage", 0)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	timings := pc.Timings()
	if _, ok := timings["stage"]; !ok {
		t.Error("expected stage recorded in timings snapshot")
	}
}

func TestFailureReasonFor(t *testing.T) {
	tests := []struct {
		err  error
		want FailureReason
	}{
		{ErrLocationRequired, FailureLocationRequired},
		{ErrGeocodingFailed, FailureGeocodingFailed},
		{ErrIntentFailed, FailureLowConfidence},
		{ErrLiveDataUnavailable, FailureLiveDataUnavailable},
		{ErrProviderError, FailureProviderError},
		{ErrCacheError, FailureProviderError},
	}
	for _, tt := range tests {
		if got := failureReasonFor(tt.err); got != tt.want {
			t.Errorf("failureReasonFor(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
