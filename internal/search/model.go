// README: Core data model for the search pipeline (request/response shapes,
// per-stage decisions, and the mutable per-request pipeline context).
package search

import (
	"sync"
	"time"

	"platefinder/internal/types"
)

// Mode selects synchronous (block for result) or asynchronous (job + push) handling.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// SearchRequest is the immutable input to the pipeline.
type SearchRequest struct {
	RequestID    types.ID    `json:"requestId"`
	Query        string      `json:"query"`
	UserLocation *types.Point `json:"userLocation,omitempty"`
	RegionHint   string      `json:"regionHint,omitempty"`
	SessionID    types.ID    `json:"sessionId,omitempty"`
	Mode         Mode        `json:"mode"`
	CategoryHint string      `json:"categoryHint,omitempty"`
}

// FoodSignal is C2's classification of whether the query concerns food at all.
type FoodSignal string

const (
	FoodNo        FoodSignal = "NO"
	FoodUncertain FoodSignal = "UNCERTAIN"
	FoodYes       FoodSignal = "YES"
)

// GateRoute is where the orchestrator sends the request after the gate.
type GateRoute string

const (
	GateRouteCore    GateRoute = "CORE"
	GateRouteFull    GateRoute = "FULL"
	GateRouteClarify GateRoute = "CLARIFY"
	GateRouteStop    GateRoute = "STOP"
)

// GateDecision is C2's output.
type GateDecision struct {
	FoodSignal   FoodSignal `json:"foodSignal"`
	Confidence   float64    `json:"confidence"`
	Route        GateRoute  `json:"route"`
	HasFood      bool       `json:"hasFood"`
	HasLocation  bool       `json:"hasLocation"`
	HasModifiers bool       `json:"hasModifiers"`
	Language     string     `json:"language"`
	Reason       string     `json:"reason,omitempty"`
}

// Route is C3's chosen provider-call shape.
type Route string

const (
	RouteNearby     Route = "NEARBY"
	RouteTextSearch Route = "TEXTSEARCH"
	RouteLandmark   Route = "LANDMARK"
)

// RouteDecision is C3's output.
type RouteDecision struct {
	Route      Route   `json:"route"`
	Language   string  `json:"languageHint"`
	Region     string  `json:"regionHint"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reasonTag"`
}

// ParamKind discriminates ProviderParameters' tagged-union shapes.
type ParamKind string

const (
	ParamTextSearch ParamKind = "TEXTSEARCH"
	ParamNearby     ParamKind = "NEARBY"
	ParamLandmark   ParamKind = "LANDMARK"
)

// ProviderParameters is the tagged union consumed by internal/places.Client.
// Exactly the fields for Kind are meaningful; Validate enforces this.
type ProviderParameters struct {
	Kind ParamKind `json:"kind"`

	// TEXTSEARCH
	TextQuery string `json:"textQuery,omitempty"`

	// NEARBY
	Center *types.Point `json:"center,omitempty"`
	Radius float64      `json:"radiusMeters,omitempty"`
	Keyword string      `json:"keyword,omitempty"`

	// LANDMARK
	GeocodeQuery string `json:"geocodeQuery,omitempty"`

	// shared
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`

	// optional bias — all three or none
	BiasLat    *float64 `json:"biasLat,omitempty"`
	BiasLng    *float64 `json:"biasLng,omitempty"`
	BiasRadius *float64 `json:"biasRadiusMeters,omitempty"`

	// OpenNow mirrors FinalFilters.OpenState == OPEN_NOW onto the provider
	// call itself; internal/places uses it to pick the shorter, time-sensitive
	// L2 TTL (spec §4.5).
	OpenNow bool `json:"openNow,omitempty"`
}

// HasBias reports whether a geographic bias is attached.
func (p ProviderParameters) HasBias() bool {
	return p.BiasLat != nil && p.BiasLng != nil && p.BiasRadius != nil
}

// WithoutBias returns a copy with the bias fields cleared, used by the
// bias-retry rule in internal/places.
func (p ProviderParameters) WithoutBias() ProviderParameters {
	p.BiasLat, p.BiasLng, p.BiasRadius = nil, nil, nil
	return p
}

// Validate enforces the tagged-union shape and the "never both center and
// unfocused text" / "no partial bias" invariants of spec §4.3.
func (p ProviderParameters) Validate() error {
	if p.BiasLat != nil || p.BiasLng != nil || p.BiasRadius != nil {
		if !p.HasBias() {
			return ErrPartialBias
		}
	}
	switch p.Kind {
	case ParamTextSearch:
		if p.TextQuery == "" {
			return ErrInvalidParameters
		}
		if p.Center != nil {
			return ErrInvalidParameters
		}
	case ParamNearby:
		if p.Center == nil {
			return ErrInvalidParameters
		}
	case ParamLandmark:
		if p.GeocodeQuery == "" {
			return ErrInvalidParameters
		}
	default:
		return ErrInvalidParameters
	}
	return nil
}

// OpenState is the temporal filter mode shared by BaseFilters, PostConstraints,
// and FinalFilters.
type OpenState string

const (
	OpenStateNone    OpenState = ""
	OpenStateNow     OpenState = "OPEN_NOW"
	OpenStateAt      OpenState = "OPEN_AT"
	OpenStateBetween OpenState = "OPEN_BETWEEN"
)

// OpenAt pins a single day+time, interpreted in Timezone.
type OpenAt struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

// OpenBetween pins a day+range, interpreted in Timezone.
type OpenBetween struct {
	Day      int    `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// BaseFilters is the base extractor's output.
type BaseFilters struct {
	Language    string       `json:"language,omitempty"`
	OpenState   OpenState    `json:"openState,omitempty"`
	OpenAt      *OpenAt      `json:"openAt,omitempty"`
	OpenBetween *OpenBetween `json:"openBetween,omitempty"`
	RegionHint  string       `json:"regionHint,omitempty"`
}

// Requirements bundles nullable-tristate amenity flags.
type Requirements struct {
	Accessible *bool `json:"accessible,omitempty"`
	Parking    *bool `json:"parking,omitempty"`
}

// PostConstraints is the post-constraint extractor's output.
type PostConstraints struct {
	OpenState    OpenState    `json:"openState,omitempty"`
	OpenAt       *OpenAt      `json:"openAt,omitempty"`
	OpenBetween  *OpenBetween `json:"openBetween,omitempty"`
	PriceLevel   *int         `json:"priceLevel,omitempty"`
	IsKosher     *bool        `json:"isKosher,omitempty"`
	Requirements Requirements `json:"requirements,omitempty"`
}

// PlaceCandidate is a raw place record returned by the provider prior to
// post-filtering. Opening-hours is tristate: OpenNow true/false, or
// CurrentOpeningHoursKnown=false meaning UNKNOWN. Defined here (rather than in
// internal/places, which produces it) because internal/places must import
// search.ProviderParameters and search.ApplyPostFilter consumes this type
// directly — keeping it in one place avoids an import cycle between the two
// packages.
type PlaceCandidate struct {
	ProviderID               string      `json:"providerId"`
	DisplayName              string      `json:"displayName"`
	FormattedAddress         string      `json:"formattedAddress"`
	Location                 types.Point `json:"location"`
	Rating                   *float64    `json:"rating,omitempty"`
	ReviewCount              *int        `json:"reviewCount,omitempty"`
	PriceLevel               *int        `json:"priceLevel,omitempty"`
	CurrentOpeningHoursKnown bool        `json:"currentOpeningHoursKnown"`
	OpenNow                  *bool       `json:"openNow,omitempty"`
	Types                    []string    `json:"types,omitempty"`
	PrimaryType              string      `json:"primaryType,omitempty"`
	PhotoRefs                []string    `json:"photoRefs,omitempty"`
	WeeklyHours              WeeklyHours `json:"-"`
}

// WeeklyHours holds per-day open intervals in the place's local timezone,
// consulted by the post-filter's OPEN_AT/OPEN_BETWEEN logic. Absent days
// mean the place is closed all day; a nil Intervals slice on a present
// WeeklyHours still counts as KNOWN (closed that day), distinct from
// CurrentOpeningHoursKnown=false (no hours data at all).
type WeeklyHours struct {
	Days [7][]Interval
}

// Interval is a single open window on one day, in minutes since midnight.
type Interval struct {
	StartMinute int
	EndMinute   int
}

// FinalFilters is the tightened merge of BaseFilters + PostConstraints +
// intent context + caller region, produced by resolveFilters.
type FinalFilters struct {
	Language     string       `json:"language,omitempty"`
	RegionHint   string       `json:"regionHint,omitempty"`
	OpenState    OpenState    `json:"openState,omitempty"`
	OpenAt       *OpenAt      `json:"openAt,omitempty"`
	OpenBetween  *OpenBetween `json:"openBetween,omitempty"`
	PriceLevel   *int         `json:"priceLevel,omitempty"`
	IsKosher     *bool        `json:"isKosher,omitempty"`
	Requirements Requirements `json:"requirements,omitempty"`
}

// PipelineContext is C1's per-request mutable state. It is created on
// pipeline entry, owned exclusively by the orchestrator, and never shared
// across requests or goroutines outside the orchestrator itself.
type PipelineContext struct {
	RequestID        types.ID
	TraceID          string
	SessionID        types.ID
	StartTime        time.Time
	JobEnqueueTime   time.Time
	UserLocation     *types.Point

	GateUsed           bool
	FullIntentUsed     bool
	NearMeOverride     bool
	AssistantStrategy  string

	mu      sync.Mutex
	timings map[string]time.Duration
}

// NewPipelineContext builds the mutable context for one request.
func NewPipelineContext(req SearchRequest, traceID string) *PipelineContext {
	return &PipelineContext{
		RequestID:    req.RequestID,
		TraceID:      traceID,
		SessionID:    req.SessionID,
		StartTime:    time.Now(),
		UserLocation: req.UserLocation,
		timings:      make(map[string]time.Duration),
	}
}

// RecordStage stores a stage's elapsed duration. Safe for concurrent calls
// from the parallel filter group.
func (p *PipelineContext) RecordStage(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timings[name] = d
}

// Timings returns a snapshot copy of recorded stage durations.
func (p *PipelineContext) Timings() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.timings))
	for k, v := range p.timings {
		out[k] = v
	}
	return out
}

// FailureReason is the closed set of reasons a response may carry.
type FailureReason string

const (
	FailureNone                 FailureReason = "NONE"
	FailureNoResults            FailureReason = "NO_RESULTS"
	FailureLocationRequired     FailureReason = "LOCATION_REQUIRED"
	FailureLowConfidence        FailureReason = "LOW_CONFIDENCE"
	FailureGeocodingFailed      FailureReason = "GEOCODING_FAILED"
	FailureLiveDataUnavailable  FailureReason = "LIVE_DATA_UNAVAILABLE"
	FailureProviderError        FailureReason = "PROVIDER_ERROR"
)

// AssistType discriminates the optional assist block.
type AssistType string

const (
	AssistClarify AssistType = "clarify"
	AssistConfirm AssistType = "confirm"
	AssistSuggest AssistType = "suggest"
)

// Assist carries a user-facing nudge attached whenever the response isn't a
// clean success.
type Assist struct {
	Type              AssistType `json:"type"`
	Message           string     `json:"message"`
	SuggestedActions  []string   `json:"suggestedActions,omitempty"`
}

// ResponseMeta carries the non-result bookkeeping of a SearchResponse.
type ResponseMeta struct {
	DurationMs     int64         `json:"durationMs"`
	AppliedFilters FinalFilters  `json:"appliedFilters"`
	FailureReason  FailureReason `json:"failureReason"`
	Source         string        `json:"source,omitempty"`
}

// SearchResponse is the pipeline's output, for both sync HTTP responses and
// the value persisted into a Job / published on the search channel.
type SearchResponse struct {
	RequestID types.ID         `json:"requestId"`
	SessionID types.ID         `json:"sessionId,omitempty"`
	Results   []PlaceCandidate `json:"results"`
	Chips     []string         `json:"chips,omitempty"`
	Meta      ResponseMeta     `json:"meta"`
	Assist    *Assist          `json:"assist,omitempty"`
}
