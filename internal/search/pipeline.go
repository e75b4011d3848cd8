// README: Pipeline Orchestrator (C1) — drives the search pipeline's stages in
// order, owns PipelineContext, forks the filter-extraction parallel group,
// and emits per-stage events plus one final pipeline_completed event.
// Generalizes the teacher's order.Service method-per-transition style
// (internal/modules/order/service.go) from a ride-order state machine into a
// staged, partially-parallel request pipeline.
package search

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"platefinder/internal/ai"
	"platefinder/internal/types"
)

// ProviderClient is the C5 boundary the orchestrator calls; implemented by
// internal/places.Client. Declared here (not imported from internal/places)
// because internal/places imports internal/search for ProviderParameters —
// importing the concrete type back would be a cycle.
type ProviderClient interface {
	Search(ctx context.Context, params ProviderParameters) ([]PlaceCandidate, error)
}

// Config holds the per-stage timeouts and feature knobs from spec §5/§6,
// all overridable via environment variables by internal/config.
type Config struct {
	GateTimeout      time.Duration
	FullIntentTimeout time.Duration
	FilterTimeout    time.Duration
	ProviderTimeout  time.Duration
}

// DefaultConfig returns the spec-derived timeout defaults (§5).
func DefaultConfig() Config {
	return Config{
		GateTimeout:       3 * time.Second,
		FullIntentTimeout: 6 * time.Second,
		FilterTimeout:     4 * time.Second,
		ProviderTimeout:   3 * time.Second,
	}
}

// Pipeline is C1. One instance is constructed per process and is safe for
// concurrent use: each Run call owns its own PipelineContext and shares no
// mutable state with any other in-flight request.
type Pipeline struct {
	adapter  ai.Adapter
	provider ProviderClient
	logger   *zap.Logger
	cfg      Config
	metrics  Metrics
}

// Metrics is the narrow instrumentation surface the orchestrator writes to;
// implemented by internal/metrics so internal/search never imports
// prometheus directly. A nil Metrics is valid — calls become no-ops.
type Metrics interface {
	ObserveStage(stage string, d time.Duration)
	IncRequest(failureReason string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveStage(string, time.Duration) {}
func (noopMetrics) IncRequest(string)                   {}

// NewPipeline constructs the orchestrator.
func NewPipeline(adapter ai.Adapter, provider ProviderClient, logger *zap.Logger, cfg Config, metrics Metrics) *Pipeline {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Pipeline{adapter: adapter, provider: provider, logger: logger, cfg: cfg, metrics: metrics}
}

// parallelFilterResult is the join-point payload of the C4 parallel group.
type parallelFilterResult struct {
	base BaseFilters
	post PostConstraints
}

// Run executes the full pipeline synchronously and returns a response that
// always conforms to the data-model invariants of spec §3 — it never
// propagates an error across this boundary; every failure becomes a
// FailureReason on the returned SearchResponse.
func (p *Pipeline) Run(ctx context.Context, req SearchRequest, traceID string) SearchResponse {
	return p.RunJob(ctx, req, traceID, time.Time{})
}

// RunJob is Run plus an enqueueTime, used by the async job runner to report
// queue-delay-ms on the pipeline_completed event (spec §3/§4.1). enqueueTime
// is the zero value for sync-mode requests, which never queued.
func (p *Pipeline) RunJob(ctx context.Context, req SearchRequest, traceID string, enqueueTime time.Time) SearchResponse {
	pctx := NewPipelineContext(req, traceID)
	pctx.JobEnqueueTime = enqueueTime
	wallStart := time.Now()

	meta := ai.CallMeta{RequestID: req.RequestID.String(), TraceID: traceID, SessionID: req.SessionID.String()}

	resp := p.run(ctx, pctx, req, meta)
	resp.Meta.DurationMs = time.Since(wallStart).Milliseconds()
	p.emitPipelineCompleted(pctx, wallStart, resp.Meta.FailureReason)
	return resp
}

func (p *Pipeline) run(ctx context.Context, pctx *PipelineContext, req SearchRequest, meta ai.CallMeta) SearchResponse {
	// Stage 1: Gate.
	gate := p.stageGate(ctx, pctx, req, meta)

	// Stage 2: early exits on gate routing.
	if gate.Route == GateRouteClarify {
		return p.clarifyResponse(req, gate, FailureNone, "gate_clarify")
	}
	if gate.Route == GateRouteStop {
		return p.refusalResponse(req)
	}

	// Stage 3: deterministic near-me override, ahead of routing.
	nearMe := detectNearMeMarker(req.Query)
	if nearMe && req.UserLocation == nil {
		p.logger.Info("near_me_location_required", zap.String("requestId", req.RequestID.String()))
		return p.locationRequiredResponse(req)
	}

	// Smart skip: gate timed out and the query matches a simple pattern —
	// skip straight to routing using the legacy heuristic parser.
	var legacyParse *legacyParsed
	skipFullIntent := gate.Reason == "gate_timeout"
	if skipFullIntent {
		if lp, ok := matchSimplePattern(req.Query); ok {
			legacyParse = &lp
			p.logger.Info("intent_full_skipped", zap.String("reason", "gate_timeout_simple_query"), zap.String("requestId", req.RequestID.String()))
		} else {
			skipFullIntent = false
		}
	}
	pctx.FullIntentUsed = gate.Route == GateRouteFull && !skipFullIntent

	// Stage 4: route + parameter mapping. A failure here is fatal per spec
	// §4.1/§7 — C3 has no safe degraded fallback the way the gate does.
	route, params, err := p.stageRoute(ctx, pctx, req, gate, legacyParse, meta)
	if err != nil {
		return p.fatalResponse(req, err)
	}

	if nearMe {
		if route.Route != RouteNearby {
			p.logger.Info("route_override", zap.String("reason", "near_me_override"), zap.String("requestId", req.RequestID.String()))
		}
		route.Route = RouteNearby
		route.Reason = "near_me_override"
		pctx.NearMeOverride = true
		params = nearbyParamsFromOverride(params, req.UserLocation)
	}

	if route.Route == RouteNearby && req.UserLocation == nil {
		return p.locationRequiredResponse(req)
	}

	// Stage 5: parallel filter extraction, started only now that the route
	// is known (spec §9 — never speculatively before routing).
	filterCtx, cancelFilters := context.WithCancel(ctx)
	filters := p.stageFilters(filterCtx, pctx, req, meta)
	cancelFilters()

	final := resolveFilters(filters.base, filters.post, gate, route.Region)

	// Stage 6: provider call.
	candidates, err := p.stageProvider(ctx, pctx, params)
	if err != nil {
		return p.fatalResponse(req, err)
	}

	// Stage 7: post-filter.
	kept, stats := p.stagePostFilter(pctx, candidates, final)

	failureReason := FailureNone
	if final.OpenState == OpenStateNow && len(candidates) > 0 && allUnknownHours(candidates) {
		failureReason = FailureLiveDataUnavailable
	} else if len(kept) == 0 {
		failureReason = FailureNoResults
	}

	_ = stats
	return p.buildResponse(req, kept, final, failureReason)
}

// stageGate brackets C2 with exactly one start/complete event, per spec §4.1
// "single-log-per-stage discipline".
func (p *Pipeline) stageGate(ctx context.Context, pctx *PipelineContext, req SearchRequest, meta ai.CallMeta) GateDecision {
	start := p.startStage(pctx, "gate")
	gate := runGate(ctx, p.adapter, req.Query, p.cfg.GateTimeout, meta)
	pctx.GateUsed = true
	if gate.Reason == "gate_timeout" || gate.Reason == "invalid_schema" {
		p.logger.Info("intent_gate_failed", zap.String("reason", gate.Reason), zap.String("requestId", req.RequestID.String()))
	}
	p.endStage(pctx, "gate", start, map[string]any{"route": string(gate.Route), "reason": gate.Reason})
	return gate
}

func (p *Pipeline) stageRoute(ctx context.Context, pctx *PipelineContext, req SearchRequest, gate GateDecision, legacyParse *legacyParsed, meta ai.CallMeta) (RouteDecision, ProviderParameters, error) {
	start := p.startStage(pctx, "route")
	defer func() { p.endStage(pctx, "route", start, nil) }()

	if legacyParse != nil {
		decision, params := legacyRouteDecision(*legacyParse, req.UserLocation)
		return decision, params, nil
	}
	timeout := p.cfg.FullIntentTimeout
	if gate.Route == GateRouteCore {
		timeout = p.cfg.GateTimeout
	}
	return runRoute(ctx, p.adapter, req.Query, req.UserLocation, timeout, meta)
}

// stageFilters runs the C4 parallel group: base-filter and post-constraint
// extraction launched concurrently, joined once both complete (or the
// context is canceled). Sub-task failures are independent: each substitutes
// its documented default without affecting the other.
func (p *Pipeline) stageFilters(ctx context.Context, pctx *PipelineContext, req SearchRequest, meta ai.CallMeta) parallelFilterResult {
	start := p.startStage(pctx, "filters")
	defer func() { p.endStage(pctx, "filters", start, nil) }()

	fctx, cancel := context.WithTimeout(ctx, p.cfg.FilterTimeout)
	defer cancel()

	baseCh := make(chan BaseFilters, 1)
	postCh := make(chan PostConstraints, 1)

	go func() { baseCh <- extractBaseFilters(fctx, p.adapter, req.Query, meta) }()
	go func() { postCh <- extractPostConstraints(fctx, p.adapter, req.Query, meta) }()

	var result parallelFilterResult
	result.base = <-baseCh
	result.post = <-postCh
	return result
}

func (p *Pipeline) stageProvider(ctx context.Context, pctx *PipelineContext, params ProviderParameters) ([]PlaceCandidate, error) {
	start := p.startStage(pctx, "provider")
	defer func() { p.endStage(pctx, "provider", start, nil) }()

	pctx2, cancel := context.WithTimeout(ctx, p.cfg.ProviderTimeout)
	defer cancel()
	return p.provider.Search(pctx2, params)
}

func (p *Pipeline) stagePostFilter(pctx *PipelineContext, candidates []PlaceCandidate, final FinalFilters) ([]PlaceCandidate, PostFilterStats) {
	start := p.startStage(pctx, "postfilter")
	kept, stats := ApplyPostFilter(candidates, final)
	p.endStage(pctx, "postfilter", start, map[string]any{
		"before": stats.Before, "after": stats.After, "removed": stats.Removed,
	})
	return kept, stats
}

// startStage/endStage are the single point of stage lifecycle logging; stage
// functions (runGate, runRoute, extract*, ApplyPostFilter) return data only —
// they never emit their own lifecycle events, per spec §4.1/§9.
func (p *Pipeline) startStage(pctx *PipelineContext, name string) time.Time {
	p.logger.Info("stage_started", zap.String("stage", name), zap.String("requestId", pctx.RequestID.String()), zap.String("traceId", pctx.TraceID))
	return time.Now()
}

func (p *Pipeline) endStage(pctx *PipelineContext, name string, start time.Time, extras map[string]any) {
	d := time.Since(start)
	pctx.RecordStage(name, d)
	p.metrics.ObserveStage(name, d)
	fields := []zap.Field{
		zap.String("stage", name),
		zap.String("requestId", pctx.RequestID.String()),
		zap.String("traceId", pctx.TraceID),
		zap.Int64("elapsedMs", d.Milliseconds()),
	}
	for k, v := range extras {
		fields = append(fields, zap.Any(k, v))
	}
	p.logger.Info("stage_completed", fields...)
}

// emitPipelineCompleted writes the single summary event required by spec §4.1:
// all stage durations, their sum, unaccounted-ms, and optional queue-delay-ms.
func (p *Pipeline) emitPipelineCompleted(pctx *PipelineContext, wallStart time.Time, failureReason FailureReason) {
	timings := pctx.Timings()
	var sum time.Duration
	for _, d := range timings {
		sum += d
	}
	wall := time.Since(wallStart)
	unaccounted := wall - sum

	fields := []zap.Field{
		zap.String("requestId", pctx.RequestID.String()),
		zap.String("traceId", pctx.TraceID),
		zap.Any("timings", timingsAsMillis(timings)),
		zap.Int64("sumMs", sum.Milliseconds()),
		zap.Int64("wallClockMs", wall.Milliseconds()),
		zap.Int64("unaccountedMs", unaccounted.Milliseconds()),
		zap.Bool("gateUsed", pctx.GateUsed),
		zap.Bool("fullIntentUsed", pctx.FullIntentUsed),
		zap.Bool("nearMeOverride", pctx.NearMeOverride),
		zap.String("failureReason", string(failureReason)),
	}
	if !pctx.JobEnqueueTime.IsZero() {
		fields = append(fields, zap.Int64("queueDelayMs", pctx.StartTime.Sub(pctx.JobEnqueueTime).Milliseconds()))
	}
	p.logger.Info("pipeline_completed", fields...)
	p.metrics.IncRequest(string(failureReason))
}

func timingsAsMillis(timings map[string]time.Duration) map[string]int64 {
	out := make(map[string]int64, len(timings))
	for k, v := range timings {
		out[k] = v.Milliseconds()
	}
	return out
}

// nearbyParamsFromOverride rebuilds ProviderParameters as NEARBY when the
// deterministic override fires and the mapper proposed something else,
// preserving whatever keyword/region/language it already extracted.
func nearbyParamsFromOverride(params ProviderParameters, userLoc *types.Point) ProviderParameters {
	if params.Kind == ParamNearby {
		return params
	}
	out := ProviderParameters{
		Kind:     ParamNearby,
		Keyword:  firstNonEmpty(stripLocationTokens(params.TextQuery), params.Keyword),
		Region:   params.Region,
		Language: params.Language,
		Radius:   2000,
	}
	if userLoc != nil {
		loc := *userLoc
		out.Center = &loc
	}
	return out
}

// legacyRouteDecision builds a RouteDecision + ProviderParameters directly
// from the legacy heuristic parse, bypassing the model entirely (spec §4.2
// "smart skip").
func legacyRouteDecision(lp legacyParsed, userLoc *types.Point) (RouteDecision, ProviderParameters) {
	decision := RouteDecision{Route: RouteTextSearch, Reason: "legacy_pattern"}
	params := ProviderParameters{Kind: ParamTextSearch, TextQuery: lp.Category + " in " + lp.Location}
	if userLoc != nil {
		lat, lng, radius := userLoc.Lat, userLoc.Lng, 3000.0
		params.BiasLat, params.BiasLng, params.BiasRadius = &lat, &lng, &radius
	}
	return decision, params
}

func allUnknownHours(candidates []PlaceCandidate) bool {
	for _, c := range candidates {
		if c.CurrentOpeningHoursKnown {
			return false
		}
	}
	return len(candidates) > 0
}

// --- Response builders ---------------------------------------------------

func (p *Pipeline) buildResponse(req SearchRequest, kept []PlaceCandidate, final FinalFilters, failureReason FailureReason) SearchResponse {
	resp := SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   stripCredentials(kept),
		Meta: ResponseMeta{
			AppliedFilters: final,
			FailureReason:  failureReason,
			Source:         "provider",
		},
	}
	if failureReason != FailureNone {
		resp.Assist = assistFor(failureReason)
	}
	return resp
}

func (p *Pipeline) clarifyResponse(req SearchRequest, gate GateDecision, reason FailureReason, tag string) SearchResponse {
	return SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   []PlaceCandidate{},
		Meta:      ResponseMeta{FailureReason: reason, Source: tag},
		Assist: &Assist{
			Type:    AssistClarify,
			Message: "Tell me what kind of food you're looking for, and where.",
		},
	}
}

func (p *Pipeline) refusalResponse(req SearchRequest) SearchResponse {
	return SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   []PlaceCandidate{},
		Meta:      ResponseMeta{FailureReason: FailureNone, Source: "gate_stop"},
	}
}

func (p *Pipeline) locationRequiredResponse(req SearchRequest) SearchResponse {
	return SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   []PlaceCandidate{},
		Meta:      ResponseMeta{FailureReason: FailureLocationRequired, Source: "near_me_override"},
		Assist: &Assist{
			Type:    AssistClarify,
			Message: "Share your location to search nearby.",
		},
	}
}

func (p *Pipeline) fatalResponse(req SearchRequest, err error) SearchResponse {
	reason := failureReasonFor(err)
	if errors.Is(err, ErrGeocodingFailed) {
		reason = FailureGeocodingFailed
	}
	return SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   []PlaceCandidate{},
		Meta:      ResponseMeta{FailureReason: reason, Source: "error"},
		Assist:    assistFor(reason),
	}
}

func assistFor(reason FailureReason) *Assist {
	switch reason {
	case FailureLocationRequired:
		return &Assist{Type: AssistClarify, Message: "Share your location to search nearby."}
	case FailureNoResults:
		return &Assist{Type: AssistSuggest, Message: "No matches — try a broader search.", SuggestedActions: []string{"widen_radius", "remove_filters"}}
	case FailureGeocodingFailed:
		return &Assist{Type: AssistClarify, Message: "I couldn't find that place — try a more specific address."}
	case FailureLiveDataUnavailable:
		return &Assist{Type: AssistConfirm, Message: "Live opening-hours data isn't available for these results right now."}
	case FailureLowConfidence:
		return &Assist{Type: AssistClarify, Message: "Could you rephrase what you're looking for?"}
	case FailureProviderError:
		return &Assist{Type: AssistConfirm, Message: "Search is temporarily unavailable — please try again."}
	default:
		return nil
	}
}

// stripCredentials strips any provider-credentialed URL shape from photo
// references before they leave the core, per spec §3/§6/§9 — defense in
// depth on top of internal/places never producing raw URLs in the first
// place.
func stripCredentials(candidates []PlaceCandidate) []PlaceCandidate {
	out := make([]PlaceCandidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		refs := make([]string, 0, len(out[i].PhotoRefs))
		for _, ref := range out[i].PhotoRefs {
			if !containsKeyParam(ref) {
				refs = append(refs, ref)
			}
		}
		out[i].PhotoRefs = refs
	}
	return out
}

func containsKeyParam(s string) bool {
	for i := 0; i+4 <= len(s); i++ {
		if (s[i] == '?' || s[i] == '&') && i+5 <= len(s) && s[i+1:i+4] == "key" && s[i+4] == '=' {
			return true
		}
	}
	return false
}
