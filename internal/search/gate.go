// README: Intent Gate (C2) — a cheap, bounded-latency classifier that routes
// the remainder of the pipeline.
package search

import (
	"context"
	"time"

	"platefinder/internal/ai"
)

const gatePromptVersion = "gate.v1"

const gateSystemPrompt = `You are a fast intent classifier for a restaurant-search backend.
Given a user's free-text query in any language, decide:
- foodSignal: YES if the query is clearly about food/restaurants, NO if clearly unrelated, UNCERTAIN otherwise.
- hasFood: whether a food/cuisine/category term is present.
- hasLocation: whether a location, area, or "near me"-style marker is present.
- hasModifiers: whether the query adds constraints beyond category+location (price, hours, dietary, accessibility, ratings).
- confidence: your confidence in this classification, 0 to 1.
- language: the detected language tag of the query.
Do not decide routing yourself — only classify.`

// GateConfidenceThreshold is the spec-derived default (§4.2/§9); configurable.
const GateConfidenceThreshold = 0.85

// gateModelOutput is what the model actually returns; Route is computed
// deterministically afterward by runGate, never trusted from the model.
type gateModelOutput struct {
	FoodSignal   FoodSignal `json:"foodSignal"`
	Confidence   float64    `json:"confidence"`
	HasFood      bool       `json:"hasFood"`
	HasLocation  bool       `json:"hasLocation"`
	HasModifiers bool       `json:"hasModifiers"`
	Language     string     `json:"language"`
}

// runGate executes C2: on timeout or schema-invalid output it returns the
// synthesized fallback decision of spec §4.2 instead of propagating the error,
// since a gate failure is non-fatal (falls back to FULL).
func runGate(ctx context.Context, adapter ai.Adapter, query string, timeout time.Duration, meta ai.CallMeta) GateDecision {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	meta.Stage = "gate"
	meta.PromptVersion = gatePromptVersion
	meta.PromptHash = ai.HashPrompt(gateSystemPrompt)

	var out gateModelOutput
	err := adapter.CompleteJSON(cctx, gateSystemPrompt, query, gateSchema, gateSchemaVersion, &out, meta)
	if err != nil {
		reason := "invalid_schema"
		if cctx.Err() != nil {
			reason = "gate_timeout"
		}
		return GateDecision{Route: GateRouteFull, Confidence: 0, Reason: reason}
	}

	return GateDecision{
		FoodSignal:   out.FoodSignal,
		Confidence:   out.Confidence,
		HasFood:      out.HasFood,
		HasLocation:  out.HasLocation,
		HasModifiers: out.HasModifiers,
		Language:     out.Language,
		Route:        computeGateRoute(out),
	}
}

// computeGateRoute applies spec §4.2's routing rules deterministically; the
// model supplies signals, not the route itself.
func computeGateRoute(out gateModelOutput) GateRoute {
	switch {
	case out.FoodSignal == FoodNo:
		return GateRouteStop
	case !out.HasFood && !out.HasLocation:
		return GateRouteClarify
	case out.FoodSignal == FoodYes && out.HasFood && out.HasLocation && out.Confidence >= GateConfidenceThreshold && !out.HasModifiers:
		return GateRouteCore
	default:
		return GateRouteFull
	}
}
