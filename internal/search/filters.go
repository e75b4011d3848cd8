// README: Filter extractors (C4) — base filters and post-constraints, run as
// a parallel group after routing, plus the deterministic resolveFilters merge.
package search

import (
	"context"

	"platefinder/internal/ai"
)

const (
	basePromptVersion = "base-filters.v1"
	postPromptVersion = "post-constraints.v1"
)

const baseExtractorSystemPrompt = `You extract structured search filters from a restaurant-search query.
Set openState to OPEN_NOW only if the query explicitly asks for places open right now, in any language.
Set openAt/openBetween only when a specific day and time (or range) is requested.
Never emit a filter for "closed" — the provider has no such filter; omit it entirely if asked.
Echo the detected language as a BCP-47-ish tag and, if present, a two-letter region hint.`

const postExtractorSystemPrompt = `You extract structured post-filter constraints from a restaurant-search query.
Map price language (€, cheap, budget, expensive, upscale, and equivalents in any language) to priceLevel 1-4.
Detect whether the query requires kosher, wheelchair accessibility, or parking.
Extract temporal constraints (openState/openAt/openBetween) using the same grammar as the base filters.`

// extractBaseFilters runs the base extractor. On any failure (timeout,
// transport, schema) it returns the all-null default, per spec §4.4's
// failure semantics — the pipeline continues unaffected.
func extractBaseFilters(ctx context.Context, adapter ai.Adapter, query string, meta ai.CallMeta) BaseFilters {
	meta.Stage = "filters.base"
	meta.PromptVersion = basePromptVersion
	meta.PromptHash = ai.HashPrompt(baseExtractorSystemPrompt)
	var out BaseFilters
	if err := adapter.CompleteJSON(ctx, baseExtractorSystemPrompt, query, baseFilterSchema, baseFilterSchemaVersion, &out, meta); err != nil {
		return BaseFilters{}
	}
	stripUnsupportedOpenClosed(&out)
	return out
}

// extractPostConstraints runs the post-constraint extractor, same failure
// semantics as extractBaseFilters.
func extractPostConstraints(ctx context.Context, adapter ai.Adapter, query string, meta ai.CallMeta) PostConstraints {
	meta.Stage = "filters.post"
	meta.PromptVersion = postPromptVersion
	meta.PromptHash = ai.HashPrompt(postExtractorSystemPrompt)
	var out PostConstraints
	if err := adapter.CompleteJSON(ctx, postExtractorSystemPrompt, query, postConstraintSchema, postConstraintSchemaVersion, &out, meta); err != nil {
		return PostConstraints{}
	}
	return out
}

// stripUnsupportedOpenClosed defends against the model emitting an
// open-closed-now marker the provider cannot express (spec §4.4).
func stripUnsupportedOpenClosed(f *BaseFilters) {
	if f.OpenState != OpenStateNow && f.OpenState != OpenStateAt && f.OpenState != OpenStateBetween {
		f.OpenState = OpenStateNone
	}
}

// resolveFilters deterministically merges BaseFilters and PostConstraints
// into FinalFilters, per spec §4.4's resolution rules.
func resolveFilters(base BaseFilters, post PostConstraints, gate GateDecision, regionHint string) FinalFilters {
	out := FinalFilters{
		Language:     firstNonEmpty(gate.Language, base.Language),
		RegionHint:   firstNonEmpty(regionHint, base.RegionHint),
		OpenState:    base.OpenState,
		OpenAt:       base.OpenAt,
		OpenBetween:  base.OpenBetween,
		PriceLevel:   post.PriceLevel,
		IsKosher:     post.IsKosher,
		Requirements: post.Requirements,
	}

	// Post-constraints override base on temporal fields.
	if post.OpenState != OpenStateNone {
		out.OpenState = post.OpenState
		out.OpenAt = post.OpenAt
		out.OpenBetween = post.OpenBetween
	}

	tighten(&out)
	return out
}

// tighten enforces spec §4.4's "tighten" rules: OPEN_NOW clears the
// day/time fields; a set openAt/openBetween forces the matching openState.
func tighten(f *FinalFilters) {
	switch {
	case f.OpenState == OpenStateNow:
		f.OpenAt, f.OpenBetween = nil, nil
	case f.OpenAt != nil:
		f.OpenState = OpenStateAt
		f.OpenBetween = nil
	case f.OpenBetween != nil:
		f.OpenState = OpenStateBetween
		f.OpenAt = nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
