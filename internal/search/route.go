// README: Route Selector & Mapper (C3) — chooses NEARBY/TEXTSEARCH/LANDMARK
// and produces route-specific ProviderParameters.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"platefinder/internal/ai"
	"platefinder/internal/types"
)

const routePromptVersion = "route.v1"

const routeSystemPrompt = `You choose a search route and map a restaurant-search query to provider parameters.
Routes: NEARBY ("near me"/"closest"/"around me" and equivalents; requires caller coordinates),
LANDMARK (a specific named place/landmark/address; geocode then search nearby it),
TEXTSEARCH (a city/area or general text search; no coordinate bias required).
Category text MUST be a canonical English category keyword (e.g. "pizza", "italian restaurant"),
UNLESS the query's language matches the caller's region, in which case keep the original-language term for locality.
Location text MUST preserve the original language and MUST NOT appear inside the category field.
NEVER invent coordinates — you only ever see coordinates the caller already supplied.
NEVER combine rankby=distance with a text search.
If you include a bias, you MUST include all three of biasLat/biasLng/biasRadiusMeters together, never partially.`

// routeModelOutput is the model's proposal; the orchestrator may still force
// NEARBY over it via the near-me override (spec §4.1 step 3).
type routeModelOutput struct {
	Route            Route   `json:"route"`
	LanguageHint     string  `json:"languageHint"`
	RegionHint       string  `json:"regionHint"`
	Confidence       float64 `json:"confidence"`
	TextQuery        string  `json:"textQuery"`
	Keyword          string  `json:"keyword"`
	GeocodeQuery     string  `json:"geocodeQuery"`
	BiasRadiusMeters float64 `json:"biasRadiusMeters"`
}

// runRoute executes C3. Per spec §4.1's failure policy ("Full-extraction
// timeout ⇒ fatal for the request") and §7 (INTENT_FAILED / LOW_CONFIDENCE),
// a timeout or schema failure here is fatal for the request — unlike the
// gate (C2), which falls back to FULL on timeout, C3 has no degraded mode
// to fall back to: a TEXTSEARCH built from the raw query can't honor the
// mapper's canonicalization/bias rules, so the caller surfaces ErrIntentFailed
// instead of returning a silently-degraded decision.
func runRoute(ctx context.Context, adapter ai.Adapter, query string, userLoc *types.Point, timeout time.Duration, meta ai.CallMeta) (RouteDecision, ProviderParameters, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	meta.Stage = "route"
	meta.PromptVersion = routePromptVersion
	meta.PromptHash = ai.HashPrompt(routeSystemPrompt)

	var out routeModelOutput
	if err := adapter.CompleteJSON(cctx, routeSystemPrompt, query, routeSchema, routeSchemaVersion, &out, meta); err != nil {
		return RouteDecision{}, ProviderParameters{}, fmt.Errorf("%w: %v", ErrIntentFailed, err)
	}

	decision := RouteDecision{
		Route:      out.Route,
		Language:   out.LanguageHint,
		Region:     out.RegionHint,
		Confidence: out.Confidence,
		Reason:     "model",
	}

	params := mapParameters(out, userLoc)
	return decision, params, nil
}

func mapParameters(out routeModelOutput, userLoc *types.Point) ProviderParameters {
	switch out.Route {
	case RouteNearby:
		p := ProviderParameters{
			Kind:     ParamNearby,
			Keyword:  stripLocationTokens(out.Keyword),
			Region:   out.RegionHint,
			Language: out.LanguageHint,
			Radius:   2000,
		}
		if userLoc != nil {
			loc := *userLoc
			p.Center = &loc
		}
		return p
	case RouteLandmark:
		return ProviderParameters{
			Kind:         ParamLandmark,
			GeocodeQuery: out.GeocodeQuery,
			Keyword:      out.TextQuery,
			Radius:       1500,
			Region:       out.RegionHint,
			Language:     out.LanguageHint,
		}
	default:
		params := ProviderParameters{
			Kind:     ParamTextSearch,
			TextQuery: out.TextQuery,
			Region:   out.RegionHint,
			Language: out.LanguageHint,
		}
		if userLoc != nil && out.BiasRadiusMeters > 0 {
			lat, lng, radius := userLoc.Lat, userLoc.Lng, out.BiasRadiusMeters
			params.BiasLat, params.BiasLng, params.BiasRadius = &lat, &lng, &radius
		}
		return params
	}
}

// stripLocationTokens is a defensive pass removing obvious location
// connector words ("in", "near", "at") the model might have left in a
// keyword field, per spec §4.3 "category field MUST NOT contain location
// tokens".
func stripLocationTokens(s string) string {
	lower := strings.ToLower(s)
	for _, tok := range []string{" in ", " near ", " at "} {
		if idx := strings.Index(lower, tok); idx >= 0 {
			return strings.TrimSpace(s[:idx])
		}
	}
	return s
}
