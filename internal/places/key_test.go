package places

import (
	"testing"

	"platefinder/internal/search"
)

func TestDeriveCacheKey_Stable(t *testing.T) {
	p := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "Pizza  Tel Aviv"}
	k1 := deriveCacheKey(p)
	k2 := deriveCacheKey(p)

	if k1.Full() != k2.Full() {
		t.Error("expected identical parameters to produce the same cache key")
	}
}

func TestDeriveCacheKey_WhitespaceAndCaseInsensitive(t *testing.T) {
	a := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza tel aviv"}
	b := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "  PIZZA   TEL   AVIV  "}

	if deriveCacheKey(a).Full() != deriveCacheKey(b).Full() {
		t.Error("expected whitespace/case-normalized queries to collide on cache key")
	}
}

func TestDeriveCacheKey_DifferentParamsDiffer(t *testing.T) {
	a := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza"}
	b := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "sushi"}

	if deriveCacheKey(a).Full() == deriveCacheKey(b).Full() {
		t.Error("expected different queries to produce different cache keys")
	}
}

func TestDeriveCacheKey_HashIsTruncated(t *testing.T) {
	p := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza"}
	k := deriveCacheKey(p)
	if len(k.Hash()) != 12 {
		t.Errorf("expected 12-char truncated hash, got %d chars", len(k.Hash()))
	}
	if len(k.Full()) != 64 {
		t.Errorf("expected 64-char full sha256 hex digest, got %d chars", len(k.Full()))
	}
}

func TestDeriveCacheKey_BiasAffectsKey(t *testing.T) {
	lat, lng, radius := 32.0, 34.0, 500.0
	withBias := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza", BiasLat: &lat, BiasLng: &lng, BiasRadius: &radius}
	withoutBias := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza"}

	if deriveCacheKey(withBias).Full() == deriveCacheKey(withoutBias).Full() {
		t.Error("expected bias presence to affect the cache key")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("  Hello   World  "); got != "hello world" {
		t.Errorf("got %q", got)
	}
	if got := normalizeWhitespace(""); got != "" {
		t.Errorf("got %q", got)
	}
}
