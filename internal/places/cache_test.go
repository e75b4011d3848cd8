package places

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"platefinder/internal/search"
)

func newTestCache() *TieredCache {
	return NewTieredCache(nil, 10, time.Minute, time.Minute, time.Minute, zap.NewNop())
}

func TestTieredCache_MissThenL1Hit(t *testing.T) {
	c := newTestCache()
	params := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza"}
	calls := 0
	load := func(context.Context) ([]search.PlaceCandidate, error) {
		calls++
		return []search.PlaceCandidate{{ProviderID: "1", DisplayName: "Pizza Place"}}, nil
	}

	got, err := c.Fetch(context.Background(), params, load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ProviderID != "1" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if calls != 1 {
		t.Fatalf("expected load called once, got %d", calls)
	}

	got2, err := c.Fetch(context.Background(), params, load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got2) != 1 || got2[0].ProviderID != "1" {
		t.Fatalf("unexpected cached result: %+v", got2)
	}
	if calls != 1 {
		t.Fatalf("expected load NOT called again on L1 hit, got %d calls", calls)
	}
}

func TestTieredCache_PropagatesLoadError(t *testing.T) {
	c := newTestCache()
	params := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "sushi"}
	wantErr := search.ErrProviderError

	_, err := c.Fetch(context.Background(), params, func(context.Context) ([]search.PlaceCandidate, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("expected load error propagated, got %v", err)
	}
}

func TestTieredCache_DistinctParamsDoNotCollide(t *testing.T) {
	c := newTestCache()
	calls := 0
	load := func(name string) func(context.Context) ([]search.PlaceCandidate, error) {
		return func(context.Context) ([]search.PlaceCandidate, error) {
			calls++
			return []search.PlaceCandidate{{ProviderID: name}}, nil
		}
	}

	got1, _ := c.Fetch(context.Background(), search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza"}, load("pizza"))
	got2, _ := c.Fetch(context.Background(), search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "sushi"}, load("sushi"))

	if got1[0].ProviderID != "pizza" || got2[0].ProviderID != "sushi" {
		t.Errorf("expected distinct results per parameter set, got %+v / %+v", got1, got2)
	}
	if calls != 2 {
		t.Errorf("expected both loads to run, got %d calls", calls)
	}
}

func TestTieredCache_NilRedisDoesNotPanic(t *testing.T) {
	c := newTestCache()
	params := search.ProviderParameters{Kind: search.ParamTextSearch, TextQuery: "pizza", OpenNow: true}
	_, err := c.Fetch(context.Background(), params, func(context.Context) ([]search.PlaceCandidate, error) {
		return []search.PlaceCandidate{{ProviderID: "1"}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error with nil redis client: %v", err)
	}
}
