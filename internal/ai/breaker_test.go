package ai

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func TestErrBreakerOpen(t *testing.T) {
	if !errBreakerOpen(gobreaker.ErrOpenState) {
		t.Error("expected ErrOpenState recognized")
	}
	if !errBreakerOpen(gobreaker.ErrTooManyRequests) {
		t.Error("expected ErrTooManyRequests recognized")
	}
	if errBreakerOpen(errors.New("some other error")) {
		t.Error("expected unrelated errors to not be treated as breaker-open")
	}
	if errBreakerOpen(nil) {
		t.Error("expected nil to not be treated as breaker-open")
	}
}

func TestNewModelBreaker_TripsAfterFailureThreshold(t *testing.T) {
	b := newModelBreaker(zap.NewNop())

	for i := 0; i < 5; i++ {
		_, _ = b.Execute(func() (any, error) {
			return nil, errors.New("upstream failure")
		})
	}

	_, err := b.Execute(func() (any, error) { return "ok", nil })
	if !errBreakerOpen(err) {
		t.Errorf("expected breaker open after repeated failures, got %v", err)
	}
}
