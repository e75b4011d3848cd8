// README: Circuit breaker around the upstream model call, grounded on the
// modelBreaker/OnStateChange pattern from the pack's agent-planner reference.
package ai

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func newModelBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "llm-adapter",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_change", zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// errBreakerOpen reports whether err came from an open/half-open breaker
// rejecting the call outright (never a real model-side failure).
func errBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (a *GeminiAdapter) callWithBreaker(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	return a.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
}
