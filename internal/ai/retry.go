// README: Retry/backoff policy for language-model calls. Grounded on the
// explicit backoff-ladder style used for reconciliation retries elsewhere in
// the pack, adapted here to the transport-vs-parse split required by the
// strict-schema adapter.
package ai

import (
	"context"
	"errors"
	"time"
)

// TransportError marks a retryable failure: HTTP 429/5xx, network timeout,
// or connection abort.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError marks a non-retryable failure: the model's output didn't parse
// as JSON or didn't satisfy the schema.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string { return e.Err.Error() }
func (e *SchemaError) Unwrap() error { return e.Err }

// backoffLadder is the fixed 0/500/1500ms retry schedule.
var backoffLadder = []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond}

// attemptFn performs one call attempt; it receives the 0-based attempt index
// from retryDo and returns that attempt's error.
type attemptFn func(ctx context.Context, attempt int) error

// retryDo runs fn following the transport-vs-parse retry policy: transport
// errors retry up to 3 attempts on the backoff ladder; schema/parse errors
// never retry — they indicate a real issue and fail fast.
func retryDo(ctx context.Context, fn attemptFn) error {
	var lastErr error
	for attempt := 0; attempt < len(backoffLadder); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffLadder[attempt]):
			}
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return err
		}
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			// Unclassified error: treat conservatively as non-retryable.
			return err
		}
	}
	return lastErr
}
