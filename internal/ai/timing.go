// Five-checkpoint timing instrumentation for language-model calls.
// Uses monotonic time.Time deltas, never wall-clock arithmetic.
package ai

import (
	"time"

	"go.uber.org/zap"
)

// checkpoints captures t0..t4 for one call attempt.
type checkpoints struct {
	t0 time.Time // prompt-build start
	t1 time.Time // prompt-ready
	t2 time.Time // pre-send
	t3 time.Time // post-receive
	t4 time.Time // post-parse
}

// logAttempt emits exactly one log entry for this attempt.
func logAttempt(logger *zap.Logger, meta CallMeta, cp checkpoints, schemaVersion, schemaHash, model string, promptChars, attempt int, outcome string, inputTokens, outputTokens int) {
	logger.Info("llm_call_attempt",
		zap.String("stage", meta.Stage),
		zap.String("promptVersion", meta.PromptVersion),
		zap.String("promptHash", meta.PromptHash),
		zap.String("requestId", meta.RequestID),
		zap.String("traceId", meta.TraceID),
		zap.String("sessionId", meta.SessionID),
		zap.Int64("buildPromptMs", cp.t1.Sub(cp.t0).Milliseconds()),
		zap.Int64("networkMs", cp.t3.Sub(cp.t2).Milliseconds()),
		zap.Int64("parseMs", cp.t4.Sub(cp.t3).Milliseconds()),
		zap.Int64("totalMs", cp.t4.Sub(cp.t0).Milliseconds()),
		zap.Int("inputTokens", inputTokens),
		zap.Int("outputTokens", outputTokens),
		zap.Int("promptChars", promptChars),
		zap.String("model", model),
		zap.String("schemaVersion", schemaVersion),
		zap.String("schemaHash", schemaHash),
		zap.String("outcome", outcome),
		zap.Int("attempt", attempt),
	)
}
