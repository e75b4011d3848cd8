// Gemini-backed implementation of Adapter. Supports a family of call sites
// distinguished by CallMeta.Stage/PromptVersion, each with its own static
// schema and typed destination struct.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiAdapter implements Adapter using Google's Gemini models, with strict
// JSON-schema prompting, retry/backoff, a circuit breaker, and five-checkpoint
// timing instrumentation per call.
type GeminiAdapter struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	modelID string
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewGeminiAdapter constructs an Adapter backed by the given API key.
func NewGeminiAdapter(ctx context.Context, apiKey, modelID string, logger *zap.Logger) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	if modelID == "" {
		modelID = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelID)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.2)

	return &GeminiAdapter{
		client:  client,
		model:   model,
		modelID: modelID,
		logger:  logger,
		breaker: newModelBreaker(logger),
	}, nil
}

// Close releases the underlying Gemini client.
func (a *GeminiAdapter) Close() { a.client.Close() }

// CompleteJSON implements Adapter.
func (a *GeminiAdapter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schema, schemaVersion string, dest any, meta CallMeta) error {
	schemaHash := shortHash(schema)
	prompt := fmt.Sprintf("%s\n\nOutput JSON Schema (must conform exactly):\n%s\n\nUser Message: %s", systemPrompt, schema, userPrompt)

	attempt := 0
	err := retryDo(ctx, func(ctx context.Context, a2 int) error {
		attempt = a2
		return a.completeOnce(ctx, prompt, dest, meta, schemaVersion, schemaHash, len(prompt), attempt)
	})
	return err
}

func (a *GeminiAdapter) completeOnce(ctx context.Context, prompt string, dest any, meta CallMeta, schemaVersion, schemaHash string, promptChars, attempt int) error {
	cp := checkpoints{t0: time.Now()}
	cp.t1 = time.Now()
	cp.t2 = time.Now()

	raw, err := a.callWithBreaker(ctx, func(ctx context.Context) (any, error) {
		resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		return resp, nil
	})
	cp.t3 = time.Now()
	if err != nil {
		if errBreakerOpen(err) {
			err = &TransportError{Err: err}
		}
		logAttempt(a.logger, meta, cp, schemaVersion, schemaHash, a.modelID, promptChars, attempt, "transport_error", 0, 0)
		return err
	}

	resp := raw.(*genai.GenerateContentResponse)
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		cp.t4 = time.Now()
		logAttempt(a.logger, meta, cp, schemaVersion, schemaHash, a.modelID, promptChars, attempt, "empty_response", 0, 0)
		return &TransportError{Err: fmt.Errorf("no response candidates")}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	clean := cleanJSONString(text.String())

	if err := json.Unmarshal([]byte(clean), dest); err != nil {
		cp.t4 = time.Now()
		logAttempt(a.logger, meta, cp, schemaVersion, schemaHash, a.modelID, promptChars, attempt, "parse_error", 0, 0)
		return &SchemaError{Err: fmt.Errorf("json unmarshal: %w", err)}
	}

	cp.t4 = time.Now()
	var inputTokens, outputTokens int
	if resp.UsageMetadata != nil {
		inputTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	logAttempt(a.logger, meta, cp, schemaVersion, schemaHash, a.modelID, promptChars, attempt, "ok", inputTokens, outputTokens)
	return nil
}

// cleanJSONString removes markdown code fences if present.
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

// shortHash hashes prompt/schema text for logging without exposing content:
// only its length and hash are ever logged, never the text itself.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// HashPrompt is shortHash exported for call sites (internal/search's gate,
// route mapper, and filter extractors) to populate CallMeta.PromptHash from
// their static system-prompt constant, per spec §4.8 "Call-site metadata".
func HashPrompt(s string) string {
	return shortHash(s)
}
