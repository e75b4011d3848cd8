// README: Language-model adapter contract. CompleteJSON enforces a
// pre-declared static JSON Schema on every call site and validates the
// typed destination as defense in depth.
package ai

import "context"

// CallMeta is the call-site metadata every CompleteJSON caller must supply;
// the adapter forwards all of it onto every log record for correlation.
// PromptHash is a hash of the call site's static system-prompt text (see
// HashPrompt) — never the user's query — so records can be correlated to an
// exact prompt revision even if a PromptVersion bump was forgotten, without
// ever logging prompt content itself.
type CallMeta struct {
	Stage         string
	PromptVersion string
	PromptHash    string
	RequestID     string
	TraceID       string
	SessionID     string
}

// Adapter is the language-model boundary used by internal/search's gate,
// route mapper, and filter extractors.
type Adapter interface {
	// CompleteJSON sends systemPrompt+userPrompt to the model, constrained to
	// schema (a static literal, never computed from dest's type), and
	// unmarshals the result into dest. schemaVersion is logged for
	// correlation; dest must be a pointer.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt, schema, schemaVersion string, dest any, meta CallMeta) error
}
