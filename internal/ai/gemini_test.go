package ai

import "testing"

func TestCleanJSONString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"fenced with language tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without language tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONString(tt.in); got != tt.want {
				t.Errorf("cleanJSONString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShortHash_StableAndTruncated(t *testing.T) {
	h1 := shortHash("schema-v1")
	h2 := shortHash("schema-v1")
	if h1 != h2 {
		t.Error("expected identical input to hash identically")
	}
	if len(h1) != 12 {
		t.Errorf("expected 12-char truncated hash, got %d", len(h1))
	}
}

func TestShortHash_DifferentInputsDiffer(t *testing.T) {
	if shortHash("a") == shortHash("b") {
		t.Error("expected different inputs to hash differently")
	}
}
