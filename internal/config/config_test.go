package config

import "testing"

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ,c ", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitCSV(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitCSV(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("PF_TEST_KEY", "custom")
	if got := envOrDefault("PF_TEST_KEY", "fallback"); got != "custom" {
		t.Errorf("got %q, want %q", got, "custom")
	}
	if got := envOrDefault("PF_TEST_UNSET_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q, want %q", got, "fallback")
	}
}

func TestEnvOrDefaultInt(t *testing.T) {
	t.Setenv("PF_TEST_INT", "42")
	if got := envOrDefaultInt("PF_TEST_INT", 7); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	if got := envOrDefaultInt("PF_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestEnvOrDefaultInt_InvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("PF_TEST_INT_BAD", "not-a-number")
	if got := envOrDefaultInt("PF_TEST_INT_BAD", 9); got != 9 {
		t.Errorf("got %d, want fallback 9", got)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	t.Setenv("PF_TEST_BOOL", "true")
	if got := envOrDefaultBool("PF_TEST_BOOL", false); !got {
		t.Error("expected true")
	}
	if got := envOrDefaultBool("PF_TEST_BOOL_UNSET", true); !got {
		t.Error("expected default true when unset")
	}
}

func TestEnvOrDefaultMS(t *testing.T) {
	t.Setenv("PF_TEST_MS", "250")
	if got := envOrDefaultMS("PF_TEST_MS", 1000); got.Milliseconds() != 250 {
		t.Errorf("got %v, want 250ms", got)
	}
}

func TestLoad_PopulatesFromEnv(t *testing.T) {
	t.Setenv("MODEL_API_KEY", "gemini-test-key")
	t.Setenv("PROVIDER_API_KEY", "maps-test-key")
	t.Setenv("PLATEFINDER_HTTP_ADDR", ":9090")
	t.Setenv("GATE_TIMEOUT_MS", "1234")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected HTTP addr :9090, got %q", cfg.HTTP.Addr)
	}
	if cfg.AI.GeminiKey != "gemini-test-key" {
		t.Errorf("expected gemini key loaded, got %q", cfg.AI.GeminiKey)
	}
	if cfg.Maps.APIKey != "maps-test-key" {
		t.Errorf("expected maps key loaded, got %q", cfg.Maps.APIKey)
	}
	if cfg.Pipeline.GateTimeout.Milliseconds() != 1234 {
		t.Errorf("expected gate timeout 1234ms, got %v", cfg.Pipeline.GateTimeout)
	}
}

func TestPipelineConfig_ToSearchConfigFields(t *testing.T) {
	pc := PipelineConfig{
		GateTimeout:       1,
		FullIntentTimeout: 2,
		FilterTimeout:     3,
		ProviderTimeout:   4,
	}
	gate, full, filter, provider := pc.ToSearchConfigFields()
	if gate != 1 || full != 2 || filter != 3 || provider != 4 {
		t.Errorf("unexpected field mapping: %v %v %v %v", gate, full, filter, provider)
	}
}
