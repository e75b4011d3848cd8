package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestPerIP_AllowsUpToBurst(t *testing.T) {
	p := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !p.Allow("1.2.3.4") {
			t.Fatalf("expected request %d to be allowed within burst", i+1)
		}
	}
	if p.Allow("1.2.3.4") {
		t.Error("expected request beyond burst to be denied")
	}
}

func TestPerIP_IndependentPerIP(t *testing.T) {
	p := New(1, time.Minute)
	if !p.Allow("1.1.1.1") {
		t.Error("expected first IP's first request allowed")
	}
	if !p.Allow("2.2.2.2") {
		t.Error("expected second IP to have its own independent bucket")
	}
	if p.Allow("1.1.1.1") {
		t.Error("expected first IP's second request denied")
	}
}

func TestPerIP_Sweep_RemovesIdleEntries(t *testing.T) {
	p := New(5, time.Minute)
	p.Allow("9.9.9.9")
	p.idleTTL = 0 // force everything to look idle

	p.Sweep()

	p.mu.Lock()
	_, exists := p.limiters["9.9.9.9"]
	p.mu.Unlock()
	if exists {
		t.Error("expected idle entry removed by Sweep")
	}
}

func TestPerIP_DefaultsAppliedForInvalidConfig(t *testing.T) {
	p := New(0, 0)
	if p.burst != 60 {
		t.Errorf("expected default burst 60, got %d", p.burst)
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "5.6.7.8, 10.0.0.1")
	r.RemoteAddr = "127.0.0.1:1234"

	if got := ClientIP(r); got != "5.6.7.8" {
		t.Errorf("ClientIP() = %q, want %q", got, "5.6.7.8")
	}
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.5:5555"

	if got := ClientIP(r); got != "203.0.113.5" {
		t.Errorf("ClientIP() = %q, want %q", got, "203.0.113.5")
	}
}

func TestClientIP_MalformedRemoteAddr(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "not-a-host-port"

	if got := ClientIP(r); got != "not-a-host-port" {
		t.Errorf("ClientIP() = %q, want raw RemoteAddr fallback", got)
	}
}
