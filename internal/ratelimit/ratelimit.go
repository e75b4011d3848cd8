// README: Per-source-IP token bucket rate limiter for the photo-proxy
// endpoint (spec §6, default 60/minute), built on golang.org/x/time/rate —
// the same golang.org/x family already in the pack's surface (x/sync,
// x/oauth2). Grounded structurally on the teacher's map-of-per-key-state
// pattern used by internal/modules/location's per-driver snapshot map, here
// keyed by IP instead of driver id.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PerIP hands out one rate.Limiter per source IP, evicting entries that have
// been idle past idleTTL so the map doesn't grow unbounded under churn.
type PerIP struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

type entry struct {
	limiter    *rate.Limiter
	lastSeen   time.Time
}

// New constructs a PerIP limiter allowing max events per window, e.g.
// New(60, time.Minute) for "60/minute" (spec §6 photo-proxy default).
func New(max int, window time.Duration) *PerIP {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	rps := rate.Limit(float64(max) / window.Seconds())
	return &PerIP{
		limiters: make(map[string]*entry),
		rps:      rps,
		burst:    max,
		idleTTL:  10 * window,
	}
}

// Allow reports whether a request from ip may proceed right now.
func (p *PerIP) Allow(ip string) bool {
	p.mu.Lock()
	e, ok := p.limiters[ip]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	p.mu.Unlock()
	return e.limiter.Allow()
}

// Sweep drops limiter state for IPs idle past idleTTL; intended to run on a
// periodic ticker alongside the job-store and backlog sweepers.
func (p *PerIP) Sweep() {
	cutoff := time.Now().Add(-p.idleTTL)
	p.mu.Lock()
	defer p.mu.Unlock()
	for ip, e := range p.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(p.limiters, ip)
		}
	}
}

// ClientIP extracts the source IP from a request, preferring the first
// X-Forwarded-For hop when present (the photo proxy typically sits behind an
// edge load balancer), falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := indexByte(fwd, ','); i >= 0 {
			return trimSpace(fwd[:i])
		}
		return trimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}
