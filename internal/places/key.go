// README: Cache-key derivation. SHA-256 over a canonicalized form of the
// provider parameters, truncated for logging; the raw key is never logged
// (spec §4.5/§8 property 10).
package places

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"platefinder/internal/search"
)

// CacheKey is the full (loggable-only-as-prefix) cache key for one set of
// provider parameters.
type CacheKey struct {
	full   string
	hashed string
}

// Hash returns the truncated hex hash safe to include in logs.
func (k CacheKey) Hash() string { return k.hashed }

// Full returns the full hash used for map/Redis lookups.
func (k CacheKey) Full() string { return k.full }

// deriveCacheKey canonicalizes params (stable field order, normalized
// whitespace) and hashes it. Two calls with the same logical parameters
// always yield the same key, independent of how the caller assembled them.
func deriveCacheKey(p search.ProviderParameters) CacheKey {
	canon := canonicalize(p)
	sum := sha256.Sum256([]byte(canon))
	full := hex.EncodeToString(sum[:])
	hashed := full
	if len(hashed) > 12 {
		hashed = hashed[:12]
	}
	return CacheKey{full: full, hashed: hashed}
}

func canonicalize(p search.ProviderParameters) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s;", p.Kind)
	fmt.Fprintf(&b, "text=%s;", normalizeWhitespace(p.TextQuery))
	if p.Center != nil {
		fmt.Fprintf(&b, "center=%.6f,%.6f;", p.Center.Lat, p.Center.Lng)
	}
	fmt.Fprintf(&b, "radius=%.1f;", p.Radius)
	fmt.Fprintf(&b, "keyword=%s;", normalizeWhitespace(p.Keyword))
	fmt.Fprintf(&b, "geocode=%s;", normalizeWhitespace(p.GeocodeQuery))
	fmt.Fprintf(&b, "region=%s;", strings.ToLower(p.Region))
	fmt.Fprintf(&b, "language=%s;", strings.ToLower(p.Language))
	if p.HasBias() {
		fmt.Fprintf(&b, "bias=%.6f,%.6f,%.1f;", *p.BiasLat, *p.BiasLng, *p.BiasRadius)
	} else {
		b.WriteString("bias=none;")
	}
	fmt.Fprintf(&b, "openNow=%t;", p.OpenNow)
	return b.String()
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}
