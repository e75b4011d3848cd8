// README: Cache-entry data model for the place provider client. The
// candidate record itself (PlaceCandidate) lives in internal/search/model.go
// — this package imports it from there rather than defining its own, since
// internal/places already imports internal/search (for ProviderParameters)
// and a reverse dependency would be an import cycle.
package places

// CacheTier identifies which tier produced or stored a CacheEntry.
type CacheTier string

const (
	TierL1 CacheTier = "L1"
	TierL2 CacheTier = "L2"
)

// CacheEntry is the stored unit in L1/L2: a key-hash, a serialized candidate
// payload, and tier-specific bookkeeping.
type CacheEntry struct {
	KeyHash   string
	Payload   []byte
	CreatedAt int64 // unix seconds
	TTLSeconds int
	Tier      CacheTier
}
