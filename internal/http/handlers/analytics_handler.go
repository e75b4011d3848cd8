// README: POST /api/v1/analytics/events, a bounded in-memory ring buffer of
// client-side events (default 1000, oldest overwritten first). Pure stdlib
// by design: no pack example implements a ring buffer import-worthily, and
// this is ~15 lines of index arithmetic (see DESIGN.md).
package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultRingCapacity = 1000

type AnalyticsEvent struct {
	Name      string         `json:"name"`
	Props     map[string]any `json:"props,omitempty"`
	ClientTS  int64          `json:"clientTimestamp,omitempty"`
	ReceivedAt time.Time     `json:"-"`
}

// AnalyticsHandler holds a fixed-capacity ring of the most recent events.
type AnalyticsHandler struct {
	mu       sync.Mutex
	buf      []AnalyticsEvent
	capacity int
	next     int
	filled   bool
}

func NewAnalyticsHandler(capacity int) *AnalyticsHandler {
	if capacity <= 0 {
		capacity = defaultRingCapacity
	}
	return &AnalyticsHandler{buf: make([]AnalyticsEvent, capacity), capacity: capacity}
}

type ingestBody struct {
	Events []AnalyticsEvent `json:"events"`
}

func (h *AnalyticsHandler) Ingest(c *gin.Context) {
	var body ingestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error")
		return
	}

	now := time.Now()
	h.mu.Lock()
	for _, e := range body.Events {
		e.ReceivedAt = now
		h.buf[h.next] = e
		h.next = (h.next + 1) % h.capacity
		if h.next == 0 {
			h.filled = true
		}
	}
	h.mu.Unlock()

	writeJSON(c, http.StatusAccepted, gin.H{"accepted": len(body.Events)})
}

// Snapshot returns the currently buffered events, oldest first, for tests
// and internal diagnostics.
func (h *AnalyticsHandler) Snapshot() []AnalyticsEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.filled {
		out := make([]AnalyticsEvent, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]AnalyticsEvent, h.capacity)
	copy(out, h.buf[h.next:])
	copy(out[h.capacity-h.next:], h.buf[:h.next])
	return out
}
