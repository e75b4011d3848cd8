// Job and push-channel data model, built on the same state-machine shape as
// the order state machine (internal/modules/order/model.go), here covering
// the PENDING -> RUNNING -> {DONE_SUCCESS, DONE_FAILED} lifecycle.
package jobs

import (
	"time"

	"platefinder/internal/search"
	"platefinder/internal/types"
)

// Status is a Job's lifecycle state.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusRunning     Status = "RUNNING"
	StatusDoneSuccess Status = "DONE_SUCCESS"
	StatusDoneFailed  Status = "DONE_FAILED"
)

// allowedTransitions follows the buildTransitionSet/CanTransition pattern in
// internal/modules/order/model.go: no back-transitions, terminal states
// have no outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusDoneSuccess, StatusDoneFailed},
}

// CanTransition reports whether from -> to is a legal Job transition.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job is C7's durable unit of async work.
type Job struct {
	ID        types.ID
	Status    Status
	Result    *search.SearchResponse
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// StatusVersion backs optimistic-concurrency updates, the same role
	// order.Store's status_version CAS column plays.
	StatusVersion int
}

// DefaultTTL is the Job auto-expiry default: a job auto-expires after this
// TTL if never collected.
const DefaultTTL = time.Hour

// EnvelopeType discriminates the push-channel client/server envelope.
type EnvelopeType string

const (
	EnvelopeSubscribe   EnvelopeType = "subscribe"
	EnvelopeUnsubscribe EnvelopeType = "unsubscribe"
	EnvelopeEvent        EnvelopeType = "event"
)

// Envelope is the canonical client->server subscription control message.
type Envelope struct {
	V         int          `json:"v"`
	Type      EnvelopeType `json:"type"`
	Channel   string       `json:"channel"`
	RequestID types.ID     `json:"requestId"`
	SessionID types.ID     `json:"sessionId,omitempty"`

	// legacy shapes the server normalizes into the fields above.
	Payload *legacyPayload `json:"payload,omitempty"`
	ReqID   string         `json:"reqId,omitempty"`
}

type legacyPayload struct {
	RequestID string `json:"request-id"`
}

// Normalize folds legacy request-id shapes into the canonical RequestID field.
func (e *Envelope) Normalize() {
	if e.RequestID != "" {
		return
	}
	if e.Payload != nil && e.Payload.RequestID != "" {
		e.RequestID = types.ID(e.Payload.RequestID)
		return
	}
	if e.ReqID != "" {
		e.RequestID = types.ID(e.ReqID)
	}
}

// ServerEventType discriminates the server->client push message.
type ServerEventType string

const (
	ServerEventResults  ServerEventType = "results"
	ServerEventProgress ServerEventType = "progress"
	ServerEventError    ServerEventType = "error"
)

// ServerMessage is what gets published on a channel and delivered to subscribers.
type ServerMessage struct {
	Channel   string          `json:"channel"`
	RequestID types.ID        `json:"requestId"`
	Type      ServerEventType `json:"type"`
	Data      any             `json:"data"`
}

const (
	// DefaultBacklogSize is the bounded per-(channel,id) backlog size.
	DefaultBacklogSize = 50
	// DefaultBacklogTTL is the backlog entry expiry.
	DefaultBacklogTTL = 2 * time.Minute
)
