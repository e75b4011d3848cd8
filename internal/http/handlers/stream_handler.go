// Push-channel transport. POST /api/v1/stream/subscribe accepts the
// canonical client envelope and validates and normalizes it without keeping
// any subscription state (the subscription is made when the stream opens); GET
// /api/v1/stream/{channel}/{requestId} opens the actual Server-Sent
// Events stream, modeled on the loci-app HandleRestaurantsSSE
// c.SSEvent/flusher.Flush pattern. Subscriptions are session-scoped;
// unauthenticated callers are refused by middleware.Auth before reaching
// either handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"platefinder/internal/http/middleware"
	"platefinder/internal/jobs"
	"platefinder/internal/types"
)

type StreamHandler struct {
	channel jobs.Channel
	logger  *zap.Logger
}

func NewStreamHandler(channel jobs.Channel, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{channel: channel, logger: logger}
}

// Subscribe validates and normalizes the client's canonical envelope. The
// actual stream is opened by Stream below; this endpoint exists because SSE
// itself is server-to-client only, so subscription intent needs a side
// channel.
func (h *StreamHandler) Subscribe(c *gin.Context) {
	var env jobs.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error")
		return
	}
	env.Normalize()
	if env.RequestID == "" || env.Channel == "" {
		writeError(c, http.StatusBadRequest, "validation_error")
		return
	}
	if env.SessionID == "" {
		env.SessionID = types.ID(middleware.CallerUID(c))
	}
	writeJSON(c, http.StatusAccepted, gin.H{"status": "subscribed", "channel": env.Channel, "requestId": env.RequestID})
}

// Stream opens the SSE connection for one (channel, requestId) pair,
// replaying any backlog before streaming live messages until the client
// disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
	channel := c.Param("channel")
	requestID := types.ID(c.Param("requestId"))
	if channel == "" || requestID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	msgs, unsubscribe, err := h.channel.Subscribe(ctx, channel, requestID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsubscribe()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	for {
		select {
		case msg, open := <-msgs:
			if !open {
				return
			}
			c.SSEvent(string(msg.Type), msg)
			flusher.Flush()
			if msg.Type == jobs.ServerEventResults || msg.Type == jobs.ServerEventError {
				return
			}
		case <-ctx.Done():
			h.logger.Info("stream_closed", zap.String("channel", channel), zap.String("requestId", requestID.String()))
			return
		}
	}
}
