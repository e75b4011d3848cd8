// GET /api/v1/photos/{opaque-reference}, proxying a photo by the opaque
// "provider-id/photos/photo-id" reference produced by internal/places,
// attaching provider credentials server-side. Rate-limited per source IP
// (default 60/minute) via internal/ratelimit.
package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"platefinder/internal/places"
	"platefinder/internal/ratelimit"
)

// photoRefPattern enforces the "provider-id/photos/photo-id" shape; any
// reference not matching it is refused.
var photoRefPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+/photos/[A-Za-z0-9_-]+$`)

type PhotoHandler struct {
	client  *places.Client
	limiter *ratelimit.PerIP
}

func NewPhotoHandler(client *places.Client, limiter *ratelimit.PerIP) *PhotoHandler {
	return &PhotoHandler{client: client, limiter: limiter}
}

func (h *PhotoHandler) Fetch(c *gin.Context) {
	if !h.limiter.Allow(ratelimit.ClientIP(c.Request)) {
		c.Status(http.StatusTooManyRequests)
		return
	}

	ref := c.Param("ref")
	if len(ref) > 0 && ref[0] == '/' {
		ref = ref[1:]
	}
	if !photoRefPattern.MatchString(ref) {
		c.Status(http.StatusBadRequest)
		return
	}

	parts := regexp.MustCompile(`/photos/`).Split(ref, 2)
	photoReference := parts[1]

	data, contentType, err := h.client.FetchPhoto(c.Request.Context(), photoReference, 800)
	if err != nil {
		c.Status(http.StatusBadGateway)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}
