// POST /api/v1/auth/session and GET /api/v1/auth/whoami, built on
// infra.TokenVerifier (internal/infra/firebase.go) for an authenticated
// search session.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"platefinder/internal/http/middleware"
	"platefinder/internal/infra"
)

type AuthHandler struct {
	verifier     infra.TokenVerifier
	cookieTTL    time.Duration
	cookieDomain string
}

func NewAuthHandler(verifier infra.TokenVerifier, cookieTTL time.Duration, cookieDomain string) *AuthHandler {
	return &AuthHandler{verifier: verifier, cookieTTL: cookieTTL, cookieDomain: cookieDomain}
}

// CreateSession verifies the caller's bearer ID token and, on success, mints
// an HttpOnly/Secure/SameSite=None session cookie scoped to cookieDomain,
// so the cookie still works across cross-origin subdomains. The cookie
// value is the same Firebase ID token; the middleware accepts either form.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		writeError(c, http.StatusBadRequest, "missing bearer token")
		return
	}
	token := strings.TrimPrefix(auth, prefix)

	if _, err := h.verifier.VerifyIDToken(c.Request.Context(), token); err != nil {
		writeError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(
		middleware.SessionCookieName,
		token,
		int(h.cookieTTL.Seconds()),
		"/",
		h.cookieDomain,
		true, // Secure
		true, // HttpOnly
	)
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// WhoAmI reports the authenticated identity established by middleware.Auth.
func (h *AuthHandler) WhoAmI(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"uid":  middleware.CallerUID(c),
		"role": middleware.CallerRole(c),
	})
}
