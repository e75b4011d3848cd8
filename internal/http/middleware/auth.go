// README: Session auth middleware. Accepts either a bearer Firebase ID token
// (used once, at POST /api/v1/auth/session, to mint the cookie) or the
// session cookie itself on every subsequent request, and stashes the
// caller's uid/role on the gin context for handlers and CallerUID/CallerRole.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"platefinder/internal/infra"
)

const (
	ctxKeyUID  = "auth.uid"
	ctxKeyRole = "auth.role"

	// SessionCookieName is the cookie set by POST /api/v1/auth/session and
	// read back by this middleware on every request.
	SessionCookieName = "pf_session"
)

// Auth verifies either the Authorization bearer header or the session
// cookie against verifier and populates the caller's identity on success.
// Requests with neither, or a failing verification, are rejected 401.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		claims, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		role, _ := claims.Claims["role"].(string)
		c.Set(ctxKeyUID, claims.UID)
		c.Set(ctxKeyRole, role)
		c.Next()
	}
}

func extractToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			return "", false
		}
		return strings.TrimPrefix(auth, prefix), true
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// CallerUID returns the authenticated caller's uid, or "" if Auth never ran.
func CallerUID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUID)
	s, _ := v.(string)
	return s
}

// CallerRole returns the authenticated caller's role claim, or "".
func CallerRole(c *gin.Context) string {
	v, _ := c.Get(ctxKeyRole)
	s, _ := v.(string)
	return s
}
