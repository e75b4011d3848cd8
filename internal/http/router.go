// HTTP router registration (Gin), one handler struct per concern
// constructed with New<X>Handler.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"platefinder/internal/http/handlers"
	"platefinder/internal/http/middleware"
	"platefinder/internal/infra"
)

type Handlers struct {
	Search    *handlers.SearchHandler
	Auth      *handlers.AuthHandler
	Analytics *handlers.AnalyticsHandler
	Photo     *handlers.PhotoHandler
	Stream    *handlers.StreamHandler
}

func NewRouter(h Handlers, verifier infra.TokenVerifier, frontendOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(corsMiddleware(frontendOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api/v1")

	api.POST("/search", h.Search.Create)
	api.GET("/search/:requestId/result", h.Search.Result)
	api.GET("/search/stats", h.Search.Stats)

	api.POST("/auth/session", h.Auth.CreateSession)
	api.GET("/auth/whoami", middleware.Auth(verifier), h.Auth.WhoAmI)

	api.POST("/analytics/events", h.Analytics.Ingest)

	api.GET("/photos/*ref", h.Photo.Fetch)

	stream := api.Group("/stream")
	stream.Use(middleware.Auth(verifier))
	stream.POST("/subscribe", h.Stream.Subscribe)
	stream.GET("/:channel/:requestId", h.Stream.Stream)

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (len(allowed) == 0 || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
