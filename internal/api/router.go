// Package api wires the HTTP surface.
package api

import (
	"net/http"

	"github.com/Ayash-Bera/nlchat/internal/api/handlers"
	"github.com/Ayash-Bera/nlchat/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Chat     *handlers.ChatHandler
	NLWeb    *handlers.NLWebHandler
	Feedback *handlers.FeedbackHandler
	Stats    *handlers.StatsHandler
	Health   *handlers.HealthHandler
	// Metrics serves the Prometheus exposition format. Optional.
	Metrics  http.Handler
}

// NewRouter builds the engine. Rate limiting applies to /api only so
// health probes are never throttled. limiter may be nil.
func NewRouter(h Handlers, limiter *middleware.RateLimiter, logger *logrus.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", h.Health.HandleHealth)
	router.GET("/health/services", h.Health.HandleServices)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	apiGroup := router.Group("/api")
	if limiter != nil {
		apiGroup.Use(limiter.RateLimit())
	}
	{
		apiGroup.POST("/chat", h.Chat.HandleChat)
		apiGroup.POST("/feedback", h.Feedback.HandleFeedback)

		nlweb := apiGroup.Group("/nlweb")
		nlweb.POST("/ingest", h.NLWeb.HandleIngest)
		nlweb.POST("/ingest/url", h.NLWeb.HandleIngestURL)
		nlweb.GET("/search", h.NLWeb.HandleSearch)
		nlweb.GET("/documents", h.NLWeb.HandleListDocuments)
		nlweb.GET("/documents/:id", h.NLWeb.HandleGetDocument)

		stats := apiGroup.Group("/stats")
		stats.GET("/llm", h.Stats.HandleLLMStats)
		stats.GET("/queries", h.Stats.HandleQueryStats)
	}

	return router
}
