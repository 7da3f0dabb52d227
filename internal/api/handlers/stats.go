package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/llm"
	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultStatsWindow = 24 * time.Hour

type StatsHandler struct {
	llmStats  *llm.Stats
	queryRepo models.ChatQueryRepository
	logger    *logrus.Logger
}

// NewStatsHandler accepts a nil queryRepo when persistence is off.
func NewStatsHandler(llmStats *llm.Stats, queryRepo models.ChatQueryRepository, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		llmStats:  llmStats,
		queryRepo: queryRepo,
		logger:    logger,
	}
}

// HandleLLMStats reports language model latency over the rolling window.
func (h *StatsHandler) HandleLLMStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "LLM statistics", h.llmStats.Snapshot())
}

// HandleQueryStats breaks recorded queries down by query type.
// The window is taken from ?since= as a Go duration, 24h by default.
func (h *StatsHandler) HandleQueryStats(c *gin.Context) {
	if h.queryRepo == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Query analytics are not configured", nil)
		return
	}

	window := defaultStatsWindow
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			invalidRequest(c, "Parameter 'since' must be a positive duration", err)
			return
		}
		window = d
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	breakdown, err := h.queryRepo.TypeBreakdown(ctx, time.Now().Add(-window))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load query statistics")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load query statistics", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Query statistics", gin.H{
		"window": window.String(),
		"types":  breakdown,
	})
}
