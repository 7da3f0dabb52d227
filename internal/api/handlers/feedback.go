package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FeedbackHandler struct {
	feedbackRepo models.UserFeedbackRepository
	logger       *logrus.Logger
}

// NewFeedbackHandler accepts a nil repository when persistence is off.
func NewFeedbackHandler(feedbackRepo models.UserFeedbackRepository, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackRepo: feedbackRepo,
		logger:       logger,
	}
}

// HandleFeedback records a rating of an earlier answer.
func (h *FeedbackHandler) HandleFeedback(c *gin.Context) {
	if h.feedbackRepo == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Feedback storage is not configured", nil)
		return
	}

	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}

	feedback := &models.UserFeedback{
		QueryID:      req.QueryID,
		FeedbackType: req.FeedbackType,
		FeedbackText: req.FeedbackText,
		SessionID:    req.SessionID,
	}
	if feedback.SessionID == "" {
		feedback.SessionID = getUserSession(c)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.feedbackRepo.Create(ctx, feedback); err != nil {
		h.logger.WithError(err).WithField("query_id", req.QueryID).Error("Failed to store feedback")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store feedback", nil)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"query_id":      req.QueryID,
		"feedback_type": req.FeedbackType,
	}).Info("Feedback recorded")

	utils.SuccessResponse(c, http.StatusCreated, "Feedback recorded", feedback)
}
