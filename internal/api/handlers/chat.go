package handlers

import (
	"context"
	"net/http"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/internal/services"
	"github.com/Ayash-Bera/nlchat/internal/validation"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ChatHandler struct {
	chatService *services.ChatService
	logger      *logrus.Logger
}

func NewChatHandler(chatService *services.ChatService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleChat answers one question.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}

	if req.Context == nil {
		req.Context = map[string]interface{}{"session_id": getUserSession(c)}
	}

	// Detached from the client connection so a disconnect does not abort a
	// generation mid-flight. The profile timeout still bounds the call.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.chatService.Process(ctx, validation.RawQuery{
		Question: req.Question,
		Context:  req.Context,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Query processed", result)
}

func getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" && len(session) <= 128 {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}
