package handlers

import (
	"net/http"

	"github.com/Ayash-Bera/nlchat/internal/apperr"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a pipeline error onto an HTTP status.
func StatusFor(err error) int {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindThrottled:
		return http.StatusTooManyRequests
	case apperr.KindRemoteService:
		switch e.SubKind {
		case apperr.SubKindRateLimited:
			return http.StatusTooManyRequests
		case apperr.SubKindUpstreamUnavailable:
			return http.StatusServiceUnavailable
		case apperr.SubKindTimeout:
			return http.StatusGatewayTimeout
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

var kindMessages = map[apperr.Kind]string{
	apperr.KindValidation:    "Invalid query",
	apperr.KindRemoteService: "Language model request failed",
	apperr.KindInternal:      "Internal server error",
	apperr.KindThrottled:     "Rate limit exceeded",
}

// respondError writes err in the shared envelope. Only the sanitized
// apperr message reaches the client.
func respondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	utils.KindErrorResponse(c, StatusFor(e), string(e.Kind), string(e.SubKind), kindMessages[e.Kind], e.Message)
}

// invalidRequest reports a malformed request body.
func invalidRequest(c *gin.Context, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	utils.KindErrorResponse(c, http.StatusBadRequest, string(apperr.KindValidation), "", message, detail)
}
