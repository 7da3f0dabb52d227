package utils

import (
	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	SubKind string      `json:"sub_kind,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(code, response)
}

// KindErrorResponse is ErrorResponse with a machine readable failure kind.
// detail is sent verbatim, so callers pass only sanitized text.
func KindErrorResponse(c *gin.Context, code int, kind, subKind, message, detail string) {
	c.JSON(code, APIResponse{
		Success: false,
		Message: message,
		Error:   detail,
		Kind:    kind,
		SubKind: subKind,
	})
}
