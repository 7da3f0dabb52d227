package handlers

import (
	"net/http"

	"github.com/Ayash-Bera/nlchat/internal/health"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// HandleHealth is the liveness probe. It never touches a dependency.
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.checker.Status())
}

// HandleServices reports each dependency. An unhealthy dependency turns the
// response into a 503 so load balancers can act on it.
func (h *HealthHandler) HandleServices(c *gin.Context) {
	report := h.checker.CheckCached(c.Request.Context())

	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}
