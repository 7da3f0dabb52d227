package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/database"
	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// DocumentCounter reports how many documents the content index holds.
type DocumentCounter interface {
	Count() int
}

// LLMEndpoint is the language model service being probed.
type LLMEndpoint struct {
	BaseURL string
	APIKey  string
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	dbManager  *database.Manager
	cache      *database.Cache
	healthRepo models.SystemHealthRepository
	index      DocumentCounter
	llm        LLMEndpoint
	httpClient *http.Client
	logger     *logrus.Logger
	now        func() time.Time

	// last is the most recent CheckAll result, served by CheckCached for
	// resultTTL when redis holds nothing.
	mu        sync.Mutex
	last      *models.ServicesHealthResponse
	lastAt    time.Time
	resultTTL time.Duration
}

// NewHealthChecker builds a checker. dbManager, cache and healthRepo may be nil.
func NewHealthChecker(
	dbManager *database.Manager,
	cache *database.Cache,
	healthRepo models.SystemHealthRepository,
	index DocumentCounter,
	llm LLMEndpoint,
	logger *logrus.Logger,
) *HealthChecker {
	return &HealthChecker{
		dbManager:  dbManager,
		cache:      cache,
		healthRepo: healthRepo,
		index:      index,
		llm:        llm,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		now:        time.Now,
		resultTTL:  30 * time.Second,
	}
}

// WithResultTTL sets how long CheckCached reuses the last in-process
// result. Zero disables the in-process copy.
func (h *HealthChecker) WithResultTTL(ttl time.Duration) *HealthChecker {
	h.resultTTL = ttl
	return h
}

// Status is the cheap liveness view. It touches nothing but the index count.
func (h *HealthChecker) Status() models.HealthResponse {
	return models.HealthResponse{
		Status:               StatusHealthy,
		IndexedDocumentCount: h.index.Count(),
		Timestamp:            h.now().UTC().Format(time.RFC3339),
	}
}

func (h *HealthChecker) CheckDatabase(ctx context.Context) models.ServiceStatus {
	if h.dbManager == nil || h.dbManager.DB == nil {
		return models.ServiceStatus{Status: StatusDisabled}
	}
	return h.probe(ctx, "database", func(ctx context.Context) (string, error) {
		return StatusHealthy, h.dbManager.PingDatabase(ctx)
	})
}

func (h *HealthChecker) CheckRedis(ctx context.Context) models.ServiceStatus {
	if h.dbManager == nil || h.dbManager.Redis == nil {
		return models.ServiceStatus{Status: StatusDisabled}
	}
	return h.probe(ctx, "redis", func(ctx context.Context) (string, error) {
		return StatusHealthy, h.dbManager.PingRedis(ctx)
	})
}

// CheckLLM lists models on the endpoint. Rejected credentials leave the
// endpoint reachable, so they count as degraded.
func (h *HealthChecker) CheckLLM(ctx context.Context) models.ServiceStatus {
	if h.llm.BaseURL == "" {
		return models.ServiceStatus{Status: StatusDisabled}
	}
	return h.probe(ctx, "llm", func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(h.llm.BaseURL, "/")+"/models", nil)
		if err != nil {
			return StatusUnhealthy, err
		}
		if h.llm.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.llm.APIKey)
		}

		resp, err := h.httpClient.Do(req)
		if err != nil {
			return StatusUnhealthy, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return StatusDegraded, fmt.Errorf("HTTP %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return StatusUnhealthy, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return StatusHealthy, nil
	})
}

func (h *HealthChecker) probe(ctx context.Context, name string, check func(context.Context) (string, error)) models.ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	status, err := check(ctx)
	responseTime := time.Since(start).Milliseconds()

	errorMsg := ""
	if err != nil {
		if status == StatusHealthy {
			status = StatusUnhealthy
		}
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Warn("Health check failed")
	}

	if h.healthRepo != nil {
		if err := h.healthRepo.UpdateServiceHealth(ctx, name, status, int(responseTime), errorMsg); err != nil {
			h.logger.WithError(err).WithField("service", name).Debug("Failed to store health check result")
		}
	}

	return models.ServiceStatus{
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
	}
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) *models.ServicesHealthResponse {
	services := map[string]models.ServiceStatus{
		"database": h.CheckDatabase(ctx),
		"redis":    h.CheckRedis(ctx),
		"llm":      h.CheckLLM(ctx),
	}

	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
		if service.Status == StatusDegraded {
			overallStatus = StatusDegraded
		}
	}

	result := &models.ServicesHealthResponse{
		Status:    overallStatus,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	h.mu.Lock()
	h.last, h.lastAt = result, h.now()
	h.mu.Unlock()

	return result
}

func (h *HealthChecker) lastResult() *models.ServicesHealthResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil || h.resultTTL <= 0 || h.now().Sub(h.lastAt) >= h.resultTTL {
		return nil
	}
	return h.last
}

// CheckCached returns the periodic result from redis, then a recent
// in-process result, and only runs the checks when neither exists.
func (h *HealthChecker) CheckCached(ctx context.Context) *models.ServicesHealthResponse {
	cached, err := h.cache.GetCachedServicesHealth(ctx)
	if err == nil {
		return cached
	}
	if !database.IsMiss(err) {
		h.logger.WithError(err).Debug("Failed to read cached health status")
	}
	if last := h.lastResult(); last != nil {
		return last
	}
	return h.CheckAll(ctx)
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)

			cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.cache.CacheServicesHealth(cacheCtx, health, 2*interval); err != nil {
				h.logger.WithError(err).Error("Failed to cache health status")
			}
			cancel()

			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
