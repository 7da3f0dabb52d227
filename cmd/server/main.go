// Command server runs the NLWeb chat HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/api"
	"github.com/Ayash-Bera/nlchat/internal/api/handlers"
	"github.com/Ayash-Bera/nlchat/internal/config"
	"github.com/Ayash-Bera/nlchat/internal/database"
	"github.com/Ayash-Bera/nlchat/internal/health"
	"github.com/Ayash-Bera/nlchat/internal/llm"
	"github.com/Ayash-Bera/nlchat/internal/middleware"
	"github.com/Ayash-Bera/nlchat/internal/migration"
	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/internal/nlweb"
	"github.com/Ayash-Bera/nlchat/internal/repository"
	"github.com/Ayash-Bera/nlchat/internal/seeder"
	"github.com/Ayash-Bera/nlchat/internal/services"
	"github.com/Ayash-Bera/nlchat/internal/validation"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger(cfg.Log.Level, os.Stdout)
	utils.Logger = logger
	gin.SetMode(cfg.Server.Mode)

	index := nlweb.NewIndex(logger)
	if cfg.Index.Seed {
		index.Seed()
	}

	if err := cfg.ValidateLLM(); err != nil {
		logger.WithError(err).Warn("Language model is not fully configured; chat requests will fail")
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		HTTPTimeout: cfg.LLM.Timeout,
	}, llm.NewStats(cfg.LLM.StatsWindow), logger).WithMetrics(llm.NewMetrics(registry))

	// Persistence is optional. Any failure here leaves the service running
	// without analytics, feedback or caching.
	var (
		dbManager *database.Manager
		repos     *repository.RepositoryManager
		cache     *database.Cache
	)
	if cfg.PersistenceEnabled() {
		dbManager, err = database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			RedisURL:    cfg.Redis.URL,
			LogLevel:    cfg.Log.Level,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Persistence unavailable, continuing without it")
			dbManager = nil
		} else {
			if dbManager.DB != nil {
				if _, err := migration.NewRunner(dbManager, logger).Run(); err != nil {
					logger.WithError(err).Warn("Database migration failed, analytics disabled")
				} else {
					repos = repository.NewRepositoryManager(dbManager.DB)
				}
			}
			cache = database.NewCache(dbManager.Redis, logger)
		}
	}

	var (
		analytics   = chatAnalytics(repos)
		feedback    = feedbackStore(repos)
		healthStore = healthHistory(repos)
	)

	chatService := services.NewChatService(
		validation.NewValidator(logger),
		services.NewEnricher(index, logger),
		llmClient,
		cfg.LLMOverrides(),
		analytics,
		logger,
	)

	checker := health.NewHealthChecker(dbManager, cache, healthStore, index, health.LLMEndpoint{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
	}, logger).WithResultTTL(cfg.Health.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cache != nil {
		go checker.PeriodicHealthCheck(ctx, cfg.Health.Interval)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPM > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst)
		go limiter.Cleanup(5*time.Minute, ctx.Done())
	}

	router := api.NewRouter(api.Handlers{
		Chat:     handlers.NewChatHandler(chatService, logger),
		NLWeb:    handlers.NewNLWebHandler(index, seeder.NewFetcher(seeder.FetcherConfig{}, logger), cache, cfg.Search.CacheTTL, logger),
		Feedback: handlers.NewFeedbackHandler(feedback, logger),
		Stats:    handlers.NewStatsHandler(llmClient.Stats(), analytics, logger),
		Health:   handlers.NewHealthHandler(checker),
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"documents":   index.Count(),
			"persistence": repos != nil,
			"cache":       cache != nil,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	chatService.Wait()

	if dbManager != nil {
		if err := dbManager.Close(); err != nil {
			logger.WithError(err).Error("Failed to close persistence connections")
		}
	}

	logger.Info("Server exited")
}

// The repository accessors return untyped nils so consumers can test for
// a disabled store with == nil.

func chatAnalytics(repos *repository.RepositoryManager) models.ChatQueryRepository {
	if repos == nil {
		return nil
	}
	return repos.ChatQuery
}

func feedbackStore(repos *repository.RepositoryManager) models.UserFeedbackRepository {
	if repos == nil {
		return nil
	}
	return repos.UserFeedback
}

func healthHistory(repos *repository.RepositoryManager) models.SystemHealthRepository {
	if repos == nil {
		return nil
	}
	return repos.SystemHealth
}
