package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotConfigured is returned by pings against a backend that was never connected.
var ErrNotConfigured = errors.New("not configured")

// Database connection manager. Either connection may be nil when its URL
// was left empty.
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager opens the configured connections with pooling.
func NewManager(config *Config, logger *logrus.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	if config.DatabaseURL != "" {
		db, err := openPostgres(config, logger)
		if err != nil {
			return nil, err
		}
		m.DB = db
	}

	if config.RedisURL != "" {
		client, err := openRedis(config.RedisURL)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.Redis = client
	}

	logger.WithFields(logrus.Fields{
		"database": m.DB != nil,
		"redis":    m.Redis != nil,
	}).Info("Persistence connections established")

	return m, nil
}

// NewManagerWith wraps already opened connections.
func NewManagerWith(db *gorm.DB, client *redis.Client, logger *logrus.Logger) *Manager {
	return &Manager{DB: db, Redis: client, logger: logger}
}

func openPostgres(config *Config, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 NewGormLogger(logger, config.LogLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func openRedis(url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 2
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute
	redisOpts.IdleCheckFrequency = 30 * time.Second

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewGormLogger routes gorm's SQL log through logrus. Only "debug" logs
// statements; everything else logs slow queries and errors.
func NewGormLogger(logger *logrus.Logger, level string) gormlogger.Interface {
	logLevel := gormlogger.Warn
	if level == "debug" {
		logLevel = gormlogger.Info
	}
	return gormlogger.New(
		logger.WithField("component", "gorm"),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Migrate creates or updates the analytics tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ChatQuery{},
		&models.UserFeedback{},
		&models.SystemHealth{},
	)
}

func (m *Manager) Migrate() error {
	if m.DB == nil {
		return ErrNotConfigured
	}
	m.logger.Info("Running database migrations...")
	if err := Migrate(m.DB); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase(ctx context.Context) error {
	if m.DB == nil {
		return ErrNotConfigured
	}
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	if m.Redis == nil {
		return ErrNotConfigured
	}
	return m.Redis.Ping(ctx).Err()
}
