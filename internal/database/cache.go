package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache key constants
const (
	SearchResultsKey  = "nlchat:search:%s"
	ServicesHealthKey = "nlchat:health:services"
)

// Cache is a thin JSON layer over redis. A nil *Cache is valid and
// behaves as a permanently empty cache.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{
		client: client,
		logger: logger,
	}
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// SearchKey identifies one search. The index size is part of the key so
// any ingestion makes older entries unreachable.
func SearchKey(query string, limit, indexSize int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return utils.MD5Hash(fmt.Sprintf("%s|%d|%d", normalized, limit, indexSize))
}

// CacheSearchResults caches search results under key
func (c *Cache) CacheSearchResults(ctx context.Context, key string, results interface{}, expiration time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	return c.client.Set(ctx, fmt.Sprintf(SearchResultsKey, key), data, expiration).Err()
}

// GetCachedSearchResults decodes the cached results for key into result.
func (c *Cache) GetCachedSearchResults(ctx context.Context, key string, result interface{}) error {
	if c == nil {
		return redis.Nil
	}
	data, err := c.client.Get(ctx, fmt.Sprintf(SearchResultsKey, key)).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, result)
}

// CacheServicesHealth caches the last dependency check
func (c *Cache) CacheServicesHealth(ctx context.Context, health *models.ServicesHealthResponse, expiration time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(health)
	if err != nil {
		return fmt.Errorf("failed to marshal system health: %w", err)
	}

	return c.client.Set(ctx, ServicesHealthKey, data, expiration).Err()
}

func (c *Cache) GetCachedServicesHealth(ctx context.Context) (*models.ServicesHealthResponse, error) {
	if c == nil {
		return nil, redis.Nil
	}
	data, err := c.client.Get(ctx, ServicesHealthKey).Bytes()
	if err != nil {
		return nil, err
	}

	var health models.ServicesHealthResponse
	if err := json.Unmarshal(data, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
