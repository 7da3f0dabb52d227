package nlwebclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 4,
		BaseDelay:  2 * time.Second,
		MaxDelay:   15 * time.Second,
	}
}

func (c *Client) IngestWithRetry(ctx context.Context, content string, meta IngestMetadata) (*models.DocumentView, error) {
	var result *models.DocumentView
	err := c.retryOperation(ctx, func() error {
		var err error
		result, err = c.Ingest(ctx, content, meta)
		return err
	})
	return result, err
}

// retryOperation retries transport failures, 429 and 5xx replies with
// exponential backoff. Other client errors fail immediately.
func (c *Client) retryOperation(ctx context.Context, operation func() error) error {
	config := c.retry

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt >= config.MaxRetries {
			return fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, err)
		}

		delay := time.Duration(float64(config.BaseDelay) * math.Pow(1.5, float64(attempt)))
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}

		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
			"error":   err.Error(),
		}).Warn("Retrying NLWeb operation")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
