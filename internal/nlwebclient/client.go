// Package nlwebclient calls the chat service's NLWeb HTTP endpoints.
package nlwebclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client retries through its own RetryConfig, so the resty client is built
// with retries disabled.
type Client struct {
	http   *resty.Client
	retry  RetryConfig
	logger *logrus.Logger
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(60 * time.Second).
			SetRetryCount(0),
		retry:  DefaultRetryConfig(),
		logger: logger,
	}
}

// WithRetry replaces the retry policy.
func (c *Client) WithRetry(config RetryConfig) *Client {
	c.retry = config
	return c
}

// Ingest posts content as-is when it is valid JSON and as a JSON string otherwise.
func (c *Client) Ingest(ctx context.Context, content string, meta IngestMetadata) (*models.DocumentView, error) {
	req := models.IngestRequest{
		Content:     encodeContent(content),
		URL:         meta.SourceURL,
		Title:       meta.Title,
		Description: meta.Description,
	}

	var doc models.DocumentView
	if err := c.makeRequest(ctx, http.MethodPost, "/api/nlweb/ingest", nil, req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp models.SearchResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/api/nlweb/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestMetadata mirrors the optional fields of an ingest request.
type IngestMetadata struct {
	SourceURL   string
	Title       string
	Description string
}

func encodeContent(content string) json.RawMessage {
	trimmed := strings.TrimSpace(content)
	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	data, _ := json.Marshal(content)
	return data
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, query url.Values, payload interface{}, result interface{}) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	responseBody := resp.Body()

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode(),
		"method":        method,
		"url":           resp.Request.URL,
		"response_size": len(responseBody),
		"elapsed_ms":    resp.Time().Milliseconds(),
	}).Debug("NLWeb API response received")

	var env envelope
	decodeErr := json.Unmarshal(responseBody, &env)

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		message := strings.TrimSpace(string(responseBody))
		if decodeErr == nil && env.Message != "" {
			message = env.Message
			if env.Error != "" {
				message += ": " + env.Error
			}
		}
		return &StatusError{StatusCode: resp.StatusCode(), Message: message}
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}
