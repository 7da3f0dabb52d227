// Package llm talks to the remote, OpenAI-compatible language model.
package llm

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/apperr"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// SystemInstruction is sent as the first message of every conversation.
const SystemInstruction = "You are a helpful assistant for an NLWeb-enabled site. " +
	"Answer the user's question clearly and concisely. " +
	"The user message may end with a block of relevant context from the site's local knowledge base; " +
	"prefer that context when it answers the question and say so when it does not."

type ClientConfig struct {
	APIKey  string
	BaseURL string
	// HTTPTimeout caps a single HTTP exchange. Per-call deadlines come from
	// the profile.
	HTTPTimeout time.Duration
}

type Result struct {
	Text         string        `json:"text"`
	Model        string        `json:"model"`
	TokensUsed   *int          `json:"tokens_used,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Elapsed      time.Duration `json:"-"`
}

type Client struct {
	api     *openai.Client
	baseURL string
	stats   *Stats
	metrics *Metrics
	logger  *logrus.Logger
}

func NewClient(cfg ClientConfig, stats *Stats, logger *logrus.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	if stats == nil {
		stats = NewStats(time.Hour)
	}

	return &Client{
		api:     openai.NewClientWithConfig(oc),
		baseURL: oc.BaseURL,
		stats:   stats,
		logger:  logger,
	}
}

// WithMetrics additionally reports every call to m.
func (c *Client) WithMetrics(m *Metrics) *Client {
	c.metrics = m
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Stats() *Stats { return c.stats }

// Generate sends prompt as the user turn with the profile's sampling
// parameters. Failures are *apperr.Error values of kind remote_service.
func (c *Client) Generate(ctx context.Context, prompt string, p Profile) (*Result, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	c.logger.WithFields(logrus.Fields{
		"model":         p.Model,
		"profile":       p.Name,
		"prompt_length": len(prompt),
		"max_tokens":    p.MaxTokens,
	}).Debug("Sending chat completion request")

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:        p.MaxTokens,
		Temperature:      wireTemperature(p.Temperature),
		TopP:             float32(p.TopP),
		FrequencyPenalty: float32(p.FrequencyPenalty),
		PresencePenalty:  float32(p.PresencePenalty),
	})
	elapsed := time.Since(start)

	if err != nil {
		remoteErr := classify(ctx, err)
		c.stats.Record(elapsed, true)
		c.metrics.observe(p, elapsed, string(remoteErr.SubKind))
		c.logger.WithError(err).WithFields(logrus.Fields{
			"model":      p.Model,
			"sub_kind":   remoteErr.SubKind,
			"elapsed_ms": elapsed.Milliseconds(),
		}).Warn("Chat completion failed")
		return nil, remoteErr
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.stats.Record(elapsed, true)
		c.metrics.observe(p, elapsed, string(apperr.SubKindGeneric))
		c.logger.WithField("model", p.Model).Warn("Chat completion returned no text")
		return nil, apperr.Remote(apperr.SubKindGeneric, "language model returned an empty response", nil)
	}
	c.stats.Record(elapsed, false)
	c.metrics.observe(p, elapsed, "success")

	result := &Result{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Elapsed:      elapsed,
	}
	if result.Model == "" {
		result.Model = p.Model
	}
	if resp.Usage.TotalTokens > 0 {
		tokens := resp.Usage.TotalTokens
		result.TokensUsed = &tokens
	}

	c.logger.WithFields(logrus.Fields{
		"model":       result.Model,
		"tokens_used": resp.Usage.TotalTokens,
		"elapsed_ms":  elapsed.Milliseconds(),
	}).Info("Chat completion received")

	return result, nil
}

// wireTemperature keeps an explicit 0 on the wire. The request field is
// omitempty, so a plain 0 would fall back to the upstream default of 1.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// classify maps transport and API failures onto remote-service sub-kinds.
// Messages never include upstream bodies.
func classify(ctx context.Context, err error) *apperr.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Remote(apperr.SubKindTimeout, "language model request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Remote(apperr.SubKindTimeout, "language model request timed out", err)
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Remote(apperr.SubKindUnauthorized, "language model rejected the configured credentials", err)
	case status == http.StatusTooManyRequests:
		return apperr.Remote(apperr.SubKindRateLimited, "language model rate limit exceeded", err)
	case status >= http.StatusInternalServerError:
		return apperr.Remote(apperr.SubKindUpstreamUnavailable, "language model service is unavailable", err)
	default:
		return apperr.Remote(apperr.SubKindGeneric, "language model request failed", err)
	}
}
