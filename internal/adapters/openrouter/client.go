// Package openrouter generates cover images through OpenRouter's chat
// completions endpoint with an image-capable model.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/ports"
)

const (
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "google/gemini-2.5-flash-image"
)

// Client calls the image-generation endpoint. It reports every failure as an
// error wrapping domain.ErrImageGeneration; falling back is the caller's job.
type Client struct {
	apiKey     string
	url        string
	model      string
	referer    string
	title      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ports.ImageGenerator = (*Client)(nil)

// Config holds the endpoint settings for the image client.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Referer string // sent as HTTP-Referer for attribution
	Title   string // sent as X-Title
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient constructs an image client. Zero values in cfg take defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		url:        cfg.URL,
		model:      cfg.Model,
		referer:    cfg.Referer,
		title:      cfg.Title,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		c.httpClient.Timeout = 90 * time.Second
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Generate requests count images for prompt and returns them normalized.
func (c *Client) Generate(ctx context.Context, prompt string, count int) ([]domain.ImageReference, error) {
	if count < 1 {
		count = domain.DefaultImageCount
	}

	payload := chatRequest{
		Model:      c.model,
		Messages:   []chatMessage{{Role: "user", Content: prompt}},
		Modalities: []string{"image", "text"},
		N:          count,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			CandidateCount:     count,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrImageGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrImageGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", domain.ErrImageGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", domain.ErrImageGeneration, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrImageGeneration, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrImageGeneration, parsed.Error.Message)
	}

	refs := normalizeImages(parsed, count)
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: response contained no images", domain.ErrImageGeneration)
	}

	c.logger.Debug("images generated",
		zap.String("model", c.model),
		zap.Int("requested", count),
		zap.Int("returned", len(refs)),
		zap.Duration("took", time.Since(start)))
	return refs, nil
}
