// Package gemini provides an adapter for the Gemini text-generation API.
// It turns playlist summaries into structured vibe descriptions and vibe
// descriptions into image-generation prompts.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/ports"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	defaultAPIVersion = "v1beta"
	serviceName       = "gemini"
)

const analyzeInstruction = `You are a playlist vibe analyzer. You receive a playlist's name, description and track list.
Describe the playlist's visual aesthetic and return ONLY a JSON object with exactly these keys:
- "lighting": an array of 1-3 short phrases describing the light (e.g. ["low neon glow", "wet reflections"])
- "time_of_day": an array of 1-2 short phrases (e.g. ["midnight"], ["golden hour", "late afternoon"])
- "mood": an object with exactly 3 mood labels, each mapped to a weight between 0.0 and 1.0
- "colors": an object with exactly 3 color names, each mapped to a weight between 0.0 and 1.0
- "objects": an object with exactly 3 specific, evocative objects, each mapped to a weight between 0.0 and 1.0
- "style": a single phrase naming the visual style (e.g. "grainy 35mm film photo")
Weights express how strongly each term belongs to the vibe. Return nothing but the JSON object.`

const synthesizeInstruction = `You are an expert prompt engineer for an AI image generator.
You receive a JSON vibe description with lighting, time of day, weighted mood, color and object terms, and a style.
Synthesize it into a single, evocative image prompt for an abstract, artistic album cover.
Let higher-weighted terms dominate the composition. Focus on composition, atmosphere and texture.
DO NOT just list the items. Do not include text or lettering in the image.
The output MUST be only the final prompt itself, with no preamble.`

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	once      sync.Once
	sdkClient *genai.Client
	sdkErr    error
}

var (
	_ ports.VibeAnalyzer      = (*Client)(nil)
	_ ports.PromptSynthesizer = (*Client)(nil)
)

// Option customizes a Client.
type Option func(*Client)

// WithModel selects the Gemini model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout bounds every generateContent call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a Gemini adapter. The underlying SDK client is created on
// first use so a process can start before the API key is configured.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.httpClient,
			HTTPOptions: genai.HTTPOptions{
				BaseURL:    c.baseURL,
				APIVersion: defaultAPIVersion,
			},
		}
		c.sdkClient, c.sdkErr = genai.NewClient(ctx, cfg)
	})
	if c.sdkErr != nil {
		return nil, fmt.Errorf("gemini: create client: %w", c.sdkErr)
	}
	return c.sdkClient, nil
}

// AnalyzeVibe asks the model for a JSON vibe description of the playlist and
// validates it. Malformed output is an error, never a default.
func (c *Client) AnalyzeVibe(ctx context.Context, summary domain.PlaylistSummary) (domain.VibeDescription, error) {
	text, err := c.generate(ctx, string(summary), &genai.GenerateContentConfig{
		SystemInstruction: instruction(analyzeInstruction),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return domain.VibeDescription{}, err
	}

	vibe, err := domain.ParseVibe([]byte(stripCodeFence(text)))
	if err != nil {
		c.logger.Warn("gemini returned unparsable vibe", zap.Error(err), zap.Int("response_len", len(text)))
		return domain.VibeDescription{}, fmt.Errorf("%w: %v", domain.ErrVibeParse, err)
	}
	if err := vibe.Validate(); err != nil {
		c.logger.Warn("gemini returned invalid vibe", zap.Error(err))
		return domain.VibeDescription{}, fmt.Errorf("%w: %v", domain.ErrVibeParse, err)
	}
	return vibe, nil
}

// SynthesizePrompt turns a (possibly edited) vibe description into one free-text image prompt.
func (c *Client) SynthesizePrompt(ctx context.Context, vibe domain.VibeDescription) (string, error) {
	body, err := json.Marshal(vibe)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal vibe: %w", err)
	}

	text, err := c.generate(ctx, string(body), &genai.GenerateContentConfig{
		SystemInstruction: instruction(synthesizeInstruction),
	})
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return "", domain.ErrPromptGeneration
	}
	return prompt, nil
}

func (c *Client) generate(ctx context.Context, userText string, cfg *genai.GenerateContentConfig) (string, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(userText), cfg)
	if err != nil {
		return "", upstreamError(err)
	}
	return responseText(resp), nil
}

func instruction(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

// responseText reads candidates[0].content.parts[*].text.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func upstreamError(err error) error {
	status := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Code
	}
	return &domain.UpstreamError{
		Service:    serviceName,
		StatusCode: status,
		Kind:       domain.ErrUpstreamFetch,
		Err:        err,
	}
}

// stripCodeFence removes a ```json ... ``` wrapper some models add despite the
// JSON response type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
