package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/vibecover/internal/adapters/openrouter"
	"github.com/ewilliams-labs/vibecover/internal/adapters/placeholder"
	"github.com/ewilliams-labs/vibecover/internal/config"
	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/services"
)

// --- Mocks ---
//
// Handler depends on the concrete *services.Orchestrator, so tests build a
// real one on top of mocked ports.

type mockPlaylists struct {
	authErr  error
	fetchErr error
	calls    int
}

func (m *mockPlaylists) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	m.calls++
	if m.authErr != nil {
		return nil, m.authErr
	}
	return &oauth2.Token{AccessToken: "tok"}, nil
}

func (m *mockPlaylists) FetchSummary(ctx context.Context, playlistID string, token *oauth2.Token) (domain.PlaylistSummary, error) {
	m.calls++
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return domain.PlaylistSummary("Playlist Name: " + playlistID + "\nTracks:\n"), nil
}

type mockAnalyzer struct {
	err   error
	calls int
}

func (m *mockAnalyzer) AnalyzeVibe(ctx context.Context, summary domain.PlaylistSummary) (domain.VibeDescription, error) {
	m.calls++
	if m.err != nil {
		return domain.VibeDescription{}, m.err
	}
	return domain.ParseVibe([]byte(validVibeJSON))
}

type mockPrompts struct {
	err   error
	calls int
}

func (m *mockPrompts) SynthesizePrompt(ctx context.Context, vibe domain.VibeDescription) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "an abstract neon dusk", nil
}

type mockImages struct {
	err   error
	calls int
}

func (m *mockImages) Generate(ctx context.Context, prompt string, count int) ([]domain.ImageReference, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	refs := make([]domain.ImageReference, count)
	for i := range refs {
		refs[i] = domain.RemoteImage("https://cdn.test/cover.png")
	}
	return refs, nil
}

const validVibeJSON = `{
	"lighting": ["low neon glow"],
	"time_of_day": ["midnight"],
	"mood": {"melancholy": 0.8, "longing": 0.6, "calm": 0.3},
	"colors": {"indigo": 0.9, "pink": 0.5, "gunmetal": 0.4},
	"objects": {"neon sign": 0.7, "rain": 0.6, "street": 0.5},
	"style": "grainy film"
}`

var fullCreds = config.Credentials{
	SpotifyClientID:     "id",
	SpotifyClientSecret: "secret",
	GoogleAPIKey:        "google",
	OpenRouterAPIKey:    "openrouter",
}

type fixture struct {
	playlists *mockPlaylists
	analyzer  *mockAnalyzer
	prompts   *mockPrompts
	images    *mockImages
	logs      *observer.ObservedLogs
	handler   *Handler
}

func newFixture(creds config.Credentials) *fixture {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	f := &fixture{
		playlists: &mockPlaylists{},
		analyzer:  &mockAnalyzer{},
		prompts:   &mockPrompts{},
		images:    &mockImages{},
		logs:      logs,
	}
	svc := services.NewOrchestrator(services.Dependencies{
		Playlists: f.playlists,
		Analyzer:  f.analyzer,
		Prompts:   f.prompts,
		Images:    placeholder.NewFallback(f.images, logger),
	}, domain.DefaultImageCount, logger)

	f.handler = NewHandler(svc, Options{Credentials: creds, Logger: logger})
	return f
}

func (f *fixture) upstreamCalls() int {
	return f.playlists.calls + f.analyzer.calls + f.prompts.calls + f.images.calls
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHandler_Generate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		creds          config.Credentials
		setup          func(f *fixture)
		expectedStatus int
		expectedBody   string // substring match
		noUpstream     bool
	}{
		{
			name:           "Analyze: returns vibe description",
			body:           `{"playlistLink": "https://open.spotify.com/playlist/abc123?si=xyz"}`,
			creds:          fullCreds,
			expectedStatus: http.StatusOK,
			expectedBody:   `"vibePrompt":{`,
		},
		{
			name:           "Analyze: invalid link",
			body:           `{"playlistLink": "not-a-playlist-url"}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid Spotify playlist link."}`,
			noUpstream:     true,
		},
		{
			name:           "Analyze: empty link",
			body:           `{"playlistLink": "  "}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"No playlistLink provided."}`,
			noUpstream:     true,
		},
		{
			name:           "No recognised field",
			body:           `{"somethingElse": true}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"No playlistLink provided."}`,
			noUpstream:     true,
		},
		{
			name:           "Malformed JSON",
			body:           `{invalid-json`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   msgBadBody,
			noUpstream:     true,
		},
		{
			name:           "Both shapes",
			body:           `{"playlistLink": "https://open.spotify.com/playlist/abc", "updatedVibePrompt": ` + validVibeJSON + `}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   msgBothShapes,
			noUpstream:     true,
		},
		{
			name:           "Missing credentials",
			body:           `{"playlistLink": "https://open.spotify.com/playlist/abc123"}`,
			creds:          config.Credentials{SpotifyClientID: "id", SpotifyClientSecret: "secret", GoogleAPIKey: "g"},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Server is missing API key configuration."}`,
			noUpstream:     true,
		},
		{
			name:  "Upstream status surfaced",
			body:  `{"playlistLink": "https://open.spotify.com/playlist/abc123"}`,
			creds: fullCreds,
			setup: func(f *fixture) {
				f.playlists.fetchErr = &domain.UpstreamError{Service: "spotify", StatusCode: http.StatusNotFound, Kind: domain.ErrUpstreamFetch}
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"API error: 404"}`,
		},
		{
			name:  "Transport failure is a 500 with message",
			body:  `{"playlistLink": "https://open.spotify.com/playlist/abc123"}`,
			creds: fullCreds,
			setup: func(f *fixture) {
				f.playlists.authErr = &domain.UpstreamError{Service: "spotify", Kind: domain.ErrUpstreamAuth, Err: errors.New("connection refused")}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "connection refused",
		},
		{
			name:  "Vibe parse failure is not defaulted",
			body:  `{"playlistLink": "https://open.spotify.com/playlist/abc123"}`,
			creds: fullCreds,
			setup: func(f *fixture) {
				f.analyzer.err = domain.ErrVibeParse
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   domain.ErrVibeParse.Error(),
		},
		{
			name:           "Generate: returns images",
			body:           `{"updatedVibePrompt": ` + validVibeJSON + `, "count": 2}`,
			creds:          fullCreds,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"base64Images":["https://cdn.test/cover.png","https://cdn.test/cover.png"]}`,
		},
		{
			name:           "Generate: vibe missing a key",
			body:           `{"updatedVibePrompt": {"lighting": ["dim"]}}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid updatedVibePrompt",
			noUpstream:     true,
		},
		{
			name:           "Generate: weight out of range",
			body:           `{"updatedVibePrompt": ` + strings.Replace(validVibeJSON, "0.9", "2.5", 1) + `}`,
			creds:          fullCreds,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "outside [0, 1]",
			noUpstream:     true,
		},
		{
			name:  "Generate: prompt failure surfaced",
			body:  `{"updatedVibePrompt": ` + validVibeJSON + `}`,
			creds: fullCreds,
			setup: func(f *fixture) {
				f.prompts.err = domain.ErrPromptGeneration
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   domain.ErrPromptGeneration.Error(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.creds)
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := post(f.handler, tt.body)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d, body: %s", tt.expectedStatus, rec.Code, strings.TrimSpace(rec.Body.String()))
			}
			if tt.expectedBody != "" && !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
			if tt.noUpstream && f.upstreamCalls() != 0 {
				t.Errorf("expected no upstream calls, got %d", f.upstreamCalls())
			}
		})
	}
}

func TestHandler_Analyze_VibeShape(t *testing.T) {
	f := newFixture(fullCreds)
	rec := post(f.handler, `{"playlistLink": "https://open.spotify.com/playlist/abc123?si=xyz"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		VibePrompt map[string]json.RawMessage `json:"vibePrompt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"lighting", "time_of_day", "mood", "colors", "objects", "style"} {
		if _, ok := resp.VibePrompt[key]; !ok {
			t.Errorf("vibePrompt missing %q", key)
		}
	}
}

func TestHandler_Generate_PlaceholderFallback(t *testing.T) {
	f := newFixture(fullCreds)
	f.images.err = errors.New("dial tcp: connection refused")

	rec := post(f.handler, `{"updatedVibePrompt": `+validVibeJSON+`}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Base64Images []string `json:"base64Images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var want []string
	for _, ref := range placeholder.Covers(domain.DefaultImageCount) {
		want = append(want, ref.String())
	}
	if !reflect.DeepEqual(resp.Base64Images, want) {
		t.Fatalf("expected the %d placeholder images, got %d entries", len(want), len(resp.Base64Images))
	}
	if f.logs.FilterMessage("image generation failed, serving placeholders").Len() != 1 {
		t.Fatalf("expected a fallback warning, got %v", f.logs.All())
	}
}

func TestHandler_Generate_ImageServiceUnreachable(t *testing.T) {
	// Start and immediately close a server so its address refuses connections.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	imageClient := openrouter.NewClient(openrouter.Config{
		APIKey:  "sk-or-test",
		URL:     deadURL,
		Timeout: 2 * time.Second,
		Logger:  logger,
	})
	prompts := &mockPrompts{}
	svc := services.NewOrchestrator(services.Dependencies{
		Playlists: &mockPlaylists{},
		Analyzer:  &mockAnalyzer{},
		Prompts:   prompts,
		Images:    placeholder.NewFallback(imageClient, logger),
	}, domain.DefaultImageCount, logger)
	h := NewHandler(svc, Options{Credentials: fullCreds, Logger: logger})

	rec := post(h, `{"updatedVibePrompt": `+validVibeJSON+`}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Base64Images []string `json:"base64Images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var want []string
	for _, ref := range placeholder.Covers(domain.DefaultImageCount) {
		want = append(want, ref.String())
	}
	if !reflect.DeepEqual(resp.Base64Images, want) {
		t.Fatalf("expected the %d placeholder images, got %v", len(want), resp.Base64Images)
	}
	if prompts.calls != 1 {
		t.Fatalf("expected one prompt synthesis, got %d", prompts.calls)
	}
	if logs.FilterMessage("image generation failed, serving placeholders").Len() != 1 {
		t.Fatalf("expected a fallback warning, got %v", logs.All())
	}
}

func TestHandler_HealthAndReady(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		creds          config.Credentials
		expectedStatus int
		expectedBody   string
	}{
		{name: "health", path: "/health", expectedStatus: http.StatusOK, expectedBody: `"status":"ok"`},
		{name: "ready", path: "/ready", creds: fullCreds, expectedStatus: http.StatusOK, expectedBody: `"status":"ready"`},
		{name: "not ready", path: "/ready", expectedStatus: http.StatusServiceUnavailable, expectedBody: config.EnvOpenRouterAPIKey},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.creds)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Fatalf("expected body to contain %q, got %q", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_Middleware(t *testing.T) {
	f := newFixture(fullCreds)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("allow-origin: got %q", got)
		}
	})

	t.Run("request id minted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Header().Get(RequestIDHeader) == "" {
			t.Fatal("expected a request id header")
		}
	})

	t.Run("request id propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Fatalf("expected propagated id, got %q", got)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want apiRequest
	}{
		{
			name: "analyze",
			body: `{"playlistLink": " https://open.spotify.com/playlist/x "}`,
			want: analyzeRequest{PlaylistLink: "https://open.spotify.com/playlist/x"},
		},
		{
			name: "null link with vibe selects cover request",
			body: `{"playlistLink": null, "updatedVibePrompt": ` + validVibeJSON + `, "count": 4}`,
			want: coverRequest{Count: 4},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRequest(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case analyzeRequest:
				if got != want {
					t.Fatalf("got %#v, want %#v", got, want)
				}
			case coverRequest:
				cr, ok := got.(coverRequest)
				if !ok {
					t.Fatalf("expected coverRequest, got %T", got)
				}
				if cr.Count != want.Count || cr.Vibe.Style != "grainy film" {
					t.Fatalf("unexpected cover request %#v", cr)
				}
			}
		})
	}
}
