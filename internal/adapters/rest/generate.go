package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
)

// MaxBodyBytes caps the size of a generate request body.
const MaxBodyBytes = 1 << 20

const (
	msgMissingConfig = "Server is missing API key configuration."
	msgNoPlaylist    = "No playlistLink provided."
	msgBadBody       = "Invalid request body."
	msgBothShapes    = "Provide either playlistLink or updatedVibePrompt, not both."
)

// apiRequest is one of analyzeRequest or coverRequest.
type apiRequest interface {
	isAPIRequest()
}

// analyzeRequest asks for the vibe of a playlist.
type analyzeRequest struct {
	PlaylistLink string
}

// coverRequest asks for covers rendered from an edited vibe.
type coverRequest struct {
	Vibe  domain.VibeDescription
	Count int
}

func (analyzeRequest) isAPIRequest() {}
func (coverRequest) isAPIRequest()   {}

// wireRequest is the raw body; presence of a field selects the request kind.
type wireRequest struct {
	PlaylistLink      json.RawMessage `json:"playlistLink"`
	UpdatedVibePrompt json.RawMessage `json:"updatedVibePrompt"`
	Count             int             `json:"count"`
}

// decodeRequest reads the body into exactly one request kind. Every failure
// is a *domain.InputError.
func decodeRequest(body io.Reader) (apiRequest, error) {
	var wire wireRequest
	if err := json.NewDecoder(body).Decode(&wire); err != nil {
		return nil, domain.NewInputError(msgBadBody)
	}

	hasLink := present(wire.PlaylistLink)
	hasVibe := present(wire.UpdatedVibePrompt)

	switch {
	case hasLink && hasVibe:
		return nil, domain.NewInputError(msgBothShapes)
	case hasVibe:
		vibe, err := domain.ParseVibe(wire.UpdatedVibePrompt)
		if err != nil {
			return nil, domain.NewInputError(fmt.Sprintf("Invalid updatedVibePrompt: %v", err))
		}
		return coverRequest{Vibe: vibe, Count: wire.Count}, nil
	case hasLink:
		var link string
		if err := json.Unmarshal(wire.PlaylistLink, &link); err != nil {
			return nil, domain.NewInputError(msgBadBody)
		}
		if strings.TrimSpace(link) == "" {
			return nil, domain.NewInputError(msgNoPlaylist)
		}
		return analyzeRequest{PlaylistLink: strings.TrimSpace(link)}, nil
	default:
		return nil, domain.NewInputError(msgNoPlaylist)
	}
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Generate handles POST /api/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	// 1. Configuration comes before any upstream call
	if err := h.creds.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}

	// 2. Decode Request
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// 3. Dispatch
	switch req := req.(type) {
	case analyzeRequest:
		h.analyzePlaylist(w, r, req)
	case coverRequest:
		h.generateCovers(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, msgNoPlaylist)
	}
}

// respondError maps an outcome from the service layer onto a status code.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	fields := []zap.Field{
		zap.String("request_id", RequestID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError || errors.Is(err, domain.ErrUpstreamAuth) || errors.Is(err, domain.ErrUpstreamFetch) {
		h.logger.Warn("generate request failed", fields...)
	} else {
		h.logger.Debug("generate request rejected", fields...)
	}
	writeError(w, status, msg)
}

func classify(err error) (int, string) {
	if errors.Is(err, domain.ErrConfiguration) {
		return http.StatusInternalServerError, msgMissingConfig
	}

	var input *domain.InputError
	if errors.As(err, &input) {
		return http.StatusBadRequest, input.Message
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode <= 599 {
		return upstream.StatusCode, fmt.Sprintf("API error: %d", upstream.StatusCode)
	}

	return http.StatusInternalServerError, err.Error()
}
