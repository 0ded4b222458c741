package rest

import (
	"net/http"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
)

type analyzeResponse struct {
	VibePrompt domain.VibeDescription `json:"vibePrompt"`
}

type coversResponse struct {
	Base64Images []domain.ImageReference `json:"base64Images"`
}

// analyzePlaylist answers a playlistLink request with the playlist's vibe.
func (h *Handler) analyzePlaylist(w http.ResponseWriter, r *http.Request, req analyzeRequest) {
	vibe, err := h.svc.AnalyzePlaylist(r.Context(), req.PlaylistLink)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{VibePrompt: vibe})
}

// generateCovers answers an updatedVibePrompt request with cover images.
func (h *Handler) generateCovers(w http.ResponseWriter, r *http.Request, req coverRequest) {
	refs, err := h.svc.GenerateCovers(r.Context(), req.Vibe, req.Count)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coversResponse{Base64Images: refs})
}
