package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"github.com/ewilliams-labs/vibecover/internal/core/ports"
)

// Orchestrator runs the two halves of the cover pipeline: playlist -> vibe, and
// vibe -> images. It holds no per-request state.
type Orchestrator struct {
	playlists  ports.PlaylistReader
	analyzer   ports.VibeAnalyzer
	prompts    ports.PromptSynthesizer
	images     ports.ImageGenerator
	imageCount int
	logger     *zap.Logger
}

// Dependencies groups the ports the Orchestrator is built from.
type Dependencies struct {
	Playlists ports.PlaylistReader
	Analyzer  ports.VibeAnalyzer
	Prompts   ports.PromptSynthesizer
	Images    ports.ImageGenerator
}

// NewOrchestrator constructs an Orchestrator. imageCount is the default number
// of covers per generate request.
func NewOrchestrator(deps Dependencies, imageCount int, logger *zap.Logger) *Orchestrator {
	if imageCount < 1 {
		imageCount = domain.DefaultImageCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		playlists:  deps.Playlists,
		analyzer:   deps.Analyzer,
		prompts:    deps.Prompts,
		images:     deps.Images,
		imageCount: imageCount,
		logger:     logger,
	}
}

// AnalyzePlaylist resolves a playlist link to a vibe description.
func (o *Orchestrator) AnalyzePlaylist(ctx context.Context, link string) (domain.VibeDescription, error) {
	playlistID, ok := domain.ExtractPlaylistID(link)
	if !ok {
		return domain.VibeDescription{}, domain.NewInputError("Invalid Spotify playlist link.")
	}

	// 1. Token exchange
	token, err := o.playlists.Authenticate(ctx)
	if err != nil {
		return domain.VibeDescription{}, fmt.Errorf("service: authenticate: %w", err)
	}

	// 2. Playlist summary
	summary, err := o.playlists.FetchSummary(ctx, playlistID, token)
	if err != nil {
		return domain.VibeDescription{}, fmt.Errorf("service: fetch playlist: %w", err)
	}

	// 3. Vibe analysis
	vibe, err := o.analyzer.AnalyzeVibe(ctx, summary)
	if err != nil {
		return domain.VibeDescription{}, fmt.Errorf("service: analyze vibe: %w", err)
	}

	o.logger.Info("playlist analyzed", zap.String("playlist_id", playlistID), zap.String("style", vibe.Style))
	return vibe, nil
}

// GenerateCovers turns an edited vibe into up to count images. count <= 0
// means the configured default; larger values are capped at MaxImageCount.
func (o *Orchestrator) GenerateCovers(ctx context.Context, vibe domain.VibeDescription, count int) ([]domain.ImageReference, error) {
	if err := vibe.ValidateEdited(); err != nil {
		return nil, domain.NewInputError(err.Error())
	}
	count = o.clampCount(count)

	prompt, err := o.prompts.SynthesizePrompt(ctx, vibe)
	if err != nil {
		return nil, fmt.Errorf("service: synthesize prompt: %w", err)
	}
	o.logger.Debug("image prompt synthesized", zap.Int("prompt_len", len(prompt)))

	refs, err := o.images.Generate(ctx, prompt, count)
	if err != nil {
		return nil, fmt.Errorf("service: generate images: %w", err)
	}
	if len(refs) > count {
		refs = refs[:count]
	}
	return refs, nil
}

func (o *Orchestrator) clampCount(count int) int {
	switch {
	case count <= 0:
		return o.imageCount
	case count > domain.MaxImageCount:
		return domain.MaxImageCount
	default:
		return count
	}
}
