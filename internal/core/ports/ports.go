// Package ports declares the interfaces the core needs from the outside world.
package ports

import (
	"context"

	"github.com/ewilliams-labs/vibecover/internal/core/domain"
	"golang.org/x/oauth2"
)

// PlaylistReader reads playlist metadata from the music provider.
type PlaylistReader interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
	FetchSummary(ctx context.Context, playlistID string, token *oauth2.Token) (domain.PlaylistSummary, error)
}

// VibeAnalyzer reduces a playlist summary to a structured vibe description.
type VibeAnalyzer interface {
	AnalyzeVibe(ctx context.Context, summary domain.PlaylistSummary) (domain.VibeDescription, error)
}

// PromptSynthesizer expands a vibe description into a single image prompt.
type PromptSynthesizer interface {
	SynthesizePrompt(ctx context.Context, vibe domain.VibeDescription) (string, error)
}

// ImageGenerator renders up to count covers for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, count int) ([]domain.ImageReference, error)
}
