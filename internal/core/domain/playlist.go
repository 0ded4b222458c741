package domain

import (
	"strings"
)

// MaxSummaryTracks caps how many tracks are rendered into a playlist summary.
const MaxSummaryTracks = 50

const (
	unknownTrack  = "Unknown Track"
	unknownArtist = "Unknown Artist"
)

// Track is a single playlist entry as far as vibe analysis cares.
type Track struct {
	Title   string
	Artists []string
}

// Playlist holds the metadata the analyzer needs. Tracks keep provider order.
type Playlist struct {
	Name        string
	Description string
	Tracks      []Track
}

// PlaylistSummary is the plain-text rendering of a playlist handed to the vibe analyzer.
type PlaylistSummary string

// ExtractPlaylistID returns the id segment of a playlist link of the form
// ".../playlist/<id>[?...]". ok is false when the link has no playlist segment.
func ExtractPlaylistID(link string) (id string, ok bool) {
	_, rest, found := strings.Cut(link, "playlist/")
	if !found {
		return "", false
	}
	id, _, _ = strings.Cut(rest, "?")
	id, _, _ = strings.Cut(id, "/")
	if id == "" {
		return "", false
	}
	return id, true
}

// Summary renders the playlist as a deterministic text block:
//
//	Playlist Name: <name>
//	Playlist Description: <description>   (only when non-empty)
//	Tracks:
//	- <track> by <artist1, artist2>
func (p Playlist) Summary() PlaylistSummary {
	var b strings.Builder
	b.WriteString("Playlist Name: ")
	b.WriteString(p.Name)
	b.WriteString("\n")

	if strings.TrimSpace(p.Description) != "" {
		b.WriteString("Playlist Description: ")
		b.WriteString(p.Description)
		b.WriteString("\n")
	}

	b.WriteString("Tracks:\n")
	tracks := p.Tracks
	if len(tracks) > MaxSummaryTracks {
		tracks = tracks[:MaxSummaryTracks]
	}
	for _, t := range tracks {
		b.WriteString("- ")
		b.WriteString(t.displayTitle())
		b.WriteString(" by ")
		b.WriteString(t.displayArtists())
		b.WriteString("\n")
	}

	return PlaylistSummary(b.String())
}

func (t Track) displayTitle() string {
	return fallbackIfEmpty(t.Title, unknownTrack)
}

func (t Track) displayArtists() string {
	if len(t.Artists) == 0 {
		return unknownArtist
	}
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = fallbackIfEmpty(a, unknownArtist)
	}
	return strings.Join(names, ", ")
}

func fallbackIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
