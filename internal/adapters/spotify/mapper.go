package spotify

import (
	"github.com/ewilliams-labs/vibecover/internal/core/domain"
)

// mapTrackToDomain flattens a raw Spotify track into the domain shape.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	artistNames := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	return domain.Track{
		Title:   st.Name,
		Artists: artistNames,
	}
}

// mapPlaylistToDomain converts a raw Spotify playlist, skipping items whose
// track was removed from the catalogue.
func mapPlaylistToDomain(sp spotifyPlaylist) domain.Playlist {
	items := sp.Tracks.Items
	tracks := make([]domain.Track, 0, len(items))

	for _, item := range items {
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, mapTrackToDomain(*item.Track))
	}

	return domain.Playlist{
		Name:        sp.Name,
		Description: sp.Description,
		Tracks:      tracks,
	}
}
