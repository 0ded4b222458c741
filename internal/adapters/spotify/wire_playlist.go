package spotify

// spotifyPlaylist mirrors the fields-filtered playlist response:
// name,description,tracks.items(track(name,artists(name))).
type spotifyPlaylist struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tracks      struct {
		Items []spotifyPlaylistItem `json:"items"`
	} `json:"tracks"`
}

// spotifyPlaylistItem wraps a track; Track is nil for removed or local items.
type spotifyPlaylistItem struct {
	Track *spotifyTrack `json:"track"`
}

type spotifyTrack struct {
	Name    string          `json:"name"`
	Artists []spotifyArtist `json:"artists"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}
