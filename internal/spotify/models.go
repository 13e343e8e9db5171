package spotify

// Wire types for the subset of the Web API this tool consumes.

type apiArtist struct {
	Name string `json:"name"`
}

type apiAlbum struct {
	Name string `json:"name"`
}

type apiTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	URI        string      `json:"uri"`
	DurationMs int64       `json:"duration_ms"`
	Album      apiAlbum    `json:"album"`
	Artists    []apiArtist `json:"artists"`
}

type apiContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

type playHistoryItem struct {
	Track    apiTrack    `json:"track"`
	PlayedAt string      `json:"played_at"`
	Context  *apiContext `json:"context"`
}

type recentlyPlayedPage struct {
	Items   []playHistoryItem `json:"items"`
	Next    string            `json:"next"`
	Cursors struct {
		After string `json:"after"`
	} `json:"cursors"`
}

type savedTrackItem struct {
	AddedAt string   `json:"added_at"`
	Track   apiTrack `json:"track"`
}

type savedTracksPage struct {
	Items []savedTrackItem `json:"items"`
	Next  string           `json:"next"`
}

type apiPlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type playlistsPage struct {
	Items []apiPlaylist `json:"items"`
	Next  string        `json:"next"`
}

type playlistTrackItem struct {
	Track apiTrack `json:"track"`
}

type playlistTracksPage struct {
	Items []playlistTrackItem `json:"items"`
	Next  string              `json:"next"`
}

type apiAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	DurationMs       int64   `json:"duration_ms"`
}

type audioFeaturesPage struct {
	AudioFeatures []*apiAudioFeatures `json:"audio_features"`
}
