package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/store"
)

// manualEntry tolerates the field spellings seen in ad-hoc library exports.
// Tracks appear either inline or nested under a "track" object.
type manualEntry struct {
	Track      *manualEntry      `json:"track"`
	Name       string            `json:"name"`
	TrackName  string            `json:"track_name"`
	TrackName2 string            `json:"trackName"`
	Artist     string            `json:"artist"`
	ArtistName string            `json:"artist_name"`
	Artist2    string            `json:"artistName"`
	Artists    []json.RawMessage `json:"artists"`
	URI        string            `json:"uri"`
	SpotifyURI string            `json:"spotify_uri"`
	SpotifyUR2 string            `json:"spotifyUri"`
	AddedAt    string            `json:"added_at"`
	AddedAt2   string            `json:"addedAt"`
}

type manualPlaylist struct {
	Name      string        `json:"name"`
	Name2     string        `json:"playlist_name"`
	Name3     string        `json:"playlistName"`
	TracksRaw []manualEntry `json:"tracks"`
}

// ManualResult extends the import result with the playlist names found, so
// the caller can suggest mode-map entries.
type ManualResult struct {
	Result
	Playlists []string
}

// ParseManual reads a liked-songs export and a playlists export. Liked
// tracks with an added_at timestamp become manual events without a played
// duration; everything else only enriches the track table.
func ParseManual(likedPath, playlistsPath string) (*ManualResult, error) {
	result := &ManualResult{}
	seenTracks := make(map[string]bool)

	if likedPath != "" {
		if err := parseLiked(result, seenTracks, likedPath); err != nil {
			return nil, err
		}
	}
	if playlistsPath != "" {
		if err := parsePlaylists(result, seenTracks, playlistsPath); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func parseLiked(result *ManualResult, seenTracks map[string]bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	var entries []manualEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}

	for i, entry := range entries {
		result.RowsSeen++
		track, addedAt, ok := extractTrack(entry)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("liked record %d: missing track or artist name", i))
			continue
		}
		addTrack(&result.Result, seenTracks, track)

		if addedAt == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, addedAt)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("liked record %d: bad added_at %q", i, addedAt))
			continue
		}
		result.Events = append(result.Events, store.Event{
			TrackKey:  track.Key,
			Timestamp: ts.UTC(),
			PlayedMs:  -1,
			Source:    "manual",
			DedupKey:  DedupKey("manual", addedAt, track.Name, track.Artist),
		})
	}
	result.Files = append(result.Files, path)
	return nil
}

func parsePlaylists(result *ManualResult, seenTracks map[string]bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	var playlists []manualPlaylist
	if err := json.Unmarshal(data, &playlists); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}

	for i, playlist := range playlists {
		name := firstNonEmpty(playlist.Name, playlist.Name2, playlist.Name3)
		if name == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("playlist record %d: missing name", i))
			continue
		}
		result.Playlists = append(result.Playlists, name)
		for _, entry := range playlist.TracksRaw {
			result.RowsSeen++
			track, _, ok := extractTrack(entry)
			if !ok {
				result.Warnings = append(result.Warnings, fmt.Sprintf("playlist %q: track without name or artist", name))
				continue
			}
			addTrack(&result.Result, seenTracks, track)
		}
	}
	result.Files = append(result.Files, path)
	return nil
}

func extractTrack(entry manualEntry) (store.Track, string, bool) {
	source := entry
	if entry.Track != nil {
		source = *entry.Track
	}
	addedAt := firstNonEmpty(entry.AddedAt, entry.AddedAt2)

	name := firstNonEmpty(source.Name, source.TrackName, source.TrackName2)
	artist := firstNonEmpty(source.ArtistName, source.Artist2, source.Artist)
	if artist == "" && len(source.Artists) > 0 {
		artist = firstArtist(source.Artists[0])
	}
	if name == "" || artist == "" {
		return store.Track{}, "", false
	}

	return store.Track{
		Key:        store.TrackKey(name, artist),
		Name:       name,
		Artist:     artist,
		SpotifyURI: firstNonEmpty(source.SpotifyURI, source.SpotifyUR2, source.URI),
	}, addedAt, true
}

// firstArtist accepts both {"name": "..."} objects and bare strings.
func firstArtist(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var asObject struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return strings.TrimSpace(asObject.Name)
	}
	return ""
}

func addTrack(result *Result, seenTracks map[string]bool, track store.Track) {
	if seenTracks[track.Key] {
		return
	}
	seenTracks[track.Key] = true
	result.Tracks = append(result.Tracks, track)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
