package ingest

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/store"
)

type gdprEntry struct {
	Ts          string `json:"ts"`
	MsPlayed    *int64 `json:"ms_played"`
	TrackName   string `json:"master_metadata_track_name"`
	ArtistName  string `json:"master_metadata_album_artist_name"`
	AlbumName   string `json:"master_metadata_album_album_name"`
	SpotifyURI  string `json:"spotify_track_uri"`
	Platform    string `json:"platform"`
	ReasonEnd   string `json:"reason_end"`
	ConnCountry string `json:"conn_country"`
}

// ParseGDPR reads a full privacy export, either an extracted directory or
// the downloaded zip, and normalizes every endsong*.json record as a
// gdpr-export event.
func ParseGDPR(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %q: %w", path, err)
	}
	if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".zip") {
		return parseGDPRZip(path)
	}
	return parseGDPRDir(path)
}

func parseGDPRDir(dir string) (*Result, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if !info.IsDir() && strings.HasPrefix(name, "endsong") && strings.HasSuffix(name, ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", dir, err)
	}
	sort.Strings(files)

	result := &Result{}
	seenTracks := make(map[string]bool)
	for _, file := range files {
		result.Files = append(result.Files, file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", file, err)
		}
		parseGDPRPayload(result, seenTracks, filepath.Base(file), data)
	}
	return result, nil
}

func parseGDPRZip(path string) (*Result, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %q: %w", path, err)
	}
	defer archive.Close()

	var entries []*zip.File
	for _, f := range archive.File {
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, "endsong") && strings.HasSuffix(name, ".json") {
			entries = append(entries, f)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	result := &Result{}
	seenTracks := make(map[string]bool)
	for _, entry := range entries {
		result.Files = append(result.Files, entry.Name)
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %q in archive: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %q from archive: %w", entry.Name, err)
		}
		parseGDPRPayload(result, seenTracks, entry.Name, data)
	}
	return result, nil
}

func parseGDPRPayload(result *Result, seenTracks map[string]bool, name string, data []byte) {
	var entries []gdprEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: malformed JSON: %v", name, err))
		return
	}

	for i, entry := range entries {
		result.RowsSeen++
		if strings.TrimSpace(entry.TrackName) == "" || strings.TrimSpace(entry.ArtistName) == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: record %d: missing track metadata", name, i))
			continue
		}
		if entry.Ts == "" || entry.MsPlayed == nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: record %d: missing ts or ms_played", name, i))
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Ts)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: record %d: bad ts %q", name, i, entry.Ts))
			continue
		}

		key := store.TrackKey(entry.TrackName, entry.ArtistName)
		if !seenTracks[key] {
			seenTracks[key] = true
			result.Tracks = append(result.Tracks, store.Track{
				Key:        key,
				Name:       entry.TrackName,
				Artist:     entry.ArtistName,
				Album:      entry.AlbumName,
				SpotifyURI: entry.SpotifyURI,
			})
		}
		result.Events = append(result.Events, store.Event{
			TrackKey:  key,
			Timestamp: ts.UTC(),
			PlayedMs:  *entry.MsPlayed,
			Source:    "gdpr-export",
			Device:    entry.Platform,
			DedupKey: DedupKey(entry.Ts, entry.TrackName, entry.ArtistName,
				strconv.FormatInt(*entry.MsPlayed, 10), entry.SpotifyURI,
				entry.Platform, entry.ReasonEnd, entry.ConnCountry),
		})
	}
}
