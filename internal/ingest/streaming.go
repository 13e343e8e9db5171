package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/store"
)

// streamingTimeLayout matches the endTime field of the basic account export,
// which has minute precision and no zone. Times are taken as UTC.
const streamingTimeLayout = "2006-01-02 15:04"

type streamingEntry struct {
	EndTime    string `json:"endTime"`
	ArtistName string `json:"artistName"`
	TrackName  string `json:"trackName"`
	MsPlayed   *int64 `json:"msPlayed"`
}

// ParseStreamingDir reads every StreamingHistory*.json file in dir and
// normalizes the entries as streamed-log events.
func ParseStreamingDir(dir string) (*Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "StreamingHistory*.json"))
	if err != nil {
		return nil, fmt.Errorf("globbing %q: %w", dir, err)
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

		var entries []streamingEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: malformed JSON: %v", filepath.Base(file), err))
			continue
		}

		for i, entry := range entries {
			result.RowsSeen++
			if entry.TrackName == "" || entry.ArtistName == "" || entry.EndTime == "" || entry.MsPlayed == nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: record %d: missing fields", filepath.Base(file), i))
				continue
			}
			ts, err := time.ParseInLocation(streamingTimeLayout, entry.EndTime, time.UTC)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: record %d: bad endTime %q", filepath.Base(file), i, entry.EndTime))
				continue
			}

			key := store.TrackKey(entry.TrackName, entry.ArtistName)
			if !seenTracks[key] {
				seenTracks[key] = true
				result.Tracks = append(result.Tracks, store.Track{
					Key:    key,
					Name:   entry.TrackName,
					Artist: entry.ArtistName,
				})
			}
			result.Events = append(result.Events, store.Event{
				TrackKey:  key,
				Timestamp: ts,
				PlayedMs:  *entry.MsPlayed,
				Source:    "streamed-log",
				DedupKey: DedupKey("streamed-log", entry.EndTime, entry.TrackName,
					entry.ArtistName, strconv.FormatInt(*entry.MsPlayed, 10)),
			})
		}
	}
	return result, nil
}
