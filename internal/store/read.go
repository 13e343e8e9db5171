package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/dna"
	"github.com/fnino-dev/spotifygpt/internal/pipeline"
)

// EventsBySource loads every raw event grouped the way the reconciler wants
// them.
func (s *Store) EventsBySource() (map[pipeline.Source][]pipeline.RawEvent, error) {
	rows, err := s.db.Query(
		"SELECT track_key, ts, ms_played, source, playlist_id, device FROM RawEvent ORDER BY ts, track_key")
	if err != nil {
		return nil, fmt.Errorf("querying raw events: %w", err)
	}
	defer rows.Close()

	out := make(map[pipeline.Source][]pipeline.RawEvent)
	for rows.Next() {
		var ev pipeline.RawEvent
		var ts, source string
		if err := rows.Scan(&ev.TrackID, &ts, &ev.PlayedMs, &source, &ev.PlaylistID, &ev.Device); err != nil {
			return nil, fmt.Errorf("scanning raw event: %w", err)
		}
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", ts, err)
		}
		ev.Timestamp = parsed.UTC()
		ev.Source = pipeline.Source(source)
		out[ev.Source] = append(out[ev.Source], ev)
	}
	return out, rows.Err()
}

// Tracks loads the full track set keyed by track key.
func (s *Store) Tracks() (pipeline.TrackSet, error) {
	rows, err := s.db.Query("SELECT key, name, artist, album, duration_ms FROM Track")
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	tracks := make(pipeline.TrackSet)
	for rows.Next() {
		var track pipeline.Track
		var duration sql.NullInt64
		if err := rows.Scan(&track.ID, &track.Name, &track.Artist, &track.Album, &duration); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		if duration.Valid {
			track.DurationMs = duration.Int64
			track.HasDuration = true
		}
		tracks[track.ID] = track
	}
	return tracks, rows.Err()
}

// AudioFeatures loads every stored feature vector, ordered by track key so
// downstream consumers see a stable sequence.
func (s *Store) AudioFeatures() ([]dna.Features, error) {
	rows, err := s.db.Query(`
		SELECT danceability, energy, valence, tempo, acousticness, instrumentalness, liveness, speechiness
		FROM AudioFeature ORDER BY track_key`)
	if err != nil {
		return nil, fmt.Errorf("querying audio features: %w", err)
	}
	defer rows.Close()

	var out []dna.Features
	for rows.Next() {
		var f dna.Features
		if err := rows.Scan(&f.Danceability, &f.Energy, &f.Valence, &f.Tempo,
			&f.Acousticness, &f.Instrumentalness, &f.Liveness, &f.Speechiness); err != nil {
			return nil, fmt.Errorf("scanning audio features: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// TracksMissingFeatures returns keys of tracks with a Spotify URI but no
// stored feature vector, i.e. the backfill worklist.
func (s *Store) TracksMissingFeatures() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT t.key FROM Track t
		LEFT JOIN AudioFeature f ON t.key = f.track_key
		WHERE f.track_key IS NULL AND t.spotify_uri <> ''
		ORDER BY t.key`)
	if err != nil {
		return nil, fmt.Errorf("querying tracks missing features: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning track key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// TrackURI returns the Spotify URI stored for a track key, or empty when
// unknown.
func (s *Store) TrackURI(trackKey string) (string, error) {
	row := s.db.QueryRow("SELECT spotify_uri FROM Track WHERE key = ?", trackKey)
	var uri string
	err := row.Scan(&uri)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting track uri: %w", err)
	}
	return uri, nil
}

// LatestEventTime returns the newest raw event timestamp, or the zero time
// when no events exist. Sync uses it to resume where it left off.
func (s *Store) LatestEventTime() (time.Time, error) {
	row := s.db.QueryRow("SELECT ts FROM RawEvent ORDER BY ts DESC LIMIT 1")
	var ts string
	err := row.Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting latest event: %w", err)
	}
	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing latest event timestamp %q: %w", ts, err)
	}
	return parsed.UTC(), nil
}

// IngestRuns returns the bookkeeping rows, newest first.
func (s *Store) IngestRuns() ([]IngestRun, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, source, started_at, finished_at, files_count, rows_seen, rows_inserted
		FROM IngestRun ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var run IngestRun
		var started string
		var finished sql.NullString
		if err := rows.Scan(&run.ID, &run.Mode, &run.Source, &started, &finished,
			&run.FilesCount, &run.RowsSeen, &run.RowsInserted); err != nil {
			return nil, fmt.Errorf("scanning ingest run: %w", err)
		}
		run.StartedAt, err = time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parsing run start %q: %w", started, err)
		}
		if finished.Valid {
			run.FinishedAt, err = time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parsing run finish %q: %w", finished.String, err)
			}
			run.Finished = true
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// EventTimeRange returns the earliest and latest raw event timestamps. Both
// are zero when no events are stored.
func (s *Store) EventTimeRange() (time.Time, time.Time, error) {
	row := s.db.QueryRow("SELECT MIN(ts), MAX(ts) FROM RawEvent")
	var earliest, latest sql.NullString
	if err := row.Scan(&earliest, &latest); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("getting event range: %w", err)
	}
	if !earliest.Valid || !latest.Valid {
		return time.Time{}, time.Time{}, nil
	}
	first, err := time.Parse(timeLayout, earliest.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing earliest event %q: %w", earliest.String, err)
	}
	last, err := time.Parse(timeLayout, latest.String)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing latest event %q: %w", latest.String, err)
	}
	return first, last, nil
}

// EventCountBySource reports how many raw events each source contributed.
func (s *Store) EventCountBySource() (map[string]int, error) {
	rows, err := s.db.Query("SELECT source, COUNT(*) FROM RawEvent GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("counting events by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scanning event count: %w", err)
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

// GetRefreshToken returns the stored OAuth refresh token, or empty when the
// user has not authorized yet.
func (s *Store) GetRefreshToken() (string, error) {
	row := s.db.QueryRow("SELECT refresh_token FROM Auth WHERE id = 1")
	var token string
	err := row.Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting refresh token: %w", err)
	}
	return token, nil
}
