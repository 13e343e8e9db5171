package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fnino-dev/spotifygpt/internal/dna"
)

// UpsertTracks inserts new tracks and enriches existing rows. Enrichment is
// monotonic: a known duration, album or URI is never overwritten with a
// blank one, so import order cannot degrade track data.
func (s *Store) UpsertTracks(tracks []Track) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, track := range tracks {
		if err := upsertTrack(tx, track); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func upsertTrack(tx *sql.Tx, track Track) error {
	var duration sql.NullInt64
	if track.HasDuration {
		duration = sql.NullInt64{Int64: track.DurationMs, Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO Track (key, name, artist, album, spotify_uri, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  album = CASE WHEN Track.album = '' THEN excluded.album ELSE Track.album END,
		  spotify_uri = CASE WHEN Track.spotify_uri = '' THEN excluded.spotify_uri ELSE Track.spotify_uri END,
		  duration_ms = COALESCE(Track.duration_ms, excluded.duration_ms)`,
		track.Key, track.Name, track.Artist, track.Album, track.SpotifyURI, duration)
	if err != nil {
		return fmt.Errorf("upserting track %q: %w", track.Key, err)
	}
	return nil
}

// AddEvents appends raw events transactionally and reports how many were
// actually new. Rows whose dedup key already exists are skipped silently, so
// importing the same file twice is a no-op.
func (s *Store) AddEvents(events []Event) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, ev := range events {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO RawEvent (track_key, ts, ms_played, source, playlist_id, device, dedup_key)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.TrackKey, ev.Timestamp.UTC().Format(timeLayout), ev.PlayedMs, ev.Source, ev.PlaylistID, ev.Device, ev.DedupKey)
		if err != nil {
			return inserted, fmt.Errorf("inserting event for %q: %w", ev.TrackKey, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("checking insert result: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// SaveAudioFeatures stores the feature vector for a track, replacing any
// previous fetch.
func (s *Store) SaveAudioFeatures(trackKey string, features dna.Features, fetchedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO AudioFeature
		  (track_key, danceability, energy, valence, tempo, acousticness, instrumentalness, liveness, speechiness, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trackKey, features.Danceability, features.Energy, features.Valence, features.Tempo,
		features.Acousticness, features.Instrumentalness, features.Liveness, features.Speechiness,
		fetchedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving audio features for %q: %w", trackKey, err)
	}
	return nil
}

// SetTrackDuration records a duration learned after the track row was first
// created, e.g. from feature backfill.
func (s *Store) SetTrackDuration(trackKey string, durationMs int64) error {
	_, err := s.db.Exec("UPDATE Track SET duration_ms = ? WHERE key = ?", durationMs, trackKey)
	if err != nil {
		return fmt.Errorf("setting duration for %q: %w", trackKey, err)
	}
	return nil
}

// StartIngestRun opens a bookkeeping row for an import or sync and returns
// its id.
func (s *Store) StartIngestRun(mode, source string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO IngestRun (id, mode, source, started_at) VALUES (?, ?, ?, ?)",
		id, mode, source, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("starting ingest run: %w", err)
	}
	return id, nil
}

// FinishIngestRun closes a bookkeeping row with the final counters.
func (s *Store) FinishIngestRun(id string, files, seen, inserted int) error {
	_, err := s.db.Exec(`
		UPDATE IngestRun
		SET finished_at = ?, files_count = ?, rows_seen = ?, rows_inserted = ?
		WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), files, seen, inserted, id)
	if err != nil {
		return fmt.Errorf("finishing ingest run %q: %w", id, err)
	}
	return nil
}

// SetRefreshToken stores the single OAuth refresh token.
func (s *Store) SetRefreshToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO Auth (id, refresh_token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET refresh_token = excluded.refresh_token, updated_at = excluded.updated_at`,
		token, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}
