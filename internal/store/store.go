// Package store persists tracks, raw listening events, audio features and
// ingestion bookkeeping in a local sqlite database. Raw events are append
// only; reconciliation happens in memory at pipeline time, never in SQL.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/migration"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(migration.Create); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// TrackKey derives the stable track identifier from name and artist. Exports
// and the API disagree on ids, so identity hangs off the pair instead.
func TrackKey(name, artist string) string {
	sum := sha256.Sum256([]byte(name + "|" + artist))
	return hex.EncodeToString(sum[:])
}

// Track is one track row. DurationMs is only meaningful when HasDuration is
// true; a track first seen in an export has no duration until backfill.
type Track struct {
	Key         string
	Name        string
	Artist      string
	Album       string
	SpotifyURI  string
	DurationMs  int64
	HasDuration bool
}

// Event is one raw listening event row. DedupKey makes re-imports of the
// same files idempotent. A negative PlayedMs means the source had no played
// duration.
type Event struct {
	TrackKey   string
	Timestamp  time.Time
	PlayedMs   int64
	Source     string
	PlaylistID string
	Device     string
	DedupKey   string
}

// IngestRun is one row of ingestion bookkeeping.
type IngestRun struct {
	ID           string
	Mode         string
	Source       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Finished     bool
	FilesCount   int
	RowsSeen     int
	RowsInserted int
}

const timeLayout = time.RFC3339
