// Package migration holds the SQL used to create the database schema.
package migration

// Create builds the full schema for a new database. Every statement is
// idempotent so it is safe to run against an existing database.
const Create = `
CREATE TABLE IF NOT EXISTS Track (
  key TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  artist TEXT NOT NULL,
  album TEXT NOT NULL DEFAULT '',
  spotify_uri TEXT NOT NULL DEFAULT '',
  duration_ms INTEGER
);

CREATE TABLE IF NOT EXISTS AudioFeature (
  track_key TEXT PRIMARY KEY,
  danceability REAL,
  energy REAL,
  valence REAL,
  tempo REAL,
  acousticness REAL,
  instrumentalness REAL,
  liveness REAL,
  speechiness REAL,
  fetched_at TEXT NOT NULL,
  FOREIGN KEY (track_key) REFERENCES Track(key)
);

CREATE TABLE IF NOT EXISTS RawEvent (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  track_key TEXT NOT NULL,
  ts TEXT NOT NULL,
  ms_played INTEGER NOT NULL,
  source TEXT NOT NULL,
  playlist_id TEXT NOT NULL DEFAULT '',
  device TEXT NOT NULL DEFAULT '',
  dedup_key TEXT NOT NULL UNIQUE,
  FOREIGN KEY (track_key) REFERENCES Track(key)
);

CREATE INDEX IF NOT EXISTS RawEvent_ts ON RawEvent(ts);
CREATE INDEX IF NOT EXISTS RawEvent_source ON RawEvent(source);

CREATE TABLE IF NOT EXISTS IngestRun (
  id TEXT PRIMARY KEY,
  mode TEXT NOT NULL,
  source TEXT NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT,
  files_count INTEGER NOT NULL DEFAULT 0,
  rows_seen INTEGER NOT NULL DEFAULT 0,
  rows_inserted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS Auth (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  refresh_token TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
