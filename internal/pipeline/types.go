package pipeline

import "time"

// Source identifies which ingestion path produced a raw event.
type Source string

const (
	SourceAPISync     Source = "api-sync"
	SourceGDPRExport  Source = "gdpr-export"
	SourceStreamedLog Source = "streamed-log"
	SourceManual      Source = "manual"
)

// RawEvent is one listening event as handed over by an ingestion
// collaborator, before reconciliation. A zero Timestamp means the source
// record had no usable timestamp; a negative PlayedMs means the played
// duration was missing.
type RawEvent struct {
	TrackID    string    `json:"track_id"`
	Timestamp  time.Time `json:"timestamp"`
	PlayedMs   int64     `json:"played_ms"`
	Source     Source    `json:"source"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Device     string    `json:"device,omitempty"`
}

// CanonicalEvent is a single deduplicated listening occurrence after merging
// across sources. Identity is (TrackID, Timestamp).
type CanonicalEvent struct {
	TrackID    string    `json:"track_id"`
	Timestamp  time.Time `json:"timestamp"`
	PlayedMs   int64     `json:"played_ms"`
	Source     Source    `json:"source"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	Device     string    `json:"device,omitempty"`
	Merged     int       `json:"merged"`
}

// Track is the immutable track record the classifier consults. DurationMs is
// only meaningful when HasDuration is true; a track without feature backfill
// has an unknown duration, which is distinct from a duration of zero.
type Track struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	DurationMs  int64
	HasDuration bool
}

// TrackSet is the track lookup keyed by track id.
type TrackSet map[string]Track

// Category is the deterministic classification outcome for one event.
type Category string

const (
	CategoryFullPlay     Category = "full-play"
	CategorySkip         Category = "skip"
	CategoryUnclassified Category = "unclassified-duration"
)

// Classification pairs one canonical event with its category and, when the
// event context maps to a configured mode playlist, a mode label.
type Classification struct {
	Event    CanonicalEvent `json:"event"`
	Category Category       `json:"category"`
	Mode     string         `json:"mode,omitempty"`
}

// WindowUnit selects the aggregation bucket size.
type WindowUnit string

const (
	UnitDay  WindowUnit = "day"
	UnitWeek WindowUnit = "week"
)

// TrackPlays is one entry of a per-window play-count ranking.
type TrackPlays struct {
	TrackID string `json:"track_id"`
	Plays   int    `json:"plays"`
}

// MetricWindow holds the aggregate counts for one contiguous time bucket.
// Windows with no events are still emitted with zero counts.
type MetricWindow struct {
	Unit          WindowUnit   `json:"unit"`
	Start         time.Time    `json:"start"`
	End           time.Time    `json:"end"`
	Plays         int          `json:"plays"`
	Skips         int          `json:"skips"`
	Unclassified  int          `json:"unclassified"`
	UniqueTracks  int          `json:"unique_tracks"`
	UniqueArtists int          `json:"unique_artists"`
	SkipRate      float64      `json:"skip_rate"`
	TopTracks     []TrackPlays `json:"top_tracks,omitempty"`
}

// ReportKind enumerates the pattern report types.
type ReportKind string

const (
	KindWeeklyRadar      ReportKind = "weekly-radar"
	KindDailyModeSummary ReportKind = "daily-mode-summary"
	KindAlert            ReportKind = "alert"
)

// RadarTrack is one ranked entry of a weekly radar report.
type RadarTrack struct {
	Rank    int    `json:"rank"`
	TrackID string `json:"track_id"`
	Plays   int    `json:"plays"`
}

// RadarReport is the weekly-radar payload: the top-N tracks of the week and
// the week-over-week change in total plays.
type RadarReport struct {
	Tracks     []RadarTrack `json:"tracks"`
	DeltaPlays int          `json:"delta_plays"`
}

// ModeSummary is the daily-mode-summary payload.
type ModeSummary struct {
	DominantMode string `json:"dominant_mode"`
	ModeEvents   int    `json:"mode_events"`
	TotalEvents  int    `json:"total_events"`
}

// AlertReport is an advisory finding. Evidence keys are fixed per alert type
// so serialized output stays stable.
type AlertReport struct {
	Type     string            `json:"type"`
	Detail   string            `json:"detail"`
	Evidence map[string]string `json:"evidence,omitempty"`
}

// PatternReport is one derived report. Exactly one of Radar, ModeSummary and
// Alert is set, matching Kind.
type PatternReport struct {
	Kind        ReportKind   `json:"kind"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Radar       *RadarReport `json:"radar,omitempty"`
	ModeSummary *ModeSummary `json:"mode_summary,omitempty"`
	Alert       *AlertReport `json:"alert,omitempty"`
}
