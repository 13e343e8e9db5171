package pipeline

import (
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fnino-dev/spotifygpt/internal/dna"
)

// SchemaVersion names the snapshot layout. Bump it whenever a field changes
// meaning, so downstream consumers can tell snapshots apart.
const SchemaVersion = "behavior_profile_v1"

const maxWarningExemplars = 5

// ClassificationSummary rolls the per-event classifications up into counts.
type ClassificationSummary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	ByMode     map[string]int   `json:"by_mode,omitempty"`
}

// MetricSummary carries both aggregation granularities side by side.
type MetricSummary struct {
	Daily  []MetricWindow `json:"daily"`
	Weekly []MetricWindow `json:"weekly"`
}

// WarningSummary condenses the run's warnings: full counts by stage, plus a
// bounded sample so snapshots stay small on noisy imports.
type WarningSummary struct {
	Total     int            `json:"total"`
	ByStage   map[string]int `json:"by_stage,omitempty"`
	Exemplars []Warning      `json:"exemplars,omitempty"`
}

// Snapshot is the final behavior profile. It embeds the exact configuration
// of the run, and GeneratedAt derives from the input rather than the wall
// clock, so identical inputs serialize to identical bytes.
type Snapshot struct {
	SchemaVersion   string                `json:"schema_version"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Config          Config                `json:"config"`
	Classifications ClassificationSummary `json:"classifications"`
	Metrics         MetricSummary         `json:"metrics"`
	Patterns        []PatternReport       `json:"patterns,omitempty"`
	MusicalDNA      *dna.Profile          `json:"musical_dna,omitempty"`
	Warnings        WarningSummary        `json:"warnings"`
}

// Synthesize assembles the snapshot from the outputs of the earlier stages.
// It computes no new analysis of its own.
func Synthesize(cls []Classification, daily, weekly []MetricWindow, patterns []PatternReport, profile *dna.Profile, warnings []Warning, cfg Config) *Snapshot {
	summary := ClassificationSummary{
		Total:      len(cls),
		ByCategory: make(map[Category]int),
	}
	for _, cl := range cls {
		summary.ByCategory[cl.Category]++
		if cl.Mode != "" {
			if summary.ByMode == nil {
				summary.ByMode = make(map[string]int)
			}
			summary.ByMode[cl.Mode]++
		}
	}

	return &Snapshot{
		SchemaVersion:   SchemaVersion,
		GeneratedAt:     generatedAt(cls),
		Config:          cfg,
		Classifications: summary,
		Metrics:         MetricSummary{Daily: daily, Weekly: weekly},
		Patterns:        patterns,
		MusicalDNA:      profile,
		Warnings:        summarizeWarnings(warnings),
	}
}

// generatedAt is the newest canonical event timestamp, or the Unix epoch for
// an empty input. Wall-clock time never enters the snapshot.
func generatedAt(cls []Classification) time.Time {
	newest := time.Unix(0, 0).UTC()
	for _, cl := range cls {
		if ts := cl.Event.Timestamp.UTC(); ts.After(newest) {
			newest = ts
		}
	}
	return newest
}

func summarizeWarnings(warnings []Warning) WarningSummary {
	summary := WarningSummary{Total: len(warnings)}
	if len(warnings) == 0 {
		return summary
	}
	summary.ByStage = make(map[string]int)
	for _, w := range warnings {
		summary.ByStage[w.Stage]++
	}
	// Exemplars come from a sorted view so the sample is stable no matter
	// which order the stages emitted them in.
	ordered := append([]Warning(nil), warnings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.TrackID != b.TrackID {
			return a.TrackID < b.TrackID
		}
		return a.Message < b.Message
	})
	if len(ordered) > maxWarningExemplars {
		ordered = ordered[:maxWarningExemplars]
	}
	summary.Exemplars = ordered
	return summary
}

// MarshalStable serializes the snapshot with sorted object keys and a fixed
// indentation, producing byte-identical output for identical snapshots.
func (s *Snapshot) MarshalStable() ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
