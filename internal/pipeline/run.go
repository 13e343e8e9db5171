package pipeline

import "github.com/fnino-dev/spotifygpt/internal/dna"

// Input bundles everything a run consumes. Audio features are optional; a
// run without them produces a snapshot with no musical DNA section.
type Input struct {
	RawBySource map[Source][]RawEvent
	Tracks      TrackSet
	Features    []dna.Features
}

// Result holds every intermediate stage output alongside the final snapshot,
// so callers can render any layer without re-running the pipeline.
type Result struct {
	Events          []CanonicalEvent
	Classifications []Classification
	Daily           []MetricWindow
	Weekly          []MetricWindow
	Patterns        []PatternReport
	Snapshot        *Snapshot
	Warnings        []Warning
}

// Run executes the full pipeline: reconcile, classify, aggregate, detect
// patterns, synthesize. The configuration is validated up front; an invalid
// config aborts before any stage touches the data. The whole run is pure,
// which is what makes snapshots reproducible.
func Run(in Input, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	events, warnings, err := Reconcile(in.RawBySource, cfg)
	if err != nil {
		return nil, err
	}

	cls := Classify(events, in.Tracks, cfg)
	daily := Aggregate(cls, in.Tracks, UnitDay, cfg)
	weekly := Aggregate(cls, in.Tracks, UnitWeek, cfg)
	patterns := DetectPatterns(weekly, daily, cls, cfg)

	var profile *dna.Profile
	if len(in.Features) > 0 {
		profile = dna.Compute(in.Features)
	}

	return &Result{
		Events:          events,
		Classifications: cls,
		Daily:           daily,
		Weekly:          weekly,
		Patterns:        patterns,
		Snapshot:        Synthesize(cls, daily, weekly, patterns, profile, warnings, cfg),
		Warnings:        warnings,
	}, nil
}
