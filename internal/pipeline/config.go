package pipeline

import "fmt"

// Config carries every tunable the pipeline stages consult. It is passed
// explicitly into each stage and embedded verbatim in the snapshot so a run
// can be reproduced from the snapshot alone.
type Config struct {
	// ThresholdMs separates skips from full plays: an event played for less
	// than this is a skip, unless it reached the track's full duration.
	ThresholdMs int64 `json:"threshold_ms"`

	// CompletionEpsilonMs absorbs encoding variance when comparing played
	// duration against track duration.
	CompletionEpsilonMs int64 `json:"completion_epsilon_ms"`

	// ToleranceMs is the reconciliation collision window: raw events for the
	// same track within this many milliseconds of each other merge into one
	// canonical event.
	ToleranceMs int64 `json:"tolerance_ms"`

	// TopN bounds per-window track rankings and the weekly radar.
	TopN int `json:"top_n"`

	// ModePlaylists maps a playlist id to a semantic mode label.
	ModePlaylists map[string]string `json:"mode_playlists,omitempty"`

	// SourcePriority ranks sources for reconciliation merges; higher wins.
	// Left empty, DefaultSourcePriority applies.
	SourcePriority map[Source]int `json:"source_priority,omitempty"`
}

// DefaultSourcePriority prefers the API's own records over exports and logs,
// with manual entries last.
var DefaultSourcePriority = map[Source]int{
	SourceAPISync:     3,
	SourceGDPRExport:  2,
	SourceStreamedLog: 1,
	SourceManual:      0,
}

const (
	DefaultThresholdMs         = 200000
	DefaultCompletionEpsilonMs = 2000
	DefaultToleranceMs         = 120000
	DefaultTopN                = 5
)

// DefaultConfig returns a Config with the standard thresholds and no mode
// playlist mapping.
func DefaultConfig() Config {
	return Config{
		ThresholdMs:         DefaultThresholdMs,
		CompletionEpsilonMs: DefaultCompletionEpsilonMs,
		ToleranceMs:         DefaultToleranceMs,
		TopN:                DefaultTopN,
	}
}

// Validate rejects configurations that would make a run meaningless. It is
// called before any stage executes; a failure here aborts the whole run.
func (c Config) Validate() error {
	if c.ThresholdMs <= 0 {
		return &ConfigError{Field: "threshold-ms", Reason: fmt.Sprintf("must be positive, got %d", c.ThresholdMs)}
	}
	if c.CompletionEpsilonMs < 0 {
		return &ConfigError{Field: "completion-epsilon-ms", Reason: fmt.Sprintf("must not be negative, got %d", c.CompletionEpsilonMs)}
	}
	if c.ToleranceMs < 0 {
		return &ConfigError{Field: "tolerance", Reason: fmt.Sprintf("must not be negative, got %d", c.ToleranceMs)}
	}
	if c.TopN < 0 {
		return &ConfigError{Field: "top-n", Reason: fmt.Sprintf("must not be negative, got %d", c.TopN)}
	}
	for playlist, mode := range c.ModePlaylists {
		if playlist == "" {
			return &ConfigError{Field: "mode-map", Reason: "empty playlist id key"}
		}
		if mode == "" {
			return &ConfigError{Field: "mode-map", Reason: fmt.Sprintf("empty mode label for playlist %q", playlist)}
		}
	}
	return nil
}

func (c Config) sourcePriority(s Source) int {
	if len(c.SourcePriority) > 0 {
		return c.SourcePriority[s]
	}
	return DefaultSourcePriority[s]
}
