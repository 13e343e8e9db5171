package pipeline

import "fmt"

// ConfigError marks an invalid configuration value. It is fatal: the
// pipeline refuses to run rather than produce output under a bad config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// IntegrityError marks a violated pipeline invariant, e.g. a duplicate
// canonical identity surviving reconciliation. It indicates a bug in the
// stage named, and aborts the run: a snapshot is either complete and
// internally consistent or not produced at all.
type IntegrityError struct {
	Stage  string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s: %s", e.Stage, e.Detail)
}

// Warning records a per-event problem that was recovered locally, such as a
// raw event dropped for an unparseable timestamp. Warnings ride along with
// the run result; they never fail it.
type Warning struct {
	Stage   string `json:"stage"`
	TrackID string `json:"track_id,omitempty"`
	Source  Source `json:"source,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.TrackID != "" {
		return fmt.Sprintf("%s: track %s: %s", w.Stage, w.TrackID, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
