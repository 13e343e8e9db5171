package pipeline

import (
	"fmt"
	"sort"
)

// reconcileOrder fixes the order in which sources are flattened so the merge
// never depends on map iteration.
var reconcileOrder = []Source{SourceAPISync, SourceGDPRExport, SourceStreamedLog, SourceManual}

// Reconcile merges the per-source raw event lists into one canonical,
// deduplicated, time-ordered sequence. Raw events for the same track whose
// timestamps fall within the configured tolerance of each other are taken to
// be the same real play and merge into a single canonical event; manual
// entries never merge. Events without a usable timestamp are dropped and
// reported as warnings. A duplicate canonical identity surviving the merge
// is an IntegrityError.
func Reconcile(rawBySource map[Source][]RawEvent, cfg Config) ([]CanonicalEvent, []Warning, error) {
	var warnings []Warning
	var mergeable []RawEvent
	var manual []RawEvent

	for _, source := range flattenSources(rawBySource) {
		for _, raw := range rawBySource[source] {
			if raw.TrackID == "" {
				warnings = append(warnings, Warning{
					Stage:   "reconcile",
					Source:  raw.Source,
					Message: "dropped event without track id",
				})
				continue
			}
			if raw.Timestamp.IsZero() {
				warnings = append(warnings, Warning{
					Stage:   "reconcile",
					TrackID: raw.TrackID,
					Source:  raw.Source,
					Message: "dropped event with unresolvable timestamp",
				})
				continue
			}
			raw.Timestamp = raw.Timestamp.UTC()
			if raw.Source == SourceManual {
				manual = append(manual, raw)
			} else {
				mergeable = append(mergeable, raw)
			}
		}
	}

	sort.SliceStable(mergeable, func(i, j int) bool {
		a, b := mergeable[i], mergeable[j]
		if a.TrackID != b.TrackID {
			return a.TrackID < b.TrackID
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return cfg.sourcePriority(a.Source) > cfg.sourcePriority(b.Source)
	})

	var events []CanonicalEvent
	var cluster []RawEvent
	flush := func() {
		if len(cluster) > 0 {
			events = append(events, mergeCluster(cluster, cfg))
			cluster = nil
		}
	}
	for _, raw := range mergeable {
		if len(cluster) > 0 && sameCluster(cluster, raw, cfg) {
			cluster = append(cluster, raw)
			continue
		}
		flush()
		cluster = append(cluster, raw)
	}
	flush()

	// Manual entries pass through as singletons; one that lands exactly on an
	// existing canonical identity is dropped so the identity invariant holds.
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		seen[identityKey(ev)] = true
	}
	for _, raw := range manual {
		ev := CanonicalEvent{
			TrackID:    raw.TrackID,
			Timestamp:  raw.Timestamp,
			PlayedMs:   raw.PlayedMs,
			Source:     raw.Source,
			PlaylistID: raw.PlaylistID,
			Device:     raw.Device,
			Merged:     1,
		}
		key := identityKey(ev)
		if seen[key] {
			warnings = append(warnings, Warning{
				Stage:   "reconcile",
				TrackID: ev.TrackID,
				Source:  SourceManual,
				Message: "dropped manual entry duplicating a canonical event",
			})
			continue
		}
		seen[key] = true
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.TrackID < b.TrackID
	})

	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.TrackID == cur.TrackID && prev.Timestamp.Equal(cur.Timestamp) {
			return nil, warnings, &IntegrityError{
				Stage:  "reconcile",
				Detail: fmt.Sprintf("duplicate canonical identity for track %s at %s", cur.TrackID, cur.Timestamp.Format("2006-01-02T15:04:05Z07:00")),
			}
		}
	}

	return events, warnings, nil
}

func flattenSources(rawBySource map[Source][]RawEvent) []Source {
	sources := make([]Source, 0, len(rawBySource))
	known := make(map[Source]bool)
	for _, source := range reconcileOrder {
		if _, ok := rawBySource[source]; ok {
			sources = append(sources, source)
			known[source] = true
		}
	}
	// Unknown sources sort after the known ones, alphabetically.
	var extra []Source
	for source := range rawBySource {
		if !known[source] {
			extra = append(extra, source)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(sources, extra...)
}

// sameCluster reports whether raw belongs to the open cluster: same track,
// within tolerance of the cluster's newest member, and from a source not yet
// represented. Two events from the same source are always distinct plays.
func sameCluster(cluster []RawEvent, raw RawEvent, cfg Config) bool {
	last := cluster[len(cluster)-1]
	if raw.TrackID != last.TrackID {
		return false
	}
	if raw.Timestamp.Sub(last.Timestamp).Milliseconds() > cfg.ToleranceMs {
		return false
	}
	for _, member := range cluster {
		if member.Source == raw.Source {
			return false
		}
	}
	return true
}

// mergeCluster collapses colliding raw events into one canonical event. The
// highest-priority source wins the timestamp; on a priority tie the event
// with richer context wins. Played duration takes the maximum across the
// cluster, assuming the most complete capture is correct.
func mergeCluster(cluster []RawEvent, cfg Config) CanonicalEvent {
	winner := cluster[0]
	for _, candidate := range cluster[1:] {
		if betterRepresentative(candidate, winner, cfg) {
			winner = candidate
		}
	}

	ev := CanonicalEvent{
		TrackID:    winner.TrackID,
		Timestamp:  winner.Timestamp,
		PlayedMs:   winner.PlayedMs,
		Source:     winner.Source,
		PlaylistID: winner.PlaylistID,
		Device:     winner.Device,
		Merged:     len(cluster),
	}
	for _, member := range cluster {
		if member.PlayedMs > ev.PlayedMs {
			ev.PlayedMs = member.PlayedMs
		}
	}
	// Context fields fill in from lower-priority members when the winner has
	// none of its own.
	if ev.PlaylistID == "" || ev.Device == "" {
		ranked := append([]RawEvent(nil), cluster...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return cfg.sourcePriority(ranked[i].Source) > cfg.sourcePriority(ranked[j].Source)
		})
		for _, member := range ranked {
			if ev.PlaylistID == "" && member.PlaylistID != "" {
				ev.PlaylistID = member.PlaylistID
			}
			if ev.Device == "" && member.Device != "" {
				ev.Device = member.Device
			}
		}
	}
	return ev
}

func betterRepresentative(a, b RawEvent, cfg Config) bool {
	pa, pb := cfg.sourcePriority(a.Source), cfg.sourcePriority(b.Source)
	if pa != pb {
		return pa > pb
	}
	ra, rb := hasContext(a), hasContext(b)
	if ra != rb {
		return ra
	}
	return a.Timestamp.Before(b.Timestamp)
}

func hasContext(e RawEvent) bool {
	return e.PlaylistID != "" || e.Device != ""
}

func identityKey(ev CanonicalEvent) string {
	return fmt.Sprintf("%s|%d", ev.TrackID, ev.Timestamp.UnixMilli())
}
