package pipeline

// Classify assigns exactly one category to every canonical event. The rules,
// in order:
//
//  1. missing played duration -> unclassified-duration
//  2. unknown track duration  -> unclassified-duration (no guessing before
//     feature backfill has run)
//  3. played to completion (within epsilon) -> full-play, even when the
//     track itself is shorter than the threshold
//  4. played < threshold -> skip, otherwise full-play
//
// Mode tagging only consults the configured playlist mapping; it never
// infers a mode from audio features.
func Classify(events []CanonicalEvent, tracks TrackSet, cfg Config) []Classification {
	out := make([]Classification, 0, len(events))
	for _, ev := range events {
		cl := Classification{
			Event:    ev,
			Category: categorize(ev, tracks, cfg),
		}
		if ev.PlaylistID != "" {
			cl.Mode = cfg.ModePlaylists[ev.PlaylistID]
		}
		out = append(out, cl)
	}
	return out
}

func categorize(ev CanonicalEvent, tracks TrackSet, cfg Config) Category {
	if ev.PlayedMs < 0 {
		return CategoryUnclassified
	}
	track, ok := tracks[ev.TrackID]
	if !ok || !track.HasDuration {
		return CategoryUnclassified
	}
	if ev.PlayedMs+cfg.CompletionEpsilonMs >= track.DurationMs {
		return CategoryFullPlay
	}
	if ev.PlayedMs < cfg.ThresholdMs {
		return CategorySkip
	}
	return CategoryFullPlay
}
