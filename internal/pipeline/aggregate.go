package pipeline

import (
	"sort"
	"time"
)

// Aggregate partitions the full timespan of the classified events into
// contiguous, gapless windows and computes per-window counts and rankings.
// Windows with no events are still emitted with zero counts. Days are UTC
// calendar days; weeks are ISO weeks starting Monday. Re-aggregating the
// same input always yields identical boundaries and values.
func Aggregate(cls []Classification, tracks TrackSet, unit WindowUnit, cfg Config) []MetricWindow {
	if len(cls) == 0 {
		return nil
	}

	sorted := append([]Classification(nil), cls...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Event, sorted[j].Event
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.TrackID < b.TrackID
	})

	first := windowStart(sorted[0].Event.Timestamp, unit)
	last := windowStart(sorted[len(sorted)-1].Event.Timestamp, unit)

	var windows []MetricWindow
	idx := 0
	for start := first; !start.After(last); start = nextWindow(start, unit) {
		end := nextWindow(start, unit)
		var bucket []Classification
		for idx < len(sorted) && sorted[idx].Event.Timestamp.Before(end) {
			bucket = append(bucket, sorted[idx])
			idx++
		}
		windows = append(windows, buildWindow(start, end, unit, bucket, tracks, cfg))
	}
	return windows
}

func buildWindow(start, end time.Time, unit WindowUnit, bucket []Classification, tracks TrackSet, cfg Config) MetricWindow {
	w := MetricWindow{Unit: unit, Start: start, End: end}

	trackPlays := make(map[string]int)
	artists := make(map[string]bool)
	for _, cl := range bucket {
		w.Plays++
		switch cl.Category {
		case CategorySkip:
			w.Skips++
		case CategoryUnclassified:
			w.Unclassified++
		}
		trackPlays[cl.Event.TrackID]++
		if track, ok := tracks[cl.Event.TrackID]; ok && track.Artist != "" {
			artists[track.Artist] = true
		}
	}

	w.UniqueTracks = len(trackPlays)
	w.UniqueArtists = len(artists)
	if w.Plays > 0 {
		w.SkipRate = float64(w.Skips) / float64(w.Plays)
	}
	w.TopTracks = rankTracks(trackPlays, cfg.TopN)
	return w
}

// rankTracks orders tracks by play count descending, breaking ties toward
// the lexicographically smaller track id, and keeps at most topN entries.
// Weeks with fewer distinct tracks than topN list only what was played.
func rankTracks(trackPlays map[string]int, topN int) []TrackPlays {
	if len(trackPlays) == 0 || topN == 0 {
		return nil
	}
	ranking := make([]TrackPlays, 0, len(trackPlays))
	for id, plays := range trackPlays {
		ranking = append(ranking, TrackPlays{TrackID: id, Plays: plays})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Plays != ranking[j].Plays {
			return ranking[i].Plays > ranking[j].Plays
		}
		return ranking[i].TrackID < ranking[j].TrackID
	})
	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	return ranking
}

func windowStart(t time.Time, unit WindowUnit) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if unit == UnitDay {
		return day
	}
	// ISO week, Monday start.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func nextWindow(start time.Time, unit WindowUnit) time.Time {
	if unit == UnitDay {
		return start.AddDate(0, 0, 1)
	}
	return start.AddDate(0, 0, 7)
}
