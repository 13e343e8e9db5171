package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

const (
	spikeTrailingWindows = 4
	spikeFactor          = 2.0

	driftTopN             = 5
	driftMinPlays         = 20
	driftJaccardThreshold = 0.3
	fixationMinPlays      = 20
	fixationTopShare      = 0.4
	fixationUniqueShare   = 0.2
	erraticMinPlays       = 20
	erraticEntropyCutoff  = 0.8
)

type patternInput struct {
	weekly []MetricWindow
	daily  []MetricWindow
	cls    []Classification
	byWeek map[time.Time][]Classification
	byDay  map[time.Time][]Classification
	cfg    Config
}

// patternRule is one independent, declaratively ordered detection rule.
// Rules never see each other's output, so they can be tested in isolation
// and reordered without entangling logic.
type patternRule struct {
	name   string
	detect func(patternInput) []PatternReport
}

var patternRules = []patternRule{
	{"weekly-radar", detectWeeklyRadar},
	{"daily-mode-summary", detectDailyModeSummary},
	{"skip-rate-spike", detectSkipRateSpike},
	{"ingestion-gap", detectIngestionGap},
	{"taste-drift", detectTasteDrift},
	{"fixation", detectFixation},
	{"erratic-hours", detectErraticHours},
}

// DetectPatterns derives the periodic reports and advisory alerts from the
// aggregated windows and the classified event set. Input order never affects
// output: classifications are re-sorted by canonical timestamp before any
// rule runs, and every tie-break is a fixed rule.
func DetectPatterns(weekly, daily []MetricWindow, cls []Classification, cfg Config) []PatternReport {
	sorted := append([]Classification(nil), cls...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Event, sorted[j].Event
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.TrackID < b.TrackID
	})

	in := patternInput{
		weekly: weekly,
		daily:  daily,
		cls:    sorted,
		byWeek: bucketBy(sorted, UnitWeek),
		byDay:  bucketBy(sorted, UnitDay),
		cfg:    cfg,
	}

	var reports []PatternReport
	for _, rule := range patternRules {
		reports = append(reports, rule.detect(in)...)
	}
	return reports
}

func bucketBy(cls []Classification, unit WindowUnit) map[time.Time][]Classification {
	buckets := make(map[time.Time][]Classification)
	for _, cl := range cls {
		start := windowStart(cl.Event.Timestamp, unit)
		buckets[start] = append(buckets[start], cl)
	}
	return buckets
}

func detectWeeklyRadar(in patternInput) []PatternReport {
	var reports []PatternReport
	for i, w := range in.weekly {
		radar := &RadarReport{}
		for rank, entry := range w.TopTracks {
			radar.Tracks = append(radar.Tracks, RadarTrack{
				Rank:    rank + 1,
				TrackID: entry.TrackID,
				Plays:   entry.Plays,
			})
		}
		if i > 0 {
			radar.DeltaPlays = w.Plays - in.weekly[i-1].Plays
		}
		reports = append(reports, PatternReport{
			Kind:  KindWeeklyRadar,
			Start: w.Start,
			End:   w.End,
			Radar: radar,
		})
	}
	return reports
}

func detectDailyModeSummary(in patternInput) []PatternReport {
	var reports []PatternReport
	for _, w := range in.daily {
		summary := &ModeSummary{TotalEvents: w.Plays}
		modeCounts := make(map[string]int)
		for _, cl := range in.byDay[w.Start] {
			if cl.Mode != "" {
				modeCounts[cl.Mode]++
				summary.ModeEvents++
			}
		}
		summary.DominantMode = dominantMode(modeCounts)
		reports = append(reports, PatternReport{
			Kind:        KindDailyModeSummary,
			Start:       w.Start,
			End:         w.End,
			ModeSummary: summary,
		})
	}
	return reports
}

// dominantMode picks the mode with the most events, breaking ties toward
// the lexicographically smallest label.
func dominantMode(counts map[string]int) string {
	best := ""
	bestCount := 0
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

// detectSkipRateSpike flags a week whose skip rate exceeds double the
// trailing 4-week average. It only fires once at least 4 prior windows
// exist, so early sparse data never alerts.
func detectSkipRateSpike(in patternInput) []PatternReport {
	var reports []PatternReport
	for i, w := range in.weekly {
		if i < spikeTrailingWindows || w.Plays == 0 || w.SkipRate == 0 {
			continue
		}
		var sum float64
		for _, prev := range in.weekly[i-spikeTrailingWindows : i] {
			sum += prev.SkipRate
		}
		trailing := sum / spikeTrailingWindows
		if w.SkipRate <= spikeFactor*trailing {
			continue
		}
		reports = append(reports, PatternReport{
			Kind:  KindAlert,
			Start: w.Start,
			End:   w.End,
			Alert: &AlertReport{
				Type:   "skip-rate-spike",
				Detail: fmt.Sprintf("skip rate %.3f is more than double the trailing average %.3f", w.SkipRate, trailing),
				Evidence: map[string]string{
					"skip_rate":    formatFloat(w.SkipRate),
					"trailing_avg": formatFloat(trailing),
					"plays":        strconv.Itoa(w.Plays),
				},
			},
		})
	}
	return reports
}

// detectIngestionGap flags a window with no tracks at all while both
// neighbors have some: that shape signals missing data, not a taste change.
func detectIngestionGap(in patternInput) []PatternReport {
	var reports []PatternReport
	for _, windows := range [][]MetricWindow{in.daily, in.weekly} {
		for i := 1; i < len(windows)-1; i++ {
			w := windows[i]
			if w.UniqueTracks != 0 || windows[i-1].UniqueTracks == 0 || windows[i+1].UniqueTracks == 0 {
				continue
			}
			reports = append(reports, PatternReport{
				Kind:  KindAlert,
				Start: w.Start,
				End:   w.End,
				Alert: &AlertReport{
					Type:   "ingestion-gap",
					Detail: fmt.Sprintf("no events in %s window between two active windows", w.Unit),
					Evidence: map[string]string{
						"unit":           string(w.Unit),
						"previous_plays": strconv.Itoa(windows[i-1].Plays),
						"next_plays":     strconv.Itoa(windows[i+1].Plays),
					},
				},
			})
		}
	}
	return reports
}

// detectTasteDrift compares consecutive weekly top-5 sets; low Jaccard
// similarity between busy weeks means the rotation turned over abruptly.
func detectTasteDrift(in patternInput) []PatternReport {
	var reports []PatternReport
	for i := 1; i < len(in.weekly); i++ {
		prev, cur := in.weekly[i-1], in.weekly[i]
		prevCls, curCls := in.byWeek[prev.Start], in.byWeek[cur.Start]
		if len(prevCls) < driftMinPlays || len(curCls) < driftMinPlays {
			continue
		}
		prevTop := topTrackSet(prevCls, driftTopN)
		curTop := topTrackSet(curCls, driftTopN)
		if len(prevTop) == 0 || len(curTop) == 0 {
			continue
		}
		jaccard := jaccardSimilarity(prevTop, curTop)
		if jaccard >= driftJaccardThreshold {
			continue
		}
		reports = append(reports, PatternReport{
			Kind:  KindAlert,
			Start: cur.Start,
			End:   cur.End,
			Alert: &AlertReport{
				Type:   "taste-drift",
				Detail: fmt.Sprintf("weekly top-%d overlap dropped to %.3f", driftTopN, jaccard),
				Evidence: map[string]string{
					"jaccard":             formatFloat(jaccard),
					"previous_week_start": prev.Start.Format("2006-01-02"),
				},
			},
		})
	}
	return reports
}

// detectFixation flags a week dominated by a single track: the top track
// holds a large share of plays while the unique-track share collapses.
func detectFixation(in patternInput) []PatternReport {
	var reports []PatternReport
	for _, w := range in.weekly {
		cls := in.byWeek[w.Start]
		total := len(cls)
		if total < fixationMinPlays {
			continue
		}
		counts := trackCounts(cls)
		ranking := rankTracks(counts, 1)
		topShare := float64(ranking[0].Plays) / float64(total)
		uniqueShare := float64(len(counts)) / float64(total)
		if topShare < fixationTopShare || uniqueShare > fixationUniqueShare {
			continue
		}
		reports = append(reports, PatternReport{
			Kind:  KindAlert,
			Start: w.Start,
			End:   w.End,
			Alert: &AlertReport{
				Type:   "fixation",
				Detail: fmt.Sprintf("track %s holds %.0f%% of the week's plays", ranking[0].TrackID, topShare*100),
				Evidence: map[string]string{
					"top_track":    ranking[0].TrackID,
					"top_share":    formatFloat(topShare),
					"unique_share": formatFloat(uniqueShare),
				},
			},
		})
	}
	return reports
}

// detectErraticHours flags a week whose plays spread almost uniformly over
// the clock. Normalized Shannon entropy over play hours near 1.0 means no
// diurnal structure at all.
func detectErraticHours(in patternInput) []PatternReport {
	var reports []PatternReport
	for _, w := range in.weekly {
		cls := in.byWeek[w.Start]
		if len(cls) < erraticMinPlays {
			continue
		}
		hourCounts := make(map[int]int)
		for _, cl := range cls {
			hourCounts[cl.Event.Timestamp.UTC().Hour()]++
		}
		normalized := hourEntropy(hourCounts, len(cls)) / math.Log2(24)
		if normalized < erraticEntropyCutoff {
			continue
		}
		reports = append(reports, PatternReport{
			Kind:  KindAlert,
			Start: w.Start,
			End:   w.End,
			Alert: &AlertReport{
				Type:   "erratic-hours",
				Detail: fmt.Sprintf("hourly listening entropy %.3f of maximum", normalized),
				Evidence: map[string]string{
					"normalized_entropy": formatFloat(normalized),
					"plays":              strconv.Itoa(len(cls)),
				},
			},
		})
	}
	return reports
}

func trackCounts(cls []Classification) map[string]int {
	counts := make(map[string]int)
	for _, cl := range cls {
		counts[cl.Event.TrackID]++
	}
	return counts
}

func topTrackSet(cls []Classification, n int) map[string]bool {
	set := make(map[string]bool)
	for _, entry := range rankTracks(trackCounts(cls), n) {
		set[entry.TrackID] = true
	}
	return set
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	intersection := 0
	for id := range a {
		if b[id] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func hourEntropy(counts map[int]int, total int) float64 {
	var entropy float64
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
