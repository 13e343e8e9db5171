package pipeline

import (
	"testing"
	"time"
)

func alertsOfType(reports []PatternReport, alertType string) []PatternReport {
	var out []PatternReport
	for _, r := range reports {
		if r.Kind == KindAlert && r.Alert.Type == alertType {
			out = append(out, r)
		}
	}
	return out
}

func reportsOfKind(reports []PatternReport, kind ReportKind) []PatternReport {
	var out []PatternReport
	for _, r := range reports {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func detect(t *testing.T, cls []Classification, cfg Config) []PatternReport {
	t.Helper()
	weekly := Aggregate(cls, nil, UnitWeek, cfg)
	daily := Aggregate(cls, nil, UnitDay, cfg)
	return DetectPatterns(weekly, daily, cls, cfg)
}

func TestWeeklyRadarDelta(t *testing.T) {
	// Week of 2024-03-04 has 3 plays, week of 2024-03-11 has 1.
	cls := []Classification{
		classified("a", ts("2024-03-04T10:00:00Z"), CategoryFullPlay),
		classified("a", ts("2024-03-05T10:00:00Z"), CategoryFullPlay),
		classified("b", ts("2024-03-06T10:00:00Z"), CategoryFullPlay),
		classified("b", ts("2024-03-12T10:00:00Z"), CategoryFullPlay),
	}

	radars := reportsOfKind(detect(t, cls, DefaultConfig()), KindWeeklyRadar)
	if len(radars) != 2 {
		t.Fatalf("expected 2 weekly radars, got %d", len(radars))
	}

	first := radars[0].Radar
	if first.DeltaPlays != 0 {
		t.Errorf("first week delta = %d, want 0", first.DeltaPlays)
	}
	if len(first.Tracks) != 2 || first.Tracks[0].TrackID != "a" || first.Tracks[0].Rank != 1 {
		t.Errorf("first week top tracks = %+v, want a ranked first", first.Tracks)
	}
	if radars[1].Radar.DeltaPlays != -2 {
		t.Errorf("second week delta = %d, want -2", radars[1].Radar.DeltaPlays)
	}
}

func TestDailyModeSummaryDominantAndTieBreak(t *testing.T) {
	day := ts("2024-03-01T00:00:00Z")
	withMode := func(id, mode string, at time.Time) Classification {
		cl := classified(id, at, CategoryFullPlay)
		cl.Mode = mode
		return cl
	}
	cls := []Classification{
		withMode("a", "workout", day.Add(1*time.Hour)),
		withMode("b", "focus", day.Add(2*time.Hour)),
		classified("c", day.Add(3*time.Hour), CategoryFullPlay),
	}

	summaries := reportsOfKind(detect(t, cls, DefaultConfig()), KindDailyModeSummary)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 daily summary, got %d", len(summaries))
	}

	s := summaries[0].ModeSummary
	if s.DominantMode != "focus" {
		t.Errorf("dominant mode = %q, want lexicographic tie-break to focus", s.DominantMode)
	}
	if s.ModeEvents != 2 || s.TotalEvents != 3 {
		t.Errorf("mode/total = %d/%d, want 2/3", s.ModeEvents, s.TotalEvents)
	}
}

func TestSkipRateSpike(t *testing.T) {
	// Four calm weeks around 10% skips, then one at 50%.
	var cls []Classification
	week := ts("2024-01-01T00:00:00Z") // a Monday
	for w := 0; w < 5; w++ {
		start := week.AddDate(0, 0, 7*w)
		skips := 1
		if w == 4 {
			skips = 5
		}
		for i := 0; i < 10; i++ {
			category := CategoryFullPlay
			if i < skips {
				category = CategorySkip
			}
			cls = append(cls, classified("a", start.Add(time.Duration(i)*time.Hour), category))
		}
	}

	spikes := alertsOfType(detect(t, cls, DefaultConfig()), "skip-rate-spike")
	if len(spikes) != 1 {
		t.Fatalf("expected 1 spike alert, got %d", len(spikes))
	}
	if !spikes[0].Start.Equal(week.AddDate(0, 0, 28)) {
		t.Errorf("spike start = %s, want the fifth week", spikes[0].Start)
	}
}

func TestSkipRateSpikeNeedsHistory(t *testing.T) {
	var cls []Classification
	week := ts("2024-01-01T00:00:00Z")
	for w := 0; w < 3; w++ {
		start := week.AddDate(0, 0, 7*w)
		for i := 0; i < 10; i++ {
			category := CategoryFullPlay
			if w == 2 && i < 8 {
				category = CategorySkip
			}
			cls = append(cls, classified("a", start.Add(time.Duration(i)*time.Hour), category))
		}
	}

	if spikes := alertsOfType(detect(t, cls, DefaultConfig()), "skip-rate-spike"); len(spikes) != 0 {
		t.Errorf("spike must not fire with fewer than 4 trailing weeks, got %d", len(spikes))
	}
}

func TestIngestionGap(t *testing.T) {
	cls := []Classification{
		classified("a", ts("2024-03-01T10:00:00Z"), CategoryFullPlay),
		classified("b", ts("2024-03-03T10:00:00Z"), CategoryFullPlay),
	}

	gaps := alertsOfType(detect(t, cls, DefaultConfig()), "ingestion-gap")
	if len(gaps) != 1 {
		t.Fatalf("expected 1 ingestion-gap alert, got %d", len(gaps))
	}
	if !gaps[0].Start.Equal(ts("2024-03-02T00:00:00Z")) {
		t.Errorf("gap start = %s, want the empty day", gaps[0].Start)
	}
	if gaps[0].Alert.Evidence["unit"] != "day" {
		t.Errorf("gap unit = %q, want day", gaps[0].Alert.Evidence["unit"])
	}
}

func TestFixation(t *testing.T) {
	week := ts("2024-01-01T00:00:00Z")
	var cls []Classification
	// 20 plays, 18 of one track: top share 0.9, unique share 3/20.
	for i := 0; i < 18; i++ {
		cls = append(cls, classified("hit", week.Add(time.Duration(i)*time.Hour), CategoryFullPlay))
	}
	cls = append(cls,
		classified("x", week.Add(20*time.Hour), CategoryFullPlay),
		classified("y", week.Add(21*time.Hour), CategoryFullPlay),
	)

	fixations := alertsOfType(detect(t, cls, DefaultConfig()), "fixation")
	if len(fixations) != 1 {
		t.Fatalf("expected 1 fixation alert, got %d", len(fixations))
	}
	if fixations[0].Alert.Evidence["top_track"] != "hit" {
		t.Errorf("top track = %q, want hit", fixations[0].Alert.Evidence["top_track"])
	}
}

func TestErraticHours(t *testing.T) {
	week := ts("2024-01-01T00:00:00Z")
	var cls []Classification
	// One play in every hour of the day: maximal entropy.
	for h := 0; h < 24; h++ {
		cls = append(cls, classified("a", week.Add(time.Duration(h)*time.Hour), CategoryFullPlay))
	}

	if alerts := alertsOfType(detect(t, cls, DefaultConfig()), "erratic-hours"); len(alerts) != 1 {
		t.Fatalf("expected 1 erratic-hours alert, got %d", len(alerts))
	}

	// Concentrated listening must not alert.
	var focused []Classification
	for i := 0; i < 24; i++ {
		focused = append(focused, classified("a", week.Add(time.Duration(i)*time.Minute), CategoryFullPlay))
	}
	if alerts := alertsOfType(detect(t, focused, DefaultConfig()), "erratic-hours"); len(alerts) != 0 {
		t.Errorf("single-hour listening must not alert, got %d", len(alerts))
	}
}

func TestTasteDrift(t *testing.T) {
	week1 := ts("2024-01-01T00:00:00Z")
	week2 := week1.AddDate(0, 0, 7)
	var cls []Classification
	// Week 1 rotates tracks a-e, week 2 rotates f-j: zero overlap.
	for i := 0; i < 20; i++ {
		cls = append(cls, classified(string(rune('a'+i%5)), week1.Add(time.Duration(i)*time.Hour), CategoryFullPlay))
		cls = append(cls, classified(string(rune('f'+i%5)), week2.Add(time.Duration(i)*time.Hour), CategoryFullPlay))
	}

	drifts := alertsOfType(detect(t, cls, DefaultConfig()), "taste-drift")
	if len(drifts) != 1 {
		t.Fatalf("expected 1 taste-drift alert, got %d", len(drifts))
	}
	if drifts[0].Alert.Evidence["jaccard"] != "0.000" {
		t.Errorf("jaccard = %q, want 0.000", drifts[0].Alert.Evidence["jaccard"])
	}

	// A stable rotation across both weeks must not drift.
	var stable []Classification
	for i := 0; i < 20; i++ {
		stable = append(stable, classified(string(rune('a'+i%5)), week1.Add(time.Duration(i)*time.Hour), CategoryFullPlay))
		stable = append(stable, classified(string(rune('a'+i%5)), week2.Add(time.Duration(i)*time.Hour), CategoryFullPlay))
	}
	if drifts := alertsOfType(detect(t, stable, DefaultConfig()), "taste-drift"); len(drifts) != 0 {
		t.Errorf("stable top tracks must not drift, got %d", len(drifts))
	}
}
