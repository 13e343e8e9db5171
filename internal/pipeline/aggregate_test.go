package pipeline

import (
	"testing"
	"time"
)

func classified(trackID string, at time.Time, category Category) Classification {
	return Classification{
		Event: CanonicalEvent{
			TrackID:   trackID,
			Timestamp: at,
			PlayedMs:  210000,
			Source:    SourceAPISync,
		},
		Category: category,
	}
}

func TestAggregateDailyWindowsAreContiguous(t *testing.T) {
	cls := []Classification{
		classified("a", ts("2024-03-01T10:00:00Z"), CategoryFullPlay),
		classified("b", ts("2024-03-04T10:00:00Z"), CategoryFullPlay),
	}

	windows := Aggregate(cls, nil, UnitDay, DefaultConfig())
	if len(windows) != 4 {
		t.Fatalf("expected 4 contiguous daily windows, got %d", len(windows))
	}
	for i, w := range windows {
		wantStart := ts("2024-03-01T00:00:00Z").AddDate(0, 0, i)
		if !w.Start.Equal(wantStart) {
			t.Errorf("windows[%d].Start = %s, want %s", i, w.Start, wantStart)
		}
		if !w.End.Equal(wantStart.AddDate(0, 0, 1)) {
			t.Errorf("windows[%d].End = %s, want start+1d", i, w.End)
		}
	}
	if windows[1].Plays != 0 || windows[2].Plays != 0 {
		t.Errorf("empty middle windows must carry zero counts, got %d and %d", windows[1].Plays, windows[2].Plays)
	}
}

func TestAggregateWeeksStartMonday(t *testing.T) {
	// 2024-03-03 is a Sunday; its ISO week starts Monday 2024-02-26.
	cls := []Classification{classified("a", ts("2024-03-03T12:00:00Z"), CategoryFullPlay)}

	windows := Aggregate(cls, nil, UnitWeek, DefaultConfig())
	if len(windows) != 1 {
		t.Fatalf("expected 1 weekly window, got %d", len(windows))
	}
	if !windows[0].Start.Equal(ts("2024-02-26T00:00:00Z")) {
		t.Errorf("week start = %s, want Monday 2024-02-26", windows[0].Start)
	}
}

func TestAggregateCountsAndSkipRate(t *testing.T) {
	day := ts("2024-03-01T00:00:00Z")
	tracks := TrackSet{
		"a": {ID: "a", Artist: "Artist One"},
		"b": {ID: "b", Artist: "Artist One"},
		"c": {ID: "c", Artist: "Artist Two"},
	}
	cls := []Classification{
		classified("a", day.Add(1*time.Hour), CategoryFullPlay),
		classified("a", day.Add(2*time.Hour), CategorySkip),
		classified("b", day.Add(3*time.Hour), CategorySkip),
		classified("c", day.Add(4*time.Hour), CategoryUnclassified),
	}

	windows := Aggregate(cls, tracks, UnitDay, DefaultConfig())
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}

	w := windows[0]
	if w.Plays != 4 || w.Skips != 2 || w.Unclassified != 1 {
		t.Errorf("counts = (%d plays, %d skips, %d unclassified), want (4, 2, 1)", w.Plays, w.Skips, w.Unclassified)
	}
	if w.UniqueTracks != 3 {
		t.Errorf("unique tracks = %d, want 3", w.UniqueTracks)
	}
	if w.UniqueArtists != 2 {
		t.Errorf("unique artists = %d, want 2", w.UniqueArtists)
	}
	if w.SkipRate != 0.5 {
		t.Errorf("skip rate = %f, want 0.5", w.SkipRate)
	}
}

func TestAggregateSkipRateZeroWhenEmpty(t *testing.T) {
	cls := []Classification{
		classified("a", ts("2024-03-01T10:00:00Z"), CategoryFullPlay),
		classified("a", ts("2024-03-03T10:00:00Z"), CategoryFullPlay),
	}
	windows := Aggregate(cls, nil, UnitDay, DefaultConfig())
	if got := windows[1].SkipRate; got != 0 {
		t.Errorf("empty window skip rate = %f, want 0", got)
	}
	for _, w := range windows {
		if w.SkipRate < 0 || w.SkipRate > 1 {
			t.Errorf("skip rate %f outside [0, 1]", w.SkipRate)
		}
	}
}

func TestAggregateTopTracksRankingAndTieBreak(t *testing.T) {
	day := ts("2024-03-01T00:00:00Z")
	var cls []Classification
	// b and a tie on 2 plays each; c has 3.
	for i, id := range []string{"c", "b", "a", "c", "b", "a", "c"} {
		cls = append(cls, classified(id, day.Add(time.Duration(i)*time.Minute), CategoryFullPlay))
	}

	cfg := DefaultConfig()
	windows := Aggregate(cls, nil, UnitDay, cfg)
	top := windows[0].TopTracks

	if len(top) != 3 {
		t.Fatalf("top-n with 3 distinct tracks must list 3 entries, got %d", len(top))
	}
	want := []TrackPlays{{"c", 3}, {"a", 2}, {"b", 2}}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("top[%d] = %+v, want %+v", i, top[i], want[i])
		}
	}

	cfg.TopN = 2
	windows = Aggregate(cls, nil, UnitDay, cfg)
	if len(windows[0].TopTracks) != 2 {
		t.Errorf("top-n = 2 must cap ranking at 2, got %d", len(windows[0].TopTracks))
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	if windows := Aggregate(nil, nil, UnitDay, DefaultConfig()); windows != nil {
		t.Errorf("empty input must produce no windows, got %d", len(windows))
	}
}
