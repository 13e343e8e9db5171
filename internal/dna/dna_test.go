package dna

import (
	"math"
	"testing"
)

func TestComputeEmpty(t *testing.T) {
	profile := Compute(nil)

	if profile.TrackCount != 0 {
		t.Errorf("track count = %d, want 0", profile.TrackCount)
	}
	for _, name := range FeatureNames {
		if profile.FeatureSummary[name].Count != 0 {
			t.Errorf("feature %s count = %d, want 0", name, profile.FeatureSummary[name].Count)
		}
	}
	if len(profile.TempoBands) != 6 {
		t.Errorf("tempo bands = %d, want 6", len(profile.TempoBands))
	}
	if got := profile.TasteAxes["vocal_to_instrumental"]; got != 0.5 {
		t.Errorf("vocal_to_instrumental with no data = %f, want neutral 0.5", got)
	}
}

func TestComputeSummaryStatistics(t *testing.T) {
	tracks := []Features{
		{Danceability: 0.2, Energy: 0.4, Tempo: 100, Valence: 0.5, Acousticness: 0.1, Instrumentalness: 0.0, Liveness: 0.1, Speechiness: 0.05},
		{Danceability: 0.6, Energy: 0.8, Tempo: 120, Valence: 0.7, Acousticness: 0.3, Instrumentalness: 0.2, Liveness: 0.2, Speechiness: 0.10},
	}

	profile := Compute(tracks)
	energy := profile.FeatureSummary["energy"]

	if energy.Count != 2 {
		t.Errorf("energy count = %d, want 2", energy.Count)
	}
	if math.Abs(energy.Mean-0.6) > 1e-9 {
		t.Errorf("energy mean = %f, want 0.6", energy.Mean)
	}
	if math.Abs(energy.Std-0.2) > 1e-9 {
		t.Errorf("energy std = %f, want population std 0.2", energy.Std)
	}
	if energy.Min != 0.4 || energy.Max != 0.8 {
		t.Errorf("energy min/max = %f/%f, want 0.4/0.8", energy.Min, energy.Max)
	}
	if math.Abs(energy.P50-0.6) > 1e-9 {
		t.Errorf("energy p50 = %f, want interpolated 0.6", energy.P50)
	}
}

func TestComputeSkipsInvalidValues(t *testing.T) {
	tracks := []Features{
		{Danceability: 0.5, Energy: math.NaN(), Tempo: 120, Valence: 0.5, Acousticness: 0.1, Instrumentalness: 0.1, Liveness: 0.1, Speechiness: 0.1},
		{Danceability: 0.5, Energy: 0.9, Tempo: math.Inf(1), Valence: 0.5, Acousticness: 0.1, Instrumentalness: 0.1, Liveness: 0.1, Speechiness: 0.1},
	}

	profile := Compute(tracks)
	if got := profile.FeatureSummary["energy"].Count; got != 1 {
		t.Errorf("energy count = %d, want NaN skipped", got)
	}
	if got := profile.FeatureSummary["tempo"].Count; got != 1 {
		t.Errorf("tempo count = %d, want Inf skipped", got)
	}
	// Matrix pairing needs both energy and danceability valid.
	total := 0
	for _, row := range profile.EnergyDanceMatrix {
		for _, count := range row {
			total += count
		}
	}
	if total != 1 {
		t.Errorf("matrix total = %d, want 1 paired track", total)
	}
	if profile.TrackCount != 2 {
		t.Errorf("track count = %d, want all input tracks counted", profile.TrackCount)
	}
}

func TestComputeClampsOutOfRange(t *testing.T) {
	tracks := []Features{
		{Danceability: 1.4, Energy: -0.2, Tempo: -10, Valence: 0.5, Acousticness: 0.1, Instrumentalness: 0.1, Liveness: 0.1, Speechiness: 0.1},
	}

	profile := Compute(tracks)
	if got := profile.FeatureSummary["danceability"].Max; got != 1.0 {
		t.Errorf("danceability clamped max = %f, want 1.0", got)
	}
	if got := profile.FeatureSummary["energy"].Min; got != 0.0 {
		t.Errorf("energy clamped min = %f, want 0.0", got)
	}
	if got := profile.FeatureSummary["tempo"].Min; got != 0.0 {
		t.Errorf("tempo clamped min = %f, want 0.0", got)
	}
}

func TestTempoBands(t *testing.T) {
	tracks := []Features{
		tempoOnly(85), tempoOnly(90), tempoOnly(109.9), tempoOnly(130), tempoOnly(170), tempoOnly(200),
	}

	profile := Compute(tracks)
	want := map[string]int{"<90": 1, "90-110": 2, "110-130": 0, "130-150": 1, "150-170": 0, ">=170": 2}
	for _, band := range profile.TempoBands {
		if band.Count != want[band.Band] {
			t.Errorf("band %s count = %d, want %d", band.Band, band.Count, want[band.Band])
		}
	}
	if got := profile.TempoBands[0].Proportion; math.Abs(got-1.0/6.0) > 1e-9 {
		t.Errorf("band <90 proportion = %f, want 1/6", got)
	}
}

func tempoOnly(tempo float64) Features {
	return Features{
		Danceability:     0.5,
		Energy:           0.5,
		Tempo:            tempo,
		Valence:          0.5,
		Acousticness:     0.5,
		Instrumentalness: 0.5,
		Liveness:         0.5,
		Speechiness:      0.5,
	}
}

func TestEnergyDanceMatrix(t *testing.T) {
	tracks := []Features{
		{Danceability: 0.1, Energy: 0.1, Tempo: 120, Valence: 0.5, Acousticness: 0.5, Instrumentalness: 0.5, Liveness: 0.5, Speechiness: 0.5},
		{Danceability: 0.5, Energy: 0.9, Tempo: 120, Valence: 0.5, Acousticness: 0.5, Instrumentalness: 0.5, Liveness: 0.5, Speechiness: 0.5},
		{Danceability: 0.9, Energy: 0.9, Tempo: 120, Valence: 0.5, Acousticness: 0.5, Instrumentalness: 0.5, Liveness: 0.5, Speechiness: 0.5},
	}

	matrix := Compute(tracks).EnergyDanceMatrix
	if matrix["low"]["low"] != 1 || matrix["high"]["med"] != 1 || matrix["high"]["high"] != 1 {
		t.Errorf("matrix = %v, want low/low, high/med and high/high each 1", matrix)
	}
}

func TestTasteAxes(t *testing.T) {
	tracks := []Features{
		{Danceability: 0.5, Energy: 0.8, Tempo: 200, Valence: 0.9, Acousticness: 0.0, Instrumentalness: 0.0, Liveness: 0.1, Speechiness: 0.2},
	}

	axes := Compute(tracks).TasteAxes
	// tempo normalizes to 1.0 at 200 bpm, so chill_to_hype = (0.8 + 1.0) / 2.
	if math.Abs(axes["chill_to_hype"]-0.9) > 1e-9 {
		t.Errorf("chill_to_hype = %f, want 0.9", axes["chill_to_hype"])
	}
	if axes["dark_to_happy"] != 0.9 {
		t.Errorf("dark_to_happy = %f, want valence 0.9", axes["dark_to_happy"])
	}
	if axes["organic_to_synthetic"] != 1.0 {
		t.Errorf("organic_to_synthetic = %f, want 1.0 for fully electronic", axes["organic_to_synthetic"])
	}
	// All speech, no instrumentalness: fully vocal.
	if axes["vocal_to_instrumental"] != 1.0 {
		t.Errorf("vocal_to_instrumental = %f, want 1.0", axes["vocal_to_instrumental"])
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	a := []Features{tempoOnly(100), tempoOnly(150), tempoOnly(180)}
	b := []Features{tempoOnly(180), tempoOnly(100), tempoOnly(150)}

	pa, pb := Compute(a), Compute(b)
	if pa.FeatureSummary["tempo"] != pb.FeatureSummary["tempo"] {
		t.Errorf("tempo summary differs by input order: %+v vs %+v", pa.FeatureSummary["tempo"], pb.FeatureSummary["tempo"])
	}
	if pa.TasteAxes["chill_to_hype"] != pb.TasteAxes["chill_to_hype"] {
		t.Error("taste axes differ by input order")
	}
}
