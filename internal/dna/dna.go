// Package dna condenses per-track audio features into a compact musical
// profile: per-feature distribution statistics, a tempo histogram, an
// energy/danceability matrix and four derived taste axes. The computation is
// pure and order-independent, so the same feature set always produces the
// same profile.
package dna

import (
	"math"
	"sort"
)

// FeatureNames fixes the feature order for deterministic output.
var FeatureNames = []string{
	"danceability",
	"energy",
	"tempo",
	"valence",
	"acousticness",
	"instrumentalness",
	"liveness",
	"speechiness",
}

// Features holds one track's audio features. A NaN field means the value was
// missing or unusable in the source payload; such values are skipped per
// feature rather than failing the whole track.
type Features struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Tempo            float64 `json:"tempo"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
}

func (f Features) value(name string) float64 {
	switch name {
	case "danceability":
		return f.Danceability
	case "energy":
		return f.Energy
	case "tempo":
		return f.Tempo
	case "valence":
		return f.Valence
	case "acousticness":
		return f.Acousticness
	case "instrumentalness":
		return f.Instrumentalness
	case "liveness":
		return f.Liveness
	case "speechiness":
		return f.Speechiness
	}
	return math.NaN()
}

// Summary holds the distribution statistics for one feature.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P10   float64 `json:"p10"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
}

// TempoBand is one bucket of the tempo histogram.
type TempoBand struct {
	Band       string  `json:"band"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// Profile is the full musical DNA output.
type Profile struct {
	FeatureSummary    map[string]Summary        `json:"feature_summary"`
	TempoBands        []TempoBand               `json:"tempo_bands"`
	EnergyDanceMatrix map[string]map[string]int `json:"energy_dance_matrix"`
	TasteAxes         map[string]float64        `json:"taste_axes"`
	TrackCount        int                       `json:"track_count"`
}

type tempoBandSpec struct {
	label string
	low   float64
	high  float64
}

var tempoBandSpecs = []tempoBandSpec{
	{"<90", math.Inf(-1), 90},
	{"90-110", 90, 110},
	{"110-130", 110, 130},
	{"130-150", 130, 150},
	{"150-170", 150, 170},
	{">=170", 170, math.Inf(1)},
}

// Compute builds the profile from the given track features. Normalized
// features are clamped to [0, 1]; tempo is clamped to be non-negative.
func Compute(tracks []Features) *Profile {
	valuesByFeature := make(map[string][]float64, len(FeatureNames))
	var energies, dances []float64

	for _, track := range tracks {
		for _, name := range FeatureNames {
			raw := track.value(name)
			if !validNumber(raw) {
				continue
			}
			valuesByFeature[name] = append(valuesByFeature[name], normalize(name, raw))
		}
		if validNumber(track.Energy) && validNumber(track.Danceability) {
			energies = append(energies, normalize("energy", track.Energy))
			dances = append(dances, normalize("danceability", track.Danceability))
		}
	}

	summary := make(map[string]Summary, len(FeatureNames))
	for _, name := range FeatureNames {
		summary[name] = summarize(valuesByFeature[name])
	}

	return &Profile{
		FeatureSummary:    summary,
		TempoBands:        tempoHistogram(valuesByFeature["tempo"]),
		EnergyDanceMatrix: energyDanceMatrix(energies, dances),
		TasteAxes:         tasteAxes(summary),
		TrackCount:        len(tracks),
	}
}

func validNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

func normalize(name string, v float64) float64 {
	if name == "tempo" {
		return math.Max(0, v)
	}
	return clamp(v, 0, 1)
}

func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	ordered := append([]float64(nil), values...)
	sort.Float64s(ordered)

	return Summary{
		Count: len(values),
		Mean:  mean,
		Std:   math.Sqrt(variance),
		Min:   ordered[0],
		Max:   ordered[len(ordered)-1],
		P10:   quantile(ordered, 0.10),
		P50:   quantile(ordered, 0.50),
		P90:   quantile(ordered, 0.90),
	}
}

// quantile interpolates linearly between the surrounding order statistics.
// The input must already be sorted.
func quantile(ordered []float64, q float64) float64 {
	if len(ordered) == 0 {
		return 0
	}
	if len(ordered) == 1 {
		return ordered[0]
	}
	position := float64(len(ordered)-1) * q
	lower := math.Floor(position)
	upper := math.Ceil(position)
	if lower == upper {
		return ordered[int(lower)]
	}
	weight := position - lower
	return ordered[int(lower)]*(1-weight) + ordered[int(upper)]*weight
}

func tempoHistogram(tempos []float64) []TempoBand {
	total := len(tempos)
	bands := make([]TempoBand, 0, len(tempoBandSpecs))
	for _, spec := range tempoBandSpecs {
		count := 0
		for _, v := range tempos {
			if v >= spec.low && v < spec.high {
				count++
			}
		}
		band := TempoBand{Band: spec.label, Count: count}
		if total > 0 {
			band.Proportion = float64(count) / float64(total)
		}
		bands = append(bands, band)
	}
	return bands
}

func bucket3(v float64) string {
	switch {
	case v < 0.33:
		return "low"
	case v < 0.66:
		return "med"
	default:
		return "high"
	}
}

func energyDanceMatrix(energies, dances []float64) map[string]map[string]int {
	matrix := map[string]map[string]int{
		"low":  {"low": 0, "med": 0, "high": 0},
		"med":  {"low": 0, "med": 0, "high": 0},
		"high": {"low": 0, "med": 0, "high": 0},
	}
	for i := range energies {
		matrix[bucket3(energies[i])][bucket3(dances[i])]++
	}
	return matrix
}

// tasteAxes projects the feature means onto four interpretable 0..1 axes.
func tasteAxes(summary map[string]Summary) map[string]float64 {
	energy := summary["energy"].Mean
	tempo := summary["tempo"].Mean
	valence := summary["valence"].Mean
	acousticness := summary["acousticness"].Mean
	instrumentalness := summary["instrumentalness"].Mean
	speechiness := summary["speechiness"].Mean

	tempoNorm := clamp((tempo-60)/140, 0, 1)
	vocalToInstrumental := 0.5
	if denom := speechiness + instrumentalness; denom > 0 {
		vocalToInstrumental = speechiness / denom
	}

	return map[string]float64{
		"chill_to_hype":         clamp((energy+tempoNorm)/2, 0, 1),
		"dark_to_happy":         clamp(valence, 0, 1),
		"organic_to_synthetic":  clamp(1-(acousticness+instrumentalness)/2, 0, 1),
		"vocal_to_instrumental": clamp(vocalToInstrumental, 0, 1),
	}
}
