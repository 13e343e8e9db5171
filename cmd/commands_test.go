/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"testing"
	"time"

	"github.com/fnino-dev/spotifygpt/internal/spotify"
)

func TestTrackIDFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"spotify:album:abc", ""},
		{"not-a-uri", ""},
		{"", ""},
	}
	for _, tc := range tests {
		got := trackIDFromURI(tc.uri)
		if got != tc.want {
			t.Errorf("trackIDFromURI(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestInRange(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	if !inRange(day, time.Time{}, time.Time{}) {
		t.Fatalf("Expected unbounded range to include %v", day)
	}
	if !inRange(day, start, end) {
		t.Fatalf("Expected [%v, %v) to include %v", start, end, day)
	}
	if inRange(end, start, end) {
		t.Fatalf("Expected end %v to be excluded", end)
	}
	if inRange(start.AddDate(0, 0, -1), start, end) {
		t.Fatalf("Expected day before start to be excluded")
	}
}

func TestFormatEvidence(t *testing.T) {
	got := formatEvidence(map[string]string{
		"rate":         "0.500",
		"trailing_avg": "0.100",
	})
	want := "rate=0.500 trailing_avg=0.100"
	if got != want {
		t.Fatalf("formatEvidence = %q, want %q", got, want)
	}

	if got := formatEvidence(nil); got != "" {
		t.Fatalf("formatEvidence(nil) = %q, want empty", got)
	}
}

func TestPlaysToImport(t *testing.T) {
	track := spotify.Track{
		Name:       "Song",
		Artist:     "Artist",
		URI:        "spotify:track:abc",
		DurationMs: 240000,
	}
	plays := []spotify.Play{
		{Track: track, PlayedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		{Track: track, PlayedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
	}

	result := playsToImport(plays)
	if len(result.Tracks) != 1 {
		t.Fatalf("Expected 1 deduplicated track, got %d", len(result.Tracks))
	}
	if len(result.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result.Events))
	}
	if result.Events[0].PlayedMs != -1 {
		t.Fatalf("Expected unknown played duration (-1), got %d", result.Events[0].PlayedMs)
	}
	if result.Events[0].DedupKey == result.Events[1].DedupKey {
		t.Fatalf("Expected distinct dedup keys for distinct play times")
	}

	again := playsToImport(plays)
	if again.Events[0].DedupKey != result.Events[0].DedupKey {
		t.Fatalf("Expected dedup keys to be stable across runs")
	}
}
