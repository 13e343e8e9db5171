package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRecentlyPlayed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/player/recently-played" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("after"); got != "1709287200000" {
			t.Errorf("after = %s, want unix millis cursor", got)
		}
		fmt.Fprint(w, `{
			"items": [
				{"track": {"id": "t2", "name": "Second", "uri": "spotify:track:t2", "duration_ms": 200000,
				           "album": {"name": "Album"}, "artists": [{"name": "Artist"}]},
				 "played_at": "2024-03-01T11:00:00Z",
				 "context": {"type": "playlist", "uri": "spotify:playlist:pl-1"}},
				{"track": {"id": "t1", "name": "First", "uri": "spotify:track:t1", "duration_ms": 180000,
				           "album": {"name": "Album"}, "artists": [{"name": "Artist"}]},
				 "played_at": "2024-03-01T10:30:00Z",
				 "context": {"type": "album", "uri": "spotify:album:a1"}}
			]
		}`)
	}))
	defer server.Close()

	client := New(server.Client(), server.URL)
	plays, err := client.RecentlyPlayed(context.Background(), time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RecentlyPlayed: %v", err)
	}

	if len(plays) != 2 {
		t.Fatalf("plays = %d, want 2", len(plays))
	}
	if plays[0].Track.ID != "t1" {
		t.Errorf("first play = %s, want oldest first", plays[0].Track.ID)
	}
	if plays[1].PlaylistID != "pl-1" {
		t.Errorf("playlist id = %q, want extracted from playlist context", plays[1].PlaylistID)
	}
	if plays[0].PlaylistID != "" {
		t.Errorf("album context must not yield a playlist id, got %q", plays[0].PlaylistID)
	}
	if plays[0].Track.Artist != "Artist" || plays[0].Track.DurationMs != 180000 {
		t.Errorf("track = %+v, want mapped metadata", plays[0].Track)
	}
}

func TestSavedTracksPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"items": [{"added_at": "2024-02-01T00:00:00Z", "track": {"id": "t2", "name": "B", "artists": [{"name": "X"}]}}], "next": ""}`)
			return
		}
		fmt.Fprintf(w, `{"items": [{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t1", "name": "A", "artists": [{"name": "X"}]}}], "next": "%s/me/tracks?page=2"}`, server.URL)
	}))
	defer server.Close()

	client := New(server.Client(), server.URL)
	saved, err := client.SavedTracks(context.Background())
	if err != nil {
		t.Fatalf("SavedTracks: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved = %d, want both pages", len(saved))
	}
	if saved[1].Track.ID != "t2" {
		t.Errorf("second page track = %s, want t2", saved[1].Track.ID)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"items": []}`)
	}))
	defer server.Close()

	client := New(server.Client(), server.URL)
	if _, err := client.Playlists(context.Background()); err != nil {
		t.Fatalf("Playlists after retries: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 2 failures then success", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.Client(), server.URL)
	if _, err := client.Playlists(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want no retry on auth failure", got)
	}
}

func TestAudioFeaturesSkipsMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"audio_features": [
			{"id": "t1", "danceability": 0.5, "energy": 0.8, "valence": 0.6, "tempo": 120,
			 "acousticness": 0.1, "instrumentalness": 0.0, "liveness": 0.2, "speechiness": 0.05,
			 "duration_ms": 180000},
			null
		]}`)
	}))
	defer server.Close()

	client := New(server.Client(), server.URL)
	features, err := client.AudioFeatures(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("AudioFeatures: %v", err)
	}
	if len(features) != 1 {
		t.Fatalf("features = %d, want null entries skipped", len(features))
	}
	if features[0].TrackID != "t1" || features[0].Features.Tempo != 120 || features[0].DurationMs != 180000 {
		t.Errorf("features = %+v, want mapped vector", features[0])
	}
}

func TestAuthCodeURL(t *testing.T) {
	u := AuthCodeURL("client-id", "secret", "http://localhost:8080/callback", "state-1")
	for _, want := range []string{"accounts.spotify.com", "client_id=client-id", "state=state-1", "user-read-recently-played"} {
		if !strings.Contains(u, want) {
			t.Errorf("auth url %q missing %q", u, want)
		}
	}
}
