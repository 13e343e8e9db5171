// Package spotify is a minimal client for the parts of the Spotify Web API
// the sync and backfill commands need. Every call is rate limited and
// retried on transient failures.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/fnino-dev/spotifygpt/internal/dna"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	authURL        = "https://accounts.spotify.com/authorize"
	tokenURL       = "https://accounts.spotify.com/api/token"
)

// Scopes covers recently played history, the library and playlists.
var Scopes = []string{
	"user-read-recently-played",
	"user-library-read",
	"playlist-read-private",
}

// Track is the track metadata a sync pulls from the API.
type Track struct {
	ID         string
	Name       string
	Artist     string
	Album      string
	URI        string
	DurationMs int64
}

// Play is one recently-played history entry.
type Play struct {
	Track      Track
	PlayedAt   time.Time
	PlaylistID string
}

// SavedTrack is one liked-library entry.
type SavedTrack struct {
	Track   Track
	AddedAt time.Time
}

// Playlist is a playlist reference.
type Playlist struct {
	ID   string
	Name string
}

// TrackFeatures pairs a track id with its audio feature vector.
type TrackFeatures struct {
	TrackID    string
	Features   dna.Features
	DurationMs int64
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// New constructs a client around an already-authorized HTTP client. Pass nil
// to use http.DefaultClient, and an empty baseURL for the real API.
func New(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

func oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// AuthCodeURL builds the URL the user visits to grant access.
func AuthCodeURL(clientID, clientSecret, redirectURL, state string) string {
	return oauthConfig(clientID, clientSecret, redirectURL).AuthCodeURL(state)
}

// Exchange trades an authorization code for a token. The refresh token in
// the result is what gets persisted.
func Exchange(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Token, error) {
	token, err := oauthConfig(clientID, clientSecret, redirectURL).Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// NewAuthorized builds a client whose transport refreshes access tokens from
// the stored refresh token as needed.
func NewAuthorized(ctx context.Context, clientID, clientSecret, refreshToken string) *Client {
	conf := oauthConfig(clientID, clientSecret, "")
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return New(oauth2.NewClient(ctx, source), "")
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("spotify: status %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return false
}

// getJSON performs a rate-limited GET with retries and decodes the response
// into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return fmt.Errorf("building request: %w", err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("calling %q: %w", rawURL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return &statusError{code: resp.StatusCode}
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.RetryIf(retryable),
		retry.Context(ctx),
	)
}

func mapTrack(t apiTrack) Track {
	track := Track{
		ID:         t.ID,
		Name:       t.Name,
		Album:      t.Album.Name,
		URI:        t.URI,
		DurationMs: t.DurationMs,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// playlistIDFromContext extracts the playlist id from a play context URI
// like spotify:playlist:37i9dQZF1DX5trt9i14X7j.
func playlistIDFromContext(ctx *apiContext) string {
	if ctx == nil || ctx.Type != "playlist" {
		return ""
	}
	parts := strings.Split(ctx.URI, ":")
	return parts[len(parts)-1]
}

// RecentlyPlayed returns history entries newer than after, oldest first.
// The API caps this endpoint at the most recent 50 plays.
func (c *Client) RecentlyPlayed(ctx context.Context, after time.Time) ([]Play, error) {
	q := url.Values{"limit": {"50"}}
	if !after.IsZero() {
		q.Set("after", fmt.Sprintf("%d", after.UnixMilli()))
	}

	var page recentlyPlayedPage
	if err := c.getJSON(ctx, c.baseURL+"/me/player/recently-played?"+q.Encode(), &page); err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	plays := make([]Play, 0, len(page.Items))
	for _, item := range page.Items {
		playedAt, err := time.Parse(time.RFC3339, item.PlayedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing played_at %q: %w", item.PlayedAt, err)
		}
		plays = append(plays, Play{
			Track:      mapTrack(item.Track),
			PlayedAt:   playedAt.UTC(),
			PlaylistID: playlistIDFromContext(item.Context),
		})
	}
	// Oldest first, so callers can append in order.
	for i, j := 0, len(plays)-1; i < j; i, j = i+1, j-1 {
		plays[i], plays[j] = plays[j], plays[i]
	}
	return plays, nil
}

// SavedTracks returns the full liked library, following pagination.
func (c *Client) SavedTracks(ctx context.Context) ([]SavedTrack, error) {
	var saved []SavedTrack
	next := c.baseURL + "/me/tracks?limit=50"
	for next != "" {
		var page savedTracksPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("fetching saved tracks: %w", err)
		}
		for _, item := range page.Items {
			addedAt, err := time.Parse(time.RFC3339, item.AddedAt)
			if err != nil {
				return nil, fmt.Errorf("parsing added_at %q: %w", item.AddedAt, err)
			}
			saved = append(saved, SavedTrack{Track: mapTrack(item.Track), AddedAt: addedAt.UTC()})
		}
		next = page.Next
	}
	return saved, nil
}

// Playlists returns the user's playlists, following pagination.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	next := c.baseURL + "/me/playlists?limit=50"
	for next != "" {
		var page playlistsPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("fetching playlists: %w", err)
		}
		for _, item := range page.Items {
			playlists = append(playlists, Playlist{ID: item.ID, Name: item.Name})
		}
		next = page.Next
	}
	return playlists, nil
}

// PlaylistTracks returns the tracks of one playlist, following pagination.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]Track, error) {
	var tracks []Track
	next := c.baseURL + "/playlists/" + url.PathEscape(playlistID) + "/tracks?limit=100"
	for next != "" {
		var page playlistTracksPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("fetching playlist %q tracks: %w", playlistID, err)
		}
		for _, item := range page.Items {
			tracks = append(tracks, mapTrack(item.Track))
		}
		next = page.Next
	}
	return tracks, nil
}

// AudioFeatures fetches feature vectors for up to 100 track ids per call.
// Tracks the API has no analysis for are omitted from the result.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) ([]TrackFeatures, error) {
	var out []TrackFeatures
	for start := 0; start < len(trackIDs); start += 100 {
		end := start + 100
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		var page audioFeaturesPage
		u := c.baseURL + "/audio-features?ids=" + url.QueryEscape(strings.Join(trackIDs[start:end], ","))
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching audio features: %w", err)
		}
		for _, f := range page.AudioFeatures {
			if f == nil {
				continue
			}
			out = append(out, TrackFeatures{
				TrackID:    f.ID,
				DurationMs: f.DurationMs,
				Features: dna.Features{
					Danceability:     f.Danceability,
					Energy:           f.Energy,
					Valence:          f.Valence,
					Tempo:            f.Tempo,
					Acousticness:     f.Acousticness,
					Instrumentalness: f.Instrumentalness,
					Liveness:         f.Liveness,
					Speechiness:      f.Speechiness,
				},
			})
		}
	}
	return out, nil
}
