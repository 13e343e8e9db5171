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
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fnino-dev/spotifygpt/internal/ingest"
	"github.com/fnino-dev/spotifygpt/internal/spotify"
	"github.com/fnino-dev/spotifygpt/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetches recently played tracks from the Spotify API",
	Long: `Pulls the recently-played history since the newest stored event and
stores the plays as api-sync events. Run authorize first to store a
refresh token.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSync(cmd.Context())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	client, err := authorizedClient(ctx, db)
	if err != nil {
		return err
	}

	after, err := db.LatestEventTime()
	if err != nil {
		return fmt.Errorf("finding sync cursor: %w", err)
	}

	plays, err := client.RecentlyPlayed(ctx, after)
	if err != nil {
		return fmt.Errorf("fetching recently played: %w", err)
	}

	result := playsToImport(plays)
	inserted, err := persistImport(db, "sync", "api-sync", result)
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d new plays (%d fetched)\n", inserted, len(plays))
	return nil
}

// authorizedClient builds an API client from the refresh_token flag or the
// stored token.
func authorizedClient(ctx context.Context, db *store.Store) (*spotify.Client, error) {
	refreshToken := viper.GetString("refresh_token")
	if refreshToken == "" {
		var err error
		refreshToken, err = db.GetRefreshToken()
		if err != nil {
			return nil, fmt.Errorf("loading refresh token: %w", err)
		}
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored - run authorize first")
	}

	clientID := viper.GetString("client_id")
	clientSecret := viper.GetString("client_secret")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("client_id and client_secret are required")
	}

	return spotify.NewAuthorized(ctx, clientID, clientSecret, refreshToken), nil
}

func playsToImport(plays []spotify.Play) *ingest.Result {
	result := &ingest.Result{RowsSeen: len(plays)}
	seenTracks := make(map[string]bool)
	for _, play := range plays {
		key := store.TrackKey(play.Track.Name, play.Track.Artist)
		if !seenTracks[key] {
			seenTracks[key] = true
			result.Tracks = append(result.Tracks, store.Track{
				Key:         key,
				Name:        play.Track.Name,
				Artist:      play.Track.Artist,
				Album:       play.Track.Album,
				SpotifyURI:  play.Track.URI,
				DurationMs:  play.Track.DurationMs,
				HasDuration: play.Track.DurationMs > 0,
			})
		}
		result.Events = append(result.Events, store.Event{
			TrackKey:   key,
			Timestamp:  play.PlayedAt,
			PlayedMs:   -1,
			Source:     "api-sync",
			PlaylistID: play.PlaylistID,
			DedupKey: ingest.DedupKey("api-sync", play.PlayedAt.Format("2006-01-02T15:04:05.000Z07:00"),
				play.Track.Name, play.Track.Artist, strconv.FormatInt(play.Track.DurationMs, 10)),
		})
	}
	return result
}
