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
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var backfillFeaturesCmd = &cobra.Command{
	Use:   "backfill-features",
	Short: "Fetches audio features for tracks that have none",
	Long: `Looks up every stored track that has a Spotify URI but no audio
features yet and fetches the feature vectors from the API. Durations
learned here also unlock classification for tracks first seen in the
basic export.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runBackfillFeatures(cmd.Context())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(backfillFeaturesCmd)
}

func runBackfillFeatures(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	client, err := authorizedClient(ctx, db)
	if err != nil {
		return err
	}

	keys, err := db.TracksMissingFeatures()
	if err != nil {
		return fmt.Errorf("finding backfill worklist: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("All tracks already have audio features")
		return nil
	}

	// The API wants Spotify track ids, the store keys tracks by name hash.
	// Map one to the other via the stored URIs.
	keyByID := make(map[string]string, len(keys))
	var ids []string
	for _, key := range keys {
		uri, err := db.TrackURI(key)
		if err != nil {
			return fmt.Errorf("resolving track uri: %w", err)
		}
		id := trackIDFromURI(uri)
		if id == "" {
			continue
		}
		keyByID[id] = key
		ids = append(ids, id)
	}

	features, err := client.AudioFeatures(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetching audio features: %w", err)
	}

	fetchedAt := time.Now().UTC()
	saved := 0
	for _, f := range features {
		key, ok := keyByID[f.TrackID]
		if !ok {
			continue
		}
		if err := db.SaveAudioFeatures(key, f.Features, fetchedAt); err != nil {
			return fmt.Errorf("saving features: %w", err)
		}
		if f.DurationMs > 0 {
			if err := db.SetTrackDuration(key, f.DurationMs); err != nil {
				return fmt.Errorf("saving duration: %w", err)
			}
		}
		saved++
	}

	fmt.Printf("Backfilled features for %d of %d tracks\n", saved, len(keys))
	return nil
}

// trackIDFromURI extracts the id from spotify:track:<id>.
func trackIDFromURI(uri string) string {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 || parts[1] != "track" {
		return ""
	}
	return parts[2]
}
