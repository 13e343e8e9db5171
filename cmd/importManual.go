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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fnino-dev/spotifygpt/internal/ingest"
)

var likedPath string
var playlistsPath string

var importManualCmd = &cobra.Command{
	Use:   "import-manual",
	Short: "Imports liked songs and playlist exports",
	Long: `Reads ad-hoc JSON exports of liked songs and playlists. Liked entries
with an added_at timestamp become manual events; everything else only
enriches the track table.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runImportManual(likedPath, playlistsPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importManualCmd)
	importManualCmd.Flags().StringVar(&likedPath, "liked", "", "Path to the liked songs JSON export")
	importManualCmd.Flags().StringVar(&playlistsPath, "playlists", "", "Path to the playlists JSON export")
}

func runImportManual(liked, playlists string) error {
	if liked == "" && playlists == "" {
		return fmt.Errorf("nothing to import: pass --liked and/or --playlists")
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	result, err := ingest.ParseManual(liked, playlists)
	if err != nil {
		return fmt.Errorf("parsing manual export: %w", err)
	}

	inserted, err := persistImport(db, "import", "manual", &result.Result)
	if err != nil {
		return err
	}

	printImportSummary(len(result.Files), result.RowsSeen, inserted, result.Warnings)
	for _, name := range result.Playlists {
		fmt.Printf("Found playlist: %s\n", name)
	}
	return nil
}
