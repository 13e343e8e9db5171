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

var importGdprCmd = &cobra.Command{
	Use:   "import-gdpr <path>",
	Short: "Imports a full privacy export (endsong*.json)",
	Long: `Reads the endsong*.json files from a full Spotify privacy export and
stores the plays as gdpr-export events. The path may be the extracted
directory or the downloaded zip archive.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runImportGdpr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importGdprCmd)
}

func runImportGdpr(path string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	result, err := ingest.ParseGDPR(path)
	if err != nil {
		return fmt.Errorf("parsing privacy export: %w", err)
	}

	inserted, err := persistImport(db, "import", "gdpr-export", result)
	if err != nil {
		return err
	}

	printImportSummary(len(result.Files), result.RowsSeen, inserted, result.Warnings)
	return nil
}
