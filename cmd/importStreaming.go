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

var importStreamingCmd = &cobra.Command{
	Use:   "import-streaming <folder>",
	Short: "Imports a basic account export (StreamingHistory*.json)",
	Long: `Reads the StreamingHistory*.json files from a Spotify account data
export and stores the plays as streamed-log events. Re-importing the same
folder is a no-op.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runImportStreaming(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importStreamingCmd)
}

func runImportStreaming(folder string) error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	result, err := ingest.ParseStreamingDir(folder)
	if err != nil {
		return fmt.Errorf("parsing streaming history: %w", err)
	}

	inserted, err := persistImport(db, "import", "streamed-log", result)
	if err != nil {
		return err
	}

	printImportSummary(len(result.Files), result.RowsSeen, inserted, result.Warnings)
	return nil
}
