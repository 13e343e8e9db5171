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

	"github.com/fnino-dev/spotifygpt/internal/ingest"
	"github.com/fnino-dev/spotifygpt/internal/store"
)

// persistImport stores an import result inside an ingest run, so the status
// command can account for every row later.
func persistImport(db *store.Store, mode, source string, result *ingest.Result) (int, error) {
	runID, err := db.StartIngestRun(mode, source)
	if err != nil {
		return 0, fmt.Errorf("starting ingest run: %w", err)
	}

	if err := db.UpsertTracks(result.Tracks); err != nil {
		return 0, fmt.Errorf("storing tracks: %w", err)
	}
	inserted, err := db.AddEvents(result.Events)
	if err != nil {
		return inserted, fmt.Errorf("storing events: %w", err)
	}

	if err := db.FinishIngestRun(runID, len(result.Files), result.RowsSeen, inserted); err != nil {
		return inserted, fmt.Errorf("finishing ingest run: %w", err)
	}
	return inserted, nil
}

func printImportSummary(files, seen, inserted int, warnings []string) {
	fmt.Printf("Imported %d of %d rows from %d files\n", inserted, seen, files)
	for _, warning := range warnings {
		fmt.Println("Warning:", warning)
	}
}
