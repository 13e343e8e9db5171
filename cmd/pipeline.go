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

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
	"github.com/fnino-dev/spotifygpt/internal/store"
)

var snapshotOutput string
var showWarnings bool

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Runs the full analysis pipeline and writes a snapshot",
	Long: `Reconciles all stored events, classifies them, aggregates daily and
weekly metrics, detects patterns and writes the behavior profile
snapshot. The same database contents always produce byte-identical
output.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runPipeline(snapshotOutput)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", "Write the snapshot to this file instead of stdout")
	pipelineCmd.Flags().BoolVar(&showWarnings, "warnings", false, "Print every warning instead of the bounded sample")
}

func runPipeline(output string) error {
	result, err := runStoredPipeline()
	if err != nil {
		return err
	}

	data, err := result.Snapshot.MarshalStable()
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	if output == "" {
		os.Stdout.Write(data)
	} else {
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		fmt.Printf("Wrote snapshot to %s\n", output)
	}

	if showWarnings {
		for _, warning := range result.Warnings {
			fmt.Fprintln(os.Stderr, "Warning:", warning)
		}
	}
	return nil
}

// runStoredPipeline loads everything from the database and executes the
// pipeline with the configured parameters.
func runStoredPipeline() (*pipeline.Result, error) {
	db, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	return runPipelineOn(db)
}

func runPipelineOn(db *store.Store) (*pipeline.Result, error) {
	rawBySource, err := db.EventsBySource()
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	tracks, err := db.Tracks()
	if err != nil {
		return nil, fmt.Errorf("loading tracks: %w", err)
	}
	features, err := db.AudioFeatures()
	if err != nil {
		return nil, fmt.Errorf("loading audio features: %w", err)
	}

	result, err := pipeline.Run(pipeline.Input{
		RawBySource: rawBySource,
		Tracks:      tracks,
		Features:    features,
	}, pipelineConfig())
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}
	return result, nil
}
