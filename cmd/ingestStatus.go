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
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ingestStatusCmd = &cobra.Command{
	Use:   "ingest-status",
	Short: "Shows past imports and per-source event counts",
	Run: func(cmd *cobra.Command, args []string) {
		err := printIngestStatus()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestStatusCmd)
}

func printIngestStatus() error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	counts, err := db.EventCountBySource()
	if err != nil {
		return err
	}
	sources := make([]string, 0, len(counts))
	for source := range counts {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	fmt.Println("Events by source:")
	listing := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	total := 0
	for _, source := range sources {
		fmt.Fprintf(listing, "  %s\t%d\n", source, counts[source])
		total += counts[source]
	}
	fmt.Fprintf(listing, "  total\t%d\n", total)
	listing.Flush()

	first, last, err := db.EventTimeRange()
	if err != nil {
		return err
	}
	if !first.IsZero() {
		fmt.Printf("\nListening range: %s to %s\n",
			first.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	runs, err := db.IngestRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\nNo ingest runs recorded")
		return nil
	}

	fmt.Println("\nIngest runs:")
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Started", "Mode", "Source", "Files", "Seen", "Inserted", "Status"})
	for _, run := range runs {
		status := "running"
		if run.Finished {
			status = "finished"
		}
		table.Append([]string{
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Mode,
			run.Source,
			strconv.Itoa(run.FilesCount),
			strconv.Itoa(run.RowsSeen),
			strconv.Itoa(run.RowsInserted),
			status,
		})
	}
	table.Render()
	return nil
}
