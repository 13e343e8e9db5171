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
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
)

var dailyModeCmd = &cobra.Command{
	Use:   "daily-mode [from] [to (optional)]",
	Short: "Shows the dominant listening mode per day",
	Long: `Prints the dominant mode for each day where mode-tagged plays exist.
Modes come from the configured playlist-to-mode map. Optional date
arguments restrict the days shown.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printDailyMode(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dailyModeCmd)
}

func printDailyMode(args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}

	result, err := runStoredPipeline()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Day", "Dominant Mode", "Mode Plays", "Total Plays"})
	rows := 0
	for _, report := range result.Patterns {
		if report.Kind != pipeline.KindDailyModeSummary || !inRange(report.Start, start, end) {
			continue
		}
		table.Append([]string{
			report.Start.Format("2006-01-02"),
			report.ModeSummary.DominantMode,
			strconv.Itoa(report.ModeSummary.ModeEvents),
			strconv.Itoa(report.ModeSummary.TotalEvents),
		})
		rows++
	}
	if rows == 0 {
		fmt.Println("No mode-tagged plays found")
		return nil
	}
	table.Render()
	return nil
}
