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
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
)

var weeklyRadarCmd = &cobra.Command{
	Use:   "weekly-radar [from] [to (optional)]",
	Short: "Shows the top tracks per week",
	Long: `Prints the weekly top-N ranking with the week-over-week change in
total plays. Optional date arguments restrict the weeks shown.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printWeeklyRadar(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(weeklyRadarCmd)
}

func printWeeklyRadar(args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}

	result, err := runStoredPipeline()
	if err != nil {
		return err
	}

	tracks := trackNamesFromStore()

	for _, report := range result.Patterns {
		if report.Kind != pipeline.KindWeeklyRadar || !inRange(report.Start, start, end) {
			continue
		}
		fmt.Printf("Week of %s (%+d plays vs previous week)\n",
			report.Start.Format("2006-01-02"), report.Radar.DeltaPlays)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"Rank", "Track", "Plays"})
		for _, entry := range report.Radar.Tracks {
			table.Append([]string{
				strconv.Itoa(entry.Rank),
				trackLabel(tracks, entry.TrackID),
				strconv.Itoa(entry.Plays),
			})
		}
		table.Render()
		fmt.Println()
	}
	return nil
}

// inRange checks a window start against an optional [start, end) filter.
func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

// trackNamesFromStore loads the track set for display names. Failures fall
// back to raw ids rather than aborting a report.
func trackNamesFromStore() pipeline.TrackSet {
	db, err := openStore()
	if err != nil {
		return nil
	}
	defer db.Close()

	tracks, err := db.Tracks()
	if err != nil {
		return nil
	}
	return tracks
}

func trackLabel(tracks pipeline.TrackSet, trackID string) string {
	if track, ok := tracks[trackID]; ok && track.Name != "" {
		return fmt.Sprintf("%s - %s", track.Artist, track.Name)
	}
	return trackID
}
