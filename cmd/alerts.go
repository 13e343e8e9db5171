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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
)

var alertType string

var alertsCmd = &cobra.Command{
	Use:   "alerts [from] [to (optional)]",
	Short: "Shows advisory findings about listening behavior",
	Long: `Prints the alerts the pattern detector raised: skip-rate spikes,
ingestion gaps, taste drift, fixation and erratic listening hours.
Optional date arguments restrict the windows shown.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := printAlerts(args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.Flags().StringVar(&alertType, "type", "", "Only show alerts of this type")
}

func printAlerts(args []string) error {
	start, end, err := parseDateRangeFromArgs(args)
	if err != nil {
		return err
	}

	result, err := runStoredPipeline()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Window", "Type", "Detail", "Evidence"})
	rows := 0
	for _, report := range result.Patterns {
		if report.Kind != pipeline.KindAlert || !inRange(report.Start, start, end) {
			continue
		}
		if alertType != "" && report.Alert.Type != alertType {
			continue
		}
		table.Append([]string{
			report.Start.Format("2006-01-02"),
			report.Alert.Type,
			report.Alert.Detail,
			formatEvidence(report.Alert.Evidence),
		})
		rows++
	}
	if rows == 0 {
		fmt.Println("No alerts")
		return nil
	}
	table.Render()
	return nil
}

func formatEvidence(evidence map[string]string) string {
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+evidence[k])
	}
	return strings.Join(parts, " ")
}
