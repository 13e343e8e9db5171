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

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fnino-dev/spotifygpt/internal/dna"
)

var dnaAsJSON bool

var musicalDnaCmd = &cobra.Command{
	Use:   "musical-dna",
	Short: "Shows the musical DNA profile of the library",
	Long: `Summarizes the stored audio features: per-feature distribution
statistics, a tempo histogram, the energy/danceability matrix and the
derived taste axes. Run backfill-features first to populate features.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := printMusicalDna()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(musicalDnaCmd)
	musicalDnaCmd.Flags().BoolVar(&dnaAsJSON, "json", false, "Write the profile as JSON instead of tables")
}

func printMusicalDna() error {
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	features, err := db.AudioFeatures()
	if err != nil {
		return fmt.Errorf("loading audio features: %w", err)
	}
	if len(features) == 0 {
		fmt.Println("No audio features stored. Run backfill-features first.")
		return nil
	}

	profile := dna.Compute(features)

	if dnaAsJSON {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("serializing profile: %w", err)
		}
		os.Stdout.Write(append(data, '\n'))
		return nil
	}

	fmt.Printf("Musical DNA across %d tracks\n\n", profile.TrackCount)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Feature", "Count", "Mean", "Std", "P10", "P50", "P90"})
	for _, name := range dna.FeatureNames {
		s := profile.FeatureSummary[name]
		table.Append([]string{
			name,
			strconv.Itoa(s.Count),
			formatAxis(s.Mean),
			formatAxis(s.Std),
			formatAxis(s.P10),
			formatAxis(s.P50),
			formatAxis(s.P90),
		})
	}
	table.Render()

	fmt.Println("\nTempo bands:")
	for _, band := range profile.TempoBands {
		fmt.Printf("  %-8s %4d (%.0f%%)\n", band.Band, band.Count, band.Proportion*100)
	}

	fmt.Println("\nEnergy x danceability:")
	fmt.Println("              dance-low  dance-med  dance-high")
	for _, energy := range []string{"low", "med", "high"} {
		row := profile.EnergyDanceMatrix[energy]
		fmt.Printf("  energy-%-4s %9d  %9d  %10d\n", energy, row["low"], row["med"], row["high"])
	}

	fmt.Println("\nTaste axes:")
	for _, axis := range []string{"chill_to_hype", "dark_to_happy", "organic_to_synthetic", "vocal_to_instrumental"} {
		fmt.Printf("  %-22s %s\n", axis, formatAxis(profile.TasteAxes[axis]))
	}
	return nil
}

func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
