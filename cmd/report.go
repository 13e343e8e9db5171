package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generates a readable behavior report",
	Long:  `Runs the analysis pipeline and prints the behavior profile as YAML, which reads better than the JSON snapshot when skimming by hand.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runReport()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport() error {
	result, err := runStoredPipeline()
	if err != nil {
		return err
	}
	if result.Snapshot.Classifications.Total == 0 {
		return fmt.Errorf("no events stored. Run an import or sync first")
	}

	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	err = encoder.Encode(result.Snapshot)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	return nil
}
