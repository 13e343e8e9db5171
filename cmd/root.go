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

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
	"github.com/fnino-dev/spotifygpt/internal/store"
)

var cfgFile string
var databasePath string
var clientID string
var clientSecret string
var smtpUsername string
var smtpPassword string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotifygpt",
	Short: "Analyzes Spotify listening history into a behavior profile",
	Long: `Imports listening history from account exports and the Spotify API,
classifies plays, aggregates metrics and synthesizes a reproducible
behavior profile snapshot.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.spotifygpt.yaml)")

	rootCmd.PersistentFlags().StringVarP(
		&databasePath, "database", "d", "./spotifygpt.db", "Path to the SQLite database")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().StringVar(&clientID, "client_id", "", "Spotify application client id")
	viper.BindPFlag("client_id", rootCmd.PersistentFlags().Lookup("client_id"))

	rootCmd.PersistentFlags().StringVar(&clientSecret, "client_secret", "", "Spotify application client secret")
	viper.BindPFlag("client_secret", rootCmd.PersistentFlags().Lookup("client_secret"))

	rootCmd.PersistentFlags().String("refresh_token", "", "OAuth refresh token, overriding the stored one")
	viper.BindPFlag("refresh_token", rootCmd.PersistentFlags().Lookup("refresh_token"))

	rootCmd.PersistentFlags().String("sendgrid_api_key", "", "SendGrid API key for authorization emails")
	viper.BindPFlag("sendgrid_api_key", rootCmd.PersistentFlags().Lookup("sendgrid_api_key"))

	rootCmd.PersistentFlags().Int64("threshold-ms", pipeline.DefaultThresholdMs, "Play duration below which an event counts as a skip")
	viper.BindPFlag("threshold-ms", rootCmd.PersistentFlags().Lookup("threshold-ms"))

	rootCmd.PersistentFlags().Int64("completion-epsilon-ms", pipeline.DefaultCompletionEpsilonMs, "Tolerance when comparing played duration against track duration")
	viper.BindPFlag("completion-epsilon-ms", rootCmd.PersistentFlags().Lookup("completion-epsilon-ms"))

	rootCmd.PersistentFlags().Int64("tolerance-ms", pipeline.DefaultToleranceMs, "Cross-source merge window for reconciliation")
	viper.BindPFlag("tolerance-ms", rootCmd.PersistentFlags().Lookup("tolerance-ms"))

	rootCmd.PersistentFlags().Int("top-n", pipeline.DefaultTopN, "Number of tracks in per-window rankings")
	viper.BindPFlag("top-n", rootCmd.PersistentFlags().Lookup("top-n"))

	rootCmd.PersistentFlags().StringToString("mode-map", nil, "Playlist id to mode label mapping (e.g. pl-1=focus,pl-2=workout)")
	viper.BindPFlag("mode-map", rootCmd.PersistentFlags().Lookup("mode-map"))

	rootCmd.PersistentFlags().StringVar(&smtpUsername, "smtp_username", "", "SMTP username")
	viper.BindPFlag("smtp_username", rootCmd.PersistentFlags().Lookup("smtp_username"))

	rootCmd.PersistentFlags().StringVar(&smtpPassword, "smtp_password", "", "SMTP password")
	viper.BindPFlag("smtp_password", rootCmd.PersistentFlags().Lookup("smtp_password"))

	var from string
	rootCmd.PersistentFlags().StringVar(&from, "from", "", "From email address")
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".spotifygpt" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".spotifygpt")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.Flags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

// pipelineConfig assembles the pipeline configuration from flags and config
// file values.
func pipelineConfig() pipeline.Config {
	cfg := pipeline.Config{
		ThresholdMs:         viper.GetInt64("threshold-ms"),
		CompletionEpsilonMs: viper.GetInt64("completion-epsilon-ms"),
		ToleranceMs:         viper.GetInt64("tolerance-ms"),
		TopN:                viper.GetInt("top-n"),
	}
	if modeMap := viper.GetStringMapString("mode-map"); len(modeMap) > 0 {
		cfg.ModePlaylists = modeMap
	}
	return cfg
}

func openStore() (*store.Store, error) {
	return store.New(viper.GetString("database"))
}
