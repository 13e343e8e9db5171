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
	"net/smtp"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fnino-dev/spotifygpt/internal/pipeline"
)

type SendEmailConfig struct {
	From         string
	To           string
	DryRun       bool
	SMTPUsername string
	SMTPPassword string
}

var emailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Sends a behavior summary email",
	Long: `Runs the analysis pipeline and emails a summary of the latest weekly
metrics and alerts to the given address.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := SendEmailConfig{
			From:         viper.GetString("from"),
			To:           args[0],
			DryRun:       viper.GetBool("dryRun"),
			SMTPUsername: viper.GetString("smtp_username"),
			SMTPPassword: viper.GetString("smtp_password"),
		}
		err := sendEmail(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))
}

func sendEmail(config SendEmailConfig) error {
	result, err := runStoredPipeline()
	if err != nil {
		return err
	}
	if result.Snapshot.Classifications.Total == 0 {
		return fmt.Errorf("no events stored. Run an import or sync first")
	}

	subject, out := generateEmailContent(result)

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, out)
		return nil
	}

	if config.SMTPUsername == "" || config.SMTPPassword == "" {
		return fmt.Errorf("smtp_username and smtp_password must be set in order to send emails")
	}

	msg := "From: spotifygpt <" + config.From + ">\r\n" +
		"To: " + config.To + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		out

	auth := smtp.PlainAuth("", config.SMTPUsername, config.SMTPPassword, "smtp.gmail.com")
	err = smtp.SendMail("smtp.gmail.com:587", auth, config.From, []string{config.To}, []byte(msg))
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}

	return nil
}

func generateEmailContent(result *pipeline.Result) (subject string, body string) {
	out := `
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`
	tracks := trackNamesFromStore()

	out += "<h2>Weekly listening</h2>\n"
	out += "<table>\n<thead><tr><th>Week</th><th>Plays</th><th>Skips</th><th>Skip rate</th><th>Unique tracks</th></tr></thead>\n<tbody>\n"
	weekly := result.Weekly
	if len(weekly) > 4 {
		weekly = weekly[len(weekly)-4:]
	}
	for _, window := range weekly {
		out += fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%d</td><td>%.2f</td><td>%d</td></tr>\n",
			window.Start.Format("2006-01-02"), window.Plays, window.Skips, window.SkipRate, window.UniqueTracks)
	}
	out += "</tbody>\n</table>\n"

	alertCount := 0
	for _, report := range result.Patterns {
		if report.Kind != pipeline.KindAlert {
			continue
		}
		if alertCount == 0 {
			out += "<h2>Alerts</h2>\n<ul>\n"
		}
		alertCount++
		out += fmt.Sprintf("<li>%s: %s (%s)</li>\n",
			report.Start.Format("2006-01-02"), report.Alert.Type, report.Alert.Detail)
	}
	if alertCount > 0 {
		out += "</ul>\n"
	} else {
		out += "<div>No alerts.</div>\n"
	}

	if len(result.Patterns) > 0 {
		last := result.Patterns[len(result.Patterns)-1]
		for i := len(result.Patterns) - 1; i >= 0; i-- {
			if result.Patterns[i].Kind == pipeline.KindWeeklyRadar {
				last = result.Patterns[i]
				break
			}
		}
		if last.Kind == pipeline.KindWeeklyRadar {
			out += fmt.Sprintf("<h2>Top tracks, week of %s</h2>\n<ol>\n", last.Start.Format("2006-01-02"))
			for _, entry := range last.Radar.Tracks {
				out += fmt.Sprintf("<li>%s (%d plays)</li>\n", trackLabel(tracks, entry.TrackID), entry.Plays)
			}
			out += "</ol>\n"
		}
	}

	out += "  </body>\n</html>\n"

	subject = fmt.Sprintf("Listening summary through %s", result.Snapshot.GeneratedAt.Format("2006-01-02"))
	return subject, out
}
