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
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fnino-dev/spotifygpt/internal/spotify"
)

var redirectURL string

var authorizeCmd = &cobra.Command{
	Use:   "authorize [email]",
	Short: "Obtains and stores a Spotify refresh token",
	Long: `Starts the OAuth flow for the configured Spotify application. With an
email argument the authorization link is sent via SendGrid; otherwise it
is printed. Paste the redirected URL's code back in to finish.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runAuthorize(cmd.Context(), args)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(authorizeCmd)
	authorizeCmd.Flags().StringVar(&redirectURL, "redirect_url", "http://localhost:8888/callback", "OAuth redirect URL registered with the application")
	viper.BindPFlag("redirect_url", authorizeCmd.Flags().Lookup("redirect_url"))
}

func runAuthorize(ctx context.Context, args []string) error {
	clientID := viper.GetString("client_id")
	clientSecret := viper.GetString("client_secret")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required")
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	state, err := randomState()
	if err != nil {
		return err
	}
	authURL := spotify.AuthCodeURL(clientID, clientSecret, viper.GetString("redirect_url"), state)

	if len(args) == 1 {
		if err := sendAuthEmail(args[0], authURL); err != nil {
			return err
		}
		fmt.Println("Sent authorization email")
	} else {
		fmt.Println("Visit this URL to authorize:")
		fmt.Println(authURL)
	}

	fmt.Print("Paste the code from the redirect URL: ")
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading code: %w", err)
	}
	code = strings.TrimSpace(code)

	token, err := spotify.Exchange(ctx, clientID, clientSecret, viper.GetString("redirect_url"), code)
	if err != nil {
		return err
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("authorization succeeded but no refresh token was returned")
	}

	if err := db.SetRefreshToken(token.RefreshToken); err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	fmt.Println("Successfully authorized")
	return nil
}

func sendAuthEmail(toAddress, authURL string) error {
	fromAddress := viper.GetString("from")
	if fromAddress == "" {
		return fmt.Errorf("required flag \"from\" not set")
	}

	from := mail.NewEmail("spotifygpt", fromAddress)
	to := mail.NewEmail(toAddress, toAddress)
	subject := "Authorize spotifygpt"
	bodyText := "Click here to authorize: " + authURL
	message := mail.NewSingleEmail(from, subject, to, bodyText, bodyText)
	client := sendgrid.NewSendClient(viper.GetString("sendgrid_api_key"))
	if _, err := client.Send(message); err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}
	return nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
