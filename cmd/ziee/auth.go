package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Log in and manage the active session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and store the session locally",
	Long: `Authenticate against the server and store the session token locally.

The token is written to session.json in the data directory (and the
platform keychain where available) and attached to every later command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if username == "" {
			prompt := &survey.Input{Message: "Username or email:"}
			if err := survey.AskOne(prompt, &username, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("reading username: %w", err)
			}
		}
		if password == "" {
			prompt := &survey.Password{Message: "Password:"}
			if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		sess, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if err := saveSession(sess); err != nil {
			return err
		}

		printSuccess("Logged in as %s", sess.User.Username)
		printStatus("Token expires", "%s", sess.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session on the server and forget it locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		// Clear locally even when the server is unreachable; the token is
		// useless to the CLI either way.
		if err := client.Logout(cmd.Context()); err != nil {
			printWarning("Server logout failed: %v", err)
		}
		if err := clearSession(); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

var authMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in user as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	},
}

var authSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the first admin account on a fresh server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		status, err := client.InitStatus(ctx)
		if err != nil {
			return err
		}
		if !status.NeedsSetup {
			printWarning("Server already has an admin account; use `ziee auth login`.")
			return nil
		}

		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		if username == "" {
			prompt := &survey.Input{Message: "Admin username:"}
			if err := survey.AskOne(prompt, &username, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("reading username: %w", err)
			}
		}
		if email == "" {
			prompt := &survey.Input{Message: "Admin email:"}
			if err := survey.AskOne(prompt, &email, survey.WithValidator(survey.Required)); err != nil {
				return fmt.Errorf("reading email: %w", err)
			}
		}
		var password string
		prompt := &survey.Password{Message: "Admin password:"}
		if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		sess, err := client.Setup(ctx, username, email, password)
		if err != nil {
			return err
		}
		if err := saveSession(sess); err != nil {
			return err
		}
		printSuccess("Admin account %s created, session saved", sess.User.Username)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("username", "", "username or email (prompted when omitted)")
	authLoginCmd.Flags().String("password", "", "password (prompted when omitted)")
	authSetupCmd.Flags().String("username", "", "admin username (prompted when omitted)")
	authSetupCmd.Flags().String("email", "", "admin email (prompted when omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authMeCmd)
	authCmd.AddCommand(authSetupCmd)
}
