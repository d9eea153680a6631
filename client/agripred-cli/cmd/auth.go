package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	email    string
	password string
	username string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the token for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := newAPIClient(apiURL, authURL, "").login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if err := saveToken(tokenFile, token); err != nil {
			return fmt.Errorf("error saving token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := newAPIClient(apiURL, authURL, "").register(cmd.Context(), email, password, username)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Account created (user id %s). Run: agripred-cli login\n", id)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}
		p, err := newAPIClient(apiURL, authURL, token).profile(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Username: %s\nEmail:    %s\nRole:     %s\n", p.Username, p.Email, p.Role)
		if p.ProfilePic != "" {
			fmt.Fprintf(out, "Photo:    %s\n", p.ProfilePic)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&email, "email", "", "account email")
		c.Flags().StringVar(&password, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
		rootCmd.AddCommand(c)
	}
	registerCmd.Flags().StringVar(&username, "username", "", "display name")
	_ = registerCmd.MarkFlagRequired("username")
}
