package cmd

import (
	"errors"
	"fmt"

	"docustream/pkg/credentials"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub token kept in the system keyring",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token in the keyring",
	Long: `Store a GitHub token in the keyring. The token comes from --token, or is
read from the terminal when no token flag is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := cfg.GitHubToken
		if tokenFlag == "" && !tokenPromptFlag {
			var err error
			if tok, err = promptToken(); err != nil {
				return err
			}
		}
		if err := credentials.StoreToken(tok); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored GitHub token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credentials.DeleteToken(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the GitHub token comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, err := credentials.Token()
		switch {
		case err == nil:
			fmt.Fprintln(out, "Keyring: token stored")
		case errors.Is(err, credentials.ErrNotFound):
			fmt.Fprintln(out, "Keyring: no token")
		default:
			fmt.Fprintf(out, "Keyring: unavailable (%v)\n", err)
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		mode := "anonymous"
		if s.GitHub.Authenticated() {
			mode = "authenticated"
		}
		fmt.Fprintf(out, "Requests: %s (%d per %s)\n", mode, s.Limiter.Max(), cfg.RateLimitWindow)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
	RootCmd.AddCommand(authCmd)
}
