package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/portal/router"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session credential",
	Long: `Exchange email and password for a credential and store it in the
credential file. The password can also be passed via $PORTAL_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("PORTAL_PASSWORD")
		}
		if loginEmail == "" || password == "" {
			return errors.New("--email and --password are required")
		}

		ident, err := app.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return err
		}
		landing, _ := app.Enter("/")

		fmt.Fprintf(cmd.OutOrStdout(), "%s logged in as %s (%s)\n", okFmt("✓"), ident.SubjectID, ident.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "  landing: %s\n", landing)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Logout(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s credential file could not be removed: %v\n", warnFmt("!"), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), okFmt("✓"), "logged out")
		return nil
	},
}

type whoamiOutput struct {
	Authenticated bool        `json:"authenticated" yaml:"authenticated"`
	SubjectID     string      `json:"subject_id,omitempty" yaml:"subject_id,omitempty"`
	Role          domain.Role `json:"role,omitempty" yaml:"role,omitempty"`
	Landing       string      `json:"landing" yaml:"landing"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ident, ok := app.Session.Identity()
		landing := router.DecideLandingRoute(ident, ok)
		out := whoamiOutput{
			Authenticated: ok,
			SubjectID:     ident.SubjectID,
			Role:          ident.Role,
			Landing:       string(landing),
		}

		if done, err := formatOutput(cmd.OutOrStdout(), out); done {
			return err
		}

		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), warnFmt("not logged in"))
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Subject:\t%s\n", out.SubjectID)
		fmt.Fprintf(w, "Role:\t%s\n", out.Role)
		fmt.Fprintf(w, "Landing:\t%s\n", out.Landing)
		return w.Flush()
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
