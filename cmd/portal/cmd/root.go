// Package cmd implements the portal CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"passport-portal/internal/config"
	"passport-portal/internal/portal"
	"passport-portal/internal/portal/router"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	outputFormat   string
	apiURL         string
	credentialPath string
	verbose        bool

	// Shared portal instance
	app *portal.App
)

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Passport renewal portal CLI",
	Long: `portal is the command-line client of the passport renewal service.

Applicants submit renewals and upload documents; reviewers list, verify
and reject them. The session is kept in a credential file between runs.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		cfg := config.LoadPortal()
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		if credentialPath != "" {
			cfg.CredentialPath = credentialPath
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		app = portal.New(cfg,
			portal.WithLogger(logger),
			portal.WithNavigator(router.NavigatorFunc(func(to router.Route) {
				fmt.Fprintf(os.Stderr, "%s %s\n", dimFmt("→"), to)
			})),
		)
		app.Start(cmd.Context())
		return nil
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for portal.

Bash:
  source <(portal completion bash)

Zsh:
  source <(portal completion zsh)

Fish:
  portal completion fish > ~/.config/fish/completions/portal.fish

PowerShell:
  portal completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Renewal service URL (default: $PORTAL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&credentialPath, "credential", "", "Credential file (default: ~/.config/passport-portal/credential.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and cache activity")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := executeContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", errFmt("Error:"), describe(err))
		return err
	}
	return nil
}

// executeContext runs the command tree and always closes the portal,
// so queued status emails are delivered even when the command fails.
func executeContext(ctx context.Context) error {
	defer func() {
		if app != nil {
			app.Close()
			app = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// formatOutput handles output formatting based on the --output flag.
// It reports whether the caller should skip its table rendering.
func formatOutput(w io.Writer, data interface{}) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(data)
	case "yaml":
		out, err := yaml.Marshal(data)
		if err != nil {
			return true, err
		}
		_, err = w.Write(out)
		return true, err
	default:
		return false, nil
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
