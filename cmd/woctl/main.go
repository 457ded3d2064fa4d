// Command woctl drives the work-order backend from a terminal: it shares
// the persisted settings and session of the workorders server, prices
// rows files offline and submits them as edits or completions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"workorders/internal/cli"
	"workorders/internal/config"
	applog "workorders/internal/log"
	"workorders/internal/settings"
	"workorders/internal/storage"
)

var (
	verbose bool
	timeout time.Duration

	logger *applog.Logger
	repo   *storage.SQLiteRepository
	mgr    *settings.Manager
)

var rootCmd = &cobra.Command{
	Use:   "woctl",
	Short: "Work-order command line client",
	Long: `woctl talks to the work-order backend using the settings and session
stored in the workorders SQLite database.

Rows files are YAML documents with work_items and materials lists:

  work_items:
    - {category: Plumbing, item_id: 1, quantity: 3}
  materials:
    - {item_id: 5, quantity: "1,5", company_provided: true}`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentCLI,
			Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		})

		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.SQLiteDBPath, err)
		}
		mgr = settings.NewManager(repo, cfg.APITimeout, logger)
		if _, err := mgr.Load(cmd.Context(), settings.Settings{
			APIBaseURL:      cfg.APIBaseURL,
			TemplateBaseURL: cfg.TemplateBaseURL,
		}); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if repo != nil {
			_ = repo.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall time limit for one command")

	rootCmd.AddCommand(configCmd, loginCmd, logoutCmd, tasksCmd, statisticsCmd,
		quoteCmd, completeCmd, updateCmd, reportsCmd)
}

// commandContext bounds a backend call by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
