package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/config"
)

var version = "dev"

// noColor disables ANSI escapes in terminal output. Bound to --no-color.
var noColor bool

var rootCmd = &cobra.Command{
	Use:   "ziee",
	Short: "Command-line client for a ziee chat server",
	Long: `ziee talks to a running ziee server: the desktop app's embedded API or a
remote deployment. It streams chat, manages conversations, files and
retrieval indexes, and serves the same operations to MCP clients over
stdio.

Without --server the client probes for a local desktop instance; set
server.base_url (or ZIEE_SERVER_BASE_URL) to pin a remote one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Best effort: a broken config file must not lock the user out of
		// `ziee config set`, so logging falls back to defaults on error.
		logLevel := slog.LevelInfo
		if cfg, err := config.Load(); err == nil {
			if strings.EqualFold(cfg.Log.Level, "debug") {
				logLevel = slog.LevelDebug
			}
			if !cfg.Log.Color {
				noColor = true
			}
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ziee version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ziee version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&serverOverride, "server", "", "server base URL (skips discovery)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(ragCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(assistantsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(hubCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
