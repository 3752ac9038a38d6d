package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/config"
	"github.com/ziee-ai/ziee-go/internal/session"
	"github.com/ziee-ai/ziee-go/internal/transcript"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, session and transcript status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show what we can.
		printError("config error: %v", err)
		return nil
	}

	addr, err := newResolver(cfg).Resolve(ctx)
	if err != nil {
		printStatus("Server", "not found (%v)", err)
	} else {
		printStatus("Server", "%s", addr)
		client := api.NewClient(addr)
		if health, err := client.Health(ctx); err != nil {
			printStatus("Health", "unreachable (%v)", err)
		} else {
			printStatus("Health", "%s", health)
		}
		if status, err := client.InitStatus(ctx); err == nil {
			if status.IsDesktop {
				printStatus("Mode", "desktop")
			} else {
				printStatus("Mode", "server")
			}
			if status.NeedsSetup {
				printWarning("Server needs first-run setup, run `ziee auth setup`")
			}
		}
	}

	store := session.Open(sessionPath(cfg))
	if _, ok := store.Token(); ok {
		username := "unknown"
		var u struct {
			Username string `json:"username"`
		}
		if raw := store.User(); raw != nil && json.Unmarshal(raw, &u) == nil && u.Username != "" {
			username = u.Username
		}
		printStatus("Session", "logged in as %s", username)
	} else {
		printStatus("Session", "logged out")
	}

	if transcripts, err := transcript.Open(cfg.Storage.DataDir); err == nil {
		if convs, err := transcripts.Conversations(100); err == nil {
			printStatus("Transcripts", "%s", countLabel(len(convs), 100))
		}
		transcripts.Close()
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
