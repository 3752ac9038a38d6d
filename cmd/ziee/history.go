package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/config"
	"github.com/ziee-ai/ziee-go/internal/transcript"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse locally recorded chat transcripts",
	Long: `History works on the transcripts the chat command records locally. It
never talks to the server, so it works offline and survives server-side
deletion.`,
}

// openTranscripts is a var so tests can substitute an in-memory store.
var openTranscripts = func() (*transcript.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return transcript.Open(cfg.Storage.DataDir)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openTranscripts()
		if err != nil {
			return err
		}
		defer store.Close()

		convs, err := store.Conversations(limit)
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("No transcripts recorded.")
			return nil
		}
		for _, c := range convs {
			title := c.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s  %s  %3d msg  %s\n",
				colorize(colorCyan, shortID(c.ID)),
				c.UpdatedAt.Local().Format("2006-01-02 15:04"),
				c.MessageCount,
				title,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a recorded conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscripts()
		if err != nil {
			return err
		}
		defer store.Close()

		messages, err := store.Messages(args[0])
		if errors.Is(err, transcript.ErrNotFound) {
			return fmt.Errorf("no transcript with id %s", args[0])
		}
		if err != nil {
			return err
		}
		for _, m := range messages {
			role := colorize(colorCyan, m.Role)
			if m.Role == "assistant" {
				role = colorize(colorGreen, m.Role)
			}
			fmt.Printf("[%s] %s\n", role, m.Content)
		}
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search recorded messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openTranscripts()
		if err != nil {
			return err
		}
		defer store.Close()

		messages, err := store.SearchMessages(args[0], limit)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println("No matches found.")
			return nil
		}
		for _, m := range messages {
			fmt.Printf("%s  %-9s  %s\n",
				colorize(colorCyan, shortID(m.ConversationID)),
				m.Role,
				truncateText(m.Content, 80),
			)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscripts()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteConversation(args[0]); err != nil {
			if errors.Is(err, transcript.ErrNotFound) {
				return fmt.Errorf("no transcript with id %s", args[0])
			}
			return err
		}
		printSuccess("Deleted transcript %s", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 50, "maximum number of conversations")
	historySearchCmd.Flags().Int("limit", 20, "maximum number of matches")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
