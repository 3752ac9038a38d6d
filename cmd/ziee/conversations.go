package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convos"},
	Short:   "Browse conversations on the server",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListConversations(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		if len(list.Conversations) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}
		printSummaries(list.Conversations)
		fmt.Printf("\nPage %d, %d total\n", list.Page, list.Total)
		return nil
	},
}

var conversationsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search conversations by title and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.SearchConversations(cmd.Context(), args[0], 1, limit)
		if err != nil {
			return err
		}
		if len(list.Conversations) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}
		printSummaries(list.Conversations)
		return nil
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		conv, err := client.GetConversation(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", colorize(colorBold, conv.Title))
		fmt.Printf("%s  updated %s\n\n", conv.ID, conv.UpdatedAt.Local().Format("2006-01-02 15:04"))

		if conv.ActiveBranchID == nil {
			fmt.Println("No messages yet.")
			return nil
		}
		messages, err := client.BranchMessages(cmd.Context(), conv.ID, *conv.ActiveBranchID)
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

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteConversation(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted conversation %s", id)
		return nil
	},
}

func printSummaries(summaries []api.ConversationSummary) {
	for _, c := range summaries {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n",
			colorize(colorCyan, shortID(c.ID.String())),
			c.UpdatedAt.Local().Format("2006-01-02 15:04"),
			title,
		)
		if c.LastMessage != nil && *c.LastMessage != "" {
			fmt.Printf("          %s\n", truncateText(*c.LastMessage, 80))
		}
	}
}

func init() {
	conversationsListCmd.Flags().Int("page", 1, "page to fetch")
	conversationsListCmd.Flags().Int("limit", 20, "conversations per page")
	conversationsSearchCmd.Flags().Int("limit", 20, "maximum number of results")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsSearchCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
}
