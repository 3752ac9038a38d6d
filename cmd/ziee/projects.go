package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Group conversations and files into projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListProjects(cmd.Context(), 1, 50)
		if err != nil {
			return err
		}
		if len(list.Projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}
		for _, p := range list.Projects {
			visibility := "shared"
			if p.IsPrivate {
				visibility = "private"
			}
			fmt.Printf("%s  %-24s  %s\n", colorize(colorCyan, shortID(p.ID.String())), p.Name, visibility)
		}
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := api.CreateProjectRequest{Name: args[0]}
		if desc, _ := cmd.Flags().GetString("description"); desc != "" {
			req.Description = &desc
		}
		req.IsPrivate, _ = cmd.Flags().GetBool("private")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		project, err := client.CreateProject(cmd.Context(), req)
		if err != nil {
			return err
		}
		printSuccess("Created project %s (%s)", project.Name, project.ID)
		return nil
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		project, err := client.GetProject(cmd.Context(), id)
		if err != nil {
			return err
		}

		printStatus("Name", "%s", project.Name)
		if project.Description != nil && *project.Description != "" {
			printStatus("Description", "%s", *project.Description)
		}
		printStatus("Private", "%t", project.IsPrivate)
		if project.DocumentCount != nil {
			printStatus("Documents", "%d", *project.DocumentCount)
		}
		if project.ConversationCount != nil {
			printStatus("Conversations", "%d", *project.ConversationCount)
		}
		printStatus("Created", "%s", project.CreatedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteProject(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted project %s", id)
		return nil
	},
}

var projectsLinkCmd = &cobra.Command{
	Use:   "link <project-id> <conversation-id>",
	Short: "Attach a conversation to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}
		convID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid conversation id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.LinkConversation(cmd.Context(), projectID, convID); err != nil {
			return err
		}
		printSuccess("Linked conversation %s to project %s", convID, projectID)
		return nil
	},
}

func init() {
	projectsCreateCmd.Flags().String("description", "", "project description")
	projectsCreateCmd.Flags().Bool("private", false, "make the project private")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
	projectsCmd.AddCommand(projectsLinkCmd)
}
