package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
)

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Manage retrieval indexes and their documents",
}

var ragListCmd = &cobra.Command{
	Use:   "list",
	Short: "List retrieval indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListRAGInstances(cmd.Context(), 1, 100)
		if err != nil {
			return err
		}
		if len(list.Instances) == 0 {
			fmt.Println("No retrieval indexes found.")
			return nil
		}
		for _, inst := range list.Instances {
			state := "enabled"
			if !inst.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-20s  %-16s  %s\n",
				colorize(colorCyan, shortID(inst.ID.String())),
				inst.Name, inst.EngineType, state,
			)
		}
		return nil
	},
}

var ragCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a retrieval index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		providerRef, _ := cmd.Flags().GetString("provider")
		providerID, err := resolveRAGProvider(ctx, client, providerRef)
		if err != nil {
			return err
		}

		alias, _ := cmd.Flags().GetString("alias")
		if alias == "" {
			alias = strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		}
		req := api.CreateRAGInstanceRequest{Name: name, Alias: alias}
		if desc, _ := cmd.Flags().GetString("description"); desc != "" {
			req.Description = &desc
		}

		inst, err := client.CreateRAGInstance(ctx, providerID, req)
		if err != nil {
			return err
		}
		printSuccess("Created index %s (%s)", inst.Name, inst.ID)
		return nil
	},
}

var ragDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a retrieval index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid index id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteRAGInstance(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted index %s", id)
		return nil
	},
}

var ragFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the documents inside an index",
}

var ragFilesAddCmd = &cobra.Command{
	Use:   "add <index-id> <path>...",
	Short: "Add documents to an index",
	Long: `Add documents to a retrieval index. Unlike plain uploads, all documents
go up in one request so the server ingests them as a batch.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid index id: %w", err)
		}

		uploads := make([]api.UploadFile, 0, len(args)-1)
		var cleanups []func()
		defer func() {
			for _, cleanup := range cleanups {
				cleanup()
			}
		}()
		for _, path := range args[1:] {
			uf, cleanup, err := openUpload(path, false)
			if err != nil {
				return err
			}
			uploads = append(uploads, uf)
			cleanups = append(cleanups, cleanup)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		progress := newProgressPrinter(os.Stderr)
		if _, err := client.UploadRAGFiles(cmd.Context(), instanceID, uploads, api.UploadCallbacks{OnProgress: progress.update}); err != nil {
			return err
		}
		printSuccess("Added %d document(s) to index %s", len(uploads), instanceID)
		return nil
	},
}

var ragFilesListCmd = &cobra.Command{
	Use:   "list <index-id>",
	Short: "List the documents inside an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid index id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListRAGFiles(cmd.Context(), instanceID, 1, 100)
		if err != nil {
			return err
		}
		if len(list.Files) == 0 {
			fmt.Println("No documents found.")
			return nil
		}
		for _, f := range list.Files {
			fmt.Printf("%s  %8s  %s\n", colorize(colorCyan, shortID(f.ID.String())), formatSize(f.FileSize), f.Filename)
		}
		return nil
	},
}

var ragFilesRemoveCmd = &cobra.Command{
	Use:   "remove <index-id> <file-id>",
	Short: "Remove a document from an index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid index id: %w", err)
		}
		fileID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid file id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteRAGFile(cmd.Context(), instanceID, fileID); err != nil {
			return err
		}
		printSuccess("Removed document %s", fileID)
		return nil
	},
}

var ragQueryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Find indexed documents by index or filename",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		matches, err := ragQueryMatches(cmd.Context(), client, query, limit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matches found.")
			return nil
		}
		for i, m := range matches {
			fmt.Printf("\n%s in %s\n", colorize(colorBold, fmt.Sprintf("Match %d", i+1)), m.instance.Name)
			if m.file == nil {
				fmt.Printf("  (index matches, no documents)\n")
				continue
			}
			fmt.Printf("  %s (%s)\n", m.file.Filename, formatSize(m.file.FileSize))
		}
		return nil
	},
}

var ragStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show document counts per index",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListRAGInstances(cmd.Context(), 1, 100)
		if err != nil {
			return err
		}
		if len(list.Instances) == 0 {
			fmt.Println("No retrieval indexes found.")
			return nil
		}
		for _, inst := range list.Instances {
			files, err := client.ListRAGFiles(cmd.Context(), inst.ID, 1, 100)
			if err != nil {
				printStatus(inst.Name, "error: %v", err)
				continue
			}
			printStatus(inst.Name, "%s document(s)", countLabel(len(files.Files), 100))
		}
		return nil
	},
}

type ragMatch struct {
	instance api.RAGInstance
	file     *api.File
}

// ragQueryMatches finds documents whose index or filename matches query,
// case-insensitively. A matching index surfaces all of its documents;
// otherwise only documents whose filename matches.
func ragQueryMatches(ctx context.Context, client *api.Client, query string, limit int) ([]ragMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	list, err := client.ListRAGInstances(ctx, 1, 100)
	if err != nil {
		return nil, err
	}

	var matches []ragMatch
	for _, inst := range list.Instances {
		desc := ""
		if inst.Description != nil {
			desc = *inst.Description
		}
		instMatch := matchesFold(query, inst.Name, inst.Alias, desc)

		files, err := client.ListRAGFiles(ctx, inst.ID, 1, 100)
		if err != nil {
			return nil, fmt.Errorf("listing documents for %s: %w", inst.Name, err)
		}
		found := false
		for _, f := range files.Files {
			if !instMatch && !matchesFold(query, f.Filename) {
				continue
			}
			matches = append(matches, ragMatch{instance: inst, file: &f})
			found = true
			if len(matches) >= limit {
				return matches, nil
			}
		}
		if instMatch && !found {
			matches = append(matches, ragMatch{instance: inst})
			if len(matches) >= limit {
				return matches, nil
			}
		}
	}
	return matches, nil
}

func matchesFold(query string, candidates ...string) bool {
	q := strings.ToLower(query)
	for _, c := range candidates {
		if c != "" && strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

// resolveRAGProvider picks the provider for new indexes: the named one, or
// the only sensible default when the server offers a single enabled
// provider.
func resolveRAGProvider(ctx context.Context, client *api.Client, ref string) (uuid.UUID, error) {
	if ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			return id, nil
		}
	}
	providers, err := client.ListRAGProviders(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if ref == "" {
		for _, p := range providers {
			if p.Enabled {
				return p.ID, nil
			}
		}
		return uuid.Nil, fmt.Errorf("no enabled retrieval providers")
	}
	for _, p := range providers {
		if strings.EqualFold(p.Name, ref) || strings.EqualFold(p.Type, ref) {
			return p.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("no retrieval provider matches %q", ref)
}

func init() {
	ragCreateCmd.Flags().String("alias", "", "index alias (default: derived from name)")
	ragCreateCmd.Flags().String("description", "", "index description")
	ragCreateCmd.Flags().String("provider", "", "retrieval provider id, name or type")
	ragQueryCmd.Flags().Int("limit", 5, "maximum number of matches")

	ragFilesCmd.AddCommand(ragFilesAddCmd)
	ragFilesCmd.AddCommand(ragFilesListCmd)
	ragFilesCmd.AddCommand(ragFilesRemoveCmd)

	ragCmd.AddCommand(ragListCmd)
	ragCmd.AddCommand(ragCreateCmd)
	ragCmd.AddCommand(ragDeleteCmd)
	ragCmd.AddCommand(ragFilesCmd)
	ragCmd.AddCommand(ragQueryCmd)
	ragCmd.AddCommand(ragStatusCmd)
}
