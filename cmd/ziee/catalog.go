package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the model providers visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		providers, err := client.ListProviders(cmd.Context())
		if err != nil {
			return err
		}
		if len(providers) == 0 {
			fmt.Println("No providers found.")
			return nil
		}
		for _, p := range providers {
			state := "enabled"
			if !p.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s  %-20s  %-12s  %s\n", colorize(colorCyan, shortID(p.ID.String())), p.Name, p.Type, state)
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models across providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		models, providers, err := listAllModels(cmd.Context(), client)
		if err != nil {
			return err
		}

		if filter, _ := cmd.Flags().GetString("provider"); filter != "" {
			var kept []api.Model
			for _, m := range models {
				if strings.EqualFold(providers[m.ProviderID].Name, filter) {
					kept = append(kept, m)
				}
			}
			models = kept
		}
		if len(models) == 0 {
			fmt.Println("No models found.")
			return nil
		}
		for _, m := range models {
			fmt.Printf("%s  %-28s  %s\n",
				colorize(colorCyan, shortID(m.ID.String())),
				m.Alias,
				providers[m.ProviderID].Name,
			)
		}
		return nil
	},
}

var assistantsCmd = &cobra.Command{
	Use:   "assistants",
	Short: "List the assistants visible to you",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListAssistants(cmd.Context(), 1, 50)
		if err != nil {
			return err
		}
		if len(list.Assistants) == 0 {
			fmt.Println("No assistants found.")
			return nil
		}
		for _, a := range list.Assistants {
			marker := " "
			if a.IsDefault {
				marker = "*"
			}
			desc := ""
			if a.Description != nil {
				desc = truncateText(*a.Description, 60)
			}
			fmt.Printf("%s %s  %-24s  %s\n", marker, colorize(colorCyan, shortID(a.ID.String())), a.Name, desc)
		}
		return nil
	},
}

// listAllModels flattens the model catalog across every visible provider.
func listAllModels(ctx context.Context, client *api.Client) ([]api.Model, map[uuid.UUID]api.Provider, error) {
	providers, err := client.ListProviders(ctx)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]api.Provider, len(providers))
	var models []api.Model
	for _, p := range providers {
		byID[p.ID] = p
		ms, err := client.ListProviderModels(ctx, p.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("listing models for %s: %w", p.Name, err)
		}
		models = append(models, ms...)
	}
	return models, byID, nil
}

// resolveModelRef turns a model reference into its id. A reference is an
// id, an alias or a name; empty picks the first model the server offers.
func resolveModelRef(ctx context.Context, client *api.Client, ref string) (uuid.UUID, error) {
	if ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			return id, nil
		}
	}
	models, _, err := listAllModels(ctx, client)
	if err != nil {
		return uuid.Nil, err
	}
	if ref == "" {
		if len(models) == 0 {
			return uuid.Nil, fmt.Errorf("no models available")
		}
		return models[0].ID, nil
	}
	for _, m := range models {
		if strings.EqualFold(m.Alias, ref) || strings.EqualFold(m.Name, ref) {
			return m.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("no model matches %q", ref)
}

func init() {
	modelsCmd.Flags().String("provider", "", "only models from this provider name")
}
