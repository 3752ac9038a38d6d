package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Inspect the shared assistant and model catalog",
}

var hubVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the hub catalog version the server mirrors",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		v, err := client.GetHubVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(v.HubVersion)
		return nil
	},
}

var hubDataCmd = &cobra.Command{
	Use:   "data",
	Short: "Show the mirrored hub catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		refresh, _ := cmd.Flags().GetBool("refresh")
		fetch := client.GetHubData
		if refresh {
			fetch = client.RefreshHub
		}
		data, err := fetch(cmd.Context())
		if err != nil {
			return err
		}

		printStatus("Hub version", "%s", data.HubVersion)
		printStatus("Assistants", "%d", len(data.Assistants))
		printStatus("Models", "%d", len(data.Models))
		if data.LastUpdate != nil {
			printStatus("Last update", "%s", *data.LastUpdate)
		}
		return nil
	},
}

func init() {
	hubDataCmd.Flags().Bool("refresh", false, "refetch the catalog from the hub before showing it")

	hubCmd.AddCommand(hubVersionCmd)
	hubCmd.AddCommand(hubDataCmd)
}
