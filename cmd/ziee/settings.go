package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write per-user server settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		settings, err := client.ListSettings(cmd.Context())
		if err != nil {
			return err
		}
		if len(settings) == 0 {
			fmt.Println("No settings stored.")
			return nil
		}
		for _, s := range settings {
			fmt.Printf("  %s = %s\n", colorize(colorBold, s.Key), string(s.Value))
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		setting, err := client.GetSetting(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(setting.Value))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a per-user setting on the server. Values that parse as JSON are
stored typed (numbers, booleans, objects); anything else is stored as a
string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if _, err := client.SetSetting(cmd.Context(), key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, raw)
		return nil
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteSetting(cmd.Context(), args[0]); err != nil {
			return err
		}
		printSuccess("Removed %s", args[0])
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every setting",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This removes ALL server-side settings. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteAllSettings(cmd.Context()); err != nil {
			return err
		}
		printSuccess("All settings removed")
		return nil
	},
}

func init() {
	settingsResetCmd.Flags().Bool("confirm", false, "confirm removing every setting")

	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}
