package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziee-ai/ziee-go/internal/api"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer users, groups and registration",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.AdminListUsers(cmd.Context(), 1, 50)
		if err != nil {
			return err
		}
		for _, u := range list.Users {
			state := "active"
			if !u.IsActive {
				state = "inactive"
			}
			groups := make([]string, 0, len(u.Groups))
			for _, g := range u.Groups {
				groups = append(groups, g.Name)
			}
			fmt.Printf("%s  %-16s  %-8s  %v\n", colorize(colorCyan, shortID(u.ID.String())), u.Username, state, groups)
		}
		return nil
	},
}

var adminUsersToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Toggle whether an account may log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		user, err := client.AdminToggleUserActive(cmd.Context(), id)
		if err != nil {
			return err
		}
		if user.IsActive {
			printSuccess("User %s is now active", user.Username)
		} else {
			printSuccess("User %s is now inactive", user.Username)
		}
		return nil
	},
}

var adminUsersResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <id>",
	Short: "Set a new password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		var password string
		prompt := &survey.Password{Message: "New password:"}
		if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.AdminResetPassword(cmd.Context(), id, password); err != nil {
			return err
		}
		printSuccess("Password reset for user %s", id)
		return nil
	},
}

var adminGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage permission groups",
}

var adminGroupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List permission groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.AdminListGroups(cmd.Context(), 1, 50)
		if err != nil {
			return err
		}
		for _, g := range list.Groups {
			fmt.Printf("%s  %-16s  %v\n", colorize(colorCyan, shortID(g.ID.String())), g.Name, g.Permissions)
		}
		return nil
	},
}

var adminGroupsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a permission group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := api.CreateGroupRequest{Name: args[0]}
		req.Permissions, _ = cmd.Flags().GetStringSlice("permission")
		if desc, _ := cmd.Flags().GetString("description"); desc != "" {
			req.Description = &desc
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		group, err := client.AdminCreateGroup(cmd.Context(), req)
		if err != nil {
			return err
		}
		printSuccess("Created group %s (%s)", group.Name, group.ID)
		return nil
	},
}

var adminGroupsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a permission group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid group id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.AdminDeleteGroup(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted group %s", id)
		return nil
	},
}

var adminRegistrationCmd = &cobra.Command{
	Use:   "registration [on|off]",
	Short: "Show or change whether new users may register",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			status, err := client.AdminUserRegistrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			if status.Enabled {
				printStatus("Registration", "enabled")
			} else {
				printStatus("Registration", "disabled")
			}
			return nil
		}

		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("argument must be on or off, got %q", args[0])
		}
		if err := client.AdminSetUserRegistration(cmd.Context(), enabled); err != nil {
			return err
		}
		printSuccess("Registration set to %s", args[0])
		return nil
	},
}

func init() {
	adminGroupsCreateCmd.Flags().StringSlice("permission", nil, "permission to grant (repeatable)")
	adminGroupsCreateCmd.Flags().String("description", "", "group description")

	adminUsersCmd.AddCommand(adminUsersListCmd)
	adminUsersCmd.AddCommand(adminUsersToggleCmd)
	adminUsersCmd.AddCommand(adminUsersResetPasswordCmd)

	adminGroupsCmd.AddCommand(adminGroupsListCmd)
	adminGroupsCmd.AddCommand(adminGroupsCreateCmd)
	adminGroupsCmd.AddCommand(adminGroupsDeleteCmd)

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminGroupsCmd)
	adminCmd.AddCommand(adminRegistrationCmd)
}
