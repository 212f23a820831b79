package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/mossy/internal/output"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userAddRun(args[0])
	},
}

func init() {
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

func userListRun() error {
	svc, err := getService()
	if err != nil {
		return err
	}

	users, err := svc.Store().ListUsers(context.Background())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		ui.Info("No users. Use 'mossy user add <name>' to create one.")
		return nil
	}

	cal := svc.Calendar()
	table := ui.Table([]string{"Name", "ID", "Since"})
	for _, u := range users {
		_ = table.Append([]string{
			output.Cyan(u.Name),
			u.ID,
			cal.DayKey(u.CreatedAt),
		})
	}
	_ = table.Render()
	return nil
}

func userAddRun(name string) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create user: %s", name)
		return nil
	}

	u, err := svc.CreateUser(context.Background(), name)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	ui.Success("Created user: %s (%s)", output.Cyan(u.Name), u.ID)
	return nil
}
