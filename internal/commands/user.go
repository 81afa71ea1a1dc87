package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/balkashynov/samwise/internal/models"
)

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var id string
	addCmd := &cobra.Command{
		Use:   "add EMAIL",
		Short: "Register a user (an id is generated unless --id is given)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.db()
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}
			u, err := models.NewUser(id, args[0])
			if err != nil {
				return err
			}
			u, err = store.CreateUser(cmd.Context(), u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ User %s <%s> created\n", u.UserID, u.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Use it with --user %s or export SAMWISE_USER=%s\n", u.UserID, u.UserID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "User id (default: random UUID)")
	userCmd.AddCommand(addCmd)

	userCmd.AddCommand(&cobra.Command{
		Use:   "show [USER_ID]",
		Short: "Show a user (default: the acting user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.db()
			if err != nil {
				return err
			}
			var userID string
			if len(args) == 1 {
				userID = args[0]
			} else if userID, err = a.user(); err != nil {
				return err
			}
			u, err := store.GetUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:     %s\n", u.UserID)
			fmt.Fprintf(out, "Email:    %s\n", u.Email)
			fmt.Fprintf(out, "Created:  %s\n", u.TimeCreated.Local().Format("02/01/2006 15:04"))
			fmt.Fprintf(out, "Modified: %s\n", u.TimeModified.Local().Format("02/01/2006 15:04"))
			return nil
		},
	})

	userCmd.AddCommand(&cobra.Command{
		Use:   "email NEW_EMAIL",
		Short: "Change the acting user's email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, userID, err := a.session()
			if err != nil {
				return err
			}
			u, err := store.UpdateUserEmail(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Email for %s is now %s\n", u.UserID, u.Email)
			return nil
		},
	})

	userCmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.db()
			if err != nil {
				return err
			}
			users, err := store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users yet. Use 'samwise user add EMAIL' to create one.")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %s\n", u.UserID, u.Email)
			}
			return nil
		},
	})

	return userCmd
}
