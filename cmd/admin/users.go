package main

import (
	"fmt"
	"text/tabwriter"

	"bitbraniac-be/internal/dto"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage user accounts",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List users with their session counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := a.adminService()
			if err != nil {
				return err
			}
			users, err := admin.ListUsers(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			printUsers(cmd, users)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum number of users")
	list.Flags().IntVar(&offset, "offset", 0, "number of users to skip")

	cmd.AddCommand(list)
	cmd.AddCommand(newSetActiveCmd(a, "activate", true))
	cmd.AddCommand(newSetActiveCmd(a, "deactivate", false))
	cmd.AddCommand(newDeleteUserCmd(a))
	return cmd
}

// resolveUser accepts either a user id or an email address.
func resolveUser(cmd *cobra.Command, a *app, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	admin, err := a.adminService()
	if err != nil {
		return uuid.Nil, err
	}
	user, err := admin.FindUserByEmail(cmd.Context(), ref)
	if err != nil {
		return uuid.Nil, err
	}
	return user.Id, nil
}

func newSetActiveCmd(a *app, name string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <user-id|email>",
		Short: fmt.Sprintf("Mark a user as %sd", name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userId, err := resolveUser(cmd, a, args[0])
			if err != nil {
				return err
			}
			admin, err := a.adminService()
			if err != nil {
				return err
			}
			if err := admin.SetUserActive(cmd.Context(), userId, active); err != nil {
				return err
			}
			color.Green("User %s %sd", userId, name)
			return nil
		},
	}
}

func newDeleteUserCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <user-id|email>",
		Short: "Permanently delete a user with all sessions and messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userId, err := resolveUser(cmd, a, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", userId)
			}
			admin, err := a.adminService()
			if err != nil {
				return err
			}
			if err := admin.DeleteUser(cmd.Context(), userId); err != nil {
				return err
			}
			color.Green("User %s deleted", userId)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}

func printUsers(cmd *cobra.Command, users []dto.AdminUserResponse) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tACTIVE\tSESSIONS\tCREATED")
	for _, u := range users {
		active := color.GreenString("yes")
		if !u.IsActive {
			active = color.RedString("no")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", u.Id, u.Email, active, u.SessionCount, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
