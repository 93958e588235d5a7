package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect chat sessions",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list <user-id|email>",
		Short: "List a user's sessions, newest activity first",
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
			sessions, err := admin.ListSessions(cmd.Context(), userId, all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tSTATE\tUPDATED")
			for _, s := range sessions {
				state := color.GreenString("active")
				if !s.IsActive {
					state = color.YellowString("deleted")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.Id, s.Title, s.MessageCount, state, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include soft-deleted sessions")

	cmd.AddCommand(list)
	return cmd
}
