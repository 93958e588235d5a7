package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"bitbraniac-be/pkg/events"
	pktNats "bitbraniac-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with the activity event stream (requires NATS_URL)",
	}

	var filter string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print new activity events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.App.NatsURL == "" {
				return fmt.Errorf("NATS_URL is not set")
			}
			sub, err := pktNats.NewSubscriber(a.cfg.App.NatsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			color.Cyan("Tailing %s (Ctrl+C to stop)", pktNats.Subject(orAll(filter)))
			return sub.Subscribe(ctx, filter, "", func(_ context.Context, e events.Event) error {
				payload, _ := json.Marshal(e.Payload())
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					e.Timestamp().Format("15:04:05.000"), color.GreenString(e.EventType()), payload)
				return nil
			})
		},
	}
	tail.Flags().StringVar(&filter, "filter", "", "event type filter, e.g. user.* or chat.turn_completed")

	cmd.AddCommand(tail)
	return cmd
}

func orAll(filter string) string {
	if filter == "" {
		return ">"
	}
	return filter
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
