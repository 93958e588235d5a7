package main

import (
	"encoding/json"
	"fmt"

	"bitbraniac-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLogsCmd(a *app) *cobra.Command {
	var level string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the application log, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := logger.ReadLogFile(a.cfg.App.LogFilePath, upper(level), limit, offset)
			if err != nil {
				return err
			}
			for _, e := range entries {
				printLogEntry(cmd, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "only show entries of this level (info, warn, error)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of entries to skip")
	return cmd
}

func printLogEntry(cmd *cobra.Command, e logger.LogEntry) {
	levelColor := color.New(color.FgCyan)
	switch e.Level {
	case "WARN":
		levelColor = color.New(color.FgYellow)
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		levelColor = color.New(color.FgRed)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s [%s] %s", e.Timestamp, levelColor.Sprint(e.Level), e.Module, e.Message)
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		fmt.Fprintf(out, " %s", details)
	}
	fmt.Fprintln(out)
}
