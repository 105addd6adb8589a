package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dawpresence/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			out := cmd.OutOrStdout()

			recent, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			if len(recent) == 0 && !follow {
				fmt.Fprintf(out, "No log entries at %s\n", path)
				return nil
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 0, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as the daemon writes them")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	return cmd
}
