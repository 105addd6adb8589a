package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dawpresence/internal/ipc"
	"dawpresence/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check paths, catalog, settings database, Discord and window title access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{})
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, doctorKind(result), result.Detail, colorize))
			}

			daemonLine := renderStatusLine("Daemon", statusInfo, "not running", colorize)
			if client, dialErr := ipc.Dial(ctx.socketPath()); dialErr == nil {
				client.Close()
				daemonLine = renderStatusLine("Daemon", statusOK, "listening on "+ctx.socketPath(), colorize)
			}
			fmt.Fprintln(out, daemonLine)

			if preflight.AnyFailed(results) {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
}

func doctorKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}
