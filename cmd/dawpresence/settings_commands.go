package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dawpresence/internal/ipc"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change the daemon settings",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Settings(rpcCtx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderSettings(*resp))
				return nil
			})
		},
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "interval <ms>",
		Short: "Set the update interval in milliseconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("interval must be a whole number of milliseconds, got %q", args[0])
			}
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetUpdateInterval(rpcCtx, ms)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Update interval set to %d ms\n", resp.UpdateIntervalMS)
				return nil
			})
		},
	})

	settingsCmd.AddCommand(newToggleCommand(ctx, "hide-project", "Hide the project name from the presence",
		func(client *ipc.Client, cmd *cobra.Command, hide bool) (*ipc.SettingsResponse, error) {
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()
			return client.SetHideProjectName(rpcCtx, hide)
		},
		func(s *ipc.SettingsResponse) bool { return s.HideProjectName },
	))
	settingsCmd.AddCommand(newToggleCommand(ctx, "hide-usage", "Hide CPU and RAM usage from the presence",
		func(client *ipc.Client, cmd *cobra.Command, hide bool) (*ipc.SettingsResponse, error) {
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()
			return client.SetHideSystemUsage(rpcCtx, hide)
		},
		func(s *ipc.SettingsResponse) bool { return s.HideSystemUsage },
	))

	return settingsCmd
}

type toggleFunc func(*ipc.Client, *cobra.Command, bool) (*ipc.SettingsResponse, error)

func newToggleCommand(ctx *commandContext, name, short string, set toggleFunc, read func(*ipc.SettingsResponse) bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <on|off>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hide, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := set(client, cmd, hide)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, onOff(read(resp)))
				return nil
			})
		},
	}
}
