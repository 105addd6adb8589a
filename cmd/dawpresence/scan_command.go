package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dawpresence/internal/daemonrun"
	"dawpresence/internal/logging"
	"dawpresence/internal/presence"
	"dawpresence/internal/settings"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var hideProject bool
	var hideUsage bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect the running DAW once without contacting Discord",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:       "warn",
				Format:      "console",
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}

			mon, cat := daemonrun.NewMonitor(cfg, logger)
			out := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintf(out, "Catalog %s has no entries\n", cfg.Paths.CatalogPath)
				return nil
			}

			status, err := mon.Scan(cmd.Context(), hideProject)
			if err != nil {
				return err
			}
			if status == nil {
				fmt.Fprintln(out, "No DAW detected")
				return nil
			}

			snapshot := settings.FromConfig(cfg)
			snapshot.HideProjectName = hideProject
			snapshot.HideSystemUsage = snapshot.HideSystemUsage || hideUsage
			activity := presence.Compose(*status, snapshot, presence.Options{
				LargeImage: cfg.Presence.LargeImage,
				LargeText:  cfg.Presence.LargeText,
			})

			fmt.Fprint(out, renderKeyValues([][2]string{
				{"DAW", status.DisplayName},
				{"Project", status.ProjectName},
				{"PID", strconv.Itoa(int(status.PID))},
				{"Version", status.Version},
				{"CPU", presence.FormatCPU(*status)},
				{"RAM", presence.FormatRAM(*status)},
				{"Client ID", status.ClientID},
				{"Details", activity.Details},
				{"State", activity.State},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&hideProject, "hide-project", false, "Hide the project name as the daemon would")
	cmd.Flags().BoolVar(&hideUsage, "hide-usage", false, "Hide CPU and RAM usage as the daemon would")
	return cmd
}
