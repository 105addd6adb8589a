package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dawpresence/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

// resolveInitTarget expands an explicit --path or falls back to the default
// config location.
func resolveInitTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool
	var toStdout bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if toStdout {
				fmt.Fprint(out, config.SampleConfig())
				return nil
			}

			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			switch _, statErr := os.Stat(target); {
			case statErr == nil && !overwrite:
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
				return fmt.Errorf("check config path: %w", statErr)
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Place your daws.json in the data directory or set paths.catalog_path.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the sample configuration instead of writing it")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found; using defaults)"
			}
			ntfy := "disabled"
			if cfg.Notifications.NtfyTopic != "" {
				ntfy = cfg.Notifications.NtfyTopic
			}
			fmt.Fprint(out, renderKeyValues([][2]string{
				{"Config", source},
				{"Data dir", cfg.Paths.DataDir},
				{"Catalog", cfg.Paths.CatalogPath},
				{"Settings", cfg.Paths.SettingsPath},
				{"Socket", cfg.Paths.SocketPath},
				{"Log file", cfg.LogPath()},
				{"Interval", fmt.Sprintf("%d ms", cfg.Defaults.PollIntervalMS)},
				{"ntfy", ntfy},
			}))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
