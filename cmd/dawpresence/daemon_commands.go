package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dawpresence/internal/ipc"
	"dawpresence/internal/monitor"
)

const stopWait = 5 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the detected DAW and Discord connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()

			err := ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status(rpcCtx)
				if err != nil {
					return err
				}
				writeStatus(stdout, status, colorize)
				return nil
			})
			if errors.Is(err, errDaemonNotRunning) {
				fmt.Fprintln(stdout, renderSectionHeader("DAWPresence", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				return nil
			}
			return err
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Clear the presence and stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			rpcCtx, cancel := rpcContext(cmd)
			defer cancel()

			socket := ctx.socketPath()
			err := ctx.withClient(func(client *ipc.Client) error {
				_, err := client.Shutdown(rpcCtx)
				return err
			})
			if errors.Is(err, errDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Stopping daemon...")
			if waitForSocketRemoval(socket, stopWait) {
				fmt.Fprintln(stdout, "Daemon stopped")
			} else {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			return nil
		},
	}

	return []*cobra.Command{statusCmd, stopCmd}
}

func writeStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("DAWPresence", colorize))
	daemonKind, daemonDetail := statusOK, "running (pid "+strconv.Itoa(status.PID)+")"
	if !status.Running {
		daemonKind, daemonDetail = statusWarn, "stopped"
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonDetail, colorize))

	discordKind := statusError
	switch {
	case status.Connected:
		discordKind = statusOK
	case status.DawName == "" || status.DawName == monitor.UnknownProject:
		discordKind = statusInfo
	}
	fmt.Fprintln(out, renderStatusLine("Discord", discordKind, status.Message, colorize))
	fmt.Fprintln(out)

	pairs := [][2]string{
		{"DAW", status.DawName},
		{"Project", status.ProjectName},
		{"CPU", status.CPUUsage},
		{"RAM", status.RAMUsage},
	}
	if status.Version != "" {
		pairs = append(pairs, [2]string{"Version", status.Version})
	}
	if status.ClientID != "" {
		pairs = append(pairs, [2]string{"Client ID", status.ClientID})
	}
	if !status.UpdatedAt.IsZero() {
		pairs = append(pairs, [2]string{"Updated", status.UpdatedAt.Local().Format(time.DateTime)})
	}
	fmt.Fprint(out, renderKeyValues(pairs))
	fmt.Fprintln(out)

	fmt.Fprintln(out, renderSectionHeader("Settings", colorize))
	fmt.Fprint(out, renderSettings(status.Settings))
	fmt.Fprintf(out, "Catalog entries: %d\n", status.CatalogEntries)
	if status.LogPath != "" {
		fmt.Fprintf(out, "Log file: %s\n", status.LogPath)
	}
}

func renderSettings(s ipc.SettingsResponse) string {
	return renderKeyValues([][2]string{
		{"Update interval", strconv.FormatInt(s.UpdateIntervalMS, 10) + " ms"},
		{"Hide project name", onOff(s.HideProjectName)},
		{"Hide system usage", onOff(s.HideSystemUsage)},
	})
}

func waitForSocketRemoval(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
