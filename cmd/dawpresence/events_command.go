package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dawpresence/internal/ipc"
)

const followWaitMillis = 5000

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int
	var since uint64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent daemon notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				if !follow {
					rpcCtx, cancel := rpcContext(cmd)
					defer cancel()
					resp, err := client.Events(rpcCtx, ipc.EventsRequest{Since: since, Limit: limit})
					if err != nil {
						return err
					}
					if len(resp.Events) == 0 {
						fmt.Fprintln(stdout, "No events")
						return nil
					}
					printEvents(stdout, resp.Events)
					return nil
				}
				return followEvents(cmd, client, stdout, since, limit)
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep waiting for new events")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events per batch")
	cmd.Flags().Uint64Var(&since, "since", 0, "Only show events after this sequence number")
	return cmd
}

func followEvents(cmd *cobra.Command, client *ipc.Client, out io.Writer, since uint64, limit int) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cursor := since
	for {
		resp, err := client.Events(ctx, ipc.EventsRequest{
			Since:      cursor,
			Limit:      limit,
			WaitMillis: followWaitMillis,
		})
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
		printEvents(out, resp.Events)
		if n := len(resp.Events); n > 0 {
			cursor = resp.Events[n-1].Sequence
		} else if resp.Next < cursor {
			// Daemon restarted and its sequence began again.
			cursor = 0
		}
	}
}

func printEvents(out io.Writer, events []ipc.Event) {
	for _, evt := range events {
		fmt.Fprintf(out, "%s #%d [%s] %s\n",
			evt.Timestamp.Local().Format(time.DateTime),
			evt.Sequence,
			evt.Kind,
			evt.Message,
		)
	}
}
