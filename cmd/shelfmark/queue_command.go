package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Request scheduler utilities",
	}

	queueCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show scheduler configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			status := app.queue.Status()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Max concurrent: %d\n", status.MaxConcurrent)
			fmt.Fprintf(out, "Running:        %d\n", status.Running)
			fmt.Fprintf(out, "Queued:         %d\n", status.Queued)
			fmt.Fprintf(out, "Pending keys:   %d\n", status.Pending)
			return nil
		},
	})

	return queueCmd
}
