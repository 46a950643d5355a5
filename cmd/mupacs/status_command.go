package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and archive status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon:    running=%s pid=%d\n", yesNo(status.Running), status.PID)
			fmt.Fprintf(out, "Store:     %s\n", status.StorePath)
			fmt.Fprintf(out, "Lock:      %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Archive:   %d patients, %d studies, %d series, %d instances\n",
				status.Counts.Patients, status.Counts.Studies,
				status.Counts.Series, status.Counts.Instances)
			if len(status.Imports) > 0 {
				fmt.Fprintln(out, renderImportTable(status.Imports))
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
