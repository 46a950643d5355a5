package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mupacs/internal/api"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "import PATH",
		Short: "Submit a file or folder for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			job, err := client.AddImport(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Import accepted: %s (%s)\n", job.Path, job.ID)

			if !wait {
				return nil
			}
			final, err := waitForJob(cmd.Context(), client, job.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Import finished: %d imported, %d duplicates, %d failed, %d skipped\n",
				final.Imported, final.Duplicates, final.Failures, final.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the import completes")
	return cmd
}

// waitForJob polls the daemon until the job leaves the running state.
func waitForJob(ctx context.Context, client importClient, id string) (api.ImportJob, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		jobs, err := client.ListImports(ctx)
		if err != nil {
			return api.ImportJob{}, err
		}
		for _, job := range jobs {
			if job.ID == id && job.State == "done" {
				return job, nil
			}
		}
		select {
		case <-ctx.Done():
			return api.ImportJob{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// importClient is the slice of the daemon client the wait loop needs.
type importClient interface {
	ListImports(ctx context.Context) ([]api.ImportJob, error)
}

func newImportsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List tracked import jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			jobs, err := client.ListImports(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No import jobs tracked.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderImportTable(jobs))
			return nil
		},
	}

	cmd.AddCommand(newImportsCleanupCommand(ctx))
	return cmd
}

func newImportsCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Drop completed import jobs from tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			removed, err := client.CleanupImports(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed import(s)\n", removed)
			return nil
		},
	}
}

func renderImportTable(jobs []api.ImportJob) string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.State,
			job.Path,
			strconv.Itoa(job.Imported),
			strconv.Itoa(job.Duplicates),
			strconv.Itoa(job.Failures),
			strconv.Itoa(job.Skipped),
		})
	}
	return renderTable(
		[]string{"State", "Path", "Imported", "Duplicates", "Failed", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}
