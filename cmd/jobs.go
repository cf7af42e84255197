package main

import (
	"context"
	"fmt"

	"github.com/scoutfm/scoutfm/internal/formatter"
	"github.com/scoutfm/scoutfm/internal/shared"
	"github.com/urfave/cli/v3"
)

// JobsList prints all archived jobs.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openArchive(); err != nil {
		return err
	}
	defer r.db.Close()

	records, err := r.archive.ListJobs()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No archived jobs.\n")
		return nil
	}
	for _, record := range records {
		r.writePlain("%s  %-9s  %3d results  %s\n",
			record.ID, record.Status, record.ResultCount, record.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// JobsShow prints one archived job record.
func (r *Runner) JobsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id is required", shared.ErrMissingArgument)
	}

	if err := r.openArchive(); err != nil {
		return err
	}
	defer r.db.Close()

	record, err := r.archive.GetJob(id)
	if err != nil {
		return err
	}
	return r.writeJSON(record, true)
}

// JobsExport writes an archived job's flattened results to a file.
func (r *Runner) JobsExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id is required", shared.ErrMissingArgument)
	}
	output := cmd.String("output")
	if output == "" {
		output = id + ".csv"
	}

	if err := r.openArchive(); err != nil {
		return err
	}
	defer r.db.Close()

	results, err := r.archive.GetResults(id)
	if err != nil {
		return err
	}

	if err := writeExport(output, formatter.Flatten(results)); err != nil {
		return err
	}
	r.writePlain("✓ Exported %d results to %s\n", len(results), output)
	return nil
}
