package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scoutfm/scoutfm/internal/formatter"
	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/shared"
	"github.com/scoutfm/scoutfm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Scrape runs one scout job to completion, streaming its log to the terminal,
// and writes the flattened results to the requested output file.
func (r *Runner) Scrape(ctx context.Context, cmd *cli.Command) error {
	if err := r.openArchive(); err != nil {
		r.logger.Warn("archive unavailable, results will not be persisted", "err", err)
	}
	if r.db != nil {
		defer r.db.Close()
	}

	genres := cmd.StringSlice("genre")
	if len(genres) == 0 {
		genres = defaultGenres
	}

	id, err := r.engine.Submit(tasks.Params{
		Genres:       genres,
		MinFollowers: int(cmd.Int("min-followers")),
	})
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}
	r.writePlain("Job %s\n", id)

	events, err := r.engine.Events(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to open event stream: %w", err)
	}

	status := ""
	for event := range events {
		switch event.Type {
		case "log":
			r.writePlain("  %s\n", event.Msg)
		case "done":
			status = event.Status
		}
	}
	if status == "" {
		// Stream ended without a terminal event: the context was cancelled.
		r.engine.Cancel(id)
		return ctx.Err()
	}

	job, err := r.engine.Job(id)
	if err != nil {
		return err
	}
	results := job.Results()
	r.writePlain("Status: %s, %d playlists\n", status, len(results))

	output := cmd.String("output")
	if output == "" {
		return nil
	}
	if err := writeExport(output, formatter.Flatten(results)); err != nil {
		return err
	}
	r.writePlain("✓ Exported to %s\n", output)
	return nil
}

// writeExport renders rows in the format selected by the file extension.
func writeExport(path string, rows []models.Row) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		var err error
		if data, err = formatter.ExportToCSV(rows); err != nil {
			return fmt.Errorf("failed to render CSV: %w", err)
		}
	case ".html":
		data = formatter.ExportToHTML(rows)
	default:
		return fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidInput, filepath.Ext(path))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
