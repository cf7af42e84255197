package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/scoutfm/scoutfm/internal/tasks"
	"github.com/scoutfm/scoutfm/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI submits a scout job and follows it in the interactive monitor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.openArchive(); err != nil {
		r.logger.Warn("archive unavailable, results will not be persisted", "err", err)
	}
	if r.db != nil {
		defer r.db.Close()
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join("tmp", "scoutfm-tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			defer f.Close()
			r.logger.SetOutput(f)
		}
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

	model, err := ui.NewModel(ctx, r.engine, id)
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	// Quitting the monitor abandons the job; stop its worker too.
	if job, err := r.engine.Job(id); err == nil && !job.Status().Terminal() {
		r.engine.Cancel(id)
	}
	return nil
}
