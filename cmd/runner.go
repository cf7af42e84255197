package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/repositories"
	"github.com/scoutfm/scoutfm/internal/services"
	"github.com/scoutfm/scoutfm/internal/shared"
	"github.com/scoutfm/scoutfm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	catalog   services.Catalog
	discovery services.Discovery
	fetcher   *fetch.Fetcher
	engine    *tasks.ScoutEngine
	logger    *log.Logger
	output    io.Writer

	db      *sql.DB
	archive *repositories.JobRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config
	Catalog   services.Catalog
	Discovery services.Discovery
	Fetcher   *fetch.Fetcher
	Archive   *repositories.JobRepository
	Logger    *log.Logger
	Output    io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New(opts.Config.Scraper, opts.Logger)
	}

	engine := tasks.NewScoutEngine(tasks.EngineOpts{
		Catalog:   opts.Catalog,
		Discovery: opts.Discovery,
		Fetcher:   opts.Fetcher,
		Archive:   archiveOrNil(opts.Archive),
		Logger:    opts.Logger,
		MaxPages:  opts.Config.Scraper.MaxCatalogPages,
	})

	return &Runner{
		config:    opts.Config,
		catalog:   opts.Catalog,
		discovery: opts.Discovery,
		fetcher:   opts.Fetcher,
		engine:    engine,
		logger:    opts.Logger,
		output:    opts.Output,
		archive:   opts.Archive,
	}
}

// archiveOrNil keeps a typed-nil repository out of the engine's interface field.
func archiveOrNil(repo *repositories.JobRepository) tasks.Archiver {
	if repo == nil {
		return nil
	}
	return repo
}

// openArchive opens the configured archive database and rebuilds the engine
// with archiving enabled. Safe to call more than once.
func (r *Runner) openArchive() error {
	if r.archive != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := repositories.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.archive = repositories.NewJobRepository(db)
	r.engine = tasks.NewScoutEngine(tasks.EngineOpts{
		Catalog:   r.catalog,
		Discovery: r.discovery,
		Fetcher:   r.fetcher,
		Archive:   r.archive,
		Logger:    r.logger,
		MaxPages:  r.config.Scraper.MaxCatalogPages,
	})
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, scrapeCommand, jobsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
