package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/repositories"
	"github.com/scoutfm/scoutfm/internal/services"
	"github.com/scoutfm/scoutfm/internal/shared"
	tu "github.com/scoutfm/scoutfm/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner wires a Runner with mock services and a temp archive database.
func newTestRunner(t *testing.T, catalog *tu.MockCatalog, discovery *tu.MockDiscovery) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "scout.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:    config,
		Catalog:   catalog,
		Discovery: discovery,
		Logger:    shared.NewLogger(nil),
		Output:    output,
	})
	return runner, output
}

// runCommand executes one CLI invocation against the runner's command tree.
func runCommand(ctx context.Context, runner *Runner, args ...string) error {
	root := &cli.Command{
		Name:     "scoutfm",
		Commands: runner.register(),
	}
	return root.Run(ctx, append([]string{"scoutfm"}, args...))
}

func oneResultCatalog() *tu.MockCatalog {
	detail := &services.PlaylistDetail{
		ID:   "pl_1",
		Name: "Dark Warehouse",
		Owner: services.PlaylistOwner{
			ID:          "u_1",
			DisplayName: "Berlin Crew",
		},
	}
	detail.Followers.Total = 4200

	return &tu.MockCatalog{
		Pages: map[int]*services.PlaylistPage{
			0: {Items: []services.PlaylistItem{{ID: "pl_1", Name: "Dark Warehouse"}}},
		},
		Details: map[string]*services.PlaylistDetail{"pl_1": detail},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			fetcher := fetch.New(config.Scraper, logger)
			catalog := &tu.MockCatalog{}
			discovery := &tu.MockDiscovery{}

			runner := NewRunner(RunnerOpts{
				Config:    config,
				Catalog:   catalog,
				Discovery: discovery,
				Fetcher:   fetcher,
				Logger:    logger,
				Output:    output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.fetcher != fetcher {
				t.Error("expected fetcher to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.discovery != discovery {
				t.Error("expected discovery to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil fetcher constructs one", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Fetcher: nil})

			if runner.fetcher == nil {
				t.Error("expected default fetcher to be constructed")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 5 {
			t.Errorf("expected 5 commands, got %d", len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("creates config file and database from template", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Chdir(tmpDir)

		runner, output := newTestRunner(t, &tu.MockCatalog{}, &tu.MockDiscovery{})
		configPath := filepath.Join(tmpDir, "config.toml")

		err := runCommand(context.Background(), runner, "setup", "--config", configPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Errorf("expected config file to exist: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Config") {
			t.Errorf("expected setup confirmation, got %q", output.String())
		}
	})

	t.Run("uses existing config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		dbPath := filepath.Join(tmpDir, "archive.db")

		conf := "[database]\npath = \"" + dbPath + "\"\n"
		if err := os.WriteFile(configPath, []byte(conf), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		runner, output := newTestRunner(t, &tu.MockCatalog{}, &tu.MockDiscovery{})

		err := runCommand(context.Background(), runner, "setup", "--config", configPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected archive database to exist: %v", err)
		}
		if !strings.Contains(output.String(), dbPath) {
			t.Errorf("expected database path in output, got %q", output.String())
		}
	})
}

func TestScrapeCommand(t *testing.T) {
	t.Run("runs a job and exports CSV", func(t *testing.T) {
		runner, output := newTestRunner(t, oneResultCatalog(), &tu.MockDiscovery{})
		csvPath := filepath.Join(t.TempDir(), "results.csv")

		err := runCommand(context.Background(), runner, "scrape",
			"--genre", "Techno", "--min-followers", "100", "--output", csvPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		text := output.String()
		if !strings.Contains(text, "Job job_") {
			t.Errorf("expected job id line, got %q", text)
		}
		if !strings.Contains(text, "Job started.") {
			t.Errorf("expected streamed log lines, got %q", text)
		}
		if !strings.Contains(text, "Status: done, 1 playlists") {
			t.Errorf("expected status summary, got %q", text)
		}

		data, err := os.ReadFile(csvPath)
		if err != nil {
			t.Fatalf("expected export file: %v", err)
		}
		if !strings.Contains(string(data), "Dark Warehouse") {
			t.Errorf("expected playlist in export, got %q", string(data))
		}
	})

	t.Run("skips playlists under the follower threshold", func(t *testing.T) {
		runner, output := newTestRunner(t, oneResultCatalog(), &tu.MockDiscovery{})

		err := runCommand(context.Background(), runner, "scrape",
			"--genre", "Techno", "--min-followers", "100000")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Status: done, 0 playlists") {
			t.Errorf("expected empty run, got %q", output.String())
		}
	})

	t.Run("rejects unsupported export extension", func(t *testing.T) {
		runner, _ := newTestRunner(t, oneResultCatalog(), &tu.MockDiscovery{})

		err := runCommand(context.Background(), runner, "scrape",
			"--genre", "Techno", "--min-followers", "100",
			"--output", filepath.Join(t.TempDir(), "results.xlsx"))

		if err == nil {
			t.Fatal("expected error for unsupported extension")
		}
		if !strings.Contains(err.Error(), "unsupported export format") {
			t.Errorf("expected format error, got %v", err)
		}
	})
}

func TestJobsCommands(t *testing.T) {
	// seed one archived job
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "scout.db")

	db, err := shared.NewDatabase(shared.DatabaseConfig{Path: dbPath})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := repositories.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	repo := repositories.NewJobRepository(db)
	record := models.JobRecord{
		ID:           "job_777",
		Status:       "done",
		Genres:       []string{"Techno"},
		MinFollowers: 100,
		ResultCount:  1,
		CreatedAt:    time.Now(),
		FinishedAt:   time.Now(),
	}
	results := []models.PlaylistResult{{
		Genre:        "Techno",
		PlaylistName: "Dark Warehouse",
		PlaylistURL:  "https://open.spotify.com/playlist/pl_1",
		Followers:    4200,
		OwnerName:    "Berlin Crew",
		OwnerID:      "u_1",
	}}
	if err := repo.SaveJob(record, results); err != nil {
		t.Fatalf("failed to seed archive: %v", err)
	}
	db.Close()

	newArchiveRunner := func(t *testing.T) (*Runner, *bytes.Buffer) {
		t.Helper()
		config := shared.DefaultConfig()
		config.Database.Path = dbPath
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:    config,
			Catalog:   &tu.MockCatalog{},
			Discovery: &tu.MockDiscovery{},
			Output:    output,
		})
		return runner, output
	}

	t.Run("list prints archived jobs", func(t *testing.T) {
		runner, output := newArchiveRunner(t)

		if err := runCommand(context.Background(), runner, "jobs", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "job_777") {
			t.Errorf("expected job id in listing, got %q", output.String())
		}
	})

	t.Run("show prints one record as JSON", func(t *testing.T) {
		runner, output := newArchiveRunner(t)

		if err := runCommand(context.Background(), runner, "jobs", "show", "job_777"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"id": "job_777"`) {
			t.Errorf("expected JSON record, got %q", output.String())
		}
	})

	t.Run("show requires an id argument", func(t *testing.T) {
		runner, _ := newArchiveRunner(t)

		err := runCommand(context.Background(), runner, "jobs", "show")
		if err == nil {
			t.Fatal("expected error for missing id")
		}
		if !strings.Contains(err.Error(), "job id is required") {
			t.Errorf("expected missing argument error, got %v", err)
		}
	})

	t.Run("export writes archived results", func(t *testing.T) {
		runner, output := newArchiveRunner(t)
		htmlPath := filepath.Join(t.TempDir(), "export.html")

		err := runCommand(context.Background(), runner, "jobs", "export", "job_777", "--output", htmlPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		data, err := os.ReadFile(htmlPath)
		if err != nil {
			t.Fatalf("expected export file: %v", err)
		}
		if !strings.Contains(string(data), "Dark Warehouse") {
			t.Errorf("expected playlist in export, got %q", string(data))
		}
		if !strings.Contains(output.String(), "✓ Exported 1 results") {
			t.Errorf("expected export confirmation, got %q", output.String())
		}
	})

	t.Run("export fails for unknown job", func(t *testing.T) {
		runner, _ := newArchiveRunner(t)

		err := runCommand(context.Background(), runner, "jobs", "export", "job_nope",
			"--output", filepath.Join(t.TempDir(), "export.csv"))
		if err == nil {
			t.Fatal("expected error for unknown job")
		}
	})
}
