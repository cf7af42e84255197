package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with the schema applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleRecord() models.JobRecord {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.JobRecord{
		ID:           "job_1748779200000_abc12345",
		Status:       "done",
		Genres:       []string{"techno", "melodic techno"},
		MinFollowers: 500,
		ResultCount:  1,
		CreatedAt:    created,
		FinishedAt:   created.Add(90 * time.Second),
	}
}

func sampleResults() []models.PlaylistResult {
	return []models.PlaylistResult{
		{
			Genre:        "techno",
			PlaylistName: "Dark Warehouse",
			PlaylistURL:  "https://open.spotify.com/playlist/p1",
			Followers:    4200,
			OwnerName:    "Berlin Crew",
			OwnerID:      "u1",
			OwnerURL:     "https://open.spotify.com/user/u1",
			Contacts: []models.ContactRecord{
				{
					SourceURL: "https://berlincrew.example/contact",
					Emails:    []string{"booking@berlincrew.example"},
					RawEmails: []string{"booking@berlincrew.example"},
					Socials:   []string{"https://soundcloud.com/berlincrew"},
					Verified:  true,
				},
			},
		},
	}
}

func TestJobRepository(t *testing.T) {
	t.Run("SaveJob", func(t *testing.T) {
		t.Run("Round Trip", func(t *testing.T) {
			repo := NewJobRepository(setupTestDB(t))
			record := sampleRecord()

			if err := repo.SaveJob(record, sampleResults()); err != nil {
				t.Fatalf("failed to save job: %v", err)
			}

			got, err := repo.GetJob(record.ID)
			if err != nil {
				t.Fatalf("failed to get job: %v", err)
			}
			if got.Status != "done" || got.MinFollowers != 500 || got.ResultCount != 1 {
				t.Errorf("unexpected record %+v", got)
			}
			if len(got.Genres) != 2 || got.Genres[1] != "melodic techno" {
				t.Errorf("genres lost in round trip: %v", got.Genres)
			}
			if !got.CreatedAt.Equal(record.CreatedAt) {
				t.Errorf("created_at mismatch: %v != %v", got.CreatedAt, record.CreatedAt)
			}

			results, err := repo.GetResults(record.ID)
			if err != nil {
				t.Fatalf("failed to get results: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0].PlaylistName != "Dark Warehouse" {
				t.Errorf("unexpected result %+v", results[0])
			}
			contacts := results[0].Contacts
			if len(contacts) != 1 || !contacts[0].Verified || contacts[0].Emails[0] != "booking@berlincrew.example" {
				t.Errorf("contacts lost in round trip: %+v", contacts)
			}
		})

		t.Run("Resave Replaces", func(t *testing.T) {
			repo := NewJobRepository(setupTestDB(t))
			record := sampleRecord()

			if err := repo.SaveJob(record, sampleResults()); err != nil {
				t.Fatalf("failed to save job: %v", err)
			}

			record.Status = "cancelled"
			if err := repo.SaveJob(record, nil); err != nil {
				t.Fatalf("failed to resave job: %v", err)
			}

			got, err := repo.GetJob(record.ID)
			if err != nil {
				t.Fatalf("failed to get job: %v", err)
			}
			if got.Status != "cancelled" {
				t.Errorf("expected the resave to win, got %q", got.Status)
			}
			results, err := repo.GetResults(record.ID)
			if err != nil {
				t.Fatalf("failed to get results: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("expected previous results cleared, got %d", len(results))
			}
		})

		t.Run("Rejects Invalid Record", func(t *testing.T) {
			repo := NewJobRepository(setupTestDB(t))
			record := sampleRecord()
			record.Genres = nil

			if err := repo.SaveJob(record, nil); err == nil {
				t.Error("expected a validation error")
			}
		})
	})

	t.Run("GetJob", func(t *testing.T) {
		t.Run("Unknown ID", func(t *testing.T) {
			repo := NewJobRepository(setupTestDB(t))
			if _, err := repo.GetJob("job_nope"); !errors.Is(err, shared.ErrJobNotFound) {
				t.Errorf("expected ErrJobNotFound, got %v", err)
			}
		})
	})

	t.Run("ListJobs", func(t *testing.T) {
		repo := NewJobRepository(setupTestDB(t))

		first := sampleRecord()
		second := sampleRecord()
		second.ID = "job_1748779300000_def67890"
		second.CreatedAt = first.CreatedAt.Add(time.Minute)

		if err := repo.SaveJob(first, nil); err != nil {
			t.Fatalf("failed to save job: %v", err)
		}
		if err := repo.SaveJob(second, nil); err != nil {
			t.Fatalf("failed to save job: %v", err)
		}

		records, err := repo.ListJobs()
		if err != nil {
			t.Fatalf("failed to list jobs: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].ID != second.ID {
			t.Errorf("expected newest job first, got %s", records[0].ID)
		}
	})

	t.Run("DeleteJob", func(t *testing.T) {
		repo := NewJobRepository(setupTestDB(t))
		record := sampleRecord()

		if err := repo.SaveJob(record, sampleResults()); err != nil {
			t.Fatalf("failed to save job: %v", err)
		}
		if err := repo.DeleteJob(record.ID); err != nil {
			t.Fatalf("failed to delete job: %v", err)
		}
		if _, err := repo.GetJob(record.ID); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound after delete, got %v", err)
		}
		if err := repo.DeleteJob(record.ID); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound on double delete, got %v", err)
		}
	})
}
