// package repositories provides the persistence layer for finished jobs.
//
// JobRepository archives a job's summary record and its result rows to SQLite
// so exports survive process restarts. Contacts are stored as a JSON column
// per result row; they are read back whole, never queried into.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	genres TEXT NOT NULL,
	min_followers INTEGER NOT NULL DEFAULT 0,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS job_results (
	job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	genre TEXT NOT NULL,
	playlist_name TEXT NOT NULL,
	playlist_url TEXT NOT NULL,
	followers INTEGER NOT NULL DEFAULT 0,
	owner_name TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	owner_url TEXT NOT NULL,
	contacts TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (job_id, position)
);
`

// RunMigrations creates the archive tables if they do not exist
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// JobRepository persists finished jobs and their result rows.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// SaveJob writes a job record and its results in one transaction. Saving the
// same job id again replaces the previous archive entry.
func (r *JobRepository) SaveJob(record models.JobRecord, results []models.PlaylistResult) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var finishedAt any
	if !record.FinishedAt.IsZero() {
		finishedAt = record.FinishedAt
	}

	_, err = tx.Exec(`
		INSERT INTO jobs (id, status, genres, min_followers, result_count, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			genres = excluded.genres,
			min_followers = excluded.min_followers,
			result_count = excluded.result_count,
			finished_at = excluded.finished_at
	`,
		record.ID,
		record.Status,
		strings.Join(record.Genres, ","),
		record.MinFollowers,
		record.ResultCount,
		record.CreatedAt,
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM job_results WHERE job_id = ?", record.ID); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}

	for i, result := range results {
		contacts, err := json.Marshal(result.Contacts)
		if err != nil {
			return fmt.Errorf("failed to encode contacts: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO job_results (job_id, position, genre, playlist_name, playlist_url, followers, owner_name, owner_id, owner_url, contacts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			record.ID,
			i,
			result.Genre,
			result.PlaylistName,
			result.PlaylistURL,
			result.Followers,
			result.OwnerName,
			result.OwnerID,
			result.OwnerURL,
			string(contacts),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	return nil
}

// GetJob retrieves an archived job record by ID
func (r *JobRepository) GetJob(id string) (models.JobRecord, error) {
	query := `
		SELECT id, status, genres, min_followers, result_count, created_at, finished_at
		FROM jobs
		WHERE id = ?
	`

	var record models.JobRecord
	var genres string
	var finishedAt sql.NullTime
	err := r.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.Status,
		&genres,
		&record.MinFollowers,
		&record.ResultCount,
		&record.CreatedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return models.JobRecord{}, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if err != nil {
		return models.JobRecord{}, fmt.Errorf("failed to query job: %w", err)
	}

	record.Genres = splitGenres(genres)
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time
	}
	return record, nil
}

// ListJobs returns all archived job records, newest first
func (r *JobRepository) ListJobs() ([]models.JobRecord, error) {
	query := `
		SELECT id, status, genres, min_followers, result_count, created_at, finished_at
		FROM jobs
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var records []models.JobRecord
	for rows.Next() {
		var record models.JobRecord
		var genres string
		var finishedAt sql.NullTime
		if err := rows.Scan(
			&record.ID,
			&record.Status,
			&genres,
			&record.MinFollowers,
			&record.ResultCount,
			&record.CreatedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		record.Genres = splitGenres(genres)
		if finishedAt.Valid {
			record.FinishedAt = finishedAt.Time
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return records, nil
}

// GetResults retrieves the archived result rows of a job in discovery order
func (r *JobRepository) GetResults(jobID string) ([]models.PlaylistResult, error) {
	if _, err := r.GetJob(jobID); err != nil {
		return nil, err
	}

	query := `
		SELECT genre, playlist_name, playlist_url, followers, owner_name, owner_id, owner_url, contacts
		FROM job_results
		WHERE job_id = ?
		ORDER BY position
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.PlaylistResult
	for rows.Next() {
		var result models.PlaylistResult
		var contacts string
		if err := rows.Scan(
			&result.Genre,
			&result.PlaylistName,
			&result.PlaylistURL,
			&result.Followers,
			&result.OwnerName,
			&result.OwnerID,
			&result.OwnerURL,
			&contacts,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(contacts), &result.Contacts); err != nil {
			return nil, fmt.Errorf("failed to decode contacts: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return results, nil
}

func splitGenres(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// DeleteJob removes an archived job and its results
func (r *JobRepository) DeleteJob(id string) error {
	result, err := r.db.Exec("DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}

	// ON DELETE CASCADE requires foreign_keys pragma; delete explicitly so the
	// archive behaves the same either way.
	if _, err := r.db.Exec("DELETE FROM job_results WHERE job_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete job results: %w", err)
	}

	return nil
}
