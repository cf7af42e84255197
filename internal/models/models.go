// Package models defines the domain entities for the playlist scout service.
//
// [PlaylistResult] and [ContactRecord] are produced by the job pipeline;
// [Row] is the flattened export shape; [JobRecord] is the archived summary of
// a finished job.
package models

import (
	"fmt"
	"time"
)

// DescriptionSource marks a ContactRecord extracted from the catalog item's
// own description text rather than a scraped web page.
const DescriptionSource = "spotify:description"

// ContactRecord holds one extraction attempt's findings on a distinct source.
// Records are append-only once created.
type ContactRecord struct {
	SourceURL string   `json:"source_url"`
	Emails    []string `json:"emails"`     // verified addresses only
	RawEmails []string `json:"raw_emails"` // everything extracted, pre-verification
	Socials   []string `json:"socials"`
	Verified  bool     `json:"verified"` // true iff Emails is non-empty
}

// PlaylistResult is one qualifying playlist with its enrichment findings.
// Immutable after creation except for contact appends during enrichment.
type PlaylistResult struct {
	Genre        string          `json:"genre"`
	PlaylistName string          `json:"playlist_name"`
	PlaylistURL  string          `json:"playlist_url"`
	Followers    int             `json:"followers"`
	OwnerName    string          `json:"owner_name"`
	OwnerID      string          `json:"owner_id"`
	OwnerURL     string          `json:"owner_url"`
	Contacts     []ContactRecord `json:"contacts"`
}

// Row is one flattened export row: playlist-level fields repeated per contact.
type Row struct {
	Genre           string `json:"genre"`
	PlaylistName    string `json:"playlist_name"`
	PlaylistURL     string `json:"playlist_url"`
	Followers       int    `json:"followers"`
	OwnerName       string `json:"owner_name"`
	OwnerID         string `json:"owner_id"`
	OwnerURL        string `json:"owner_url"`
	ContactSource   string `json:"contact_source"`
	ContactEmails   string `json:"contact_emails"`
	ContactSocials  string `json:"contact_socials"`
	ContactVerified bool   `json:"contact_verified"`
}

// JobRecord is the archived summary of a finished job run.
type JobRecord struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Genres       []string  `json:"genres"`
	MinFollowers int       `json:"min_followers"`
	ResultCount  int       `json:"result_count"`
	CreatedAt    time.Time `json:"created_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Validate checks archive invariants before persistence.
func (j JobRecord) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job record missing id")
	}
	if j.Status == "" {
		return fmt.Errorf("job record %s missing status", j.ID)
	}
	if len(j.Genres) == 0 {
		return fmt.Errorf("job record %s missing genres", j.ID)
	}
	return nil
}
