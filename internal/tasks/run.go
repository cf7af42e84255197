package tasks

import (
	"context"
	"fmt"

	"github.com/scoutfm/scoutfm/internal/contacts"
	"github.com/scoutfm/scoutfm/internal/models"
	"github.com/scoutfm/scoutfm/internal/shared"
)

const pageSize = 20

// run is the job worker. It owns every mutation of the job after submission
// and must be the only goroutine calling start, finish or appendResult.
func (e *ScoutEngine) run(ctx context.Context, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("job worker panicked", "job", job.ID, "panic", r)
			job.pushLog(fmt.Sprintf("Internal error: %v", r))
			job.finish(StatusError)
		}
		e.archiveJob(job)
	}()

	job.start(len(job.Params.Genres))
	job.pushLog("Job started.")

	token, err := e.catalog.Token(ctx)
	if err != nil {
		e.logger.Error("credential acquisition failed", "job", job.ID, "err", err)
		job.pushLog(fmt.Sprintf("Auth error: %v", err))
		job.finish(StatusError)
		return
	}

	seen := make(map[string]struct{})
	for _, genre := range job.Params.Genres {
		if job.Cancelled() {
			break
		}
		query := genre + " playlist"
		job.pushLog(fmt.Sprintf("%s search: %s", e.catalog.Name(), query))
		e.scanGenre(ctx, job, token, genre, query, seen)
		job.incrementProgress()
	}

	if job.Cancelled() {
		job.pushLog("Job cancelled.")
		job.finish(StatusCancelled)
		return
	}
	job.pushLog("Job finished.")
	job.finish(StatusDone)
}

// scanGenre pages through catalog search results for one genre, enriching each
// playlist not yet seen in this job.
func (e *ScoutEngine) scanGenre(ctx context.Context, job *Job, token, genre, query string, seen map[string]struct{}) {
	for page := 0; page < e.maxPages; page++ {
		if job.Cancelled() {
			return
		}
		results, err := e.catalog.SearchPlaylists(ctx, query, token, pageSize, page*pageSize)
		if err != nil {
			job.pushLog(fmt.Sprintf("%s API error: %v", e.catalog.Name(), err))
			return
		}
		if results == nil || len(results.Items) == 0 {
			return
		}
		for _, item := range results.Items {
			if job.Cancelled() {
				return
			}
			if item.ID == "" {
				continue
			}
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			e.enrichItem(ctx, job, token, genre, item.ID)
		}
	}
}

// enrichItem fetches a playlist's detail, applies the follower threshold and
// collects contacts from the description and up to two targeted web searches.
// Detail failures skip the item silently; the job keeps going.
func (e *ScoutEngine) enrichItem(ctx context.Context, job *Job, token, genre, id string) {
	detail, err := e.catalog.PlaylistDetail(ctx, id, token)
	if err != nil || detail == nil {
		return
	}
	if detail.FollowerTotal() < job.Params.MinFollowers {
		return
	}

	result := models.PlaylistResult{
		Genre:        genre,
		PlaylistName: detail.Name,
		PlaylistURL:  detail.URL(),
		Followers:    detail.FollowerTotal(),
		OwnerName:    detail.Owner.Name(),
		OwnerID:      detail.Owner.ID,
		OwnerURL:     detail.Owner.URL(),
	}

	if rec, ok := e.descriptionContacts(detail.Description, result.OwnerName); ok {
		result.Contacts = append(result.Contacts, rec)
	}

	queries := []string{
		result.OwnerName + " contact OR kontakt OR impressum email submit music",
		result.PlaylistName + " contact OR kontakt OR submit music email",
	}
	for _, wq := range queries {
		if job.Cancelled() {
			break
		}
		for _, link := range e.discovery.Search(ctx, wq) {
			if rec, ok := e.pageContacts(ctx, link, result.OwnerName); ok {
				result.Contacts = append(result.Contacts, rec)
			}
		}
	}

	job.appendResult(result)
}

// descriptionContacts extracts from the catalog item's own description text.
// Always attempted; yields a record only when anything was found.
func (e *ScoutEngine) descriptionContacts(description, ownerName string) (models.ContactRecord, bool) {
	emails, urls := contacts.FromDescription(description)
	if len(emails) == 0 && len(urls) == 0 {
		return models.ContactRecord{}, false
	}
	var verified []string
	for _, email := range emails {
		if contacts.Verify(email, "https://open.spotify.com", ownerName) {
			verified = append(verified, email)
		}
	}
	return models.ContactRecord{
		SourceURL: models.DescriptionSource,
		Emails:    verified,
		RawEmails: emails,
		Socials:   contacts.SocialOnly(urls),
		Verified:  len(verified) > 0,
	}, true
}

// pageContacts fetches one discovered link and extracts contact data from it.
// Fetch failures are silently skipped; a record is kept only when it carries a
// verified email or at least one social link.
func (e *ScoutEngine) pageContacts(ctx context.Context, link, ownerName string) (models.ContactRecord, bool) {
	body, err := e.fetcher.Get(ctx, link, map[string]string{"User-Agent": shared.UserAgent})
	if err != nil {
		return models.ContactRecord{}, false
	}
	emails, socials := contacts.FromPage(body)
	var verified []string
	for _, email := range emails {
		if contacts.Verify(email, link, ownerName) {
			verified = append(verified, email)
		}
	}
	if len(verified) == 0 && len(socials) == 0 {
		return models.ContactRecord{}, false
	}
	return models.ContactRecord{
		SourceURL: link,
		Emails:    verified,
		RawEmails: emails,
		Socials:   socials,
		Verified:  len(verified) > 0,
	}, true
}

// archiveJob persists a terminal job to the configured archive, if any.
func (e *ScoutEngine) archiveJob(job *Job) {
	if e.archive == nil || !job.Status().Terminal() {
		return
	}
	if err := e.archive.SaveJob(job.Record(), job.Results()); err != nil {
		e.logger.Error("failed to archive job", "job", job.ID, "err", err)
	}
}
