// package services defines the third-party clients the scout pipeline consumes
//
// Spotify (catalog search + playlist detail), DuckDuckGo (free-text web search)
package services

import "context"

// Catalog is the playlist search and detail surface of the music catalog.
type Catalog interface {
	// Token returns a valid access credential, exchanging configured client
	// credentials when the cached one is absent or close to expiry.
	Token(ctx context.Context) (string, error)

	// SearchPlaylists performs a single paged search call. The caller drives
	// pagination via limit/offset.
	SearchPlaylists(ctx context.Context, query, token string, limit, offset int) (*PlaylistPage, error)

	// PlaylistDetail fetches one playlist. Callers treat a missing or
	// malformed response as "no usable data" rather than a hard failure.
	PlaylistDetail(ctx context.Context, id, token string) (*PlaylistDetail, error)

	// Name returns the catalog name (e.g. "Spotify")
	Name() string
}

// Discovery issues free-text web searches and returns candidate result URLs.
type Discovery interface {
	// Search returns up to a configured number of result URLs. Search failures
	// are non-fatal to the pipeline, so it returns an empty list instead of an
	// error.
	Search(ctx context.Context, query string) []string

	// Name returns the search provider name (e.g. "DuckDuckGo")
	Name() string
}

type followerCount struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// PlaylistOwner represents the catalog account owning a playlist.
type PlaylistOwner struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// URL returns the owner's public profile URL.
func (o PlaylistOwner) URL() string {
	return o.ExternalURLs.Spotify
}

// Name returns the owner's display name, falling back to the account id.
func (o PlaylistOwner) Name() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

// PlaylistItem represents one playlist entry in a search results page.
type PlaylistItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// PlaylistPage represents one page of playlist search results.
type PlaylistPage struct {
	Items  []PlaylistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// PlaylistDetail represents a full playlist object with follower counts.
type PlaylistDetail struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Owner        PlaylistOwner `json:"owner"`
	Followers    followerCount `json:"followers"`
	ExternalURLs externalURLs  `json:"external_urls"`
}

// FollowerTotal returns the playlist's follower count, never negative.
func (d *PlaylistDetail) FollowerTotal() int {
	if d.Followers.Total < 0 {
		return 0
	}
	return d.Followers.Total
}

// URL returns the playlist's public URL.
func (d *PlaylistDetail) URL() string {
	return d.ExternalURLs.Spotify
}
