// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// tokenRefreshMargin forces a refresh when the cached token has less than
	// this much validity remaining.
	tokenRefreshMargin = 30 * time.Second
)

// SpotifyService implements [Catalog] using the client-credentials grant.
//
// The token cache is process-wide: concurrent jobs share one service instance
// and therefore one credential.
type SpotifyService struct {
	fetcher  *fetch.Fetcher
	creds    shared.SpotifyConfig
	tokenURL string
	baseURL  string
	logger   *log.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewSpotifyService creates a Spotify catalog client. Missing credentials are
// not an error here; Token reports them when a job first needs a credential.
func NewSpotifyService(creds shared.SpotifyConfig, fetcher *fetch.Fetcher, logger *log.Logger) *SpotifyService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		fetcher:  fetcher,
		creds:    creds,
		tokenURL: spotifyTokenURL,
		baseURL:  spotifyBaseURL,
		logger:   logger,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Token returns the cached access token if it has more than 30s of validity
// left, otherwise exchanges client credentials for a fresh one. The exchange
// goes through the shared fetcher so it is paced and retried like every other
// outbound request.
func (s *SpotifyService) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.AccessToken != "" && time.Until(s.token.Expiry) > tokenRefreshMargin {
		return s.token.AccessToken, nil
	}

	if s.creds.ClientID == "" || s.creds.ClientSecret == "" {
		return "", fmt.Errorf("%w: spotify client credentials not configured", shared.ErrMissingCredentials)
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.creds.ClientID},
		"client_secret": {s.creds.ClientSecret},
	}
	body, err := s.fetcher.PostForm(ctx, s.tokenURL, form, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal([]byte(body), &grant); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", shared.ErrAuthFailed, err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access_token", shared.ErrAuthFailed)
	}

	s.token = &oauth2.Token{
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		Expiry:      time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}
	s.logger.Debug("refreshed spotify token", "expiry", s.token.Expiry)
	return s.token.AccessToken, nil
}

// SearchPlaylists performs a single paged playlist search.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query, token string, limit, offset int) (*PlaylistPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{
		"q":      {query},
		"type":   {"playlist"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	var response struct {
		Playlists PlaylistPage `json:"playlists"`
	}
	if err := s.get(ctx, "/search?"+params.Encode(), token, &response); err != nil {
		return nil, err
	}

	return &response.Playlists, nil
}

// PlaylistDetail fetches a single playlist by ID.
func (s *SpotifyService) PlaylistDetail(ctx context.Context, id, token string) (*PlaylistDetail, error) {
	var detail PlaylistDetail
	if err := s.get(ctx, "/playlists/"+url.PathEscape(id), token, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// get performs an authenticated GET through the rate-limited fetcher and
// decodes the JSON response into result.
func (s *SpotifyService) get(ctx context.Context, endpoint, token string, result any) error {
	headers := map[string]string{"Authorization": "Bearer " + token}

	body, err := s.fetcher.Get(ctx, s.baseURL+endpoint, headers)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body), result); err != nil {
		return fmt.Errorf("%w: decode spotify response: %v", shared.ErrFetchFailed, err)
	}
	return nil
}
