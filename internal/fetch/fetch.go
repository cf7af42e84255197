// package fetch implements the rate-limited HTTP fetcher used for all outbound
// scraper traffic.
//
// Every request waits out a per-destination cooldown keyed on the target host,
// then a small global cooldown shared across all destinations, before the
// request is sent. Failed requests are retried a bounded number of times with
// linearly increasing backoff. The cooldown state is process-wide: concurrent
// jobs share one Fetcher so third-party hosts see one combined request rate.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/shared"
	"golang.org/x/time/rate"
)

// retryBaseWait is the backoff unit between attempts; attempt n waits n*retryBaseWait.
const retryBaseWait = 250 * time.Millisecond

// Fetcher issues outbound GET/POST requests with cooldowns and bounded retries.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	cooldown time.Duration
	retries  int
	logger   *log.Logger

	mu      sync.Mutex
	lastHit map[string]time.Time

	// Injectable clock, for cooldown tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Fetcher from scraper settings.
func New(cfg shared.ScraperConfig, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if gc := cfg.GlobalCooldown(); gc > 0 {
		limiter = rate.NewLimiter(rate.Every(gc), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.HTTPTimeout()},
		limiter:  limiter,
		cooldown: cfg.PerDomainCooldown(),
		retries:  cfg.HTTPRetries,
		logger:   logger,
		lastHit:  make(map[string]time.Time),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Get fetches the URL and returns the response body as text.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	return f.do(ctx, http.MethodGet, rawURL, headers, "", "")
}

// PostForm sends a form-encoded POST and returns the response body as text.
func (f *Fetcher) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) (string, error) {
	return f.do(ctx, http.MethodPost, rawURL, headers, form.Encode(), "application/x-www-form-urlencoded")
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string, headers map[string]string, body, contentType string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if attempt > 0 {
			f.sleep(time.Duration(attempt) * retryBaseWait)
		}

		text, err := f.attempt(ctx, method, rawURL, headers, body, contentType)
		if err == nil {
			return text, nil
		}
		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt+1, "err", err)
	}

	return "", fmt.Errorf("%w: %s %s: %w", shared.ErrFetchFailed, method, rawURL, lastErr)
}

// attempt performs one paced request. Pacing runs on every attempt so retries
// cannot bypass the cooldown.
func (f *Fetcher) attempt(ctx context.Context, method, rawURL string, headers map[string]string, body, contentType string) (string, error) {
	f.pace(rawURL)

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", shared.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// pace blocks until the per-destination cooldown for the URL's host has
// elapsed. The destination's slot is reserved under the lock before sleeping,
// so concurrent callers queue behind each other instead of both passing the
// check; the reservation stands even if the request that follows fails.
func (f *Fetcher) pace(rawURL string) {
	host := destinationKey(rawURL)

	f.mu.Lock()
	now := f.now()
	next := now
	if last, seen := f.lastHit[host]; seen {
		if ready := last.Add(f.cooldown); ready.After(now) {
			next = ready
		}
	}
	f.lastHit[host] = next
	f.mu.Unlock()

	if wait := next.Sub(now); wait > 0 {
		f.sleep(wait)
	}
}

// destinationKey normalizes a URL to its case-insensitive host.
func destinationKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
