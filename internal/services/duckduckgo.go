// DuckDuckGo HTML endpoint implementation of [Discovery]
//
// This is a fragile adapter with a narrow contract: given the provider's
// result markup, return raw result URLs. The parsing strategy stays behind the
// [Discovery] interface so it can be swapped without touching the job engine.
package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/scoutfm/scoutfm/internal/fetch"
	"github.com/scoutfm/scoutfm/internal/shared"
)

const duckduckgoHTMLURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoService implements [Discovery] against the DDG HTML lite endpoint.
type DuckDuckGoService struct {
	fetcher   *fetch.Fetcher
	searchURL string
	maxLinks  int
	logger    *log.Logger
}

// NewDuckDuckGoService creates a web discovery client returning at most
// maxLinks result URLs per query.
func NewDuckDuckGoService(fetcher *fetch.Fetcher, maxLinks int, logger *log.Logger) *DuckDuckGoService {
	if maxLinks <= 0 {
		maxLinks = 6
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DuckDuckGoService{
		fetcher:   fetcher,
		searchURL: duckduckgoHTMLURL,
		maxLinks:  maxLinks,
		logger:    logger,
	}
}

func (d *DuckDuckGoService) Name() string {
	return "DuckDuckGo"
}

// Search queries DDG and extracts result URLs. Any failure yields an empty
// list; search failures are non-fatal to the enrichment pipeline.
func (d *DuckDuckGoService) Search(ctx context.Context, query string) []string {
	params := url.Values{
		"q":  {query},
		"kl": {"wt-wt"},
		"kp": {"1"},
	}

	body, err := d.fetcher.Get(ctx, d.searchURL+"?"+params.Encode(), map[string]string{
		"User-Agent": shared.UserAgent,
	})
	if err != nil {
		d.logger.Debug("web search failed", "query", query, "err", err)
		return nil
	}

	return parseResultLinks(body, d.maxLinks)
}

// parseResultLinks extracts result anchors from a DDG results page.
func parseResultLinks(htmlText string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a.result__a").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if real := unwrapRedirect(href); real != "" {
			links = append(links, real)
		}
		return len(links) < max
	})

	return links
}

// unwrapRedirect recovers the destination URL from DDG's redirect wrapper
// (//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com&rut=...) and discards
// the URL fragment.
func unwrapRedirect(href string) string {
	if strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				href = uddg
			}
		}
	}

	if !strings.HasPrefix(href, "http") {
		return ""
	}

	if i := strings.Index(href, "#"); i >= 0 {
		href = href[:i]
	}
	return href
}
