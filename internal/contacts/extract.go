// package contacts extracts and verifies contact information scraped from web
// pages and catalog playlist descriptions.
//
// Extraction is best-effort and over-inclusive; the verifier filters false
// positives downstream.
package contacts

import (
	"regexp"
	"sort"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+\-]+@[a-zA-Z0-9\-]+\.[a-zA-Z0-9.\-]+`)
	urlPattern   = regexp.MustCompile(`https?://[^\s"'<>]+`)

	// Known social platform profile URL shapes. A profile path is required,
	// trailing slash and www. are optional.
	socialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(https?://(www\.)?instagram\.com/[A-Za-z0-9_.]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?facebook\.com/[A-Za-z0-9_.-]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?x\.com/[A-Za-z0-9_.-]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?twitter\.com/[A-Za-z0-9_.-]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?soundcloud\.com/[A-Za-z0-9_.-]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?bandcamp\.com/[A-Za-z0-9_.-]+)/?`),
		regexp.MustCompile(`(https?://(www\.)?youtube\.com/[A-Za-z0-9_.\-/?=&]+)`),
	}
)

// FromPage extracts email addresses and social profile URLs from page text.
// Both lists are deduplicated and sorted for determinism.
func FromPage(htmlText string) (emails, socials []string) {
	emailSet := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(htmlText, -1) {
		emailSet[m] = struct{}{}
	}

	socialSet := make(map[string]struct{})
	for _, rx := range socialPatterns {
		for _, m := range rx.FindAllStringSubmatch(htmlText, -1) {
			socialSet[m[1]] = struct{}{}
		}
	}

	return sortedKeys(emailSet), sortedKeys(socialSet)
}

// FromDescription extracts contacts from a catalog playlist description.
// Descriptions often carry bare links without markup, so in addition to the
// social platform matches every bare URL is kept.
func FromDescription(text string) (emails, urls []string) {
	emailSet := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		emailSet[m] = struct{}{}
	}

	urlSet := make(map[string]struct{})
	for _, m := range urlPattern.FindAllString(text, -1) {
		urlSet[m] = struct{}{}
	}
	for _, rx := range socialPatterns {
		for _, m := range rx.FindAllStringSubmatch(text, -1) {
			urlSet[m[1]] = struct{}{}
		}
	}

	return sortedKeys(emailSet), sortedKeys(urlSet)
}

// SocialOnly filters a URL list down to entries on known social platforms.
func SocialOnly(urls []string) []string {
	var out []string
	for _, u := range urls {
		for _, rx := range socialPatterns {
			if rx.MatchString(u) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
