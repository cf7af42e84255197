package contacts

import (
	"net/url"
	"strings"
)

// trustedPlatforms are music-industry contact services whose addresses (and
// hosted pages) are considered genuine submission channels.
var trustedPlatforms = map[string]bool{
	"soundplate.com":      true,
	"dailyplaylists.com":  true,
	"groover.co":          true,
	"artist.tools":        true,
	"droptrack.com":       true,
	"electronicradar.com": true,
	"imusician.pro":       true,
}

// freeMailProviders are consumer mail domains; an address there scraped from an
// arbitrary page is most likely noise.
var freeMailProviders = map[string]bool{
	"gmail.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"yahoo.com":      true,
	"proton.me":      true,
	"protonmail.com": true,
	"gmx.de":         true,
	"web.de":         true,
	"icloud.com":     true,
	"me.com":         true,
}

// Verify classifies an extracted email as trustworthy given the page it came
// from and the playlist owner's display name.
//
// Rules are evaluated in order, first match wins:
//  1. email domain equals or is a subdomain of the source page's domain
//  2. email domain is a trusted platform
//  3. an owner name token appears in the email domain
//  4. email domain is a free mail provider -> untrusted
//  5. source page's domain is a trusted platform
//  6. otherwise untrusted
//
// Rule 4 precedes rule 5: a free-mail address is rejected even when it was
// scraped from a trusted platform's page.
func Verify(email, sourceURL, ownerName string) bool {
	emailDomain := domainOfEmail(email)
	sourceDomain := DomainOf(sourceURL)

	if emailDomain == "" {
		return false
	}

	if emailDomain == sourceDomain || (sourceDomain != "" && strings.HasSuffix(emailDomain, "."+sourceDomain)) {
		return true
	}

	if trustedPlatforms[emailDomain] {
		return true
	}

	for _, token := range strings.Fields(strings.ToLower(ownerName)) {
		if strings.Contains(emailDomain, token) {
			return true
		}
	}

	if freeMailProviders[emailDomain] {
		return false
	}

	return trustedPlatforms[sourceDomain]
}

// DomainOf returns the lower-cased host of a URL without any www. prefix.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	return strings.TrimPrefix(host, "www.")
}

func domainOfEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
