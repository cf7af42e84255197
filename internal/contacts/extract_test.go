package contacts

import (
	"reflect"
	"testing"
)

func TestFromPage(t *testing.T) {
	t.Run("Deduplicates And Sorts Emails", func(t *testing.T) {
		emails, _ := FromPage("contact me at foo@bar.com or foo@bar.com, also aa@zz.net")

		want := []string{"aa@zz.net", "foo@bar.com"}
		if !reflect.DeepEqual(emails, want) {
			t.Errorf("emails = %v, want %v", emails, want)
		}
	})

	t.Run("Social Profiles", func(t *testing.T) {
		page := `<a href="https://www.instagram.com/peakscrew">ig</a>
		link to https://soundcloud.com/peaks-crew/ and https://twitter.com/peaks
		unrelated https://example.com/page`

		_, socials := FromPage(page)

		want := []string{
			"https://soundcloud.com/peaks-crew",
			"https://twitter.com/peaks",
			"https://www.instagram.com/peakscrew",
		}
		if !reflect.DeepEqual(socials, want) {
			t.Errorf("socials = %v, want %v", socials, want)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		emails, socials := FromPage("")
		if len(emails) != 0 || len(socials) != 0 {
			t.Errorf("expected nothing, got %v %v", emails, socials)
		}
	})
}

func TestFromDescription(t *testing.T) {
	t.Run("Bare URLs Kept", func(t *testing.T) {
		desc := "Submit via https://peaks.fm/submit or mail booking@peaks.fm. IG: https://instagram.com/peakscrew"

		emails, urls := FromDescription(desc)

		if !reflect.DeepEqual(emails, []string{"booking@peaks.fm"}) {
			t.Errorf("emails = %v", emails)
		}

		wantURLs := []string{
			"https://instagram.com/peakscrew",
			"https://peaks.fm/submit",
		}
		if !reflect.DeepEqual(urls, wantURLs) {
			t.Errorf("urls = %v, want %v", urls, wantURLs)
		}
	})

	t.Run("Duplicate URL From Social Match", func(t *testing.T) {
		// The bare-URL pattern and the social pattern both match; the union
		// must not duplicate.
		_, urls := FromDescription("https://soundcloud.com/peaks")
		if !reflect.DeepEqual(urls, []string{"https://soundcloud.com/peaks"}) {
			t.Errorf("urls = %v", urls)
		}
	})
}

func TestSocialOnly(t *testing.T) {
	in := []string{
		"https://peaks.fm/submit",
		"https://instagram.com/peakscrew",
		"https://bandcamp.com/peaks",
	}

	got := SocialOnly(in)
	want := []string{"https://instagram.com/peakscrew", "https://bandcamp.com/peaks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SocialOnly = %v, want %v", got, want)
	}
}
