package formatter

import (
	"strings"
	"testing"

	"github.com/scoutfm/scoutfm/internal/models"
)

func sampleResults() []models.PlaylistResult {
	return []models.PlaylistResult{
		{
			Genre:        "techno",
			PlaylistName: "Dark Warehouse",
			PlaylistURL:  "https://open.spotify.com/playlist/p1",
			Followers:    4200,
			OwnerName:    "Berlin Crew",
			OwnerID:      "u1",
			OwnerURL:     "https://open.spotify.com/user/u1",
			Contacts: []models.ContactRecord{
				{
					SourceURL: models.DescriptionSource,
					Emails:    []string{"booking@berlincrew.example"},
					RawEmails: []string{"booking@berlincrew.example", "noise@gmail.com"},
					Socials:   []string{"https://instagram.com/berlincrew"},
					Verified:  true,
				},
				{
					SourceURL: "https://berlincrew.example/contact",
					Emails:    []string{"a@berlincrew.example", "b@berlincrew.example"},
					Socials:   []string{"https://soundcloud.com/berlincrew"},
					Verified:  true,
				},
			},
		},
		{
			Genre:        "house",
			PlaylistName: "No Contacts Here",
			Followers:    77,
			OwnerName:    "Quiet Owner",
			OwnerID:      "u2",
		},
	}
}

func TestFlatten(t *testing.T) {
	t.Run("One Row Per Contact", func(t *testing.T) {
		rows := Flatten(sampleResults())
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}

		if rows[0].ContactSource != models.DescriptionSource {
			t.Errorf("expected description source first, got %q", rows[0].ContactSource)
		}
		if rows[1].ContactSource != "https://berlincrew.example/contact" {
			t.Errorf("expected scraped source second, got %q", rows[1].ContactSource)
		}

		for i, row := range rows[:2] {
			if row.PlaylistName != "Dark Warehouse" || row.Followers != 4200 {
				t.Errorf("row %d lost playlist-level fields: %+v", i, row)
			}
		}
	})

	t.Run("Joins Lists With Semicolons", func(t *testing.T) {
		rows := Flatten(sampleResults())
		if rows[1].ContactEmails != "a@berlincrew.example; b@berlincrew.example" {
			t.Errorf("unexpected email join %q", rows[1].ContactEmails)
		}
		if rows[0].ContactSocials != "https://instagram.com/berlincrew" {
			t.Errorf("unexpected socials join %q", rows[0].ContactSocials)
		}
	})

	t.Run("Contactless Result Keeps One Row", func(t *testing.T) {
		rows := Flatten(sampleResults())
		last := rows[2]
		if last.PlaylistName != "No Contacts Here" {
			t.Fatalf("expected the contactless playlist last, got %+v", last)
		}
		if last.ContactSource != "" || last.ContactEmails != "" || last.ContactVerified {
			t.Errorf("expected empty contact fields, got %+v", last)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		if rows := Flatten(nil); len(rows) != 0 {
			t.Errorf("expected no rows, got %d", len(rows))
		}
	})
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(Flatten(sampleResults()))
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}
	output := string(data)

	if !strings.HasPrefix(output, "genre,playlist_name,playlist_url,followers,owner_name,owner_url,owner_id,contact_source,contact_emails,contact_socials,contact_verified") {
		t.Errorf("CSV missing header line, got: %s", output)
	}
	if !strings.Contains(output, "Dark Warehouse") {
		t.Errorf("CSV missing playlist name")
	}
	if !strings.Contains(output, "a@berlincrew.example; b@berlincrew.example") {
		t.Errorf("CSV missing joined emails")
	}
	if lines := strings.Count(strings.TrimSpace(output), "\n"); lines != 3 {
		t.Errorf("expected header plus 3 data lines, got %d newlines", lines)
	}
}

func TestExportToHTML(t *testing.T) {
	t.Run("Renders Table", func(t *testing.T) {
		output := string(ExportToHTML(Flatten(sampleResults())))

		if !strings.Contains(output, "<tr><th>Genre</th><th>Playlist</th><th>Followers</th><th>Owner</th><th>Contact</th></tr>") {
			t.Errorf("HTML missing header row, got: %s", output)
		}
		if !strings.Contains(output, "<td>booking@berlincrew.example</td>") {
			t.Errorf("HTML missing contact cell")
		}
		if strings.Count(output, "<tr>") != 4 {
			t.Errorf("expected header plus 3 data rows, got: %s", output)
		}
	})

	t.Run("Escapes Markup", func(t *testing.T) {
		rows := []models.Row{{PlaylistName: `<script>alert("x")</script>`}}
		output := string(ExportToHTML(rows))

		if strings.Contains(output, "<script>") {
			t.Fatal("HTML output contains unescaped markup")
		}
		if !strings.Contains(output, "&lt;script&gt;") {
			t.Errorf("expected escaped markup, got: %s", output)
		}
	})
}
