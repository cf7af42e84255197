// package formatter flattens job results into export rows and renders them as
// CSV or a minimal HTML table.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/scoutfm/scoutfm/internal/models"
)

// Flatten expands playlist results into one row per contact record. A result
// without contacts still yields a single row with empty contact fields, so
// every discovered playlist survives into the export. Row order follows result
// order, then contact order within a result.
func Flatten(results []models.PlaylistResult) []models.Row {
	rows := make([]models.Row, 0, len(results))
	for _, r := range results {
		base := models.Row{
			Genre:        r.Genre,
			PlaylistName: r.PlaylistName,
			PlaylistURL:  r.PlaylistURL,
			Followers:    r.Followers,
			OwnerName:    r.OwnerName,
			OwnerID:      r.OwnerID,
			OwnerURL:     r.OwnerURL,
		}
		if len(r.Contacts) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, c := range r.Contacts {
			row := base
			row.ContactSource = c.SourceURL
			row.ContactEmails = strings.Join(c.Emails, "; ")
			row.ContactSocials = strings.Join(c.Socials, "; ")
			row.ContactVerified = c.Verified
			rows = append(rows, row)
		}
	}
	return rows
}

// ExportToCSV renders rows as CSV with a fixed header line.
func ExportToCSV(rows []models.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"genre", "playlist_name", "playlist_url", "followers",
		"owner_name", "owner_url", "owner_id",
		"contact_source", "contact_emails", "contact_socials", "contact_verified",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Genre,
			row.PlaylistName,
			row.PlaylistURL,
			strconv.Itoa(row.Followers),
			row.OwnerName,
			row.OwnerURL,
			row.OwnerID,
			row.ContactSource,
			row.ContactEmails,
			row.ContactSocials,
			strconv.FormatBool(row.ContactVerified),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToHTML renders rows as a single self-contained HTML table.
func ExportToHTML(rows []models.Row) []byte {
	var buf bytes.Buffer

	buf.WriteString("<html><head><meta charset='utf-8'><title>Export</title></head><body><table border='1' cellpadding='6'>")
	buf.WriteString("<tr><th>Genre</th><th>Playlist</th><th>Followers</th><th>Owner</th><th>Contact</th></tr>")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(row.Genre),
			html.EscapeString(row.PlaylistName),
			row.Followers,
			html.EscapeString(row.OwnerName),
			html.EscapeString(row.ContactEmails),
		))
	}
	buf.WriteString("</table></body></html>")

	return buf.Bytes()
}
