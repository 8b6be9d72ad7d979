package report

import (
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	"github.com/osintkit/tubetrail/internal/storage"
)

// Supported output formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatCSV      = "csv"
)

// Data is everything a rendered session report contains, loaded once so
// every format renders the same snapshot.
type Data struct {
	Session  storage.Session
	Keywords []KeywordCount
	Videos   []storage.Video
	Channels []storage.Channel
	Contacts []storage.ContactHit
	Repeated []storage.RepeatedContact
}

// Load gathers the report rows for one session.
func Load(store *storage.Store, sessionID int64) (*Data, error) {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", sessionID, err)
	}

	texts, err := store.SessionTexts(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session texts: %w", err)
	}
	videos, err := store.ListVideos(sessionID, 1000)
	if err != nil {
		return nil, fmt.Errorf("loading videos: %w", err)
	}
	channels, err := store.ListChannels(sessionID, 0, 1000)
	if err != nil {
		return nil, fmt.Errorf("loading channels: %w", err)
	}
	contacts, err := store.SearchContacts(sessionID, storage.ContactFilter{Limit: 10000})
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	repeated, err := store.RepeatedContacts(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading repeated contacts: %w", err)
	}

	return &Data{
		Session:  sess,
		Keywords: TopKeywords(texts, 0, 0, nil),
		Videos:   videos,
		Channels: channels,
		Contacts: contacts,
		Repeated: repeated,
	}, nil
}

// Render produces the report in the given format. For Markdown and HTML the
// report text is returned and, when outPath is non-empty, also written
// there. CSV requires outPath and writes three files (_videos, _channels,
// _contacts); the returned string names the base path.
func Render(d *Data, format, outPath string) (string, error) {
	switch format {
	case FormatMarkdown:
		return writeOut(d.Markdown(), outPath)
	case FormatHTML, "":
		return writeOut(d.HTML(), outPath)
	case FormatCSV:
		if outPath == "" {
			return "", fmt.Errorf("csv format requires an output path")
		}
		if err := d.WriteCSV(outPath); err != nil {
			return "", err
		}
		return outPath, nil
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
}

func writeOut(content, outPath string) (string, error) {
	if outPath == "" {
		return content, nil
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return content, nil
}

// Markdown renders the report as Markdown with pipe tables.
func (d *Data) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Report %d '%s'\n", d.Session.ID, d.Session.Note)
	fmt.Fprintf(&b, "# Date: %s\n", d.Session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "# Keyword: %s\n\n", d.Session.Keyword)

	b.WriteString("## Top Keywords for Further OSINT\n")
	for _, kw := range d.Keywords {
		fmt.Fprintf(&b, "- %s: %d\n", kw.Word, kw.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Videos\n")
	mdTable(&b, []string{"video_id", "title", "url", "channel", "published", "views"}, videoRows(d.Videos))
	b.WriteString("\n## Channels\n")
	mdTable(&b, []string{"channel_id", "title", "subscribers", "videos"}, channelRows(d.Channels))
	b.WriteString("\n## Contacts\n")
	mdTable(&b, []string{"type", "value", "source", "owner_id", "owner_title"}, contactRows(d.Contacts))

	b.WriteString("\n## Repeated contacts (seen in multiple sources)\n")
	if len(d.Repeated) == 0 {
		b.WriteString("No repeated contacts\n")
	} else {
		mdTable(&b, []string{"type", "value", "count", "sources"}, repeatedRows(d.Repeated))
	}
	return b.String()
}

// HTML renders the report as a minimal self-contained HTML document.
func (d *Data) HTML() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Report %d</title></head><body>\n", d.Session.ID)
	fmt.Fprintf(&b, "<h1>Report %d '%s'</h1>\n", d.Session.ID, html.EscapeString(d.Session.Note))
	fmt.Fprintf(&b, "<h2>Date %s</h2>\n", d.Session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "<h3>Keyword: %s</h3>\n", html.EscapeString(d.Session.Keyword))

	b.WriteString("<h2>Top Keywords for Further OSINT</h2><ul>")
	for _, kw := range d.Keywords {
		fmt.Fprintf(&b, "<li>%s: %d</li>", html.EscapeString(kw.Word), kw.Count)
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h2>Videos</h2>\n")
	htmlTable(&b, []string{"video_id", "title", "url", "channel", "published", "views"}, videoRows(d.Videos))
	b.WriteString("<h2>Channels</h2>\n")
	htmlTable(&b, []string{"channel_id", "title", "subscribers", "videos"}, channelRows(d.Channels))
	b.WriteString("<h2>Contacts</h2>\n")
	htmlTable(&b, []string{"type", "value", "source", "owner_id", "owner_title"}, contactRows(d.Contacts))

	b.WriteString("<h2>Repeated contacts (seen in multiple sources)</h2>\n")
	if len(d.Repeated) == 0 {
		b.WriteString("<p>No repeated contacts</p>\n")
	} else {
		htmlTable(&b, []string{"type", "value", "count", "sources"}, repeatedRows(d.Repeated))
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

// WriteCSV writes three CSV files next to outPath: base_videos.csv,
// base_channels.csv, and base_contacts.csv.
func (d *Data) WriteCSV(outPath string) error {
	base := strings.TrimSuffix(outPath, ".csv")
	files := []struct {
		path   string
		header []string
		rows   [][]string
	}{
		{base + "_videos.csv", []string{"video_id", "title", "url", "channel", "published", "views"}, videoRows(d.Videos)},
		{base + "_channels.csv", []string{"channel_id", "title", "subscribers", "videos"}, channelRows(d.Channels)},
		{base + "_contacts.csv", []string{"type", "value", "source", "owner_id", "owner_title"}, contactRows(d.Contacts)},
	}
	for _, f := range files {
		if err := writeCSVFile(f.path, f.header, f.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func videoRows(videos []storage.Video) [][]string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			v.VideoID, v.Title, v.URL, v.ChannelName, v.PublishedTime,
			strconv.FormatInt(v.ViewCount, 10),
		})
	}
	return rows
}

func channelRows(channels []storage.Channel) [][]string {
	rows := make([][]string, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, []string{
			c.ChannelID, c.Title,
			strconv.FormatInt(c.SubscriberCount, 10),
			strconv.FormatInt(c.VideoCount, 10),
		})
	}
	return rows
}

func contactRows(contacts []storage.ContactHit) [][]string {
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{c.ContactType, c.Value, c.Source, c.OwnerID, c.OwnerTitle})
	}
	return rows
}

func repeatedRows(repeated []storage.RepeatedContact) [][]string {
	rows := make([][]string, 0, len(repeated))
	for _, r := range repeated {
		rows = append(rows, []string{
			r.ContactType, r.Value,
			strconv.FormatInt(r.Count, 10),
			strings.Join(r.Sources, ", "),
		})
	}
	return rows
}

func mdTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", "\\|")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func htmlTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("<table border=\"1\"><thead><tr>")
	for _, h := range header {
		b.WriteString("<th>" + html.EscapeString(h) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>\n")
}
