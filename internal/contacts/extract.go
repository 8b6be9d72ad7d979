// Package contacts turns free-form text into typed contact matches.
// Extraction is pure and stateless, so it is safe to call from any
// goroutine and trivially cheap to re-run.
package contacts

import "regexp"

// Contact types recognized by Extract.
const (
	TypeTelegram = "telegram"
	TypeDiscord  = "discord"
	TypeEmail    = "email"
	TypeHTTP     = "http"
	TypePastebin = "pastebin"
)

// Types lists all recognized contact types in stable presentation order.
func Types() []string {
	return []string{TypeTelegram, TypeDiscord, TypeEmail, TypeHTTP, TypePastebin}
}

// Patterns are independent and overlap is allowed: a pastebin URL matches
// both http and pastebin, which is intentional multi-tag evidence, not a
// bug. Domain tokens match case-insensitively; handles and emails are kept
// as written. When a pattern has capturing groups, the contact value is the
// first non-empty group; otherwise it is the whole match.
var patterns = []struct {
	typ string
	re  *regexp.Regexp
}{
	// Bare @handles only count when not glued to a preceding word char,
	// so the domain half of an email is not reported as a handle.
	{TypeTelegram, regexp.MustCompile(`((?i:t\.me)/\w+)|(?:^|[^\w./])(@\w{4,})`)},
	{TypeDiscord, regexp.MustCompile(`(?i:discord)(?i:\.gg|\.com/invite|\.app/invite)/\w+`)},
	{TypeEmail, regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)},
	{TypeHTTP, regexp.MustCompile(`(?i:https?)://\S+`)},
	{TypePastebin, regexp.MustCompile(`(?i:pastebin\.com)/[a-zA-Z0-9]+`)},
}

// Extract scans text and returns the matches per contact type. The result
// always contains exactly the recognized types as keys; values keep first
// occurrence order and preserve duplicates. Empty input yields empty
// matches for every type, never an error.
func Extract(text string) map[string][]string {
	out := make(map[string][]string, len(patterns))
	for _, p := range patterns {
		out[p.typ] = findAll(p.re, text)
	}
	return out
}

func findAll(re *regexp.Regexp, text string) []string {
	var values []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		value := m[0]
		for _, group := range m[1:] {
			if group != "" {
				value = group
				break
			}
		}
		values = append(values, value)
	}
	return values
}
