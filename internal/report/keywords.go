// Package report turns one session's stored rows into ranked keyword lists
// and rendered reports (Markdown, HTML, CSV).
package report

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordCount is one ranked (word, count) pair.
type KeywordCount struct {
	Word  string
	Count int
}

// Letters and digits in any script, so Cyrillic and other non-Latin
// titles rank the same way Latin ones do.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// DefaultStopwords are common filler words excluded from keyword ranking.
// Callers can pass their own set to TopKeywords instead.
var DefaultStopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "your": true,
	"have": true, "will": true, "what": true, "when": true, "where": true,
	"which": true, "their": true, "about": true, "using": true,
	"them": true, "then": true, "than": true, "here": true, "there": true,
	"http": true, "https": true, "video": true, "channel": true,
	"subscribe": true, "like": true, "free": true, "download": true,
}

// TopKeywords tokenizes the given texts into lowercase word tokens of at
// least minLen runes, drops stopwords and purely numeric tokens, and
// returns the topN most frequent words. Ties rank in first-encountered
// order, so the result is deterministic for a fixed input order.
func TopKeywords(texts []string, topN, minLen int, stopwords map[string]bool) []KeywordCount {
	if topN <= 0 {
		topN = 10
	}
	if minLen <= 0 {
		minLen = 4
	}
	if stopwords == nil {
		stopwords = DefaultStopwords
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, text := range texts {
		for _, raw := range wordPattern.FindAllString(text, -1) {
			word := strings.ToLower(raw)
			if utf8.RuneCountInString(word) < minLen || stopwords[word] || numeric(word) {
				continue
			}
			if _, ok := counts[word]; !ok {
				firstSeen[word] = order
				order++
			}
			counts[word]++
		}
	}

	ranked := make([]KeywordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, KeywordCount{Word: word, Count: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Word] < firstSeen[ranked[j].Word]
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func numeric(word string) bool {
	for _, ch := range word {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}
