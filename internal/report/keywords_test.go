package report

import (
	"reflect"
	"testing"
)

func TestTopKeywordsRanking(t *testing.T) {
	texts := []string{
		"Crypter Bypass Defender",
		"Windows Defender Crypter",
	}
	got := TopKeywords(texts, 0, 0, map[string]bool{})

	if len(got) != 4 {
		t.Fatalf("got %d keywords, want 4: %+v", len(got), got)
	}
	// crypter and defender both count 2 and keep first-encounter order;
	// the count-1 words follow.
	want := []KeywordCount{
		{"crypter", 2}, {"defender", 2}, {"bypass", 1}, {"windows", 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %+v, want %+v", got, want)
	}
}

func TestTopKeywordsFilters(t *testing.T) {
	texts := []string{"cat 12345 this malware malware"}
	got := TopKeywords(texts, 0, 0, nil)

	want := []KeywordCount{{"malware", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %+v, want %+v", got, want)
	}
}

func TestTopKeywordsCyrillic(t *testing.T) {
	texts := []string{
		"бесплатные подписчики накрутка",
		"накрутка подписчики телеграм",
	}
	got := TopKeywords(texts, 0, 0, map[string]bool{})

	want := []KeywordCount{
		{"подписчики", 2}, {"накрутка", 2}, {"бесплатные", 1}, {"телеграм", 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %+v, want %+v", got, want)
	}
}

func TestTopKeywordsMinLengthCountsRunes(t *testing.T) {
	// "чат" is three letters but six bytes; it must fall under minLen 4.
	got := TopKeywords([]string{"чат спам спам"}, 0, 0, map[string]bool{})
	want := []KeywordCount{{"спам", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %+v, want %+v", got, want)
	}
}

func TestTopKeywordsMinLength(t *testing.T) {
	got := TopKeywords([]string{"abcdef abc abcdef"}, 0, 5, map[string]bool{})
	want := []KeywordCount{{"abcdef", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keywords = %+v, want %+v", got, want)
	}
}

func TestTopKeywordsCapsToN(t *testing.T) {
	texts := []string{"alpha bravo charlie delta echoes"}
	got := TopKeywords(texts, 3, 0, map[string]bool{})
	if len(got) != 3 {
		t.Fatalf("got %d keywords, want 3", len(got))
	}
	// All count 1, so first-encounter order decides.
	if got[0].Word != "alpha" || got[1].Word != "bravo" || got[2].Word != "charlie" {
		t.Errorf("keywords = %+v", got)
	}
}

func TestTopKeywordsEmpty(t *testing.T) {
	if got := TopKeywords(nil, 0, 0, nil); len(got) != 0 {
		t.Errorf("keywords for no input = %+v, want none", got)
	}
	if got := TopKeywords([]string{"", "   "}, 0, 0, nil); len(got) != 0 {
		t.Errorf("keywords for blank input = %+v, want none", got)
	}
}
