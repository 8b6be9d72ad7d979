package contacts

import (
	"reflect"
	"testing"
)

// TestExtractScamDescription covers a typical scam description with several
// contact types at once.
func TestExtractScamDescription(t *testing.T) {
	got := Extract("contact me t.me/scammer123 or email scam@evil.com, see https://pastebin.com/abcd")

	want := map[string][]string{
		TypeTelegram: {"t.me/scammer123"},
		TypeDiscord:  nil,
		TypeEmail:    {"scam@evil.com"},
		TypeHTTP:     {"https://pastebin.com/abcd"},
		TypePastebin: {"pastebin.com/abcd"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract mismatch:\n got %v\nwant %v", got, want)
	}
}

// TestExtractEmptyInput verifies empty text produces all keys with no matches.
func TestExtractEmptyInput(t *testing.T) {
	got := Extract("")
	if len(got) != len(Types()) {
		t.Fatalf("expected %d keys, got %d", len(Types()), len(got))
	}
	for _, typ := range Types() {
		vals, ok := got[typ]
		if !ok {
			t.Errorf("missing key %q", typ)
		}
		if len(vals) != 0 {
			t.Errorf("expected no matches for %q, got %v", typ, vals)
		}
	}
}

// TestExtractNoPatterns verifies text without any recognizable pattern
// yields empty lists for every type.
func TestExtractNoPatterns(t *testing.T) {
	got := Extract("just a plain sentence about cooking pasta")
	for typ, vals := range got {
		if len(vals) != 0 {
			t.Errorf("unexpected matches for %q: %v", typ, vals)
		}
	}
}

func TestExtractTelegram(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"tme link", "join t.me/cryptodeals now", []string{"t.me/cryptodeals"}},
		{"bare handle", "write to @dealer99 for prices", []string{"@dealer99"}},
		{"handle at start", "@dealer99 has it", []string{"@dealer99"}},
		{"short handle ignored", "cc @abc for info", nil},
		{"email domain not a handle", "mail me at scam@evil.com", nil},
		{"uppercase domain token", "T.me/Seller kept as written", []string{"T.me/Seller"}},
		{"duplicates preserved", "t.me/x and again t.me/x", []string{"t.me/x", "t.me/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)[TypeTelegram]
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) telegram = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractDiscord(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"discord.gg/abc123", []string{"discord.gg/abc123"}},
		{"https://discord.com/invite/xyz", []string{"discord.com/invite/xyz"}},
		{"discord.app/invite/q1w2", []string{"discord.app/invite/q1w2"}},
		{"Discord.GG/loud", []string{"Discord.GG/loud"}},
		{"discord without invite", nil},
	}
	for _, tt := range tests {
		got := Extract(tt.in)[TypeDiscord]
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Extract(%q) discord = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestExtractOverlap verifies one URL can carry several type tags at once.
func TestExtractOverlap(t *testing.T) {
	got := Extract("dump at https://pastebin.com/Qq12Zz")
	if want := []string{"https://pastebin.com/Qq12Zz"}; !reflect.DeepEqual(got[TypeHTTP], want) {
		t.Errorf("http = %v, want %v", got[TypeHTTP], want)
	}
	if want := []string{"pastebin.com/Qq12Zz"}; !reflect.DeepEqual(got[TypePastebin], want) {
		t.Errorf("pastebin = %v, want %v", got[TypePastebin], want)
	}
}

// TestExtractHTTPStopsAtWhitespace verifies URL matching runs to the next
// whitespace and no further.
func TestExtractHTTPStopsAtWhitespace(t *testing.T) {
	got := Extract("see http://a.example/path?q=1 then stop")
	want := []string{"http://a.example/path?q=1"}
	if !reflect.DeepEqual(got[TypeHTTP], want) {
		t.Errorf("http = %v, want %v", got[TypeHTTP], want)
	}
}

// TestExtractOrder verifies first-occurrence ordering within a type.
func TestExtractOrder(t *testing.T) {
	got := Extract("first b@x.com then a@x.com")
	want := []string{"b@x.com", "a@x.com"}
	if !reflect.DeepEqual(got[TypeEmail], want) {
		t.Errorf("email = %v, want %v", got[TypeEmail], want)
	}
}

// TestExtractDeterministic runs the same input repeatedly; results must not
// depend on shared state.
func TestExtractDeterministic(t *testing.T) {
	in := "t.me/abc mail@example.org https://x.y discord.gg/z1"
	first := Extract(in)
	for i := 0; i < 10; i++ {
		if got := Extract(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}
