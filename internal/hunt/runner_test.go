package hunt

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/osintkit/tubetrail/internal/storage"
	"github.com/osintkit/tubetrail/internal/youtube"
)

type mockSource struct {
	searchFn   func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error)
	channelFn  func(ctx context.Context, channelID string) (*youtube.ChannelRecord, error)
	commentsFn func(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error)
}

func (m *mockSource) Search(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
	return m.searchFn(ctx, query, limit)
}

func (m *mockSource) Channel(ctx context.Context, channelID string) (*youtube.ChannelRecord, error) {
	if m.channelFn == nil {
		return nil, nil
	}
	return m.channelFn(ctx, channelID)
}

func (m *mockSource) Comments(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error) {
	if m.commentsFn == nil {
		return nil, nil
	}
	return m.commentsFn(ctx, videoID, maxCount)
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func twoVideos() []youtube.VideoResult {
	return []youtube.VideoResult{
		{
			VideoID:     "vid1",
			Title:       "Free Robux Generator",
			URL:         "https://www.youtube.com/watch?v=vid1",
			ChannelName: "ScamChannel",
			ChannelID:   "UCscam",
			ViewCount:   "12,345 views",
			Description: "dm me t.me/freestuff",
		},
		{
			VideoID:     "vid2",
			Title:       "Robux Hack Working",
			URL:         "https://www.youtube.com/watch?v=vid2",
			ChannelName: "ScamChannel",
			ChannelID:   "UCscam",
			ViewCount:   "7 views",
			Description: "no contacts here",
		},
	}
}

func TestRunCollectsEverything(t *testing.T) {
	store := openTestStore(t)
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return twoVideos(), nil
		},
		channelFn: func(ctx context.Context, channelID string) (*youtube.ChannelRecord, error) {
			return &youtube.ChannelRecord{
				ChannelID:       channelID,
				Title:           "ScamChannel",
				Description:     "sales via t.me/freestuff",
				SubscriberCount: "50000",
				ViewCount:       "999",
				VideoCount:      "12",
			}, nil
		},
		commentsFn: func(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error) {
			if videoID != "vid1" {
				return nil, nil
			}
			return []youtube.CommentRecord{
				{Author: "user1", Text: "write to t.me/freestuff"},
				{Author: "user2", Text: "thanks"},
			}, nil
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "free robux", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Videos != 2 {
		t.Errorf("videos = %d, want 2", res.Videos)
	}
	if res.Channels != 1 {
		t.Errorf("channels = %d, want 1 (deduplicated per run)", res.Channels)
	}
	if res.Comments != 2 {
		t.Errorf("comments = %d, want 2", res.Comments)
	}
	// t.me/freestuff from video description, channel description, and one comment.
	if res.Contacts != 3 {
		t.Errorf("contacts = %d, want 3", res.Contacts)
	}
	if res.Failures != 0 {
		t.Errorf("failures = %d, want 0", res.Failures)
	}

	v, err := store.GetVideo(res.SessionID, "vid1")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if v.ViewCount != 12345 {
		t.Errorf("view count parsed to %d, want 12345", v.ViewCount)
	}

	ch, err := store.GetChannel(res.SessionID, "UCscam")
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if ch.SubscriberCount != 50000 {
		t.Errorf("subscriber count = %d, want 50000", ch.SubscriberCount)
	}

	repeated, err := store.RepeatedContacts(res.SessionID)
	if err != nil {
		t.Fatalf("RepeatedContacts: %v", err)
	}
	if len(repeated) != 1 || repeated[0].Value != "t.me/freestuff" || repeated[0].Count != 3 {
		t.Errorf("repeated contacts = %+v", repeated)
	}
}

// TestRunCommentsDisabledIsolated verifies one video with disabled comments
// does not stop later videos from having theirs collected.
func TestRunCommentsDisabledIsolated(t *testing.T) {
	store := openTestStore(t)
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return twoVideos(), nil
		},
		commentsFn: func(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error) {
			if videoID == "vid1" {
				return nil, youtube.ErrCommentsDisabled
			}
			return []youtube.CommentRecord{{Author: "u", Text: "hi"}}, nil
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Comments != 1 {
		t.Errorf("comments = %d, want 1 (vid2 only)", res.Comments)
	}
	// Comments-disabled is an expected outcome, not a failure.
	if res.Failures != 0 {
		t.Errorf("failures = %d, want 0", res.Failures)
	}
}

// TestRunChannelFailureIsolated verifies a failing channel lookup is logged
// and skipped without losing the video or its contacts.
func TestRunChannelFailureIsolated(t *testing.T) {
	store := openTestStore(t)
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return twoVideos(), nil
		},
		channelFn: func(ctx context.Context, channelID string) (*youtube.ChannelRecord, error) {
			return nil, errors.New("network down")
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Videos != 2 {
		t.Errorf("videos = %d, want 2", res.Videos)
	}
	if res.Channels != 0 {
		t.Errorf("channels = %d, want 0", res.Channels)
	}
	// The same channel fails once per video since it was never cached.
	if res.Failures != 2 {
		t.Errorf("failures = %d, want 2", res.Failures)
	}
	if res.Contacts != 1 {
		t.Errorf("contacts = %d, want 1 (video description still scanned)", res.Contacts)
	}
}

// A keyless run collects search results and description contacts only;
// the missing enrichment is expected, never a failure.
func TestRunKeylessSkipsEnrichment(t *testing.T) {
	store := openTestStore(t)
	channelCalls := 0
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return twoVideos(), nil
		},
		channelFn: func(ctx context.Context, channelID string) (*youtube.ChannelRecord, error) {
			channelCalls++
			return nil, youtube.ErrNoAPIKey
		},
		commentsFn: func(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error) {
			return nil, youtube.ErrNoAPIKey
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failures != 0 {
		t.Errorf("failures = %d, want 0", res.Failures)
	}
	if res.Videos != 2 {
		t.Errorf("videos = %d, want 2", res.Videos)
	}
	if res.Channels != 0 || res.Comments != 0 {
		t.Errorf("channels/comments = %d/%d, want 0/0", res.Channels, res.Comments)
	}
	if res.Contacts != 1 {
		t.Errorf("contacts = %d, want 1 (video description still scanned)", res.Contacts)
	}
	// The keyless skip is cached like an absent channel.
	if channelCalls != 1 {
		t.Errorf("channel lookups = %d, want 1", channelCalls)
	}
}

// TestRunAbsentChannelSkipped verifies an unknown channel is a silent skip.
func TestRunAbsentChannelSkipped(t *testing.T) {
	store := openTestStore(t)
	calls := 0
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return twoVideos(), nil
		},
		channelFn: func(ctx context.Context, channelID string) (*youtube.ChannelRecord, error) {
			calls++
			return nil, nil
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failures != 0 {
		t.Errorf("failures = %d, want 0", res.Failures)
	}
	if calls != 1 {
		t.Errorf("absent channel looked up %d times, want 1 (cached)", calls)
	}
}

// TestRunMalformedRecordSkipped verifies a search result without a video id
// is dropped without touching the store.
func TestRunMalformedRecordSkipped(t *testing.T) {
	store := openTestStore(t)
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return []youtube.VideoResult{
				{Title: "no id at all"},
				twoVideos()[0],
			}, nil
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Videos != 1 {
		t.Errorf("videos = %d, want 1", res.Videos)
	}
	if res.Failures != 1 {
		t.Errorf("failures = %d, want 1", res.Failures)
	}
}

// TestRunSearchErrorIsFatal verifies a failed search aborts the run but
// leaves the created session in place.
func TestRunSearchErrorIsFatal(t *testing.T) {
	store := openTestStore(t)
	src := &mockSource{
		searchFn: func(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error) {
			return nil, errors.New("blocked")
		},
	}

	res, err := NewRunner(store, src, nil).Run(context.Background(), "kw", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.SessionID == 0 {
		t.Fatal("session should have been created before the search")
	}
	if _, err := store.GetSession(res.SessionID); err != nil {
		t.Errorf("GetSession: %v", err)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"50000", 50000},
		{"12,345 views", 12345},
		{"7 views", 7},
		{"", 0},
		{"No views", 0},
		{"  1,234,567  ", 1234567},
		{"subscribers: many", 0},
		{"1.2M", 1200000},
		{"1.2M subscribers", 1200000},
		{"3.4K views", 3400},
		{"2B views", 2000000000},
		{"12 members", 12},
		{"99999999999999999999999", math.MaxInt64},
	}
	for _, tt := range tests {
		if got := parseCount(tt.in); got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
