package storage

import (
	"errors"
	"strings"
	"testing"
)

func mustSession(t *testing.T, s *Store, keyword string) int64 {
	t.Helper()
	id, err := s.CreateSession(keyword, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return id
}

func TestVideoUpsert(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	v := Video{
		SessionID: sid, VideoID: "vid1", Title: "first title",
		URL: "https://example.com/watch?v=vid1", ChannelID: "UC1",
		ViewCount: 100, Description: "desc",
	}
	if err := s.UpsertVideo(v); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}

	v.Title = "updated title"
	v.ViewCount = 250
	if err := s.UpsertVideo(v); err != nil {
		t.Fatalf("second UpsertVideo: %v", err)
	}

	got, err := s.GetVideo(sid, "vid1")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Title != "updated title" || got.ViewCount != 250 {
		t.Errorf("got %+v, want updated row", got)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM videos WHERE session_id = ?`, sid).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("video rows = %d, want 1 (upsert, not duplicate)", count)
	}
}

func TestVideoUpsertKeepsContacts(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	if err := s.UpsertVideo(Video{SessionID: sid, VideoID: "vid1", Title: "t"}); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if err := s.InsertVideoContact(sid, "vid1", "telegram", "t.me/x"); err != nil {
		t.Fatalf("InsertVideoContact: %v", err)
	}
	// Refreshing the video must not cascade away its contact rows.
	if err := s.UpsertVideo(Video{SessionID: sid, VideoID: "vid1", Title: "t2"}); err != nil {
		t.Fatalf("refresh UpsertVideo: %v", err)
	}

	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM video_contacts WHERE session_id = ?`, sid).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("contact rows = %d, want 1", count)
	}
}

func TestSessionIsolation(t *testing.T) {
	s := openTestStore(t)
	sid1 := mustSession(t, s, "kw1")
	sid2 := mustSession(t, s, "kw2")

	if err := s.UpsertVideo(Video{SessionID: sid1, VideoID: "shared", Title: "in session 1"}); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if err := s.UpsertVideo(Video{SessionID: sid2, VideoID: "shared", Title: "in session 2"}); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}

	v1, err := s.GetVideo(sid1, "shared")
	if err != nil {
		t.Fatalf("GetVideo sid1: %v", err)
	}
	v2, err := s.GetVideo(sid2, "shared")
	if err != nil {
		t.Fatalf("GetVideo sid2: %v", err)
	}
	if v1.Title != "in session 1" || v2.Title != "in session 2" {
		t.Errorf("rows crossed sessions: %q / %q", v1.Title, v2.Title)
	}

	videos, err := s.ListVideos(sid1, 0)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("ListVideos(sid1) = %d rows, want 1", len(videos))
	}
}

func TestListVideosOrderedByViews(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	for _, v := range []Video{
		{SessionID: sid, VideoID: "small", ViewCount: 10},
		{SessionID: sid, VideoID: "big", ViewCount: 9000},
		{SessionID: sid, VideoID: "mid", ViewCount: 500},
	} {
		if err := s.UpsertVideo(v); err != nil {
			t.Fatalf("UpsertVideo: %v", err)
		}
	}

	videos, err := s.ListVideos(sid, 2)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 2 || videos[0].VideoID != "big" || videos[1].VideoID != "mid" {
		t.Errorf("ListVideos = %+v, want [big mid]", videos)
	}
}

func TestChannelUpsertRefreshes(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	c := Channel{SessionID: sid, ChannelID: "UC1", Title: "Chan", SubscriberCount: 100}
	if err := s.UpsertChannel(c); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}
	c.SubscriberCount = 150
	if err := s.UpsertChannel(c); err != nil {
		t.Fatalf("refresh UpsertChannel: %v", err)
	}

	got, err := s.GetChannel(sid, "UC1")
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if got.SubscriberCount != 150 {
		t.Errorf("subscriber_count = %d, want 150", got.SubscriberCount)
	}
	if got.LastUpdated.IsZero() {
		t.Error("last_updated not set")
	}

	if _, err := s.GetChannel(sid, "UCmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChannel missing = %v, want ErrNotFound", err)
	}
}

func TestListChannelsThreshold(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	for _, c := range []Channel{
		{SessionID: sid, ChannelID: "UCbig", SubscriberCount: 50000},
		{SessionID: sid, ChannelID: "UCsmall", SubscriberCount: 5000},
	} {
		if err := s.UpsertChannel(c); err != nil {
			t.Fatalf("UpsertChannel: %v", err)
		}
	}

	channels, err := s.ListChannels(sid, 10000, 0)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(channels) != 1 || channels[0].ChannelID != "UCbig" {
		t.Errorf("ListChannels = %+v, want only UCbig", channels)
	}
}

func TestCommentsAppendOnly(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")
	if err := s.UpsertVideo(Video{SessionID: sid, VideoID: "vid1"}); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}

	id1, err := s.InsertComment(Comment{SessionID: sid, VideoID: "vid1", Author: "a", Text: "one"})
	if err != nil {
		t.Fatalf("InsertComment: %v", err)
	}
	id2, err := s.InsertComment(Comment{SessionID: sid, VideoID: "vid1", Author: "a", Text: "one"})
	if err != nil {
		t.Fatalf("duplicate InsertComment: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("comment ids not increasing: %d then %d", id1, id2)
	}
}

func TestContactRequiresOwner(t *testing.T) {
	s := openTestStore(t)
	sid := mustSession(t, s, "kw")

	err := s.InsertVideoContact(sid, "no-such-video", "telegram", "t.me/x")
	if err == nil {
		t.Fatal("expected foreign key violation for contact without owner")
	}
	if !strings.Contains(err.Error(), "FOREIGN KEY") && !strings.Contains(err.Error(), "constraint") {
		t.Errorf("error = %v, want a constraint violation", err)
	}
}
