package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrBusy is returned when a write could not acquire the database lock
// within the configured busy timeout.
var ErrBusy = errors.New("storage busy")

// Session is one bounded collection run for a single search keyword.
// All other rows are partitioned by its ID.
type Session struct {
	ID        int64
	CreatedAt time.Time
	Keyword   string
	Note      string
}

// Video is a candidate video found by a search, keyed by (session, video_id).
type Video struct {
	SessionID     int64
	VideoID       string
	Title         string
	URL           string
	ChannelName   string
	ChannelID     string
	PublishedTime string
	ViewCount     int64
	Duration      string
	Description   string
}

// Channel holds platform channel metadata, refreshed on every encounter
// within a session. Counters are parsed to integers at write time.
type Channel struct {
	SessionID       int64
	ChannelID       string
	Title           string
	Description     string
	PublishedAt     string
	Country         string
	ViewCount       int64
	SubscriberCount int64
	VideoCount      int64
	LastUpdated     time.Time
}

// Comment is a single top-level comment on a video. Append-only.
type Comment struct {
	ID        int64
	SessionID int64
	VideoID   string
	Author    string
	Text      string
}

// Sources a contact row can be linked to.
const (
	SourceVideo   = "video"
	SourceComment = "comment"
	SourceChannel = "channel"
)

// ContactHit is one matched contact joined back to its owning entity,
// as returned by SearchContacts.
type ContactHit struct {
	Source      string
	ContactType string
	Value       string
	OwnerID     string
	OwnerTitle  string
	OwnerURL    string
}

// SessionStats holds per-table row counts for one session.
type SessionStats struct {
	Videos          int64
	Channels        int64
	Comments        int64
	VideoContacts   int64
	ChannelContacts int64
	CommentContacts int64
	ByType          []TypeCount
}

// TypeCount is a contact-type frequency pair.
type TypeCount struct {
	ContactType string
	Count       int64
}

// ChannelContacts is one row of the channels-with-contacts aggregation.
type ChannelContacts struct {
	ChannelID       string
	Title           string
	SubscriberCount int64
	ContactCount    int64
}

// QuietChannel is a channel above the subscriber threshold with no
// extracted contacts, worth a manual look.
type QuietChannel struct {
	ChannelID       string
	Title           string
	SubscriberCount int64
	VideoCount      int64
}

// RepeatedContact is a (type, value) pair seen under more than one row in a
// session, with the distinct sources it appeared in.
type RepeatedContact struct {
	ContactType string
	Value       string
	Count       int64
	Sources     []string
}

// Job is a queued unit of background work for serve mode.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
