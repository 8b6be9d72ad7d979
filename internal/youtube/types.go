// Package youtube wraps the platform's public search page and Data API v3
// as a typed, black-box data source. All values come back as the platform
// prints them; callers validate and normalize at the ingestion boundary.
package youtube

import "errors"

// ErrCommentsDisabled reports the platform's explicit comments-disabled
// condition. It is an expected outcome, distinct from generic failure;
// callers match it with errors.Is and skip silently.
var ErrCommentsDisabled = errors.New("comments disabled")

// ErrNoAPIKey is returned by lookups that require a Data API key when none
// is configured.
var ErrNoAPIKey = errors.New("youtube: Data API key not configured")

// VideoResult is one candidate video from a search.
type VideoResult struct {
	VideoID       string
	Title         string
	URL           string
	ChannelName   string
	ChannelID     string
	PublishedTime string
	ViewCount     string // as printed, e.g. "123,456 views"
	Duration      string
	Description   string
}

// ChannelRecord is the platform's channel metadata. Counter fields are the
// platform's decimal strings.
type ChannelRecord struct {
	ChannelID       string
	Title           string
	Description     string
	PublishedAt     string
	Country         string
	ViewCount       string
	SubscriberCount string
	VideoCount      string
}

// CommentRecord is one top-level comment.
type CommentRecord struct {
	Author string
	Text   string
}
