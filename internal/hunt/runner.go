// Package hunt drives one collection run: search the platform for a
// keyword, persist candidate videos, and chase contacts through their
// descriptions, channels, and comments.
package hunt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/osintkit/tubetrail/internal/contacts"
	"github.com/osintkit/tubetrail/internal/storage"
	"github.com/osintkit/tubetrail/internal/youtube"
)

// Source is the external data source a run consumes. youtube.Client
// satisfies it; tests substitute mocks.
type Source interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.VideoResult, error)
	Channel(ctx context.Context, channelID string) (*youtube.ChannelRecord, error)
	Comments(ctx context.Context, videoID string, maxCount int) ([]youtube.CommentRecord, error)
}

// Options tune one collection run.
type Options struct {
	Limit       int    // max candidate videos; default 20
	MaxComments int    // comments fetched per video; default 20
	Note        string // session note; a generated UUID when empty
}

// Result summarizes what a run collected. Failures counts item-level
// sub-steps that were skipped; they never abort the run.
type Result struct {
	SessionID int64
	Keyword   string
	Note      string
	Videos    int
	Channels  int
	Comments  int
	Contacts  int
	Failures  int
}

// Runner executes collection runs against one store and one source.
type Runner struct {
	store  *storage.Store
	source Source
	logger *slog.Logger
}

// NewRunner wires a Runner. A nil logger falls back to slog.Default.
func NewRunner(store *storage.Store, source Source, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, source: source, logger: logger}
}

// Run performs one complete collection run. Candidate items are processed
// sequentially so there is never more than one in-flight write against the
// session store. A failing sub-step (channel lookup, comment listing, one
// save) is logged and skipped at item granularity; only session creation
// and the initial search are fatal. Already-saved rows survive any later
// failure, including context cancellation.
func (r *Runner) Run(ctx context.Context, keyword string, opts Options) (Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	maxComments := opts.MaxComments
	if maxComments <= 0 {
		maxComments = 20
	}
	note := opts.Note
	if note == "" {
		note = uuid.New().String()
	}

	res := Result{Keyword: keyword, Note: note}

	sessionID, err := r.store.CreateSession(keyword, note)
	if err != nil {
		return res, fmt.Errorf("creating session: %w", err)
	}
	res.SessionID = sessionID
	r.logger.Info("session created", "session_id", sessionID, "keyword", keyword)

	videos, err := r.source.Search(ctx, keyword, limit)
	if err != nil {
		return res, fmt.Errorf("searching %q: %w", keyword, err)
	}
	r.logger.Info("search complete", "session_id", sessionID, "candidates", len(videos))

	// Channels are deduplicated per run; a refreshed upsert once per session
	// is enough and spares the lookup quota.
	seenChannels := make(map[string]bool)

	for _, v := range videos {
		if ctx.Err() != nil {
			r.logger.Warn("run aborted", "session_id", sessionID, "processed", res.Videos)
			break
		}
		r.processVideo(ctx, sessionID, v, maxComments, seenChannels, &res)
	}

	r.logger.Info("run finished",
		"session_id", sessionID,
		"videos", res.Videos, "channels", res.Channels,
		"comments", res.Comments, "contacts", res.Contacts,
		"failures", res.Failures)
	return res, nil
}

// processVideo runs the per-item pipeline: save the video row first, then
// derive contacts, channel data, and comments from it. The video save must
// precede every derived write so contact rows always reference an existing
// owner.
func (r *Runner) processVideo(ctx context.Context, sessionID int64, v youtube.VideoResult, maxComments int, seenChannels map[string]bool, res *Result) {
	if v.VideoID == "" {
		r.logger.Warn("skipping malformed search result", "session_id", sessionID, "title", v.Title)
		res.Failures++
		return
	}

	err := r.store.UpsertVideo(storage.Video{
		SessionID:     sessionID,
		VideoID:       v.VideoID,
		Title:         v.Title,
		URL:           v.URL,
		ChannelName:   v.ChannelName,
		ChannelID:     v.ChannelID,
		PublishedTime: v.PublishedTime,
		ViewCount:     parseCount(v.ViewCount),
		Duration:      v.Duration,
		Description:   v.Description,
	})
	if err != nil {
		r.logger.Error("saving video failed", "session_id", sessionID, "video_id", v.VideoID, "error", err)
		res.Failures++
		return
	}
	res.Videos++

	res.Contacts += r.saveContacts(v.Description, func(typ, value string) error {
		return r.store.InsertVideoContact(sessionID, v.VideoID, typ, value)
	}, sessionID, "video", v.VideoID, res)

	r.processChannel(ctx, sessionID, v.ChannelID, seenChannels, res)
	r.processComments(ctx, sessionID, v.VideoID, maxComments, res)
}

func (r *Runner) processChannel(ctx context.Context, sessionID int64, channelID string, seenChannels map[string]bool, res *Result) {
	if channelID == "" || seenChannels[channelID] {
		return
	}

	ch, err := r.source.Channel(ctx, channelID)
	if errors.Is(err, youtube.ErrNoAPIKey) {
		// Keyless runs collect search results only; not a failure.
		r.logger.Debug("channel enrichment skipped, no API key", "session_id", sessionID, "channel_id", channelID)
		seenChannels[channelID] = true
		return
	}
	if err != nil {
		r.logger.Warn("channel lookup failed", "session_id", sessionID, "channel_id", channelID, "stage", "fetch_channel", "error", err)
		res.Failures++
		return
	}
	if ch == nil {
		r.logger.Debug("channel absent", "session_id", sessionID, "channel_id", channelID)
		seenChannels[channelID] = true
		return
	}

	err = r.store.UpsertChannel(storage.Channel{
		SessionID:       sessionID,
		ChannelID:       ch.ChannelID,
		Title:           ch.Title,
		Description:     ch.Description,
		PublishedAt:     ch.PublishedAt,
		Country:         ch.Country,
		ViewCount:       parseCount(ch.ViewCount),
		SubscriberCount: parseCount(ch.SubscriberCount),
		VideoCount:      parseCount(ch.VideoCount),
	})
	if err != nil {
		r.logger.Error("saving channel failed", "session_id", sessionID, "channel_id", channelID, "error", err)
		res.Failures++
		return
	}
	seenChannels[channelID] = true
	res.Channels++

	res.Contacts += r.saveContacts(ch.Description, func(typ, value string) error {
		return r.store.InsertChannelContact(sessionID, ch.ChannelID, typ, value)
	}, sessionID, "channel", ch.ChannelID, res)
}

func (r *Runner) processComments(ctx context.Context, sessionID int64, videoID string, maxComments int, res *Result) {
	comments, err := r.source.Comments(ctx, videoID, maxComments)
	if errors.Is(err, youtube.ErrCommentsDisabled) {
		r.logger.Debug("comments disabled", "session_id", sessionID, "video_id", videoID)
		return
	}
	if errors.Is(err, youtube.ErrNoAPIKey) {
		r.logger.Debug("comment enrichment skipped, no API key", "session_id", sessionID, "video_id", videoID)
		return
	}
	if err != nil {
		r.logger.Warn("comment listing failed", "session_id", sessionID, "video_id", videoID, "stage", "fetch_comments", "error", err)
		res.Failures++
		return
	}

	for _, c := range comments {
		commentID, err := r.store.InsertComment(storage.Comment{
			SessionID: sessionID,
			VideoID:   videoID,
			Author:    c.Author,
			Text:      c.Text,
		})
		if err != nil {
			r.logger.Error("saving comment failed", "session_id", sessionID, "video_id", videoID, "error", err)
			res.Failures++
			continue
		}
		res.Comments++

		res.Contacts += r.saveContacts(c.Text, func(typ, value string) error {
			return r.store.InsertCommentContact(sessionID, commentID, typ, value)
		}, sessionID, "comment", videoID, res)
	}
}

// saveContacts extracts contacts from text and persists them through save.
// Returns the number of rows written; write failures count against res.
func (r *Runner) saveContacts(text string, save func(typ, value string) error, sessionID int64, source, ownerID string, res *Result) int {
	if text == "" {
		return 0
	}
	written := 0
	found := contacts.Extract(text)
	for _, typ := range contacts.Types() {
		for _, value := range found[typ] {
			if err := save(typ, value); err != nil {
				r.logger.Error("saving contact failed",
					"session_id", sessionID, "source", source, "owner", ownerID,
					"contact_type", typ, "error", err)
				res.Failures++
				continue
			}
			written++
		}
	}
	return written
}

// parseCount normalizes a platform counter string ("50000", "12,345 views",
// "1.2M subscribers") to an integer, defaulting to zero for anything
// unparseable so ranking and filtering never trip over free-text counters.
// Values past the int64 range clamp to MaxInt64 instead of wrapping.
func parseCount(s string) int64 {
	s = strings.TrimSpace(s)

	// Leading number: digits with comma separators and at most one
	// decimal point ("12,345", "1.2").
	end := 0
	sawDigit := false
	sawDot := false
scan:
	for end < len(s) {
		ch := s[end]
		switch {
		case ch >= '0' && ch <= '9':
			sawDigit = true
		case ch == ',':
		case ch == '.' && !sawDot:
			sawDot = true
		default:
			break scan
		}
		end++
	}
	if !sawDigit {
		return 0
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", ""), 64)
	if err != nil {
		return 0
	}

	val *= magnitude(strings.TrimSpace(s[end:]))

	if val >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Round(val))
}

// magnitude maps an abbreviated-counter suffix ("1.2M views") to its
// multiplier. A suffix letter followed by another letter is a word, not an
// abbreviation, and multiplies by one.
func magnitude(rest string) float64 {
	if rest == "" {
		return 1
	}
	var mult float64
	switch rest[0] {
	case 'K', 'k':
		mult = 1e3
	case 'M', 'm':
		mult = 1e6
	case 'B', 'b':
		mult = 1e9
	default:
		return 1
	}
	if len(rest) > 1 {
		next := rest[1]
		if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') {
			return 1
		}
	}
	return mult
}
