// Package api exposes collected findings over HTTP (chi JSON API) and MCP
// so scripts and agents can enqueue collection runs and query results.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/osintkit/tubetrail/internal/hunt"
	"github.com/osintkit/tubetrail/internal/report"
	"github.com/osintkit/tubetrail/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Store *storage.Store
	// Token guards all endpoints except /health when non-empty.
	Token string
	// MinSubscribers is the quiet-channel threshold used by /analysis.
	MinSubscribers int64
}

// HuntRequest is the body of POST /hunts.
type HuntRequest struct {
	Keyword     string `json:"keyword"`
	Limit       int    `json:"limit,omitempty"`
	MaxComments int    `json:"max_comments,omitempty"`
	Note        string `json:"note,omitempty"`
}

// NewAppHandler returns the HTTP API router.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Get("/sessions", handleListSessions(deps))
		r.Get("/sessions/{id}", handleGetSession(deps))
		r.Get("/sessions/{id}/stats", handleSessionStats(deps))
		r.Get("/sessions/{id}/videos", handleListVideos(deps))
		r.Get("/sessions/{id}/channels", handleListChannels(deps))
		r.Get("/sessions/{id}/contacts", handleSearchContacts(deps))
		r.Get("/sessions/{id}/analysis", handleAnalysis(deps))
		r.Get("/sessions/{id}/keywords", handleKeywords(deps))
		r.Get("/sessions/{id}/report", handleReport(deps))
		r.Post("/hunts", handleStartHunt(deps))
		r.Get("/hunts/{id}", handleGetHunt(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleListSessions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 50, 500)
		sessions, err := deps.Store.ListSessions(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list sessions: %v", err)
			return
		}
		if sessions == nil {
			sessions = []storage.Session{}
		}
		writeJSON(w, sessions)
	}
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		sess, err := deps.Store.GetSession(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get session: %v", err)
			return
		}
		writeJSON(w, sess)
	}
}

func handleSessionStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		stats, err := deps.Store.SessionStats(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get stats: %v", err)
			return
		}
		writeJSON(w, stats)
	}
}

func handleListVideos(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		limit := parseIntParam(r, "limit", 50, 1000)
		videos, err := deps.Store.ListVideos(id, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list videos: %v", err)
			return
		}
		if videos == nil {
			videos = []storage.Video{}
		}
		writeJSON(w, videos)
	}
}

func handleListChannels(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		limit := parseIntParam(r, "limit", 50, 1000)
		minSubs := int64(parseIntParam(r, "min_subs", 0, 0))
		channels, err := deps.Store.ListChannels(id, minSubs, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list channels: %v", err)
			return
		}
		if channels == nil {
			channels = []storage.Channel{}
		}
		writeJSON(w, channels)
	}
}

func handleSearchContacts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		hits, err := deps.Store.SearchContacts(id, storage.ContactFilter{
			ContactType: q.Get("type"),
			ValueLike:   q.Get("value"),
			Source:      q.Get("source"),
			Limit:       parseIntParam(r, "limit", 100, 10000),
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to search contacts: %v", err)
			return
		}
		if hits == nil {
			hits = []storage.ContactHit{}
		}
		writeJSON(w, hits)
	}
}

func handleAnalysis(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		withContacts, err := deps.Store.ChannelsWithContacts(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to analyze channels: %v", err)
			return
		}
		quiet, err := deps.Store.QuietLargeChannels(id, deps.MinSubscribers, 0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to find quiet channels: %v", err)
			return
		}
		repeated, err := deps.Store.RepeatedContacts(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to find repeated contacts: %v", err)
			return
		}
		writeJSON(w, map[string]any{
			"channels_with_contacts": orEmpty(withContacts),
			"quiet_large_channels":   orEmpty(quiet),
			"repeated_contacts":      orEmpty(repeated),
		})
	}
}

func handleKeywords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		texts, err := deps.Store.SessionTexts(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load session texts: %v", err)
			return
		}
		topN := parseIntParam(r, "limit", 10, 100)
		words := report.TopKeywords(texts, topN, 0, nil)
		if words == nil {
			words = []report.KeywordCount{}
		}
		writeJSON(w, words)
	}
}

func handleReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sessionID(w, r)
		if !ok {
			return
		}
		d, err := report.Load(deps.Store, id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to build report: %v", err)
			return
		}

		switch format := r.URL.Query().Get("format"); format {
		case report.FormatMarkdown:
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			fmt.Fprint(w, d.Markdown())
		case report.FormatHTML, "":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, d.HTML())
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown report format %q", format)
		}
	}
}

func handleStartHunt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req HuntRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Keyword == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "keyword is required")
			return
		}

		jobID, err := hunt.Enqueue(deps.Store, hunt.Payload{
			Keyword:     req.Keyword,
			Limit:       req.Limit,
			MaxComments: req.MaxComments,
			Note:        req.Note,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue hunt: %v", err)
			return
		}

		writeJSON(w, map[string]string{
			"id":     jobID,
			"status": "queued",
		})
	}
}

func handleGetHunt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := deps.Store.GetJob(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "hunt job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get hunt job: %v", err)
			return
		}
		writeJSON(w, map[string]any{
			"id":         job.ID,
			"status":     job.Status,
			"attempts":   job.Attempts,
			"last_error": job.LastError,
			"created_at": job.CreatedAt,
		})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid session id %q", raw)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// orEmpty keeps JSON arrays as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": msg,
		},
	})
}
