package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osintkit/tubetrail/internal/storage"
)

const testToken = "test-token-12345"

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewAppHandler(AppDeps{
		Store:          store,
		Token:          token,
		MinSubscribers: 10000,
	})
	return handler, store
}

func seedAPISession(t *testing.T, store *storage.Store) int64 {
	t.Helper()
	sid, err := store.CreateSession("free robux", "tag")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := store.UpsertVideo(storage.Video{
		SessionID: sid, VideoID: "vid1", Title: "Free Robux Generator",
		URL: "https://y/watch?v=vid1", ChannelID: "UC1", ViewCount: 10,
	}); err != nil {
		t.Fatalf("UpsertVideo: %v", err)
	}
	if err := store.UpsertChannel(storage.Channel{
		SessionID: sid, ChannelID: "UC1", Title: "Chan", SubscriberCount: 50000,
	}); err != nil {
		t.Fatalf("UpsertChannel: %v", err)
	}
	if err := store.InsertVideoContact(sid, "vid1", "telegram", "t.me/x"); err != nil {
		t.Fatalf("InsertVideoContact: %v", err)
	}
	return sid
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func doJSON(t *testing.T, h http.Handler, req *http.Request, wantStatus int, v any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != wantStatus {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, wantStatus, rr.Body.String())
	}
	if v != nil {
		if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/sessions", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/sessions", "", "wrong-token"))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rr.Code)
	}

	// Health stays open.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/health", "", ""))
	if rr.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rr.Code)
	}
}

func TestAuthOptionalWhenNoToken(t *testing.T) {
	h, _ := setupAppHandler(t, "")

	var sessions []storage.Session
	doJSON(t, h, authReq(http.MethodGet, "/sessions", "", ""), http.StatusOK, &sessions)
	if sessions == nil {
		t.Error("sessions should decode to an empty slice, not null")
	}
}

func TestListSessions(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	sid := seedAPISession(t, store)

	var sessions []storage.Session
	doJSON(t, h, authReq(http.MethodGet, "/sessions", "", testToken), http.StatusOK, &sessions)
	if len(sessions) != 1 || sessions[0].ID != sid {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	doJSON(t, h, authReq(http.MethodGet, "/sessions/99", "", testToken), http.StatusNotFound, nil)
	doJSON(t, h, authReq(http.MethodGet, "/sessions/abc", "", testToken), http.StatusBadRequest, nil)
}

func TestSessionStats(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	sid := seedAPISession(t, store)

	var stats storage.SessionStats
	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/stats", "", testToken), http.StatusOK, &stats)
	if stats.Videos != 1 || stats.VideoContacts != 1 {
		t.Errorf("stats for session %d = %+v", sid, stats)
	}
}

func TestSearchContactsFilters(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	seedAPISession(t, store)

	var hits []storage.ContactHit
	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/contacts?type=telegram", "", testToken), http.StatusOK, &hits)
	if len(hits) != 1 || hits[0].Value != "t.me/x" {
		t.Errorf("hits = %+v", hits)
	}

	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/contacts?type=email", "", testToken), http.StatusOK, &hits)
	if len(hits) != 0 {
		t.Errorf("email hits = %+v, want none", hits)
	}
}

func TestAnalysis(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	seedAPISession(t, store)

	var analysis struct {
		ChannelsWithContacts []storage.ChannelContacts `json:"channels_with_contacts"`
		QuietLargeChannels   []storage.QuietChannel    `json:"quiet_large_channels"`
		RepeatedContacts     []storage.RepeatedContact `json:"repeated_contacts"`
	}
	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/analysis", "", testToken), http.StatusOK, &analysis)

	// UC1 has a video contact but no channel contact, so it is quiet.
	if len(analysis.QuietLargeChannels) != 1 {
		t.Errorf("quiet channels = %+v", analysis.QuietLargeChannels)
	}
	if analysis.RepeatedContacts == nil {
		t.Error("repeated_contacts should be [] not null")
	}
}

func TestKeywords(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	seedAPISession(t, store)

	var words []struct {
		Word  string `json:"Word"`
		Count int    `json:"Count"`
	}
	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/keywords", "", testToken), http.StatusOK, &words)
	if len(words) == 0 {
		t.Fatal("no keywords returned")
	}
	if words[0].Word != "robux" && words[0].Word != "generator" {
		t.Errorf("top keyword = %+v", words[0])
	}
}

func TestReportFormats(t *testing.T) {
	h, store := setupAppHandler(t, testToken)
	seedAPISession(t, store)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/sessions/1/report?format=md", "", testToken))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "# Keyword: free robux") {
		t.Errorf("md report: status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, authReq(http.MethodGet, "/sessions/1/report", "", testToken))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<h3>Keyword: free robux</h3>") {
		t.Errorf("html report: status = %d", rr.Code)
	}

	doJSON(t, h, authReq(http.MethodGet, "/sessions/1/report?format=pdf", "", testToken), http.StatusBadRequest, nil)
}

func TestStartHunt(t *testing.T) {
	h, store := setupAppHandler(t, testToken)

	var resp map[string]string
	doJSON(t, h,
		authReq(http.MethodPost, "/hunts", `{"keyword":"free robux","limit":5}`, testToken),
		http.StatusOK, &resp)
	if resp["status"] != "queued" || resp["id"] == "" {
		t.Fatalf("response = %+v", resp)
	}

	job, err := store.GetJob(resp["id"])
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Type != "hunt" || job.Status != "pending" {
		t.Errorf("job = %+v", job)
	}

	var status map[string]any
	doJSON(t, h, authReq(http.MethodGet, "/hunts/"+resp["id"], "", testToken), http.StatusOK, &status)
	if status["status"] != "pending" {
		t.Errorf("hunt status = %+v", status)
	}
}

func TestStartHuntValidation(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	doJSON(t, h, authReq(http.MethodPost, "/hunts", `{"keyword":""}`, testToken), http.StatusBadRequest, nil)
	doJSON(t, h, authReq(http.MethodPost, "/hunts", `{not json`, testToken), http.StatusBadRequest, nil)
	doJSON(t, h, authReq(http.MethodGet, "/hunts/no-such-job", "", testToken), http.StatusNotFound, nil)
}
