package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultSearchBase = "https://www.youtube.com"
	defaultAPIBase    = "https://www.googleapis.com/youtube/v3"

	// videos-only search filter param
	searchFilter = "EgIQAQ%3D%3D"

	initialDataMarker = "var ytInitialData = "
	maxSearchBody     = 4 * 1024 * 1024

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Client fetches search results, channel metadata, and comment threads.
// Search prefers the Data API v3 when a key is configured and scrapes the
// public results page otherwise; channel and comment lookups are Data API
// only and require a key.
type Client struct {
	httpClient *http.Client
	apiKey     string

	searchBase string
	apiBase    string
}

// New returns a Client. apiKey may be empty, in which case Channel and
// Comments return ErrNoAPIKey. A nil httpClient gets a 20s-timeout default.
func New(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		searchBase: defaultSearchBase,
		apiBase:    defaultAPIBase,
	}
}

// Search returns up to limit candidate videos for the query. With an API
// key configured it goes through the Data API's search.list and falls back
// to scraping if that call fails (quota exhaustion, revoked key); keyless
// clients scrape the results page directly. May return fewer than limit;
// an empty slice means no matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]VideoResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if c.apiKey != "" {
		videos, err := c.apiSearch(ctx, query, limit)
		if err == nil {
			return videos, nil
		}
	}
	return c.scrapeSearch(ctx, query, limit)
}

type searchListResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// apiSearch queries search.list. The endpoint returns snippets only, so
// view counts and durations stay empty and parse to zero downstream.
func (c *Client) apiSearch(ctx context.Context, query string, limit int) ([]VideoResult, error) {
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", c.apiKey)

	body, err := c.apiGet(ctx, "/search", params)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var result searchListResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	videos := make([]VideoResult, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, VideoResult{
			VideoID:       item.ID.VideoID,
			Title:         item.Snippet.Title,
			URL:           "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			ChannelName:   item.Snippet.ChannelTitle,
			ChannelID:     item.Snippet.ChannelID,
			PublishedTime: item.Snippet.PublishedAt,
			Description:   item.Snippet.Description,
		})
	}
	return videos, nil
}

// scrapeSearch parses the ytInitialData blob embedded in the public search
// results page. Works without credentials.
func (c *Client) scrapeSearch(ctx context.Context, query string, limit int) ([]VideoResult, error) {
	searchURL := c.searchBase + "/results?search_query=" + url.QueryEscape(query) + "&sp=" + searchFilter

	resp, err := retryHTTP(ctx, defaultRetry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search page: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBody))
	if err != nil {
		return nil, fmt.Errorf("read youtube search response: %w", err)
	}

	idx := strings.Index(string(body), initialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("ytInitialData not found in search response")
	}
	jsonData := extractJSON(body[idx+len(initialDataMarker):])
	if jsonData == nil {
		return nil, fmt.Errorf("failed to extract ytInitialData JSON")
	}
	return videosFromInitialData(jsonData, limit), nil
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by
// tracking brace depth.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, ch := range b {
		if inStr {
			if ch == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch ch {
			case '"':
				inStr = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = ch
	}
	return nil
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
	SimpleText string `json:"simpleText"`
}

func (t textRuns) join() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type videoRenderer struct {
	VideoID   string   `json:"videoId"`
	Title     textRuns `json:"title"`
	OwnerText struct {
		Runs []struct {
			Text               string `json:"text"`
			NavigationEndpoint struct {
				BrowseEndpoint struct {
					BrowseID string `json:"browseId"`
				} `json:"browseEndpoint"`
			} `json:"navigationEndpoint"`
		} `json:"runs"`
	} `json:"ownerText"`
	DescriptionSnippet       *textRuns `json:"descriptionSnippet"`
	DetailedMetadataSnippets []struct {
		SnippetText textRuns `json:"snippetText"`
	} `json:"detailedMetadataSnippets"`
	ViewCountText     textRuns `json:"viewCountText"`
	PublishedTimeText textRuns `json:"publishedTimeText"`
	LengthText        textRuns `json:"lengthText"`
}

// videosFromInitialData recursively walks the ytInitialData tree collecting
// videoRenderer entries. Renderers without a videoId are malformed and
// skipped.
func videosFromInitialData(data []byte, limit int) []VideoResult {
	var results []VideoResult
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		if len(results) >= limit {
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err == nil {
			if raw, ok := obj["videoRenderer"]; ok {
				var vr videoRenderer
				if err := json.Unmarshal(raw, &vr); err == nil && vr.VideoID != "" {
					results = append(results, renderVideo(vr))
					return
				}
			}
			for _, child := range obj {
				if len(results) >= limit {
					return
				}
				walk(child)
			}
			return
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(v, &arr); err == nil {
			for _, item := range arr {
				if len(results) >= limit {
					return
				}
				walk(item)
			}
		}
	}
	walk(data)
	return results
}

func renderVideo(vr videoRenderer) VideoResult {
	r := VideoResult{
		VideoID:       vr.VideoID,
		Title:         vr.Title.join(),
		URL:           "https://www.youtube.com/watch?v=" + vr.VideoID,
		ViewCount:     vr.ViewCountText.join(),
		PublishedTime: vr.PublishedTimeText.join(),
		Duration:      vr.LengthText.join(),
	}
	if len(vr.OwnerText.Runs) > 0 {
		r.ChannelName = vr.OwnerText.Runs[0].Text
		r.ChannelID = vr.OwnerText.Runs[0].NavigationEndpoint.BrowseEndpoint.BrowseID
	}
	if vr.DescriptionSnippet != nil {
		r.Description = vr.DescriptionSnippet.join()
	} else if len(vr.DetailedMetadataSnippets) > 0 {
		r.Description = vr.DetailedMetadataSnippets[0].SnippetText.join()
	}
	return r
}

// --- Data API v3 ---

type apiError struct {
	Error struct {
		Code   int    `json:"code"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
		Message string `json:"message"`
	} `json:"error"`
}

type channelListResp struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Country     string `json:"country"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Channel looks up channel metadata. A channel the platform does not know
// is reported as (nil, nil), not as an error.
func (c *Client) Channel(ctx context.Context, channelID string) (*ChannelRecord, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)
	params.Set("key", c.apiKey)

	body, err := c.apiGet(ctx, "/channels", params)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}

	var result channelListResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode channel response: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	item := result.Items[0]
	return &ChannelRecord{
		ChannelID:       channelID,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		PublishedAt:     item.Snippet.PublishedAt,
		Country:         item.Snippet.Country,
		ViewCount:       item.Statistics.ViewCount,
		SubscriberCount: item.Statistics.SubscriberCount,
		VideoCount:      item.Statistics.VideoCount,
	}, nil
}

type commentThreadsResp struct {
	Items []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet struct {
					AuthorDisplayName string `json:"authorDisplayName"`
					TextDisplay       string `json:"textDisplay"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// Comments lists up to maxCount top-level comments for a video. The
// platform's comments-disabled condition is returned as ErrCommentsDisabled.
func (c *Client) Comments(ctx context.Context, videoID string, maxCount int) ([]CommentRecord, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if maxCount <= 0 || maxCount > 100 {
		maxCount = 100
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("maxResults", fmt.Sprintf("%d", maxCount))
	params.Set("textFormat", "plainText")
	params.Set("key", c.apiKey)

	body, err := c.apiGet(ctx, "/commentThreads", params)
	if err != nil {
		return nil, fmt.Errorf("comments for %s: %w", videoID, err)
	}

	var result commentThreadsResp
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode comments response: %w", err)
	}

	comments := make([]CommentRecord, 0, len(result.Items))
	for _, item := range result.Items {
		s := item.Snippet.TopLevelComment.Snippet
		comments = append(comments, CommentRecord{Author: s.AuthorDisplayName, Text: s.TextDisplay})
	}
	return comments, nil
}

// apiGet performs one Data API call and surfaces API-level errors, mapping
// the commentsDisabled reason to ErrCommentsDisabled.
func (c *Client) apiGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	apiURL := c.apiBase + path + "?" + params.Encode()

	resp, err := retryHTTP(ctx, defaultRetry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 3*1024*1024))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil {
			for _, e := range ae.Error.Errors {
				if e.Reason == "commentsDisabled" {
					return nil, ErrCommentsDisabled
				}
			}
			if ae.Error.Message != "" {
				return nil, fmt.Errorf("data API %d: %s", resp.StatusCode, ae.Error.Message)
			}
		}
		return nil, fmt.Errorf("data API %d: %s", resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 256)])))
	}
	return body, nil
}
