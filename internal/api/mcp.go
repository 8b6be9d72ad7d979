package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/osintkit/tubetrail/internal/hunt"
	"github.com/osintkit/tubetrail/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
	// MinSubscribers is the quiet-channel threshold for the analyze tool.
	MinSubscribers int64
}

// NewMCPServer creates an MCP server with all tubetrail tools and resources
// registered. Collection runs are enqueued, not executed inline, so a tool
// call returns immediately and the hunt worker picks the job up.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"tubetrail",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("tubetrail collects public video platform metadata per search keyword and extracts contact identifiers (telegram, discord, email, urls, pastebin) for OSINT investigations."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_sessions",
			mcp.WithDescription("List collection sessions, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default 20)")),
		),
		mcpListSessions(deps),
	)

	s.AddTool(
		mcp.NewTool("session_stats",
			mcp.WithDescription("Row counts and contact-type breakdown for one session."),
			mcp.WithNumber("session_id", mcp.Description("Session ID; defaults to the latest session")),
		),
		mcpSessionStats(deps),
	)

	s.AddTool(
		mcp.NewTool("search_contacts",
			mcp.WithDescription("Search extracted contacts in a session, joined to the video/comment/channel they were found in."),
			mcp.WithNumber("session_id", mcp.Description("Session ID; defaults to the latest session")),
			mcp.WithString("type", mcp.Description("Contact type filter: telegram, discord, email, http, pastebin")),
			mcp.WithString("value", mcp.Description("Substring match on the contact value")),
			mcp.WithString("source", mcp.Description("Source filter: video, comment, channel")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 50)")),
		),
		mcpSearchContacts(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_session",
			mcp.WithDescription("Aggregated OSINT signals for one session: channels with contacts, large channels without any, and contact values repeated across sources."),
			mcp.WithNumber("session_id", mcp.Description("Session ID; defaults to the latest session")),
		),
		mcpAnalyzeSession(deps),
	)

	s.AddTool(
		mcp.NewTool("start_hunt",
			mcp.WithDescription("Queue a new collection run for a search keyword. Returns the job ID; poll session stats to see results."),
			mcp.WithString("keyword", mcp.Description("Search keyword to hunt"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum candidate videos (default 20)")),
			mcp.WithNumber("max_comments", mcp.Description("Comments fetched per video (default 20)")),
			mcp.WithString("note", mcp.Description("Free-text session tag")),
		),
		mcpStartHunt(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"tubetrail://sessions",
			"Collection Sessions",
			mcp.WithResourceDescription("Last 20 collection sessions as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSessions(deps),
	)

	return s
}

// resolveSession turns an optional session_id argument into a concrete ID,
// falling back to the latest session.
func resolveSession(deps MCPDeps, req mcp.CallToolRequest) (int64, error) {
	id := int64(req.GetInt("session_id", 0))
	if id > 0 {
		return id, nil
	}
	latest, err := deps.Store.LatestSessionID()
	if err != nil {
		return 0, fmt.Errorf("no sessions collected yet")
	}
	return latest, nil
}

func mcpListSessions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 20)
		sessions, err := deps.Store.ListSessions(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list sessions: %v", err)), nil
		}

		type sessionSummary struct {
			ID        int64  `json:"id"`
			CreatedAt string `json:"created_at"`
			Keyword   string `json:"keyword"`
			Note      string `json:"note,omitempty"`
		}
		summaries := make([]sessionSummary, len(sessions))
		for i, sess := range sessions {
			summaries[i] = sessionSummary{
				ID:        sess.ID,
				CreatedAt: sess.CreatedAt.Format(time.RFC3339),
				Keyword:   sess.Keyword,
				Note:      sess.Note,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal sessions: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSessionStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := resolveSession(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		stats, err := deps.Store.SessionStats(id)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get stats: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"session_id": id,
			"stats":      stats,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchContacts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := resolveSession(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		limit := req.GetInt("limit", 50)
		if limit <= 0 {
			limit = 50
		}
		if limit > 500 {
			limit = 500
		}

		hits, err := deps.Store.SearchContacts(id, storage.ContactFilter{
			ContactType: req.GetString("type", ""),
			ValueLike:   req.GetString("value", ""),
			Source:      req.GetString("source", ""),
			Limit:       limit,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("contact search failed: %v", err)), nil
		}
		if len(hits) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(hits)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal contacts: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAnalyzeSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := resolveSession(deps, req)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		withContacts, err := deps.Store.ChannelsWithContacts(id)
		if err != nil {
			return mcpError(fmt.Sprintf("channel analysis failed: %v", err)), nil
		}
		quiet, err := deps.Store.QuietLargeChannels(id, deps.MinSubscribers, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("quiet-channel analysis failed: %v", err)), nil
		}
		repeated, err := deps.Store.RepeatedContacts(id)
		if err != nil {
			return mcpError(fmt.Sprintf("repeated-contact analysis failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{
			"session_id":             id,
			"channels_with_contacts": withContacts,
			"quiet_large_channels":   quiet,
			"repeated_contacts":      repeated,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal analysis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpStartHunt(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := req.RequireString("keyword")
		if err != nil {
			return mcpError("keyword is required"), nil
		}

		jobID, err := hunt.Enqueue(deps.Store, hunt.Payload{
			Keyword:     keyword,
			Limit:       req.GetInt("limit", 0),
			MaxComments: req.GetInt("max_comments", 0),
			Note:        req.GetString("note", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to enqueue hunt: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Queued hunt job %s for keyword %q", jobID, keyword)), nil
	}
}

func mcpResourceSessions(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sessions, err := deps.Store.ListSessions(20)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}

		b, err := json.Marshal(sessions)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sessions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
