package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/streaks"
	"github.com/joescharf/mossy/internal/tracker"
)

// Server exposes the tracker as MCP tools.
type Server struct {
	svc         *tracker.Service
	defaultUser string
	version     string
}

// NewServer creates the MCP server wrapper. defaultUser is used when a tool
// call names no user.
func NewServer(svc *tracker.Service, defaultUser, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{svc: svc, defaultUser: defaultUser, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("mossy", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.dayTool())
	srv.AddTool(s.checkTool())
	srv.AddTool(s.streaksTool())
	srv.AddTool(s.historyTool())
	srv.AddTool(s.catalogTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

func userParam() mcp.ToolOption {
	return mcp.WithString("user", mcp.Description("User name or id. Defaults to the configured user."))
}

func dayParam() mcp.ToolOption {
	return mcp.WithString("day", mcp.Description("Day key YYYY-MM-DD, or \"today\" (default)"))
}

// mossy_day
func (s *Server) dayTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("mossy_day",
		mcp.WithDescription("Show the tasks of one day with their checked state and the day's score breakdown."),
		userParam(),
		dayParam(),
	)
	return tool, s.handleDay
}

func (s *Server) handleDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, errResult := s.resolveUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	view, err := s.svc.Day(ctx, u.ID, request.GetString("day", tracker.TodayKey))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load day: %v", err)), nil
	}
	return jsonResult(dayOut(view))
}

// mossy_check
func (s *Server) checkTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("mossy_check",
		mcp.WithDescription("Check or uncheck tasks of a day by id (base-0, sleep-bed, daily-2, spec-0, malus-1) and return the new score."),
		mcp.WithString("tasks", mcp.Required(), mcp.Description("Comma-separated task ids")),
		mcp.WithBoolean("done", mcp.Description("true to check (default), false to uncheck")),
		userParam(),
		dayParam(),
	)
	return tool, s.handleCheck
}

func (s *Server) handleCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("tasks")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: tasks"), nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return mcp.NewToolResultError("no task ids given"), nil
	}

	u, errResult := s.resolveUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	done := request.GetBool("done", true)
	view, err := s.svc.Toggle(ctx, u.ID, request.GetString("day", tracker.TodayKey), ids, done)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update tasks: %v", err)), nil
	}
	return jsonResult(dayOut(view))
}

// mossy_streaks
func (s *Server) streaksTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("mossy_streaks",
		mcp.WithDescription("Current and best streak of days scoring at or above a threshold within a trailing window."),
		userParam(),
		mcp.WithNumber("window", mcp.Description("Window in days (default 30)")),
		mcp.WithNumber("threshold", mcp.Description("Minimum qualifying score (default 80)")),
	)
	return tool, s.handleStreaks
}

func (s *Server) handleStreaks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, errResult := s.resolveUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.svc.Streaks(ctx, u.ID, streaks.Options{
		WindowDays: request.GetInt("window", 0),
		Threshold:  request.GetInt("threshold", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute streaks: %v", err)), nil
	}
	return jsonResult(map[string]int{"current": res.Current, "best": res.Best, "days": len(res.Days)})
}

// mossy_history
func (s *Server) historyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("mossy_history",
		mcp.WithDescription("Daily scores for the last N days, oldest first."),
		userParam(),
		mcp.WithNumber("days", mcp.Description("Number of days (default 7)")),
	)
	return tool, s.handleHistory
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, errResult := s.resolveUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	days, err := s.svc.History(ctx, u.ID, request.GetInt("days", 7))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}

	type dayScore struct {
		Day   string `json:"day"`
		Score int    `json:"score"`
		Band  string `json:"band"`
	}
	out := make([]dayScore, len(days))
	for i, d := range days {
		out[i] = dayScore{Day: d.DayKey, Score: d.Score, Band: string(d.Band)}
	}
	return jsonResult(out)
}

// mossy_catalog
func (s *Server) catalogTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("mossy_catalog",
		mcp.WithDescription("The user's habit catalog: base tasks, sleep targets, weekly habits, ad hoc tasks and malus."),
		userParam(),
	)
	return tool, s.handleCatalog
}

func (s *Server) handleCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, errResult := s.resolveUser(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	c, err := s.svc.Catalog(ctx, u.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load catalog: %v", err)), nil
	}
	doc, err := c.Document()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode catalog: %v", err)), nil
	}
	return jsonResult(doc)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) resolveUser(ctx context.Context, request mcp.CallToolRequest) (*models.User, *mcp.CallToolResult) {
	ref := request.GetString("user", s.defaultUser)
	if ref == "" {
		return nil, mcp.NewToolResultError("no user given and no default user configured")
	}
	u, err := s.svc.ResolveUser(ctx, ref)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("user not found: %s", ref))
	}
	return u, nil
}

type taskOut struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Done     bool   `json:"done"`
}

type dayResult struct {
	Day       string    `json:"day"`
	Score     int       `json:"score"`
	Band      string    `json:"band"`
	Morning   string    `json:"morning"`
	Afternoon string    `json:"afternoon"`
	Tasks     []taskOut `json:"tasks"`
}

func dayOut(v *tracker.DayView) dayResult {
	out := dayResult{
		Day:       v.DayKey,
		Score:     v.Breakdown.Total,
		Band:      string(v.Band),
		Morning:   string(v.Breakdown.MorningStatus),
		Afternoon: string(v.Breakdown.AfternoonStatus),
	}
	for _, t := range v.Plan.All() {
		out.Tasks = append(out.Tasks, taskOut{ID: t.ID, Label: t.Label, Category: string(t.Category), Done: v.Done(t.ID)})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
