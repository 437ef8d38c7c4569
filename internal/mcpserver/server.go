// Package mcpserver exposes the day lifecycle to MCP clients over stdio,
// acting on behalf of a single configured user.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"interntrack/internal/progress"
	"interntrack/internal/services"
)

const Version = "0.1.0"

// Tools binds MCP tool handlers to one user's journal.
type Tools struct {
	userID      uuid.UUID
	journals    *services.JournalService
	progress    *progress.Service
	compilation *services.CompilationService
}

func NewTools(userID uuid.UUID, j *services.JournalService, p *progress.Service, c *services.CompilationService) *Tools {
	return &Tools{userID: userID, journals: j, progress: p, compilation: c}
}

// New builds an MCP server with every tool registered.
func New(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"interntrack",
		Version,
		server.WithLogging(),
		server.WithRecovery(),
	)
	t.Register(s)
	return s
}

// Serve runs the stdio loop until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Returns total finished hours, streaks and completion towards the 486 hour target."),
	), t.GetProgress)

	s.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Creates or updates the draft journal entry for a date. Finished days cannot be edited."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day in YYYY-MM-DD format.")),
		mcp.WithString("content", mcp.Description("Journal text for the day.")),
		mcp.WithNumber("hours", mcp.Description("Hours worked, between 0 and 24.")),
	), t.SaveDraft)

	s.AddTool(mcp.NewTool("log_hours",
		mcp.WithDescription("Sets the hours worked for a date without touching its text."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day in YYYY-MM-DD format.")),
		mcp.WithNumber("hours", mcp.Required(), mcp.Description("Hours worked, between 0.5 and 24.")),
	), t.LogHours)

	s.AddTool(mcp.NewTool("finish_day",
		mcp.WithDescription("Finalizes a day. Its hours then count towards the target and it can no longer be edited."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day in YYYY-MM-DD format.")),
	), t.FinishDay)

	s.AddTool(mcp.NewTool("compilation_status",
		mcp.WithDescription("Reports whether the internship report can be compiled and whether one exists."),
	), t.CompilationStatus)
}

func (t *Tools) GetProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := t.progress.Snapshot(ctx, t.userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load progress: %v", err)), nil
	}
	return jsonResult(snap)
}

func (t *Tools) SaveDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, ok := request.Params.Arguments["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("'date' parameter is required and must be a non-empty string."), nil
	}
	in := services.SaveDraftInput{Date: date}
	if content, ok := request.Params.Arguments["content"].(string); ok {
		in.Content = &content
	}
	if hours, ok := request.Params.Arguments["hours"].(float64); ok {
		h := decimal.NewFromFloat(hours)
		in.Hours = &h
	}
	entry, _, err := t.journals.SaveDraft(ctx, t.userID, in)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(entry)
}

func (t *Tools) LogHours(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, ok := request.Params.Arguments["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("'date' parameter is required and must be a non-empty string."), nil
	}
	hours, ok := request.Params.Arguments["hours"].(float64)
	if !ok {
		return mcp.NewToolResultError("'hours' parameter is required and must be a number."), nil
	}
	h := decimal.NewFromFloat(hours)
	entry, _, err := t.journals.LogHours(ctx, t.userID, services.LogHoursInput{Date: date, Hours: &h})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(entry)
}

func (t *Tools) FinishDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, ok := request.Params.Arguments["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("'date' parameter is required and must be a non-empty string."), nil
	}
	entry, err := t.journals.FinishDay(ctx, t.userID, services.FinishDayInput{Date: date})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(entry)
}

func (t *Tools) CompilationStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.compilation.Status(ctx, t.userID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

// toolError reports service failures as tool errors. Internal causes stay out
// of the message.
func toolError(err error) *mcp.CallToolResult {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) || svcErr.Kind == services.KindInternal {
		return mcp.NewToolResultError("internal error")
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", svcErr.Kind, svcErr.Message))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
