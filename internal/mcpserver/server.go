// Package mcpserver exposes reminder management as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/reminder"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	serverName    = "warrior-reminders"
	serverVersion = "1.0.0"
)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	svc       *reminder.Service
}

// NewServer creates a new MCP server backed by the given service.
func NewServer(svc *reminder.Service) *Server {
	s := &Server{svc: svc}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a daily reminder that fires at a wall-clock time"),
			mcp.WithString("time", mcp.Required(), mcp.Description("Time of day, HH:MM (24h)")),
			mcp.WithString("title", mcp.Description("Notification title (defaults to the category template)")),
			mcp.WithString("body", mcp.Description("Notification body")),
			mcp.WithString("type", mcp.Description("Category: medication, water, health-check, exercise, appointment, custom (default: custom)")),
			mcp.WithBoolean("enabled", mcp.Description("Arm immediately (default: true)")),
		),
		s.handleAddReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List all reminders with their next fire time"),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_reminder",
			mcp.WithDescription("Get one reminder by id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleGetReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields (time, title, body, type, enabled)"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			mcp.WithString("time", mcp.Description("New time, HH:MM")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("body", mcp.Description("New body")),
			mcp.WithString("type", mcp.Description("New category")),
			mcp.WithBoolean("enabled", mcp.Description("Enable or disable")),
		),
		s.handleUpdateReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_reminder",
			mcp.WithDescription("Flip a reminder between enabled and disabled"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleToggleReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
		),
		s.handleDeleteReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_templates",
			mcp.WithDescription("List the predefined reminder templates per category"),
		),
		s.handleListTemplates,
	)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}

func toolError(action string, err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeStr := req.GetString("time", "")
	if timeStr == "" {
		return mcp.NewToolResultError("time is required"), nil
	}
	tod, err := domain.ParseTimeOfDay(timeStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid time: %v (use HH:MM, e.g. 08:30)", err)), nil
	}
	cat, err := domain.ParseCategory(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := domain.ReminderConfig{
		Time:     tod,
		Title:    req.GetString("title", ""),
		Body:     req.GetString("body", ""),
		Category: cat,
		Enabled:  req.GetBool("enabled", true),
	}
	if r.Title == "" {
		t, ok := domain.TemplateFor(cat)
		if !ok {
			return mcp.NewToolResultError("title is required for custom reminders"), nil
		}
		r.Title = t.Title
		if r.Body == "" {
			r.Body = t.Body
		}
	}

	added, err := s.svc.Create(ctx, r)
	if err != nil {
		return toolError("add reminder", err), nil
	}
	return jsonResult(added)
}

func (s *Server) handleListReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views := s.svc.List()
	if len(views) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(views)
}

func (s *Server) handleGetReminder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	v, err := s.svc.Get(id)
	if err != nil {
		return toolError("get reminder", err), nil
	}
	return jsonResult(v)
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	var p domain.Patch
	if v := req.GetString("time", ""); v != "" {
		tod, err := domain.ParseTimeOfDay(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid time: %v", err)), nil
		}
		p.Time = &tod
	}
	if v := req.GetString("title", ""); v != "" {
		p.Title = &v
	}
	if v := req.GetString("body", ""); v != "" {
		p.Body = &v
	}
	if v := req.GetString("type", ""); v != "" {
		cat, err := domain.ParseCategory(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p.Category = &cat
	}
	if v, ok := req.GetArguments()["enabled"].(bool); ok {
		p.Enabled = &v
	}
	if p.Empty() {
		return mcp.NewToolResultError("nothing to update"), nil
	}

	updated, err := s.svc.Update(ctx, id, p)
	if err != nil {
		return toolError("update reminder", err), nil
	}
	return jsonResult(updated)
}

func (s *Server) handleToggleReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	v, err := s.svc.Toggle(ctx, id)
	if err != nil {
		return toolError("toggle reminder", err), nil
	}
	return jsonResult(v)
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return toolError("delete reminder", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
}

func (s *Server) handleListTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Templates())
}
