// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes installation records for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sornchai/sitetrack/internal/models"
	"github.com/sornchai/sitetrack/internal/recordservice"
)

const defaultListLimit = 20

// Server wraps the MCP server with installation tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
}

// New creates a new MCP server with all installation tools registered.
func New(svc *recordservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sitetrack",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_installations",
		mcp.WithDescription("List installation records, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records to return (default 20)")),
	), s.listInstallations)

	s.mcp.AddTool(mcp.NewTool("get_installation",
		mcp.WithDescription("Read a single installation record by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getInstallation)

	s.mcp.AddTool(mcp.NewTool("create_installation",
		mcp.WithDescription("Create a new installation record. Title is required; "+
			"latitude and longitude are optional but must be supplied together."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Installation title (non-blank)")),
		mcp.WithString("description", mcp.Description("Free-form description")),
		mcp.WithNumber("latitude", mcp.Description("Site latitude in decimal degrees")),
		mcp.WithNumber("longitude", mcp.Description("Site longitude in decimal degrees")),
	), s.createInstallation)

	s.mcp.AddTool(mcp.NewTool("delete_installation",
		mcp.WithDescription("Delete an installation record by id. This is permanent."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.deleteInstallation)

	s.mcp.AddTool(mcp.NewTool("site_stats",
		mcp.WithDescription("Return the dashboard counters: total records and pending records."),
	), s.siteStats)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listInstallations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := defaultListLimit
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		limit = n
	}
	recs, err := s.svc.FetchRecent(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if recs == nil {
		recs = []models.Record{}
	}
	out, _ := json.MarshalIndent(recs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getInstallation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.GetByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createInstallation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := ""
	if d, err := req.RequireString("description"); err == nil {
		description = d
	}

	var sample *models.LocationSample
	lat, latErr := req.RequireFloat("latitude")
	lng, lngErr := req.RequireFloat("longitude")
	switch {
	case latErr == nil && lngErr == nil:
		sample = &models.LocationSample{Latitude: lat, Longitude: lng}
	case latErr == nil || lngErr == nil:
		return mcp.NewToolResultError("latitude and longitude must be supplied together"), nil
	}

	rec, err := s.svc.SubmitNew(ctx, title, description, sample)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteInstallation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveByID(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) siteStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.FetchStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
