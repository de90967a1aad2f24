package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sornchai/sitetrack/internal/models"
	"github.com/sornchai/sitetrack/internal/prefs"
	"github.com/sornchai/sitetrack/internal/recordservice"
	"github.com/sornchai/sitetrack/internal/store"
)

func testServer(t *testing.T) (*Server, *recordservice.Service) {
	t.Helper()

	repo := store.NewMemory()
	ps := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.json"), slog.Default())
	svc := recordservice.NewService(repo, nil, ps)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_installations":
		result, err = srv.listInstallations(ctx, req)
	case "get_installation":
		result, err = srv.getInstallation(ctx, req)
	case "create_installation":
		result, err = srv.createInstallation(ctx, req)
	case "delete_installation":
		result, err = srv.deleteInstallation(ctx, req)
	case "site_stats":
		result, err = srv.siteStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndGetInstallation(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_installation", map[string]interface{}{
		"title":       "Camera 4, loading dock",
		"description": "wall mount",
		"latitude":    13.7563,
		"longitude":   100.5018,
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	var created models.Record
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil {
		t.Fatalf("decode create result: %v", err)
	}
	if created.ID == "" || created.Status != models.StatusComplete {
		t.Fatalf("created = %+v", created)
	}

	r = callTool(t, srv, "get_installation", map[string]interface{}{"id": created.ID})
	if r.IsError {
		t.Fatalf("get failed: %s", resultText(r))
	}
	var got models.Record
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.Title != "Camera 4, loading dock" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Location == nil || got.Location.Kind() != models.LocationCoordinate {
		t.Errorf("location = %+v, want coordinate", got.Location)
	}
}

func TestCreateBlankTitle(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_installation", map[string]interface{}{"title": "  "})
	if !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestCreateHalfCoordinate(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_installation", map[string]interface{}{
		"title":    "half a point",
		"latitude": 13.75,
	})
	if !r.IsError {
		t.Error("expected error for latitude without longitude")
	}
	if !strings.Contains(resultText(r), "together") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestListInstallations(t *testing.T) {
	srv, _ := testServer(t)

	for _, title := range []string{"first", "second", "third"} {
		callTool(t, srv, "create_installation", map[string]interface{}{"title": title})
	}

	r := callTool(t, srv, "list_installations", map[string]interface{}{})
	var recs []models.Record
	if err := json.Unmarshal([]byte(resultText(r)), &recs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("list = %d records, want 3", len(recs))
	}
	if recs[0].Title != "third" {
		t.Errorf("first listed = %q, want newest", recs[0].Title)
	}

	r = callTool(t, srv, "list_installations", map[string]interface{}{"limit": 1})
	_ = json.Unmarshal([]byte(resultText(r)), &recs)
	if len(recs) != 1 {
		t.Errorf("limit=1 returned %d records", len(recs))
	}
}

func TestDeleteInstallation(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_installation", map[string]interface{}{"title": "doomed"})
	var created models.Record
	_ = json.Unmarshal([]byte(resultText(r)), &created)

	r = callTool(t, srv, "delete_installation", map[string]interface{}{"id": created.ID})
	if r.IsError {
		t.Fatalf("delete failed: %s", resultText(r))
	}

	r = callTool(t, srv, "delete_installation", map[string]interface{}{"id": created.ID})
	if !r.IsError {
		t.Error("expected error on second delete")
	}
}

func TestSiteStats(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "create_installation", map[string]interface{}{"title": "a"})
	callTool(t, srv, "create_installation", map[string]interface{}{"title": "b"})

	r := callTool(t, srv, "site_stats", map[string]interface{}{})
	var stats recordservice.Stats
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 0 {
		t.Errorf("stats = %+v, want total 2 pending 0", stats)
	}
}

func TestGetInstallationMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_installation", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
}
