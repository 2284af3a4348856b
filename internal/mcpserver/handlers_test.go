package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/parchlabs/sitesmith/internal/deploy"
	"github.com/parchlabs/sitesmith/internal/nats"
	"github.com/parchlabs/sitesmith/internal/project"
)

// setupTestServer creates a server backed by an embedded NATS store
func setupTestServer(t *testing.T) (*Server, func()) {
	ctx := context.Background()

	// Create embedded NATS
	ns, _, err := nats.StartEmbeddedNATS(t.TempDir())
	if err != nil {
		t.Fatalf("failed to start NATS: %v", err)
	}

	// Connect to NATS
	nc, err := nats.ConnectInProcess(ns)
	if err != nil {
		t.Fatalf("failed to connect to NATS: %v", err)
	}

	// Create JetStream
	js, err := nats.CreateJetStream(nc)
	if err != nil {
		t.Fatalf("failed to create JetStream: %v", err)
	}

	// Setup stream
	stream, err := nats.SetupStream(ctx, js)
	if err != nil {
		t.Fatalf("failed to setup stream: %v", err)
	}

	// Create store
	store := project.NewStore(js, stream)

	// Create server with no deploy endpoint; deploy tests set one
	srv := New(store, nil, "test-project")

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
	}

	return srv, cleanup
}

// newRequest builds a tool call with the given arguments.
func newRequest(tool string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	}
}

// extractText extracts text from CallToolResult.Content[0]
func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

// writeFile seeds a file through the write_file handler.
func writeFile(t *testing.T, srv *Server, name, code, usedFor string) {
	t.Helper()

	args := map[string]any{"name": name, "code": code}
	if usedFor != "" {
		args["used_for"] = usedFor
	}

	result, err := srv.handleWriteFile(context.Background(), newRequest("write_file", args))
	if err != nil {
		t.Fatalf("handleWriteFile returned error: %v", err)
	}
	if text := extractText(result); strings.Contains(text, "error:") {
		t.Fatalf("write_file failed: %s", text)
	}
}

func TestHandleWriteFile_CreatesFile(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()

	result, err := srv.handleWriteFile(ctx, newRequest("write_file", map[string]any{
		"name":     "index.html",
		"code":     "<html></html>",
		"used_for": "Landing page",
	}))
	if err != nil {
		t.Fatalf("handleWriteFile returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "Wrote index.html") {
		t.Errorf("unexpected result: %s", text)
	}

	state, err := srv.store.LoadState(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}

	file, ok := state.Files.Get("index.html")
	if !ok {
		t.Fatal("index.html not persisted")
	}
	if file.Code != "<html></html>" {
		t.Errorf("unexpected code: %q", file.Code)
	}
	if file.UsedFor != "Landing page" {
		t.Errorf("unexpected used_for: %q", file.UsedFor)
	}
}

func TestHandleWriteFile_MissingCode(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleWriteFile(context.Background(), newRequest("write_file", map[string]any{
		"name": "index.html",
	}))
	if err != nil {
		t.Fatalf("handleWriteFile returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: missing or invalid 'code' parameter") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleWriteFile_KeepsUsedFor(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()
	writeFile(t, srv, "index.html", "v1", "Landing page")

	// Overwrite without used_for; the previous purpose survives
	result, err := srv.handleWriteFile(ctx, newRequest("write_file", map[string]any{
		"name": "index.html",
		"code": "v2",
	}))
	if err != nil {
		t.Fatalf("handleWriteFile returned error: %v", err)
	}
	if text := extractText(result); strings.Contains(text, "error:") {
		t.Fatalf("overwrite failed: %s", text)
	}

	state, err := srv.store.LoadState(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}

	file, _ := state.Files.Get("index.html")
	if file.Code != "v2" {
		t.Errorf("code not replaced: %q", file.Code)
	}
	if file.UsedFor != "Landing page" {
		t.Errorf("used_for not preserved: %q", file.UsedFor)
	}
}

func TestHandleReadFile_ReturnsCode(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	code := "body { margin: 0; }\n"
	writeFile(t, srv, "style.css", code, "Site styles")

	result, err := srv.handleReadFile(context.Background(), newRequest("read_file", map[string]any{
		"name": "style.css",
	}))
	if err != nil {
		t.Fatalf("handleReadFile returned error: %v", err)
	}

	if text := extractText(result); text != code {
		t.Errorf("read returned %q, want %q", text, code)
	}
}

func TestHandleReadFile_NotFound(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleReadFile(context.Background(), newRequest("read_file", map[string]any{
		"name": "missing.html",
	}))
	if err != nil {
		t.Fatalf("handleReadFile returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: file not found: missing.html") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleListFiles_Empty(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleListFiles(context.Background(), newRequest("list_files", nil))
	if err != nil {
		t.Fatalf("handleListFiles returned error: %v", err)
	}

	if text := extractText(result); text != "No files in project." {
		t.Errorf("unexpected result: %s", text)
	}
}

func TestHandleListFiles_ShowsPurpose(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	writeFile(t, srv, "index.html", "<html></html>", "Landing page")
	writeFile(t, srv, "about.html", "<html></html>", "Company background")

	result, err := srv.handleListFiles(context.Background(), newRequest("list_files", nil))
	if err != nil {
		t.Fatalf("handleListFiles returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "2 file(s):") {
		t.Errorf("missing count header: %s", text)
	}
	if !strings.Contains(text, "index.html: Landing page") {
		t.Errorf("missing index.html line: %s", text)
	}
	if !strings.Contains(text, "about.html: Company background") {
		t.Errorf("missing about.html line: %s", text)
	}
	if strings.Index(text, "index.html") > strings.Index(text, "about.html") {
		t.Errorf("files out of write order: %s", text)
	}
}

func TestHandleDeleteFile(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()
	writeFile(t, srv, "index.html", "<html></html>", "")

	result, err := srv.handleDeleteFile(ctx, newRequest("delete_file", map[string]any{
		"name": "index.html",
	}))
	if err != nil {
		t.Fatalf("handleDeleteFile returned error: %v", err)
	}
	if text := extractText(result); !strings.Contains(text, "Deleted index.html") {
		t.Errorf("unexpected result: %s", text)
	}

	state, err := srv.store.LoadState(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if state.Files.Has("index.html") {
		t.Error("index.html still present after delete")
	}

	// Deleting again reports not found
	result, err = srv.handleDeleteFile(ctx, newRequest("delete_file", map[string]any{
		"name": "index.html",
	}))
	if err != nil {
		t.Fatalf("second handleDeleteFile returned error: %v", err)
	}
	if text := extractText(result); !strings.Contains(text, "error: file not found: index.html") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleMoveFile(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()
	writeFile(t, srv, "home.html", "<h1>Home</h1>", "Landing page")

	result, err := srv.handleMoveFile(ctx, newRequest("move_file", map[string]any{
		"name":     "home.html",
		"new_path": "index.html",
	}))
	if err != nil {
		t.Fatalf("handleMoveFile returned error: %v", err)
	}
	if text := extractText(result); !strings.Contains(text, "Moved home.html to index.html") {
		t.Errorf("unexpected result: %s", text)
	}

	state, err := srv.store.LoadState(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}

	if state.Files.Has("home.html") {
		t.Error("home.html still present after move")
	}

	file, ok := state.Files.Get("index.html")
	if !ok {
		t.Fatal("index.html missing after move")
	}
	if file.Code != "<h1>Home</h1>" {
		t.Errorf("contents lost in move: %q", file.Code)
	}
	if file.UsedFor != "Landing page" {
		t.Errorf("purpose lost in move: %q", file.UsedFor)
	}
}

func TestHandleMoveFile_MissingNewPath(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleMoveFile(context.Background(), newRequest("move_file", map[string]any{
		"name": "home.html",
	}))
	if err != nil {
		t.Fatalf("handleMoveFile returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: missing or invalid 'new_path' parameter") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleMoveFile_SameName(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	writeFile(t, srv, "index.html", "<html></html>", "")

	result, err := srv.handleMoveFile(context.Background(), newRequest("move_file", map[string]any{
		"name":     "index.html",
		"new_path": "index.html",
	}))
	if err != nil {
		t.Fatalf("handleMoveFile returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: index.html already has that name") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleProjectStatus_EmptyProject(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleProjectStatus(context.Background(), newRequest("project_status", nil))
	if err != nil {
		t.Fatalf("handleProjectStatus returned error: %v", err)
	}

	text := extractText(result)
	for _, want := range []string{
		"Project: test-project",
		"Plan: none recorded",
		"Files: 0",
		"Build rounds: 0",
		"Ready to deploy: false",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("status missing %q:\n%s", want, text)
		}
	}
}

func TestHandleProjectStatus_ReportsProgress(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	ctx := context.Background()

	plan := "[0] A two page site.\n[Done] index.html [usedfor]Landing page[usedfor]\n[2] about.html [usedfor]Company background[usedfor]"
	if err := srv.store.RecordPlan(ctx, "test-project", plan); err != nil {
		t.Fatalf("failed to record plan: %v", err)
	}
	if err := srv.store.RecordBuildRound(ctx, "test-project", project.BuildRoundParams{
		Round: 1, Page: "index.html", Done: 1, Total: 2,
	}); err != nil {
		t.Fatalf("failed to record round: %v", err)
	}
	writeFile(t, srv, "index.html", "<html></html>", "Landing page")

	result, err := srv.handleProjectStatus(ctx, newRequest("project_status", nil))
	if err != nil {
		t.Fatalf("handleProjectStatus returned error: %v", err)
	}

	text := extractText(result)
	for _, want := range []string{
		"Plan: 1 of 2 files done",
		"Files: 1",
		"Build rounds: 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("status missing %q:\n%s", want, text)
		}
	}
}

func TestHandleDeploySite_Unconfigured(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	result, err := srv.handleDeploySite(context.Background(), newRequest("deploy_site", nil))
	if err != nil {
		t.Fatalf("handleDeploySite returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: no deployment endpoint configured") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleDeploySite_NoFiles(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	srv.deployer = deploy.NewClient(deploy.Options{Endpoint: "http://127.0.0.1:1"})

	result, err := srv.handleDeploySite(context.Background(), newRequest("deploy_site", nil))
	if err != nil {
		t.Fatalf("handleDeploySite returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "error: project has no files to deploy") {
		t.Errorf("unexpected error message: %s", text)
	}
}

func TestHandleDeploySite_RecordsURL(t *testing.T) {
	srv, cleanup := setupTestServer(t)
	defer cleanup()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/deploy" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"url":  "https://demo.example.dev",
			"logs": "published",
		})
	}))
	defer provider.Close()

	srv.deployer = deploy.NewClient(deploy.Options{Endpoint: provider.URL})

	ctx := context.Background()
	writeFile(t, srv, "index.html", "<html></html>", "Landing page")

	result, err := srv.handleDeploySite(ctx, newRequest("deploy_site", nil))
	if err != nil {
		t.Fatalf("handleDeploySite returned error: %v", err)
	}

	text := extractText(result)
	if !strings.Contains(text, "Deployed to https://demo.example.dev") {
		t.Errorf("unexpected result: %s", text)
	}

	state, err := srv.store.LoadState(ctx, "test-project")
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if state.DeployURL != "https://demo.example.dev" {
		t.Errorf("deploy URL not recorded: %q", state.DeployURL)
	}
}
