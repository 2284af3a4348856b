package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parchlabs/sitesmith/internal/deploy"
	"github.com/parchlabs/sitesmith/internal/llm"
	"github.com/parchlabs/sitesmith/internal/orchestrator"
	"github.com/parchlabs/sitesmith/internal/project"
)

// chatScript replays canned model responses in order.
type chatScript struct {
	replies []string
}

func (m *chatScript) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if len(m.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

// stubLoader serves a fixed state.
type stubLoader struct {
	state *project.State
	err   error
}

func (l *stubLoader) LoadState(ctx context.Context, proj string) (*project.State, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.state, nil
}

// deploySink records deployments; the other milestones are irrelevant here.
type deploySink struct {
	urls []string
}

func (r *deploySink) RecordPlan(ctx context.Context, proj, instruction string) error { return nil }
func (r *deploySink) RecordBuildRound(ctx context.Context, proj string, params project.BuildRoundParams) error {
	return nil
}
func (r *deploySink) RecordBuildComplete(ctx context.Context, proj string, rounds int) error {
	return nil
}
func (r *deploySink) RecordFixAction(ctx context.Context, proj string, params project.FixActionParams) error {
	return nil
}
func (r *deploySink) RecordFixStopped(ctx context.Context, proj string, rounds int) error { return nil }
func (r *deploySink) RecordDeploy(ctx context.Context, proj, url string) error {
	r.urls = append(r.urls, url)
	return nil
}

func newTestServer(model llm.Model, loader StateLoader, deployer *deploy.Client, rec orchestrator.Recorder) *Server {
	engine := orchestrator.NewEngine(orchestrator.EngineConfig{
		Model: model,
		Store: project.NewMemory(),
	})
	return New(Config{Loader: loader, Engine: engine, Deployer: deployer, Recorder: rec})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestFilesEndpoint(t *testing.T) {
	state := project.NewState("demo")
	state.Files.Put(project.GeneratedFile{Name: "index.html", Code: "<html></html>", UsedFor: "Landing page"})
	state.Files.Put(project.GeneratedFile{Name: "style.css", Code: "body {}"})
	state.ReadyToDeploy = true

	s := newTestServer(&chatScript{}, &stubLoader{state: state}, nil, nil)

	w := do(t, s, http.MethodGet, "/api/projects/demo/files", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got project.State
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Project != "demo" || got.Files.Len() != 2 {
		t.Errorf("unexpected state: project=%q files=%d", got.Project, got.Files.Len())
	}
	if !got.ReadyToDeploy {
		t.Error("expected ready_to_deploy carried through")
	}
}

func TestFilesRejectsBadProjectName(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{}, nil, nil)

	long := strings.Repeat("a", 65)
	w := do(t, s, http.MethodGet, "/api/projects/"+long+"/files", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestFilesLoadFailure(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{err: errors.New("stream gone")}, nil, nil)

	w := do(t, s, http.MethodGet, "/api/projects/demo/files", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestBuildStreamsEvents(t *testing.T) {
	model := &chatScript{replies: []string{
		"[0] One page site.\n[1] index.html [usedfor]Landing page[usedfor]",
		`{"pageName": "index.html", "code": "<html></html>", "usedFor": "Landing page", "updatedInstruction": "[0] One page site.\n[Done] index.html"}`,
		`{"isComplete": true}`,
	}}
	s := newTestServer(model, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/build", `{"request": "Build me a landing page"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected an event stream, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, `"stage":"plan"`) {
		t.Error("expected a plan event in the stream")
	}
	if !strings.Contains(body, `"stage":"build"`) {
		t.Error("expected build events in the stream")
	}
	if !strings.Contains(body, "Wrote index.html") {
		t.Error("expected the round message in the stream")
	}

	terminal := strings.Index(body, "event: done")
	if terminal < 0 {
		t.Fatal("expected a terminal done frame")
	}
	if strings.Contains(body[terminal:], `"stage"`) {
		t.Error("expected no progress frames after the terminal frame")
	}
	if !strings.Contains(body[terminal:], `"complete":true`) {
		t.Errorf("expected the summary in the terminal frame, got %s", body[terminal:])
	}
}

func TestBuildFailureEndsStreamWithError(t *testing.T) {
	model := &chatScript{replies: []string{"no plan tags here"}}
	s := newTestServer(model, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/build", `{"request": "Build me a site"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("the stream is already open when the run fails, expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: error") {
		t.Fatalf("expected a terminal error frame, got %s", body)
	}
	if !strings.Contains(body, "no buildable files") {
		t.Errorf("expected the failure reason in the frame, got %s", body)
	}
}

func TestBuildValidation(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/build", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing request, got %d", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/projects/demo/build", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed body, got %d", w.Code)
	}
}

func TestFixStreamsEvents(t *testing.T) {
	engine := orchestrator.NewEngine(orchestrator.EngineConfig{
		Model: &chatScript{replies: []string{
			`{"action": "delete", "targetFile": "broken.js"}`,
			`{"action": "done", "explanation": "removed the broken script"}`,
		}},
		Store: seededMemory(t, "demo", "broken.js", "boom()"),
	})
	s := New(Config{Loader: &stubLoader{}, Engine: engine})

	w := do(t, s, http.MethodPost, "/api/projects/demo/fix", `{"logs": "ReferenceError: boom is not defined"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !strings.Contains(body, `"action":"delete"`) {
		t.Error("expected the delete action in the stream")
	}
	if !strings.Contains(body, "event: done") || !strings.Contains(body, `"done":true`) {
		t.Errorf("expected a resolved terminal frame, got %s", body)
	}
}

func TestFixValidation(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/fix", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing logs, got %d", w.Code)
	}
}

func TestDeployEndpoint(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deploy" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"url": "https://demo.example.dev", "logs": "published"}`)
	}))
	defer provider.Close()

	state := project.NewState("demo")
	state.Files.Put(project.GeneratedFile{Name: "index.html", Code: "<html></html>"})

	sink := &deploySink{}
	s := newTestServer(&chatScript{}, &stubLoader{state: state}, deploy.NewClient(deploy.Options{Endpoint: provider.URL}), sink)

	w := do(t, s, http.MethodPost, "/api/projects/demo/deploy", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "https://demo.example.dev") {
		t.Errorf("expected the public URL in the response, got %s", w.Body.String())
	}
	if len(sink.urls) != 1 || sink.urls[0] != "https://demo.example.dev" {
		t.Errorf("expected the deployment recorded, got %v", sink.urls)
	}
}

func TestDeployWithoutFiles(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{state: project.NewState("demo")},
		deploy.NewClient(deploy.Options{Endpoint: "http://127.0.0.1:0"}), nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/deploy", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestDeployUnconfigured(t *testing.T) {
	s := newTestServer(&chatScript{}, &stubLoader{}, nil, nil)

	w := do(t, s, http.MethodPost, "/api/projects/demo/deploy", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func seededMemory(t *testing.T, proj, name, code string) *project.Memory {
	t.Helper()
	mem := project.NewMemory()
	if err := mem.PutFile(context.Background(), proj, project.PutFileParams{Name: name, Code: code}); err != nil {
		t.Fatal(err)
	}
	return mem
}
