package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/parchlabs/sitesmith/internal/logger"
	"github.com/parchlabs/sitesmith/internal/orchestrator"
	"github.com/parchlabs/sitesmith/internal/project"
)

type buildRequest struct {
	Request string `json:"request"`
}

type fixRequest struct {
	Logs string `json:"logs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.projectName(w, r)
	if !ok {
		return
	}

	state, err := s.loader.LoadState(r.Context(), proj)
	if err != nil {
		logger.Error("Failed to load state for %s: %v", proj, err)
		writeError(w, http.StatusInternalServerError, "failed to load project state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleBuild runs a full build for the requested site, streaming one SSE
// frame per progress event. The response stays open for the whole run; a
// client disconnect cancels it through the request context.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.projectName(w, r)
	if !ok {
		return
	}

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Request == "" {
		writeError(w, http.StatusBadRequest, "request is required")
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.engine.WithEmitter(stream).Build(r.Context(), orchestrator.BuildParams{
		Project: proj,
		Request: req.Request,
	})
	if err != nil {
		logger.Error("HTTP build for %s failed: %v", proj, err)
		stream.end("error", map[string]string{"error": err.Error()})
		return
	}

	names := make([]string, len(result.Files))
	for i, f := range result.Files {
		names[i] = f.Name
	}
	stream.end("done", map[string]any{
		"rounds":   result.Rounds,
		"complete": result.Complete,
		"files":    names,
	})
}

// handleFix runs the log-driven repair loop, streamed the same way as build.
func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.projectName(w, r)
	if !ok {
		return
	}

	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Logs == "" {
		writeError(w, http.StatusBadRequest, "logs are required")
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.engine.WithEmitter(stream).Fix(r.Context(), orchestrator.FixParams{
		Project: proj,
		Logs:    req.Logs,
	})
	if err != nil {
		logger.Error("HTTP fix for %s failed: %v", proj, err)
		stream.end("error", map[string]string{"error": err.Error()})
		return
	}

	stream.end("done", map[string]any{
		"rounds": result.Rounds,
		"done":   result.Done,
	})
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.projectName(w, r)
	if !ok {
		return
	}
	if s.deployer == nil {
		writeError(w, http.StatusServiceUnavailable, "deploy endpoint not configured")
		return
	}

	state, err := s.loader.LoadState(r.Context(), proj)
	if err != nil {
		logger.Error("Failed to load state for %s: %v", proj, err)
		writeError(w, http.StatusInternalServerError, "failed to load project state")
		return
	}
	if state.Files.Len() == 0 {
		writeError(w, http.StatusConflict, "project has no files to deploy")
		return
	}

	files := make(map[string]string, state.Files.Len())
	for _, f := range state.Files.Files() {
		files[f.Name] = f.Code
	}

	result, err := s.deployer.Deploy(r.Context(), proj, files)
	if err != nil {
		logger.Error("HTTP deploy for %s failed: %v", proj, err)
		payload := map[string]string{"error": err.Error()}
		if result != nil && result.Logs != "" {
			payload["logs"] = result.Logs
		}
		writeJSON(w, http.StatusBadGateway, payload)
		return
	}

	if s.rec != nil {
		if err := s.rec.RecordDeploy(r.Context(), proj, result.URL); err != nil {
			logger.Error("Failed to record deploy for %s: %v", proj, err)
			writeError(w, http.StatusInternalServerError, "deployed but failed to record the URL")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": result.URL})
}

// projectName extracts and validates the path's project segment.
func (s *Server) projectName(w http.ResponseWriter, r *http.Request) (string, bool) {
	proj := r.PathValue("project")
	if err := project.ValidateName(proj); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return proj, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// eventStream adapts a streaming HTTP response into an orchestrator.Emitter.
// Each event is one SSE data frame, flushed immediately so the client sees
// rounds as they happen.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher}, nil
}

// Emit writes one progress event. Emit runs on the loop's goroutine, so
// writes never interleave.
func (s *eventStream) Emit(ev orchestrator.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// end writes the terminal frame as a named SSE event.
func (s *eventStream) end(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	s.flusher.Flush()
}
