// Package web serves the control UI: a static HTML page, a JSON snapshot
// endpoint, a Server-Sent-Events stream for live updates, and a command
// endpoint the page posts button presses to. Routes are registered on a
// net/http ServeMux, and error responses use the apierror envelope.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brodyfreeman/nintendo-pi-go/internal/apierror"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
	"github.com/brodyfreeman/nintendo-pi-go/internal/supervisor"
)

//go:embed static/index.html
var staticFiles embed.FS

// snapshotPollInterval bounds how often the SSE stream checks the session
// publisher's dirty bit, matching the 5 Hz upper bound on state pushes.
const snapshotPollInterval = 200 * time.Millisecond

// Server is the HTTP surface over a supervisor.Hub.
type Server struct {
	hub *supervisor.Hub
}

// NewServer builds a web server bound to hub.
func NewServer(hub *supervisor.Hub) *Server {
	return &Server{hub: hub}
}

// Routes returns the server's handler, ready to pass to http.Server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/macros", s.handleMacros)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("POST /api/cmd", s.handleCommand)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeError(w, apierror.Internal("static asset missing"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Publisher.Snapshot())
}

func (s *Server) handleMacros(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, macro.ListMacros(s.hub.MacrosDir))
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Cmd  string          `json:"cmd"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apierror.BadRequest("malformed JSON body"))
		return
	}

	cmd, err := parseCommand(body.Cmd, body.Data)
	if err != nil {
		writeError(w, apierror.Wrap(err))
		return
	}

	select {
	case s.hub.Commands <- cmd:
	default:
		slog.Warn("command channel full, dropping web command", "cmd", body.Cmd)
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleEvents streams {"type": ...} JSON objects over SSE: an immediate
// "init" snapshot, then "state_update" on every dirty-bit tick and
// "macro_list" whenever the controller signals the index changed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierror.Internal("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, map[string]any{
		"type":   "init",
		"state":  s.hub.Publisher.Snapshot(),
		"macros": macro.ListMacros(s.hub.MacrosDir),
	})
	flusher.Flush()

	ticker := time.NewTicker(snapshotPollInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if snap, changed := s.hub.Publisher.PopIfChanged(); changed {
				writeEvent(w, map[string]any{"type": "state_update", "state": snap})
				flusher.Flush()
			}
		case <-s.hub.MacroEvents:
			writeEvent(w, map[string]any{"type": "macro_list", "macros": macro.ListMacros(s.hub.MacrosDir)})
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode SSE payload", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, apiErr apierror.ApiError) {
	if apiErr.Status >= 500 {
		slog.Error("web request failed", "status", apiErr.Status, "detail", apiErr.Detail)
	} else {
		slog.Warn("web request rejected", "status", apiErr.Status, "detail", apiErr.Detail)
	}
	writeJSON(w, apiErr.Status, apiErr)
}
