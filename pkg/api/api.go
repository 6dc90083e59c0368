// Package api exposes the afdd daemon as JSON over HTTP on a Unix domain
// socket. All automaton logic is delegated to internal/engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lc/afd/internal/automaton"
	"github.com/lc/afd/internal/buildinfo"
	"github.com/lc/afd/internal/engine"
	"github.com/lc/afd/internal/eval"
	"github.com/lc/afd/internal/log"
	"github.com/lc/afd/internal/socket"
	"github.com/lc/afd/internal/store"
)

// LoadRequest loads an automaton from its configuration text.
type LoadRequest struct {
	Name   string        `json:"name"`
	Config string        `json:"config"`
	TTL    time.Duration `json:"ttl,omitempty"` // 0 = daemon default
	Pin    bool          `json:"pin,omitempty"`
}

// EvalRequest evaluates strings against a loaded automaton.
type EvalRequest struct {
	Ref    string   `json:"ref"` // ID or name
	Inputs []string `json:"inputs"`
}

// EvalResponse carries the verdicts in input order.
type EvalResponse struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Results  []eval.Result `json:"results"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
}

// UnloadRequest removes a loaded automaton.
type UnloadRequest struct {
	Ref string `json:"ref"`
}

// AutomatonInfo describes a loaded automaton.
type AutomatonInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	States   []string  `json:"states"`
	Initial  string    `json:"initial"`
	Finals   []string  `json:"finals"`
	LoadedAt time.Time `json:"loaded_at"`
	LastUsed time.Time `json:"last_used"`
	Expires  *time.Time `json:"expires,omitempty"` // nil when pinned
	Pinned   bool      `json:"pinned"`
}

// StatusResponse represents the daemon status.
type StatusResponse struct {
	Automata   int           `json:"automata"`
	NextExpiry *time.Time    `json:"next_expiry,omitempty"`
	Uptime     time.Duration `json:"uptime"`
	Version    string        `json:"version"`
	Commit     string        `json:"commit"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"` // configuration error kind
	Line  int    `json:"line,omitempty"` // configuration line, if known
}

// Info converts a store entry for the wire.
func Info(e store.Entry) AutomatonInfo {
	a := e.Automaton
	info := AutomatonInfo{
		ID:       e.ID,
		Name:     e.Name,
		States:   a.States(),
		Initial:  a.Name(a.Initial()),
		Finals:   a.Finals(),
		LoadedAt: e.LoadedAt,
		LastUsed: e.LastUsed,
		Pinned:   e.Pinned(),
	}
	if !info.Pinned {
		expires := e.Expires
		info.Expires = &expires
	}
	return info
}

// -------- server -----------------------------------------------------

// Server handles API requests.
type Server struct {
	eng   *engine.Engine
	start time.Time
	mux   *http.ServeMux
	srv   *http.Server
}

// New creates a server backed by eng.
func New(eng *engine.Engine) *Server {
	s := &Server{
		eng:   eng,
		start: time.Now(),
		mux:   http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/load", s.handleLoad)
	s.mux.HandleFunc("/v1/eval", s.handleEval)
	s.mux.HandleFunc("/v1/unload", s.handleUnload)
	s.mux.HandleFunc("/v1/automata", s.handleAutomata)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves on the Unix socket at path until Shutdown.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("name required"))
		return
	}
	ent, err := s.eng.Load(r.Context(), engine.LoadSpec{
		Name:  req.Name,
		Lines: strings.Split(req.Config, "\n"),
		TTL:   req.TTL,
		Pin:   req.Pin,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Info(ent))
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Ref == "" {
		writeError(w, http.StatusBadRequest, errors.New("ref required"))
		return
	}
	ent, rep, err := s.eng.Evaluate(r.Context(), req.Ref, req.Inputs)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvalResponse{
		ID:       ent.ID,
		Name:     ent.Name,
		Results:  rep.Results,
		Accepted: rep.Accepted,
		Rejected: rep.Rejected,
	})
}

func (s *Server) handleUnload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req UnloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Ref == "" {
		writeError(w, http.StatusBadRequest, errors.New("ref required"))
		return
	}
	if err := s.eng.Unload(r.Context(), req.Ref); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAutomata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	snap := s.eng.Snapshot()
	out := make([]AutomatonInfo, 0, len(snap))
	for _, e := range snap {
		out = append(out, Info(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	resp := StatusResponse{
		Automata: len(s.eng.Snapshot()),
		Uptime:   time.Since(s.start),
		Version:  buildinfo.Version,
		Commit:   buildinfo.Commit,
	}
	if next, ok := s.eng.NextExpiry(); ok {
		resp.NextExpiry = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeEngineError maps engine and configuration errors to status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var cerr *automaton.ConfigError
	switch {
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Kind:  automaton.KindName(err),
			Line:  cerr.Line,
		})
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		log.Warnf("api: %v", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("api: encoding response: %v", err)
	}
}

// RemoteError is returned by the client for non-2xx responses.
type RemoteError struct {
	Status int
	ErrorResponse
}

func (e *RemoteError) Error() string {
	if e.ErrorResponse.Error == "" {
		return fmt.Sprintf("daemon returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.ErrorResponse.Error
}
