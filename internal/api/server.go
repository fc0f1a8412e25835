// Package api serves the management HTTP API: instance listing,
// instance commands, launch dispatch, and mass shutdown.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/lifecycle"
)

// maxRequestBodySize limits request bodies to prevent memory exhaustion.
const maxRequestBodySize = 1 << 20 // 1MB

// Server is the management API server.
type Server struct {
	addr    string
	token   string
	engine  *lifecycle.Engine
	catalog *config.Catalog
	global  config.GlobalConfig
	server  *http.Server
	mu      sync.RWMutex // protects server field
	logger  *slog.Logger
}

// NewServer creates the management API server. An empty token disables
// authentication (intended for loopback-only binds).
func NewServer(addr, token string, engine *lifecycle.Engine, catalog *config.Catalog, global config.GlobalConfig, log *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		token:   token,
		engine:  engine,
		catalog: catalog,
		global:  global,
		logger:  log.With("component", "api_server"),
	}
}

// Start starts the API server; serve errors are logged, not returned.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/instances", s.auth(s.handleListInstances))
	mux.HandleFunc("GET /api/instances/{id}", s.auth(s.handleGetInstance))
	mux.HandleFunc("POST /api/instances/{id}/{action}", s.auth(s.handleInstanceAction))
	mux.HandleFunc("POST /api/launch", s.auth(s.handleLaunch))
	mux.HandleFunc("POST /api/shutdown", s.auth(s.handleShutdown))

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("Starting management API", "addr", s.addr, "auth", s.token != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// auth wraps a handler with bearer-token authentication.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				s.logger.Warn("Unauthorized API request",
					"remote", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"monitoring": s.engine.MonitoringActive(),
		"instances":  s.engine.Registry().Len(),
	})
}

// instanceView is the JSON shape of one instance.
type instanceView struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	AppName       string    `json:"app_name"`
	Kind          string    `json:"kind"`
	PID           int32     `json:"pid"`
	State         string    `json:"state"`
	IsActive      bool      `json:"is_active"`
	IsMinimized   bool      `json:"is_minimized"`
	IsResponding  bool      `json:"is_responding"`
	MemoryMB      float64   `json:"memory_mb"`
	HasWindow     bool      `json:"has_window"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitzero"`
	LaunchedBy    string    `json:"launched_by"`
}

func viewOf(in instance.Instance) instanceView {
	return instanceView{
		ID:            in.ID,
		ApplicationID: in.ApplicationID,
		AppName:       in.AppName,
		Kind:          string(in.Kind),
		PID:           in.PID,
		State:         string(in.State),
		IsActive:      in.IsActive,
		IsMinimized:   in.IsMinimized,
		IsResponding:  in.IsResponding,
		MemoryMB:      in.MemoryMB,
		HasWindow:     in.Window != nil,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		LaunchedBy:    in.LaunchedBy,
	}
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	all := s.engine.Registry().List()
	views := make([]instanceView, 0, len(all))
	for _, in := range all {
		views = append(views, viewOf(in))
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": views})
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, ok := s.engine.Registry().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(in))
}

func (s *Server) handleInstanceAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.PathValue("action")

	var ok bool
	switch action {
	case "switch":
		ok = s.engine.Switch(r.Context(), id)
	case "minimize":
		ok = s.engine.Minimize(r.Context(), id)
	case "restore":
		ok = s.engine.Restore(r.Context(), id)
	case "close":
		ok = s.engine.Close(r.Context(), id)
	case "kill":
		ok = s.engine.Kill(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, "unknown action: "+action)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id": id,
		"action":      action,
		"success":     ok,
	})
}

type launchRequest struct {
	ApplicationID string `json:"application_id"`
	Requester     string `json:"requester"`
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Requester == "" {
		req.Requester = "api"
	}

	a, ok := s.catalog.Lookup(req.ApplicationID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown application: "+req.ApplicationID)
		return
	}

	outcome, err := s.engine.Launch(r.Context(), a, req.Requester)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance":        viewOf(outcome.Instance),
		"already_running": outcome.AlreadyRunning,
		"adopted":         outcome.Adopted,
		"switched":        outcome.Switched,
	})
}

type shutdownRequest struct {
	GracefulTimeoutSeconds int  `json:"graceful_timeout_seconds"`
	FinalTimeoutSeconds    int  `json:"final_timeout_seconds"`
	ForcedOnly             bool `json:"forced_only"`
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	var req shutdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	graceful := time.Duration(req.GracefulTimeoutSeconds) * time.Second
	if graceful <= 0 {
		graceful = time.Duration(s.global.ShutdownTimeout) * time.Second
	}
	final := time.Duration(req.FinalTimeoutSeconds) * time.Second
	if final <= 0 {
		final = time.Duration(s.global.KillTimeout) * time.Second
	}

	var result *lifecycle.ShutdownResult
	if req.ForcedOnly {
		result = s.engine.KillAll(r.Context(), final)
	} else {
		result = s.engine.ShutdownAll(r.Context(), graceful, final)
	}

	infos := make([]map[string]any, 0, len(result.Infos))
	for _, info := range result.Infos {
		entry := map[string]any{
			"instance_id":    info.InstanceID,
			"application_id": info.ApplicationID,
			"method":         string(info.Method),
			"duration_ms":    info.Duration.Milliseconds(),
		}
		if info.Err != nil {
			entry["error"] = info.Err.Error()
		}
		infos = append(infos, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     result.Success,
		"duration_ms": result.Duration.Milliseconds(),
		"instances":   infos,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
