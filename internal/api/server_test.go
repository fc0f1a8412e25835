package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/audit"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/launch"
	"github.com/deskhive/deskhive/internal/lifecycle"
	"github.com/deskhive/deskhive/internal/procmon"
	"github.com/deskhive/deskhive/internal/window"
)

type nullMonitor struct{}

func (nullMonitor) IsAlive(int32) bool          { return false }
func (nullMonitor) GetInfo(int32) *procmon.Info { return nil }
func (nullMonitor) Snapshot() []procmon.Info    { return nil }

func (nullMonitor) CloseGracefully(context.Context, int32, time.Duration) bool { return false }
func (nullMonitor) Kill(context.Context, int32, time.Duration) bool            { return false }

type nullWindows struct{}

func (nullWindows) IsValid(uintptr) bool     { return false }
func (nullWindows) IsMinimized(uintptr) bool { return false }
func (nullWindows) IsActive(uintptr) bool    { return false }
func (nullWindows) SwitchTo(uintptr) bool    { return false }
func (nullWindows) Minimize(uintptr) bool    { return false }
func (nullWindows) Restore(uintptr) bool     { return false }

type nullLauncher struct{}

func (nullLauncher) CanLaunch(*app.Application) bool { return true }
func (nullLauncher) Priority() int                   { return 1 }
func (nullLauncher) SupportedKind() app.Kind         { return app.KindDesktop }

func (nullLauncher) Launch(context.Context, *app.Application, string) (*instance.Instance, error) {
	return nil, errors.New("not launchable in tests")
}

func (nullLauncher) FindExistingInstance(*app.Application) *instance.Instance { return nil }

func (nullLauncher) FindMainWindow(int32, *app.Application) *window.Candidate { return nil }

func newTestServer(t *testing.T, token string) (*Server, *instance.Registry) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Applications: map[string]*app.Application{
			"editor": {ID: "editor", Name: "Editor", Kind: app.KindDesktop, Command: []string{"editor"}},
		},
	}
	cfg.SetDefaults()

	catalog := config.NewCatalog(cfg)
	registry := instance.NewRegistry(&instance.Notifier{})
	engine := lifecycle.NewEngine(
		registry,
		launch.NewSelector(nullLauncher{}),
		catalog,
		nullMonitor{},
		nullWindows{},
		audit.NewLogger(log, false),
		log,
		nil,
	)
	t.Cleanup(engine.StopMonitoring)

	return NewServer("127.0.0.1:0", token, engine, catalog, cfg.Global, log), registry
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t, "secret-token")
	handler := s.auth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-token", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/instances", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthDisabledWithEmptyToken(t *testing.T) {
	s, _ := newTestServer(t, "")
	handler := s.auth(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/instances", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}

func TestListInstances(t *testing.T) {
	s, registry := newTestServer(t, "")
	err := registry.Insert(instance.Instance{
		ID:            "inst-1",
		ApplicationID: "editor",
		AppName:       "Editor",
		Kind:          app.KindDesktop,
		PID:           42,
		State:         instance.StateRunning,
		StartTime:     time.Now(),
		Management:    instance.ManagedByProcess{PID: 42},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/instances", nil)
	rec := httptest.NewRecorder()
	s.handleListInstances(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Instances []instanceView `json:"instances"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Instances) != 1 || body.Instances[0].ID != "inst-1" {
		t.Errorf("instances = %+v", body.Instances)
	}
	if body.Instances[0].State != "running" {
		t.Errorf("state = %q", body.Instances[0].State)
	}
}

func TestGetInstanceNotFound(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/instances/ghost", nil)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()
	s.handleGetInstance(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestInstanceActionUnknown(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/instances/inst-1/reboot", nil)
	req.SetPathValue("id", "inst-1")
	req.SetPathValue("action", "reboot")
	rec := httptest.NewRecorder()
	s.handleInstanceAction(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestInstanceActionReportsResult(t *testing.T) {
	s, _ := newTestServer(t, "")

	// Unknown instance: the command simply reports success=false.
	req := httptest.NewRequest(http.MethodPost, "/api/instances/ghost/switch", nil)
	req.SetPathValue("id", "ghost")
	req.SetPathValue("action", "switch")
	rec := httptest.NewRecorder()
	s.handleInstanceAction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}

func TestLaunchUnknownApplication(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/launch",
		strings.NewReader(`{"application_id":"ghost"}`))
	rec := httptest.NewRecorder()
	s.handleLaunch(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLaunchBadBody(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/launch", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	s.handleLaunch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestShutdownEmptyRegistry(t *testing.T) {
	s, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/shutdown",
		strings.NewReader(`{"forced_only":true}`))
	rec := httptest.NewRecorder()
	s.handleShutdown(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true with nothing to stop", body["success"])
	}
}
