// Package lifecycle implements the launcher core: launch dispatch,
// instance commands, the reconciliation loop, and the mass-shutdown
// protocol. The engine is the sole writer of instance state transitions;
// every mutation goes through the instance registry.
package lifecycle

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/audit"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/launch"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/procmon"
	"github.com/deskhive/deskhive/internal/window"
)

var (
	// ErrInvalidArgument rejects a missing application or requester
	// before any side effect.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoLauncherAvailable means no registered launcher accepts the
	// application.
	ErrNoLauncherAvailable = launch.ErrNoLauncher

	// ErrUnsafeTarget rejects a close/kill whose resolved process id
	// equals the host's own process.
	ErrUnsafeTarget = errors.New("termination target is the host process")
)

// Catalog resolves application identifiers to catalog entries.
type Catalog interface {
	Lookup(id string) (*app.Application, bool)
}

// Options tunes engine timing. Zero values take defaults.
type Options struct {
	// ReconcileInterval is the cadence of the reconciliation loop.
	ReconcileInterval time.Duration
	// CleanupInterval is the cadence of terminated-instance cleanup.
	CleanupInterval time.Duration
	// Retention is how long terminated instances stay in the registry.
	Retention time.Duration
	// CloseTimeout bounds a graceful close attempt.
	CloseTimeout time.Duration
	// KillTimeout bounds a forced kill attempt.
	KillTimeout time.Duration
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = 5 * time.Second
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 30 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Minute
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = 5 * time.Second
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = 2 * time.Second
	}
	return opts
}

// Engine orchestrates launch dispatch, instance commands, the
// reconciliation loop, and mass shutdown.
type Engine struct {
	registry *instance.Registry
	selector *launch.Selector
	catalog  Catalog
	monitor  procmon.Monitor
	windows  window.Manager
	auditLog *audit.Logger
	logger   *slog.Logger

	opts    Options
	hostPID int32

	// monitorMu serializes start/stop of the reconciliation loop so
	// the idle->running transition is atomic against races between
	// Launch and StopMonitoring.
	monitorMu   sync.Mutex
	monitorStop chan struct{}
	monitorDone chan struct{}
}

// NewEngine wires the engine. Launchers implementing the optional
// WindowLifecycleEvents capability are subscribed at composition time.
func NewEngine(
	registry *instance.Registry,
	selector *launch.Selector,
	catalog Catalog,
	monitor procmon.Monitor,
	windows window.Manager,
	auditLog *audit.Logger,
	logger *slog.Logger,
	opts *Options,
) *Engine {
	e := &Engine{
		registry: registry,
		selector: selector,
		catalog:  catalog,
		monitor:  monitor,
		windows:  windows,
		auditLog: auditLog,
		logger:   logger.With("component", "lifecycle_engine"),
		opts:     opts.withDefaults(),
		hostPID:  int32(os.Getpid()),
	}

	for _, l := range selector.All() {
		if wle, ok := l.(launch.WindowLifecycleEvents); ok {
			wle.SubscribeWindowEvents(e.onWindowEvent)
		}
	}

	return e
}

// Registry exposes the instance registry for read access by outer
// surfaces (API, UI adapters).
func (e *Engine) Registry() *instance.Registry {
	return e.registry
}

// onWindowEvent reacts to launcher-reported window creation or loss by
// updating the cached window through the registry.
func (e *Engine) onWindowEvent(instanceID string, handle uintptr, title string, lost bool) {
	if lost {
		snapshot, ok := e.registry.Update(instanceID, func(in *instance.Instance) {
			in.Window = nil
		})
		if ok {
			e.logger.Debug("Window lost",
				"instance_id", snapshot.ID,
				"app_id", snapshot.ApplicationID,
			)
		}
		return
	}

	snapshot, ok := e.registry.Update(instanceID, func(in *instance.Instance) {
		in.Window = &instance.Window{Handle: handle, Title: title, Valid: true}
	})
	if ok {
		e.logger.Debug("Window reported by launcher",
			"instance_id", snapshot.ID,
			"app_id", snapshot.ApplicationID,
			"title", title,
		)
	}
}

// transition commits a state change through the registry, stamping
// EndTime on termination, and raises notifications exactly once per
// actual change.
func (e *Engine) transition(id string, newState instance.State, reason string) (instance.Instance, bool) {
	var old instance.State
	snapshot, ok := e.registry.Update(id, func(in *instance.Instance) {
		old = in.State
		if old == newState {
			return
		}
		in.State = newState
		switch newState {
		case instance.StateTerminated:
			if in.EndTime.IsZero() {
				in.EndTime = time.Now()
			}
			in.IsActive = false
			in.IsMinimized = false
			in.IsResponding = false
		case instance.StateActive:
			in.IsActive = true
			in.IsMinimized = false
		case instance.StateMinimized:
			in.IsActive = false
			in.IsMinimized = true
		}
	})
	if !ok || old == newState {
		return snapshot, false
	}

	e.logger.Info("Instance state changed",
		"instance_id", snapshot.ID,
		"app_id", snapshot.ApplicationID,
		"from", old,
		"to", newState,
		"reason", reason,
	)
	metrics.SetInstanceState(snapshot.ApplicationID, snapshot.ID, string(newState))
	metrics.StateTransitions.WithLabelValues(snapshot.ApplicationID, string(old), string(newState)).Inc()
	e.auditLog.LogStateChange(snapshot.ID, snapshot.ApplicationID, string(old), string(newState), reason)
	e.registry.Notifier().EmitStateChanged(snapshot, old, newState, reason)
	return snapshot, true
}

// launcherFor returns the launcher owning instances of the application.
func (e *Engine) launcherFor(a *app.Application) (launch.Launcher, bool) {
	if a == nil {
		return nil, false
	}
	l, err := e.selector.Select(a)
	if err != nil {
		return nil, false
	}
	return l, true
}

// application resolves an instance's catalog entry, if still present.
func (e *Engine) application(in *instance.Instance) *app.Application {
	if e.catalog == nil {
		return nil
	}
	a, ok := e.catalog.Lookup(in.ApplicationID)
	if !ok {
		return nil
	}
	return a
}
