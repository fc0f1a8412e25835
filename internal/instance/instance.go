// Package instance holds the application instance model and the registry
// that is the single ownership boundary around all instance records.
package instance

import (
	"context"
	"time"

	"github.com/deskhive/deskhive/internal/app"
)

// Window is the cached main window of an instance. Handle is an opaque
// OS window identifier; Valid is the last validity verdict from the
// window manager.
type Window struct {
	Handle uintptr
	Title  string
	Class  string
	Valid  bool
}

// Management is the tagged variant describing who owns termination of an
// instance, decided once at registration time.
type Management interface {
	isManagement()
}

// ManagedByProcess terminates through the generic OS process path.
type ManagedByProcess struct {
	PID int32
}

func (ManagedByProcess) isManagement() {}

// ManagedExternally delegates termination to the launcher that owns the
// instance (in-process surfaces, browser-hosted apps with their own
// close protocol).
type ManagedExternally struct {
	Closer ExternalCloser
}

func (ManagedExternally) isManagement() {}

// ExternalCloser closes an externally managed instance. force requests
// immediate teardown instead of a graceful close.
type ExternalCloser interface {
	CloseInstance(ctx context.Context, instanceID string, force bool, timeout time.Duration) error
}

// Instance is one tracked running (or recently terminated) occurrence of
// an application. Records handed out by the registry are value snapshots;
// all mutation goes through Registry.Update.
type Instance struct {
	ID            string
	ApplicationID string
	AppName       string
	Kind          app.Kind

	PID   int32
	State State

	IsActive     bool
	IsMinimized  bool
	IsResponding bool
	MemoryMB     float64

	Window *Window

	StartTime  time.Time
	EndTime    time.Time
	LastUpdate time.Time

	LaunchedBy string
	LaunchArgs []string

	Management Management
}

// Live reports whether the instance is in a live state.
func (in *Instance) Live() bool {
	return in.State.IsLive()
}

// Switchable reports whether the instance can be switched to.
func (in *Instance) Switchable() bool {
	return in.State.Switchable()
}

// clone returns a deep copy safe to hand outside the registry lock.
func (in *Instance) clone() Instance {
	cp := *in
	if in.Window != nil {
		w := *in.Window
		cp.Window = &w
	}
	if in.LaunchArgs != nil {
		cp.LaunchArgs = append([]string(nil), in.LaunchArgs...)
	}
	return cp
}
