// Package procmon provides OS process inspection and termination for
// tracked application instances.
package procmon

import (
	"context"
	"time"
)

// Info is a point-in-time snapshot of process facts.
type Info struct {
	PID          int32
	IsAlive      bool
	HasExited    bool
	IsResponding bool
	MemoryMB     float64
	Name         string
	Cmdline      []string
	StartTime    time.Time
}

// Monitor inspects and terminates OS processes. Implementations must be
// safe for concurrent use; all failures are reported as not-alive or a
// false result rather than surfacing OS error detail to callers.
type Monitor interface {
	// IsAlive reports whether the process exists and has not exited.
	IsAlive(pid int32) bool

	// GetInfo returns a snapshot of process facts, or nil if the
	// process does not exist.
	GetInfo(pid int32) *Info

	// CloseGracefully asks the process to terminate (SIGTERM or the
	// platform equivalent) and waits up to timeout for it to exit.
	CloseGracefully(ctx context.Context, pid int32, timeout time.Duration) bool

	// Kill forcibly terminates the process and waits up to timeout
	// for the OS to confirm.
	Kill(ctx context.Context, pid int32, timeout time.Duration) bool

	// Snapshot lists facts for all visible processes, used by the
	// migration search.
	Snapshot() []Info
}

// ExitEvent is raised when a tracked process is observed to have exited.
type ExitEvent struct {
	PID      int32
	ExitTime time.Time
	Expected bool
}

// NotRespondingEvent is raised when a tracked process stops responding.
type NotRespondingEvent struct {
	PID   int32
	Since time.Duration
}
