// Package launch defines the launcher capability consumed by the
// lifecycle engine and the built-in launcher implementations.
package launch

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/window"
)

// ErrNoLauncher is returned when no registered launcher can handle an
// application.
var ErrNoLauncher = errors.New("no launcher available for application")

// Launcher starts and finds applications of one kind. Implementations
// must be safe for concurrent use.
type Launcher interface {
	// CanLaunch reports whether this launcher accepts the application.
	CanLaunch(a *app.Application) bool

	// Priority orders launchers supporting the same kind; higher wins.
	Priority() int

	// SupportedKind is the application kind this launcher handles.
	SupportedKind() app.Kind

	// Launch starts the application and returns the new, not yet
	// registered instance.
	Launch(ctx context.Context, a *app.Application, requester string) (*instance.Instance, error)

	// FindExistingInstance looks for an already-running, unregistered
	// OS presence of the application. Returns nil if none was found.
	FindExistingInstance(a *app.Application) *instance.Instance

	// FindMainWindow searches for the application's main window given
	// a live process id. Returns nil if none was found.
	FindMainWindow(pid int32, a *app.Application) *window.Candidate
}

// WindowLifecycleEvents is an optional launcher capability. Launchers
// that detect window creation or loss on their own implement it; the
// engine subscribes at composition time instead of probing for named
// events at runtime.
type WindowLifecycleEvents interface {
	// SubscribeWindowEvents registers fn to be called when a window
	// appears (lost=false) or disappears (lost=true) for an instance
	// owned by this launcher.
	SubscribeWindowEvents(fn func(instanceID string, handle uintptr, title string, lost bool))
}

// Selector picks the launcher for an application by kind and priority.
type Selector struct {
	mu        sync.RWMutex
	launchers []Launcher
}

// NewSelector creates a selector over the given launchers.
func NewSelector(launchers ...Launcher) *Selector {
	s := &Selector{}
	for _, l := range launchers {
		s.Register(l)
	}
	return s
}

// Register adds a launcher, keeping the set ordered by priority.
func (s *Selector) Register(l Launcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launchers = append(s.launchers, l)
	sort.SliceStable(s.launchers, func(i, j int) bool {
		return s.launchers[i].Priority() > s.launchers[j].Priority()
	})
}

// Select returns the highest-priority launcher whose supported kind
// matches the application and whose CanLaunch predicate accepts it.
func (s *Selector) Select(a *app.Application) (Launcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.launchers {
		if l.SupportedKind() == a.Kind && l.CanLaunch(a) {
			return l, nil
		}
	}
	return nil, ErrNoLauncher
}

// All returns the registered launchers in priority order.
func (s *Selector) All() []Launcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Launcher(nil), s.launchers...)
}
