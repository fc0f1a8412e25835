package launch

import (
	"context"
	"errors"
	"testing"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/window"
)

type stubLauncher struct {
	kind     app.Kind
	priority int
	accept   func(a *app.Application) bool
}

func (s *stubLauncher) CanLaunch(a *app.Application) bool {
	if s.accept == nil {
		return true
	}
	return s.accept(a)
}

func (s *stubLauncher) Priority() int           { return s.priority }
func (s *stubLauncher) SupportedKind() app.Kind { return s.kind }

func (s *stubLauncher) Launch(ctx context.Context, a *app.Application, requester string) (*instance.Instance, error) {
	return nil, errors.New("stub")
}

func (s *stubLauncher) FindExistingInstance(a *app.Application) *instance.Instance { return nil }

func (s *stubLauncher) FindMainWindow(pid int32, a *app.Application) *window.Candidate { return nil }

func TestSelectorPicksHighestPriority(t *testing.T) {
	low := &stubLauncher{kind: app.KindDesktop, priority: 10}
	high := &stubLauncher{kind: app.KindDesktop, priority: 100}
	s := NewSelector(low, high)

	got, err := s.Select(&app.Application{ID: "x", Kind: app.KindDesktop})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got != high {
		t.Error("Select() did not pick the highest-priority launcher")
	}
}

func TestSelectorMatchesKind(t *testing.T) {
	desktop := &stubLauncher{kind: app.KindDesktop, priority: 100}
	web := &stubLauncher{kind: app.KindWeb, priority: 50}
	s := NewSelector(desktop, web)

	got, err := s.Select(&app.Application{ID: "x", Kind: app.KindWeb})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got != web {
		t.Error("Select() picked a launcher of the wrong kind")
	}
}

func TestSelectorFallsThroughCanLaunch(t *testing.T) {
	picky := &stubLauncher{
		kind:     app.KindDesktop,
		priority: 100,
		accept:   func(a *app.Application) bool { return false },
	}
	fallback := &stubLauncher{kind: app.KindDesktop, priority: 10}
	s := NewSelector(picky, fallback)

	got, err := s.Select(&app.Application{ID: "x", Kind: app.KindDesktop})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got != fallback {
		t.Error("Select() did not fall through a rejecting CanLaunch")
	}
}

func TestSelectorNoLauncher(t *testing.T) {
	s := NewSelector(&stubLauncher{kind: app.KindDesktop, priority: 100})

	_, err := s.Select(&app.Application{ID: "x", Kind: app.KindSurface})
	if !errors.Is(err, ErrNoLauncher) {
		t.Errorf("Select() error = %v, want ErrNoLauncher", err)
	}
}

func TestSelectorAllOrderedByPriority(t *testing.T) {
	a := &stubLauncher{kind: app.KindFolder, priority: 10}
	b := &stubLauncher{kind: app.KindWeb, priority: 50}
	c := &stubLauncher{kind: app.KindDesktop, priority: 100}
	s := NewSelector(a, b, c)

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("All() = %d launchers, want 3", len(all))
	}
	if all[0] != c || all[1] != b || all[2] != a {
		t.Error("All() is not in descending priority order")
	}
}

func TestNewInstanceDefaults(t *testing.T) {
	a := &app.Application{ID: "editor", Name: "Editor", Kind: app.KindDesktop, Command: []string{"editor"}}
	inst := NewInstance(a, 1234, "tester", []string{"--flag"})

	if inst.ID == "" {
		t.Error("instance id not assigned")
	}
	if inst.State != instance.StateStarting {
		t.Errorf("state = %s, want starting", inst.State)
	}
	if inst.PID != 1234 || inst.ApplicationID != "editor" || inst.LaunchedBy != "tester" {
		t.Errorf("instance fields = %+v", inst)
	}
	if !inst.IsResponding {
		t.Error("new instance should start responding")
	}
	mgmt, ok := inst.Management.(instance.ManagedByProcess)
	if !ok || mgmt.PID != 1234 {
		t.Errorf("management = %#v, want ManagedByProcess{1234}", inst.Management)
	}
}

func TestHintsFor(t *testing.T) {
	plain := &app.Application{ID: "editor", Name: "Editor"}
	h := HintsFor(plain)
	if len(h.TitleSubstrings) != 1 || h.TitleSubstrings[0] != "Editor" {
		t.Errorf("TitleSubstrings = %v", h.TitleSubstrings)
	}
	if len(h.HostClasses) != 0 {
		t.Errorf("HostClasses = %v, want empty", h.HostClasses)
	}

	hosted := &app.Application{ID: "store", Name: "Store", WindowClass: "StoreFrame", HostShell: true}
	h = HintsFor(hosted)
	if h.HostClasses[0] != "StoreFrame" {
		t.Errorf("explicit window class should come first, got %v", h.HostClasses)
	}
	if len(h.HostClasses) != 1+len(hostShellClasses) {
		t.Errorf("HostClasses = %v, want explicit class plus host shells", h.HostClasses)
	}
}
