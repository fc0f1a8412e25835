package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/procmon"
	"github.com/deskhive/deskhive/internal/window"
)

// ExecLauncher starts native desktop executables as detached OS
// processes and finds already-running ones by executable name.
type ExecLauncher struct {
	monitor    procmon.Monitor
	enumerator window.Enumerator
	logger     *slog.Logger
	priority   int
}

// NewExecLauncher creates the default desktop-application launcher.
// enumerator may be nil on platforms without window enumeration.
func NewExecLauncher(monitor procmon.Monitor, enumerator window.Enumerator, logger *slog.Logger) *ExecLauncher {
	return &ExecLauncher{
		monitor:    monitor,
		enumerator: enumerator,
		logger:     logger.With("component", "exec_launcher"),
		priority:   100,
	}
}

func (l *ExecLauncher) CanLaunch(a *app.Application) bool {
	return a != nil && len(a.Command) > 0
}

func (l *ExecLauncher) Priority() int { return l.priority }

func (l *ExecLauncher) SupportedKind() app.Kind { return app.KindDesktop }

// Launch spawns the application executable detached from the launcher
// process and returns the new instance in starting state.
func (l *ExecLauncher) Launch(ctx context.Context, a *app.Application, requester string) (*instance.Instance, error) {
	cmd := exec.Command(a.Command[0], a.Command[1:]...)
	cmd.Dir = a.WorkingDir
	cmd.Env = append(os.Environ(), envVars(a)...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", a.Executable(), err)
	}
	pid := int32(cmd.Process.Pid)

	// The child outlives us; release it so it is never waited on here.
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("Failed to release launched process", "pid", pid, "error", err)
	}

	l.logger.Info("Launched desktop application",
		"app_id", a.ID,
		"pid", pid,
		"requester", requester,
	)

	return NewInstance(a, pid, requester, a.Command[1:]), nil
}

// FindExistingInstance scans the OS process table for a process whose
// name matches the application executable.
func (l *ExecLauncher) FindExistingInstance(a *app.Application) *instance.Instance {
	for _, info := range l.monitor.Snapshot() {
		if !a.MatchesProcessName(info.Name) {
			continue
		}
		l.logger.Debug("Found unregistered process for application",
			"app_id", a.ID,
			"pid", info.PID,
		)
		inst := NewInstance(a, info.PID, "discovery", info.Cmdline)
		inst.State = instance.StateRunning
		if !info.StartTime.IsZero() {
			inst.StartTime = info.StartTime
		}
		return inst
	}
	return nil
}

// FindMainWindow enumerates windows owned by pid and ranks them with the
// application's title and class hints.
func (l *ExecLauncher) FindMainWindow(pid int32, a *app.Application) *window.Candidate {
	if l.enumerator == nil {
		return nil
	}
	candidates := l.enumerator.WindowsForProcess(pid)
	handle, ok := window.Resolve(candidates, pid, HintsFor(a))
	if !ok {
		return nil
	}
	for _, c := range candidates {
		if c.Handle == handle {
			return &c
		}
	}
	return nil
}

// NewInstance builds an unregistered instance record for a freshly
// launched or adopted process.
func NewInstance(a *app.Application, pid int32, requester string, args []string) *instance.Instance {
	now := time.Now()
	return &instance.Instance{
		ID:            uuid.NewString(),
		ApplicationID: a.ID,
		AppName:       a.Name,
		Kind:          a.Kind,
		PID:           pid,
		State:         instance.StateStarting,
		IsResponding:  true,
		StartTime:     now,
		LastUpdate:    now,
		LaunchedBy:    requester,
		LaunchArgs:    append([]string(nil), args...),
		Management:    instance.ManagedByProcess{PID: pid},
	}
}

// HintsFor derives window-resolution hints from the application catalog
// entry.
func HintsFor(a *app.Application) window.Hints {
	h := window.Hints{
		TitleSubstrings: []string{a.TitleHint()},
	}
	if a.WindowClass != "" {
		h.HostClasses = append(h.HostClasses, a.WindowClass)
	}
	if a.HostShell {
		h.HostClasses = append(h.HostClasses, hostShellClasses...)
	}
	return h
}

// hostShellClasses are well-known window classes of generic host-process
// UI shells applications render inside.
var hostShellClasses = []string{
	"ApplicationFrameWindow",
	"Windows.UI.Core.CoreWindow",
	"Chrome_WidgetWin_1",
}

func envVars(a *app.Application) []string {
	envs := make([]string, 0, len(a.Env))
	for key, value := range a.Env {
		envs = append(envs, fmt.Sprintf("%s=%s", key, value))
	}
	return envs
}
