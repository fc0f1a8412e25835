package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/procmon"
	"github.com/deskhive/deskhive/internal/window"
)

// MigrationHints is an optional launcher capability exposing the
// process-name family the migration search may scan when an instance's
// original process exits but its UI persists elsewhere.
type MigrationHints interface {
	MigrationFamily() []string
}

// WebLauncher opens browser-hosted application surfaces in app mode.
// Web instances allow multiple concurrent occurrences and are eligible
// for process-identity migration: the browser may re-parent the surface
// to a different process of its family.
type WebLauncher struct {
	browser    []string
	family     []string
	monitor    procmon.Monitor
	enumerator window.Enumerator
	logger     *slog.Logger
	priority   int
}

// NewWebLauncher creates a launcher that opens applications in the given
// browser command. family lists process names belonging to the browser
// (used by migration); it defaults to the browser executable name.
func NewWebLauncher(browser, family []string, monitor procmon.Monitor, enumerator window.Enumerator, logger *slog.Logger) *WebLauncher {
	if len(family) == 0 && len(browser) > 0 {
		family = []string{browser[0]}
	}
	return &WebLauncher{
		browser:    browser,
		family:     family,
		monitor:    monitor,
		enumerator: enumerator,
		logger:     logger.With("component", "web_launcher"),
		priority:   50,
	}
}

func (l *WebLauncher) CanLaunch(a *app.Application) bool {
	return a != nil && a.URL != "" && len(l.browser) > 0
}

func (l *WebLauncher) Priority() int { return l.priority }

func (l *WebLauncher) SupportedKind() app.Kind { return app.KindWeb }

// MigrationFamily returns the browser process-name family.
func (l *WebLauncher) MigrationFamily() []string {
	return append([]string(nil), l.family...)
}

// Launch opens the application URL in a dedicated browser app window.
func (l *WebLauncher) Launch(ctx context.Context, a *app.Application, requester string) (*instance.Instance, error) {
	args := append(append([]string(nil), l.browser[1:]...), "--app="+a.URL)
	cmd := exec.Command(l.browser[0], args...)
	cmd.Env = append(os.Environ(), envVars(a)...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open %s in browser: %w", a.URL, err)
	}
	pid := int32(cmd.Process.Pid)
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("Failed to release browser process", "pid", pid, "error", err)
	}

	l.logger.Info("Launched web application",
		"app_id", a.ID,
		"url", a.URL,
		"pid", pid,
		"requester", requester,
	)

	return NewInstance(a, pid, requester, args), nil
}

// FindExistingInstance always returns nil: browser-hosted surfaces are
// indistinguishable in the process table, so dedup relies on the
// registry alone. Web applications allow multiple instances anyway.
func (l *WebLauncher) FindExistingInstance(a *app.Application) *instance.Instance {
	return nil
}

// FindMainWindow enumerates windows for pid and ranks them with the URL
// host and app name as title hints.
func (l *WebLauncher) FindMainWindow(pid int32, a *app.Application) *window.Candidate {
	if l.enumerator == nil {
		return nil
	}
	hints := HintsFor(a)
	if host := window.TitleHintFromArgs([]string{"--app=" + a.URL}); host != "" {
		hints.TitleSubstrings = append(hints.TitleSubstrings, host)
	}
	candidates := l.enumerator.WindowsForProcess(pid)
	handle, ok := window.Resolve(candidates, pid, hints)
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
