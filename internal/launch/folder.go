package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/window"
)

// FolderLauncher opens filesystem locations in the platform file
// manager. Folder instances allow multiple concurrent occurrences.
type FolderLauncher struct {
	opener   []string
	logger   *slog.Logger
	priority int
}

// NewFolderLauncher creates a folder launcher. opener overrides the
// platform default file-manager command.
func NewFolderLauncher(opener []string, logger *slog.Logger) *FolderLauncher {
	if len(opener) == 0 {
		opener = defaultOpener()
	}
	return &FolderLauncher{
		opener:   opener,
		logger:   logger.With("component", "folder_launcher"),
		priority: 10,
	}
}

func (l *FolderLauncher) CanLaunch(a *app.Application) bool {
	if a == nil || a.Path == "" {
		return false
	}
	info, err := os.Stat(a.Path)
	return err == nil && info.IsDir()
}

func (l *FolderLauncher) Priority() int { return l.priority }

func (l *FolderLauncher) SupportedKind() app.Kind { return app.KindFolder }

// Launch opens the folder path in the file manager.
func (l *FolderLauncher) Launch(ctx context.Context, a *app.Application, requester string) (*instance.Instance, error) {
	args := append(append([]string(nil), l.opener[1:]...), a.Path)
	cmd := exec.Command(l.opener[0], args...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to open folder %s: %w", a.Path, err)
	}
	pid := int32(cmd.Process.Pid)
	if err := cmd.Process.Release(); err != nil {
		l.logger.Warn("Failed to release opener process", "pid", pid, "error", err)
	}

	l.logger.Info("Opened folder",
		"app_id", a.ID,
		"path", a.Path,
		"pid", pid,
		"requester", requester,
	)

	return NewInstance(a, pid, requester, args), nil
}

// FindExistingInstance always returns nil: folder windows are owned by
// the file manager and multiple instances are allowed.
func (l *FolderLauncher) FindExistingInstance(a *app.Application) *instance.Instance {
	return nil
}

// FindMainWindow is not supported for folder instances; the file
// manager owns the window.
func (l *FolderLauncher) FindMainWindow(pid int32, a *app.Application) *window.Candidate {
	return nil
}

func defaultOpener() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"explorer.exe"}
	case "darwin":
		return []string{"open"}
	default:
		return []string{"xdg-open"}
	}
}
