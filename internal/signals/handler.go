//go:build !windows

// Package signals handles OS signals and child reaping for the
// launcher core.
package signals

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// NotifyShutdown returns a context cancelled on SIGTERM or SIGINT.
func NotifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// ReapZombies continuously reaps zombie child processes. This matters
// when the launcher runs as PID 1: spawned applications that exit would
// otherwise accumulate as defunct entries and exhaust PIDs.
func ReapZombies(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reapAll()
		}
	}
}

// reapAll reaps all currently waitable zombie children.
func reapAll() {
	for {
		var status syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG, nil)
		if err != nil || pid <= 0 {
			break
		}
		slog.Debug("Reaped zombie process",
			"pid", pid,
			"status", status,
		)
	}
}

// IsPID1 returns true if the current process is PID 1.
func IsPID1() bool {
	return os.Getpid() == 1
}
