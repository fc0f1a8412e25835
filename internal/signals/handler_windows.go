//go:build windows

package signals

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyShutdown returns a context cancelled on SIGTERM or SIGINT.
func NotifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// ReapZombies is a no-op on Windows; the OS has no zombie semantics.
func ReapZombies(ctx context.Context) {
	<-ctx.Done()
}

// IsPID1 is always false on Windows.
func IsPID1() bool {
	return false
}
