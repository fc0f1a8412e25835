package procmon

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// pollInterval is how often termination waits re-check process liveness.
const pollInterval = 100 * time.Millisecond

// SystemMonitor is the gopsutil-backed Monitor implementation.
type SystemMonitor struct {
	logger *slog.Logger
}

// NewSystemMonitor creates a Monitor backed by the local OS process table.
func NewSystemMonitor(logger *slog.Logger) *SystemMonitor {
	return &SystemMonitor{
		logger: logger.With("component", "procmon"),
	}
}

// IsAlive reports whether the process exists and has not become a zombie.
func (m *SystemMonitor) IsAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil || !running {
		return false
	}
	return !hasStatus(proc, process.Zombie)
}

// GetInfo returns a snapshot of process facts, or nil if the process
// does not exist. Individual fact failures are tolerated; the snapshot
// carries what could be read.
func (m *SystemMonitor) GetInfo(pid int32) *Info {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}

	info := &Info{PID: pid, IsResponding: true}

	running, err := proc.IsRunning()
	if err != nil {
		return nil
	}
	info.IsAlive = running
	info.HasExited = !running
	if !running {
		info.IsResponding = false
		return info
	}

	if hasStatus(proc, process.Zombie) {
		info.IsAlive = false
		info.HasExited = true
		info.IsResponding = false
		return info
	}
	if hasStatus(proc, process.Stop) {
		info.IsResponding = false
	}

	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.MemoryMB = float64(mem.RSS) / (1024 * 1024)
	}
	if name, err := proc.Name(); err == nil {
		info.Name = name
	}
	if args, err := proc.CmdlineSlice(); err == nil {
		info.Cmdline = args
	}
	if created, err := proc.CreateTime(); err == nil {
		info.StartTime = time.UnixMilli(created)
	}

	return info
}

// CloseGracefully sends SIGTERM and waits up to timeout for the process
// to exit. Returns true only if the exit was confirmed.
func (m *SystemMonitor) CloseGracefully(ctx context.Context, pid int32, timeout time.Duration) bool {
	proc, err := process.NewProcess(pid)
	if err != nil {
		// Already gone counts as closed.
		return true
	}

	if err := proc.Terminate(); err != nil {
		m.logger.Warn("Failed to signal process for graceful close",
			"pid", pid,
			"error", err,
		)
		return false
	}

	return m.waitForExit(ctx, pid, timeout)
}

// Kill sends SIGKILL and waits up to timeout for the OS to confirm.
func (m *SystemMonitor) Kill(ctx context.Context, pid int32, timeout time.Duration) bool {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return true
	}

	if err := proc.Kill(); err != nil {
		m.logger.Warn("Failed to kill process",
			"pid", pid,
			"error", err,
		)
		return false
	}

	return m.waitForExit(ctx, pid, timeout)
}

// Snapshot lists facts for all visible processes. Processes that vanish
// mid-scan are skipped.
func (m *SystemMonitor) Snapshot() []Info {
	procs, err := process.Processes()
	if err != nil {
		m.logger.Warn("Failed to enumerate processes", "error", err)
		return nil
	}

	out := make([]Info, 0, len(procs))
	for _, proc := range procs {
		info := m.GetInfo(proc.Pid)
		if info == nil || !info.IsAlive {
			continue
		}
		out = append(out, *info)
	}
	return out
}

// waitForExit polls liveness until the process is gone, the timeout
// elapses, or ctx is cancelled.
func (m *SystemMonitor) waitForExit(ctx context.Context, pid int32, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if !m.IsAlive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !m.IsAlive(pid)
		case <-deadline.C:
			return !m.IsAlive(pid)
		case <-ticker.C:
		}
	}
}

func hasStatus(proc *process.Process, want string) bool {
	statuses, err := proc.Status()
	if err != nil {
		return false
	}
	for _, s := range statuses {
		if s == want {
			return true
		}
	}
	return false
}
