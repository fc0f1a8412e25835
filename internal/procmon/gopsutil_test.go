package procmon

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func newTestMonitor() *SystemMonitor {
	return NewSystemMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIsAlive(t *testing.T) {
	m := newTestMonitor()

	if !m.IsAlive(int32(os.Getpid())) {
		t.Error("current process should be alive")
	}
	if m.IsAlive(0) {
		t.Error("pid 0 should not be alive")
	}
	if m.IsAlive(-1) {
		t.Error("negative pid should not be alive")
	}
	if m.IsAlive(math.MaxInt32) {
		t.Error("max pid should not be alive")
	}
}

func TestGetInfoCurrentProcess(t *testing.T) {
	m := newTestMonitor()

	info := m.GetInfo(int32(os.Getpid()))
	if info == nil {
		t.Fatal("expected info for current process")
	}
	if !info.IsAlive || info.HasExited {
		t.Errorf("IsAlive = %v, HasExited = %v", info.IsAlive, info.HasExited)
	}
	if info.Name == "" {
		t.Error("expected a process name")
	}
	if info.MemoryMB <= 0 {
		t.Errorf("MemoryMB = %f, want > 0", info.MemoryMB)
	}
	if info.StartTime.IsZero() {
		t.Error("expected a start time")
	}
}

func TestGetInfoNonexistentProcess(t *testing.T) {
	m := newTestMonitor()
	if info := m.GetInfo(math.MaxInt32); info != nil && info.IsAlive {
		t.Errorf("info = %+v, want nil or exited", info)
	}
}

func TestTerminationOfGoneProcessSucceeds(t *testing.T) {
	m := newTestMonitor()
	ctx := context.Background()

	if !m.CloseGracefully(ctx, math.MaxInt32, time.Second) {
		t.Error("closing a nonexistent process should report success")
	}
	if !m.Kill(ctx, math.MaxInt32, time.Second) {
		t.Error("killing a nonexistent process should report success")
	}
}

func TestKillSpawnedProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a sleep binary")
	}
	m := newTestMonitor()

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	pid := int32(cmd.Process.Pid)
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	if !m.IsAlive(pid) {
		t.Fatal("spawned process should be alive")
	}
	if !m.Kill(context.Background(), pid, 5*time.Second) {
		t.Error("kill should confirm exit")
	}
	// Reap so liveness below is not fooled by a zombie entry.
	_, _ = cmd.Process.Wait()
	if m.IsAlive(pid) {
		t.Error("process should be gone after kill")
	}
}

func TestSnapshotIncludesCurrentProcess(t *testing.T) {
	m := newTestMonitor()
	self := int32(os.Getpid())

	found := false
	for _, info := range m.Snapshot() {
		if info.PID == self {
			found = true
			break
		}
	}
	if !found {
		t.Error("snapshot should include the current process")
	}
}
