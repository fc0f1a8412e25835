package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
)

func TestShutdownAllGraceful(t *testing.T) {
	env := newTestEnv(t, app.KindDesktop)
	a := env.addApp("editor", app.KindDesktop)
	env.insertRunning(t, "inst-1", a, 501)
	env.insertRunning(t, "inst-2", a, 502)

	result := env.engine.ShutdownAll(context.Background(), time.Second, time.Second)

	if !result.Success {
		t.Error("ShutdownAll() should succeed")
	}
	if len(result.Infos) != 2 {
		t.Fatalf("infos = %d, want 2", len(result.Infos))
	}
	for _, info := range result.Infos {
		if info.Method != ShutdownGraceful {
			t.Errorf("instance %s method = %s, want graceful", info.InstanceID, info.Method)
		}
	}
	if n := len(env.registry.Live()); n != 0 {
		t.Errorf("live instances after shutdown = %d, want 0", n)
	}
}

func TestShutdownAllEscalatesToForced(t *testing.T) {
	env := newTestEnv(t, app.KindDesktop)
	a := env.addApp("editor", app.KindDesktop)
	env.insertRunning(t, "inst-1", a, 501)
	env.monitor.closeOK = false

	result := env.engine.ShutdownAll(context.Background(), 50*time.Millisecond, time.Second)

	if !result.Success {
		t.Error("ShutdownAll() should succeed via the forced phase")
	}
	if len(result.Infos) != 1 {
		t.Fatalf("infos = %d, want 1", len(result.Infos))
	}
	if result.Infos[0].Method != ShutdownForced {
		t.Errorf("method = %s, want forced", result.Infos[0].Method)
	}
	if n := len(env.registry.Live()); n != 0 {
		t.Errorf("live instances after shutdown = %d, want 0", n)
	}
}

func TestShutdownAllReportsFailure(t *testing.T) {
	env := newTestEnv(t, app.KindDesktop)
	a := env.addApp("editor", app.KindDesktop)
	env.insertRunning(t, "inst-1", a, 501)
	env.monitor.closeOK = false
	env.monitor.killOK = false

	result := env.engine.ShutdownAll(context.Background(), 50*time.Millisecond, 50*time.Millisecond)

	if result.Success {
		t.Error("ShutdownAll() must report failure with a survivor")
	}
	if len(result.Infos) != 1 || result.Infos[0].Method != ShutdownFailed {
		t.Errorf("infos = %+v, want one failed entry", result.Infos)
	}
	if n := len(env.registry.Live()); n != 1 {
		t.Errorf("live instances = %d, want the survivor", n)
	}
}

func TestShutdownAllSkipsTerminated(t *testing.T) {
	env := newTestEnv(t, app.KindDesktop)
	a := env.addApp("editor", app.KindDesktop)
	inst := env.insertRunning(t, "inst-1", a, 501)
	env.monitor.removeProcess(501)
	env.engine.transition(inst.ID, instance.StateTerminated, "test setup")

	result := env.engine.ShutdownAll(context.Background(), time.Second, time.Second)

	if !result.Success {
		t.Error("ShutdownAll() with nothing live should succeed")
	}
	if len(result.Infos) != 0 {
		t.Errorf("infos = %d, want 0 for already-terminated instances", len(result.Infos))
	}
}

func TestKillAll(t *testing.T) {
	env := newTestEnv(t, app.KindDesktop)
	a := env.addApp("editor", app.KindDesktop)
	env.insertRunning(t, "inst-1", a, 501)
	env.insertRunning(t, "inst-2", a, 502)

	result := env.engine.KillAll(context.Background(), time.Second)

	if !result.Success {
		t.Error("KillAll() should succeed")
	}
	for _, info := range result.Infos {
		if info.Method != ShutdownForced {
			t.Errorf("instance %s method = %s, want forced", info.InstanceID, info.Method)
		}
	}
	if n := len(env.registry.Live()); n != 0 {
		t.Errorf("live instances = %d, want 0", n)
	}
}
