package lifecycle

import (
	"context"
	"time"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/launch"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/window"
)

// Switch brings an instance to the foreground. It returns false for an
// unknown id, a non-switchable state, a dead process that could not be
// migrated, or a window that could not be resolved or activated. A dead,
// non-migratable process is transitioned to terminated as a side effect.
func (e *Engine) Switch(ctx context.Context, id string) bool {
	inst, ok := e.registry.Get(id)
	if !ok || !inst.Switchable() {
		return false
	}

	if !e.monitor.IsAlive(inst.PID) {
		if migrated, ok := e.migrate(ctx, inst); ok {
			inst = migrated
		} else {
			e.transition(id, instance.StateTerminated, "process not alive on switch")
			return false
		}
	}

	handle, ok := e.resolveWindow(&inst)
	if !ok {
		e.logger.Debug("Switch failed: no window could be resolved",
			"instance_id", id,
			"pid", inst.PID,
		)
		return false
	}

	if !e.windows.SwitchTo(handle) {
		e.logger.Warn("Window activation failed",
			"instance_id", id,
			"handle", handle,
		)
		return false
	}

	snapshot, _ := e.transition(id, instance.StateActive, "switched to foreground")
	if snapshot.ID == "" {
		snapshot, _ = e.registry.Get(id)
	}
	e.registry.Notifier().EmitActivated(snapshot)
	return true
}

// Minimize minimizes the instance's cached window. Fails if no window
// handle is cached.
func (e *Engine) Minimize(ctx context.Context, id string) bool {
	return e.windowOp(id, "minimize", e.windows.Minimize, instance.StateMinimized)
}

// Restore restores the instance's cached window from minimized state.
func (e *Engine) Restore(ctx context.Context, id string) bool {
	return e.windowOp(id, "restore", e.windows.Restore, instance.StateRunning)
}

// windowOp is the generic window-operation wrapper shared by Minimize
// and Restore: it requires a cached handle, applies the operation, and
// raises a state-change notification only if the state actually changed.
func (e *Engine) windowOp(id, name string, op func(uintptr) bool, target instance.State) bool {
	inst, ok := e.registry.Get(id)
	if !ok || !inst.Live() || inst.Window == nil {
		return false
	}

	if !op(inst.Window.Handle) {
		e.logger.Warn("Window operation failed",
			"instance_id", id,
			"operation", name,
			"handle", inst.Window.Handle,
		)
		return false
	}

	e.transition(id, target, "window "+name)
	return true
}

// Close requests graceful termination of an instance with a bounded
// wait. On failure with the process confirmed alive, the previous live
// state is restored. The instance stays registered; the reconciliation
// loop discovers the actual exit.
func (e *Engine) Close(ctx context.Context, id string) bool {
	return e.terminate(ctx, id, false, e.opts.CloseTimeout)
}

// Kill forcibly terminates an instance with a shorter bound. On
// confirmed termination the instance is removed from the registry
// immediately.
func (e *Engine) Kill(ctx context.Context, id string) bool {
	return e.terminate(ctx, id, true, e.opts.KillTimeout)
}

func (e *Engine) terminate(ctx context.Context, id string, force bool, timeout time.Duration) bool {
	inst, ok := e.registry.Get(id)
	if !ok || inst.State.Terminal() || inst.State == instance.StateClosing {
		return false
	}

	// Hard safety invariant: never target the host's own process.
	if inst.PID == e.hostPID {
		e.logger.Error("Rejected termination of host process",
			"instance_id", id,
			"pid", inst.PID,
		)
		e.auditLog.LogUnsafeTarget(id, inst.PID)
		return false
	}

	method := "graceful"
	if force {
		method = "forced"
	}

	prev := inst.State
	if _, changed := e.transition(id, instance.StateClosing, method+" termination requested"); !changed {
		return false
	}

	start := time.Now()
	ok = e.dispatchTermination(ctx, &inst, force, timeout)
	duration := time.Since(start)

	e.auditLog.LogTermination(id, inst.ApplicationID, method, ok, duration)
	status := "success"
	if !ok {
		status = "failure"
	}
	metrics.TerminationTotal.WithLabelValues(method, status).Inc()

	if ok {
		e.transition(id, instance.StateTerminated, method+" termination confirmed")
		if force {
			// Kill removes immediately; Close leaves the record for
			// the reconciliation loop and retention cleanup.
			if removed, found := e.registry.Remove(id); found {
				metrics.ForgetInstance(removed.ApplicationID, removed.ID)
				metrics.InstancesTracked.Set(float64(e.registry.Len()))
			}
		}
		return true
	}

	// The attempt failed. Revert to the previous live state only if the
	// process is confirmed still alive; otherwise it died regardless.
	if e.processAlive(&inst) {
		e.transition(id, prev, method+" termination failed, process still alive")
	} else {
		e.transition(id, instance.StateTerminated, "process gone after failed "+method+" termination")
	}
	return false
}

// dispatchTermination routes the attempt on the instance's management
// variant: externally managed instances go through their launcher,
// process-managed ones through the OS monitor. All failures are
// converted to a false result here.
func (e *Engine) dispatchTermination(ctx context.Context, inst *instance.Instance, force bool, timeout time.Duration) bool {
	switch mgmt := inst.Management.(type) {
	case instance.ManagedExternally:
		if mgmt.Closer == nil {
			return false
		}
		if err := mgmt.Closer.CloseInstance(ctx, inst.ID, force, timeout); err != nil {
			e.logger.Warn("External close failed",
				"instance_id", inst.ID,
				"force", force,
				"error", err,
			)
			return false
		}
		return true
	case instance.ManagedByProcess:
		if force {
			return e.monitor.Kill(ctx, mgmt.PID, timeout)
		}
		return e.monitor.CloseGracefully(ctx, mgmt.PID, timeout)
	default:
		// Registration always sets a management variant; a missing one
		// means the record was built outside the engine.
		e.logger.Error("Instance has no management variant", "instance_id", inst.ID)
		return false
	}
}

// processAlive checks liveness for process-managed instances; external
// instances are assumed alive when their close attempt failed.
func (e *Engine) processAlive(inst *instance.Instance) bool {
	if mgmt, ok := inst.Management.(instance.ManagedByProcess); ok {
		return e.monitor.IsAlive(mgmt.PID)
	}
	return true
}

// resolveWindow returns a usable window handle for the instance,
// reusing the cached handle when the window manager confirms it and
// otherwise applying the layered resolution heuristics. A successful
// resolution updates the cached handle through the registry.
func (e *Engine) resolveWindow(inst *instance.Instance) (uintptr, bool) {
	if inst.Window != nil && inst.Window.Handle != 0 && e.windows.IsValid(inst.Window.Handle) {
		return inst.Window.Handle, true
	}

	a := e.application(inst)
	if a == nil {
		return 0, false
	}
	launcher, ok := e.launcherFor(a)
	if !ok {
		return 0, false
	}

	found := launcher.FindMainWindow(inst.PID, a)
	if found == nil {
		// Re-check process facts; a just-started app may not have
		// created its window at first query.
		if info := e.monitor.GetInfo(inst.PID); info == nil || !info.IsAlive {
			return 0, false
		}
		found = launcher.FindMainWindow(inst.PID, a)
	}
	if found == nil {
		return 0, false
	}

	e.registry.Update(inst.ID, func(in *instance.Instance) {
		in.Window = &instance.Window{
			Handle: found.Handle,
			Title:  found.Title,
			Class:  found.Class,
			Valid:  true,
		}
	})

	e.logger.Debug("Window resolved",
		"instance_id", inst.ID,
		"handle", found.Handle,
		"title", found.Title,
	)
	return found.Handle, true
}

// migrate attempts process-identity migration for instances whose
// original process exited while the UI persists in a related process
// (browser-hosted surfaces). Only kinds that allow it participate.
func (e *Engine) migrate(ctx context.Context, inst instance.Instance) (instance.Instance, bool) {
	a := e.application(&inst)
	if a == nil || !a.Kind.AllowsMultiple() {
		return inst, false
	}
	launcher, ok := e.launcherFor(a)
	if !ok {
		return inst, false
	}

	family := migrationFamily(launcher, a)
	if len(family) == 0 {
		metrics.MigrationTotal.WithLabelValues(a.ID, "no_family").Inc()
		return inst, false
	}

	hint := window.TitleHintFromArgs(inst.LaunchArgs)
	if hint == "" {
		hint = a.TitleHint()
	}

	var candidates []window.ProcessCandidate
	for _, info := range e.monitor.Snapshot() {
		cand := window.ProcessCandidate{
			PID:             info.PID,
			Name:            info.Name,
			StartTimeUnixMs: info.StartTime.UnixMilli(),
		}
		if w := launcher.FindMainWindow(info.PID, a); w != nil && w.Visible {
			cand.Title = w.Title
			cand.HasVisibleWindow = true
		}
		candidates = append(candidates, cand)
	}

	pid, found := window.SelectMigrationTarget(candidates, family, hint)
	if !found {
		metrics.MigrationTotal.WithLabelValues(a.ID, "not_found").Inc()
		return inst, false
	}

	if err := e.registry.ReassignPID(inst.ID, pid); err != nil {
		e.logger.Warn("Migration rejected by registry",
			"instance_id", inst.ID,
			"pid", pid,
			"error", err,
		)
		metrics.MigrationTotal.WithLabelValues(a.ID, "rejected").Inc()
		return inst, false
	}

	e.logger.Info("Instance migrated to successor process",
		"instance_id", inst.ID,
		"app_id", a.ID,
		"old_pid", inst.PID,
		"new_pid", pid,
	)
	metrics.MigrationTotal.WithLabelValues(a.ID, "success").Inc()

	migrated, _ := e.registry.Get(inst.ID)
	return migrated, true
}

func migrationFamily(l launch.Launcher, a *app.Application) []string {
	if mh, ok := l.(launch.MigrationHints); ok {
		return mh.MigrationFamily()
	}
	if exe := a.Executable(); exe != "" {
		return []string{exe}
	}
	return nil
}
