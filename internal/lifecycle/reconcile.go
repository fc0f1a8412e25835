package lifecycle

import (
	"time"

	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/procmon"
)

// startMonitoring arms the reconciliation loop if it is idle. Start and
// stop serialize on monitorMu so concurrent Launch calls and an explicit
// StopMonitoring cannot double-arm the timer.
func (e *Engine) startMonitoring() {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()

	if e.monitorStop != nil {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	e.monitorStop = stop
	e.monitorDone = done

	e.logger.Info("Reconciliation loop started",
		"interval", e.opts.ReconcileInterval,
		"cleanup_interval", e.opts.CleanupInterval,
	)

	go e.monitorLoop(stop, done)
}

// StartMonitoring arms the reconciliation loop. Idempotent.
func (e *Engine) StartMonitoring() {
	e.startMonitoring()
}

// StopMonitoring disarms the reconciliation loop and waits for the
// in-flight tick, if any, to finish. Idempotent.
func (e *Engine) StopMonitoring() {
	e.monitorMu.Lock()
	stop := e.monitorStop
	done := e.monitorDone
	e.monitorStop = nil
	e.monitorDone = nil
	e.monitorMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	e.logger.Info("Reconciliation loop stopped")
}

// MonitoringActive reports whether the reconciliation loop is armed.
func (e *Engine) MonitoringActive() bool {
	e.monitorMu.Lock()
	defer e.monitorMu.Unlock()
	return e.monitorStop != nil
}

func (e *Engine) monitorLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.opts.ReconcileInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(e.opts.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.reconcileTick()
		case <-cleanup.C:
			e.cleanupTerminated()
		}
	}
}

// reconcileTick re-derives the state of every live instance from OS
// facts. Failures are isolated per instance so one faulty instance
// cannot block reconciliation of the others.
func (e *Engine) reconcileTick() {
	start := time.Now()
	defer func() {
		metrics.ReconcileTicks.Inc()
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	for _, inst := range e.registry.Live() {
		e.reconcileInstance(inst)
	}
	metrics.InstancesTracked.Set(float64(e.registry.Len()))
}

func (e *Engine) reconcileInstance(inst instance.Instance) {
	info := e.monitor.GetInfo(inst.PID)
	if info == nil || !info.IsAlive {
		e.transition(inst.ID, instance.StateTerminated, "process exited")
		return
	}

	// Refresh measured facts regardless of state outcome.
	e.registry.Update(inst.ID, func(in *instance.Instance) {
		in.MemoryMB = info.MemoryMB
		in.IsResponding = info.IsResponding
	})
	metrics.InstanceMemoryMB.WithLabelValues(inst.ApplicationID, inst.ID).Set(info.MemoryMB)

	// A close in flight owns the state until the exit is observed.
	if inst.State == instance.StateClosing {
		return
	}

	candidate, reason := e.determineState(&inst, info)
	if candidate != inst.State {
		e.transition(inst.ID, candidate, reason)
	}
}

// determineState computes the candidate state by priority: not
// responding wins over window-derived active/minimized, which win over
// the plain running default.
func (e *Engine) determineState(inst *instance.Instance, info *procmon.Info) (instance.State, string) {
	if !info.IsResponding {
		return instance.StateNotResponding, "process not responding"
	}

	if inst.Window != nil && inst.Window.Handle != 0 && e.windows.IsValid(inst.Window.Handle) {
		if e.windows.IsActive(inst.Window.Handle) {
			return instance.StateActive, "window in foreground"
		}
		if e.windows.IsMinimized(inst.Window.Handle) {
			return instance.StateMinimized, "window minimized"
		}
	}

	return instance.StateRunning, "process alive"
}

// cleanupTerminated removes instances that have been terminated for
// longer than the retention window.
func (e *Engine) cleanupTerminated() {
	cutoff := time.Now().Add(-e.opts.Retention)
	for _, inst := range e.registry.List() {
		if inst.State != instance.StateTerminated {
			continue
		}
		if inst.EndTime.IsZero() || inst.EndTime.After(cutoff) {
			continue
		}
		if removed, ok := e.registry.Remove(inst.ID); ok {
			metrics.ForgetInstance(removed.ApplicationID, removed.ID)
			e.logger.Debug("Cleaned up terminated instance",
				"instance_id", removed.ID,
				"app_id", removed.ApplicationID,
			)
		}
	}
	metrics.InstancesTracked.Set(float64(e.registry.Len()))
}

// NotifyProcessExited handles an asynchronous OS exit notification for
// a tracked process. It transitions the owning instance to terminated
// through the same path the reconciliation loop uses.
func (e *Engine) NotifyProcessExited(ev procmon.ExitEvent) {
	inst, ok := e.registry.FindByPID(ev.PID)
	if !ok {
		return
	}
	reason := "process exit reported"
	if ev.Expected {
		reason = "expected process exit reported"
	}
	e.transition(inst.ID, instance.StateTerminated, reason)
	if !ev.ExitTime.IsZero() {
		e.registry.Update(inst.ID, func(in *instance.Instance) {
			in.EndTime = ev.ExitTime
		})
	}
}

// NotifyProcessNotResponding handles an asynchronous not-responding
// notification. Only live, non-closing instances transition; repeated
// notifications while already not responding are no-ops.
func (e *Engine) NotifyProcessNotResponding(ev procmon.NotRespondingEvent) {
	inst, ok := e.registry.FindByPID(ev.PID)
	if !ok || inst.State == instance.StateClosing {
		return
	}
	e.registry.Update(inst.ID, func(in *instance.Instance) {
		in.IsResponding = false
	})
	e.transition(inst.ID, instance.StateNotResponding, "not responding for "+ev.Since.String())
}
