package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/deskhive/deskhive/internal/app"
	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/launch"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/tracing"
)

// LaunchOutcome describes how a launch request was satisfied.
type LaunchOutcome struct {
	Instance instance.Instance
	// AlreadyRunning is true when the request deduplicated onto an
	// existing instance instead of spawning a new process.
	AlreadyRunning bool
	// Adopted is true when an unregistered OS process was registered
	// in place of spawning a duplicate.
	Adopted bool
	// Switched reports whether the existing instance was successfully
	// brought to the foreground.
	Switched bool
}

// Launch dispatches a launch request. It selects the highest-priority
// capable launcher, deduplicates single-instance applications onto an
// existing switchable instance (or adopts an unregistered OS process),
// and otherwise spawns a new instance, registering it and arming the
// reconciliation loop. Every outcome is journaled to the audit log.
func (e *Engine) Launch(ctx context.Context, a *app.Application, requester string) (*LaunchOutcome, error) {
	if a == nil || a.ID == "" {
		return nil, fmt.Errorf("%w: application is required", ErrInvalidArgument)
	}
	if requester == "" {
		return nil, fmt.Errorf("%w: requester is required", ErrInvalidArgument)
	}

	ctx, span := tracing.StartEngineSpan(ctx, "launch",
		attribute.String("app.id", a.ID),
		attribute.String("app.kind", string(a.Kind)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.LaunchDuration.WithLabelValues(a.ID).Observe(time.Since(start).Seconds())
	}()

	launcher, err := e.selector.Select(a)
	if err != nil {
		tracing.RecordError(span, err, "no launcher")
		metrics.LaunchTotal.WithLabelValues(a.ID, "failed").Inc()
		e.auditLog.LogLaunch(a.ID, a.Name, requester, false, "no launcher available", time.Since(start))
		return nil, fmt.Errorf("%w: kind %s", ErrNoLauncherAvailable, a.Kind)
	}

	if !a.Kind.AllowsMultiple() {
		// Registry first: an existing switchable instance wins.
		if existing, ok := e.registry.FindSwitchable(a.ID); ok {
			switched := e.Switch(ctx, existing.ID)
			current, _ := e.registry.Get(existing.ID)
			metrics.LaunchTotal.WithLabelValues(a.ID, "already_running").Inc()
			e.auditLog.LogAlreadyRunning(a.ID, a.Name, requester, existing.ID, switched)
			tracing.RecordSuccess(span)
			return &LaunchOutcome{
				Instance:       current,
				AlreadyRunning: true,
				Switched:       switched,
			}, nil
		}

		// The OS may own a process we never registered.
		if found := launcher.FindExistingInstance(a); found != nil {
			if _, taken := e.registry.FindByPID(found.PID); !taken {
				if err := e.registry.Insert(*found); err != nil {
					e.logger.Warn("Failed to adopt existing process",
						"app_id", a.ID,
						"pid", found.PID,
						"error", err,
					)
				} else {
					e.startMonitoring()
					metrics.SetInstanceState(a.ID, found.ID, string(found.State))
					metrics.InstancesTracked.Set(float64(e.registry.Len()))
					metrics.LaunchTotal.WithLabelValues(a.ID, "adopted").Inc()
					e.auditLog.LogAdopted(a.ID, a.Name, requester, found.PID)
					switched := e.Switch(ctx, found.ID)
					current, _ := e.registry.Get(found.ID)
					tracing.RecordSuccess(span)
					return &LaunchOutcome{
						Instance:       current,
						AlreadyRunning: true,
						Adopted:        true,
						Switched:       switched,
					}, nil
				}
			}
		}
	}

	inst, err := launcher.Launch(ctx, a, requester)
	if err != nil {
		tracing.RecordError(span, err, "launch failed")
		metrics.LaunchTotal.WithLabelValues(a.ID, "failed").Inc()
		e.auditLog.LogLaunch(a.ID, a.Name, requester, false, err.Error(), time.Since(start))
		return nil, fmt.Errorf("launch of %s failed: %w", a.ID, err)
	}

	if err := e.registry.Insert(*inst); err != nil {
		// The spawn succeeded but registration collided; the
		// reconciliation loop of the colliding record owns the pid.
		tracing.RecordError(span, err, "registration failed")
		metrics.LaunchTotal.WithLabelValues(a.ID, "failed").Inc()
		e.auditLog.LogLaunch(a.ID, a.Name, requester, false, err.Error(), time.Since(start))
		return nil, fmt.Errorf("failed to register instance of %s: %w", a.ID, err)
	}

	e.startMonitoring()

	metrics.SetInstanceState(a.ID, inst.ID, string(inst.State))
	metrics.InstancesTracked.Set(float64(e.registry.Len()))
	metrics.LaunchTotal.WithLabelValues(a.ID, "launched").Inc()
	e.auditLog.LogLaunch(a.ID, a.Name, requester, true, "launched", time.Since(start))
	tracing.RecordSuccess(span)

	e.logger.Info("Instance launched",
		"instance_id", inst.ID,
		"app_id", a.ID,
		"pid", inst.PID,
		"requester", requester,
	)

	snapshot, _ := e.registry.Get(inst.ID)
	return &LaunchOutcome{Instance: snapshot}, nil
}

// RegisterExisting adopts a process the system did not itself spawn.
// Returns nil (without error) if the process is not alive; no registry
// mutation happens and the reconciliation loop is not armed.
func (e *Engine) RegisterExisting(ctx context.Context, a *app.Application, pid int32, requester string) (*instance.Instance, error) {
	if a == nil || a.ID == "" {
		return nil, fmt.Errorf("%w: application is required", ErrInvalidArgument)
	}
	if pid <= 0 {
		return nil, fmt.Errorf("%w: pid must be positive", ErrInvalidArgument)
	}
	if requester == "" {
		return nil, fmt.Errorf("%w: requester is required", ErrInvalidArgument)
	}

	if !e.monitor.IsAlive(pid) {
		e.logger.Warn("Refusing to register dead process",
			"app_id", a.ID,
			"pid", pid,
		)
		return nil, nil
	}

	inst := newAdoptedInstance(a, pid, requester)
	if info := e.monitor.GetInfo(pid); info != nil {
		inst.IsResponding = info.IsResponding
		inst.MemoryMB = info.MemoryMB
		if !info.StartTime.IsZero() {
			inst.StartTime = info.StartTime
		}
		inst.LaunchArgs = append([]string(nil), info.Cmdline...)
	}

	if err := e.registry.Insert(*inst); err != nil {
		return nil, fmt.Errorf("failed to register existing process %d: %w", pid, err)
	}

	e.startMonitoring()
	metrics.SetInstanceState(a.ID, inst.ID, string(inst.State))
	metrics.InstancesTracked.Set(float64(e.registry.Len()))
	e.auditLog.LogAdopted(a.ID, a.Name, requester, pid)

	e.logger.Info("Registered existing process",
		"instance_id", inst.ID,
		"app_id", a.ID,
		"pid", pid,
		"requester", requester,
	)

	snapshot, _ := e.registry.Get(inst.ID)
	return &snapshot, nil
}

func newAdoptedInstance(a *app.Application, pid int32, requester string) *instance.Instance {
	inst := launch.NewInstance(a, pid, requester, nil)
	inst.State = instance.StateRunning
	return inst
}
