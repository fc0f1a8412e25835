package lifecycle

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/deskhive/deskhive/internal/instance"
	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/tracing"
)

// ShutdownMethod records how an instance was (or was not) terminated.
type ShutdownMethod string

const (
	ShutdownGraceful ShutdownMethod = "graceful"
	ShutdownForced   ShutdownMethod = "forced"
	ShutdownFailed   ShutdownMethod = "failed"
)

// ApplicationShutdownInfo is the immutable per-instance record of a
// mass-shutdown attempt.
type ApplicationShutdownInfo struct {
	InstanceID    string
	ApplicationID string
	Method        ShutdownMethod
	Duration      time.Duration
	Err           error
}

// ShutdownResult is the immutable record of one ShutdownAll call.
type ShutdownResult struct {
	Success  bool
	Duration time.Duration
	Infos    []ApplicationShutdownInfo
}

// settleDelay is the pause between the graceful phase and the survivor
// re-check, giving the OS time to report exits.
const settleDelay = 500 * time.Millisecond

// ShutdownAll terminates every live instance: phase one closes all of
// them gracefully in parallel bounded by gracefulTimeout each; phase
// two, entered only if survivors remain after a short settle delay,
// kills each survivor bounded by finalTimeout. Already-terminated
// instances are skipped. Overall success requires zero live instances
// afterward.
func (e *Engine) ShutdownAll(ctx context.Context, gracefulTimeout, finalTimeout time.Duration) *ShutdownResult {
	ctx, span := tracing.StartEngineSpan(ctx, "shutdown_all",
		attribute.Int("live_instances", len(e.registry.Live())),
	)
	defer span.End()

	start := time.Now()
	live := e.registry.Live()

	e.logger.Info("Mass shutdown starting",
		"instances", len(live),
		"graceful_timeout", gracefulTimeout,
		"final_timeout", finalTimeout,
	)

	results := make(map[string]*ApplicationShutdownInfo, len(live))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, inst := range live {
		wg.Add(1)
		go func(inst instance.Instance) {
			defer wg.Done()
			opStart := time.Now()
			ok := e.closeWithTimeout(ctx, inst.ID, gracefulTimeout)
			info := &ApplicationShutdownInfo{
				InstanceID:    inst.ID,
				ApplicationID: inst.ApplicationID,
				Duration:      time.Since(opStart),
				Method:        ShutdownFailed,
			}
			if ok {
				info.Method = ShutdownGraceful
			}
			mu.Lock()
			results[inst.ID] = info
			mu.Unlock()
		}(inst)
	}
	wg.Wait()

	// Give the OS a moment before deciding who survived phase one.
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
	}

	survivors := e.survivingInstances(live)
	for _, inst := range survivors {
		wg.Add(1)
		go func(inst instance.Instance) {
			defer wg.Done()
			opStart := time.Now()
			ok := e.killWithTimeout(ctx, inst.ID, finalTimeout)
			mu.Lock()
			info := results[inst.ID]
			if info == nil {
				info = &ApplicationShutdownInfo{
					InstanceID:    inst.ID,
					ApplicationID: inst.ApplicationID,
				}
				results[inst.ID] = info
			}
			info.Duration += time.Since(opStart)
			if ok {
				info.Method = ShutdownForced
			} else {
				info.Method = ShutdownFailed
			}
			mu.Unlock()
		}(inst)
	}
	wg.Wait()

	result := &ShutdownResult{
		Success:  len(e.registry.Live()) == 0,
		Duration: time.Since(start),
	}
	var graceful, forced, failed int
	for _, inst := range live {
		info := results[inst.ID]
		if info == nil {
			continue
		}
		result.Infos = append(result.Infos, *info)
		switch info.Method {
		case ShutdownGraceful:
			graceful++
		case ShutdownForced:
			forced++
		default:
			failed++
		}
	}

	metrics.ShutdownDuration.Observe(result.Duration.Seconds())
	e.auditLog.LogShutdownAll(len(live), graceful, forced, failed, result.Duration)
	if result.Success {
		tracing.RecordSuccess(span)
	}

	e.logger.Info("Mass shutdown finished",
		"success", result.Success,
		"graceful", graceful,
		"forced", forced,
		"failed", failed,
		"duration", result.Duration,
	)

	return result
}

// KillAll is the forced-only variant of ShutdownAll used when graceful
// shutdown is not desired.
func (e *Engine) KillAll(ctx context.Context, timeout time.Duration) *ShutdownResult {
	start := time.Now()
	live := e.registry.Live()

	e.logger.Info("Forced mass kill starting", "instances", len(live))

	infos := make([]ApplicationShutdownInfo, len(live))
	var wg sync.WaitGroup
	for i, inst := range live {
		wg.Add(1)
		go func(i int, inst instance.Instance) {
			defer wg.Done()
			opStart := time.Now()
			ok := e.killWithTimeout(ctx, inst.ID, timeout)
			infos[i] = ApplicationShutdownInfo{
				InstanceID:    inst.ID,
				ApplicationID: inst.ApplicationID,
				Duration:      time.Since(opStart),
				Method:        ShutdownForced,
			}
			if !ok {
				infos[i].Method = ShutdownFailed
			}
		}(i, inst)
	}
	wg.Wait()

	result := &ShutdownResult{
		Success:  len(e.registry.Live()) == 0,
		Duration: time.Since(start),
		Infos:    infos,
	}
	metrics.ShutdownDuration.Observe(result.Duration.Seconds())
	return result
}

// closeWithTimeout runs Close with a per-instance timeout override.
func (e *Engine) closeWithTimeout(ctx context.Context, id string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = e.opts.CloseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout+settleDelay)
	defer cancel()
	return e.terminate(ctx, id, false, timeout)
}

// killWithTimeout runs Kill with a per-instance timeout override.
func (e *Engine) killWithTimeout(ctx context.Context, id string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = e.opts.KillTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout+settleDelay)
	defer cancel()
	return e.terminate(ctx, id, true, timeout)
}

// survivingInstances returns the subset of the original set still live
// in the registry.
func (e *Engine) survivingInstances(original []instance.Instance) []instance.Instance {
	var out []instance.Instance
	for _, inst := range original {
		current, ok := e.registry.Get(inst.ID)
		if !ok || !current.Live() {
			continue
		}
		if mgmt, isProc := current.Management.(instance.ManagedByProcess); isProc && !e.monitor.IsAlive(mgmt.PID) {
			// Exited during the settle window; reconciliation will
			// record the terminal state.
			continue
		}
		out = append(out, current)
	}
	return out
}
