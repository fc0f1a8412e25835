// Package audit provides the structured audit journal for launcher
// activity: who launched what, which commands ran, and how mass
// shutdowns ended.
package audit

import (
	"encoding/json"
	"log/slog"
	"time"
)

// EventType represents the category of audit event.
type EventType string

const (
	// Launch events
	EventLaunch         EventType = "launch.dispatch"
	EventLaunchExisting EventType = "launch.already_running"
	EventLaunchAdopted  EventType = "launch.adopted"

	// Instance command events
	EventInstanceSwitch EventType = "instance.switch"
	EventInstanceClose  EventType = "instance.close"
	EventInstanceKill   EventType = "instance.kill"
	EventInstanceState  EventType = "instance.state_change"

	// Shutdown events
	EventShutdownAll EventType = "shutdown.all"

	// System events
	EventSystemStart    EventType = "system.start"
	EventSystemShutdown EventType = "system.shutdown"
	EventUnsafeTarget   EventType = "system.unsafe_target"
)

// Status represents the outcome of an audited action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
)

// Actor represents who requested the action.
type Actor struct {
	Type string `json:"type"` // "user", "system", "api"
	ID   string `json:"id"`
}

// Resource represents what was affected.
type Resource struct {
	Type string `json:"type"` // "application", "instance"
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event represents a single audit entry.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType EventType      `json:"event_type"`
	Actor     Actor          `json:"actor"`
	Action    string         `json:"action"`
	Resource  Resource       `json:"resource"`
	Status    Status         `json:"status"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
}

// Logger journals audit events through slog.
type Logger struct {
	logger  *slog.Logger
	enabled bool
}

// NewLogger creates a new audit logger.
func NewLogger(log *slog.Logger, enabled bool) *Logger {
	return &Logger{
		logger:  log.With("subsystem", "audit"),
		enabled: enabled,
	}
}

// Log journals an audit event.
func (l *Logger) Log(event Event) {
	if l == nil || !l.enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, _ := json.Marshal(event)

	switch event.Status {
	case StatusFailure, StatusError:
		l.logger.Error("audit_event",
			"event_type", event.EventType,
			"actor", event.Actor.ID,
			"action", event.Action,
			"resource", event.Resource.ID,
			"status", event.Status,
			"message", event.Message,
			"event_json", string(eventJSON),
		)
	default:
		l.logger.Info("audit_event",
			"event_type", event.EventType,
			"actor", event.Actor.ID,
			"action", event.Action,
			"resource", event.Resource.ID,
			"status", event.Status,
			"message", event.Message,
			"event_json", string(eventJSON),
		)
	}
}

// LogLaunch journals a launch dispatch outcome.
func (l *Logger) LogLaunch(appID, appName, requester string, success bool, detail string, duration time.Duration) {
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	l.Log(Event{
		EventType: EventLaunch,
		Actor:     Actor{Type: "user", ID: requester},
		Action:    "launch",
		Resource:  Resource{Type: "application", ID: appID, Name: appName},
		Status:    status,
		Message:   detail,
		Context: map[string]any{
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// LogAlreadyRunning journals a launch deduplicated onto an existing
// instance.
func (l *Logger) LogAlreadyRunning(appID, appName, requester, instanceID string, switched bool) {
	l.Log(Event{
		EventType: EventLaunchExisting,
		Actor:     Actor{Type: "user", ID: requester},
		Action:    "activate_existing",
		Resource:  Resource{Type: "application", ID: appID, Name: appName},
		Status:    StatusSuccess,
		Message:   "activated existing instance",
		Context: map[string]any{
			"instance_id": instanceID,
			"switched":    switched,
		},
	})
}

// LogAdopted journals the registration of a pre-existing OS process.
func (l *Logger) LogAdopted(appID, appName, requester string, pid int32) {
	l.Log(Event{
		EventType: EventLaunchAdopted,
		Actor:     Actor{Type: "user", ID: requester},
		Action:    "adopt",
		Resource:  Resource{Type: "application", ID: appID, Name: appName},
		Status:    StatusSuccess,
		Message:   "registered existing process",
		Context: map[string]any{
			"pid": pid,
		},
	})
}

// LogTermination journals a close or kill attempt.
func (l *Logger) LogTermination(instanceID, appID, method string, success bool, duration time.Duration) {
	eventType := EventInstanceClose
	if method == "forced" {
		eventType = EventInstanceKill
	}
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	l.Log(Event{
		EventType: eventType,
		Actor:     Actor{Type: "system", ID: "lifecycle_engine"},
		Action:    method,
		Resource:  Resource{Type: "instance", ID: instanceID, Name: appID},
		Status:    status,
		Message:   "termination attempt",
		Context: map[string]any{
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// LogStateChange journals an instance state transition.
func (l *Logger) LogStateChange(instanceID, appID, from, to, reason string) {
	l.Log(Event{
		EventType: EventInstanceState,
		Actor:     Actor{Type: "system", ID: "reconciler"},
		Action:    "state_change",
		Resource:  Resource{Type: "instance", ID: instanceID, Name: appID},
		Status:    StatusSuccess,
		Message:   reason,
		Context: map[string]any{
			"from": from,
			"to":   to,
		},
	})
}

// LogUnsafeTarget journals a rejected close/kill that resolved to the
// host's own process. This indicates a registry identity bug.
func (l *Logger) LogUnsafeTarget(instanceID string, pid int32) {
	l.Log(Event{
		EventType: EventUnsafeTarget,
		Actor:     Actor{Type: "system", ID: "lifecycle_engine"},
		Action:    "reject",
		Resource:  Resource{Type: "instance", ID: instanceID},
		Status:    StatusError,
		Message:   "termination target resolved to host process",
		Context: map[string]any{
			"pid": pid,
		},
	})
}

// LogShutdownAll journals the outcome of a mass shutdown.
func (l *Logger) LogShutdownAll(total, graceful, forced, failed int, duration time.Duration) {
	status := StatusSuccess
	if failed > 0 {
		status = StatusFailure
	}
	l.Log(Event{
		EventType: EventShutdownAll,
		Actor:     Actor{Type: "system", ID: "lifecycle_engine"},
		Action:    "shutdown_all",
		Resource:  Resource{Type: "instance", ID: "*"},
		Status:    status,
		Message:   "mass shutdown finished",
		Context: map[string]any{
			"total":       total,
			"graceful":    graceful,
			"forced":      forced,
			"failed":      failed,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// LogSystemStart journals daemon startup.
func (l *Logger) LogSystemStart(version string) {
	l.Log(Event{
		EventType: EventSystemStart,
		Actor:     Actor{Type: "system", ID: "deskhive"},
		Action:    "start",
		Resource:  Resource{Type: "system", ID: "deskhive"},
		Status:    StatusSuccess,
		Message:   "daemon started",
		Context: map[string]any{
			"version": version,
		},
	})
}

// LogSystemShutdown journals daemon shutdown.
func (l *Logger) LogSystemShutdown(reason string, clean bool) {
	status := StatusSuccess
	if !clean {
		status = StatusFailure
	}
	l.Log(Event{
		EventType: EventSystemShutdown,
		Actor:     Actor{Type: "system", ID: "deskhive"},
		Action:    "shutdown",
		Resource:  Resource{Type: "system", ID: "deskhive"},
		Status:    status,
		Message:   reason,
	})
}
