package instance

import (
	"fmt"
	"sync"
	"time"
)

// Registry is the authoritative, concurrently accessed table of
// application instances. It is the only place instance records are
// mutated: callers get value snapshots out and submit mutations as
// closures that run under the registry lock. Command handlers, the
// reconciliation loop, and OS callbacks all serialize through it.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance

	notifier *Notifier
}

// NewRegistry creates an empty registry emitting through notifier.
// A nil notifier disables notifications.
func NewRegistry(notifier *Notifier) *Registry {
	if notifier == nil {
		notifier = &Notifier{}
	}
	return &Registry{
		instances: make(map[string]*Instance),
		notifier:  notifier,
	}
}

// Notifier returns the notifier instances are announced on.
func (r *Registry) Notifier() *Notifier {
	return r.notifier
}

// Insert adds a new instance. It fails if the id is already present or
// if the pid is already owned by a live instance (pid uniqueness among
// live instances is a registry invariant).
func (r *Registry) Insert(inst Instance) error {
	r.mu.Lock()
	if _, exists := r.instances[inst.ID]; exists {
		r.mu.Unlock()
		return fmt.Errorf("instance %s already registered", inst.ID)
	}
	if inst.PID > 0 {
		for _, other := range r.instances {
			if other.PID == inst.PID && other.Live() {
				r.mu.Unlock()
				return fmt.Errorf("pid %d already tracked by live instance %s", inst.PID, other.ID)
			}
		}
	}
	stored := inst.clone()
	stored.LastUpdate = time.Now()
	r.instances[inst.ID] = &stored
	snapshot := stored.clone()
	r.mu.Unlock()

	r.notifier.emitAdded(snapshot)
	return nil
}

// Get returns a snapshot of the instance with the given id.
func (r *Registry) Get(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return Instance{}, false
	}
	return inst.clone(), true
}

// Update applies fn to the stored record under the registry lock and
// returns the post-mutation snapshot. fn must not block or call back
// into the registry. Returns false for an unknown id.
func (r *Registry) Update(id string, fn func(*Instance)) (Instance, bool) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if !ok {
		r.mu.Unlock()
		return Instance{}, false
	}
	fn(inst)
	inst.LastUpdate = time.Now()
	snapshot := inst.clone()
	r.mu.Unlock()

	r.notifier.emitUpdated(snapshot)
	return snapshot, true
}

// Remove deletes the instance and returns its final snapshot.
func (r *Registry) Remove(id string) (Instance, bool) {
	r.mu.Lock()
	inst, ok := r.instances[id]
	if !ok {
		r.mu.Unlock()
		return Instance{}, false
	}
	delete(r.instances, id)
	snapshot := inst.clone()
	r.mu.Unlock()

	r.notifier.emitRemoved(snapshot)
	return snapshot, true
}

// ReassignPID moves the instance to a new process id. This is the only
// sanctioned path for process-identity migration; it preserves the
// live-pid uniqueness invariant.
func (r *Registry) ReassignPID(id string, pid int32) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	r.mu.Lock()
	inst, ok := r.instances[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("instance %s not found", id)
	}
	for _, other := range r.instances {
		if other.ID != id && other.PID == pid && other.Live() {
			r.mu.Unlock()
			return fmt.Errorf("pid %d already tracked by live instance %s", pid, other.ID)
		}
	}
	inst.PID = pid
	inst.Management = ManagedByProcess{PID: pid}
	inst.LastUpdate = time.Now()
	snapshot := inst.clone()
	r.mu.Unlock()

	r.notifier.emitUpdated(snapshot)
	return nil
}

// List returns snapshots of all instances.
func (r *Registry) List() []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst.clone())
	}
	return out
}

// Live returns snapshots of all live instances.
func (r *Registry) Live() []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		if inst.Live() {
			out = append(out, inst.clone())
		}
	}
	return out
}

// FindSwitchable returns the first switchable instance of the given
// application id, if any.
func (r *Registry) FindSwitchable(appID string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inst := range r.instances {
		if inst.ApplicationID == appID && inst.Switchable() {
			return inst.clone(), true
		}
	}
	return Instance{}, false
}

// FindByPID returns the live instance tracking the given process id.
func (r *Registry) FindByPID(pid int32) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inst := range r.instances {
		if inst.PID == pid && inst.Live() {
			return inst.clone(), true
		}
	}
	return Instance{}, false
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
