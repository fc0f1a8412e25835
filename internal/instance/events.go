package instance

import "sync"

// Listener receives instance notifications. Callbacks are optional; nil
// fields are skipped. Callbacks run synchronously on the emitting
// goroutine and must not call back into the registry while holding their
// own locks against it.
type Listener struct {
	OnAdded        func(Instance)
	OnRemoved      func(Instance)
	OnUpdated      func(Instance)
	OnStateChanged func(inst Instance, old, new State, reason string)
	OnActivated    func(Instance)
}

// Notifier fans instance notifications out to registered listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners []Listener
}

// Subscribe registers a listener for all future notifications.
func (n *Notifier) Subscribe(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

func (n *Notifier) emitAdded(inst Instance) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		if l.OnAdded != nil {
			l.OnAdded(inst)
		}
	}
}

func (n *Notifier) emitRemoved(inst Instance) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		if l.OnRemoved != nil {
			l.OnRemoved(inst)
		}
	}
}

func (n *Notifier) emitUpdated(inst Instance) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		if l.OnUpdated != nil {
			l.OnUpdated(inst)
		}
	}
}

// EmitStateChanged notifies listeners of a state transition.
func (n *Notifier) EmitStateChanged(inst Instance, old, new State, reason string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		if l.OnStateChanged != nil {
			l.OnStateChanged(inst, old, new, reason)
		}
	}
}

// EmitActivated notifies listeners that an instance was brought to the
// foreground.
func (n *Notifier) EmitActivated(inst Instance) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, l := range n.listeners {
		if l.OnActivated != nil {
			l.OnActivated(inst)
		}
	}
}
