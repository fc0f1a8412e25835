// Package window provides window-handle manipulation capabilities and
// the heuristics that recover a usable window for a live process.
package window

// Manager manipulates one OS window handle. Implementations are
// platform-specific; all methods report failure as false rather than
// returning OS error detail.
type Manager interface {
	IsValid(handle uintptr) bool
	IsMinimized(handle uintptr) bool
	IsActive(handle uintptr) bool
	SwitchTo(handle uintptr) bool
	Minimize(handle uintptr) bool
	Restore(handle uintptr) bool
}

// Enumerator lists candidate windows, used when the cached handle for a
// process is stale or was never captured.
type Enumerator interface {
	// WindowsForProcess returns all windows owned by pid.
	WindowsForProcess(pid int32) []Candidate
}

// Candidate is one enumerated window considered by the resolver.
type Candidate struct {
	Handle  uintptr
	PID     int32
	Title   string
	Class   string
	Visible bool
}
