//go:build !windows

package window

// nullManager is the fallback for platforms without a native window
// integration. Operations report failure and enumeration finds nothing;
// instances stay managed purely through process facts.
type nullManager struct{}

// NewNative returns the platform window manager and enumerator.
func NewNative() (Manager, Enumerator) {
	m := nullManager{}
	return m, m
}

func (nullManager) IsValid(uintptr) bool     { return false }
func (nullManager) IsMinimized(uintptr) bool { return false }
func (nullManager) IsActive(uintptr) bool    { return false }
func (nullManager) SwitchTo(uintptr) bool    { return false }
func (nullManager) Minimize(uintptr) bool    { return false }
func (nullManager) Restore(uintptr) bool     { return false }

func (nullManager) WindowsForProcess(int32) []Candidate { return nil }
