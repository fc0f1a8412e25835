//go:build windows

package window

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procIsWindow                 = user32.NewProc("IsWindow")
	procIsIconic                 = user32.NewProc("IsIconic")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procShowWindow               = user32.NewProc("ShowWindow")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
)

const (
	swMinimize = 6
	swRestore  = 9
)

// NativeManager manipulates Win32 window handles through user32.
type NativeManager struct{}

// NewNative returns the platform window manager and enumerator.
func NewNative() (Manager, Enumerator) {
	m := &NativeManager{}
	return m, m
}

func (m *NativeManager) IsValid(handle uintptr) bool {
	r, _, _ := procIsWindow.Call(handle)
	return r != 0
}

func (m *NativeManager) IsMinimized(handle uintptr) bool {
	r, _, _ := procIsIconic.Call(handle)
	return r != 0
}

func (m *NativeManager) IsActive(handle uintptr) bool {
	r, _, _ := procGetForegroundWindow.Call()
	return r != 0 && r == handle
}

func (m *NativeManager) SwitchTo(handle uintptr) bool {
	if m.IsMinimized(handle) {
		procShowWindow.Call(handle, swRestore)
	}
	r, _, _ := procSetForegroundWindow.Call(handle)
	return r != 0
}

func (m *NativeManager) Minimize(handle uintptr) bool {
	r, _, _ := procShowWindow.Call(handle, swMinimize)
	return r != 0
}

func (m *NativeManager) Restore(handle uintptr) bool {
	r, _, _ := procShowWindow.Call(handle, swRestore)
	return r != 0
}

// WindowsForProcess enumerates top-level windows owned by pid.
func (m *NativeManager) WindowsForProcess(pid int32) []Candidate {
	var out []Candidate

	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		var owner uint32
		procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&owner)))
		if int32(owner) != pid {
			return 1 // continue enumeration
		}

		visible, _, _ := procIsWindowVisible.Call(hwnd)
		out = append(out, Candidate{
			Handle:  hwnd,
			PID:     pid,
			Title:   windowText(hwnd, procGetWindowTextW),
			Class:   windowText(hwnd, procGetClassNameW),
			Visible: visible != 0,
		})
		return 1
	})

	procEnumWindows.Call(cb, 0)
	return out
}

func windowText(hwnd uintptr, proc *windows.LazyProc) string {
	buf := make([]uint16, 256)
	n, _, _ := proc.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
