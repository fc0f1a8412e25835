//go:build !windows

package launch

import (
	"os/exec"
	"syscall"
)

// detach puts the child into its own session so it survives the
// launcher and never joins its process group.
func detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
}
