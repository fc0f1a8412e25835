//go:build windows

package launch

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// detach starts the child in its own process group so console signals
// aimed at the launcher do not reach it.
func detach(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= createNewProcessGroup
}
