//go:build unix

package execshell

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the command in its own process group so cancellation
// also terminates any children it spawned.
func configureProcessGroup(executable *exec.Cmd) {
	executable.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	executable.Cancel = func() error {
		return syscall.Kill(-executable.Process.Pid, syscall.SIGKILL)
	}
}
