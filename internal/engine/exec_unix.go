//go:build unix

package engine

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the engine in a new process group and makes
// context cancellation kill the group, not just the leader.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
