//go:build !windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// configure starts the process in its own group so that cancellation also
// reaches the children it spawns.
func configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func interrupt(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGINT)
}

func kill(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGKILL)
}
