//go:build windows

package process

import (
	"os"
	"os/exec"
)

func configure(cmd *exec.Cmd) {}

// interrupt kills the process: console interrupts cannot be delivered to a
// single child process on Windows.
func interrupt(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}
