package controller

import (
	"github.com/AndreyAkinshin/testbridge/internal/process"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
	"github.com/AndreyAkinshin/testbridge/internal/testenv"
)

// Launcher starts the runner script, or the debug-wrapped runner, as a
// subprocess of the environment's interpreter.
type Launcher struct {
	Env *testenv.Environment
}

var _ runner.Launcher = (*Launcher)(nil)

// Launch implements runner.Launcher.
func (l *Launcher) Launch(ids []string, debug bool) (runner.Process, error) {
	inv := l.Env.RunInvocation(ids)
	if debug {
		inv = l.Env.DebugInvocation(ids)
	}
	exec, err := process.Start(inv.Name, inv.Args, inv.Options)
	if err != nil {
		return nil, err
	}
	return exec, nil
}
