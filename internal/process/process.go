// Package process launches external interpreters and collects their output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
)

// DefaultCancelGrace is the delay between the interrupt sent by Cancel and
// the forced kill.
const DefaultCancelGrace = 5 * time.Second

// Options configures a single process launch.
type Options struct {
	Dir               string
	Env               map[string]string // Overlaid on os.Environ(); these keys win
	AcceptedExitCodes []int             // Defaults to [0]
	Encoding          string            // WHATWG label for stdout/stderr, defaults to utf-8
	CancelGrace       time.Duration
}

// Result is the outcome of a completed process.
type Result struct {
	// ExitCode is -1 when the process was terminated by a signal.
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	Cancelled bool
}

// Execution is a running process. Wait may be called any number of times
// and from several goroutines.
type Execution struct {
	cmd       *exec.Cmd
	opts      Options
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	started   time.Time
	done      chan struct{}
	result    Result
	err       error
	cancelled atomic.Bool
	stopOnce  sync.Once
}

// Start spawns name with args. A failure to spawn is reported as a process
// error with ReasonSpawn.
func Start(name string, args []string, opts Options) (*Execution, error) {
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = DefaultCancelGrace
	}
	if len(opts.AcceptedExitCodes) == 0 {
		opts.AcceptedExitCodes = []int{0}
	}

	e := &Execution{opts: opts, done: make(chan struct{})}
	e.cmd = exec.Command(name, args...)
	e.cmd.Dir = opts.Dir
	e.cmd.Env = MergeEnv(os.Environ(), opts.Env)
	e.cmd.Stdout = &e.stdout
	e.cmd.Stderr = &e.stderr
	configure(e.cmd)

	e.started = time.Now()
	if err := e.cmd.Start(); err != nil {
		be := bridgeerrors.Process(bridgeerrors.ReasonSpawn, fmt.Sprintf("failed to start %s", name))
		be.Cause = err
		return nil, be
	}

	go e.wait()
	return e, nil
}

// Run starts the process and waits for it. Cancelling ctx cancels the process;
// the returned result then has Cancelled set.
func Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	e, err := Start(name, args, opts)
	if err != nil {
		return Result{}, err
	}
	select {
	case <-e.done:
	case <-ctx.Done():
		e.Cancel()
	}
	return e.Wait()
}

// PID returns the operating system process id.
func (e *Execution) PID() int {
	return e.cmd.Process.Pid
}

// Done is closed once the process has exited and its result is available.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the process exits.
func (e *Execution) Wait() (Result, error) {
	<-e.done
	return e.result, e.err
}

// Cancel asks the process to terminate. It is interrupted first and killed
// after the grace period if it is still running. Once Cancel has been
// called, a non-accepted exit code is no longer reported as an error.
func (e *Execution) Cancel() {
	e.cancelled.Store(true)
	e.stopOnce.Do(func() {
		select {
		case <-e.done:
			return
		default:
		}
		if err := interrupt(e.cmd.Process); err != nil {
			_ = kill(e.cmd.Process)
			return
		}
		go func() {
			timer := time.NewTimer(e.opts.CancelGrace)
			defer timer.Stop()
			select {
			case <-e.done:
			case <-timer.C:
				_ = kill(e.cmd.Process)
			}
		}()
	})
}

func (e *Execution) wait() {
	defer close(e.done)

	waitErr := e.cmd.Wait()
	e.result.Duration = time.Since(e.started)
	e.result.Cancelled = e.cancelled.Load()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		be := bridgeerrors.Process(bridgeerrors.ReasonSpawn, "failed to wait for process")
		be.Cause = waitErr
		e.err = be
		return
	}
	e.result.ExitCode = e.cmd.ProcessState.ExitCode()

	stderr, _ := Decode(e.stderr.Bytes(), e.opts.Encoding)
	e.result.Stderr = stderr

	if e.result.Cancelled {
		return
	}

	if e.result.ExitCode >= 0 && !e.accepted(e.result.ExitCode) {
		be := bridgeerrors.Process(bridgeerrors.ReasonUnexpectedExit,
			fmt.Sprintf("process exited with code %d", e.result.ExitCode))
		be.ExitCode = e.result.ExitCode
		be.Stderr = strings.TrimSpace(stderr)
		e.err = be
		return
	}

	raw := e.stdout.Bytes()
	stdout, err := Decode(raw, e.opts.Encoding)
	if err != nil || (stdout == "" && len(raw) > 0) {
		be := bridgeerrors.Process(bridgeerrors.ReasonUndecodable, "can not decode output from the process")
		be.Cause = err
		e.err = be
		return
	}
	e.result.Stdout = stdout
}

func (e *Execution) accepted(code int) bool {
	for _, c := range e.opts.AcceptedExitCodes {
		if c == code {
			return true
		}
	}
	return false
}

// MergeEnv overlays overrides onto base, a list of KEY=VALUE entries.
// Keys from overrides replace existing entries. The result is sorted by key
// for the overridden part so launches are reproducible.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}
