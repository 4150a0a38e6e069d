// Package mocks provides shared test doubles for testbridge packages.
package mocks

import (
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/testbridge/internal/process"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
)

// Launcher implements runner.Launcher for testing.
// Use NewLauncher() to create instances with a fluent builder API.
type Launcher struct {
	stdout    string
	result    process.Result
	waitErr   error
	launchErr error
	block     bool

	// LaunchFunc, if set, replaces the scripted behavior.
	LaunchFunc func(ids []string, debug bool) (runner.Process, error)

	// Launch tracking (thread-safe)
	launchCount int32
	mu          sync.Mutex
	calls       []Call
	procs       []*Process
}

// Call records the arguments of one Launch.
type Call struct {
	IDs   []string
	Debug bool
}

// NewLauncher creates a launcher whose processes exit immediately with empty output.
func NewLauncher() *Launcher {
	return &Launcher{}
}

// WithStdout sets the standard output of launched processes.
func (m *Launcher) WithStdout(stdout string) *Launcher {
	m.stdout = stdout
	return m
}

// WithResult sets the full result of launched processes. Stdout set with
// WithStdout takes precedence when non-empty.
func (m *Launcher) WithResult(res process.Result) *Launcher {
	m.result = res
	return m
}

// WithWaitError makes Wait fail with err.
func (m *Launcher) WithWaitError(err error) *Launcher {
	m.waitErr = err
	return m
}

// WithLaunchError makes Launch fail with err.
func (m *Launcher) WithLaunchError(err error) *Launcher {
	m.launchErr = err
	return m
}

// Blocking makes launched processes run until cancelled or released.
func (m *Launcher) Blocking() *Launcher {
	m.block = true
	return m
}

// Launch implements runner.Launcher.
func (m *Launcher) Launch(ids []string, debug bool) (runner.Process, error) {
	atomic.AddInt32(&m.launchCount, 1)
	m.mu.Lock()
	m.calls = append(m.calls, Call{IDs: append([]string(nil), ids...), Debug: debug})
	m.mu.Unlock()

	if m.LaunchFunc != nil {
		return m.LaunchFunc(ids, debug)
	}
	if m.launchErr != nil {
		return nil, m.launchErr
	}

	res := m.result
	if m.stdout != "" {
		res.Stdout = m.stdout
	}
	p := NewProcess(res, m.waitErr)
	if !m.block {
		p.Release()
	}

	m.mu.Lock()
	m.procs = append(m.procs, p)
	m.mu.Unlock()
	return p, nil
}

// Test inspection methods

// LaunchCount returns the number of times Launch was called.
func (m *Launcher) LaunchCount() int32 {
	return atomic.LoadInt32(&m.launchCount)
}

// Calls returns the recorded Launch arguments.
func (m *Launcher) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Call, len(m.calls))
	copy(result, m.calls)
	return result
}

// Processes returns the processes created so far.
func (m *Launcher) Processes() []*Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Process(nil), m.procs...)
}

// Process implements runner.Process. Wait blocks until Release or Cancel.
type Process struct {
	result process.Result
	err    error

	done      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

// NewProcess creates a blocked process that will return res and err.
func NewProcess(res process.Result, err error) *Process {
	return &Process{result: res, err: err, done: make(chan struct{})}
}

// Release lets Wait return the scripted result.
func (p *Process) Release() {
	p.once.Do(func() { close(p.done) })
}

// Cancel implements runner.Process. Wait then reports a cancelled result
// with the partial output still attached.
func (p *Process) Cancel() {
	p.cancelled.Store(true)
	p.Release()
}

// Wait implements runner.Process.
func (p *Process) Wait() (process.Result, error) {
	<-p.done
	if p.cancelled.Load() {
		res := p.result
		res.Cancelled = true
		return res, nil
	}
	return p.result, p.err
}

// Cancelled reports whether Cancel was called.
func (p *Process) Cancelled() bool {
	return p.cancelled.Load()
}
