// Package session provides a recording run session for hosts without a UI.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/AndreyAkinshin/testbridge/internal/outcome"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// Result is one terminal status reported to a session.
type Result struct {
	Node     *testtree.Node
	Status   outcome.Status
	Message  string
	Duration time.Duration
}

// Recorder is a runner.Session that keeps every reported result. It is safe
// for concurrent use and notes protocol violations (a second terminal status
// for a node, calls after End, repeated End) instead of panicking.
type Recorder struct {
	runID string
	debug bool
	// onResult is called for every accepted result, outside the lock.
	onResult func(Result)

	mu         sync.Mutex
	results    []Result
	seen       map[string]bool
	ends       int
	violations []string
}

var _ runner.Session = (*Recorder)(nil)

// NewRecorder creates an open session.
func NewRecorder(runID string, debug bool) *Recorder {
	return &Recorder{runID: runID, debug: debug, seen: make(map[string]bool)}
}

func (r *Recorder) RunID() string { return r.runID }
func (r *Recorder) Debug() bool   { return r.debug }

func (r *Recorder) Passed(n *testtree.Node, d time.Duration) {
	r.record(Result{Node: n, Status: outcome.StatusPassed, Duration: d})
}

func (r *Recorder) Failed(n *testtree.Node, message string, d time.Duration) {
	r.record(Result{Node: n, Status: outcome.StatusFailed, Message: message, Duration: d})
}

func (r *Recorder) Errored(n *testtree.Node, message string, d time.Duration) {
	r.record(Result{Node: n, Status: outcome.StatusErrored, Message: message, Duration: d})
}

func (r *Recorder) Skipped(n *testtree.Node) {
	r.record(Result{Node: n, Status: outcome.StatusSkipped})
}

// End closes the session.
func (r *Recorder) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
	if r.ends > 1 {
		r.violations = append(r.violations, fmt.Sprintf("End called %d times", r.ends))
	}
}

func (r *Recorder) record(res Result) {
	r.mu.Lock()
	switch {
	case r.ends > 0:
		r.violations = append(r.violations, fmt.Sprintf("%s reported for %s after End", res.Status, res.Node.ID()))
		r.mu.Unlock()
		return
	case r.seen[res.Node.ID()]:
		r.violations = append(r.violations, fmt.Sprintf("second terminal status %s for %s", res.Status, res.Node.ID()))
		r.mu.Unlock()
		return
	}
	r.seen[res.Node.ID()] = true
	r.results = append(r.results, res)
	cb := r.onResult
	r.mu.Unlock()

	if cb != nil {
		cb(res)
	}
}

// Results returns the accepted results in report order.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Lookup returns the result reported for the node id.
func (r *Recorder) Lookup(id string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Node.ID() == id {
			return res, true
		}
	}
	return Result{}, false
}

// Ended reports whether End has been called.
func (r *Recorder) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ends > 0
}

// EndCount returns how many times End has been called.
func (r *Recorder) EndCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ends
}

// Violations returns the protocol violations seen so far.
func (r *Recorder) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.violations...)
}

// Factory opens Recorders and keeps them for inspection.
type Factory struct {
	// OnResult, if set, is passed to every session opened afterwards.
	OnResult func(Result)

	mu       sync.Mutex
	sessions []*Recorder
}

var _ runner.SessionFactory = (*Factory)(nil)

// Open implements runner.SessionFactory.
func (f *Factory) Open(runID string, debug bool) runner.Session {
	rec := NewRecorder(runID, debug)
	f.mu.Lock()
	rec.onResult = f.OnResult
	f.sessions = append(f.sessions, rec)
	f.mu.Unlock()
	return rec
}

// Sessions returns every session opened so far.
func (f *Factory) Sessions() []*Recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Recorder(nil), f.sessions...)
}

// Last returns the most recently opened session, or nil.
func (f *Factory) Last() *Recorder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}
