// Package runner drives a single test run end to end: it resolves the leaf
// tests, dispatches them to the runner subprocess, reconciles the flat outcome
// mapping with the tree and closes the host run session.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AndreyAkinshin/testbridge/internal/config"
	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/outcome"
	"github.com/AndreyAkinshin/testbridge/internal/process"
	"github.com/AndreyAkinshin/testbridge/internal/selection"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// ErrRunInProgress is returned by Run under the reject overlap policy when
// another run is active. No session is opened in that case.
var ErrRunInProgress = errors.New("a test run is already in progress")

// Session is the host run session. It receives at most one terminal status
// per dispatched leaf and exactly one End call.
type Session interface {
	Passed(n *testtree.Node, d time.Duration)
	Failed(n *testtree.Node, message string, d time.Duration)
	Errored(n *testtree.Node, message string, d time.Duration)
	Skipped(n *testtree.Node)
	End()
}

// SessionFactory opens one session per run request.
type SessionFactory interface {
	Open(runID string, debug bool) Session
}

// Process is a dispatched runner subprocess.
type Process interface {
	Wait() (process.Result, error)
	Cancel()
}

// Launcher starts the runner subprocess for the given leaf ids. debug selects
// the debugger launch path; result handling is identical either way.
type Launcher interface {
	Launch(ids []string, debug bool) (Process, error)
}

// Observer is notified once per finished run.
type Observer interface {
	ObserveRun(r *Report, err error)
}

// Options configures an Orchestrator.
type Options struct {
	// Overlap is one of config.OverlapReject, config.OverlapQueue or
	// config.OverlapAllow. Empty means reject.
	Overlap  string
	Logger   zerolog.Logger
	Observer Observer
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Debug      bool
	State      State
	Dispatched int
	Reported   map[outcome.Status]int
	// Missing lists dispatched leaf ids the runner reported nothing for.
	Missing []string
	// Unknown lists reported ids that were not dispatched.
	Unknown   []string
	Cancelled bool
	Duration  time.Duration
}

// Failures returns the number of failed and errored leaves.
func (r *Report) Failures() int {
	return r.Reported[outcome.StatusFailed] + r.Reported[outcome.StatusErrored]
}

// Orchestrator runs test requests against a registry.
type Orchestrator struct {
	registry *testtree.Registry
	sessions SessionFactory
	launcher Launcher
	opts     Options

	// slot admits one run at a time for the reject and queue policies.
	slot chan struct{}
	// treeMu serializes registry and session access between concurrent runs.
	treeMu sync.Mutex
}

// New creates an Orchestrator.
func New(reg *testtree.Registry, sessions SessionFactory, launcher Launcher, opts Options) *Orchestrator {
	if opts.Overlap == "" {
		opts.Overlap = config.OverlapReject
	}
	return &Orchestrator{
		registry: reg,
		sessions: sessions,
		launcher: launcher,
		opts:     opts,
		slot:     make(chan struct{}, 1),
	}
}

// Run executes one run request. Cancellation of ctx is not an error: the
// report has Cancelled set and no outcomes are reported for the leaves the
// runner had not finished. The session is ended exactly once whenever it was
// opened, including on failure.
func (o *Orchestrator) Run(ctx context.Context, req selection.Request, debug bool) (*Report, error) {
	release, err := o.admit(ctx)
	if err != nil {
		return nil, err
	}
	if release == nil {
		return &Report{State: StateIdle, Debug: debug, Cancelled: true}, nil
	}
	defer release()

	return o.run(ctx, req, debug)
}

// admit applies the overlap policy. A nil release with a nil error means ctx
// was cancelled while queued.
func (o *Orchestrator) admit(ctx context.Context) (release func(), err error) {
	free := func() { <-o.slot }
	switch o.opts.Overlap {
	case config.OverlapAllow:
		return func() {}, nil
	case config.OverlapQueue:
		select {
		case o.slot <- struct{}{}:
			return free, nil
		case <-ctx.Done():
			return nil, nil
		}
	default:
		select {
		case o.slot <- struct{}{}:
			return free, nil
		default:
			return nil, ErrRunInProgress
		}
	}
}

func (o *Orchestrator) run(ctx context.Context, req selection.Request, debug bool) (rep *Report, err error) {
	start := time.Now()
	rep = &Report{
		RunID:    uuid.NewString(),
		Debug:    debug,
		State:    StateIdle,
		Reported: make(map[outcome.Status]int),
	}
	mode := "run"
	if debug {
		mode = "debug"
	}
	log := o.opts.Logger.With().
		Str("component", "runner").
		Str("run_id", rep.RunID).
		Str("mode", mode).
		Logger()

	session := o.sessions.Open(rep.RunID, debug)
	var sel *selection.Selection

	defer func() {
		o.treeMu.Lock()
		if sel != nil {
			sel.ReleaseAll()
		}
		session.End()
		o.treeMu.Unlock()

		if err != nil {
			o.transition(rep, StateEndedWithError, log)
			log.Error().Err(err).Msg("run failed")
		} else {
			o.transition(rep, StateEnded, log)
		}
		rep.Duration = time.Since(start)
		if o.opts.Observer != nil {
			o.opts.Observer.ObserveRun(rep, err)
		}
	}()

	o.treeMu.Lock()
	sel = selection.Resolve(o.registry, req)
	o.treeMu.Unlock()
	rep.Dispatched = sel.Len()
	o.transition(rep, StateLeavesResolved, log)

	ids := sel.IDs()
	if err := checkIDs(ids); err != nil {
		return rep, err
	}
	if len(ids) == 0 {
		log.Info().Msg("no tests selected")
		return rep, nil
	}
	if ctx.Err() != nil {
		rep.Cancelled = true
		log.Info().Msg("run cancelled before dispatch")
		return rep, nil
	}

	proc, err := o.launcher.Launch(ids, debug)
	if err != nil {
		return rep, err
	}
	o.transition(rep, StateProcessDispatched, log)
	log.Info().Int("tests", len(ids)).Msg("runner dispatched")

	res, err := await(ctx, proc)
	if res.Cancelled {
		rep.Cancelled = true
		log.Info().Msg("run cancelled")
		return rep, nil
	}
	if err != nil {
		return rep, err
	}

	entries, err := outcome.Decode(res.Stdout)
	if err != nil {
		return rep, err
	}

	o.treeMu.Lock()
	o.reconcile(rep, sel, entries, session)
	o.treeMu.Unlock()
	o.transition(rep, StateOutcomesReconciled, log)

	if len(rep.Missing) > 0 {
		log.Warn().Strs("ids", rep.Missing).Msg("runner reported no outcome for some tests")
	}
	if len(rep.Unknown) > 0 {
		log.Debug().Strs("ids", rep.Unknown).Msg("ignoring outcomes for tests that were not dispatched")
	}
	return rep, nil
}

// await waits for proc, cancelling it if ctx ends first. Whether the run was
// cancelled is taken from the result: a process that exited before Cancel
// reached it keeps its output.
func await(ctx context.Context, proc Process) (process.Result, error) {
	var (
		res  process.Result
		err  error
		done = make(chan struct{})
	)
	go func() {
		res, err = proc.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		proc.Cancel()
		<-done
	}
	return res, err
}

// reconcile reports each dispatched leaf that has an entry, in leaf order.
func (o *Orchestrator) reconcile(rep *Report, sel *selection.Selection, entries map[string]outcome.Entry, session Session) {
	for _, n := range sel.Leaves() {
		e, ok := entries[n.ID()]
		if !ok {
			rep.Missing = append(rep.Missing, n.ID())
			continue
		}
		sel.Release(n)
		switch e.Status {
		case outcome.StatusPassed:
			session.Passed(n, e.Duration)
		case outcome.StatusFailed:
			session.Failed(n, e.Message, e.Duration)
		case outcome.StatusErrored:
			session.Errored(n, e.Message, e.Duration)
		case outcome.StatusSkipped:
			session.Skipped(n)
		}
		rep.Reported[e.Status]++
	}

	for id := range entries {
		if _, ok := sel.Lookup(id); !ok {
			rep.Unknown = append(rep.Unknown, id)
		}
	}
	sort.Strings(rep.Unknown)
}

func (o *Orchestrator) transition(rep *Report, to State, log zerolog.Logger) {
	log.Debug().Stringer("from", rep.State).Stringer("to", to).Msg("state")
	rep.State = to
}

// checkIDs rejects ids that cannot survive the space-joined --tests argument.
func checkIDs(ids []string) error {
	for _, id := range ids {
		if id == "" || strings.ContainsAny(id, " \t\r\n") {
			return &bridgeerrors.BridgeError{
				Kind:    bridgeerrors.KindValidation,
				Message: fmt.Sprintf("test id %q cannot be passed to the runner: ids must be non-empty and contain no whitespace", id),
			}
		}
	}
	return nil
}
