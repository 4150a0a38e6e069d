// Package controller wires a resolved environment, the test registry, the host
// session factory and the run orchestrator into the two operations a host
// needs: refresh the tree and run a selection of it.
package controller

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AndreyAkinshin/testbridge/internal/discovery"
	"github.com/AndreyAkinshin/testbridge/internal/metrics"
	"github.com/AndreyAkinshin/testbridge/internal/process"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
	"github.com/AndreyAkinshin/testbridge/internal/selection"
	"github.com/AndreyAkinshin/testbridge/internal/testenv"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// Options configures a Controller.
type Options struct {
	// Replace makes every discovery drop the existing roots first.
	Replace bool
	// Overlap is the policy for concurrent run requests.
	Overlap string
	Logger  zerolog.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
	// Launcher overrides the subprocess launcher built from the environment.
	Launcher runner.Launcher
	// Exec overrides the discovery subprocess.
	Exec discovery.ExecFunc
}

// Controller is the single context object shared by discovery and runs.
type Controller struct {
	env      *testenv.Environment
	registry *testtree.Registry
	runner   *runner.Orchestrator
	exec     discovery.ExecFunc
	opts     Options

	// mu lets runs proceed together but keeps discovery exclusive.
	mu sync.RWMutex
}

// New creates a Controller. sessions receives one session per run request.
func New(env *testenv.Environment, reg *testtree.Registry, sessions runner.SessionFactory, opts Options) *Controller {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = &Launcher{Env: env}
	}
	exec := opts.Exec
	if exec == nil {
		exec = discoveryExec(env)
	}

	ropts := runner.Options{Overlap: opts.Overlap, Logger: opts.Logger}
	if opts.Metrics != nil {
		ropts.Observer = opts.Metrics
	}

	return &Controller{
		env:      env,
		registry: reg,
		runner:   runner.New(reg, sessions, launcher, ropts),
		exec:     exec,
		opts:     opts,
	}
}

// Registry returns the registry the controller populates.
func (c *Controller) Registry() *testtree.Registry { return c.registry }

// Environment returns the resolved environment.
func (c *Controller) Environment() *testenv.Environment { return c.env }

// Discover runs discovery and merges (or, with Replace, swaps in) the tree.
func (c *Controller) Discover(ctx context.Context) (*discovery.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := discovery.Discover(ctx, c.exec, c.registry, discovery.Options{
		Replace: c.opts.Replace,
		Logger:  c.opts.Logger,
	})
	if c.opts.Metrics != nil {
		c.opts.Metrics.ObserveDiscovery(res, err)
	}
	return res, err
}

// Run executes one run request against the current tree.
func (c *Controller) Run(ctx context.Context, req selection.Request, debug bool) (*runner.Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rep, err := c.runner.Run(ctx, req, debug)
	if rep == nil && c.opts.Metrics != nil {
		// Rejected before a run began; the orchestrator never reported it.
		c.opts.Metrics.RecordError(err)
	}
	return rep, err
}

func discoveryExec(env *testenv.Environment) discovery.ExecFunc {
	return func(ctx context.Context) (string, bool, error) {
		inv := env.DiscoveryInvocation()
		res, err := process.Run(ctx, inv.Name, inv.Args, inv.Options)
		if res.Cancelled {
			return "", true, nil
		}
		if err != nil {
			return "", false, err
		}
		return res.Stdout, false, nil
	}
}
