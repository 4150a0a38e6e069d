package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/testbridge/internal/discovery"
	"github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/outcome"
	"github.com/AndreyAkinshin/testbridge/internal/render"
	"github.com/AndreyAkinshin/testbridge/internal/runner"
	"github.com/AndreyAkinshin/testbridge/internal/selection"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

func (a *app) discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover tests and print how many were found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return err
			}
			res, err := a.discover(cmd.Context(), h)
			if err != nil || res.Cancelled {
				return err
			}
			a.out.Success("Discovered %d tests (%d nodes)", res.Stats.Leaves, res.Stats.Nodes)
			return nil
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Discover tests and print them as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return err
			}
			res, err := a.discover(cmd.Context(), h)
			if err != nil || res.Cancelled {
				return err
			}
			return render.Tree(a.out.Out(), h.ctl.Registry(), render.TreeOptions{
				ShowIDs: showIDs,
				BaseDir: h.ctl.Environment().ProjectDir,
			})
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show test ids next to display names")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var (
		exclude []string
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "run [test-id...]",
		Short: "Discover tests and run the selected ones",
		Long: `Discover tests and run the selected ones.

Ids may name any node of the tree; every test case below it is run. Without
ids the whole tree is run. Use 'testbridge tree --ids' to list the ids.

Examples:
  # Run everything
  testbridge run

  # Run one test class except a single slow test
  testbridge run app.tests.ViewTests --exclude app.tests.ViewTests.test_slow

  # Run under the debugger and wait for it to attach
  testbridge run --debug app.tests.ModelTests`,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.newHost()
			if err != nil {
				return err
			}
			res, err := a.discover(cmd.Context(), h)
			if err != nil {
				return err
			}
			if res.Cancelled {
				a.exitCode = errors.ExitRuntimeError
				return nil
			}

			req, err := buildRequest(h.ctl.Registry(), args, exclude)
			if err != nil {
				return err
			}
			if debug {
				env := h.ctl.Environment()
				a.out.Info("Waiting for a debugger on %s (%s)", env.Debug.Listen, env.Debug.Module)
			}

			rep, err := h.ctl.Run(cmd.Context(), req, debug)
			if err != nil {
				return err
			}
			a.report(h, rep)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&exclude, "exclude", "x", nil, "Id of a node to leave out (repeatable)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Run under the configured debug module")
	return cmd
}

// discover runs discovery and prints the warnings it collected.
func (a *app) discover(ctx context.Context, h *host) (*discovery.Result, error) {
	res, err := h.ctl.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if res.Cancelled {
		a.out.WarningSimple("discovery cancelled")
		return res, nil
	}
	for _, w := range res.Warnings {
		a.out.WarningSimple("discovery: %s", w)
	}
	return res, nil
}

// buildRequest turns node ids into a run request. No include ids means all roots.
func buildRequest(reg *testtree.Registry, include, exclude []string) (selection.Request, error) {
	var req selection.Request
	for _, id := range include {
		n, ok := reg.Find(id)
		if !ok {
			return req, errors.NotFound("test", id)
		}
		req.Include = append(req.Include, n)
	}
	for _, id := range exclude {
		n, ok := reg.Find(id)
		if !ok {
			return req, errors.NotFound("test", id)
		}
		req.Exclude = append(req.Exclude, n)
	}
	return req, nil
}

// report prints the result table and the final line, and sets the exit code.
func (a *app) report(h *host, rep *runner.Report) {
	if rep.Cancelled {
		a.out.WarningSimple("run cancelled")
		a.exitCode = errors.ExitRuntimeError
		return
	}
	if rep.Dispatched == 0 {
		a.out.Info("No tests selected")
		return
	}

	if rec := h.sessions.Last(); rec != nil && !a.out.Quiet() {
		a.out.Section("Results")
		render.Results(a.out.Out(), rep, rec.Results(), render.ResultsOptions{Color: a.out.Color()})
	}
	if len(rep.Missing) > 0 {
		a.out.WarningSimple("runner reported no result for %d test(s)", len(rep.Missing))
	}

	if failures := rep.Failures(); failures > 0 {
		a.out.FinalFailure("%d of %d tests failed", failures, rep.Dispatched)
		a.exitCode = errors.ExitRuntimeError
		return
	}
	a.out.FinalSuccess("%s", passedLine(rep))
}

func passedLine(rep *runner.Report) string {
	passed := rep.Reported[outcome.StatusPassed]
	if passed == rep.Dispatched {
		return fmt.Sprintf("All %d tests passed", passed)
	}
	return fmt.Sprintf("No failures: %d passed, %d skipped", passed, rep.Reported[outcome.StatusSkipped])
}
