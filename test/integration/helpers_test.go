//go:build !windows

// Package integration contains end-to-end tests that drive real discovery and
// runner subprocesses. The companion scripts are shell stand-ins executed by
// /bin/sh, so the suite does not need Python or Django.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/testbridge/internal/config"
	"github.com/AndreyAkinshin/testbridge/internal/controller"
	"github.com/AndreyAkinshin/testbridge/internal/metrics"
	"github.com/AndreyAkinshin/testbridge/internal/project"
	"github.com/AndreyAkinshin/testbridge/internal/session"
	"github.com/AndreyAkinshin/testbridge/internal/testenv"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

// workspaceOptions tweaks the generated workspace.
type workspaceOptions struct {
	scriptsDir string // defaults to the fixture scripts
	overlap    string
}

// newWorkspace writes a .testbridge/config.yaml pointing at the Django fixture.
func newWorkspace(t *testing.T, opts workspaceOptions) string {
	t.Helper()
	django := filepath.Join(fixturesDir(), "django")
	if opts.scriptsDir == "" {
		opts.scriptsDir = filepath.Join(django, "scripts")
	}
	dir := t.TempDir()
	cfg := "interpreter: /bin/sh\n" +
		"root_dir: " + filepath.Join(django, "project") + "\n" +
		"settings_module: mysite.settings\n" +
		"scripts_dir: " + opts.scriptsDir + "\n" +
		"accepted_exit_codes: [0, 1]\n" +
		"run:\n  cancel_grace: 200ms\n"
	if opts.overlap != "" {
		cfg += "  overlap: " + opts.overlap + "\n"
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, project.ConfigDirName), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.ConfigDirName, project.ConfigFileName), []byte(cfg), 0644))
	return dir
}

// scriptsWith returns a scripts directory holding the fixture discovery
// script and the given runner script.
func scriptsWith(t *testing.T, runner string) string {
	t.Helper()
	dir := t.TempDir()
	discovery, err := os.ReadFile(filepath.Join(fixturesDir(), "django", "scripts", testenv.DiscoveryScript))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, testenv.DiscoveryScript), discovery, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, testenv.RunnerScript), []byte(runner), 0644))
	return dir
}

type harness struct {
	proj     *project.Project
	ctl      *controller.Controller
	sessions *session.Factory
	metrics  *metrics.Collector
}

func newHarness(t *testing.T, workspace string) *harness {
	t.Helper()
	proj, err := project.LoadProjectFrom(workspace, config.Overrides{})
	require.NoError(t, err)
	env, err := testenv.Resolve(proj.Config, proj.Root)
	require.NoError(t, err)

	h := &harness{proj: proj, sessions: &session.Factory{}, metrics: metrics.New()}
	h.ctl = controller.New(env, testtree.NewRegistry(), h.sessions, controller.Options{
		Replace: proj.Config.ReplaceOnDiscovery(),
		Overlap: proj.Config.Run.Overlap,
		Logger:  zerolog.Nop(),
		Metrics: h.metrics,
	})
	return h
}

func (h *harness) discover(t *testing.T) {
	t.Helper()
	res, err := h.ctl.Discover(context.Background())
	require.NoError(t, err)
	require.False(t, res.Cancelled)
}

func (h *harness) node(t *testing.T, id string) *testtree.Node {
	t.Helper()
	n, ok := h.ctl.Registry().Find(id)
	require.True(t, ok, "node %s not found", id)
	return n
}
