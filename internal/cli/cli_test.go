//go:build !windows

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/output"
	"github.com/AndreyAkinshin/testbridge/internal/project"
)

// fixtureDir returns test/fixtures/django, whose companion scripts are
// shell scripts run through /bin/sh.
func fixtureDir(t *testing.T) string {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "test", "fixtures", "django")
}

// workspace creates a workspace whose config points at the fixture project.
func workspace(t *testing.T, extra string) string {
	t.Helper()
	fixture := fixtureDir(t)
	dir := t.TempDir()
	cfg := "interpreter: /bin/sh\n" +
		"root_dir: " + filepath.Join(fixture, "project") + "\n" +
		"settings_module: mysite.settings\n" +
		"scripts_dir: " + filepath.Join(fixture, "scripts") + "\n" +
		"accepted_exit_codes: [0, 1]\n" + extra
	require.NoError(t, os.MkdirAll(filepath.Join(dir, project.ConfigDirName), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.ConfigDirName, project.ConfigFileName), []byte(cfg), 0644))
	return dir
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, output.NewWithWriters(&stdout, &stderr, false))
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "version")
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "testbridge "+Version+"\n", res.stdout)
}

func TestUnknownFlag(t *testing.T) {
	res := runCLI(t, "run", "--bogus")
	assert.Equal(t, errors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "testbridge: invalid arguments")
}

func TestMissingWorkspace(t *testing.T) {
	res := runCLI(t, "--workspace", t.TempDir(), "discover")
	assert.Equal(t, errors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "cannot load workspace")
}

func TestMissingScripts(t *testing.T) {
	dir := t.TempDir()
	cfg := "interpreter: /bin/sh\nroot_dir: .\nsettings_module: mysite.settings\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, project.ConfigDirName), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.ConfigDirName, project.ConfigFileName), []byte(cfg), 0644))

	res := runCLI(t, "--workspace", dir, "discover")
	assert.Equal(t, errors.ExitEnvironmentError, res.code)
	assert.Contains(t, res.stderr, "companion script")
}

func TestDiscoverCommand(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "discover")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Discovered 4 tests (7 nodes)")
}

func TestTreeCommand(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "tree", "--ids")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "QuestionTests [polls.tests.QuestionTests]")
	assert.Contains(t, res.stdout, "test_recent [polls.tests.QuestionTests.test_recent] (polls/tests.py:5)")
	assert.Contains(t, res.stdout, "test_index [polls.tests.test_index] (polls/tests.py:15)")
	assert.Less(t, strings.Index(res.stdout, "test_recent"), strings.Index(res.stdout, "test_skip_old"))
}

func TestRunCommand_All(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "run")
	assert.Equal(t, errors.ExitRuntimeError, res.code)

	assert.Contains(t, res.stdout, "PASSED  polls.tests.QuestionTests.test_recent")
	assert.Contains(t, res.stdout, "FAILED  polls.tests.QuestionTests.test_fail_future")
	assert.Contains(t, res.stdout, "SKIPPED polls.tests.QuestionTests.test_skip_old")
	assert.Contains(t, res.stdout, "AssertionError: False is not true")
	assert.Contains(t, res.stdout, "1 of 4 tests failed")
}

func TestRunCommand_Selection(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "run",
		"polls.tests.QuestionTests.test_recent", "polls.tests.test_index")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "All 2 tests passed")
	assert.NotContains(t, res.stdout, "test_fail_future")
}

func TestRunCommand_Exclude(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "run", "polls.tests.QuestionTests",
		"--exclude", "polls.tests.QuestionTests.test_fail_future")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No failures: 1 passed, 1 skipped")
}

func TestRunCommand_Quiet(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "-q", "run", "polls.tests.test_index")
	require.Equal(t, 0, res.code, res.stderr)
	assert.NotContains(t, res.stdout, "PASSED")
	assert.Contains(t, res.stdout, "All 1 tests passed")
}

func TestRunCommand_UnknownID(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "run", "polls.tests.nope")
	assert.Equal(t, errors.ExitRuntimeError, res.code)
	assert.Contains(t, res.stderr, "test not found: polls.tests.nope")
}

func TestRunCommand_WrongSettings(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, ""), "--settings", "other.settings", "run")
	assert.Equal(t, errors.ExitProcessError, res.code)
	assert.Contains(t, res.stderr, "DJANGO_SETTINGS_MODULE is not set")
}

func TestRunCommand_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testbridge.prom")
	res := runCLI(t, "--workspace", workspace(t, ""), "--metrics-file", path, "run", "polls.tests.test_index")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `testbridge_runs_total{mode="run",result="ok"} 1`)
	assert.Contains(t, string(data), `testbridge_tests_total{status="passed"} 1`)
	assert.Contains(t, string(data), "testbridge_discovered_leaves 4")
}

func TestConfigCommand(t *testing.T) {
	ws := workspace(t, "run:\n  overlap: queue\n")
	res := runCLI(t, "--workspace", ws, "config", "--check")
	require.Equal(t, 0, res.code, res.stderr)

	assert.Contains(t, res.stdout, "settings_module: mysite.settings")
	assert.Contains(t, res.stdout, "overlap: queue")
	assert.Contains(t, res.stdout, "settings_variable: DJANGO_SETTINGS_MODULE")
	assert.Contains(t, res.stdout, "Interpreter: /bin/sh")
}

func TestConfigCommand_UnknownKeyWarns(t *testing.T) {
	res := runCLI(t, "--workspace", workspace(t, "colour: blue\n"), "config")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "colour")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site", "mysite"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "manage.py"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "mysite", "settings.py"), nil, 0644))

	res := runCLI(t, "--workspace", dir, "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Initialized testbridge workspace")

	data, err := os.ReadFile(filepath.Join(dir, project.ConfigDirName, project.ConfigFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "root_dir: site")
	assert.Contains(t, string(data), "settings_module: mysite.settings")
	assert.DirExists(t, filepath.Join(dir, ".testbridge", "scripts"))

	res = runCLI(t, "--workspace", dir, "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "nothing to do")
}

func TestInitCommand_NoSettings(t *testing.T) {
	res := runCLI(t, "--workspace", t.TempDir(), "init")
	assert.Equal(t, errors.ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "--settings")
}
