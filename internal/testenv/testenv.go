// Package testenv resolves the interpreter, project directory and settings
// that parameterize every discovery and run subprocess.
package testenv

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AndreyAkinshin/testbridge/internal/config"
	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/process"
)

// Companion script names expected in the scripts directory.
const (
	DiscoveryScript = "discovery.py"
	RunnerScript    = "runner.py"
)

// Debug configures the debugger launch path.
type Debug struct {
	Module        string
	Listen        string
	WaitForClient bool
}

// Environment is resolved once per session and passed unchanged to every
// subprocess invocation.
type Environment struct {
	Interpreter       string
	ProjectDir        string
	SettingsModule    string
	SettingsVariable  string
	ScriptsDir        string
	ExtraEnv          map[string]string
	Encoding          string
	AcceptedExitCodes []int
	CancelGrace       time.Duration
	Debug             Debug
}

// Invocation is a fully specified subprocess launch.
type Invocation struct {
	Name    string
	Args    []string
	Options process.Options
}

// Resolve builds an Environment from a validated configuration. Relative
// paths are resolved against workspaceRoot.
func Resolve(cfg *config.Config, workspaceRoot string) (*Environment, error) {
	return resolve(cfg, workspaceRoot, systemProbe())
}

func resolve(cfg *config.Config, workspaceRoot string, probe probe) (*Environment, error) {
	if strings.TrimSpace(cfg.RootDir) == "" {
		return nil, bridgeerrors.Environment("please set root_dir in .testbridge/config.yaml")
	}
	if strings.TrimSpace(cfg.SettingsModule) == "" {
		return nil, bridgeerrors.Environment("please set settings_module in .testbridge/config.yaml")
	}

	projectDir := absJoin(workspaceRoot, cfg.RootDir)
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return nil, bridgeerrors.Environmentf("project directory %s does not exist", projectDir)
	}

	scriptsDir := absJoin(workspaceRoot, cfg.ScriptsDir)
	for _, script := range []string{DiscoveryScript, RunnerScript} {
		path := filepath.Join(scriptsDir, script)
		if _, err := os.Stat(path); err != nil {
			return nil, bridgeerrors.Environmentf("companion script %s not found", path)
		}
	}

	interpreter, err := findInterpreter(cfg.Interpreter, []string{projectDir, workspaceRoot}, probe)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Interpreter:       interpreter,
		ProjectDir:        projectDir,
		SettingsModule:    cfg.SettingsModule,
		SettingsVariable:  cfg.SettingsVariable,
		ScriptsDir:        scriptsDir,
		ExtraEnv:          cfg.Env,
		Encoding:          cfg.OutputEncoding,
		AcceptedExitCodes: cfg.AcceptedExitCodes,
		CancelGrace:       cfg.CancelGrace(),
	}
	if cfg.Debug != nil {
		env.Debug = Debug{
			Module:        cfg.Debug.Module,
			Listen:        cfg.Debug.Listen,
			WaitForClient: cfg.WaitForClient(),
		}
	}
	if env.SettingsVariable == "" {
		env.SettingsVariable = config.DefaultSettingsVariable
	}
	return env, nil
}

// ProcessOptions returns the launch options shared by every invocation.
// The settings variable always wins over env entries of the same name.
func (e *Environment) ProcessOptions() process.Options {
	vars := make(map[string]string, len(e.ExtraEnv)+1)
	for k, v := range e.ExtraEnv {
		vars[k] = v
	}
	vars[e.SettingsVariable] = e.SettingsModule

	return process.Options{
		Dir:               e.ProjectDir,
		Env:               vars,
		AcceptedExitCodes: e.AcceptedExitCodes,
		Encoding:          e.Encoding,
		CancelGrace:       e.CancelGrace,
	}
}

// DiscoveryInvocation returns the discovery launch:
// <interpreter> <scripts>/discovery.py --udiscovery -s <project dir>.
func (e *Environment) DiscoveryInvocation() Invocation {
	return Invocation{
		Name:    e.Interpreter,
		Args:    []string{e.script(DiscoveryScript), "--udiscovery", "-s", e.ProjectDir},
		Options: e.ProcessOptions(),
	}
}

// RunInvocation returns the run launch for the given leaf ids, which are
// passed as a single space-joined argument.
func (e *Environment) RunInvocation(ids []string) Invocation {
	return Invocation{
		Name:    e.Interpreter,
		Args:    e.runnerArgs(ids),
		Options: e.ProcessOptions(),
	}
}

// DebugInvocation wraps the runner in the debug module so a debugger can attach.
func (e *Environment) DebugInvocation(ids []string) Invocation {
	args := []string{"-m", e.Debug.Module, "--listen", e.Debug.Listen}
	if e.Debug.WaitForClient {
		args = append(args, "--wait-for-client")
	}
	return Invocation{
		Name:    e.Interpreter,
		Args:    append(args, e.runnerArgs(ids)...),
		Options: e.ProcessOptions(),
	}
}

func (e *Environment) runnerArgs(ids []string) []string {
	return []string{e.script(RunnerScript), "--tests", strings.Join(ids, " ")}
}

func (e *Environment) script(name string) string {
	return filepath.Join(e.ScriptsDir, name)
}

func absJoin(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
