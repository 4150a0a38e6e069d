// Package cli provides the testbridge command-line host.
package cli

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/testbridge/internal/config"
	"github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/logging"
	"github.com/AndreyAkinshin/testbridge/internal/metrics"
	"github.com/AndreyAkinshin/testbridge/internal/output"
	"github.com/AndreyAkinshin/testbridge/internal/project"
)

// Version is set at build time.
var Version = "dev"

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	Workspace      string
	Interpreter    string
	RootDir        string
	SettingsModule string
	Quiet          bool
	NoColor        bool
	LogLevel       string
	LogFormat      string
	MetricsFile    string
}

// app is the state of one CLI invocation.
type app struct {
	out      *output.Writer
	flags    globalFlags
	metrics  *metrics.Collector
	exitCode int
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, output.New())
}

func execute(ctx context.Context, args []string, out *output.Writer) int {
	a := &app{out: out, metrics: metrics.New()}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out.Out())
	cmd.SetErr(out.Err())

	err := cmd.ExecuteContext(ctx)
	if a.flags.MetricsFile != "" {
		if werr := a.metrics.WriteTextfile(a.flags.MetricsFile); werr != nil {
			out.WarningSimple("could not write metrics: %v", werr)
		}
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testbridge",
		Short: "Discover and run Django tests from the command line",
		Long: `testbridge discovers the tests of a Django project through a companion
discovery script, shows them as a tree and runs any selection of them through a
companion runner script, reporting one result per test.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out.SetQuiet(a.flags.Quiet)
			if a.flags.NoColor {
				a.out.SetColor(false)
			}
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &errors.BridgeError{Kind: errors.KindConfig, Message: "invalid arguments", Cause: err}
	})

	f := cmd.PersistentFlags()
	f.StringVarP(&a.flags.Workspace, "workspace", "w", "", "Workspace root (default: nearest directory with .testbridge/config.yaml)")
	f.StringVar(&a.flags.Interpreter, "interpreter", "", "Python interpreter to use")
	f.StringVar(&a.flags.RootDir, "root-dir", "", "Django project directory, relative to the workspace")
	f.StringVar(&a.flags.SettingsModule, "settings", "", "Django settings module")
	f.BoolVarP(&a.flags.Quiet, "quiet", "q", false, "Only print errors and the final summary")
	f.BoolVar(&a.flags.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides "+logging.EnvLevel)
	f.StringVar(&a.flags.LogFormat, "log-format", logging.FormatConsole, "Log format (console, json)")
	f.StringVar(&a.flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	cmd.AddCommand(
		a.discoverCmd(),
		a.treeCmd(),
		a.runCmd(),
		a.initCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return cmd
}

// overrides returns the configuration overrides given on the command line.
func (a *app) overrides() config.Overrides {
	return config.Overrides{
		Interpreter:    a.flags.Interpreter,
		RootDir:        a.flags.RootDir,
		SettingsModule: a.flags.SettingsModule,
	}
}

// logger builds the diagnostic logger. Logs go to stderr so they never mix
// with the tree or the result table.
func (a *app) logger() (zerolog.Logger, error) {
	level := a.flags.LogLevel
	if level == "" {
		level = os.Getenv(logging.EnvLevel)
	}
	log, err := logging.New(a.out.Err(), logging.Options{
		Level:   level,
		Format:  a.flags.LogFormat,
		NoColor: !a.out.Color(),
	})
	if err != nil {
		return log, errors.Config(err.Error())
	}
	return log, nil
}

// loadProject loads the workspace named by --workspace, or the nearest one.
func (a *app) loadProject() (*project.Project, error) {
	var (
		proj *project.Project
		err  error
	)
	if a.flags.Workspace != "" {
		proj, err = project.LoadProjectFrom(a.flags.Workspace, a.overrides())
	} else {
		proj, err = project.LoadProject(a.overrides())
	}
	if err != nil {
		var be *errors.BridgeError
		if stderrors.As(err, &be) {
			return nil, err
		}
		return nil, &errors.BridgeError{Kind: errors.KindConfig, Message: "cannot load workspace", Cause: err}
	}
	for _, w := range proj.Warnings {
		a.out.WarningSimple("%s", w)
	}
	return proj, nil
}
