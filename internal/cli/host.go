package cli

import (
	"github.com/rs/zerolog"

	"github.com/AndreyAkinshin/testbridge/internal/controller"
	"github.com/AndreyAkinshin/testbridge/internal/project"
	"github.com/AndreyAkinshin/testbridge/internal/session"
	"github.com/AndreyAkinshin/testbridge/internal/testenv"
	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// host is the terminal stand-in for an editor's test explorer: a registry,
// a session factory that streams results to the terminal, and the controller
// driving both.
type host struct {
	project  *project.Project
	ctl      *controller.Controller
	sessions *session.Factory
	log      zerolog.Logger
}

func (a *app) newHost() (*host, error) {
	log, err := a.logger()
	if err != nil {
		return nil, err
	}
	proj, err := a.loadProject()
	if err != nil {
		return nil, err
	}
	env, err := testenv.Resolve(proj.Config, proj.Root)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("interpreter", env.Interpreter).
		Str("project_dir", env.ProjectDir).
		Str("settings", env.SettingsModule).
		Msg("environment resolved")

	sessions := &session.Factory{
		OnResult: func(r session.Result) {
			a.out.TestResult(r.Status.String(), r.Node.ID(), r.Duration)
		},
	}
	ctl := controller.New(env, testtree.NewRegistry(), sessions, controller.Options{
		Replace: proj.Config.ReplaceOnDiscovery(),
		Overlap: proj.Config.Run.Overlap,
		Logger:  log,
		Metrics: a.metrics,
	})
	return &host{project: proj, ctl: ctl, sessions: sessions, log: log}, nil
}
