package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/testenv"
)

func (a *app) configCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, environment variables and flags
have been applied. With --check the interpreter, project directory and companion
scripts are resolved as well, without launching anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(proj.Config)
			if err != nil {
				return errors.Wrap(err, "cannot encode configuration")
			}
			a.out.Println("# %s", proj.ConfigPath())
			a.out.Print("%s", data)

			if !check {
				return nil
			}
			env, err := testenv.Resolve(proj.Config, proj.Root)
			if err != nil {
				return err
			}
			a.out.Section("Environment")
			a.out.SummaryItem("Interpreter", env.Interpreter)
			a.out.SummaryItem("Project", env.ProjectDir)
			a.out.SummaryItem("Scripts", env.ScriptsDir)
			a.out.SummaryItem("Settings", env.SettingsVariable+"="+env.SettingsModule)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Also resolve the environment")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of testbridge",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.out.Println("testbridge %s", Version)
		},
	}
}
