package cli

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/testbridge/internal/config"
	"github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/project"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .testbridge/config.yaml in the current directory",
		Long: `Create .testbridge/config.yaml and the scripts directory in the current
directory. The Django project directory and settings module are detected from
manage.py and settings.py unless --root-dir and --settings are given.

The command is idempotent: existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.flags.Workspace
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return errors.Wrap(err, "cannot determine current directory")
				}
				dir = cwd
			}
			return a.initWorkspace(dir)
		},
	}
}

func (a *app) initWorkspace(dir string) error {
	configDir := filepath.Join(dir, project.ConfigDirName)
	configPath := filepath.Join(configDir, project.ConfigFileName)
	scriptsDir := filepath.Join(dir, filepath.FromSlash(config.DefaultScriptsDir))

	var created []string

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &config.Config{
			Interpreter:    a.flags.Interpreter,
			RootDir:        a.flags.RootDir,
			SettingsModule: a.flags.SettingsModule,
		}
		if cfg.RootDir == "" {
			cfg.RootDir = detectRootDir(dir)
		}
		if cfg.SettingsModule == "" {
			cfg.SettingsModule = detectSettingsModule(filepath.Join(dir, cfg.RootDir))
		}
		if cfg.SettingsModule == "" {
			return errors.Config("cannot detect the Django settings module; pass --settings")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "cannot encode configuration")
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return errors.Wrap(err, "cannot create "+project.ConfigDirName)
		}
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return errors.Wrap(err, "cannot write configuration")
		}
		created = append(created, filepath.ToSlash(filepath.Join(project.ConfigDirName, project.ConfigFileName)))
	}

	if _, err := os.Stat(scriptsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(scriptsDir, 0755); err != nil {
			a.out.WarningSimple("could not create scripts directory: %v", err)
		} else {
			created = append(created, config.DefaultScriptsDir+"/")
		}
	}

	if len(created) == 0 {
		a.out.Info("Workspace already initialized (nothing to do)")
		return nil
	}
	a.out.Success("Initialized testbridge workspace")
	a.out.Println("Created:")
	a.out.List(created)
	a.out.Hint("Copy discovery.py and runner.py into %s, then run 'testbridge tree'.", config.DefaultScriptsDir)
	return nil
}

// detectRootDir returns the directory holding manage.py: the workspace
// itself or one of its direct subdirectories. It falls back to ".".
func detectRootDir(dir string) string {
	if fileExists(filepath.Join(dir, "manage.py")) {
		return "."
	}
	for _, sub := range subdirs(dir) {
		if fileExists(filepath.Join(dir, sub, "manage.py")) {
			return sub
		}
	}
	return "."
}

// detectSettingsModule looks for <pkg>/settings.py or <pkg>/settings/__init__.py
// directly below projectDir.
func detectSettingsModule(projectDir string) string {
	for _, sub := range subdirs(projectDir) {
		if fileExists(filepath.Join(projectDir, sub, "settings.py")) ||
			fileExists(filepath.Join(projectDir, sub, "settings", "__init__.py")) {
			return sub + ".settings"
		}
	}
	return ""
}

// subdirs returns the sorted names of the visible subdirectories of dir.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
