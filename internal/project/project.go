package project

import (
	"fmt"
	"path/filepath"

	"github.com/AndreyAkinshin/testbridge/internal/config"
)

// Project represents a loaded testbridge workspace.
type Project struct {
	Root     string
	Config   *config.Config
	Warnings []string
}

// LoadProject finds and loads a workspace from the current directory.
func LoadProject(overrides config.Overrides) (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root, overrides)
}

// LoadProjectFrom loads a workspace from a specified root directory.
func LoadProjectFrom(root string, overrides config.Overrides) (*Project, error) {
	configPath := filepath.Join(root, ConfigDirName, ConfigFileName)

	cfg, warnings, err := config.LoadAndValidate(configPath, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Project{
		Root:     root,
		Config:   cfg,
		Warnings: warnings,
	}, nil
}

// ConfigPath returns the full path to the workspace configuration file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigDirName, ConfigFileName)
}

// Resolve returns path made absolute against the workspace root.
func (p *Project) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.Root, path)
}
