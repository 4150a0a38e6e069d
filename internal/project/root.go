// Package project locates and loads a testbridge workspace.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigDirName is the name of the testbridge configuration directory.
const ConfigDirName = ".testbridge"

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.yaml"

// ErrNoProjectRoot is returned when .testbridge/config.yaml is not found.
var ErrNoProjectRoot = errors.New(".testbridge/config.yaml not found: not a testbridge workspace (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds .testbridge/config.yaml.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds .testbridge/config.yaml.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}
