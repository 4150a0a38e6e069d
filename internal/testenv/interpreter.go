package testenv

import (
	"os"
	"os/exec"
	"path/filepath"

	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
)

// virtualenvMarkers are interpreter locations checked relative to the
// project directory and the workspace root. First match wins.
var virtualenvMarkers = []string{
	filepath.Join(".venv", "bin", "python"),
	filepath.Join("venv", "bin", "python"),
	filepath.Join(".venv", "Scripts", "python.exe"),
	filepath.Join("venv", "Scripts", "python.exe"),
}

// pathCandidates are looked up on PATH when nothing else matched.
var pathCandidates = []string{"python3", "python"}

type probe struct {
	getenv   func(string) string
	exists   func(string) bool
	lookPath func(string) (string, error)
}

func systemProbe() probe {
	return probe{
		getenv: os.Getenv,
		exists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && !info.IsDir()
		},
		lookPath: exec.LookPath,
	}
}

// findInterpreter picks the interpreter in order: explicit setting, active
// virtualenv, virtualenv directories under dirs, then PATH.
func findInterpreter(configured string, dirs []string, p probe) (string, error) {
	if configured != "" {
		if filepath.IsAbs(configured) {
			if !p.exists(configured) {
				return "", bridgeerrors.Environmentf("interpreter %s does not exist", configured)
			}
			return configured, nil
		}
		path, err := p.lookPath(configured)
		if err != nil {
			return "", bridgeerrors.Environmentf("interpreter %q not found on PATH", configured)
		}
		return path, nil
	}

	if venv := p.getenv("VIRTUAL_ENV"); venv != "" {
		for _, rel := range []string{filepath.Join("bin", "python"), filepath.Join("Scripts", "python.exe")} {
			if candidate := filepath.Join(venv, rel); p.exists(candidate) {
				return candidate, nil
			}
		}
	}

	for _, dir := range dirs {
		for _, marker := range virtualenvMarkers {
			if candidate := filepath.Join(dir, marker); p.exists(candidate) {
				return candidate, nil
			}
		}
	}

	for _, name := range pathCandidates {
		if path, err := p.lookPath(name); err == nil {
			return path, nil
		}
	}

	return "", bridgeerrors.Environment("cannot find a valid Python interpreter; set interpreter in .testbridge/config.yaml")
}
