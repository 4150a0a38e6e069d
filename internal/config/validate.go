package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration (with defaults applied) for errors the
// schema cannot express and returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if strings.TrimSpace(cfg.RootDir) == "" {
		return nil, &ValidationError{Field: "root_dir", Message: "is required"}
	}
	if strings.TrimSpace(cfg.SettingsModule) == "" {
		return nil, &ValidationError{Field: "settings_module", Message: "is required"}
	}

	if _, err := htmlindex.Get(cfg.OutputEncoding); err != nil {
		return nil, &ValidationError{
			Field:   "output_encoding",
			Message: fmt.Sprintf("unknown encoding %q", cfg.OutputEncoding),
		}
	}

	if err := validateEnv(cfg.Env); err != nil {
		return nil, err
	}

	if err := validateRun(cfg.Run); err != nil {
		return nil, err
	}

	if err := validateDebug(cfg.Debug); err != nil {
		return nil, err
	}

	if _, ok := cfg.Env[cfg.SettingsVariable]; ok {
		warnings = append(warnings, fmt.Sprintf("env.%s is overridden by settings_module", cfg.SettingsVariable))
	}

	return warnings, nil
}

func validateEnv(env map[string]string) error {
	for key := range env {
		if key == "" || strings.ContainsAny(key, "= \t") {
			return &ValidationError{
				Field:   fmt.Sprintf("env.%s", key),
				Message: "environment variable names must be non-empty and contain no '=' or whitespace",
			}
		}
	}
	return nil
}

func validateRun(run *RunConfig) error {
	if run == nil {
		return nil
	}
	switch run.Overlap {
	case OverlapReject, OverlapQueue, OverlapAllow:
	default:
		return &ValidationError{
			Field:   "run.overlap",
			Message: `must be "reject", "queue" or "allow"`,
		}
	}
	d, err := time.ParseDuration(run.CancelGrace)
	if err != nil || d <= 0 {
		return &ValidationError{
			Field:   "run.cancel_grace",
			Message: fmt.Sprintf("must be a positive duration, got %q", run.CancelGrace),
		}
	}
	return nil
}

func validateDebug(debug *DebugConfig) error {
	if debug == nil {
		return nil
	}
	if _, _, err := net.SplitHostPort(debug.Listen); err != nil {
		return &ValidationError{
			Field:   "debug.listen",
			Message: fmt.Sprintf("must be host:port, got %q", debug.Listen),
		}
	}
	return nil
}
