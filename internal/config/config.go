package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/testbridge/internal/schema"
)

// Environment variables that override file values.
const (
	EnvInterpreter    = "TESTBRIDGE_INTERPRETER"
	EnvRootDir        = "TESTBRIDGE_ROOT_DIR"
	EnvSettingsModule = "TESTBRIDGE_SETTINGS_MODULE"
)

// Overrides holds values that take precedence over the configuration file.
// Empty fields are ignored.
type Overrides struct {
	Interpreter    string
	RootDir        string
	SettingsModule string
}

// Parse decodes YAML configuration data without applying defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses a config.yaml configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadAndValidate reads a config file, applies environment and explicit
// overrides, validates it against the schema, applies defaults and runs the
// semantic checks. Unknown keys are reported as warnings.
func LoadAndValidate(path string, overrides Overrides) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, warnings, err := LoadWithWarnings(data)
	if err != nil {
		return nil, nil, err
	}

	ApplyEnv(cfg, os.LookupEnv)
	cfg.Apply(overrides)

	if err := validateSchema(cfg); err != nil {
		return nil, warnings, err
	}

	applyDefaults(cfg)

	validationWarnings, err := Validate(cfg)
	warnings = append(warnings, validationWarnings...)
	if err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

// ApplyEnv copies TESTBRIDGE_* environment overrides into cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvInterpreter); ok && v != "" {
		cfg.Interpreter = v
	}
	if v, ok := lookup(EnvRootDir); ok && v != "" {
		cfg.RootDir = v
	}
	if v, ok := lookup(EnvSettingsModule); ok && v != "" {
		cfg.SettingsModule = v
	}
}

// Apply copies the non-empty override values into cfg.
func (cfg *Config) Apply(o Overrides) {
	if o.Interpreter != "" {
		cfg.Interpreter = o.Interpreter
	}
	if o.RootDir != "" {
		cfg.RootDir = o.RootDir
	}
	if o.SettingsModule != "" {
		cfg.SettingsModule = o.SettingsModule
	}
}

// WaitForClient reports whether the debug launch blocks until a debugger attaches.
func (cfg *Config) WaitForClient() bool {
	return cfg.Debug == nil || cfg.Debug.WaitForClient == nil || *cfg.Debug.WaitForClient
}

// ReplaceOnDiscovery reports whether discovery drops existing roots first.
func (cfg *Config) ReplaceOnDiscovery() bool {
	return cfg.Discovery == nil || cfg.Discovery.Replace == nil || *cfg.Discovery.Replace
}

// CancelGrace returns the parsed run.cancel_grace value.
func (cfg *Config) CancelGrace() time.Duration {
	if cfg.Run == nil || cfg.Run.CancelGrace == "" {
		d, _ := time.ParseDuration(DefaultCancelGrace)
		return d
	}
	d, err := time.ParseDuration(cfg.Run.CancelGrace)
	if err != nil {
		d, _ = time.ParseDuration(DefaultCancelGrace)
	}
	return d
}

// validateSchema checks the effective configuration against config.schema.json.
func validateSchema(cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config for validation: %w", err)
	}
	return schema.ValidateConfig(data)
}
