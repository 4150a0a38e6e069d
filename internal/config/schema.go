// Package config provides loading and validation for .testbridge/config.yaml.
package config

// Config represents the complete .testbridge/config.yaml configuration.
type Config struct {
	Schema            string            `yaml:"$schema,omitempty" json:"$schema,omitempty"`
	Interpreter       string            `yaml:"interpreter,omitempty" json:"interpreter,omitempty"`
	RootDir           string            `yaml:"root_dir" json:"root_dir"`
	SettingsModule    string            `yaml:"settings_module" json:"settings_module"`
	SettingsVariable  string            `yaml:"settings_variable,omitempty" json:"settings_variable,omitempty"`
	ScriptsDir        string            `yaml:"scripts_dir,omitempty" json:"scripts_dir,omitempty"`
	OutputEncoding    string            `yaml:"output_encoding,omitempty" json:"output_encoding,omitempty"`
	AcceptedExitCodes []int             `yaml:"accepted_exit_codes,omitempty" json:"accepted_exit_codes,omitempty"`
	Env               map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Run               *RunConfig        `yaml:"run,omitempty" json:"run,omitempty"`
	Debug             *DebugConfig      `yaml:"debug,omitempty" json:"debug,omitempty"`
	Discovery         *DiscoveryConfig  `yaml:"discovery,omitempty" json:"discovery,omitempty"`
}

// RunConfig configures test runs.
type RunConfig struct {
	// Overlap decides what happens when a run is requested while another is active:
	// "reject", "queue" or "allow".
	Overlap     string `yaml:"overlap,omitempty" json:"overlap,omitempty"`
	CancelGrace string `yaml:"cancel_grace,omitempty" json:"cancel_grace,omitempty"` // Interrupt-to-kill delay, e.g. "5s"
}

// DebugConfig configures the debug launch path.
type DebugConfig struct {
	Module        string `yaml:"module,omitempty" json:"module,omitempty"`
	Listen        string `yaml:"listen,omitempty" json:"listen,omitempty"`
	WaitForClient *bool  `yaml:"wait_for_client,omitempty" json:"wait_for_client,omitempty"`
}

// DiscoveryConfig configures test discovery.
type DiscoveryConfig struct {
	Replace *bool `yaml:"replace,omitempty" json:"replace,omitempty"` // Drop existing roots before building (default: true)
}

// Overlap policies for RunConfig.Overlap.
const (
	OverlapReject = "reject"
	OverlapQueue  = "queue"
	OverlapAllow  = "allow"
)
