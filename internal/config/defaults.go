package config

// Default configuration values.
const (
	DefaultSettingsVariable = "DJANGO_SETTINGS_MODULE"
	DefaultScriptsDir       = ".testbridge/scripts"
	DefaultOutputEncoding   = "utf-8"
	DefaultOverlap          = OverlapReject
	DefaultCancelGrace      = "5s"
	DefaultDebugModule      = "debugpy"
	DefaultDebugListen      = "127.0.0.1:5678"
)

// DefaultAcceptedExitCodes is used when accepted_exit_codes is not set.
var DefaultAcceptedExitCodes = []int{0}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.SettingsVariable == "" {
		cfg.SettingsVariable = DefaultSettingsVariable
	}
	if cfg.ScriptsDir == "" {
		cfg.ScriptsDir = DefaultScriptsDir
	}
	if cfg.OutputEncoding == "" {
		cfg.OutputEncoding = DefaultOutputEncoding
	}
	if len(cfg.AcceptedExitCodes) == 0 {
		cfg.AcceptedExitCodes = append([]int(nil), DefaultAcceptedExitCodes...)
	}
	applyRunDefaults(cfg)
	applyDebugDefaults(cfg)
	applyDiscoveryDefaults(cfg)
}

func applyRunDefaults(cfg *Config) {
	if cfg.Run == nil {
		cfg.Run = &RunConfig{}
	}
	if cfg.Run.Overlap == "" {
		cfg.Run.Overlap = DefaultOverlap
	}
	if cfg.Run.CancelGrace == "" {
		cfg.Run.CancelGrace = DefaultCancelGrace
	}
}

func applyDebugDefaults(cfg *Config) {
	if cfg.Debug == nil {
		cfg.Debug = &DebugConfig{}
	}
	if cfg.Debug.Module == "" {
		cfg.Debug.Module = DefaultDebugModule
	}
	if cfg.Debug.Listen == "" {
		cfg.Debug.Listen = DefaultDebugListen
	}
	if cfg.Debug.WaitForClient == nil {
		wait := true
		cfg.Debug.WaitForClient = &wait
	}
}

func applyDiscoveryDefaults(cfg *Config) {
	if cfg.Discovery == nil {
		cfg.Discovery = &DiscoveryConfig{}
	}
	if cfg.Discovery.Replace == nil {
		replace := true
		cfg.Discovery.Replace = &replace
	}
}
