// Package testbridge provides public constants for external tools integrating
// with the testbridge CLI.
package testbridge

// Exit codes returned by the testbridge CLI.
const (
	// ExitSuccess indicates the command completed successfully and no test failed.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure or at least one failed or errored test.
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config, validation failure, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (no interpreter, missing runner scripts, etc.).
	ExitEnvError = 3

	// ExitDiscoveryError indicates the discovery payload was rejected.
	ExitDiscoveryError = 4

	// ExitProcessError indicates the runner subprocess failed or produced unusable output.
	ExitProcessError = 5
)
