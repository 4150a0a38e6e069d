// Package errors provides structured error types and exit codes for testbridge.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error or failing tests
	ExitConfigError      = 2 // Configuration error (invalid config, etc.)
	ExitEnvironmentError = 3 // Environment error (no interpreter, missing scripts, etc.)
	ExitDiscoveryError   = 4 // Discovery payload could not be turned into a tree
	ExitProcessError     = 5 // Subprocess failed or produced unusable output
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindDiscovery
	KindProcess
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	case KindDiscovery:
		return "discovery"
	case KindProcess:
		return "process"
	default:
		return "runtime"
	}
}

// ProcessReason classifies process errors.
type ProcessReason int

const (
	ReasonNone ProcessReason = iota
	// ReasonSpawn means the process could not be started.
	ReasonSpawn
	// ReasonUnexpectedExit means the process exited with a code outside the accepted set.
	ReasonUnexpectedExit
	// ReasonUndecodable means bytes were received but decoded to nothing.
	ReasonUndecodable
	// ReasonMalformedOutput means decoded output does not match the expected payload.
	ReasonMalformedOutput
)

func (r ProcessReason) String() string {
	switch r {
	case ReasonSpawn:
		return "spawn"
	case ReasonUnexpectedExit:
		return "unexpected-exit"
	case ReasonUndecodable:
		return "undecodable-output"
	case ReasonMalformedOutput:
		return "malformed-output"
	default:
		return "none"
	}
}

// BridgeError is the base error type for testbridge.
type BridgeError struct {
	Kind     ErrorKind
	Reason   ProcessReason // Set for KindProcess
	Message  string
	Stderr   string // Captured standard error, if any
	ExitCode int    // Process exit code for ReasonUnexpectedExit
	Cause    error  // Underlying error
}

func (e *BridgeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return msg
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// CLIExitCode returns the appropriate CLI exit code for this error.
func (e *BridgeError) CLIExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	case KindDiscovery:
		return ExitDiscoveryError
	case KindProcess:
		return ExitProcessError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *BridgeError {
	return &BridgeError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *BridgeError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *BridgeError {
	return &BridgeError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *BridgeError {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *BridgeError {
	return &BridgeError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *BridgeError {
	return Environment(fmt.Sprintf(format, args...))
}

// Discovery creates a new discovery error.
func Discovery(message string, cause error) *BridgeError {
	return &BridgeError{
		Kind:    KindDiscovery,
		Message: message,
		Cause:   cause,
	}
}

// Discoveryf creates a new discovery error with formatting and no cause.
func Discoveryf(format string, args ...interface{}) *BridgeError {
	return Discovery(fmt.Sprintf(format, args...), nil)
}

// Process creates a new process error with the given reason.
func Process(reason ProcessReason, message string) *BridgeError {
	return &BridgeError{
		Kind:    KindProcess,
		Reason:  reason,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *BridgeError {
	return &BridgeError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *BridgeError {
	return &BridgeError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether err is a BridgeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Kind == kind
}

// IsReason reports whether err is a process error with the given reason.
func IsReason(err error, reason ProcessReason) bool {
	var be *BridgeError
	return errors.As(err, &be) && be.Kind == KindProcess && be.Reason == reason
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var be *BridgeError
	if errors.As(err, &be) {
		return be.CLIExitCode()
	}
	return ExitRuntimeError
}
