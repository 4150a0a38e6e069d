package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBridgeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BridgeError
		expected string
	}{
		{
			name:     "message only",
			err:      &BridgeError{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with cause",
			err:      &BridgeError{Message: "discovery failed", Cause: errors.New("bad json")},
			expected: "discovery failed: bad json",
		},
		{
			name:     "with stderr",
			err:      &BridgeError{Message: "process exited with code 2", Stderr: "Traceback"},
			expected: "process exited with code 2: Traceback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBridgeError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &BridgeError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &BridgeError{Message: "no cause"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestBridgeError_CLIExitCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected int
	}{
		{"runtime", KindRuntime, ExitRuntimeError},
		{"config", KindConfig, ExitConfigError},
		{"validation", KindValidation, ExitConfigError},
		{"not found", KindNotFound, ExitRuntimeError},
		{"environment", KindEnvironment, ExitEnvironmentError},
		{"discovery", KindDiscovery, ExitDiscoveryError},
		{"process", KindProcess, ExitProcessError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &BridgeError{Kind: tt.kind}
			if got := err.CLIExitCode(); got != tt.expected {
				t.Errorf("CLIExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf("error %d: %s", 42, "details")

	if err.Kind != KindRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRuntime)
	}
	if err.Message != "error 42: details" {
		t.Errorf("Message = %q, want %q", err.Message, "error 42: details")
	}
}

func TestConfigf(t *testing.T) {
	err := Configf("field %q: %s", "root_dir", "is required")

	if err.Kind != KindConfig {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConfig)
	}
	expected := `field "root_dir": is required`
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
}

func TestEnvironmentf(t *testing.T) {
	err := Environmentf("interpreter %q not found", "python3")

	if err.Kind != KindEnvironment {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEnvironment)
	}
	if err.CLIExitCode() != ExitEnvironmentError {
		t.Errorf("CLIExitCode() = %d, want %d", err.CLIExitCode(), ExitEnvironmentError)
	}
}

func TestDiscovery(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Discovery("cannot decode discovery payload", cause)

	if err.Kind != KindDiscovery {
		t.Errorf("Kind = %v, want %v", err.Kind, KindDiscovery)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestProcess(t *testing.T) {
	err := Process(ReasonUndecodable, "can not decode output from the process")

	if !IsReason(err, ReasonUndecodable) {
		t.Error("IsReason(ReasonUndecodable) = false, want true")
	}
	if IsReason(err, ReasonUnexpectedExit) {
		t.Error("IsReason(ReasonUnexpectedExit) = true, want false")
	}
	if !IsKind(err, KindProcess) {
		t.Error("IsKind(KindProcess) = false, want true")
	}
}

func TestIsKind_Wrapped(t *testing.T) {
	inner := Environment("no interpreter")
	wrapped := fmt.Errorf("initialize: %w", inner)

	if !IsKind(wrapped, KindEnvironment) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
	if IsKind(errors.New("plain"), KindEnvironment) {
		t.Error("IsKind on a plain error should be false")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("original error")
	err := Wrap(cause, "wrapped message")

	if err.Kind != KindRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRuntime)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return original cause")
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("test", "app.tests.TestX.test_y")

	expected := "test not found: app.tests.TestX.test_y"
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitSuccess},
		{"runtime", New("runtime"), ExitRuntimeError},
		{"config", Config("config"), ExitConfigError},
		{"validation", &BridgeError{Kind: KindValidation}, ExitConfigError},
		{"process", Process(ReasonSpawn, "spawn"), ExitProcessError},
		{"wrapped discovery", fmt.Errorf("x: %w", Discoveryf("bad")), ExitDiscoveryError},
		{"generic error", errors.New("generic"), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestErrorKindConstants(t *testing.T) {
	kinds := []ErrorKind{KindRuntime, KindConfig, KindNotFound, KindValidation, KindEnvironment, KindDiscovery, KindProcess}
	seen := make(map[string]bool)

	for _, k := range kinds {
		if seen[k.String()] {
			t.Errorf("Duplicate ErrorKind name: %v", k)
		}
		seen[k.String()] = true
	}
}
