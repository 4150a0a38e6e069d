package schema

import (
	"testing"
)

func mustDecode(t *testing.T, data string) any {
	t.Helper()
	v, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestSchemaValidConfig(t *testing.T) {
	tests := map[string]string{
		"minimal": `{"root_dir": "src", "settings_module": "project.settings"}`,
		"full": `{
			"interpreter": "/usr/bin/python3",
			"root_dir": "src",
			"settings_module": "project.settings",
			"settings_variable": "DJANGO_SETTINGS_MODULE",
			"scripts_dir": ".testbridge/scripts",
			"output_encoding": "utf-8",
			"accepted_exit_codes": [0, 1],
			"env": {"PYTHONUNBUFFERED": "1"},
			"run": {"overlap": "queue", "cancel_grace": "3s"},
			"debug": {"module": "debugpy", "listen": "127.0.0.1:5678", "wait_for_client": false},
			"discovery": {"replace": true}
		}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if err := ValidateConfig([]byte(data)); err != nil {
				t.Errorf("expected valid config, got error: %v", err)
			}
		})
	}
}

func TestSchemaInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"missing root_dir":      `{"settings_module": "project.settings"}`,
		"missing settings":      `{"root_dir": "src"}`,
		"empty root_dir":        `{"root_dir": "", "settings_module": "s"}`,
		"bad overlap":           `{"root_dir": "src", "settings_module": "s", "run": {"overlap": "sometimes"}}`,
		"bad exit code":         `{"root_dir": "src", "settings_module": "s", "accepted_exit_codes": [300]}`,
		"bad settings variable": `{"root_dir": "src", "settings_module": "s", "settings_variable": "1BAD"}`,
		"not object":            `["root_dir"]`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if err := ValidateConfig([]byte(data)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSchemaInvalidConfigMalformedJSON(t *testing.T) {
	if err := ValidateConfig([]byte(`{"root_dir": `)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestSchemaDiscoveryPayloads(t *testing.T) {
	valid := map[string]string{
		"bare tree": `{"id": "root", "displayName": "root", "kind": "folder", "filePath": "/src", "children": [
			{"id": "t1", "displayName": "t1", "kind": "testCase", "filePath": "/src/a.py", "lineNumber": 12}
		]}`,
		"empty folder":       `{"id": "root", "displayName": "root", "kind": "folder", "filePath": "/src", "children": []}`,
		"envelope no tests":  `{"status": "success", "cwd": "/src"}`,
		"envelope null test": `{"status": "success", "tests": null}`,
		"envelope with errors": `{"status": "error", "errors": ["ImportError"], "tests":
			{"id": "root", "displayName": "root", "kind": "folder", "filePath": "/src", "children": []}}`,
	}
	for name, data := range valid {
		t.Run("valid/"+name, func(t *testing.T) {
			if err := ValidateDiscovery(mustDecode(t, data)); err != nil {
				t.Errorf("expected valid payload, got %v", err)
			}
		})
	}

	invalid := map[string]string{
		"leaf with children": `{"id": "t", "displayName": "t", "kind": "testCase", "filePath": "/a.py", "lineNumber": 1, "children": []}`,
		"leaf without line":  `{"id": "t", "displayName": "t", "kind": "testCase", "filePath": "/a.py"}`,
		"branch no children": `{"id": "f", "displayName": "f", "kind": "file", "filePath": "/a.py"}`,
		"branch with line":   `{"id": "f", "displayName": "f", "kind": "class", "filePath": "/a.py", "lineNumber": 4, "children": []}`,
		"unknown kind":       `{"id": "f", "displayName": "f", "kind": "module", "filePath": "/a.py", "children": []}`,
		"missing id":         `{"displayName": "f", "kind": "folder", "filePath": "/a", "children": []}`,
		"leaf id with space": `{"id": "a b", "displayName": "t", "kind": "testCase", "filePath": "/a.py", "lineNumber": 1}`,
		"line zero":          `{"id": "t", "displayName": "t", "kind": "testCase", "filePath": "/a.py", "lineNumber": 0}`,
		"bad status":         `{"status": "partial"}`,
		"string":             `"tests"`,
	}
	for name, data := range invalid {
		t.Run("invalid/"+name, func(t *testing.T) {
			if err := ValidateDiscovery(mustDecode(t, data)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestSchemaOutcomePayloads(t *testing.T) {
	valid := map[string]string{
		"empty":   `{}`,
		"minimal": `{"t1": {"outcome": "success"}}`,
		"full": `{"t1": {"outcome": "failure", "message": "boom", "duration": 5,
			"traceback": null, "subtest": null, "test": "t1", "elapsed_time": 5.5}}`,
		"legacy kinds": `{"a": {"outcome": "skipped"}, "b": {"outcome": "expected-failure"}}`,
	}
	for name, data := range valid {
		t.Run("valid/"+name, func(t *testing.T) {
			if err := ValidateOutcome(mustDecode(t, data)); err != nil {
				t.Errorf("expected valid payload, got %v", err)
			}
		})
	}

	invalid := map[string]string{
		"no outcome":       `{"t1": {"message": "x"}}`,
		"unknown outcome":  `{"t1": {"outcome": "flaky"}}`,
		"negative time":    `{"t1": {"outcome": "success", "duration": -1}}`,
		"string duration":  `{"t1": {"outcome": "success", "duration": "5"}}`,
		"array":            `[{"outcome": "success"}]`,
		"non object value": `{"t1": "success"}`,
	}
	for name, data := range invalid {
		t.Run("invalid/"+name, func(t *testing.T) {
			if err := ValidateOutcome(mustDecode(t, data)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if err := Validate("missing.schema.json", map[string]any{}); err == nil {
		t.Error("expected error for unknown schema name")
	}
}
