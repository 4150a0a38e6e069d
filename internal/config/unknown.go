package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadWithWarnings parses config data and returns any unknown field warnings.
func LoadWithWarnings(data []byte) (*Config, []string, error) {
	cfg, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	return cfg, detectUnknownFields(data), nil
}

// detectUnknownFields compares raw YAML keys with known struct fields.
func detectUnknownFields(data []byte) []string {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// Parse already succeeded, so this is an internal inconsistency.
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	var warnings []string
	known := getYAMLFields(reflect.TypeOf(Config{}))
	nested := map[string]reflect.Type{
		"run":       reflect.TypeOf(RunConfig{}),
		"debug":     reflect.TypeOf(DebugConfig{}),
		"discovery": reflect.TypeOf(DiscoveryConfig{}),
	}

	for _, key := range sortedKeys(raw) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
			continue
		}
		typ, ok := nested[key]
		if !ok {
			continue
		}
		node := raw[key]
		var section map[string]yaml.Node
		if err := node.Decode(&section); err != nil {
			continue
		}
		sectionKnown := getYAMLFields(typ)
		for _, sub := range sortedKeys(section) {
			if !sectionKnown[sub] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in %q (ignored)", sub, key))
			}
		}
	}

	return warnings
}

// getYAMLFields returns a map of known YAML field names for a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]yaml.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
