// Package schema provides JSON schema validation for the testbridge
// configuration and the runner payloads.
package schema

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/testbridge/schema"
)

// Names of the embedded schema documents.
const (
	ConfigSchema    = "config.schema.json"
	DiscoverySchema = "discovery.schema.json"
	OutcomeSchema   = "outcome.schema.json"
)

var (
	compiled    map[string]*jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		names := []string{ConfigSchema, DiscoverySchema, OutcomeSchema}

		for _, name := range names {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			sch, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
	})

	return compileErr
}

// Decode parses JSON data the way the validator expects it, with numbers kept
// as json.Number.
func Decode(data []byte) (any, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// Validate checks an already-decoded JSON value against the named schema.
func Validate(name string, v any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	sch, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	return sch.Validate(v)
}

// ValidateConfig validates JSON data against the config schema.
func ValidateConfig(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := Validate(ConfigSchema, v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// ValidateDiscovery validates a decoded discovery payload.
func ValidateDiscovery(v any) error {
	if err := Validate(DiscoverySchema, v); err != nil {
		return fmt.Errorf("discovery payload validation failed: %w", err)
	}
	return nil
}

// ValidateOutcome validates a decoded execution outcome payload.
func ValidateOutcome(v any) error {
	if err := Validate(OutcomeSchema, v); err != nil {
		return fmt.Errorf("outcome payload validation failed: %w", err)
	}
	return nil
}
