// Package schema provides embedded JSON schemas for the testbridge
// configuration file and the payloads exchanged with the runner scripts.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
