package process

import (
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw process output to a string. label is a WHATWG encoding
// label such as "utf-8" or "windows-1252"; empty means utf-8. A leading byte
// order mark selects the matching Unicode decoder and is stripped.
func Decode(data []byte, label string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	decoder := unicode.BOMOverride(enc.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
