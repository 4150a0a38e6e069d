package discovery

import (
	"encoding/json"
	"strconv"
	"strings"
)

// legacyKeys maps the older discovery field names onto the canonical ones.
// A canonical key that is already present wins.
var legacyKeys = []struct{ from, to string }{
	{"runID", "id"},
	{"id_", "id"},
	{"name", "displayName"},
	{"path", "filePath"},
	{"type_", "kind"},
	{"lineno", "lineNumber"},
}

// normalize rewrites the legacy dialect in place and returns v.
func normalize(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if _, isEnvelope := obj["status"]; isEnvelope {
		if tests, ok := obj["tests"].(map[string]any); ok {
			normalizeNode(tests)
		}
		return obj
	}
	normalizeNode(obj)
	return obj
}

func normalizeNode(m map[string]any) {
	for _, k := range legacyKeys {
		val, ok := m[k.from]
		if !ok {
			continue
		}
		delete(m, k.from)
		if _, exists := m[k.to]; !exists {
			m[k.to] = val
		}
	}

	if kind, ok := m["kind"].(string); ok && kind == "test" {
		m["kind"] = string(KindTestCase)
	}

	if s, ok := m["lineNumber"].(string); ok {
		s = strings.TrimSpace(s)
		if _, err := strconv.Atoi(s); err == nil {
			m["lineNumber"] = json.Number(s)
		}
	}

	for _, c := range asSlice(m["children"]) {
		if child, ok := c.(map[string]any); ok {
			normalizeNode(child)
		}
	}
}
