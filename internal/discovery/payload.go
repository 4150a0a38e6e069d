// Package discovery turns the discovery subprocess output into test tree nodes.
package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	bridgeerrors "github.com/AndreyAkinshin/testbridge/internal/errors"
	"github.com/AndreyAkinshin/testbridge/internal/schema"
)

// Kind is the kind of a discovered node.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindFile     Kind = "file"
	KindClass    Kind = "class"
	KindTestCase Kind = "testCase"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Header holds the fields shared by every discovered node.
type Header struct {
	ID          string
	DisplayName string
	Kind        Kind
	FilePath    string
}

// Node is either a *Leaf or a *Branch.
type Node interface {
	header() *Header
}

// Leaf is a test case. It has a source line and no children.
type Leaf struct {
	Header
	LineNumber int
}

// Branch is a folder, file or class. Children may be empty.
type Branch struct {
	Header
	Children []Node
}

func (l *Leaf) header() *Header   { return &l.Header }
func (b *Branch) header() *Header { return &b.Header }

// HeaderOf returns the common fields of n.
func HeaderOf(n Node) Header { return *n.header() }

// Payload is a decoded discovery document.
type Payload struct {
	Status string
	Cwd    string
	// Root is nil when no tests were found.
	Root Node
	// Errors reported by the discovery script alongside a usable tree.
	Errors []string
}

// Decode parses, normalizes and validates discovery output. Empty output
// yields a payload with no root. Any structural problem fails the whole
// payload with a discovery error.
func Decode(data []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return &Payload{Status: StatusSuccess}, nil
	}

	raw, err := schema.Decode(trimmed)
	if err != nil {
		return nil, bridgeerrors.Discovery("malformed discovery output", err)
	}

	normalized := normalize(raw)
	if err := schema.ValidateDiscovery(normalized); err != nil {
		return nil, bridgeerrors.Discovery("invalid discovery payload", err)
	}

	obj := normalized.(map[string]any)
	payload := &Payload{Status: StatusSuccess}
	tree := obj

	if status, ok := obj["status"].(string); ok {
		payload.Status = status
		payload.Cwd, _ = obj["cwd"].(string)
		for _, e := range asSlice(obj["errors"]) {
			payload.Errors = append(payload.Errors, e.(string))
		}
		tree, _ = obj["tests"].(map[string]any)
		if tree == nil {
			if status == StatusError {
				return nil, bridgeerrors.Discovery("test discovery failed",
					fmt.Errorf("%s", strings.Join(payload.Errors, "\n")))
			}
			return payload, nil
		}
	}

	root, err := toNode(tree)
	if err != nil {
		return nil, bridgeerrors.Discovery("invalid discovery payload", err)
	}
	if err := checkUniqueIDs(root); err != nil {
		return nil, bridgeerrors.Discovery("invalid discovery payload", err)
	}
	payload.Root = root
	return payload, nil
}

func toNode(m map[string]any) (Node, error) {
	h := Header{
		ID:          m["id"].(string),
		DisplayName: m["displayName"].(string),
		Kind:        Kind(m["kind"].(string)),
		FilePath:    m["filePath"].(string),
	}

	if h.Kind == KindTestCase {
		line, err := lineNumber(m["lineNumber"].(json.Number))
		if err != nil {
			return nil, fmt.Errorf("node %q: lineNumber: %w", h.ID, err)
		}
		return &Leaf{Header: h, LineNumber: line}, nil
	}

	raw := asSlice(m["children"])
	b := &Branch{Header: h, Children: make([]Node, 0, len(raw))}
	for _, c := range raw {
		child, err := toNode(c.(map[string]any))
		if err != nil {
			return nil, err
		}
		b.Children = append(b.Children, child)
	}
	return b, nil
}

// lineNumber accepts integral floats such as 12.0.
func lineNumber(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int(f), nil
}

func checkUniqueIDs(root Node) error {
	seen := make(map[string]bool)
	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := n.header().ID
		if seen[id] {
			return fmt.Errorf("duplicate test id %q", id)
		}
		seen[id] = true

		if b, ok := n.(*Branch); ok {
			stack = append(stack, b.Children...)
		}
	}
	return nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
