// Package render formats the test tree and run results for the terminal.
package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

// TreeOptions configures Tree.
type TreeOptions struct {
	ShowIDs bool
	// BaseDir, when set, shortens file paths relative to it.
	BaseDir string
}

// Tree writes the registry as an indented list. Leaves show their file and
// one-based line.
func Tree(w io.Writer, reg *testtree.Registry, opts TreeOptions) error {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)

	for _, root := range reg.Roots().All() {
		appendNode(l, root, opts)
	}
	if l.Length() == 0 {
		_, err := fmt.Fprintln(w, "(no tests discovered)")
		return err
	}
	_, err := fmt.Fprintln(w, l.Render())
	return err
}

func appendNode(l list.Writer, n *testtree.Node, opts TreeOptions) {
	l.AppendItem(nodeLabel(n, opts))
	children := n.Children().All()
	if len(children) == 0 {
		return
	}
	l.Indent()
	for _, c := range children {
		appendNode(l, c, opts)
	}
	l.UnIndent()
}

func nodeLabel(n *testtree.Node, opts TreeOptions) string {
	label := n.Label()
	if opts.ShowIDs && n.ID() != label {
		label = fmt.Sprintf("%s [%s]", label, n.ID())
	}
	if r, ok := n.Range(); ok && n.File() != "" {
		label = fmt.Sprintf("%s (%s:%d)", label, shortPath(n.File(), opts.BaseDir), r.Start.Line+1)
	}
	return label
}

func shortPath(path, base string) string {
	if base == "" {
		return path
	}
	if rel, err := filepath.Rel(base, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !startsWithParent(rel) {
		return rel
	}
	return path
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
