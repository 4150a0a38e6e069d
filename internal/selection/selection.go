// Package selection expands a run request into the leaf test cases to execute.
package selection

import "github.com/AndreyAkinshin/testbridge/internal/testtree"

// Request is an unordered set of included nodes, or none for every root,
// plus an unordered set of excluded nodes.
type Request struct {
	Include []*testtree.Node
	Exclude []*testtree.Node
}

// Selection is the resolved set of leaves with an id lookup table built
// before dispatch.
type Selection struct {
	leaves   []*testtree.Node
	byID     map[string]*testtree.Node
	released map[string]bool
}

// Resolve collects the leaves reachable from the included nodes (or from
// every root), skipping excluded subtrees and empty containers. Each leaf
// appears once and is acquired (marked busy) until released.
func Resolve(reg *testtree.Registry, req Request) *Selection {
	excluded := make(map[string]bool, len(req.Exclude))
	for _, n := range req.Exclude {
		excluded[n.ID()] = true
	}

	start := req.Include
	if len(start) == 0 {
		start = reg.Roots().All()
	}

	sel := &Selection{byID: make(map[string]*testtree.Node), released: make(map[string]bool)}

	// Worklist DFS; pushing in reverse keeps leaves in display order.
	stack := make([]*testtree.Node, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if excluded[n.ID()] {
			continue
		}
		if n.IsLeaf() {
			if !n.Runnable() {
				continue
			}
			if _, dup := sel.byID[n.ID()]; dup {
				continue
			}
			n.Acquire()
			sel.byID[n.ID()] = n
			sel.leaves = append(sel.leaves, n)
			continue
		}
		children := n.Children().All()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return sel
}

// Leaves returns the selected leaves in resolution order.
func (s *Selection) Leaves() []*testtree.Node {
	out := make([]*testtree.Node, len(s.leaves))
	copy(out, s.leaves)
	return out
}

// IDs returns the leaf ids in resolution order.
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.leaves))
	for i, n := range s.leaves {
		ids[i] = n.ID()
	}
	return ids
}

// Lookup returns the selected leaf with the given id.
func (s *Selection) Lookup(id string) (*testtree.Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Len returns the number of selected leaves.
func (s *Selection) Len() int { return len(s.leaves) }

// Release clears the busy mark this selection put on n. Releasing the same
// leaf twice, or a leaf outside the selection, has no effect.
func (s *Selection) Release(n *testtree.Node) {
	if _, ok := s.byID[n.ID()]; !ok || s.released[n.ID()] {
		return
	}
	s.released[n.ID()] = true
	n.Release()
}

// ReleaseAll releases every leaf not released yet.
func (s *Selection) ReleaseAll() {
	for _, n := range s.leaves {
		s.Release(n)
	}
}
