// Package testtree provides the long-lived registry of test nodes shown in the
// test explorer.
//
// The registry is owned by the host. It is mutated by discovery (adding nodes)
// and by runs (toggling the busy flag). It performs no locking: callers that
// share a registry across goroutines must serialize access themselves.
package testtree

// Position is a zero-based line/character location in a file.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position
	End   Position
}

// LineRange returns the range the host uses to point at a one-based source line:
// from the start of that line to the start of the next one.
func LineRange(lineNumber int) Range {
	return Range{
		Start: Position{Line: lineNumber - 1},
		End:   Position{Line: lineNumber},
	}
}

// Node is a single entry in the test tree.
type Node struct {
	id       string
	label    string
	file     string
	rng      *Range
	busy      int
	container bool
	owner    *Collection
	children *Collection
}

// NewNode creates a detached node.
func NewNode(id, label, file string) *Node {
	n := &Node{id: id, label: label, file: file}
	n.children = newCollection(n)
	return n
}

func (n *Node) ID() string    { return n.id }
func (n *Node) Label() string { return n.label }
func (n *Node) File() string  { return n.file }

// Parent returns the node owning n, or nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	if n.owner == nil {
		return nil
	}
	return n.owner.owner
}

// Children returns the collection of nodes owned by n.
func (n *Node) Children() *Collection { return n.children }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.children.Len() == 0 }

// MarkContainer records that n is a folder, file or class even when it has
// no children.
func (n *Node) MarkContainer() { n.container = true }

// IsContainer reports whether n was marked as a container.
func (n *Node) IsContainer() bool { return n.container }

// Runnable reports whether n is a test case that can be passed to the runner:
// a leaf that is not an empty container.
func (n *Node) Runnable() bool { return n.IsLeaf() && !n.container }

// Range returns the source range, if one was set.
func (n *Node) Range() (Range, bool) {
	if n.rng == nil {
		return Range{}, false
	}
	return *n.rng, true
}

// SetRange attaches a source range to n.
func (n *Node) SetRange(r Range) {
	n.rng = &r
}

// Busy reports whether n is part of at least one in-flight run.
func (n *Node) Busy() bool { return n.busy > 0 }

// Acquire marks n as part of one more in-flight run.
func (n *Node) Acquire() { n.busy++ }

// Release drops one in-flight run from n. Extra releases are ignored.
func (n *Node) Release() {
	if n.busy > 0 {
		n.busy--
	}
}

// Depth returns the number of ancestors of n.
func (n *Node) Depth() int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// Collection is an ordered set of sibling nodes keyed by id.
// Adding a node whose id is already present replaces the existing node in place.
type Collection struct {
	owner *Node
	order []*Node
	byID  map[string]int
}

func newCollection(owner *Node) *Collection {
	return &Collection{owner: owner, byID: make(map[string]int)}
}

// Add inserts n, detaching it from any collection it previously belonged to.
func (c *Collection) Add(n *Node) {
	if n.owner != nil && n.owner != c {
		n.owner.Delete(n.id)
	}
	n.owner = c
	if i, ok := c.byID[n.id]; ok {
		if old := c.order[i]; old != n {
			old.owner = nil
		}
		c.order[i] = n
		return
	}
	c.byID[n.id] = len(c.order)
	c.order = append(c.order, n)
}

// Get returns the direct child with the given id.
func (c *Collection) Get(id string) (*Node, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.order[i], true
}

// Delete removes the direct child with the given id.
func (c *Collection) Delete(id string) {
	i, ok := c.byID[id]
	if !ok {
		return
	}
	c.order[i].owner = nil
	c.order = append(c.order[:i], c.order[i+1:]...)
	delete(c.byID, id)
	for j := i; j < len(c.order); j++ {
		c.byID[c.order[j].id] = j
	}
}

// Clear removes every node from the collection.
func (c *Collection) Clear() {
	for _, n := range c.order {
		n.owner = nil
	}
	c.order = nil
	c.byID = make(map[string]int)
}

// Len returns the number of nodes in the collection.
func (c *Collection) Len() int { return len(c.order) }

// All returns the nodes in insertion order. The slice is a copy.
func (c *Collection) All() []*Node {
	out := make([]*Node, len(c.order))
	copy(out, c.order)
	return out
}
