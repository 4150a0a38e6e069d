package testtree

// Registry holds the root collection of the test tree.
type Registry struct {
	roots *Collection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{roots: newCollection(nil)}
}

// CreateNode creates a detached node. It becomes visible once added to
// Roots() or to another node's Children().
func (r *Registry) CreateNode(id, label, file string) *Node {
	return NewNode(id, label, file)
}

// Roots returns the top-level collection.
func (r *Registry) Roots() *Collection { return r.roots }

// WalkFunc is called for every node visited by Walk. Returning false skips
// the node's subtree.
type WalkFunc func(n *Node) bool

// Walk visits every node in pre-order, depth-first, in display order.
func (r *Registry) Walk(fn WalkFunc) {
	stack := reversed(r.roots.order)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		stack = append(stack, reversed(n.children.order)...)
	}
}

// Find returns the first node with the given id in pre-order.
func (r *Registry) Find(id string) (*Node, bool) {
	var found *Node
	r.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Stats counts the nodes in the registry.
type Stats struct {
	Nodes  int
	Leaves int
}

// Stats returns node and leaf counts for the whole registry.
func (r *Registry) Stats() Stats {
	var s Stats
	r.Walk(func(n *Node) bool {
		s.Nodes++
		if n.IsLeaf() {
			s.Leaves++
		}
		return true
	})
	return s
}

func reversed(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
