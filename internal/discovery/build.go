package discovery

import "github.com/AndreyAkinshin/testbridge/internal/testtree"

// Build materializes root into reg and returns the new top-level node.
// Existing roots are kept; a root with the same id is replaced in place.
// A nil root adds nothing.
func Build(root Node, reg *testtree.Registry) *testtree.Node {
	if root == nil {
		return nil
	}
	top := buildSubtree(root, reg)
	reg.Roots().Add(top)
	return top
}

// buildSubtree returns a detached node with its whole subtree attached.
func buildSubtree(n Node, reg *testtree.Registry) *testtree.Node {
	h := n.header()
	node := reg.CreateNode(h.ID, h.DisplayName, h.FilePath)

	switch v := n.(type) {
	case *Leaf:
		node.SetRange(testtree.LineRange(v.LineNumber))
	case *Branch:
		node.MarkContainer()
		for _, c := range v.Children {
			node.Children().Add(buildSubtree(c, reg))
		}
	}
	return node
}
