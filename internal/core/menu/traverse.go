package menu

// WalkOrder controls whether Walk descends into a node's children.
type WalkOrder int

const (
	// Continue visits the node's children next.
	Continue WalkOrder = iota
	// SkipChildren moves on to the next sibling.
	SkipChildren
	// Stop abandons the traversal entirely.
	Stop
)

// Walk performs a depth-first, left-to-right traversal of the tree, calling
// visit on every node. Every access query in this package and in the route
// resolver is built on this single traversal so the visiting order can never
// diverge between them.
func Walk(t *Tree, visit func(n *Node) WalkOrder) {
	if t == nil {
		return
	}
	walkNodes(t.Roots, visit)
}

func walkNodes(nodes []*Node, visit func(n *Node) WalkOrder) bool {
	for _, n := range nodes {
		switch visit(n) {
		case Stop:
			return false
		case SkipChildren:
			continue
		}
		if !walkNodes(n.Children, visit) {
			return false
		}
	}
	return true
}

// FindFirst returns the first node, in depth-first left-to-right order,
// satisfying pred, or nil when no node matches.
func FindFirst(t *Tree, pred func(n *Node) bool) *Node {
	var found *Node
	Walk(t, func(n *Node) WalkOrder {
		if pred(n) {
			found = n
			return Stop
		}
		return Continue
	})
	return found
}

// Flatten returns every node in depth-first left-to-right order.
func Flatten(t *Tree) []*Node {
	var out []*Node
	Walk(t, func(n *Node) WalkOrder {
		out = append(out, n)
		return Continue
	})
	return out
}
