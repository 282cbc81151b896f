package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node *Node) bool

// Walk traverses a clang AST in depth-first order, visiting array fillers
// before inner nodes as clang writes them.
// If visitor returns false, children are not visited.
func Walk(node *Node, v Visitor) {
	if node.IsNull() || !v(node) {
		return
	}
	for _, c := range node.ArrayFiller {
		Walk(c, v)
	}
	for _, c := range node.Inner {
		Walk(c, v)
	}
}

// Find returns the first node in depth-first order for which match
// returns true, or nil.
func Find(node *Node, match func(*Node) bool) *Node {
	var found *Node
	Walk(node, func(n *Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
