package ast

// Inspect visits n and its descendants depth-first. Returning false from
// fn skips the node's children.
func Inspect(n Node, fn func(Node) bool) {
	n = orEmpty(n)
	if !fn(n) {
		return
	}
	_, _ = n.TransformChildren(func(c Node) (Node, error) {
		Inspect(c, fn)
		return c, nil
	})
}

// Count returns the number of nodes in the tree rooted at n, Empty excluded.
func Count(n Node) int {
	total := 0
	Inspect(n, func(c Node) bool {
		if !IsEmpty(c) {
			total++
		}
		return true
	})
	return total
}
