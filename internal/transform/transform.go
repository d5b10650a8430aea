// Package transform walks an AST applying per-kind handlers, falling back
// to rebuilding children for every kind a pass does not handle.
package transform

import (
	"dysc/internal/ast"
	"dysc/internal/diag"
)

// Pass rewrites nodes of the kinds it cares about. It returns handled=false
// to let the walker rebuild the node's children instead.
type Pass interface {
	Rewrite(w *Walker, n ast.Node) (out ast.Node, handled bool, err error)
}

// Handler rewrites one node kind.
type Handler func(w *Walker, n ast.Node) (ast.Node, error)

// Handlers is a Pass backed by a kind lookup table.
type Handlers map[ast.Kind]Handler

func (h Handlers) Rewrite(w *Walker, n ast.Node) (ast.Node, bool, error) {
	fn, ok := h[n.Kind()]
	if !ok {
		return nil, false, nil
	}
	out, err := fn(w, n)
	return out, true, err
}

// Walker dispatches nodes to a Pass.
type Walker struct {
	pass Pass
}

func New(p Pass) *Walker {
	return &Walker{pass: p}
}

// Run walks root with p.
func Run(p Pass, root ast.Node) (ast.Node, error) {
	return New(p).Walk(root)
}

// Walk rewrites n with the pass handler for its kind, or Default.
func (w *Walker) Walk(n ast.Node) (ast.Node, error) {
	if n == nil {
		return nil, diag.Newf(diag.MalformedNode, "", "walker received no node")
	}
	out, handled, err := w.pass.Rewrite(w, n)
	if err != nil {
		return nil, err
	}
	if !handled {
		return w.Default(n)
	}
	if out == nil {
		return nil, diag.Newf(diag.MalformedNode, n.Kind().String(), "handler returned no node")
	}
	return out, nil
}

// Default rebuilds n with Walk applied to each child.
func (w *Walker) Default(n ast.Node) (ast.Node, error) {
	return n.TransformChildren(w.Walk)
}

// WalkList walks every item of l as an expression sequence.
func (w *Walker) WalkList(l *ast.List) (*ast.List, error) {
	return l.Map(w.Walk)
}

// WalkBlock walks a statement sequence, splicing lists that handlers
// return into it.
func (w *Walker) WalkBlock(l *ast.List) (*ast.List, error) {
	out, err := l.Map(w.Walk)
	if err != nil {
		return nil, err
	}
	return out.Flatten(), nil
}

// Identity is a Pass without handlers.
type Identity struct{}

func (Identity) Rewrite(*Walker, ast.Node) (ast.Node, bool, error) { return nil, false, nil }
