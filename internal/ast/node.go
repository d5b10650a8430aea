package ast

import "dysc/internal/diag"

// Node is implemented by every tree variant.
type Node interface {
	Kind() Kind
	// TransformChildren rebuilds the node with f applied to every node-valued
	// field exactly once. Plain data fields pass through unchanged.
	TransformChildren(f TransformFunc) (Node, error)
	String() string
}

// TransformFunc rewrites a single child node.
type TransformFunc func(Node) (Node, error)

type emptyNode struct{}

// Empty marks a semantically absent field: no guard, no else branch,
// unresolved type.
var Empty Node = emptyNode{}

func (emptyNode) Kind() Kind { return KindEmpty }

func (e emptyNode) TransformChildren(TransformFunc) (Node, error) { return e, nil }

func (emptyNode) String() string { return "Empty" }

// IsEmpty reports whether n is the Empty sentinel (or nil).
func IsEmpty(n Node) bool {
	return n == nil || n.Kind() == KindEmpty
}

func orEmpty(n Node) Node {
	if n == nil {
		return Empty
	}
	return n
}

// TypeOf returns the resolved type of an expression node, or Empty.
func TypeOf(n Node) Node {
	switch v := n.(type) {
	case *Literal:
		return v.Type
	case *Variable:
		return v.Type
	case *Buffer:
		return v.Var.Type
	case *FnCall:
		return v.Type
	case *Return:
		return v.Type
	case *Assign:
		return v.Type
	case *Op:
		return v.Type
	case *StrConcat:
		return NewType(TagString)
	case *Cast:
		return v.Target
	case *List:
		if v.Len() == 0 {
			return Empty
		}
		return TypeOf(v.Last())
	case *Type:
		return v
	}
	return Empty
}

// IsComplete reports whether n is a fully resolved *Type.
func IsComplete(n Node) bool {
	t, ok := n.(*Type)
	return ok && t.IsComplete()
}

func malformed(parent Kind, field string, got Node) error {
	kind := "nil"
	if got != nil {
		kind = got.Kind().String()
	}
	return diag.Newf(diag.MalformedNode, parent.String(), "field %s got %s", field, kind)
}

func apply(f TransformFunc, n Node) (Node, error) {
	out, err := f(orEmpty(n))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, diag.Newf(diag.MalformedNode, orEmpty(n).Kind().String(), "transform returned no node")
	}
	return out, nil
}

func applyList(f TransformFunc, l *List) (*List, error) {
	out, err := apply(f, l)
	if err != nil {
		return nil, err
	}
	switch v := out.(type) {
	case *List:
		return v, nil
	case emptyNode:
		return NewList(), nil
	}
	return NewList(out), nil
}

// applyBlock rewrites a statement sequence, splicing any List a handler
// produced into the parent sequence.
func applyBlock(f TransformFunc, l *List) (*List, error) {
	out, err := applyList(f, l)
	if err != nil {
		return nil, err
	}
	return out.Flatten(), nil
}

func applyVariable(parent Kind, field string, f TransformFunc, v *Variable) (*Variable, error) {
	out, err := apply(f, v)
	if err != nil {
		return nil, err
	}
	nv, ok := out.(*Variable)
	if !ok {
		return nil, malformed(parent, field, out)
	}
	return nv, nil
}

func applyType(parent Kind, field string, f TransformFunc, t *Type) (*Type, error) {
	out, err := apply(f, t)
	if err != nil {
		return nil, err
	}
	nt, ok := out.(*Type)
	if !ok {
		return nil, malformed(parent, field, out)
	}
	return nt, nil
}

// applyOptType accepts Empty or a *Type.
func applyOptType(parent Kind, field string, f TransformFunc, n Node) (Node, error) {
	out, err := apply(f, n)
	if err != nil {
		return nil, err
	}
	if IsEmpty(out) {
		return Empty, nil
	}
	if _, ok := out.(*Type); !ok {
		return nil, malformed(parent, field, out)
	}
	return out, nil
}

// IsExpression reports whether n produces a value when used as the final
// statement of a body.
func IsExpression(n Node) bool {
	switch n.Kind() {
	case KindCall, KindOp, KindLiteral, KindVariable, KindStrConcat, KindCast:
		return true
	}
	return false
}
