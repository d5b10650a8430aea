package ast

import "dysc/internal/diag"

// Combine merges two pieces of information about the same thing. Empty
// yields the other side and equal nodes yield a. Types, signatures and
// lists merge field by field so a partially resolved array<?> meets
// array<int>. Anything else is a NodeConflict.
func Combine(a, b Node) (Node, error) {
	a, b = orEmpty(a), orEmpty(b)
	switch {
	case IsEmpty(a):
		return b, nil
	case IsEmpty(b):
		return a, nil
	case Equal(a, b):
		return a, nil
	}
	switch x := a.(type) {
	case *Type:
		if y, ok := b.(*Type); ok {
			return combineType(x, y)
		}
	case *UseStatement:
		if y, ok := b.(*UseStatement); ok {
			return combineSignature(x, y)
		}
	case *List:
		if y, ok := b.(*List); ok {
			return combineList(x, y)
		}
	}
	return nil, conflict(a, b)
}

// Combinable reports whether Combine(a, b) would succeed.
func Combinable(a, b Node) bool {
	_, err := Combine(a, b)
	return err == nil
}

func conflict(a, b Node) error {
	return diag.Mismatch(diag.NodeConflict, a.Kind().String(), "", describe(a), describe(b))
}

func describe(n Node) string {
	if t, ok := n.(*Type); ok {
		return TypeString(t)
	}
	return Dump(n)
}

func combineType(a, b *Type) (Node, error) {
	if a.Tag != b.Tag {
		return nil, conflict(a, b)
	}
	length := a.Length
	switch {
	case length == 0:
		length = b.Length
	case b.Length != 0 && b.Length != length:
		return nil, conflict(a, b)
	}
	sub, err := Combine(a.Sub, b.Sub)
	if err != nil {
		return nil, conflict(a, b)
	}
	return &Type{Tag: a.Tag, Sub: sub, Length: length}, nil
}

func combineSignature(a, b *UseStatement) (Node, error) {
	if a.Variadic != b.Variadic {
		return nil, conflict(a, b)
	}
	name := a.Name
	if name == "" {
		name = b.Name
	} else if b.Name != "" && b.Name != name {
		return nil, conflict(a, b)
	}
	ret, err := Combine(a.Return, b.Return)
	if err != nil {
		return nil, err
	}
	params, err := combineList(a.Params, b.Params)
	if err != nil {
		return nil, err
	}
	return &UseStatement{Name: name, Return: ret, Params: params.(*List), Variadic: a.Variadic}, nil
}

// combineList keeps Empty entries positionally so parameter tuples with
// holes still line up.
func combineList(a, b *List) (Node, error) {
	if a.Len() != b.Len() {
		return nil, conflict(a, b)
	}
	items := make([]Node, a.Len())
	for i := range items {
		c, err := Combine(a.Items[i], b.Items[i])
		if err != nil {
			return nil, err
		}
		items[i] = c
	}
	return &List{Items: items}, nil
}
