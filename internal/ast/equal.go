package ast

// Equal reports structural equality. nil and Empty are equal.
func Equal(a, b Node) bool {
	a, b = orEmpty(a), orEmpty(b)
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case emptyNode:
		return true
	case *List:
		return equalList(x, b.(*List))
	case *File:
		return equalList(x.Statements, b.(*File).Statements)
	case *Type:
		y := b.(*Type)
		return x.Tag == y.Tag && x.Length == y.Length && Equal(x.Sub, y.Sub)
	case *Literal:
		y := b.(*Literal)
		return x.Value == y.Value &&
			equalList(x.Items, y.Items) &&
			Equal(x.Start, y.Start) &&
			Equal(x.End, y.End) &&
			Equal(x.Type, y.Type)
	case *Variable:
		y := b.(*Variable)
		return x.Name == y.Name && Equal(x.Type, y.Type)
	case *Buffer:
		y := b.(*Buffer)
		return x.Capacity == y.Capacity && Equal(x.Var, y.Var)
	case *UseStatement:
		y := b.(*UseStatement)
		return x.Name == y.Name &&
			x.Variadic == y.Variadic &&
			Equal(x.Return, y.Return) &&
			equalList(x.Params, y.Params)
	case *FnDef:
		y := b.(*FnDef)
		return x.Name == y.Name &&
			Equal(x.Return, y.Return) &&
			equalList(x.Params, y.Params) &&
			Equal(x.Guard, y.Guard) &&
			equalList(x.Body, y.Body)
	case *IfBlock:
		y := b.(*IfBlock)
		return Equal(x.Test, y.Test) && equalList(x.Pass, y.Pass) && Equal(x.Fail, y.Fail)
	case *ForLoop:
		y := b.(*ForLoop)
		return Equal(x.Var, y.Var) && Equal(x.Source, y.Source) && equalList(x.Body, y.Body)
	case *FnCall:
		y := b.(*FnCall)
		return x.Name == y.Name &&
			equalList(x.Args, y.Args) &&
			Equal(x.Type, y.Type) &&
			Equal(x.Signature, y.Signature)
	case *Return:
		y := b.(*Return)
		return Equal(x.Expr, y.Expr) && Equal(x.Type, y.Type)
	case *VarDecl:
		y := b.(*VarDecl)
		return Equal(x.Var, y.Var) && Equal(x.Type, y.Type)
	case *Assign:
		y := b.(*Assign)
		return Equal(x.Target, y.Target) && Equal(x.Expr, y.Expr) && Equal(x.Type, y.Type)
	case *Op:
		y := b.(*Op)
		return x.Operator == y.Operator &&
			Equal(x.Left, y.Left) &&
			Equal(x.Right, y.Right) &&
			Equal(x.Type, y.Type)
	case *StrConcat:
		return equalList(x.Items, b.(*StrConcat).Items)
	case *Cast:
		y := b.(*Cast)
		return Equal(x.Target, y.Target) && Equal(x.Expr, y.Expr)
	}
	return false
}

func equalList(a, b *List) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !Equal(a.Items[i], b.Items[i]) {
			return false
		}
	}
	return true
}
