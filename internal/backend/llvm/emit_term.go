package llvm

import (
	"maps"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// ret emits a return, coercing the value to the function's return type.
func (g *Generator) ret(r *ast.Return) (Fragment, error) {
	want := g.fn.ret
	if ast.IsEmpty(r.Expr) {
		if want != "void" {
			return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindReturn.String(), g.fn.name, want, "void")
		}
		var f Fragment
		f.Terminate("ret void")
		return f, nil
	}
	f, err := g.emit(r.Expr)
	if err != nil {
		return Fragment{}, err
	}
	if want == "void" {
		f.Terminate("ret void")
		return f, nil
	}
	cf, v, err := g.coerce(f.Value, want)
	if err != nil {
		return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindReturn.String(), g.fn.name, want, displayType(f.Value))
	}
	out := g.fn.scope.Then(f, cf)
	out.Terminate("ret %s", v)
	return out, nil
}

// condition turns a test value into an i1.
func (g *Generator) condition(f Fragment) (Fragment, error) {
	v := f.Value
	switch {
	case v.Type == "i1" && !v.Addr:
		return f, nil
	case v.Type == "i32" && !v.Addr:
		tmp := g.fn.scope.Fresh("cond")
		f.Emit("%%%s = icmp ne i32 %s, 0", tmp, v.Ref)
		f.Value = Value{Type: "i1", Ref: "%" + tmp}
		return f, nil
	}
	return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindIf.String(), "test", "i1", displayType(v))
}

// ifBlock emits a conditional as IfTrue, optional IfFalse and Continue
// blocks. Continue is left out when both branches terminate. Variables
// rebound in a branch are merged with phis at the head of Continue; an if
// without else then gets an empty IfFalse block to carry the old values.
func (g *Generator) ifBlock(b *ast.IfBlock) (Fragment, error) {
	scope := g.fn.scope
	tf, err := g.emit(b.Test)
	if err != nil {
		return Fragment{}, err
	}
	out, err := g.condition(tf)
	if err != nil {
		return Fragment{}, err
	}
	outer := maps.Clone(g.fn.vars)

	var cont string
	next := func() string {
		if cont == "" {
			cont = scope.Fresh("Continue")
		}
		return cont
	}
	var edges []edge
	branch := func(label string, body *ast.List) (Fragment, error) {
		g.fn.vars = maps.Clone(outer)
		var bf Fragment
		bf.Label(label)
		inner, err := g.block(body)
		if err != nil {
			return Fragment{}, err
		}
		bf = scope.Then(bf, inner)
		if !bf.Terminated {
			edges = append(edges, edge{vars: g.fn.vars, block: bf.Block})
			bf.Terminate("br label %%%s", next())
		}
		return bf, nil
	}

	trueLabel := scope.Fresh("IfTrue")
	fail := b.FailList()
	falseLabel := ""
	if fail != nil {
		falseLabel = scope.Fresh("IfFalse")
	} else {
		falseLabel = next()
	}

	pass, err := branch(trueLabel, b.Pass)
	if err != nil {
		return Fragment{}, err
	}
	var ff Fragment
	if fail != nil {
		if ff, err = branch(falseLabel, fail); err != nil {
			return Fragment{}, err
		}
	} else {
		skip := edge{vars: outer}
		if differs(outer, append(edges, skip)) {
			falseLabel = scope.Fresh("IfFalse")
			ff.Label(falseLabel)
			ff.Terminate("br label %%%s", cont)
			skip.block = falseLabel
		}
		edges = append(edges, skip)
	}

	out.Terminate("br i1 %s, label %%%s, label %%%s", out.Ref, trueLabel, falseLabel)
	out = scope.Then(out, pass)
	if len(ff.Local) > 0 {
		out = scope.Then(out, ff)
	}
	g.fn.vars = maps.Clone(outer)
	if cont != "" {
		out.Label(cont)
		if err := g.join(&out, ast.KindIf.String(), outer, edges); err != nil {
			return Fragment{}, err
		}
	}
	out.Value = Value{}
	return out, nil
}
