package lower

import (
	"dysc/internal/ast"
	"dysc/internal/transform"
)

// InlineGuards merges every definition of a function into the first one.
// Each guarded body becomes `if guard { body }` in definition order;
// unguarded bodies are spliced in as they are. Later definitions are
// erased, and their parameters are renamed to the first definition's.
func InlineGuards(root ast.Node) (ast.Node, error) {
	groups := make(map[string][]*ast.FnDef)
	ast.Inspect(root, func(n ast.Node) bool {
		if d, ok := n.(*ast.FnDef); ok {
			groups[d.Name] = append(groups[d.Name], d)
			return false
		}
		return true
	})

	done := make(map[string]bool)
	return transform.Run(transform.Handlers{
		ast.KindFnDef: func(_ *transform.Walker, n ast.Node) (ast.Node, error) {
			d := n.(*ast.FnDef)
			if done[d.Name] {
				return ast.Empty, nil
			}
			done[d.Name] = true
			return merge(groups[d.Name])
		},
	}, root)
}

func merge(defs []*ast.FnDef) (ast.Node, error) {
	first := defs[0]
	ret := first.Return
	var body []ast.Node
	for i, d := range defs {
		if i > 0 {
			var err error
			if d, err = renameParams(d, first); err != nil {
				return nil, err
			}
			if merged, err := ast.Combine(ret, d.Return); err == nil {
				ret = merged
			}
		}
		stmts := implicitReturn(d.Body)
		if ast.IsEmpty(d.Guard) {
			body = append(body, stmts.Items...)
			continue
		}
		body = append(body, ast.NewIf(d.Guard, stmts, ast.Empty))
	}
	return &ast.FnDef{
		Name:   first.Name,
		Return: ret,
		Params: first.Params,
		Guard:  ast.Empty,
		Body:   ast.NewList(body...),
	}, nil
}

// implicitReturn wraps a trailing expression in a return statement.
func implicitReturn(body *ast.List) *ast.List {
	last := body.Last()
	if ast.IsEmpty(last) || !ast.IsExpression(last) {
		return body
	}
	return body.WithLast(ast.NewReturn(last))
}

// renameParams rewrites d so its parameters carry the names used by first.
func renameParams(d, first *ast.FnDef) (*ast.FnDef, error) {
	names := make(map[string]string)
	for i := 0; i < d.Params.Len() && i < first.Params.Len(); i++ {
		from, to := d.Param(i).Name, first.Param(i).Name
		if from != to {
			names[from] = to
		}
	}
	if len(names) == 0 {
		return d, nil
	}
	out, err := transform.Run(transform.Handlers{
		ast.KindVariable: func(_ *transform.Walker, n ast.Node) (ast.Node, error) {
			v := n.(*ast.Variable)
			if to, ok := names[v.Name]; ok {
				return ast.NewVariable(to, v.Type), nil
			}
			return v, nil
		},
	}, d)
	if err != nil {
		return nil, err
	}
	return out.(*ast.FnDef), nil
}
