package infer

import (
	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/transform"
)

// env maps variable names to their types within one function.
type env map[string]ast.Node

func newEnv() env { return make(env) }

func (e env) bind(name string, t ast.Node) {
	if ast.IsComplete(t) {
		e[name] = t
	}
}

// pass is one full rewrite of the tree. Mismatches are only reported when
// final is set, once no pass can deduce anything new.
type pass struct {
	tables   *tables
	final    bool
	env      env
	occ      map[string]int
	returns  []ast.Node
	progress Progress
}

func (p *pass) Rewrite(w *transform.Walker, n ast.Node) (ast.Node, bool, error) {
	var (
		out ast.Node
		err error
	)
	switch v := n.(type) {
	case *ast.UseStatement:
		out, err = p.use(v)
	case *ast.FnDef:
		out, err = p.fnDef(w, v)
	case *ast.FnCall:
		out, err = p.call(w, v)
	case *ast.Return:
		out, err = p.ret(w, v)
	case *ast.VarDecl:
		out, err = p.varDecl(v)
	case *ast.Assign:
		out, err = p.assign(w, v)
	case *ast.Variable:
		out, err = p.variable(v)
	case *ast.Op:
		out, err = p.op(w, v)
	case *ast.Literal:
		out, err = p.literal(w, v)
	case *ast.ForLoop:
		out, err = p.forLoop(w, v)
	default:
		return nil, false, nil
	}
	return out, true, err
}

func (p *pass) tablesChanged(changed bool) {
	if changed {
		p.progress.TableChanged = true
	}
}

func mismatch(kind ast.Kind, name string, expected, actual ast.Node) error {
	return diag.Mismatch(diag.TypeMismatch, kind.String(), name, ast.TypeString(expected), ast.TypeString(actual))
}

func unresolved(kind ast.Kind, name string) error {
	return diag.Newf(diag.UnresolvedType, kind.String(), "no type could be inferred").WithName(name)
}

// merge combines a known type with new evidence. A conflict keeps the
// known type until the final pass reports it.
func (p *pass) merge(kind ast.Kind, name string, known, evidence ast.Node) (ast.Node, error) {
	out, err := ast.Combine(known, evidence)
	if err == nil {
		return out, nil
	}
	if p.final {
		return nil, mismatch(kind, name, known, evidence)
	}
	return known, nil
}

func (p *pass) use(u *ast.UseStatement) (ast.Node, error) {
	changed, err := p.tables.registerSig(u.Name, u.Signature())
	if err != nil {
		return nil, diag.Newf(diag.NodeConflict, ast.KindUse.String(), "%v", err).WithName(u.Name)
	}
	p.tablesChanged(changed)
	return u, nil
}

func (p *pass) fnDef(w *transform.Walker, d *ast.FnDef) (ast.Node, error) {
	occ := p.occ[d.Name]
	p.occ[d.Name]++
	p.tables.observe(d, occ)

	keys, tuples := p.tables.groups(d.Name)
	params := make([]ast.Node, d.Params.Len())
	p.env = newEnv()
	p.returns = nil
	for i := range params {
		param := d.Param(i)
		t := param.Type
		if !ast.IsComplete(t) && len(tuples) > 0 && i < tuples[0].Len() {
			t = tuples[0].Items[i]
		}
		p.env.bind(param.Name, t)
		params[i] = ast.NewVariable(param.Name, t)
	}
	bound := &ast.FnDef{Name: d.Name, Return: d.Return, Params: ast.NewList(params...), Guard: d.Guard, Body: d.Body}
	walked, err := w.Default(bound)
	if err != nil {
		return nil, err
	}
	def := walked.(*ast.FnDef)

	candidates := p.returns
	if last := def.Body.Last(); ast.IsExpression(last) {
		candidates = append(candidates, ast.TypeOf(last))
	}
	ret := def.Return
	for _, c := range candidates {
		if !ast.IsComplete(c) {
			continue
		}
		if !ast.IsComplete(ret) {
			ret = c
			continue
		}
		if !ast.Equal(ret, c) && p.final {
			return nil, mismatch(ast.KindFnDef, def.Name, ret, c)
		}
	}
	def = &ast.FnDef{Name: def.Name, Return: ret, Params: def.Params, Guard: def.Guard, Body: def.Body}

	if sig, ok := def.Signature(); ok {
		changed, err := p.tables.registerSig(def.Name, sig)
		if err != nil && p.final {
			return nil, diag.Newf(diag.NodeConflict, ast.KindFnDef.String(), "%v", err).WithName(def.Name)
		}
		p.tablesChanged(changed)
	}

	if p.tables.isClone(def.Name) {
		return def, nil
	}
	return p.specialize(def, occ, keys, tuples)
}

// specialize appends a clone of the definition for every argument tuple
// beyond the first that needs one.
func (p *pass) specialize(def *ast.FnDef, occ int, keys []string, tuples []*ast.List) (ast.Node, error) {
	for i := 1; i < len(keys); i++ {
		_, created := p.tables.specialize(def.Name, keys[i], tuples[i])
		p.tablesChanged(created)
	}
	sp := p.tables.specs[def.Name]
	origins := p.tables.origins[def.Name]
	if sp == nil || occ >= len(origins) {
		return def, nil
	}
	out := []ast.Node{def}
	for _, key := range sp.keys {
		name := sp.names[key]
		state := p.tables.clones[name]
		if state.emitted[occ] {
			continue
		}
		state.emitted[occ] = true
		out = append(out, cloneDef(origins[occ], name, sp.args[key], p.tables.inferred[def.Name]))
		p.progress.TableChanged = true
	}
	if len(out) == 1 {
		return def, nil
	}
	return ast.NewList(out...), nil
}

func argTypes(args *ast.List) (*ast.List, bool) {
	types := make([]ast.Node, args.Len())
	complete := true
	for i, a := range args.Items {
		types[i] = ast.TypeOf(a)
		if !ast.IsComplete(types[i]) {
			complete = false
		}
	}
	return &ast.List{Items: types}, complete
}

func sameTypes(params, args *ast.List) bool {
	if params.Len() != args.Len() {
		return false
	}
	for i := range params.Items {
		if !ast.Equal(params.Items[i], args.Items[i]) {
			return false
		}
	}
	return true
}

func (p *pass) call(w *transform.Walker, c *ast.FnCall) (ast.Node, error) {
	args, err := w.WalkList(c.Args)
	if err != nil {
		return nil, err
	}
	types, complete := argTypes(args)
	name := c.Name
	if complete {
		p.tablesChanged(p.tables.recordHint(name, types))
		if clone, ok := p.tables.cloneFor(name, types); ok {
			name = clone
			p.tablesChanged(p.tables.recordHint(name, types))
		}
	}

	typ := c.Type
	sig := ast.Empty
	if s, ok := p.tables.sigs[name]; ok {
		typ, err = p.merge(ast.KindCall, name, typ, s.Return)
		if err != nil {
			return nil, err
		}
		if s.Variadic || !sameTypes(s.Params, types) {
			sig = s
		}
	} else if p.final {
		return nil, diag.Newf(diag.UndefinedFunction, ast.KindCall.String(), "no definition or use statement").WithName(name)
	}
	return &ast.FnCall{Name: name, Args: args, Type: typ, Signature: sig}, nil
}

func (p *pass) ret(w *transform.Walker, r *ast.Return) (ast.Node, error) {
	expr, err := w.Walk(r.Expr)
	if err != nil {
		return nil, err
	}
	typ, err := p.merge(ast.KindReturn, "", r.Type, ast.TypeOf(expr))
	if err != nil {
		return nil, err
	}
	p.returns = append(p.returns, typ)
	return &ast.Return{Expr: expr, Type: typ}, nil
}

// varDecl seeds the environment and erases itself.
func (p *pass) varDecl(d *ast.VarDecl) (ast.Node, error) {
	t := ast.Node(d.Type)
	if known, ok := p.env[d.Var.Name]; ok {
		merged, err := p.merge(ast.KindVarDecl, d.Var.Name, known, d.Type)
		if err != nil {
			return nil, err
		}
		t = merged
	}
	p.env.bind(d.Var.Name, t)
	return ast.Empty, nil
}

func (p *pass) assign(w *transform.Walker, a *ast.Assign) (ast.Node, error) {
	expr, err := w.Walk(a.Expr)
	if err != nil {
		return nil, err
	}
	name := a.Target.Name
	typ := a.Type
	if !ast.IsComplete(typ) {
		if declared, ok := p.env[name]; ok {
			typ = declared
		}
	}
	typ, err = p.merge(ast.KindAssign, name, typ, ast.TypeOf(expr))
	if err != nil {
		return nil, err
	}
	if p.final && !ast.IsComplete(typ) {
		return nil, unresolved(ast.KindAssign, name)
	}
	p.env.bind(name, typ)
	return &ast.Assign{Target: ast.NewVariable(name, typ), Expr: expr, Type: typ}, nil
}

func (p *pass) variable(v *ast.Variable) (ast.Node, error) {
	if ast.IsComplete(v.Type) {
		return v, nil
	}
	if t, ok := p.env[v.Name]; ok {
		return ast.NewVariable(v.Name, t), nil
	}
	if p.final {
		return nil, unresolved(ast.KindVariable, v.Name)
	}
	return v, nil
}

func (p *pass) op(w *transform.Walker, o *ast.Op) (ast.Node, error) {
	left, err := w.Walk(o.Left)
	if err != nil {
		return nil, err
	}
	right, err := w.Walk(o.Right)
	if err != nil {
		return nil, err
	}
	lt, rt := ast.TypeOf(left), ast.TypeOf(right)
	typ := o.Type
	if ast.IsComplete(lt) && ast.IsComplete(rt) {
		switch {
		case !ast.Equal(lt, rt):
			if p.final {
				return nil, mismatch(ast.KindOp, o.Operator.String(), lt, rt)
			}
		case !ast.IsComplete(typ):
			typ = lt
		}
	}
	if p.final && !ast.IsComplete(typ) {
		return nil, unresolved(ast.KindOp, o.Operator.String())
	}
	return &ast.Op{Operator: o.Operator, Left: left, Right: right, Type: typ}, nil
}

func (p *pass) literal(w *transform.Walker, l *ast.Literal) (ast.Node, error) {
	switch l.Tag() {
	case ast.TagArray:
		return p.arrayLiteral(w, l)
	case ast.TagRange:
		return p.rangeLiteral(w, l)
	}
	if err := l.CheckValue(); err != nil {
		return nil, err
	}
	return l, nil
}

func (p *pass) arrayLiteral(w *transform.Walker, l *ast.Literal) (ast.Node, error) {
	items, err := w.WalkList(l.Items)
	if err != nil {
		return nil, err
	}
	arr := l.Type.(*ast.Type)
	elem := arr.Sub
	for _, item := range items.Items {
		elem, err = p.merge(ast.KindLiteral, "", elem, ast.TypeOf(item))
		if err != nil {
			return nil, err
		}
	}
	typ := ast.ArrayOf(elem, items.Len())
	if p.final && !typ.IsComplete() {
		return nil, unresolved(ast.KindLiteral, "")
	}
	return &ast.Literal{Value: l.Value, Items: items, Start: l.Start, End: l.End, Type: typ}, nil
}

// rangeLiteral types a range from its bounds, defaulting to int.
func (p *pass) rangeLiteral(w *transform.Walker, l *ast.Literal) (ast.Node, error) {
	start, err := w.Walk(l.Start)
	if err != nil {
		return nil, err
	}
	end, err := w.Walk(l.End)
	if err != nil {
		return nil, err
	}
	elem, err := p.merge(ast.KindLiteral, "", ast.TypeOf(start), ast.TypeOf(end))
	if err != nil {
		return nil, err
	}
	if !ast.IsComplete(elem) {
		elem = ast.NewType(ast.TagInt)
	}
	if sub := l.Type.(*ast.Type).Sub; ast.IsComplete(sub) {
		elem = sub
	}
	return &ast.Literal{Value: l.Value, Items: l.Items, Start: start, End: end, Type: ast.RangeOf(elem)}, nil
}

func (p *pass) forLoop(w *transform.Walker, l *ast.ForLoop) (ast.Node, error) {
	src, err := w.Walk(l.Source)
	if err != nil {
		return nil, err
	}
	v := ast.Empty
	if lv := l.Variable(); lv != nil {
		t := lv.Type
		if !ast.IsComplete(t) {
			if st, ok := ast.TypeOf(src).(*ast.Type); ok {
				t = st.Elem()
			}
		}
		if p.final && !ast.IsComplete(t) {
			return nil, unresolved(ast.KindFor, lv.Name)
		}
		p.env.bind(lv.Name, t)
		v = ast.NewVariable(lv.Name, t)
	}
	body, err := w.WalkBlock(l.Body)
	if err != nil {
		return nil, err
	}
	return &ast.ForLoop{Var: v, Source: src, Body: body}, nil
}
