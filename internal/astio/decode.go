package astio

import (
	"fortio.org/safecast"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// FromRecord rebuilds a tree from its serialized form. A nil record is
// Empty.
func FromRecord(r *Record) (ast.Node, error) {
	if r == nil {
		return ast.Empty, nil
	}
	kind, ok := ast.ParseKind(r.Kind)
	if !ok {
		return nil, diag.Newf(diag.MalformedNode, r.Kind, "unknown node kind")
	}
	d := decoder{rec: r, kind: kind}

	switch kind {
	case ast.KindEmpty:
		return ast.Empty, nil
	case ast.KindList:
		items := make([]ast.Node, 0, len(r.Items))
		for _, item := range r.Items {
			n, err := FromRecord(item)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return ast.NewList(items...), nil
	case ast.KindFile:
		return &ast.File{Statements: d.list(fieldStatements)}, d.err
	case ast.KindType:
		tag, err := ast.ParseTag(r.Tag)
		if err != nil {
			return nil, diag.Newf(diag.MalformedNode, r.Kind, "%v", err)
		}
		length, err := safecast.Conv[int](r.Length)
		if err != nil || length < 0 {
			return nil, diag.Newf(diag.MalformedNode, r.Kind, "invalid length %d", r.Length)
		}
		return &ast.Type{Tag: tag, Sub: d.node(fieldSub), Length: length}, d.err
	case ast.KindLiteral:
		value, err := literalValue(r)
		if err != nil {
			return nil, err
		}
		lit := &ast.Literal{
			Value: value,
			Items: d.list(fieldItems),
			Start: d.node(fieldStart),
			End:   d.node(fieldEnd),
			Type:  d.node(fieldType),
		}
		if d.err != nil {
			return nil, d.err
		}
		if err := lit.CheckValue(); err != nil {
			return nil, err
		}
		return lit, nil
	case ast.KindVariable:
		return &ast.Variable{Name: r.Name, Type: d.node(fieldType)}, d.err
	case ast.KindBuffer:
		capacity, err := safecast.Conv[int](r.Capacity)
		if err != nil {
			return nil, diag.Newf(diag.MalformedNode, r.Kind, "invalid capacity %d", r.Capacity)
		}
		return &ast.Buffer{Var: d.variable(fieldVar), Capacity: capacity}, d.err
	case ast.KindUse:
		u := &ast.UseStatement{
			Name:     r.Name,
			Return:   d.node(fieldReturn),
			Params:   d.list(fieldParams),
			Variadic: r.Variadic,
		}
		return u, d.err
	case ast.KindFnDef:
		def := &ast.FnDef{
			Name:   r.Name,
			Return: d.node(fieldReturn),
			Params: d.list(fieldParams),
			Guard:  d.node(fieldGuard),
			Body:   d.list(fieldBody),
		}
		if d.err == nil {
			for i, p := range def.Params.Items {
				if _, ok := p.(*ast.Variable); !ok {
					return nil, diag.Newf(diag.MalformedNode, r.Kind, "parameter %d is a %s", i, p.Kind()).WithName(r.Name)
				}
			}
		}
		return def, d.err
	case ast.KindIf:
		b := &ast.IfBlock{Test: d.node(fieldTest), Pass: d.list(fieldPass), Fail: d.node(fieldFail)}
		if d.err == nil && !ast.IsEmpty(b.Fail) && b.FailList() == nil {
			return nil, diag.Newf(diag.MalformedNode, r.Kind, "else branch must be a list")
		}
		return b, d.err
	case ast.KindFor:
		return &ast.ForLoop{Var: d.node(fieldVar), Source: d.node(fieldSource), Body: d.list(fieldBody)}, d.err
	case ast.KindCall:
		c := &ast.FnCall{
			Name:      r.Name,
			Args:      d.list(fieldArgs),
			Type:      d.node(fieldType),
			Signature: d.node(fieldSignature),
		}
		if d.err == nil && !ast.IsEmpty(c.Signature) && c.Sig() == nil {
			return nil, diag.Newf(diag.MalformedNode, r.Kind, "signature must be a use statement").WithName(r.Name)
		}
		return c, d.err
	case ast.KindReturn:
		return &ast.Return{Expr: d.node(fieldExpr), Type: d.node(fieldType)}, d.err
	case ast.KindVarDecl:
		return &ast.VarDecl{Var: d.variable(fieldVar), Type: d.typ(fieldType)}, d.err
	case ast.KindAssign:
		return &ast.Assign{Target: d.variable(fieldTarget), Expr: d.node(fieldExpr), Type: d.node(fieldType)}, d.err
	case ast.KindOp:
		op, err := ast.ParseOperator(r.Op)
		if err != nil {
			return nil, err
		}
		return &ast.Op{Operator: op, Left: d.node(fieldLeft), Right: d.node(fieldRight), Type: d.node(fieldType)}, d.err
	case ast.KindStrConcat:
		return &ast.StrConcat{Items: d.list(fieldItems)}, d.err
	case ast.KindCast:
		return &ast.Cast{Target: d.typ(fieldTarget), Expr: d.node(fieldExpr)}, d.err
	}
	return nil, diag.Newf(diag.MalformedNode, r.Kind, "cannot deserialize")
}

// literalValue returns the one scalar field set on r, or nil when none is.
func literalValue(r *Record) (any, error) {
	var values []any
	if r.Int != nil {
		values = append(values, *r.Int)
	}
	if r.Float != nil {
		values = append(values, *r.Float)
	}
	if r.Str != nil {
		values = append(values, *r.Str)
	}
	if r.Bool != nil {
		values = append(values, *r.Bool)
	}
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return values[0], nil
	}
	return nil, diag.Newf(diag.MalformedNode, r.Kind, "literal holds %d values", len(values))
}

// decoder keeps the first error seen while reading a record's fields.
type decoder struct {
	rec  *Record
	kind ast.Kind
	err  error
}

func (d *decoder) fail(name, format string, args ...any) {
	if d.err == nil {
		d.err = diag.Newf(diag.MalformedNode, d.kind.String(), "field %s: "+format, append([]any{name}, args...)...)
	}
}

func (d *decoder) node(name string) ast.Node {
	if d.err != nil {
		return ast.Empty
	}
	n, err := FromRecord(d.rec.field(name))
	if err != nil {
		d.err = err
		return ast.Empty
	}
	return n
}

func (d *decoder) list(name string) *ast.List {
	n := d.node(name)
	if ast.IsEmpty(n) {
		return ast.NewList()
	}
	l, ok := n.(*ast.List)
	if !ok {
		d.fail(name, "expected List, found %s", n.Kind())
		return ast.NewList()
	}
	return l
}

func (d *decoder) variable(name string) *ast.Variable {
	n := d.node(name)
	v, ok := n.(*ast.Variable)
	if !ok && d.err == nil {
		d.fail(name, "expected Variable, found %s", n.Kind())
	}
	return v
}

func (d *decoder) typ(name string) *ast.Type {
	n := d.node(name)
	t, ok := n.(*ast.Type)
	if !ok && d.err == nil {
		d.fail(name, "expected Type, found %s", n.Kind())
	}
	return t
}
