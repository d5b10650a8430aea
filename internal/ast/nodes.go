package ast

import (
	"fmt"

	"dysc/internal/diag"
)

// Literal is a constant value. Scalars keep Value (int64, float64, string
// or bool); arrays keep their elements in Items; ranges keep Start and End.
type Literal struct {
	Value any
	Items *List
	Start Node
	End   Node
	Type  Node
}

func newScalar(v any, tag Tag) *Literal {
	return &Literal{Value: v, Items: NewList(), Start: Empty, End: Empty, Type: NewType(tag)}
}

func IntLit(v int64) *Literal     { return newScalar(v, TagInt) }
func FloatLit(v float64) *Literal { return newScalar(v, TagFloat) }
func StringLit(s string) *Literal { return newScalar(s, TagString) }
func BoolLit(b bool) *Literal     { return newScalar(b, TagBool) }

// CheckValue reports a MalformedNode error when a scalar literal's Value
// does not match its tag. Arrays, ranges and untyped literals pass.
func (l *Literal) CheckValue() error {
	var ok bool
	switch l.Tag() {
	case TagInt:
		_, ok = l.Value.(int64)
	case TagFloat:
		_, ok = l.Value.(float64)
	case TagString:
		_, ok = l.Value.(string)
	case TagBool:
		_, ok = l.Value.(bool)
	default:
		return nil
	}
	if ok {
		return nil
	}
	return diag.Mismatch(diag.MalformedNode, KindLiteral.String(), "", l.Tag().String(), valueKind(l.Value))
}

func valueKind(v any) string {
	switch v.(type) {
	case nil:
		return "no value"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	return fmt.Sprintf("%T", v)
}

// ArrayLit builds an array literal whose element type is left for inference.
func ArrayLit(items ...Node) *Literal {
	l := NewList(items...)
	return &Literal{Items: l, Start: Empty, End: Empty, Type: ArrayOf(Empty, l.Len())}
}

// RangeLit builds an inclusive range literal start..end.
func RangeLit(start, end Node) *Literal {
	return &Literal{Items: NewList(), Start: orEmpty(start), End: orEmpty(end), Type: RangeOf(Empty)}
}

func (l *Literal) Kind() Kind { return KindLiteral }

// Tag returns the literal's type tag, or TagInvalid when untyped.
func (l *Literal) Tag() Tag {
	if t, ok := l.Type.(*Type); ok {
		return t.Tag
	}
	return TagInvalid
}

func (l *Literal) TransformChildren(f TransformFunc) (Node, error) {
	items, err := applyList(f, l.Items)
	if err != nil {
		return nil, err
	}
	start, err := apply(f, l.Start)
	if err != nil {
		return nil, err
	}
	end, err := apply(f, l.End)
	if err != nil {
		return nil, err
	}
	typ, err := applyOptType(KindLiteral, "Type", f, l.Type)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: l.Value, Items: items, Start: start, End: end, Type: typ}, nil
}

func (l *Literal) String() string { return Dump(l) }

// Variable is a named value; Type stays Empty until inferred.
type Variable struct {
	Name string
	Type Node
}

func NewVariable(name string, typ Node) *Variable {
	return &Variable{Name: name, Type: orEmpty(typ)}
}

func (v *Variable) Kind() Kind { return KindVariable }

func (v *Variable) TransformChildren(f TransformFunc) (Node, error) {
	typ, err := applyOptType(KindVariable, "Type", f, v.Type)
	if err != nil {
		return nil, err
	}
	return &Variable{Name: v.Name, Type: typ}, nil
}

func (v *Variable) String() string { return Dump(v) }

// Buffer is a fixed-capacity mutable string cell bound to Var.
type Buffer struct {
	Var      *Variable
	Capacity int
}

func NewBuffer(v *Variable, capacity int) *Buffer {
	return &Buffer{Var: v, Capacity: capacity}
}

func (b *Buffer) Kind() Kind { return KindBuffer }

func (b *Buffer) TransformChildren(f TransformFunc) (Node, error) {
	v, err := applyVariable(KindBuffer, "Var", f, b.Var)
	if err != nil {
		return nil, err
	}
	return &Buffer{Var: v, Capacity: b.Capacity}, nil
}

func (b *Buffer) String() string { return Dump(b) }

// UseStatement declares an externally linked function. Return is Empty
// for functions without a result.
type UseStatement struct {
	Name     string
	Return   Node
	Params   *List
	Variadic bool
}

func NewUse(name string, ret Node, params []Node, variadic bool) *UseStatement {
	return &UseStatement{Name: name, Return: orEmpty(ret), Params: NewList(params...), Variadic: variadic}
}

func (u *UseStatement) Kind() Kind { return KindUse }

// Signature returns the declaration with its name blanked.
func (u *UseStatement) Signature() *UseStatement {
	return &UseStatement{Return: u.Return, Params: u.Params, Variadic: u.Variadic}
}

// ParamType returns the declared type of parameter i, or Empty past the
// fixed parameters.
func (u *UseStatement) ParamType(i int) Node {
	if i < 0 || i >= u.Params.Len() {
		return Empty
	}
	return u.Params.Items[i]
}

func (u *UseStatement) TransformChildren(f TransformFunc) (Node, error) {
	ret, err := applyOptType(KindUse, "Return", f, u.Return)
	if err != nil {
		return nil, err
	}
	params, err := applyList(f, u.Params)
	if err != nil {
		return nil, err
	}
	for _, p := range params.Items {
		if _, ok := p.(*Type); !ok {
			return nil, malformed(KindUse, "Params", p)
		}
	}
	return &UseStatement{Name: u.Name, Return: ret, Params: params, Variadic: u.Variadic}, nil
}

func (u *UseStatement) String() string { return Dump(u) }

// FnDef is one definition of a function. Several definitions may share a
// name; each is selected by its Guard until guard inlining merges them.
type FnDef struct {
	Name   string
	Return Node
	Params *List
	Guard  Node
	Body   *List
}

// NewFnDef validates that every parameter is a Variable.
func NewFnDef(name string, ret Node, params []Node, guard Node, body ...Node) (*FnDef, error) {
	for _, p := range params {
		if _, ok := p.(*Variable); !ok {
			return nil, malformed(KindFnDef, "Params", p)
		}
	}
	return &FnDef{
		Name:   name,
		Return: orEmpty(ret),
		Params: NewList(params...),
		Guard:  orEmpty(guard),
		Body:   NewList(body...),
	}, nil
}

func (d *FnDef) Kind() Kind { return KindFnDef }

// Param returns parameter i.
func (d *FnDef) Param(i int) *Variable {
	return d.Params.Items[i].(*Variable)
}

// Signature derives the name-blanked signature from the parameter types.
// ok is false while any parameter is still untyped.
func (d *FnDef) Signature() (*UseStatement, bool) {
	types := make([]Node, 0, d.Params.Len())
	ok := true
	for i := range d.Params.Items {
		t := d.Param(i).Type
		if !IsComplete(t) {
			ok = false
		}
		types = append(types, t)
	}
	return &UseStatement{Return: d.Return, Params: &List{Items: types}, Variadic: false}, ok
}

func (d *FnDef) TransformChildren(f TransformFunc) (Node, error) {
	ret, err := applyOptType(KindFnDef, "Return", f, d.Return)
	if err != nil {
		return nil, err
	}
	params, err := applyList(f, d.Params)
	if err != nil {
		return nil, err
	}
	for _, p := range params.Items {
		if _, ok := p.(*Variable); !ok {
			return nil, malformed(KindFnDef, "Params", p)
		}
	}
	guard, err := apply(f, d.Guard)
	if err != nil {
		return nil, err
	}
	body, err := applyBlock(f, d.Body)
	if err != nil {
		return nil, err
	}
	return &FnDef{Name: d.Name, Return: ret, Params: params, Guard: guard, Body: body}, nil
}

func (d *FnDef) String() string { return Dump(d) }

// IfBlock is a conditional; Fail is Empty or a *List.
type IfBlock struct {
	Test Node
	Pass *List
	Fail Node
}

func NewIf(test Node, pass *List, fail Node) *IfBlock {
	if pass == nil {
		pass = NewList()
	}
	return &IfBlock{Test: orEmpty(test), Pass: pass, Fail: orEmpty(fail)}
}

func (b *IfBlock) Kind() Kind { return KindIf }

// FailList returns the else branch, or nil when there is none.
func (b *IfBlock) FailList() *List {
	if l, ok := b.Fail.(*List); ok {
		return l
	}
	return nil
}

func (b *IfBlock) TransformChildren(f TransformFunc) (Node, error) {
	test, err := apply(f, b.Test)
	if err != nil {
		return nil, err
	}
	pass, err := applyBlock(f, b.Pass)
	if err != nil {
		return nil, err
	}
	fail := Empty
	if l := b.FailList(); l != nil {
		fl, err := applyBlock(f, l)
		if err != nil {
			return nil, err
		}
		fail = fl
	} else if !IsEmpty(b.Fail) {
		return nil, malformed(KindIf, "Fail", b.Fail)
	}
	return &IfBlock{Test: test, Pass: pass, Fail: fail}, nil
}

func (b *IfBlock) String() string { return Dump(b) }

// ForLoop iterates Source, binding each element to Var when present.
type ForLoop struct {
	Var    Node
	Source Node
	Body   *List
}

func NewFor(v Node, source Node, body ...Node) *ForLoop {
	return &ForLoop{Var: orEmpty(v), Source: orEmpty(source), Body: NewList(body...)}
}

func (l *ForLoop) Kind() Kind { return KindFor }

// Variable returns the bound loop variable, or nil.
func (l *ForLoop) Variable() *Variable {
	v, _ := l.Var.(*Variable)
	return v
}

func (l *ForLoop) TransformChildren(f TransformFunc) (Node, error) {
	v, err := apply(f, l.Var)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(*Variable); !ok && !IsEmpty(v) {
		return nil, malformed(KindFor, "Var", v)
	}
	src, err := apply(f, l.Source)
	if err != nil {
		return nil, err
	}
	body, err := applyBlock(f, l.Body)
	if err != nil {
		return nil, err
	}
	return &ForLoop{Var: v, Source: src, Body: body}, nil
}

func (l *ForLoop) String() string { return Dump(l) }

// FnCall invokes Name. Type is the resolved result type; Signature is
// Empty or the *UseStatement the arguments are coerced against.
type FnCall struct {
	Name      string
	Args      *List
	Type      Node
	Signature Node
}

func NewCall(name string, args ...Node) *FnCall {
	return &FnCall{Name: name, Args: NewList(args...), Type: Empty, Signature: Empty}
}

func (c *FnCall) Kind() Kind { return KindCall }

// Sig returns the attached signature or nil.
func (c *FnCall) Sig() *UseStatement {
	s, _ := c.Signature.(*UseStatement)
	return s
}

func (c *FnCall) TransformChildren(f TransformFunc) (Node, error) {
	args, err := applyList(f, c.Args)
	if err != nil {
		return nil, err
	}
	typ, err := applyOptType(KindCall, "Type", f, c.Type)
	if err != nil {
		return nil, err
	}
	sig, err := apply(f, c.Signature)
	if err != nil {
		return nil, err
	}
	if _, ok := sig.(*UseStatement); !ok && !IsEmpty(sig) {
		return nil, malformed(KindCall, "Signature", sig)
	}
	return &FnCall{Name: c.Name, Args: args, Type: typ, Signature: sig}, nil
}

func (c *FnCall) String() string { return Dump(c) }

// Return leaves the enclosing function. Expr is Empty for a bare return.
type Return struct {
	Expr Node
	Type Node
}

func NewReturn(expr Node) *Return {
	return &Return{Expr: orEmpty(expr), Type: TypeOf(orEmpty(expr))}
}

func (r *Return) Kind() Kind { return KindReturn }

func (r *Return) TransformChildren(f TransformFunc) (Node, error) {
	expr, err := apply(f, r.Expr)
	if err != nil {
		return nil, err
	}
	typ, err := applyOptType(KindReturn, "Type", f, r.Type)
	if err != nil {
		return nil, err
	}
	return &Return{Expr: expr, Type: typ}, nil
}

func (r *Return) String() string { return Dump(r) }

// VarDecl seeds a variable's type; it has no runtime effect.
type VarDecl struct {
	Var  *Variable
	Type *Type
}

// NewVarDecl rejects anything but a Variable and a Type.
func NewVarDecl(v Node, t Node) (*VarDecl, error) {
	nv, ok := v.(*Variable)
	if !ok {
		return nil, malformed(KindVarDecl, "Var", v)
	}
	nt, ok := t.(*Type)
	if !ok {
		return nil, malformed(KindVarDecl, "Type", t)
	}
	return &VarDecl{Var: nv, Type: nt}, nil
}

func (d *VarDecl) Kind() Kind { return KindVarDecl }

func (d *VarDecl) TransformChildren(f TransformFunc) (Node, error) {
	v, err := applyVariable(KindVarDecl, "Var", f, d.Var)
	if err != nil {
		return nil, err
	}
	t, err := applyType(KindVarDecl, "Type", f, d.Type)
	if err != nil {
		return nil, err
	}
	return &VarDecl{Var: v, Type: t}, nil
}

func (d *VarDecl) String() string { return Dump(d) }

// Assign binds Expr to Target.
type Assign struct {
	Target *Variable
	Expr   Node
	Type   Node
}

func NewAssign(target *Variable, expr Node, typ Node) *Assign {
	if IsEmpty(typ) {
		typ = TypeOf(orEmpty(expr))
	}
	return &Assign{Target: target, Expr: orEmpty(expr), Type: typ}
}

func (a *Assign) Kind() Kind { return KindAssign }

func (a *Assign) TransformChildren(f TransformFunc) (Node, error) {
	target, err := applyVariable(KindAssign, "Target", f, a.Target)
	if err != nil {
		return nil, err
	}
	expr, err := apply(f, a.Expr)
	if err != nil {
		return nil, err
	}
	typ, err := applyOptType(KindAssign, "Type", f, a.Type)
	if err != nil {
		return nil, err
	}
	return &Assign{Target: target, Expr: expr, Type: typ}, nil
}

func (a *Assign) String() string { return Dump(a) }

// Operator is a binary operator.
type Operator uint8

const (
	OpInvalid Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var operatorNames = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpRem:     "%",
	OpEq:      "==",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpAnd:     "&&",
	OpOr:      "||",
}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return "?"
}

// ParseOperator maps an operator token to its Operator.
func ParseOperator(s string) (Operator, error) {
	for i, name := range operatorNames {
		if i != int(OpInvalid) && name == s {
			return Operator(i), nil
		}
	}
	return OpInvalid, diag.Newf(diag.MalformedNode, KindOp.String(), "unknown operator %q", s)
}

// IsComparison reports whether the operator always yields bool.
func (o Operator) IsComparison() bool {
	return o >= OpEq && o <= OpGe
}

// IsLogical reports whether the operator combines two bools.
func (o Operator) IsLogical() bool {
	return o == OpAnd || o == OpOr
}

// Op is a binary operation.
type Op struct {
	Operator Operator
	Left     Node
	Right    Node
	Type     Node
}

// NewOp types comparisons as bool up front.
func NewOp(op Operator, left, right Node) *Op {
	typ := Empty
	if op.IsComparison() {
		typ = NewType(TagBool)
	}
	return &Op{Operator: op, Left: orEmpty(left), Right: orEmpty(right), Type: typ}
}

func (o *Op) Kind() Kind { return KindOp }

func (o *Op) TransformChildren(f TransformFunc) (Node, error) {
	left, err := apply(f, o.Left)
	if err != nil {
		return nil, err
	}
	right, err := apply(f, o.Right)
	if err != nil {
		return nil, err
	}
	typ, err := applyOptType(KindOp, "Type", f, o.Type)
	if err != nil {
		return nil, err
	}
	return &Op{Operator: o.Operator, Left: left, Right: right, Type: typ}, nil
}

func (o *Op) String() string { return Dump(o) }

// StrConcat joins its items into one string.
type StrConcat struct {
	Items *List
}

func NewStrConcat(items ...Node) *StrConcat {
	return &StrConcat{Items: NewList(items...)}
}

func (s *StrConcat) Kind() Kind { return KindStrConcat }

func (s *StrConcat) TransformChildren(f TransformFunc) (Node, error) {
	items, err := applyList(f, s.Items)
	if err != nil {
		return nil, err
	}
	return &StrConcat{Items: items}, nil
}

func (s *StrConcat) String() string { return Dump(s) }

// Cast converts Expr to Target.
type Cast struct {
	Target *Type
	Expr   Node
}

func NewCast(target *Type, expr Node) *Cast {
	return &Cast{Target: target, Expr: orEmpty(expr)}
}

func (c *Cast) Kind() Kind { return KindCast }

func (c *Cast) TransformChildren(f TransformFunc) (Node, error) {
	target, err := applyType(KindCast, "Target", f, c.Target)
	if err != nil {
		return nil, err
	}
	expr, err := apply(f, c.Expr)
	if err != nil {
		return nil, err
	}
	return &Cast{Target: target, Expr: expr}, nil
}

func (c *Cast) String() string { return Dump(c) }

// File is the root of one compilation unit.
type File struct {
	Statements *List
}

func NewFile(stmts ...Node) *File {
	return &File{Statements: NewList(stmts...)}
}

func (f *File) Kind() Kind { return KindFile }

func (f *File) TransformChildren(fn TransformFunc) (Node, error) {
	stmts, err := applyBlock(fn, f.Statements)
	if err != nil {
		return nil, err
	}
	return &File{Statements: stmts}, nil
}

func (f *File) String() string { return Dump(f) }

// Functions returns the FnDefs at the top level of the file.
func (f *File) Functions() []*FnDef {
	var out []*FnDef
	for _, s := range f.Statements.Items {
		if d, ok := s.(*FnDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// Uses returns the UseStatements at the top level of the file.
func (f *File) Uses() []*UseStatement {
	var out []*UseStatement
	for _, s := range f.Statements.Items {
		if u, ok := s.(*UseStatement); ok {
			out = append(out, u)
		}
	}
	return out
}
