package infer_test

import (
	"context"
	"errors"
	"testing"

	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/infer"
	"dysc/internal/testkit"
)

func fn(t *testing.T, name string, params []ast.Node, body ...ast.Node) *ast.FnDef {
	t.Helper()
	d, err := ast.NewFnDef(name, ast.Empty, params, ast.Empty, body...)
	if err != nil {
		t.Fatalf("NewFnDef(%s): %v", name, err)
	}
	return d
}

func param(name string) ast.Node { return ast.NewVariable(name, ast.Empty) }

func ref(name string) *ast.Variable { return ast.NewVariable(name, ast.Empty) }

func intType() *ast.Type { return ast.NewType(ast.TagInt) }

func printfUse() *ast.UseStatement {
	return ast.NewUse("printf", intType(), []ast.Node{ast.NewType(ast.TagString)}, true)
}

func run(t *testing.T, root ast.Node) *ast.File {
	t.Helper()
	out, err := infer.Infer(context.Background(), root, infer.Options{})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if err := testkit.CheckTyped(out); err != nil {
		t.Fatalf("typed invariants: %v\n%s", err, ast.DumpTree(out))
	}
	return out.(*ast.File)
}

func defs(f *ast.File) map[string]*ast.FnDef {
	out := make(map[string]*ast.FnDef)
	for _, d := range f.Functions() {
		out[d.Name] = d
	}
	return out
}

func TestAddInfersInt(t *testing.T) {
	out := run(t, ast.NewFile(fn(t, "add", nil, ast.NewReturn(ast.NewOp(ast.OpAdd, ast.IntLit(2), ast.IntLit(3))))))
	add := defs(out)["add"]
	ret := add.Body.First().(*ast.Return)
	if got := ast.TypeString(ret.Type); got != "int" {
		t.Fatalf("return type = %s", got)
	}
	if got := ast.TypeString(ret.Expr.(*ast.Op).Type); got != "int" {
		t.Fatalf("op type = %s", got)
	}
	if got := ast.TypeString(add.Return); got != "int" {
		t.Fatalf("function return = %s", got)
	}
}

func TestParametersTypedFromCallSites(t *testing.T) {
	out := run(t, ast.NewFile(
		fn(t, "double", []ast.Node{param("n")}, ast.NewReturn(ast.NewOp(ast.OpMul, ref("n"), ast.IntLit(2)))),
		fn(t, "main", nil, ast.NewReturn(ast.NewCall("double", ast.IntLit(21)))),
	))
	d := defs(out)
	if got := ast.TypeString(d["double"].Param(0).Type); got != "int" {
		t.Fatalf("param type = %s", got)
	}
	call := d["main"].Body.First().(*ast.Return).Expr.(*ast.FnCall)
	if got := ast.TypeString(call.Type); got != "int" {
		t.Fatalf("call type = %s", got)
	}
	if !ast.IsEmpty(call.Signature) {
		t.Fatalf("signature attached to a call whose argument types already match: %s", ast.Dump(call.Signature))
	}
}

func TestCallsAreSpecializedPerArgumentTuple(t *testing.T) {
	out := run(t, ast.NewFile(
		printfUse(),
		fn(t, "show", []ast.Node{param("x")}, ast.NewReturn(ref("x"))),
		fn(t, "main", nil,
			ast.NewCall("show", ast.IntLit(1)),
			ast.NewCall("show", ast.StringLit("one")),
			ast.NewReturn(ast.IntLit(0)),
		),
	))
	d := defs(out)
	show, clone := d["show"], d["show.string"]
	if show == nil || clone == nil {
		t.Fatalf("expected show and show.string, got:\n%s", ast.DumpTree(out))
	}
	if got := ast.TypeString(show.Param(0).Type); got != "int" {
		t.Fatalf("show param = %s", got)
	}
	if got := ast.TypeString(show.Return); got != "int" {
		t.Fatalf("show return = %s", got)
	}
	if got := ast.TypeString(clone.Param(0).Type); got != "string" {
		t.Fatalf("clone param = %s", got)
	}
	if got := ast.TypeString(clone.Return); got != "string" {
		t.Fatalf("clone return = %s", got)
	}
	body := d["main"].Body
	if name := body.Items[0].(*ast.FnCall).Name; name != "show" {
		t.Fatalf("int call renamed to %q", name)
	}
	second := body.Items[1].(*ast.FnCall)
	if second.Name != "show.string" || ast.TypeString(second.Type) != "string" {
		t.Fatalf("string call: %s", ast.Dump(second))
	}
}

func TestRerunIsNoop(t *testing.T) {
	first := run(t, ast.NewFile(
		fn(t, "show", []ast.Node{param("x")}, ast.NewReturn(ref("x"))),
		fn(t, "main", nil,
			ast.NewCall("show", ast.IntLit(1)),
			ast.NewCall("show", ast.FloatLit(2.5)),
			ast.NewReturn(ast.IntLit(0)),
		),
	))
	second := run(t, first)
	if !ast.Equal(first, second) {
		t.Fatalf("second run changed the tree:\nfirst:\n%s\nsecond:\n%s", ast.DumpTree(first), ast.DumpTree(second))
	}
}

func TestVariadicCallCarriesSignature(t *testing.T) {
	out := run(t, ast.NewFile(
		printfUse(),
		fn(t, "main", nil,
			ast.NewCall("printf", ast.StringLit("%i\n"), ast.IntLit(4)),
			ast.NewReturn(ast.IntLit(0)),
		),
	))
	call := defs(out)["main"].Body.First().(*ast.FnCall)
	sig := call.Sig()
	if sig == nil || !sig.Variadic {
		t.Fatalf("variadic call without signature: %s", ast.Dump(call))
	}
	if got := ast.TypeString(call.Type); got != "int" {
		t.Fatalf("call type = %s", got)
	}
}

func TestVarDeclSeedsThenDisappears(t *testing.T) {
	decl, err := ast.NewVarDecl(ref("ratio"), ast.NewType(ast.TagFloat))
	if err != nil {
		t.Fatal(err)
	}
	out := run(t, ast.NewFile(fn(t, "f", nil,
		decl,
		ast.NewAssign(ref("ratio"), ast.FloatLit(0.5), ast.Empty),
		ast.NewReturn(ref("ratio")),
	)))
	body := defs(out)["f"].Body
	if body.Len() != 2 {
		t.Fatalf("declaration not erased:\n%s", ast.DumpTree(body))
	}
	if got := ast.TypeString(body.Last().(*ast.Return).Type); got != "float" {
		t.Fatalf("return type = %s", got)
	}
}

func TestAssignmentAdoptsExpressionType(t *testing.T) {
	out := run(t, ast.NewFile(fn(t, "f", nil,
		ast.NewAssign(ref("s"), ast.StringLit("hi"), ast.Empty),
		ast.NewReturn(ref("s")),
	)))
	assign := defs(out)["f"].Body.First().(*ast.Assign)
	if ast.TypeString(assign.Type) != "string" || ast.TypeString(assign.Target.Type) != "string" {
		t.Fatalf("assignment: %s", ast.Dump(assign))
	}
}

func TestLoopVariables(t *testing.T) {
	out := run(t, ast.NewFile(
		printfUse(),
		fn(t, "main", nil,
			ast.NewFor(ref("i"), ast.RangeLit(ast.IntLit(1), ast.IntLit(3)),
				ast.NewCall("printf", ast.StringLit("%i\n"), ref("i"))),
			ast.NewFor(ref("w"), ast.ArrayLit(ast.StringLit("a"), ast.StringLit("b")),
				ast.NewCall("printf", ref("w"))),
			ast.NewReturn(ast.IntLit(0)),
		),
	))
	body := defs(out)["main"].Body
	rangeLoop := body.Items[0].(*ast.ForLoop)
	if got := ast.TypeString(rangeLoop.Variable().Type); got != "int" {
		t.Fatalf("range variable = %s", got)
	}
	arrayLoop := body.Items[1].(*ast.ForLoop)
	if got := ast.TypeString(arrayLoop.Variable().Type); got != "string" {
		t.Fatalf("array variable = %s", got)
	}
	if got := ast.TypeString(ast.TypeOf(arrayLoop.Source)); got != "array<string>[2]" {
		t.Fatalf("array literal type = %s", got)
	}
}

func TestGuardedDefinitionsShareSignature(t *testing.T) {
	n := param("n")
	base, err := ast.NewFnDef("fact", ast.Empty, []ast.Node{n}, ast.NewOp(ast.OpEq, ref("n"), ast.IntLit(0)),
		ast.NewReturn(ast.IntLit(1)))
	if err != nil {
		t.Fatal(err)
	}
	step := fn(t, "fact", []ast.Node{param("n")},
		ast.NewReturn(ast.NewOp(ast.OpMul, ref("n"),
			ast.NewCall("fact", ast.NewOp(ast.OpSub, ref("n"), ast.IntLit(1))))))
	out := run(t, ast.NewFile(base, step,
		fn(t, "main", nil, ast.NewReturn(ast.NewCall("fact", ast.IntLit(5))))))
	for _, d := range out.Functions() {
		if d.Name == "fact" && ast.TypeString(d.Return) != "int" {
			t.Fatalf("definition not typed: %s", ast.Dump(d))
		}
	}
}

func TestFailures(t *testing.T) {
	cases := []struct {
		name string
		tree ast.Node
		want error
	}{
		{
			name: "unresolved variable",
			tree: ast.NewFile(fn(t, "f", nil, ast.NewReturn(ref("ghost")))),
			want: diag.ErrUnresolvedType,
		},
		{
			name: "operand mismatch",
			tree: ast.NewFile(fn(t, "f", nil, ast.NewReturn(ast.NewOp(ast.OpAdd, ast.IntLit(1), ast.StringLit("a"))))),
			want: diag.ErrTypeMismatch,
		},
		{
			name: "undefined function",
			tree: ast.NewFile(fn(t, "f", nil, ast.NewReturn(ast.NewCall("nowhere", ast.IntLit(1))))),
			want: diag.ErrUndefinedFunction,
		},
		{
			name: "conflicting returns",
			tree: ast.NewFile(fn(t, "f", nil,
				ast.NewIf(ast.BoolLit(true), ast.NewList(ast.NewReturn(ast.IntLit(1))), ast.Empty),
				ast.NewReturn(ast.StringLit("x")))),
			want: diag.ErrTypeMismatch,
		},
		{
			name: "uncalled untyped parameter",
			tree: ast.NewFile(fn(t, "f", []ast.Node{param("p")}, ast.NewReturn(ast.IntLit(1)))),
			want: diag.ErrUnresolvedType,
		},
		{
			name: "recursion on ever wider types",
			tree: ast.NewFile(
				fn(t, "f", []ast.Node{param("x")}, ast.NewCall("f", ast.ArrayLit(ref("x")))),
				fn(t, "main", nil, ast.NewCall("f", ast.IntLit(1)))),
			want: diag.ErrInferenceStalled,
		},
		{
			name: "redeclared external",
			tree: ast.NewFile(
				ast.NewUse("puts", intType(), []ast.Node{ast.NewType(ast.TagString)}, false),
				ast.NewUse("puts", intType(), []ast.Node{ast.NewType(ast.TagFloat)}, false)),
			want: diag.ErrNodeConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := infer.Infer(context.Background(), tc.tree, infer.Options{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEngineCountsPasses(t *testing.T) {
	e := infer.NewEngine(infer.Options{PassFactor: 2})
	if _, err := e.Run(context.Background(), ast.NewFile(fn(t, "f", nil, ast.NewReturn(ast.IntLit(1))))); err != nil {
		t.Fatal(err)
	}
	if e.Passes() < 2 {
		t.Fatalf("expected at least one inference pass and the checking pass, got %d", e.Passes())
	}
}
