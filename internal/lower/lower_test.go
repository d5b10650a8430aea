package lower

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/infer"
	"dysc/internal/testkit"
)

func mustFn(t *testing.T, name string, params []ast.Node, guard ast.Node, body ...ast.Node) *ast.FnDef {
	t.Helper()
	d, err := ast.NewFnDef(name, ast.Empty, params, guard, body...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func ref(name string) *ast.Variable { return ast.NewVariable(name, ast.Empty) }

func TestStrConcatLowersToFormatCall(t *testing.T) {
	root := ast.NewFile(mustFn(t, "label", nil, ast.Empty,
		ast.NewReturn(ast.NewStrConcat(ast.StringLit("count: "), ast.IntLit(5)))))
	out, err := LowerStrConcat(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	stmts := out.(*ast.File).Statements
	if u, ok := stmts.Last().(*ast.UseStatement); !ok || u.Name != FormatFunc || !u.Variadic {
		t.Fatalf("expected snprintf declaration appended, got %s", ast.Dump(stmts.Last()))
	}

	ret := stmts.First().(*ast.FnDef).Body.First().(*ast.Return)
	seq, ok := ret.Expr.(*ast.List)
	if !ok || seq.Len() != 2 {
		t.Fatalf("expected call and buffer reference, got %s", ast.Dump(ret.Expr))
	}
	call := seq.First().(*ast.FnCall)
	if call.Name != FormatFunc || ast.TypeString(call.Type) != "int" || call.Sig() == nil {
		t.Fatalf("call: %s", ast.Dump(call))
	}
	buf, ok := call.Args.Items[0].(*ast.Buffer)
	if !ok || buf.Capacity != DefaultBufferCapacity || buf.Var.Name != "strConcat" {
		t.Fatalf("buffer argument: %s", ast.Dump(call.Args.Items[0]))
	}
	var got []string
	for _, a := range call.Args.Items[1:] {
		got = append(got, ast.Dump(a))
	}
	want := []string{"100: int", `"count: %i": string`, "5: int"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("arguments (-want +got):\n%s", diff)
	}
	if v, ok := seq.Last().(*ast.Variable); !ok || v.Name != "strConcat" || ast.TypeString(v.Type) != "string" {
		t.Fatalf("result: %s", ast.Dump(seq.Last()))
	}
	if ast.TypeString(ast.TypeOf(ret.Expr)) != "string" {
		t.Fatalf("lowered expression must stay string-typed")
	}
}

func formatOf(t *testing.T, n ast.Node) string {
	t.Helper()
	call := n.(*ast.List).First().(*ast.FnCall)
	return call.Args.Items[2].(*ast.Literal).Value.(string)
}

func TestStrConcatFormatting(t *testing.T) {
	name := ast.NewVariable("name", ast.NewType(ast.TagString))
	ratio := ast.NewVariable("ratio", ast.NewType(ast.TagFloat))
	cases := []struct {
		label string
		items []ast.Node
		want  string
	}{
		{"percent escaped", []ast.Node{ast.StringLit("100% of "), name}, "100%% of %s"},
		{"nested flattened", []ast.Node{ast.StringLit("a="), ast.NewStrConcat(ratio, ast.StringLit("!")), ast.BoolLit(true)}, "a=%f!%i"},
		{"literal only", []ast.Node{ast.StringLit("plain")}, "plain"},
	}
	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			out, err := LowerStrConcat(ast.NewStrConcat(tc.items...), Options{})
			if err != nil {
				t.Fatal(err)
			}
			if got := formatOf(t, out); got != tc.want {
				t.Fatalf("format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStrConcatBuffersAreUnique(t *testing.T) {
	root := ast.NewFile(mustFn(t, "f", nil, ast.Empty,
		ast.NewAssign(ref("a"), ast.NewStrConcat(ast.StringLit("x"), ast.IntLit(1)), ast.NewType(ast.TagString)),
		ast.NewReturn(ast.NewStrConcat(ast.StringLit("y"), ast.IntLit(2))),
	))
	out, err := LowerStrConcat(root, Options{BufferCapacity: 16})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	ast.Inspect(out, func(n ast.Node) bool {
		if b, ok := n.(*ast.Buffer); ok {
			names = append(names, b.Var.Name)
			if b.Capacity != 16 {
				t.Errorf("buffer %s capacity %d", b.Var.Name, b.Capacity)
			}
		}
		return true
	})
	if diff := cmp.Diff([]string{"strConcat", "strConcat1"}, names); diff != "" {
		t.Fatalf("buffer names (-want +got):\n%s", diff)
	}
}

func TestStrConcatKeepsDeclaredFormatFunc(t *testing.T) {
	declared := FormatUse()
	root := ast.NewFile(declared, mustFn(t, "f", nil, ast.Empty,
		ast.NewReturn(ast.NewStrConcat(ast.StringLit("n"), ast.IntLit(1)))))
	out, err := LowerStrConcat(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(out.(*ast.File).Uses()); got != 1 {
		t.Fatalf("expected one use statement, got %d", got)
	}
}

func TestStrConcatRejectsArrays(t *testing.T) {
	arr := ast.NewVariable("xs", ast.ArrayOf(ast.NewType(ast.TagInt), 2))
	_, err := LowerStrConcat(ast.NewStrConcat(ast.StringLit("xs="), arr), Options{})
	if !errors.Is(err, diag.ErrUnsupportedInterpolation) {
		t.Fatalf("expected UnsupportedInterpolation, got %v", err)
	}
}

func TestInlineGuardsMergesDefinitions(t *testing.T) {
	base := mustFn(t, "fact", []ast.Node{ast.NewVariable("n", ast.NewType(ast.TagInt))},
		ast.NewOp(ast.OpEq, ref("n"), ast.IntLit(0)),
		ast.IntLit(1))
	step := mustFn(t, "fact", []ast.Node{ast.NewVariable("m", ast.NewType(ast.TagInt))}, ast.Empty,
		ast.NewOp(ast.OpMul, ref("m"), ast.NewCall("fact", ast.NewOp(ast.OpSub, ref("m"), ast.IntLit(1)))))
	out, err := InlineGuards(ast.NewFile(base, step))
	if err != nil {
		t.Fatal(err)
	}
	fns := out.(*ast.File).Functions()
	if len(fns) != 1 {
		t.Fatalf("expected one definition, got %d", len(fns))
	}
	merged := fns[0]
	if !ast.IsEmpty(merged.Guard) || merged.Body.Len() != 2 {
		t.Fatalf("merged: %s", ast.Dump(merged))
	}
	guarded, ok := merged.Body.First().(*ast.IfBlock)
	if !ok || !ast.IsEmpty(guarded.Fail) {
		t.Fatalf("first statement should be a guarded block: %s", ast.Dump(merged.Body.First()))
	}
	if _, ok := guarded.Pass.Last().(*ast.Return); !ok {
		t.Fatalf("guarded body must end in a return: %s", ast.Dump(guarded))
	}
	tail, ok := merged.Body.Last().(*ast.Return)
	if !ok {
		t.Fatalf("trailing expression not wrapped: %s", ast.Dump(merged.Body.Last()))
	}
	var renamed bool
	ast.Inspect(tail, func(n ast.Node) bool {
		if v, ok := n.(*ast.Variable); ok {
			if v.Name == "m" {
				t.Fatalf("parameter m not renamed in %s", ast.Dump(tail))
			}
			renamed = renamed || v.Name == "n"
		}
		return true
	})
	if !renamed {
		t.Fatalf("expected references to n in %s", ast.Dump(tail))
	}
}

func TestLowerAfterInference(t *testing.T) {
	root := ast.NewFile(
		mustFn(t, "sign", []ast.Node{ref("x")}, ast.NewOp(ast.OpLt, ref("x"), ast.IntLit(0)),
			ast.NewStrConcat(ast.StringLit("neg "), ref("x"))),
		mustFn(t, "sign", []ast.Node{ref("x")}, ast.Empty,
			ast.NewStrConcat(ast.StringLit("pos "), ref("x"))),
		mustFn(t, "main", nil, ast.Empty,
			ast.NewCall("sign", ast.IntLit(-3)),
			ast.NewReturn(ast.IntLit(0))),
	)
	ctx := context.Background()
	typed, err := infer.Infer(ctx, root, infer.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Lower(ctx, typed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := testkit.CheckLowered(out); err != nil {
		t.Fatalf("lowered invariants: %v\n%s", err, ast.DumpTree(out))
	}
}
