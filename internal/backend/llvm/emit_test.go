package llvm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/lower"
)

func typ(tag ast.Tag) *ast.Type { return ast.NewType(tag) }

func param(name string, tag ast.Tag) *ast.Variable { return ast.NewVariable(name, typ(tag)) }

func fn(t *testing.T, name string, ret ast.Node, params []ast.Node, body ...ast.Node) *ast.FnDef {
	t.Helper()
	d, err := ast.NewFnDef(name, ret, params, ast.Empty, body...)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func generate(t *testing.T, stmts ...ast.Node) string {
	t.Helper()
	out, err := Generate(ast.NewFile(stmts...), Options{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return out
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

func TestGenerateArithmetic(t *testing.T) {
	got := generate(t, fn(t, "add", typ(ast.TagInt), nil,
		ast.NewReturn(ast.NewOp(ast.OpAdd, ast.IntLit(2), ast.IntLit(3)))))
	want := lines(
		"define i32 @add() {",
		"  %add = add i32 2, 3",
		"  ret i32 %add",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateIfWithoutElse(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t,
		ast.NewUse("tick", ast.Empty, nil, false),
		fn(t, "f", typ(ast.TagInt), []ast.Node{x},
			ast.NewIf(ast.NewOp(ast.OpGt, x, ast.IntLit(0)), ast.NewList(ast.NewCall("tick")), ast.Empty),
			ast.NewReturn(x)))
	want := lines(
		"declare void @tick()",
		"",
		"define i32 @f(i32 %x) {",
		"  %cmp = icmp sgt i32 %x, 0",
		"  br i1 %cmp, label %IfTrue, label %Continue",
		"IfTrue:",
		"  call void () @tick()",
		"  br label %Continue",
		"Continue:",
		"  ret i32 %x",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateIfElseBothReturn(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "sign", typ(ast.TagInt), []ast.Node{x},
		ast.NewIf(ast.NewOp(ast.OpLt, x, ast.IntLit(0)),
			ast.NewList(ast.NewReturn(ast.IntLit(-1))),
			ast.NewList(ast.NewReturn(ast.IntLit(1))))))
	want := lines(
		"define i32 @sign(i32 %x) {",
		"  %cmp = icmp slt i32 %x, 0",
		"  br i1 %cmp, label %IfTrue, label %IfFalse",
		"IfTrue:",
		"  ret i32 -1",
		"IfFalse:",
		"  ret i32 1",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateIfWithoutElseReturning(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "f", typ(ast.TagInt), []ast.Node{x},
		ast.NewIf(ast.NewOp(ast.OpGt, x, ast.IntLit(0)), ast.NewList(ast.NewReturn(ast.IntLit(1))), ast.Empty),
		ast.NewReturn(ast.IntLit(0))))
	want := lines(
		"define i32 @f(i32 %x) {",
		"  %cmp = icmp sgt i32 %x, 0",
		"  br i1 %cmp, label %IfTrue, label %Continue",
		"IfTrue:",
		"  ret i32 1",
		"Continue:",
		"  ret i32 0",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateIfMergesReassignedVariable(t *testing.T) {
	c := param("c", ast.TagBool)
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "pick", typ(ast.TagInt), []ast.Node{c},
		ast.NewAssign(x, ast.IntLit(1), typ(ast.TagInt)),
		ast.NewIf(c, ast.NewList(ast.NewAssign(x, ast.IntLit(2), typ(ast.TagInt))), ast.Empty),
		ast.NewReturn(x)))
	want := lines(
		"define i32 @pick(i1 %c) {",
		"  br i1 %c, label %IfTrue, label %IfFalse",
		"IfTrue:",
		"  br label %Continue",
		"IfFalse:",
		"  br label %Continue",
		"Continue:",
		"  %x = phi i32 [ 2, %IfTrue ], [ 1, %IfFalse ]",
		"  ret i32 %x",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateIfElseMergeSkipsReturningBranch(t *testing.T) {
	c := param("c", ast.TagBool)
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "pick", typ(ast.TagInt), []ast.Node{c},
		ast.NewAssign(x, ast.IntLit(1), typ(ast.TagInt)),
		ast.NewIf(c,
			ast.NewList(ast.NewReturn(ast.IntLit(0))),
			ast.NewList(ast.NewAssign(x, ast.IntLit(3), typ(ast.TagInt)))),
		ast.NewReturn(x)))
	if strings.Contains(got, "phi") {
		t.Fatalf("single incoming edge needs no phi:\n%s", got)
	}
	if !strings.Contains(got, "Continue:\n  ret i32 3\n") {
		t.Fatalf("expected the else value after the join:\n%s", got)
	}
}

func TestGenerateIntegerTestComparesWithZero(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "nonzero", typ(ast.TagBool), []ast.Node{x},
		ast.NewIf(x, ast.NewList(ast.NewReturn(ast.BoolLit(true))), ast.Empty),
		ast.NewReturn(ast.BoolLit(false))))
	for _, line := range []string{
		"  %cond = icmp ne i32 %x, 0",
		"  br i1 %cond, label %IfTrue, label %Continue",
		"  ret i1 true",
		"  ret i1 false",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestGenerateRangeLoop(t *testing.T) {
	n := param("n", ast.TagInt)
	i := param("i", ast.TagInt)
	got := generate(t,
		ast.NewUse("show", ast.Empty, []ast.Node{typ(ast.TagInt)}, false),
		fn(t, "count", ast.Empty, []ast.Node{n},
			ast.NewFor(i, ast.RangeLit(ast.IntLit(1), n), ast.NewCall("show", i))))
	want := lines(
		"declare void @show(i32)",
		"",
		"define void @count(i32 %n) {",
		"  br label %Entry",
		"Entry:",
		"  %empty = icmp sgt i32 1, %n",
		"  br i1 %empty, label %Continue, label %Loop",
		"Loop:",
		"  %i = phi i32 [ 1, %Entry ], [ %nextvar, %Loop ]",
		"  call void (i32) @show(i32 %i)",
		"  %break = icmp sge i32 %i, %n",
		"  %nextvar = add i32 %i, 1",
		"  br i1 %break, label %Continue, label %Loop",
		"Continue:",
		"  ret void",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateLoopCarriesReassignedVariable(t *testing.T) {
	n := param("n", ast.TagInt)
	i := param("i", ast.TagInt)
	s := param("s", ast.TagInt)
	got := generate(t, fn(t, "sum", typ(ast.TagInt), []ast.Node{n},
		ast.NewAssign(s, ast.IntLit(0), typ(ast.TagInt)),
		ast.NewFor(i, ast.RangeLit(ast.IntLit(1), n),
			ast.NewAssign(s, ast.NewOp(ast.OpAdd, s, i), typ(ast.TagInt))),
		ast.NewReturn(s)))
	want := lines(
		"define i32 @sum(i32 %n) {",
		"  br label %Entry",
		"Entry:",
		"  %empty = icmp sgt i32 1, %n",
		"  br i1 %empty, label %Continue, label %Loop",
		"Loop:",
		"  %i = phi i32 [ 1, %Entry ], [ %nextvar, %Loop ]",
		"  %s = phi i32 [ 0, %Entry ], [ %add, %Loop ]",
		"  %add = add i32 %s, %i",
		"  %break = icmp sge i32 %i, %n",
		"  %nextvar = add i32 %i, 1",
		"  br i1 %break, label %Continue, label %Loop",
		"Continue:",
		"  %s.1 = phi i32 [ 0, %Entry ], [ %add, %Loop ]",
		"  ret i32 %s.1",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateLoopMergesBranchInBody(t *testing.T) {
	n := param("n", ast.TagInt)
	i := param("i", ast.TagInt)
	s := param("s", ast.TagInt)
	got := generate(t, fn(t, "sumOver", typ(ast.TagInt), []ast.Node{n},
		ast.NewAssign(s, ast.IntLit(0), typ(ast.TagInt)),
		ast.NewFor(i, ast.RangeLit(ast.IntLit(1), n),
			ast.NewIf(ast.NewOp(ast.OpGt, i, ast.IntLit(2)),
				ast.NewList(ast.NewAssign(s, ast.NewOp(ast.OpAdd, s, i), typ(ast.TagInt))), ast.Empty)),
		ast.NewReturn(s)))
	for _, line := range []string{
		"  %i = phi i32 [ 1, %Entry ], [ %nextvar, %Continue.1 ]",
		"  %s = phi i32 [ 0, %Entry ], [ %s.1, %Continue.1 ]",
		"  br i1 %cmp, label %IfTrue, label %IfFalse",
		"  %s.1 = phi i32 [ %add, %IfTrue ], [ %s, %IfFalse ]",
		"  %s.2 = phi i32 [ 0, %Entry ], [ %s.1, %Continue.1 ]",
		"  ret i32 %s.2",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestGenerateMergeRejectsChangedType(t *testing.T) {
	c := param("c", ast.TagBool)
	x := param("x", ast.TagInt)
	_, err := Generate(ast.NewFile(fn(t, "f", ast.Empty, []ast.Node{c},
		ast.NewAssign(x, ast.IntLit(1), typ(ast.TagInt)),
		ast.NewIf(c, ast.NewList(ast.NewAssign(x, ast.FloatLit(2), typ(ast.TagFloat))), ast.Empty))), Options{})
	if !errors.Is(err, diag.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestGenerateRejectsLiteralWithoutMatchingValue(t *testing.T) {
	wrong := ast.IntLit(0)
	wrong.Value = "7"
	missing := ast.FloatLit(0)
	missing.Value = nil
	for _, lit := range []*ast.Literal{wrong, missing} {
		_, err := Generate(ast.NewFile(fn(t, "f", lit.Type, nil, ast.NewReturn(lit))), Options{})
		if !errors.Is(err, diag.ErrMalformedNode) {
			t.Fatalf("%s literal %v: expected malformed node, got %v", lit.Tag(), lit.Value, err)
		}
	}
}

func TestGenerateArrayLoopLoadsElements(t *testing.T) {
	w := param("w", ast.TagString)
	words := ast.ArrayLit(ast.StringLit("a"), ast.StringLit("b"))
	words.Type = ast.ArrayOf(typ(ast.TagString), 2)
	got := generate(t,
		ast.NewUse("puts", typ(ast.TagInt), []ast.Node{typ(ast.TagString)}, false),
		fn(t, "each", ast.Empty, nil,
			ast.NewFor(w, words, &ast.FnCall{
				Name: "puts", Args: ast.NewList(w), Type: typ(ast.TagInt), Signature: ast.Empty,
			})))
	for _, line := range []string{
		`@arr = private unnamed_addr constant [2 x ptr] [ptr @str, ptr @str.1]`,
		"  %empty = icmp sgt i32 0, 1",
		"  %elem = getelementptr inbounds ptr, ptr @arr, i32 %i",
		"  %w = load ptr, ptr %elem",
		"  %call = call i32 (ptr) @puts(ptr %w)",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestGenerateLoweredConcat(t *testing.T) {
	n := param("n", ast.TagInt)
	root := ast.NewFile(fn(t, "label", typ(ast.TagString), []ast.Node{n},
		ast.NewReturn(ast.NewStrConcat(ast.StringLit("count: "), n))))
	lowered, err := lower.LowerStrConcat(root, lower.Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Generate(lowered, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := lines(
		`@str = private unnamed_addr constant [10 x i8] c"count: %i\00"`,
		"declare i32 @snprintf(ptr noalias nocapture, i32, ptr noalias nocapture, ...)",
		"",
		"define ptr @label(i32 %n) {",
		"  %strConcat = alloca [100 x i8]",
		"  %decay = getelementptr inbounds [10 x i8], ptr @str, i64 0, i64 0",
		"  %call = call i32 (ptr, i32, ptr, ...) @snprintf(ptr %strConcat, i32 100, ptr %decay, i32 %n)",
		"  ret ptr %strConcat",
		"}",
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("module (-want +got):\n%s", diff)
	}
}

func TestGenerateVariadicPromotions(t *testing.T) {
	printf := ast.NewUse("printf", typ(ast.TagInt), []ast.Node{typ(ast.TagString)}, true)
	call := ast.NewCall("printf", ast.StringLit("%f %i"), ast.FloatLit(1.5), ast.BoolLit(true))
	call.Type = typ(ast.TagInt)
	call.Signature = printf.Signature()
	got := generate(t, printf, fn(t, "main", ast.Empty, nil, call))
	for _, line := range []string{
		"declare i32 @printf(ptr noalias nocapture, ...)",
		"  %promote = fpext float 0x3FF8000000000000 to double",
		"  %promote.1 = zext i1 true to i32",
		"  %call = call i32 (ptr, ...) @printf(ptr %decay, double %promote, i32 %promote.1)",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestGenerateArgumentMismatch(t *testing.T) {
	takes := ast.NewUse("takes", ast.Empty, []ast.Node{typ(ast.TagInt)}, false)
	call := ast.NewCall("takes", ast.StringLit("no"))
	call.Signature = takes.Signature()
	_, err := Generate(ast.NewFile(takes, fn(t, "main", ast.Empty, nil, call)), Options{})
	if !errors.Is(err, diag.ErrArgumentTypeMismatch) {
		t.Fatalf("expected argument mismatch, got %v", err)
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.Name != "takes" || !strings.Contains(de.Error(), "argument 0") {
		t.Fatalf("error should name callee and position: %v", err)
	}
}

func TestGenerateInternsStrings(t *testing.T) {
	puts := ast.NewUse("puts", typ(ast.TagInt), []ast.Node{typ(ast.TagString)}, false)
	call := func(s string) ast.Node {
		c := ast.NewCall("puts", ast.StringLit(s))
		c.Type = typ(ast.TagInt)
		return c
	}
	// Composed and decomposed spellings of é normalize to one constant.
	got := generate(t, puts, puts, fn(t, "main", ast.Empty, nil, call("caf\u00e9"), call("cafe\u0301")))
	if n := strings.Count(got, "private unnamed_addr constant"); n != 1 {
		t.Fatalf("expected one string constant, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, `c"caf\C3\A9\00"`) {
		t.Fatalf("constant not escaped as expected:\n%s", got)
	}
	if n := strings.Count(got, "declare i32 @puts"); n != 1 {
		t.Fatalf("expected one declaration, got %d", n)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	build := func() ast.Node {
		x := param("x", ast.TagFloat)
		return ast.NewFile(
			ast.NewUse("puts", typ(ast.TagInt), []ast.Node{typ(ast.TagString)}, false),
			fn(t, "half", typ(ast.TagFloat), []ast.Node{x},
				ast.NewReturn(ast.NewOp(ast.OpDiv, x, ast.FloatLit(2)))),
		)
	}
	first, err := Generate(build(), Options{TargetTriple: "x86_64-pc-linux-gnu"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(build(), Options{TargetTriple: "x86_64-pc-linux-gnu"})
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("output differs between runs:\n%s\n---\n%s", first, second)
	}
	if !strings.HasPrefix(first, "target triple = \"x86_64-pc-linux-gnu\"\n\n") {
		t.Fatalf("missing triple:\n%s", first)
	}
	if !strings.Contains(first, "  %fdiv = fdiv float %x, 0x4000000000000000\n") {
		t.Fatalf("unexpected division:\n%s", first)
	}
}

func TestGenerateCasts(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "widen", typ(ast.TagFloat), []ast.Node{x},
		ast.NewReturn(ast.NewCast(typ(ast.TagFloat), x))))
	if !strings.Contains(got, "  %cast = sitofp i32 %x to float\n  ret float %cast\n") {
		t.Fatalf("unexpected cast:\n%s", got)
	}
}

func TestGenerateMissingValueIsUnreachable(t *testing.T) {
	x := param("x", ast.TagInt)
	got := generate(t, fn(t, "pick", typ(ast.TagInt), []ast.Node{x},
		ast.NewIf(x, ast.NewList(ast.NewReturn(x)), ast.Empty)))
	if !strings.HasSuffix(got, "Continue:\n  unreachable\n}\n") {
		t.Fatalf("expected unreachable tail:\n%s", got)
	}
}

func TestGenerateRejectsUnloweredInput(t *testing.T) {
	guarded, err := ast.NewFnDef("g", ast.Empty, nil, ast.BoolLit(true), ast.NewCall("g"))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		root ast.Node
		code diag.Code
	}{
		{"not a file", ast.NewList(), diag.MalformedNode},
		{"top-level call", ast.NewFile(ast.NewCall("main")), diag.MalformedNode},
		{"guard", ast.NewFile(guarded), diag.MalformedNode},
		{"concat", ast.NewFile(fn(t, "c", typ(ast.TagString), nil,
			ast.NewReturn(ast.NewStrConcat(ast.StringLit("a"))))), diag.MalformedNode},
		{"unbound variable", ast.NewFile(fn(t, "u", typ(ast.TagInt), nil,
			ast.NewReturn(param("y", ast.TagInt)))), diag.UnresolvedType},
		{"operand mismatch", ast.NewFile(fn(t, "m", typ(ast.TagInt), nil,
			ast.NewReturn(ast.NewOp(ast.OpAdd, ast.IntLit(1), ast.FloatLit(1))))), diag.TypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.root, Options{})
			var de *diag.Error
			if !errors.As(err, &de) || de.Code != tc.code {
				t.Fatalf("expected code %v, got %v", tc.code, err)
			}
		})
	}
}

func TestScopeFresh(t *testing.T) {
	s := NewScope()
	s.Reserve("x")
	got := []string{s.Fresh("x"), s.Fresh("Loop"), s.Fresh("Loop"), s.Fresh("x")}
	want := []string{"x.1", "Loop", "Loop.1", "x.2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
}

func TestFloatConstRoundsToSingle(t *testing.T) {
	if got := floatConst(0.1); got != "0x3FB99999A0000000" {
		t.Fatalf("floatConst(0.1) = %s", got)
	}
}
