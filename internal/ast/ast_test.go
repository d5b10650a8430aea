package ast

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"dysc/internal/diag"
)

func mustFn(t *testing.T, name string, ret Node, params []Node, guard Node, body ...Node) *FnDef {
	t.Helper()
	fn, err := NewFnDef(name, ret, params, guard, body...)
	if err != nil {
		t.Fatalf("NewFnDef(%s): %v", name, err)
	}
	return fn
}

func sampleTree(t *testing.T) Node {
	t.Helper()
	x := NewVariable("x", NewType(TagInt))
	body := []Node{
		NewAssign(NewVariable("y", Empty), NewOp(OpAdd, x, IntLit(1)), Empty),
		NewIf(NewOp(OpGt, NewVariable("y", Empty), IntLit(3)),
			NewList(NewReturn(StringLit("big"))),
			NewList(NewReturn(NewStrConcat(StringLit("n="), NewVariable("y", Empty))))),
		NewFor(NewVariable("i", Empty), RangeLit(IntLit(1), IntLit(3)),
			NewCall("puts", StringLit("tick"))),
	}
	return NewFile(
		NewUse("puts", NewType(TagInt), []Node{NewType(TagString)}, false),
		mustFn(t, "main", Empty, []Node{x}, NewOp(OpNe, x, IntLit(0)), body...),
		NewCast(NewType(TagFloat), IntLit(2)),
	)
}

var cmpNodes = cmp.Options{cmpopts.EquateEmpty()}

func TestIdentityTransformPreservesTree(t *testing.T) {
	tree := sampleTree(t)
	var identity TransformFunc
	identity = func(n Node) (Node, error) {
		return n.TransformChildren(identity)
	}
	got, err := identity(tree)
	if err != nil {
		t.Fatalf("identity transform: %v", err)
	}
	if !Equal(tree, got) {
		t.Fatalf("identity transform changed the tree:\n%s", cmp.Diff(tree, got, cmpNodes))
	}
	if diff := cmp.Diff(tree, got, cmpNodes); diff != "" {
		t.Fatalf("structural diff (-want +got):\n%s", diff)
	}
}

func TestTransformRejectsNilResult(t *testing.T) {
	tree := NewReturn(IntLit(1))
	_, err := tree.TransformChildren(func(Node) (Node, error) { return nil, nil })
	if !errors.Is(err, diag.ErrMalformedNode) {
		t.Fatalf("expected MalformedNode, got %v", err)
	}
}

func TestTransformRejectsWrongKind(t *testing.T) {
	decl, err := NewVarDecl(NewVariable("a", Empty), NewType(TagInt))
	if err != nil {
		t.Fatal(err)
	}
	_, err = decl.TransformChildren(func(n Node) (Node, error) {
		if n.Kind() == KindVariable {
			return IntLit(1), nil
		}
		return n, nil
	})
	if !errors.Is(err, diag.ErrMalformedNode) {
		t.Fatalf("expected MalformedNode, got %v", err)
	}
}

func TestVarDeclValidatesArguments(t *testing.T) {
	if _, err := NewVarDecl(IntLit(1), NewType(TagInt)); !errors.Is(err, diag.ErrMalformedNode) {
		t.Fatalf("literal as variable: got %v", err)
	}
	if _, err := NewVarDecl(NewVariable("a", Empty), IntLit(1)); !errors.Is(err, diag.ErrMalformedNode) {
		t.Fatalf("literal as type: got %v", err)
	}
}

func TestLiteralCheckValue(t *testing.T) {
	for _, lit := range []*Literal{IntLit(1), FloatLit(0.5), StringLit(""), BoolLit(false), ArrayLit(IntLit(1)), RangeLit(IntLit(1), IntLit(2))} {
		if err := lit.CheckValue(); err != nil {
			t.Errorf("%s: %v", Dump(lit), err)
		}
	}
	bad := []*Literal{IntLit(0), BoolLit(false), StringLit("")}
	bad[0].Value = "7"
	bad[1].Value = int64(1)
	bad[2].Value = nil
	for _, lit := range bad {
		if err := lit.CheckValue(); !errors.Is(err, diag.ErrMalformedNode) {
			t.Errorf("%v tagged %s: got %v", lit.Value, lit.Tag(), err)
		}
	}
}

func TestListFiltersEmptyAndFlattens(t *testing.T) {
	a, b, c, d := IntLit(1), IntLit(2), IntLit(3), IntLit(4)
	l := NewList(a, Empty, NewList(b, NewList(c)), nil, d)
	if l.Len() != 3 {
		t.Fatalf("expected Empty and nil filtered, got %d items", l.Len())
	}
	flat := l.Flatten()
	want := []Node{a, b, c, d}
	if len(flat.Items) != len(want) {
		t.Fatalf("flatten: got %s", Dump(flat))
	}
	for i, item := range flat.Items {
		if item.Kind() == KindList {
			t.Fatalf("item %d is still a list", i)
		}
		if !Equal(item, want[i]) {
			t.Fatalf("item %d: want %s, got %s", i, Dump(want[i]), Dump(item))
		}
	}
}

func TestBlockTransformSplicesLists(t *testing.T) {
	fn := mustFn(t, "f", Empty, nil, Empty, NewCall("a"), NewCall("b"))
	var prepend TransformFunc
	prepend = func(n Node) (Node, error) {
		if call, ok := n.(*FnCall); ok && call.Name == "a" {
			return NewList(NewCall("pre"), call), nil
		}
		return n.TransformChildren(prepend)
	}
	out, err := prepend(fn)
	if err != nil {
		t.Fatal(err)
	}
	body := out.(*FnDef).Body
	var names []string
	for _, s := range body.Items {
		names = append(names, s.(*FnCall).Name)
	}
	if diff := cmp.Diff([]string{"pre", "a", "b"}, names); diff != "" {
		t.Fatalf("body order (-want +got):\n%s", diff)
	}
}

func TestCombineLaws(t *testing.T) {
	nodes := []Node{
		NewType(TagInt),
		ArrayOf(NewType(TagString), 2),
		IntLit(7),
		NewVariable("v", NewType(TagBool)),
		NewUse("", NewType(TagInt), []Node{NewType(TagString)}, true),
	}
	for _, a := range nodes {
		for _, pair := range [][2]Node{{a, Empty}, {Empty, a}, {a, a}} {
			got, err := Combine(pair[0], pair[1])
			if err != nil {
				t.Fatalf("Combine(%s, %s): %v", Dump(pair[0]), Dump(pair[1]), err)
			}
			if !Equal(got, a) {
				t.Fatalf("Combine(%s, %s) = %s", Dump(pair[0]), Dump(pair[1]), Dump(got))
			}
		}
	}
	conflicts := [][2]Node{
		{NewType(TagInt), NewType(TagString)},
		{IntLit(1), IntLit(2)},
		{ArrayOf(NewType(TagInt), 2), ArrayOf(NewType(TagInt), 3)},
		{NewVariable("a", Empty), NewVariable("b", Empty)},
	}
	for _, pair := range conflicts {
		if _, err := Combine(pair[0], pair[1]); !errors.Is(err, diag.ErrNodeConflict) {
			t.Fatalf("Combine(%s, %s): expected NodeConflict, got %v", Dump(pair[0]), Dump(pair[1]), err)
		}
	}
}

func TestCombineFillsPartialTypes(t *testing.T) {
	got, err := Combine(ArrayOf(Empty, 3), ArrayOf(NewType(TagInt), 0))
	if err != nil {
		t.Fatal(err)
	}
	if want := ArrayOf(NewType(TagInt), 3); !Equal(got, want) {
		t.Fatalf("want %s, got %s", TypeString(want), TypeString(got))
	}
	sig, err := Combine(
		&UseStatement{Return: Empty, Params: &List{Items: []Node{Empty, NewType(TagFloat)}}},
		&UseStatement{Return: NewType(TagInt), Params: &List{Items: []Node{NewType(TagInt), Empty}}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := Dump(sig); got != "use (int, float) int" {
		t.Fatalf("combined signature: %s", got)
	}
}

func TestTypeCompleteness(t *testing.T) {
	cases := []struct {
		typ  Node
		want bool
	}{
		{Empty, false},
		{NewType(TagInt), true},
		{NewType(TagBuffer), true},
		{ArrayOf(Empty, 3), false},
		{ArrayOf(NewType(TagInt), 3), true},
		{RangeOf(NewType(TagInt)), true},
		{RangeOf(ArrayOf(Empty, 0)), false},
	}
	for _, tc := range cases {
		if got := IsComplete(tc.typ); got != tc.want {
			t.Errorf("IsComplete(%s) = %v, want %v", TypeString(tc.typ), got, tc.want)
		}
	}
}

func TestComparisonsAreBool(t *testing.T) {
	if got := TypeString(NewOp(OpLt, IntLit(1), IntLit(2)).Type); got != "bool" {
		t.Fatalf("comparison type: %s", got)
	}
	if !IsEmpty(NewOp(OpAdd, IntLit(1), IntLit(2)).Type) {
		t.Fatalf("arithmetic must start untyped")
	}
}

func TestFnDefSignature(t *testing.T) {
	fn := mustFn(t, "f", NewType(TagInt), []Node{NewVariable("a", NewType(TagInt)), NewVariable("b", Empty)}, Empty)
	if _, ok := fn.Signature(); ok {
		t.Fatalf("signature with an untyped parameter must not be complete")
	}
	if _, err := NewFnDef("g", Empty, []Node{IntLit(1)}, Empty); !errors.Is(err, diag.ErrMalformedNode) {
		t.Fatalf("expected MalformedNode for literal parameter, got %v", err)
	}
}

func TestDump(t *testing.T) {
	n := NewReturn(NewOp(OpAdd, IntLit(2), IntLit(3)))
	if got, want := Dump(n), "return (2: int + 3: int): ?"; got != want {
		t.Fatalf("Dump = %q, want %q", got, want)
	}
}

func TestCount(t *testing.T) {
	// return, op, and per literal: itself, its item list, its type
	if got := Count(NewReturn(NewOp(OpAdd, IntLit(2), IntLit(3)))); got != 8 {
		t.Fatalf("Count = %d", got)
	}
}
