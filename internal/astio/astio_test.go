package astio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

func sample(t *testing.T) ast.Node {
	t.Helper()
	x := ast.NewVariable("x", ast.NewType(ast.TagInt))
	xs := ast.NewVariable("xs", ast.Empty)
	guard := ast.NewOp(ast.OpGt, x, ast.IntLit(0))
	body := []ast.Node{
		ast.NewAssign(xs, ast.ArrayLit(ast.StringLit("a"), ast.StringLit("b")), ast.Empty),
		ast.NewFor(ast.NewVariable("w", ast.Empty), xs, ast.NewCall("puts", ast.NewVariable("w", ast.Empty))),
		ast.NewFor(ast.Empty, ast.RangeLit(ast.IntLit(1), x)),
		ast.NewIf(ast.BoolLit(true),
			ast.NewList(ast.NewReturn(ast.NewStrConcat(ast.StringLit("n="), x))),
			ast.NewList(ast.NewReturn(ast.NewCast(ast.NewType(ast.TagString), ast.FloatLit(2.5))))),
	}
	def, err := ast.NewFnDef("show", ast.Empty, []ast.Node{x}, guard, body...)
	if err != nil {
		t.Fatal(err)
	}
	decl, err := ast.NewVarDecl(ast.NewVariable("y", ast.Empty), ast.ArrayOf(ast.NewType(ast.TagInt), 3))
	if err != nil {
		t.Fatal(err)
	}
	main, err := ast.NewFnDef("main", ast.Empty, nil, ast.Empty, decl, ast.NewCall("show", ast.IntLit(-7)))
	if err != nil {
		t.Fatal(err)
	}
	return ast.NewFile(
		ast.NewUse("puts", ast.NewType(ast.TagInt), []ast.Node{ast.NewType(ast.TagString)}, false),
		def,
		main,
	)
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatMsgpack, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			in := sample(t)
			var buf bytes.Buffer
			if err := Encode(&buf, in, format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !ast.Equal(in, out) {
				t.Fatalf("round trip changed the tree:\n%s\n---\n%s", ast.DumpTree(in), ast.DumpTree(out))
			}
		})
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	a, err := Marshal(sample(t), FormatMsgpack)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(sample(t), FormatMsgpack)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("encoding the same tree twice produced different bytes")
	}
}

func TestDecodeJSONFixture(t *testing.T) {
	const fixture = `{
  "kind": "File",
  "fields": {"statements": {"kind": "List", "items": [
    {"kind": "FnDef", "name": "add", "fields": {"body": {"kind": "List", "items": [
      {"kind": "ReturnStatement", "fields": {"expr": {"kind": "Op", "op": "+", "fields": {
        "left": {"kind": "Literal", "int": 2, "fields": {"type": {"kind": "Type", "tag": "int"}}},
        "right": {"kind": "Literal", "int": 3, "fields": {"type": {"kind": "Type", "tag": "int"}}}
      }}}}
    ]}}}
  ]}}
}`
	n, err := Decode(strings.NewReader(fixture), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	want := ast.Dump(ast.NewReturn(ast.NewOp(ast.OpAdd, ast.IntLit(2), ast.IntLit(3))))
	ret := n.(*ast.File).Statements.First().(*ast.FnDef).Body.First()
	if got := ast.Dump(ret); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestDecodeRejectsMalformedRecords(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"unknown kind", `{"kind": "Lambda"}`},
		{"unknown tag", `{"kind": "Type", "tag": "complex"}`},
		{"unknown operator", `{"kind": "Op", "op": "**"}`},
		{"negative length", `{"kind": "Type", "tag": "array", "length": -1}`},
		{"body not a list", `{"kind": "FnDef", "name": "f", "fields": {"body": {"kind": "Variable", "name": "x"}}}`},
		{"parameter not a variable", `{"kind": "FnDef", "name": "f", "fields": {"params": {"kind": "List", "items": [{"kind": "Type", "tag": "int"}]}}}`},
		{"declaration without variable", `{"kind": "VariableDeclaration", "fields": {"type": {"kind": "Type", "tag": "int"}}}`},
		{"else not a list", `{"kind": "IfBlock", "fields": {"fail": {"kind": "Literal", "bool": true}}}`},
		{"literal value of wrong tag", `{"kind": "Literal", "str": "7", "fields": {"type": {"kind": "Type", "tag": "int"}}}`},
		{"typed literal without value", `{"kind": "Literal", "fields": {"type": {"kind": "Type", "tag": "float"}}}`},
		{"literal with two values", `{"kind": "Literal", "int": 1, "bool": true, "fields": {"type": {"kind": "Type", "tag": "int"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.json), FormatJSON)
			if !errors.Is(err, diag.ErrMalformedNode) {
				t.Fatalf("expected malformed node, got %v", err)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("tree.JSON") != FormatJSON {
		t.Fatal("json extension not recognised")
	}
	if FormatForPath("tree.dyt") != FormatMsgpack {
		t.Fatal("other extensions default to msgpack")
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
