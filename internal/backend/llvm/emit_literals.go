package llvm

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

func (g *Generator) literal(l *ast.Literal) (Fragment, error) {
	if err := l.CheckValue(); err != nil {
		return Fragment{}, err
	}
	switch l.Tag() {
	case ast.TagInt:
		ref, err := safeI32(l.Value.(int64))
		if err != nil {
			return Fragment{}, err
		}
		return result(Value{Type: "i32", Ref: ref}), nil
	case ast.TagFloat:
		return result(Value{Type: "float", Ref: floatConst(l.Value.(float64))}), nil
	case ast.TagBool:
		return result(Value{Type: "i1", Ref: boolValue(l.Value.(bool))}), nil
	case ast.TagString:
		return g.stringConst(l.Value.(string)), nil
	case ast.TagArray:
		return g.arrayConst(l)
	case ast.TagRange:
		return g.rangeBounds(l)
	}
	return Fragment{}, diag.Newf(diag.UnresolvedType, ast.KindLiteral.String(), "literal %s has no type", ast.Dump(l))
}

// stringConst interns text as a NUL-terminated private constant. Equal
// strings, after NFC normalization, share one global.
func (g *Generator) stringConst(text string) Fragment {
	text = norm.NFC.String(text)
	if v, ok := g.strs[text]; ok {
		return result(v)
	}
	data := append([]byte(text), 0)
	name := g.globals.Fresh("str")
	agg := fmt.Sprintf("[%d x i8]", len(data))
	v := Value{Type: agg, Ref: "@" + name, Addr: true, Elem: "i8"}
	g.strs[text] = v
	line := fmt.Sprintf("@%s = private unnamed_addr constant %s %s", name, agg, formatLLVMBytes(data))
	return Fragment{Global: []string{line}, Value: v}
}

// formatLLVMBytes renders data as a c"..." literal, escaping quotes,
// backslashes and non-printable bytes as \XX.
func formatLLVMBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) + 3)
	sb.WriteString(`c"`)
	for _, b := range data {
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteByte('"')
	return sb.String()
}

// arrayConst emits an array literal as a private constant. Elements must
// be literals themselves.
func (g *Generator) arrayConst(l *ast.Literal) (Fragment, error) {
	t, _ := l.Type.(*ast.Type)
	elem, err := llvmType(t.Sub)
	if err != nil {
		return Fragment{}, err
	}
	var out Fragment
	consts := make([]string, 0, l.Items.Len())
	for i, item := range l.Items.Items {
		lit, ok := item.(*ast.Literal)
		if !ok {
			return Fragment{}, diag.Newf(diag.MalformedNode, item.Kind().String(), "array element %d is not a constant", i)
		}
		f, err := g.literal(lit)
		if err != nil {
			return Fragment{}, err
		}
		if len(f.Local) > 0 {
			return Fragment{}, diag.Newf(diag.MalformedNode, item.Kind().String(), "array element %d is not a constant", i)
		}
		out.Global = append(out.Global, f.Global...)
		v := f.Value
		if v.Addr {
			v = Value{Type: "ptr", Ref: v.Ref}
		}
		if v.Type != elem {
			return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindLiteral.String(), fmt.Sprintf("element %d", i), elem, v.Type)
		}
		consts = append(consts, v.String())
	}

	n := len(consts)
	agg := fmt.Sprintf("[%d x %s]", n, elem)
	body := "zeroinitializer"
	if n > 0 {
		body = "[" + strings.Join(consts, ", ") + "]"
	}
	name := g.globals.Fresh("arr")
	out.Global = append(out.Global, fmt.Sprintf("@%s = private unnamed_addr constant %s %s", name, agg, body))
	end, err := safeI32(int64(n - 1))
	if err != nil {
		return Fragment{}, err
	}
	out.Value = Value{
		Type:  agg,
		Ref:   "@" + name,
		Addr:  true,
		Elem:  elem,
		Start: &Value{Type: "i32", Ref: "0"},
		End:   &Value{Type: "i32", Ref: end},
	}
	return out, nil
}

// rangeBounds evaluates both ends of a range. The range itself has no
// runtime value; only loops consume it.
func (g *Generator) rangeBounds(l *ast.Literal) (Fragment, error) {
	sf, err := g.emit(l.Start)
	if err != nil {
		return Fragment{}, err
	}
	ef, err := g.emit(l.End)
	if err != nil {
		return Fragment{}, err
	}
	for _, v := range []Value{sf.Value, ef.Value} {
		if v.Type != "i32" || v.Addr {
			return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindLiteral.String(), "range bound", "i32", v.Type)
		}
	}
	out := g.fn.scope.Then(sf, ef)
	start, end := sf.Value, ef.Value
	out.Value = Value{Start: &start, End: &end}
	return out, nil
}
