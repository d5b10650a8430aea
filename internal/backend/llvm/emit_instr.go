package llvm

import (
	"strings"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

var intOps = map[ast.Operator]string{
	ast.OpAdd: "add",
	ast.OpSub: "sub",
	ast.OpMul: "mul",
	ast.OpDiv: "sdiv",
	ast.OpRem: "srem",
	ast.OpEq:  "icmp eq",
	ast.OpNe:  "icmp ne",
	ast.OpLt:  "icmp slt",
	ast.OpLe:  "icmp sle",
	ast.OpGt:  "icmp sgt",
	ast.OpGe:  "icmp sge",
}

var floatOps = map[ast.Operator]string{
	ast.OpAdd: "fadd",
	ast.OpSub: "fsub",
	ast.OpMul: "fmul",
	ast.OpDiv: "fdiv",
	ast.OpRem: "frem",
	ast.OpEq:  "fcmp oeq",
	ast.OpNe:  "fcmp one",
	ast.OpLt:  "fcmp olt",
	ast.OpLe:  "fcmp ole",
	ast.OpGt:  "fcmp ogt",
	ast.OpGe:  "fcmp oge",
}

var boolOps = map[ast.Operator]string{
	ast.OpAnd: "and",
	ast.OpOr:  "or",
	ast.OpEq:  "icmp eq",
	ast.OpNe:  "icmp ne",
}

// op emits a binary operation. Both operands must already share a type;
// comparisons yield i1.
func (g *Generator) op(o *ast.Op) (Fragment, error) {
	lf, err := g.emit(o.Left)
	if err != nil {
		return Fragment{}, err
	}
	rf, err := g.emit(o.Right)
	if err != nil {
		return Fragment{}, err
	}
	l, r := lf.Value, rf.Value
	if l.Addr || r.Addr || l.Type != r.Type {
		return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindOp.String(), o.Operator.String(), displayType(l), displayType(r))
	}

	var table map[ast.Operator]string
	switch l.Type {
	case "i32":
		table = intOps
	case "float":
		table = floatOps
	case "i1":
		table = boolOps
	}
	inst, ok := table[o.Operator]
	if !ok {
		return Fragment{}, diag.Newf(diag.TypeMismatch, ast.KindOp.String(), "operator %s is not defined on %s", o.Operator, displayType(l))
	}

	hint, ty := inst, l.Type
	if i := strings.IndexByte(inst, ' '); i >= 0 {
		hint, ty = "cmp", "i1"
	}
	out := g.fn.scope.Then(lf, rf)
	tmp := g.fn.scope.Fresh(hint)
	out.Emit("%%%s = %s %s %s, %s", tmp, inst, l.Type, l.Ref, r.Ref)
	out.Value = Value{Type: ty, Ref: "%" + tmp}
	return out, nil
}

// cast emits an explicit conversion between scalar types.
func (g *Generator) cast(c *ast.Cast) (Fragment, error) {
	f, err := g.emit(c.Expr)
	if err != nil {
		return Fragment{}, err
	}
	to, err := llvmType(c.Target)
	if err != nil {
		return Fragment{}, err
	}
	v := f.Value
	if v.Addr {
		cf, cv, err := g.coerce(v, to)
		if err != nil {
			return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindCast.String(), "", to, displayType(v))
		}
		out := g.fn.scope.Then(f, cf)
		out.Value = cv
		return out, nil
	}
	if v.Type == to {
		return f, nil
	}

	tmp := g.fn.scope.Fresh("cast")
	switch {
	case v.Type == "i32" && to == "float":
		f.Emit("%%%s = sitofp i32 %s to float", tmp, v.Ref)
	case v.Type == "float" && to == "i32":
		f.Emit("%%%s = fptosi float %s to i32", tmp, v.Ref)
	case v.Type == "i1" && to == "i32":
		f.Emit("%%%s = zext i1 %s to i32", tmp, v.Ref)
	case v.Type == "i1" && to == "float":
		f.Emit("%%%s = uitofp i1 %s to float", tmp, v.Ref)
	case v.Type == "i32" && to == "i1":
		f.Emit("%%%s = icmp ne i32 %s, 0", tmp, v.Ref)
	case v.Type == "float" && to == "i1":
		f.Emit("%%%s = fcmp une float %s, 0.0", tmp, v.Ref)
	default:
		return Fragment{}, diag.Mismatch(diag.TypeMismatch, ast.KindCast.String(), "", to, displayType(v))
	}
	f.Value = Value{Type: to, Ref: "%" + tmp}
	return f, nil
}
