package llvm

import (
	"fmt"
	"strings"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// call emits a function call. Arguments are coerced to the attached
// signature when there is one and to their own logical types otherwise.
// Extra arguments of variadic callees get the C default promotions.
func (g *Generator) call(c *ast.FnCall) (Fragment, error) {
	sig := c.Sig()
	scope := g.fn.scope

	var params []string
	variadic := false
	retNode := c.Type
	if sig != nil {
		fixed := sig.Params.Len()
		n := c.Args.Len()
		if n < fixed || (n > fixed && !sig.Variadic) {
			return Fragment{}, diag.Newf(diag.ArgumentTypeMismatch, ast.KindCall.String(),
				"expects %d arguments, got %d", fixed, n).WithName(c.Name)
		}
		for _, p := range sig.Params.Items {
			ty, err := llvmType(p)
			if err != nil {
				return Fragment{}, err
			}
			params = append(params, ty)
		}
		variadic = sig.Variadic
		retNode = sig.Return
	}

	var out Fragment
	args := make([]string, 0, c.Args.Len())
	for i, a := range c.Args.Items {
		af, err := g.emit(a)
		if err != nil {
			return Fragment{}, err
		}
		out = scope.Then(out, af)

		var cf Fragment
		var v Value
		switch {
		case i < len(params):
			cf, v, err = g.coerce(af.Value, params[i])
		case sig != nil:
			cf, v, err = g.promote(af.Value)
		default:
			want, terr := llvmType(ast.TypeOf(a))
			if terr != nil {
				return Fragment{}, terr
			}
			params = append(params, want)
			cf, v, err = g.coerce(af.Value, want)
		}
		if err != nil {
			return Fragment{}, diag.Newf(diag.ArgumentTypeMismatch, ast.KindCall.String(),
				"argument %d: %v", i, err).WithName(c.Name)
		}
		out = scope.Then(out, cf)
		args = append(args, v.String())
	}

	ret, err := llvmType(retNode)
	if err != nil {
		return Fragment{}, err
	}
	sigParams := append([]string(nil), params...)
	if variadic {
		sigParams = append(sigParams, "...")
	}
	fnType := fmt.Sprintf("%s (%s)", ret, strings.Join(sigParams, ", "))
	argList := strings.Join(args, ", ")

	if ret == "void" {
		out.Emit("call %s @%s(%s)", fnType, c.Name, argList)
		out.Value = Value{}
		return out, nil
	}
	tmp := scope.Fresh("call")
	out.Emit("%%%s = call %s @%s(%s)", tmp, fnType, c.Name, argList)
	out.Value = Value{Type: ret, Ref: "%" + tmp}
	return out, nil
}

// coerce converts v to want. The only conversion performed is decaying a
// constant's address to ptr.
func (g *Generator) coerce(v Value, want string) (Fragment, Value, error) {
	if !v.Addr {
		if v.Type == want {
			return Fragment{}, v, nil
		}
		return Fragment{}, Value{}, fmt.Errorf("expected %s, found %s", want, displayType(v))
	}
	if want != "ptr" {
		return Fragment{}, Value{}, fmt.Errorf("expected %s, found %s", want, displayType(v))
	}
	var f Fragment
	tmp := g.fn.scope.Fresh("decay")
	f.Emit("%%%s = getelementptr inbounds %s, ptr %s, i64 0, i64 0", tmp, v.Type, v.Ref)
	f.Value = Value{Type: "ptr", Ref: "%" + tmp}
	return f, f.Value, nil
}

// promote applies the default argument promotions to a variadic extra.
func (g *Generator) promote(v Value) (Fragment, Value, error) {
	if v.Addr {
		return g.coerce(v, "ptr")
	}
	var f Fragment
	switch v.Type {
	case "i32", "ptr", "double":
		return f, v, nil
	case "float":
		tmp := g.fn.scope.Fresh("promote")
		f.Emit("%%%s = fpext float %s to double", tmp, v.Ref)
		f.Value = Value{Type: "double", Ref: "%" + tmp}
	case "i1":
		tmp := g.fn.scope.Fresh("promote")
		f.Emit("%%%s = zext i1 %s to i32", tmp, v.Ref)
		f.Value = Value{Type: "i32", Ref: "%" + tmp}
	default:
		return Fragment{}, Value{}, fmt.Errorf("cannot pass %s to a variadic parameter", displayType(v))
	}
	return f, f.Value, nil
}

func displayType(v Value) string {
	if v.Type == "" {
		return "no value"
	}
	if v.Addr {
		return "ptr to " + v.Type
	}
	return v.Type
}
