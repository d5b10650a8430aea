package astio

import (
	"dysc/internal/ast"
	"dysc/internal/diag"
)

// ToRecord converts a tree to its serialized form. Empty yields nil.
func ToRecord(n ast.Node) (*Record, error) {
	if ast.IsEmpty(n) {
		return nil, nil
	}
	r := &Record{Kind: n.Kind().String()}
	var err error
	put := func(name string, child ast.Node) {
		if err != nil {
			return
		}
		var c *Record
		c, err = ToRecord(child)
		r.set(name, c)
	}
	putList := func(name string, l *ast.List) {
		if l == nil {
			return
		}
		put(name, l)
	}

	switch v := n.(type) {
	case *ast.List:
		r.Items = make([]*Record, 0, v.Len())
		for _, item := range v.Items {
			c, ierr := ToRecord(item)
			if ierr != nil {
				return nil, ierr
			}
			if c != nil {
				r.Items = append(r.Items, c)
			}
		}
	case *ast.File:
		putList(fieldStatements, v.Statements)
	case *ast.Type:
		r.Tag = v.Tag.String()
		r.Length = int64(v.Length)
		put(fieldSub, v.Sub)
	case *ast.Literal:
		switch val := v.Value.(type) {
		case int64:
			r.Int = &val
		case float64:
			r.Float = &val
		case string:
			r.Str = &val
		case bool:
			r.Bool = &val
		case nil:
		default:
			return nil, diag.Newf(diag.MalformedNode, v.Kind().String(), "unsupported literal value %T", val)
		}
		if v.Items.Len() > 0 || v.Tag() == ast.TagArray {
			putList(fieldItems, v.Items)
		}
		put(fieldStart, v.Start)
		put(fieldEnd, v.End)
		put(fieldType, v.Type)
	case *ast.Variable:
		r.Name = v.Name
		put(fieldType, v.Type)
	case *ast.Buffer:
		r.Capacity = int64(v.Capacity)
		put(fieldVar, v.Var)
	case *ast.UseStatement:
		r.Name = v.Name
		r.Variadic = v.Variadic
		put(fieldReturn, v.Return)
		putList(fieldParams, v.Params)
	case *ast.FnDef:
		r.Name = v.Name
		put(fieldReturn, v.Return)
		putList(fieldParams, v.Params)
		put(fieldGuard, v.Guard)
		putList(fieldBody, v.Body)
	case *ast.IfBlock:
		put(fieldTest, v.Test)
		putList(fieldPass, v.Pass)
		put(fieldFail, v.Fail)
	case *ast.ForLoop:
		put(fieldVar, v.Var)
		put(fieldSource, v.Source)
		putList(fieldBody, v.Body)
	case *ast.FnCall:
		r.Name = v.Name
		putList(fieldArgs, v.Args)
		put(fieldType, v.Type)
		put(fieldSignature, v.Signature)
	case *ast.Return:
		put(fieldExpr, v.Expr)
		put(fieldType, v.Type)
	case *ast.VarDecl:
		put(fieldVar, v.Var)
		put(fieldType, v.Type)
	case *ast.Assign:
		put(fieldTarget, v.Target)
		put(fieldExpr, v.Expr)
		put(fieldType, v.Type)
	case *ast.Op:
		r.Op = v.Operator.String()
		put(fieldLeft, v.Left)
		put(fieldRight, v.Right)
		put(fieldType, v.Type)
	case *ast.StrConcat:
		putList(fieldItems, v.Items)
	case *ast.Cast:
		put(fieldTarget, v.Target)
		put(fieldExpr, v.Expr)
	default:
		return nil, diag.Newf(diag.MalformedNode, n.Kind().String(), "cannot serialize %T", n)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
