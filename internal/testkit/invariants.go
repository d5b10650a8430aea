package testkit

import (
	"fmt"

	"dysc/internal/ast"
	"dysc/internal/infer"
)

// CheckTyped runs the invariants expected of a tree after inference:
// 1) no node is left without a type
// 2) no variable declarations remain
// 3) every function parameter and return type is complete or absent
func CheckTyped(root ast.Node) error {
	if root == nil {
		return fmt.Errorf("nil tree")
	}
	if n := infer.Unresolved(root); n != nil {
		return fmt.Errorf("untyped %s: %s", n.Kind(), ast.Dump(n))
	}
	var err error
	ast.Inspect(root, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case *ast.VarDecl:
			err = fmt.Errorf("declaration of %q survived inference", v.Var.Name)
		case *ast.FnDef:
			if _, ok := v.Signature(); !ok {
				err = fmt.Errorf("function %q has untyped parameters", v.Name)
			}
			if !ast.IsEmpty(v.Return) && !ast.IsComplete(v.Return) {
				err = fmt.Errorf("function %q has a partial return type %s", v.Name, ast.TypeString(v.Return))
			}
		}
		return err == nil
	})
	return err
}

// CheckLowered runs the invariants the code generator relies on:
// 1) the tree is typed
// 2) no string concatenations or guards remain
// 3) each function name is defined once
// 4) statement blocks contain no nested lists
func CheckLowered(root ast.Node) error {
	if err := CheckTyped(root); err != nil {
		return err
	}
	seen := make(map[string]bool)
	var err error
	checkBlock := func(owner string, l *ast.List) {
		for _, item := range l.Items {
			if item.Kind() == ast.KindList && err == nil {
				err = fmt.Errorf("nested list in %s", owner)
			}
		}
	}
	ast.Inspect(root, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case *ast.StrConcat:
			err = fmt.Errorf("string concatenation was not lowered: %s", ast.Dump(v))
		case *ast.File:
			checkBlock("file", v.Statements)
		case *ast.FnDef:
			if !ast.IsEmpty(v.Guard) {
				err = fmt.Errorf("function %q still has a guard", v.Name)
			}
			if seen[v.Name] {
				err = fmt.Errorf("function %q is defined more than once", v.Name)
			}
			seen[v.Name] = true
			checkBlock("function "+v.Name, v.Body)
		case *ast.IfBlock:
			checkBlock("if", v.Pass)
			if l := v.FailList(); l != nil {
				checkBlock("else", l)
			}
		case *ast.ForLoop:
			checkBlock("for", v.Body)
		}
		return err == nil
	})
	return err
}
