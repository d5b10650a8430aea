package llvm

import (
	"fmt"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// llvmType maps a logical type to the LLVM type its values are passed as.
// Empty maps to void. Arrays travel as pointers to their storage.
func llvmType(n ast.Node) (string, error) {
	if ast.IsEmpty(n) {
		return "void", nil
	}
	t, ok := n.(*ast.Type)
	if !ok {
		return "", diag.Newf(diag.MalformedNode, n.Kind().String(), "expected a type")
	}
	switch t.Tag {
	case ast.TagInt:
		return "i32", nil
	case ast.TagFloat:
		return "float", nil
	case ast.TagBool:
		return "i1", nil
	case ast.TagString, ast.TagBuffer, ast.TagArray:
		return "ptr", nil
	case ast.TagRange:
		return "", diag.Newf(diag.TypeMismatch, ast.KindType.String(), "ranges have no value representation outside loops")
	}
	return "", diag.Newf(diag.MalformedNode, ast.KindType.String(), "unknown tag %s", t.Tag)
}

// storageType returns the aggregate an array of known length occupies.
func storageType(t *ast.Type) (string, bool, error) {
	if t.Tag != ast.TagArray || t.Length <= 0 {
		return "", false, nil
	}
	elem, err := llvmType(t.Sub)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("[%d x %s]", t.Length, elem), true, nil
}

// typedValue describes a named value of logical type n, attaching the
// element type and bounds arrays of known length carry.
func typedValue(n ast.Node, ref string) (Value, error) {
	ty, err := llvmType(n)
	if err != nil {
		return Value{}, err
	}
	v := Value{Type: ty, Ref: ref}
	t, ok := n.(*ast.Type)
	if !ok || t.Tag != ast.TagArray {
		return v, nil
	}
	if v.Elem, err = llvmType(t.Sub); err != nil {
		return Value{}, err
	}
	if t.Length > 0 {
		end, err := safeI32(int64(t.Length - 1))
		if err != nil {
			return Value{}, err
		}
		v.Start = &Value{Type: "i32", Ref: "0"}
		v.End = &Value{Type: "i32", Ref: end}
	}
	return v, nil
}
