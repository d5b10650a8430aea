package llvm

import (
	"maps"
	"slices"
	"strings"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// edge is one predecessor of a join block together with the variable
// bindings live at its end.
type edge struct {
	vars  map[string]Value
	block string
}

func sameValue(a, b Value) bool {
	return a.Type == b.Type && a.Ref == b.Ref && a.Addr == b.Addr
}

// phiOperand is v as an incoming phi value. Constants decay to their
// address; ranges and arrays cannot flow through a phi.
func phiOperand(kind, name string, v Value) (Value, error) {
	if v.Iterable() {
		return Value{}, diag.Newf(diag.TypeMismatch, kind, "cannot merge %s values across blocks", displayType(v)).WithName(name)
	}
	if v.Addr {
		return Value{Type: "ptr", Ref: v.Ref}, nil
	}
	return Value{Type: v.Type, Ref: v.Ref}, nil
}

// differs reports whether some name of outer is bound to different
// values on the given edges.
func differs(outer map[string]Value, edges []edge) bool {
	if len(edges) < 2 {
		return false
	}
	for name := range outer {
		for _, e := range edges[1:] {
			if !sameValue(e.vars[name], edges[0].vars[name]) {
				return true
			}
		}
	}
	return false
}

// join binds every name of outer to its value at the head of the block
// f has just opened. Names whose value depends on the edge taken get a
// phi; names bound only inside the branches are dropped.
func (g *Generator) join(f *Fragment, kind string, outer map[string]Value, edges []edge) error {
	vars := maps.Clone(outer)
	if len(edges) == 0 {
		g.fn.vars = vars
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(outer)) {
		first := edges[0].vars[name]
		same := true
		for _, e := range edges[1:] {
			if !sameValue(e.vars[name], first) {
				same = false
				break
			}
		}
		if same {
			vars[name] = first
			continue
		}
		ops := make([]string, len(edges))
		var ty string
		for i, e := range edges {
			v, err := phiOperand(kind, name, e.vars[name])
			if err != nil {
				return err
			}
			if i == 0 {
				ty = v.Type
			} else if v.Type != ty {
				return diag.Mismatch(diag.TypeMismatch, kind, name, ty, v.Type)
			}
			ops[i] = "[ " + v.Ref + ", %" + e.block + " ]"
		}
		phi := g.fn.scope.Fresh(name)
		f.Emit("%%%s = phi %s %s", phi, ty, strings.Join(ops, ", "))
		vars[name] = Value{Type: ty, Ref: "%" + phi}
	}
	g.fn.vars = vars
	return nil
}

// assignedNames lists the names of outer that body rebinds, sorted.
func assignedNames(body ast.Node, outer map[string]Value) []string {
	seen := make(map[string]bool)
	ast.Inspect(body, func(n ast.Node) bool {
		var name string
		switch v := n.(type) {
		case *ast.Assign:
			name = v.Target.Name
		case *ast.Buffer:
			name = v.Var.Name
		default:
			return true
		}
		if _, ok := outer[name]; ok {
			seen[name] = true
		}
		return true
	})
	return slices.Sorted(maps.Keys(seen))
}
