package infer

import (
	"strings"

	"dysc/internal/ast"
)

// tables accumulate what one inference run has learned across passes.
type tables struct {
	// hints holds the distinct argument tuples each callee was called with,
	// in first-seen order.
	hints map[string][]*ast.List
	// sigs holds the combined, name-blanked signature of each function.
	sigs map[string]*ast.UseStatement
	// origins keeps every definition of a function as first seen, before
	// any inference, so clones start from untyped parameters.
	origins map[string][]*ast.FnDef
	// inferred flags the parameter positions of a function that carry no
	// explicit type and are therefore specialized per call site.
	inferred map[string][]bool
	specs    map[string]*specialization
	clones   map[string]*cloneState
}

// specialization records the clones of one function, keyed by the
// argument-type suffix they were made for.
type specialization struct {
	keys  []string
	names map[string]string
	args  map[string]*ast.List
}

type cloneState struct {
	origin  string
	emitted map[int]bool
}

func newTables() *tables {
	return &tables{
		hints:    make(map[string][]*ast.List),
		sigs:     make(map[string]*ast.UseStatement),
		origins:  make(map[string][]*ast.FnDef),
		inferred: make(map[string][]bool),
		specs:    make(map[string]*specialization),
		clones:   make(map[string]*cloneState),
	}
}

func (t *tables) isClone(name string) bool {
	_, ok := t.clones[name]
	return ok
}

// observe remembers occurrence occ of a definition the first time it is seen.
func (t *tables) observe(d *ast.FnDef, occ int) {
	if t.isClone(d.Name) || occ < len(t.origins[d.Name]) {
		return
	}
	t.origins[d.Name] = append(t.origins[d.Name], d)
	if occ != 0 {
		return
	}
	flags := make([]bool, d.Params.Len())
	for i := range flags {
		flags[i] = !ast.IsComplete(d.Param(i).Type)
	}
	t.inferred[d.Name] = flags
}

// recordHint adds a complete argument tuple for name. Tuples that combine
// with a recorded one are merged into it.
func (t *tables) recordHint(name string, args *ast.List) bool {
	for i, h := range t.hints[name] {
		if ast.Equal(h, args) {
			return false
		}
		if c, err := ast.Combine(h, args); err == nil {
			t.hints[name][i] = c.(*ast.List)
			return true
		}
	}
	t.hints[name] = append(t.hints[name], args)
	return true
}

// argsKey renders the inferred positions of args as a clone-name suffix.
func (t *tables) argsKey(name string, args *ast.List) string {
	flags := t.inferred[name]
	parts := make([]string, 0, len(flags))
	for i, inferred := range flags {
		if !inferred || i >= args.Len() {
			continue
		}
		parts = append(parts, ast.TypeSuffix(args.Items[i]))
	}
	return strings.Join(parts, ".")
}

// groups returns the argument tuples of name that differ in some inferred
// position, first-seen first. The first group types the definition
// itself; every other group gets a clone.
func (t *tables) groups(name string) ([]string, []*ast.List) {
	var keys []string
	var tuples []*ast.List
	seen := make(map[string]bool)
	for _, h := range t.hints[name] {
		key := t.argsKey(name, h)
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
		tuples = append(tuples, h)
	}
	return keys, tuples
}

// specialize registers a clone of name for args and returns its name.
func (t *tables) specialize(name, key string, args *ast.List) (string, bool) {
	sp := t.specs[name]
	if sp == nil {
		sp = &specialization{names: make(map[string]string), args: make(map[string]*ast.List)}
		t.specs[name] = sp
	}
	if clone, ok := sp.names[key]; ok {
		return clone, false
	}
	clone := name + "." + key
	sp.keys = append(sp.keys, key)
	sp.names[key] = clone
	sp.args[key] = args
	t.clones[clone] = &cloneState{origin: name, emitted: make(map[int]bool)}
	t.recordHint(clone, args)
	return clone, true
}

// cloneFor returns the specialization of name matching args, if any.
func (t *tables) cloneFor(name string, args *ast.List) (string, bool) {
	sp := t.specs[name]
	if sp == nil {
		return "", false
	}
	clone, ok := sp.names[t.argsKey(name, args)]
	return clone, ok
}

// registerSig combines sig into the table entry for name.
func (t *tables) registerSig(name string, sig *ast.UseStatement) (bool, error) {
	old, ok := t.sigs[name]
	if !ok {
		t.sigs[name] = sig
		return true, nil
	}
	merged, err := ast.Combine(old, sig)
	if err != nil {
		return false, err
	}
	if ast.Equal(old, merged) {
		return false, nil
	}
	t.sigs[name] = merged.(*ast.UseStatement)
	return true, nil
}

// cloneDef copies origin under a new name, typing its inferred parameters
// from args.
func cloneDef(origin *ast.FnDef, name string, args *ast.List, inferred []bool) *ast.FnDef {
	params := make([]ast.Node, origin.Params.Len())
	for i := range params {
		p := origin.Param(i)
		if i < len(inferred) && inferred[i] && i < args.Len() {
			params[i] = ast.NewVariable(p.Name, args.Items[i])
			continue
		}
		params[i] = p
	}
	return &ast.FnDef{
		Name:   name,
		Return: origin.Return,
		Params: ast.NewList(params...),
		Guard:  origin.Guard,
		Body:   origin.Body,
	}
}
