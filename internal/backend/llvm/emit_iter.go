package llvm

import (
	"maps"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// forLoop emits a counted loop over an inclusive range or over the
// indices of an array of known length:
//
//	br label %Entry
//	Entry: skip to Continue when start > end
//	Loop:  %i = phi, bind the element, body, step, branch back
//	Continue:
//
// Variables bound before the loop and rebound in its body are carried by
// a phi in Loop and merged again at the head of Continue.
func (g *Generator) forLoop(l *ast.ForLoop) (Fragment, error) {
	scope := g.fn.scope
	sf, err := g.emit(l.Source)
	if err != nil {
		return Fragment{}, err
	}
	src := sf.Value
	if !src.Iterable() {
		return Fragment{}, diag.Newf(diag.TypeMismatch, ast.KindFor.String(),
			"cannot iterate %s", ast.TypeString(ast.TypeOf(l.Source)))
	}
	start, end := *src.Start, *src.End
	array := false
	if t, ok := ast.TypeOf(l.Source).(*ast.Type); ok && t.Tag == ast.TagArray {
		array = true
	}

	entry := scope.Fresh("Entry")
	loop := scope.Fresh("Loop")
	cont := scope.Fresh("Continue")
	idx := scope.Fresh("i")
	empty := scope.Fresh("empty")

	out := sf
	out.Terminate("br label %%%s", entry)
	out.Label(entry)
	out.Emit("%%%s = icmp sgt i32 %s, %s", empty, start.Ref, end.Ref)
	out.Terminate("br i1 %%%s, label %%%s, label %%%s", empty, cont, loop)

	outer := maps.Clone(g.fn.vars)

	kind := ast.KindFor.String()
	var carried []string
	if v := l.Variable(); v != nil {
		for _, name := range assignedNames(l.Body, outer) {
			if name != v.Name {
				carried = append(carried, name)
			}
		}
	} else {
		carried = assignedNames(l.Body, outer)
	}
	initial := make([]Value, len(carried))
	header := make([]Value, len(carried))
	for i, name := range carried {
		v, err := phiOperand(kind, name, outer[name])
		if err != nil {
			return Fragment{}, err
		}
		initial[i] = v
		header[i] = Value{Type: v.Type, Ref: "%" + scope.Fresh(name)}
		g.fn.vars[name] = header[i]
	}

	var bind Fragment
	if v := l.Variable(); v != nil {
		if array {
			ptr := scope.Fresh("elem")
			val := scope.Fresh(v.Name)
			bind.Emit("%%%s = getelementptr inbounds %s, ptr %s, i32 %%%s", ptr, src.Elem, src.Ref, idx)
			bind.Emit("%%%s = load %s, ptr %%%s", val, src.Elem, ptr)
			g.fn.vars[v.Name] = Value{Type: src.Elem, Ref: "%" + val}
		} else {
			g.fn.vars[v.Name] = Value{Type: "i32", Ref: "%" + idx}
		}
	}
	body, err := g.block(l.Body)
	if err != nil {
		return Fragment{}, err
	}
	inner := scope.Then(bind, body)
	updated := make([]Value, len(carried))
	for i, name := range carried {
		v, err := phiOperand(kind, name, g.fn.vars[name])
		if err != nil {
			return Fragment{}, err
		}
		if v.Type != header[i].Type {
			return Fragment{}, diag.Mismatch(diag.TypeMismatch, kind, name, header[i].Type, v.Type)
		}
		updated[i] = v
	}

	brk := scope.Fresh("break")
	step := scope.Fresh("nextvar")
	var tail Fragment
	tail.Emit("%%%s = icmp sge i32 %%%s, %s", brk, idx, end.Ref)
	tail.Emit("%%%s = add i32 %%%s, 1", step, idx)
	tail.Terminate("br i1 %%%s, label %%%s, label %%%s", brk, cont, loop)
	inner = scope.Then(inner, tail)
	back := inner.Block
	if back == "" {
		back = loop
	}

	var head Fragment
	head.Label(loop)
	head.Emit("%%%s = phi i32 [ %s, %%%s ], [ %%%s, %%%s ]", idx, start.Ref, entry, step, back)
	for i := range carried {
		head.Emit("%s = phi %s [ %s, %%%s ], [ %s, %%%s ]", header[i].Ref, header[i].Type, initial[i].Ref, entry, updated[i].Ref, back)
	}
	out = scope.Then(out, scope.Then(head, inner))
	out.Label(cont)

	exit := maps.Clone(outer)
	for i, name := range carried {
		phi := scope.Fresh(name)
		out.Emit("%%%s = phi %s [ %s, %%%s ], [ %s, %%%s ]", phi, header[i].Type, initial[i].Ref, entry, updated[i].Ref, back)
		exit[name] = Value{Type: header[i].Type, Ref: "%" + phi}
	}
	g.fn.vars = exit
	out.Value = Value{}
	return out, nil
}
