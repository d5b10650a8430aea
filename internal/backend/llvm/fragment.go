package llvm

import (
	"fmt"
	"strings"
)

// Value is an operand together with its LLVM type.
type Value struct {
	Type string
	Ref  string
	// Addr marks Ref as the address of an object of Type, as for string
	// and array constants. Such values decay to ptr when passed on.
	Addr bool
	// Elem is the element type when the value can be indexed.
	Elem string
	// Start and End are the inclusive iteration bounds of ranges and
	// arrays of known length.
	Start *Value
	End   *Value
}

func (v Value) String() string {
	return v.Type + " " + v.Ref
}

// Iterable reports whether a for loop can run over v.
func (v Value) Iterable() bool {
	return v.Start != nil && v.End != nil
}

// Fragment is the emitted form of one node: the instructions it adds to
// the current function, the module-level lines it needs and the value it
// leaves behind.
type Fragment struct {
	Local  []string
	Global []string
	Value
	// Terminated is set when Local ends in ret, br or unreachable.
	Terminated bool
	// Block is the label of the block Local ends in; empty means the
	// block the fragment started in.
	Block string
}

func result(v Value) Fragment {
	return Fragment{Value: v}
}

func instr(format string, args ...any) string {
	return "  " + fmt.Sprintf(format, args...)
}

func labelLine(name string) string {
	return name + ":"
}

func isLabel(line string) bool {
	return !strings.HasPrefix(line, " ")
}

// Emit appends instructions to f in place.
func (f *Fragment) Emit(format string, args ...any) {
	f.Local = append(f.Local, instr(format, args...))
}

// Label opens a new block named name.
func (f *Fragment) Label(name string) {
	f.Local = append(f.Local, labelLine(name))
	f.Block = name
	f.Terminated = false
}

// Terminate appends a terminator instruction.
func (f *Fragment) Terminate(format string, args ...any) {
	f.Emit(format, args...)
	f.Terminated = true
}

// Then sequences next after f: code is concatenated in order and the
// result carries next's value. Code following a terminator opens a fresh
// block so every block keeps a single terminator.
func (s *Scope) Then(f, next Fragment) Fragment {
	out := Fragment{
		Local:  make([]string, 0, len(f.Local)+len(next.Local)+1),
		Global: make([]string, 0, len(f.Global)+len(next.Global)),
		Value:  next.Value,
		Block:  f.Block,
	}
	out.Local = append(out.Local, f.Local...)
	out.Global = append(out.Global, f.Global...)
	out.Global = append(out.Global, next.Global...)
	if f.Terminated && len(next.Local) > 0 && !isLabel(next.Local[0]) {
		name := s.Fresh("Next")
		out.Local = append(out.Local, labelLine(name))
		out.Block = name
	}
	out.Local = append(out.Local, next.Local...)
	if next.Block != "" {
		out.Block = next.Block
	}
	out.Terminated = next.Terminated || (f.Terminated && len(next.Local) == 0)
	return out
}

// Seq folds Then over frags.
func (s *Scope) Seq(frags ...Fragment) Fragment {
	var out Fragment
	for i, f := range frags {
		if i == 0 {
			out = f
			continue
		}
		out = s.Then(out, f)
	}
	return out
}
