// Package infer resolves every omitted type in a tree by rewriting it
// until a pass makes no new deductions. Functions called with
// incompatible argument types are cloned once per argument tuple.
package infer

import (
	"context"
	"strconv"

	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/trace"
	"dysc/internal/transform"
)

// DefaultPassFactor bounds the pass loop at DefaultPassFactor*(nodes+1).
const DefaultPassFactor = 4

// Options tunes the engine. The zero value uses the defaults.
type Options struct {
	PassFactor int
}

// Progress is what a single pass reports back to the driver.
type Progress struct {
	// TreeChanged is true when the pass output differs from its input.
	TreeChanged bool
	// TableChanged is true when call-site hints, signatures or
	// specializations grew.
	TableChanged bool
}

// Changed reports whether another pass could deduce more.
func (p Progress) Changed() bool {
	return p.TreeChanged || p.TableChanged
}

// Merge combines two progress reports.
func (p Progress) Merge(q Progress) Progress {
	return Progress{
		TreeChanged:  p.TreeChanged || q.TreeChanged,
		TableChanged: p.TableChanged || q.TableChanged,
	}
}

// Engine holds the state of one inference run. It must not be reused
// across compilation units.
type Engine struct {
	opts   Options
	tables *tables
	passes int
}

func NewEngine(opts Options) *Engine {
	if opts.PassFactor <= 0 {
		opts.PassFactor = DefaultPassFactor
	}
	return &Engine{opts: opts, tables: newTables()}
}

// Infer runs a fresh engine over root.
func Infer(ctx context.Context, root ast.Node, opts Options) (ast.Node, error) {
	return NewEngine(opts).Run(ctx, root)
}

// Passes returns the number of passes the last Run performed, the final
// checking pass included.
func (e *Engine) Passes() int {
	return e.passes
}

// Run iterates to a fixed point, then performs one checking pass that
// reports whatever is still unresolved or inconsistent.
func (e *Engine) Run(ctx context.Context, root ast.Node) (ast.Node, error) {
	if root == nil {
		return nil, diag.Newf(diag.MalformedNode, "", "no tree to infer")
	}
	limit := e.opts.PassFactor * (ast.Count(root) + 1)

	cur := root
	for {
		if e.passes >= limit {
			return nil, diag.Newf(diag.InferenceStalled, root.Kind().String(), "no fixed point after %d passes", e.passes)
		}
		next, progress, err := e.pass(cur, false)
		e.passes++
		if err != nil {
			return nil, err
		}
		trace.Mark(ctx, trace.ScopeNode, "infer.pass", map[string]string{
			"pass":    strconv.Itoa(e.passes),
			"tree":    strconv.FormatBool(progress.TreeChanged),
			"tables":  strconv.FormatBool(progress.TableChanged),
			"changed": strconv.FormatBool(progress.Changed()),
		})
		cur = next
		if !progress.Changed() {
			break
		}
	}

	out, _, err := e.pass(cur, true)
	e.passes++
	if err != nil {
		return nil, err
	}
	if n := Unresolved(out); n != nil {
		return nil, diag.Newf(diag.InferenceStalled, n.Kind().String(), "%s is still untyped", ast.Dump(n))
	}
	return out, nil
}

func (e *Engine) pass(root ast.Node, final bool) (ast.Node, Progress, error) {
	p := &pass{
		tables: e.tables,
		final:  final,
		env:    newEnv(),
		occ:    make(map[string]int),
	}
	out, err := transform.Run(p, root)
	if err != nil {
		return nil, Progress{}, err
	}
	progress := p.progress
	progress.TreeChanged = !ast.Equal(root, out)
	return out, progress, nil
}

// Unresolved returns the first node that still lacks a type, or nil. Calls
// may stay untyped when their callee returns nothing.
func Unresolved(root ast.Node) ast.Node {
	var found ast.Node
	ast.Inspect(root, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch v := n.(type) {
		case *ast.Variable:
			if !ast.IsComplete(v.Type) {
				found = v
			}
		case *ast.Literal:
			if !ast.IsComplete(v.Type) {
				found = v
			}
		case *ast.Op:
			if !ast.IsComplete(v.Type) {
				found = v
			}
		case *ast.Assign:
			if !ast.IsComplete(v.Type) {
				found = v
			}
		case *ast.Return:
			if !ast.IsEmpty(v.Expr) && v.Expr.Kind() != ast.KindCall && !ast.IsComplete(v.Type) {
				found = v
			}
		case *ast.Type:
			// types are leaves for this check
			return false
		}
		return found == nil
	})
	return found
}
