// Package lower rewrites high-level constructs that the code generator
// does not handle: guarded function definitions and string concatenation.
// Both passes expect a fully typed tree.
package lower

import (
	"context"

	"dysc/internal/ast"
	"dysc/internal/trace"
)

// DefaultBufferCapacity is the byte size of each concatenation buffer.
const DefaultBufferCapacity = 100

// Options tunes lowering. The zero value uses the defaults.
type Options struct {
	BufferCapacity int
}

func (o Options) withDefaults() Options {
	if o.BufferCapacity <= 0 {
		o.BufferCapacity = DefaultBufferCapacity
	}
	return o
}

// Lower runs guard inlining followed by string-concatenation lowering.
func Lower(ctx context.Context, root ast.Node, opts Options) (ast.Node, error) {
	_, span := trace.Start(ctx, trace.ScopeNode, "lower.guards")
	out, err := InlineGuards(root)
	span.End("")
	if err != nil {
		return nil, err
	}

	_, span = trace.Start(ctx, trace.ScopeNode, "lower.strconcat")
	out, err = LowerStrConcat(out, opts)
	span.End("")
	return out, err
}
