package lower

import (
	"strconv"
	"strings"

	"dysc/internal/ast"
	"dysc/internal/diag"
	"dysc/internal/transform"
)

// FormatFunc is the C formatting routine concatenations lower to.
const FormatFunc = "snprintf"

// bufferPrefix names the buffers concatenations write into.
const bufferPrefix = "strConcat"

// placeholders maps interpolated item types to their format directive.
var placeholders = map[ast.Tag]string{
	ast.TagInt:    "%i",
	ast.TagFloat:  "%f",
	ast.TagString: "%s",
	ast.TagBool:   "%i",
	ast.TagBuffer: "%s",
}

// FormatUse is the declaration added when a file lowers a concatenation
// without declaring snprintf itself.
func FormatUse() *ast.UseStatement {
	return ast.NewUse(FormatFunc, ast.NewType(ast.TagInt), []ast.Node{
		ast.NewType(ast.TagBuffer),
		ast.NewType(ast.TagInt),
		ast.NewType(ast.TagString),
	}, true)
}

type concatLowering struct {
	capacity int
	sig      *ast.UseStatement
	buffers  int
	lowered  bool
}

// LowerStrConcat rewrites each concatenation into a buffer, an snprintf
// call filling it and a reference to the buffer's variable.
func LowerStrConcat(root ast.Node, opts Options) (ast.Node, error) {
	opts = opts.withDefaults()
	c := &concatLowering{capacity: opts.BufferCapacity}
	file, isFile := root.(*ast.File)
	declared := false
	if isFile {
		for _, u := range file.Uses() {
			if u.Name == FormatFunc {
				c.sig = u.Signature()
				declared = true
				break
			}
		}
	}
	if c.sig == nil {
		c.sig = FormatUse().Signature()
	}

	out, err := transform.Run(transform.Handlers{ast.KindStrConcat: c.rewrite}, root)
	if err != nil {
		return nil, err
	}
	if isFile && c.lowered && !declared {
		f := out.(*ast.File)
		return &ast.File{Statements: f.Statements.Concat(FormatUse())}, nil
	}
	return out, nil
}

func (c *concatLowering) bufferName() string {
	name := bufferPrefix
	if c.buffers > 0 {
		name += strconv.Itoa(c.buffers)
	}
	c.buffers++
	return name
}

// flattenItems splices nested concatenations into one item sequence.
func flattenItems(items *ast.List) []ast.Node {
	var out []ast.Node
	for _, item := range items.Items {
		if nested, ok := item.(*ast.StrConcat); ok {
			out = append(out, flattenItems(nested.Items)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

func (c *concatLowering) rewrite(w *transform.Walker, n ast.Node) (ast.Node, error) {
	s := n.(*ast.StrConcat)
	var format strings.Builder
	var extras []ast.Node
	for _, item := range flattenItems(s.Items) {
		if lit, ok := item.(*ast.Literal); ok && lit.Tag() == ast.TagString {
			if err := lit.CheckValue(); err != nil {
				return nil, err
			}
			format.WriteString(strings.ReplaceAll(lit.Value.(string), "%", "%%"))
			continue
		}
		t, _ := ast.TypeOf(item).(*ast.Type)
		directive, ok := "", false
		if t != nil {
			directive, ok = placeholders[t.Tag]
		}
		if !ok {
			return nil, diag.Newf(diag.UnsupportedInterpolation, item.Kind().String(),
				"no format directive for %s", ast.TypeString(t))
		}
		lowered, err := w.Walk(item)
		if err != nil {
			return nil, err
		}
		format.WriteString(directive)
		extras = append(extras, lowered)
	}

	c.lowered = true
	capacity := int64(c.capacity)
	buf := ast.NewVariable(c.bufferName(), ast.NewType(ast.TagString))
	args := append([]ast.Node{
		ast.NewBuffer(buf, c.capacity),
		ast.IntLit(capacity),
		ast.StringLit(format.String()),
	}, extras...)
	call := &ast.FnCall{
		Name:      FormatFunc,
		Args:      ast.NewList(args...),
		Type:      c.sig.Return,
		Signature: c.sig,
	}
	return ast.NewList(call, buf), nil
}
