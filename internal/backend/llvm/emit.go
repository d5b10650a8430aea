package llvm

import (
	"fmt"
	"strings"

	"dysc/internal/ast"
	"dysc/internal/diag"
)

// Options configures module emission.
type Options struct {
	// TargetTriple, when set, is written as the module's target triple.
	TargetTriple string
}

// Generator lowers one typed, lowered file to LLVM IR text. A Generator
// holds the naming state of a single module and must not be reused.
type Generator struct {
	opts     Options
	globals  *Scope
	strs     map[string]Value
	declared map[string]bool
	defined  map[string]bool
	emitted  map[string]bool
	fn       *funcState
}

type funcState struct {
	name  string
	scope *Scope
	vars  map[string]Value
	ret   string
}

func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts:     opts,
		globals:  NewScope(),
		strs:     make(map[string]Value),
		declared: make(map[string]bool),
		defined:  make(map[string]bool),
		emitted:  make(map[string]bool),
	}
}

// Generate emits root, which must be an *ast.File.
func Generate(root ast.Node, opts Options) (string, error) {
	return NewGenerator(opts).Module(root)
}

// Module emits declarations and constants first, then function
// definitions, each in source order.
func (g *Generator) Module(root ast.Node) (string, error) {
	file, ok := root.(*ast.File)
	if !ok {
		return "", diag.Newf(diag.MalformedNode, kindOf(root), "code generation needs a file root")
	}
	g.prescan(file)

	var globals, funcs []string
	for _, stmt := range file.Statements.Items {
		switch s := stmt.(type) {
		case *ast.UseStatement:
			line, err := g.declare(s)
			if err != nil {
				return "", err
			}
			if line != "" {
				globals = append(globals, line)
			}
		case *ast.FnDef:
			text, global, err := g.define(s)
			if err != nil {
				return "", err
			}
			globals = append(globals, global...)
			funcs = append(funcs, text)
		default:
			return "", diag.Newf(diag.MalformedNode, stmt.Kind().String(), "only use statements and function definitions may appear at the top level")
		}
	}

	var sb strings.Builder
	if g.opts.TargetTriple != "" {
		fmt.Fprintf(&sb, "target triple = %q\n\n", g.opts.TargetTriple)
	}
	for _, line := range globals {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for i, text := range funcs {
		if i > 0 || len(globals) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func kindOf(n ast.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Kind().String()
}

// prescan reserves function names so constants never shadow them.
func (g *Generator) prescan(file *ast.File) {
	for _, stmt := range file.Statements.Items {
		switch s := stmt.(type) {
		case *ast.UseStatement:
			g.globals.Reserve(s.Name)
		case *ast.FnDef:
			g.globals.Reserve(s.Name)
			g.defined[s.Name] = true
		}
	}
}

// declare renders an external function declaration. Pointer parameters
// are marked noalias nocapture. Duplicates and names defined in the file
// produce no line.
func (g *Generator) declare(u *ast.UseStatement) (string, error) {
	if g.declared[u.Name] || g.defined[u.Name] {
		return "", nil
	}
	g.declared[u.Name] = true
	ret, err := llvmType(u.Return)
	if err != nil {
		return "", err
	}
	params := make([]string, 0, u.Params.Len()+1)
	for _, p := range u.Params.Items {
		ty, err := llvmType(p)
		if err != nil {
			return "", err
		}
		if ty == "ptr" {
			ty += " noalias nocapture"
		}
		params = append(params, ty)
	}
	if u.Variadic {
		params = append(params, "...")
	}
	return fmt.Sprintf("declare %s @%s(%s)", ret, u.Name, strings.Join(params, ", ")), nil
}

// define renders a function definition and returns the module-level lines
// its body needs.
func (g *Generator) define(d *ast.FnDef) (string, []string, error) {
	if !ast.IsEmpty(d.Guard) {
		return "", nil, diag.Newf(diag.MalformedNode, ast.KindFnDef.String(), "guard was not inlined").WithName(d.Name)
	}
	if g.emitted[d.Name] {
		return "", nil, diag.Newf(diag.MalformedNode, ast.KindFnDef.String(), "defined more than once").WithName(d.Name)
	}
	g.emitted[d.Name] = true
	ret, err := llvmType(d.Return)
	if err != nil {
		return "", nil, err
	}
	fs := &funcState{name: d.Name, scope: NewScope(), vars: make(map[string]Value), ret: ret}
	g.fn = fs
	defer func() { g.fn = nil }()

	params := make([]string, 0, d.Params.Len())
	for i := range d.Params.Items {
		p := d.Param(i)
		fs.scope.Reserve(p.Name)
		v, err := typedValue(p.Type, "%"+p.Name)
		if err != nil {
			return "", nil, err
		}
		fs.vars[p.Name] = v
		params = append(params, v.String())
	}

	body, err := g.block(d.Body)
	if err != nil {
		return "", nil, err
	}
	if !body.Terminated {
		if ret == "void" {
			body.Terminate("ret void")
		} else {
			body.Terminate("unreachable")
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "define %s @%s(%s) {\n", ret, d.Name, strings.Join(params, ", "))
	for _, line := range body.Local {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String(), body.Global, nil
}

// block emits a statement sequence.
func (g *Generator) block(l *ast.List) (Fragment, error) {
	var out Fragment
	for i, stmt := range l.Items {
		f, err := g.emit(stmt)
		if err != nil {
			return Fragment{}, err
		}
		if i == 0 {
			out = f
			continue
		}
		out = g.fn.scope.Then(out, f)
	}
	return out, nil
}

func (g *Generator) emit(n ast.Node) (Fragment, error) {
	switch v := n.(type) {
	case *ast.List:
		return g.block(v)
	case *ast.Literal:
		return g.literal(v)
	case *ast.Variable:
		return g.variable(v)
	case *ast.Buffer:
		return g.buffer(v)
	case *ast.FnCall:
		return g.call(v)
	case *ast.Return:
		return g.ret(v)
	case *ast.Assign:
		return g.assign(v)
	case *ast.Op:
		return g.op(v)
	case *ast.Cast:
		return g.cast(v)
	case *ast.IfBlock:
		return g.ifBlock(v)
	case *ast.ForLoop:
		return g.forLoop(v)
	case *ast.VarDecl:
		return Fragment{}, diag.Newf(diag.MalformedNode, n.Kind().String(), "declaration survived inference").WithName(v.Var.Name)
	case *ast.StrConcat:
		return Fragment{}, diag.Newf(diag.MalformedNode, n.Kind().String(), "concatenation was not lowered")
	case *ast.UseStatement, *ast.FnDef, *ast.File:
		return Fragment{}, diag.Newf(diag.MalformedNode, n.Kind().String(), "not allowed inside a function body")
	case *ast.Type:
		return Fragment{}, diag.Newf(diag.MalformedNode, n.Kind().String(), "type in value position")
	}
	if ast.IsEmpty(n) {
		return Fragment{}, nil
	}
	return Fragment{}, diag.Newf(diag.MalformedNode, kindOf(n), "unknown node")
}

func (g *Generator) variable(v *ast.Variable) (Fragment, error) {
	val, ok := g.fn.vars[v.Name]
	if !ok {
		return Fragment{}, diag.Newf(diag.UnresolvedType, ast.KindVariable.String(), "not bound in %s", g.fn.name).WithName(v.Name)
	}
	return result(val), nil
}

// assign binds the target name to the expression's value.
func (g *Generator) assign(a *ast.Assign) (Fragment, error) {
	f, err := g.emit(a.Expr)
	if err != nil {
		return Fragment{}, err
	}
	if f.Type == "" && !f.Iterable() {
		return Fragment{}, diag.Newf(diag.TypeMismatch, ast.KindAssign.String(), "expression has no value").WithName(a.Target.Name)
	}
	g.fn.vars[a.Target.Name] = f.Value
	return f, nil
}

// buffer allocates the cell on the stack and binds its variable to it.
func (g *Generator) buffer(b *ast.Buffer) (Fragment, error) {
	capacity, err := safeCapacity(b.Capacity)
	if err != nil {
		return Fragment{}, err
	}
	name := g.fn.scope.Fresh(b.Var.Name)
	var f Fragment
	f.Emit("%%%s = alloca [%d x i8]", name, capacity)
	f.Value = Value{Type: "ptr", Ref: "%" + name}
	g.fn.vars[b.Var.Name] = f.Value
	return f, nil
}
