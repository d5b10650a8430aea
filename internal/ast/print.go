package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders n on a single line. The format is for diagnostics and
// test failure messages; it is not parsed back.
func Dump(n Node) string {
	var p printer
	p.node(orEmpty(n))
	return p.sb.String()
}

// DumpTree renders n with one statement per line, indenting nested blocks.
func DumpTree(n Node) string {
	p := printer{multiline: true}
	p.node(orEmpty(n))
	return p.sb.String()
}

type printer struct {
	sb        strings.Builder
	multiline bool
	depth     int
}

func (p *printer) typed(t Node) {
	p.sb.WriteString(": ")
	p.sb.WriteString(TypeString(t))
}

func (p *printer) list(l *List, sep string) {
	for i, item := range l.Items {
		if i > 0 {
			p.sb.WriteString(sep)
		}
		p.node(item)
	}
}

func (p *printer) block(l *List) {
	if !p.multiline {
		p.sb.WriteString("{ ")
		p.list(l, "; ")
		p.sb.WriteString(" }")
		return
	}
	p.sb.WriteString("{\n")
	p.depth++
	for _, item := range l.Items {
		p.sb.WriteString(strings.Repeat("  ", p.depth))
		p.node(item)
		p.sb.WriteString("\n")
	}
	p.depth--
	p.sb.WriteString(strings.Repeat("  ", p.depth))
	p.sb.WriteString("}")
}

func (p *printer) node(n Node) {
	switch v := n.(type) {
	case emptyNode:
		p.sb.WriteString("Empty")
	case *List:
		p.sb.WriteString("[")
		p.list(v, ", ")
		p.sb.WriteString("]")
	case *File:
		if p.multiline {
			for _, s := range v.Statements.Items {
				p.node(s)
				p.sb.WriteString("\n")
			}
			return
		}
		p.sb.WriteString("file ")
		p.block(v.Statements)
	case *Type:
		p.sb.WriteString(TypeString(v))
	case *Literal:
		p.literal(v)
	case *Variable:
		p.sb.WriteString(v.Name)
		p.typed(v.Type)
	case *Buffer:
		fmt.Fprintf(&p.sb, "buffer(%s, %d)", v.Var.Name, v.Capacity)
	case *UseStatement:
		p.sb.WriteString("use ")
		p.sb.WriteString(v.Name)
		p.sb.WriteString("(")
		for i, t := range v.Params.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(TypeString(t))
		}
		if v.Variadic {
			if v.Params.Len() > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString("...")
		}
		p.sb.WriteString(")")
		if !IsEmpty(v.Return) {
			p.sb.WriteString(" ")
			p.sb.WriteString(TypeString(v.Return))
		}
	case *FnDef:
		p.sb.WriteString("fn ")
		p.sb.WriteString(v.Name)
		p.sb.WriteString("(")
		p.list(v.Params, ", ")
		p.sb.WriteString(")")
		if !IsEmpty(v.Return) {
			p.sb.WriteString(" ")
			p.sb.WriteString(TypeString(v.Return))
		}
		if !IsEmpty(v.Guard) {
			p.sb.WriteString(" | ")
			p.node(v.Guard)
		}
		p.sb.WriteString(" ")
		p.block(v.Body)
	case *IfBlock:
		p.sb.WriteString("if ")
		p.node(v.Test)
		p.sb.WriteString(" ")
		p.block(v.Pass)
		if l := v.FailList(); l != nil {
			p.sb.WriteString(" else ")
			p.block(l)
		}
	case *ForLoop:
		p.sb.WriteString("for ")
		if lv := v.Variable(); lv != nil {
			p.node(lv)
			p.sb.WriteString(" in ")
		}
		p.node(v.Source)
		p.sb.WriteString(" ")
		p.block(v.Body)
	case *FnCall:
		p.sb.WriteString(v.Name)
		p.sb.WriteString("(")
		p.list(v.Args, ", ")
		p.sb.WriteString(")")
		p.typed(v.Type)
	case *Return:
		p.sb.WriteString("return")
		if !IsEmpty(v.Expr) {
			p.sb.WriteString(" ")
			p.node(v.Expr)
		}
	case *VarDecl:
		p.sb.WriteString("let ")
		p.sb.WriteString(v.Var.Name)
		p.typed(v.Type)
	case *Assign:
		p.sb.WriteString(v.Target.Name)
		p.sb.WriteString(" = ")
		p.node(v.Expr)
	case *Op:
		p.sb.WriteString("(")
		p.node(v.Left)
		p.sb.WriteString(" ")
		p.sb.WriteString(v.Operator.String())
		p.sb.WriteString(" ")
		p.node(v.Right)
		p.sb.WriteString(")")
		p.typed(v.Type)
	case *StrConcat:
		p.sb.WriteString("concat(")
		p.list(v.Items, ", ")
		p.sb.WriteString(")")
	case *Cast:
		p.sb.WriteString("cast<")
		p.sb.WriteString(TypeString(v.Target))
		p.sb.WriteString(">(")
		p.node(v.Expr)
		p.sb.WriteString(")")
	default:
		fmt.Fprintf(&p.sb, "<%T>", n)
	}
}

func (p *printer) literal(l *Literal) {
	switch l.Tag() {
	case TagArray:
		p.sb.WriteString("[")
		p.list(l.Items, ", ")
		p.sb.WriteString("]")
	case TagRange:
		p.node(l.Start)
		p.sb.WriteString("..")
		p.node(l.End)
	default:
		p.sb.WriteString(FormatValue(l.Value))
	}
	p.typed(l.Type)
}

// FormatValue renders a scalar literal value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
