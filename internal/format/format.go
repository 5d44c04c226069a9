// ==============================================================================================
// FILE: internal/format/format.go
// ==============================================================================================
// PACKAGE: format
// PURPOSE: The canonical formatter (spec.md §4.9). Re-emits a parsed
//          Program with fixed whitespace/indentation; purely cosmetic —
//          it carries no semantic opinion of its own, only a printing
//          convention for the AST that internal/parser already builds.
//          Built in the teacher's own string-building idiom
//          (strings.Builder, one method per node shape) rather than
//          tracking source offsets, since the formatter's only testable
//          property is idempotence (spec.md §8 property 1/2), not
//          whitespace preservation.
// ==============================================================================================

package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manaknight/mkc/internal/ast"
)

const indentUnit = "    " // four spaces, per spec.md §4.9

// printer accumulates formatted source text. depth tracks the current
// indentation level; every block-opening construct bumps it by one.
type printer struct {
	buf   strings.Builder
	depth int

	exportNext bool // the next writeIndent also writes the `export ` prefix
}

func (p *printer) writeIndent() {
	p.buf.WriteString(strings.Repeat(indentUnit, p.depth))
	if p.exportNext {
		p.buf.WriteString("export ")
		p.exportNext = false
	}
}
func (p *printer) write(s string) { p.buf.WriteString(s) }
func (p *printer) writeln(s string) {
	p.writeIndent()
	p.buf.WriteString(s)
	p.buf.WriteString("\n")
}

// Program formats an entire parsed program: modules first (in source
// order), then top-level API routes, matching the order internal/ast's
// Program node carries them in.
func Program(prog *ast.Program) string {
	p := &printer{}
	for i, m := range prog.Modules {
		if i > 0 {
			p.write("\n")
		}
		p.module(m)
	}
	for _, r := range prog.Routes {
		if p.buf.Len() > 0 {
			p.write("\n")
		}
		p.route(r)
	}
	return p.buf.String()
}

func (p *printer) module(m *ast.Module) {
	if m.Name == "" {
		// Script-mode root module: its declarations are printed bare, with
		// no enclosing `module { }` block.
		for i, d := range m.Decls {
			if i > 0 {
				p.write("\n")
			}
			p.decl(d, m)
		}
		return
	}
	p.writeIndent()
	p.write(fmt.Sprintf("module %s {\n", m.Name))
	p.depth++
	for _, d := range m.Decls {
		p.decl(d, m)
	}
	p.depth--
	p.writeln("}")
}

func (p *printer) decl(d ast.Decl, m *ast.Module) {
	switch n := d.(type) {
	case *ast.FuncDecl:
		p.exportNext = m.Exported(n.Name)
		p.funcDecl(n)
	case *ast.TypeDecl:
		p.exportNext = m.Exported(n.Name)
		p.typeDecl(n)
	case *ast.EffectDecl:
		p.exportNext = m.Exported(n.Name)
		p.writeln(fmt.Sprintf("effect %s", n.Name))
	case *ast.ImportDecl:
		if n.Alias != "" {
			p.writeln(fmt.Sprintf("import %s as %s", n.Path, n.Alias))
		} else {
			p.writeln(fmt.Sprintf("import %s", n.Path))
		}
	}
}

func (p *printer) funcDecl(fd *ast.FuncDecl) {
	p.writeIndent()
	p.write("fn ")
	p.write(fd.Name)
	p.write("(")
	p.params(fd.Params)
	p.write(")")
	if fd.ReturnType != nil {
		p.write(" -> ")
		p.write(typeString(fd.ReturnType))
	}
	if len(fd.Effects) > 0 {
		p.write(" uses { ")
		p.write(strings.Join(fd.Effects, ", "))
		p.write(" }")
	}
	p.write(" ")
	p.block(fd.Body)
	p.write("\n")
}

func (p *printer) params(params []ast.Param) {
	parts := make([]string, len(params))
	for i, pr := range params {
		parts[i] = fmt.Sprintf("%s: %s", pr.Name, typeString(pr.Type))
	}
	p.write(strings.Join(parts, ", "))
}

func (p *printer) typeDecl(td *ast.TypeDecl) {
	p.writeIndent()
	p.write("type " + td.Name)
	if len(td.TypeParams) > 0 {
		p.write("<" + strings.Join(td.TypeParams, ", ") + ">")
	}
	p.write(" {\n")
	p.depth++
	switch body := td.Body.(type) {
	case ast.RecordBody:
		for _, f := range body.Fields {
			p.writeln(fmt.Sprintf("%s: %s", f.Name, typeString(f.Type)))
		}
	case ast.UnionBody:
		for _, v := range body.Variants {
			if len(v.Fields) == 0 {
				p.writeln(v.Name)
				continue
			}
			parts := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				parts[i] = typeString(f.Type)
			}
			p.writeln(fmt.Sprintf("%s(%s)", v.Name, strings.Join(parts, ", ")))
		}
	}
	p.depth--
	p.writeln("}")
}

func (p *printer) route(r *ast.APIRoute) {
	p.writeIndent()
	p.write(fmt.Sprintf("api %s %s (", r.Method, strconv.Quote(r.Path)))
	p.params(r.Params)
	p.write(") -> " + typeString(r.ReturnType) + " ")
	p.block(r.Body)
	p.write("\n")
}

func (p *printer) block(b *ast.Block) {
	p.write("{\n")
	p.depth++
	for _, s := range b.Statements {
		p.statement(s)
	}
	if b.Tail != nil {
		p.writeIndent()
		p.write(exprString(b.Tail))
		p.write("\n")
	}
	p.depth--
	p.writeIndent()
	p.write("}")
}

func (p *printer) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.LetStatement:
		p.writeIndent()
		p.write("let " + n.Name)
		if n.Declared != nil {
			p.write(": " + typeString(n.Declared))
		}
		p.write(" = " + exprString(n.Value) + "\n")
	case *ast.ExprStatement:
		p.writeIndent()
		p.write(exprString(n.Expr) + "\n")
	case *ast.IfStatement:
		p.writeIndent()
		p.write("if " + exprString(n.Cond) + " ")
		p.block(n.Then)
		p.write(" else ")
		p.block(n.Else)
		p.write("\n")
	case *ast.MatchStatement:
		p.writeIndent()
		p.write("match " + exprString(n.Scrutinee) + " {\n")
		p.depth++
		for _, arm := range n.Arms {
			p.writeIndent()
			p.write(patternString(arm.Pattern) + " -> ")
			p.block(arm.Body)
			p.write("\n")
		}
		p.depth--
		p.writeln("}")
	}
}

// exprString renders an expression inline, used both for tail positions
// and for nested sub-expressions — Manaknight has no multi-line expression
// forms outside of blocks, so a single recursive string builder suffices.
func exprString(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(n.Value, 10)
	case *ast.StringLiteral:
		return strconv.Quote(n.Value)
	case *ast.BoolLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *ast.UnitLiteral:
		return "()"
	case *ast.Identifier:
		return n.Name
	case *ast.QualifiedIdentifier:
		return n.Qualifier + "." + n.Name
	case *ast.CallExpression:
		if id, ok := n.Callee.(*ast.Identifier); ok {
			if s, ok := renderOperator(id.Name, n.Args); ok {
				return s
			}
		}
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", exprString(n.Callee), strings.Join(args, ", "))
	case *ast.LambdaExpression:
		params := make([]string, len(n.Params))
		for i, pr := range n.Params {
			params[i] = fmt.Sprintf("%s: %s", pr.Name, typeString(pr.Type))
		}
		return fmt.Sprintf("fn(%s) => %s", strings.Join(params, ", "), exprString(n.Body))
	case *ast.IfExpression:
		return fmt.Sprintf("if %s %s else %s", exprString(n.Cond), blockString(n.Then), blockString(n.Else))
	case *ast.MatchExpression:
		var sb strings.Builder
		sb.WriteString("match " + exprString(n.Scrutinee) + " { ")
		for i, arm := range n.Arms {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(patternString(arm.Pattern) + " -> " + blockString(arm.Body))
		}
		sb.WriteString(" }")
		return sb.String()
	case *ast.PipeExpression:
		return exprString(n.Left) + " |> " + exprString(n.Right)
	default:
		return ""
	}
}

// renderOperator reverses the parser's synthesis of prefix/infix
// operators into CallExpression nodes (`internal/parser`'s
// prefixOpName/infixOpName), so the formatter emits `a + b` rather than
// `__op_+(a, b)`.
func renderOperator(calleeName string, args []ast.Expression) (string, bool) {
	switch calleeName {
	case "__not":
		if len(args) == 1 {
			return "!" + exprString(args[0]), true
		}
	case "__neg":
		if len(args) == 1 {
			return "-" + exprString(args[0]), true
		}
	}
	if strings.HasPrefix(calleeName, "__op_") && len(args) == 2 {
		op := strings.TrimPrefix(calleeName, "__op_")
		return fmt.Sprintf("%s %s %s", exprString(args[0]), op, exprString(args[1])), true
	}
	return "", false
}

func blockString(b *ast.Block) string {
	p := &printer{}
	p.block(b)
	return p.buf.String()
}

func patternString(pat ast.Pattern) string {
	switch n := pat.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.ConstructorPattern:
		if len(n.Fields) == 0 {
			return n.Constructor
		}
		parts := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			parts[i] = f.Binder
		}
		return fmt.Sprintf("%s(%s)", n.Constructor, strings.Join(parts, ", "))
	default:
		return ""
	}
}

func typeString(t ast.Type) string {
	switch n := t.(type) {
	case *ast.PrimitiveType:
		return string(n.Kind)
	case *ast.NamedType:
		if len(n.Args) == 0 {
			return n.Name
		}
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = typeString(a)
		}
		return fmt.Sprintf("%s<%s>", n.Name, strings.Join(parts, ", "))
	case *ast.FuncType:
		parts := make([]string, len(n.Params))
		for i, pt := range n.Params {
			parts[i] = typeString(pt)
		}
		s := fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), typeString(n.Return))
		if len(n.Effects) > 0 {
			s += " uses { " + strings.Join(n.Effects, ", ") + " }"
		}
		return s
	default:
		return ""
	}
}
