// ==============================================================================================
// FILE: internal/lower/expr.go
// PURPOSE: Statement- and expression-level lowering, split out of
//          lower.go the way internal/checker splits checker.go/expr.go.
// ==============================================================================================

package lower

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
)

// emitBlockReturning renders b as a function body: every statement in
// order, then `return <tail>;` for the block's trailing expression. Used
// for function bodies and match-arm bodies, where the block's value is
// the enclosing construct's value.
func (e *emitter) emitBlockReturning(b *ast.Block, indent string) string {
	var out strings.Builder
	for _, s := range b.Statements {
		out.WriteString(e.emitStatement(s, indent))
	}
	if b.Tail != nil {
		fmt.Fprintf(&out, "%sreturn %s;\n", indent, e.emitExpr(b.Tail))
	}
	return out.String()
}

// emitBlockDiscard renders b the way a nested, non-tail-position branch
// (an IfStatement or MatchStatement arm reached mid-function) is lowered:
// statements in order, then the trailing expression (if any) evaluated
// for its effects alone, its value discarded. Manaknight has no early
// `return`, so nothing here can exit the enclosing function early — it
// only runs for side effects.
func (e *emitter) emitBlockDiscard(b *ast.Block, indent string) string {
	var out strings.Builder
	for _, s := range b.Statements {
		out.WriteString(e.emitStatement(s, indent))
	}
	if b.Tail != nil {
		fmt.Fprintf(&out, "%s%s;\n", indent, e.emitExpr(b.Tail))
	}
	return out.String()
}

func (e *emitter) emitStatement(s ast.Statement, indent string) string {
	switch x := s.(type) {
	case *ast.LetStatement:
		return fmt.Sprintf("%sconst %s = %s;\n", indent, jsName(x.Name), e.emitExpr(x.Value))
	case *ast.ExprStatement:
		return fmt.Sprintf("%s%s;\n", indent, e.emitExpr(x.Expr))
	case *ast.IfStatement:
		var out strings.Builder
		fmt.Fprintf(&out, "%sif (%s) {\n", indent, e.emitExpr(x.Cond))
		out.WriteString(e.emitBlockDiscard(x.Then, indent+"  "))
		fmt.Fprintf(&out, "%s} else {\n", indent)
		out.WriteString(e.emitBlockDiscard(x.Else, indent+"  "))
		fmt.Fprintf(&out, "%s}\n", indent)
		return out.String()
	case *ast.MatchStatement:
		return e.emitMatch(x.Scrutinee, x.Arms, indent, false)
	default:
		e.diags.Addf(diag.ErrInternal, diag.Position{}, "lower: unhandled statement %T", s)
		return ""
	}
}

// emitExpr renders e as a JS expression. Control constructs that need a
// value (IfExpression, MatchExpression) are wrapped in an
// immediately-invoked function, the "block required" encoding spec.md
// §4.8 explicitly allows as an alternative to the ternary form — chosen
// uniformly here for determinism and to share code with the statement-
// position lowering above.
func (e *emitter) emitExpr(expr ast.Expression) string {
	switch x := expr.(type) {
	case *ast.IntLiteral:
		return fmt.Sprintf("%d", x.Value)
	case *ast.BoolLiteral:
		if x.Value {
			return "true"
		}
		return "false"
	case *ast.StringLiteral:
		b, _ := json.Marshal(x.Value)
		return string(b)
	case *ast.UnitLiteral:
		// Unit has no JS analogue that isn't forbidden (null/undefined are
		// both off-limits); an empty object literal is a plain value with
		// no tag field, so it can never be confused with a tagged union.
		return "{}"
	case *ast.Identifier:
		return jsName(x.Name)
	case *ast.QualifiedIdentifier:
		// The emitted module has no namespacing (spec.md §6's "single
		// module-per-input file"), so a qualified reference lowers to the
		// same plain function name an unaliased import of the same symbol
		// would.
		return jsName(x.Name)
	case *ast.CallExpression:
		return e.emitCall(x)
	case *ast.LambdaExpression:
		params := make([]string, len(x.Params))
		for i, p := range x.Params {
			params[i] = jsName(p.Name)
		}
		return fmt.Sprintf("(function (%s) { return %s; })", strings.Join(params, ", "), e.emitExpr(x.Body))
	case *ast.IfExpression:
		var out strings.Builder
		out.WriteString("(function () {\n")
		fmt.Fprintf(&out, "  if (%s) {\n", e.emitExpr(x.Cond))
		out.WriteString(e.emitBlockReturning(x.Then, "    "))
		out.WriteString("  } else {\n")
		out.WriteString(e.emitBlockReturning(x.Else, "    "))
		out.WriteString("  }\n")
		out.WriteString("})()")
		return out.String()
	case *ast.MatchExpression:
		var out strings.Builder
		out.WriteString("(function () {\n")
		out.WriteString(e.emitMatch(x.Scrutinee, x.Arms, "  ", true))
		out.WriteString("})()")
		return out.String()
	case *ast.PipeExpression:
		return e.emitPipe(x)
	default:
		e.diags.Addf(diag.ErrInternal, diag.Position{}, "lower: unhandled expression %T", expr)
		return "undefined"
	}
}

// emitCall renders a call, dispatching constructor application to an
// object literal and threading __effects through any call whose callee is
// a known effectful function.
func (e *emitter) emitCall(x *ast.CallExpression) string {
	var name string
	switch callee := x.Callee.(type) {
	case *ast.Identifier:
		name = callee.Name
	case *ast.QualifiedIdentifier:
		name = callee.Name
	default:
		return fmt.Sprintf("(%s)(%s)", e.emitExpr(x.Callee), e.emitArgs(x.Args))
	}
	if isOperatorName(name) {
		return e.emitOperator(name, x.Args)
	}
	if shape, ok := resolveCtor(e.tds, name); ok {
		return e.emitObjectLiteral(shape, x.Args)
	}
	args := make([]string, len(x.Args))
	for i, a := range x.Args {
		args[i] = e.emitExpr(a)
	}
	if e.effectful[name] {
		args = append(args, "__effects")
	}
	return fmt.Sprintf("%s(%s)", jsName(name), strings.Join(args, ", "))
}

func (e *emitter) emitArgs(args []ast.Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.emitExpr(a)
	}
	return strings.Join(parts, ", ")
}

func isOperatorName(name string) bool {
	return strings.HasPrefix(name, "__op_") || name == "__neg" || name == "__not"
}

func (e *emitter) emitOperator(name string, args []ast.Expression) string {
	if name == "__neg" {
		return fmt.Sprintf("(-%s)", e.emitExpr(args[0]))
	}
	if name == "__not" {
		return fmt.Sprintf("(!%s)", e.emitExpr(args[0]))
	}
	op := opJS[strings.TrimPrefix(name, "__op_")]
	return fmt.Sprintf("(%s %s %s)", e.emitExpr(args[0]), op, e.emitExpr(args[1]))
}

// emitPipe lowers `a |> f` to `f(a)`. When the target is a plain
// identifier naming a known effectful function, __effects is threaded
// through exactly as an ordinary call to it would be; any other callable
// expression (a lambda, a compose(...) result) is always pure as far as
// the effect analyzer can tell statically (see internal/effects'
// calleeEffects), so nothing is threaded.
func (e *emitter) emitPipe(x *ast.PipeExpression) string {
	left := e.emitExpr(x.Left)
	var name string
	switch right := x.Right.(type) {
	case *ast.Identifier:
		name = right.Name
	case *ast.QualifiedIdentifier:
		name = right.Name
	}
	if name != "" && !isOperatorName(name) {
		if shape, ok := resolveCtor(e.tds, name); ok {
			return e.emitObjectLiteral(shape, []ast.Expression{x.Left})
		}
		args := []string{left}
		if e.effectful[name] {
			args = append(args, "__effects")
		}
		return fmt.Sprintf("%s(%s)", jsName(name), strings.Join(args, ", "))
	}
	return fmt.Sprintf("(%s)(%s)", e.emitExpr(x.Right), left)
}

// emitMatch renders a match as a chain of `if (x.tag === "Ctor") { ... }`
// blocks. asExpr selects whether each arm (and the terminal else) is
// lowered with emitBlockReturning (match used as an expression) or
// emitBlockDiscard (match used as a bare statement).
func (e *emitter) emitMatch(scrutinee ast.Expression, arms []ast.MatchArm, indent string, asExpr bool) string {
	scrutJS := e.emitExpr(scrutinee)
	scrutVar := "__scrutinee"
	var out strings.Builder
	fmt.Fprintf(&out, "%sconst %s = %s;\n", indent, scrutVar, scrutJS)

	var wildcard *ast.MatchArm
	first := true
	for i := range arms {
		arm := arms[i]
		cp, ok := arm.Pattern.(*ast.ConstructorPattern)
		if !ok {
			wildcard = &arms[i]
			break
		}
		shape, _ := resolveCtor(e.tds, cp.Constructor)
		keyword := "if"
		if !first {
			keyword = "} else if"
		}
		first = false
		if shape.tag != "" {
			fmt.Fprintf(&out, "%s%s (%s.tag === %q) {\n", indent, keyword, scrutVar, shape.tag)
		} else {
			fmt.Fprintf(&out, "%s%s (true) {\n", indent, keyword)
		}
		for i, f := range cp.Fields {
			if f.Binder == "" {
				continue
			}
			fieldName := fmt.Sprintf("_%d", i)
			if i < len(shape.fields) {
				fieldName = shape.fields[i]
			}
			fmt.Fprintf(&out, "%s  const %s = %s.%s;\n", indent, jsName(f.Binder), scrutVar, jsName(fieldName))
		}
		if asExpr {
			out.WriteString(e.emitBlockReturning(arm.Body, indent+"  "))
		} else {
			out.WriteString(e.emitBlockDiscard(arm.Body, indent+"  "))
		}
	}
	fmt.Fprintf(&out, "%s} else {\n", indent)
	if wildcard != nil {
		if asExpr {
			out.WriteString(e.emitBlockReturning(wildcard.Body, indent+"  "))
		} else {
			out.WriteString(e.emitBlockDiscard(wildcard.Body, indent+"  "))
		}
	} else {
		// The exhaustiveness checker has already proven this branch
		// unreachable; it is still emitted, calling into the runtime
		// collaborator rather than a forbidden `throw`, so corrupted
		// bytecode surfaces E7004 instead of undefined behavior.
		if asExpr {
			fmt.Fprintf(&out, "%s  return __unreachable(%s);\n", indent, scrutVar)
		} else {
			fmt.Fprintf(&out, "%s  __unreachable(%s);\n", indent, scrutVar)
		}
	}
	fmt.Fprintf(&out, "%s}\n", indent)
	return out.String()
}

// ctorShape describes how to render a constructor application as an
// object literal: tag is the discriminant value for a tagged-union
// variant, left empty for a plain record (no tag field at all), and
// fields is the declared field-name order construction args bind to
// positionally.
type ctorShape struct {
	tag    string
	fields []string
}

// resolveCtor looks name up against every type declaration the checker
// saw, matching either a union variant or a record's own name (a record
// has exactly one implicit constructor, sharing the type's name).
func resolveCtor(tds map[string]*ast.TypeDecl, name string) (ctorShape, bool) {
	for _, td := range tds {
		switch body := td.Body.(type) {
		case ast.UnionBody:
			for _, v := range body.Variants {
				if v.Name == name {
					return ctorShape{tag: name, fields: fieldNames(v.Fields)}, true
				}
			}
		case ast.RecordBody:
			if td.Name == name {
				return ctorShape{fields: fieldNames(body.Fields)}, true
			}
		}
	}
	return ctorShape{}, false
}

func fieldNames(fields []ast.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func (e *emitter) emitObjectLiteral(shape ctorShape, args []ast.Expression) string {
	var parts []string
	if shape.tag != "" {
		parts = append(parts, fmt.Sprintf("tag: %q", shape.tag))
	}
	for i, a := range args {
		name := fmt.Sprintf("_%d", i)
		if i < len(shape.fields) {
			name = shape.fields[i]
		}
		parts = append(parts, fmt.Sprintf("%s: %s", jsName(name), e.emitExpr(a)))
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, ", "))
}
