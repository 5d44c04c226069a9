// ==============================================================================================
// FILE: internal/checker/expr.go
// PURPOSE: The expression/statement/block typing rules, kept apart from
//          checker.go's whole-graph bookkeeping the same way the teacher
//          splits evalExpression-shaped helpers from Eval's own dispatch.
// ==============================================================================================

package checker

import (
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/scope"
	"github.com/manaknight/mkc/internal/types"
)

// tenv is a parallel chain to scope.Scope that remembers the resolved type
// of every let and parameter binding. scope.Scope alone only answers "is
// this name declared, and as what kind" (the question shadow-prohibition
// needs); it does not carry a value type, since ast.Param and
// ast.LetStatement are not registered with per-binding type storage of
// their own. Every scope.New is matched by a newTenv so the two chains stay
// in lockstep.
type tenv struct {
	outer *tenv
	vars  map[string]types.Type
}

func newTenv(outer *tenv) *tenv {
	return &tenv{outer: outer, vars: make(map[string]types.Type)}
}

func (e *tenv) set(name string, t types.Type) { e.vars[name] = t }

func (e *tenv) get(name string) (types.Type, bool) {
	if t, ok := e.vars[name]; ok {
		return t, true
	}
	if e.outer != nil {
		return e.outer.get(name)
	}
	return nil, false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ------------------------------------------------------------------------
// Blocks & statements
// ------------------------------------------------------------------------

func (c *Checker) checkBlock(b *ast.Block, s *scope.Scope, te *tenv) types.Type {
	if b == nil {
		return types.Unit
	}
	blockScope := scope.New(s)
	blockTenv := newTenv(te)
	for _, stmt := range b.Statements {
		c.checkStatement(stmt, blockScope, blockTenv)
	}
	if b.Tail != nil {
		return c.checkExpr(b.Tail, blockScope, blockTenv)
	}
	return types.Unit
}

func (c *Checker) checkStatement(stmt ast.Statement, s *scope.Scope, te *tenv) {
	switch x := stmt.(type) {
	case *ast.LetStatement:
		valT := c.checkExpr(x.Value, s, te)
		if x.Declared != nil {
			want := c.resolveType(x.Declared, nil)
			if !types.Equal(want, valT) {
				c.errorf(diag.ErrTypeMismatch, x.Position(),
					"let %q declares %s but its initializer has type %s", x.Name, want, valT)
			}
		}
		s.Declare(scope.Symbol{Name: x.Name, Kind: scope.KindLet, ID: x.NodeID()}, x.Position(), &c.diags)
		te.set(x.Name, valT)
		c.result[x.NodeID()] = valT
	case *ast.ExprStatement:
		c.result[x.NodeID()] = c.checkExpr(x.Expr, s, te)
	case *ast.IfStatement:
		condT := c.checkExpr(x.Cond, s, te)
		if !types.Equal(condT, types.Bool) {
			c.errorf(diag.ErrNotBool, x.Cond.Position(), "if condition must be Bool, got %s", condT)
		}
		c.checkBlock(x.Then, s, te)
		c.checkBlock(x.Else, s, te)
	case *ast.MatchStatement:
		c.checkMatchArms(x.Scrutinee, x.Arms, s, te)
	}
}

// ------------------------------------------------------------------------
// Expressions
// ------------------------------------------------------------------------

func (c *Checker) checkExpr(e ast.Expression, s *scope.Scope, te *tenv) types.Type {
	t := c.checkExprUncached(e, s, te)
	c.result[e.NodeID()] = t
	return t
}

func (c *Checker) checkExprUncached(e ast.Expression, s *scope.Scope, te *tenv) types.Type {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return types.Int
	case *ast.StringLiteral:
		return types.String
	case *ast.BoolLiteral:
		return types.Bool
	case *ast.UnitLiteral:
		return types.Unit
	case *ast.Identifier:
		return c.checkIdentifier(x, te)
	case *ast.QualifiedIdentifier:
		return c.checkQualifiedIdentifier(x)
	case *ast.CallExpression:
		return c.checkCall(x, s, te)
	case *ast.LambdaExpression:
		return c.checkLambda(x, s, te)
	case *ast.IfExpression:
		return c.checkIfExpr(x, s, te)
	case *ast.MatchExpression:
		return c.checkMatchArms(x.Scrutinee, x.Arms, s, te)
	case *ast.PipeExpression:
		return c.checkPipe(x, s, te)
	default:
		c.errorf(diag.ErrInternal, e.Position(), "unhandled expression node %T", e)
		return types.Unit
	}
}

func (c *Checker) checkIdentifier(x *ast.Identifier, te *tenv) types.Type {
	if t, ok := te.get(x.Name); ok {
		return t
	}
	if sig, ok := c.funcSigs[x.Name]; ok {
		return sig
	}
	if info, ok := c.ctors[x.Name]; ok {
		return c.ctorBareType(info)
	}
	if sig, ok := c.builtins[x.Name]; ok {
		return sig
	}
	c.errorf(diag.ErrUnknownIdentifier, x.Position(), "unknown identifier %q", x.Name)
	return types.Unit
}

// resolveQualified validates `alias.name` against the module bound to
// alias by an `import ... as alias` declaration (spec.md §4.4), reporting
// E5003 when name exists in the target module but was not exported, and
// E2001 when alias names no known import or name is unknown in the target
// module entirely. Callers consult c.ctors/c.funcSigs by x.Name themselves
// once ok is true, the same way a bare identifier reference would.
func (c *Checker) resolveQualified(x *ast.QualifiedIdentifier) (target *ast.Module, ok bool) {
	target, ok = c.curImports[x.Qualifier]
	if !ok {
		c.errorf(diag.ErrUnknownIdentifier, x.Position(), "unknown import alias %q", x.Qualifier)
		return nil, false
	}
	if !target.HasDecl(x.Name) {
		c.errorf(diag.ErrUnknownIdentifier, x.Position(), "module %q has no member %q", target.Name, x.Name)
		return nil, false
	}
	if !target.ExportedName(x.Name) {
		c.errorf(diag.ErrNotExported, x.Position(), "%q is not exported by module %q", x.Name, target.Name)
		return nil, false
	}
	return target, true
}

func (c *Checker) checkQualifiedIdentifier(x *ast.QualifiedIdentifier) types.Type {
	if _, ok := c.resolveQualified(x); !ok {
		return types.Unit
	}
	if info, ok := c.ctors[x.Name]; ok {
		return c.ctorBareType(info)
	}
	if sig, ok := c.funcSigs[x.Name]; ok {
		return sig
	}
	c.errorf(diag.ErrUnknownIdentifier, x.Position(), "unknown identifier %q", x.Name)
	return types.Unit
}

// checkQualifiedCall handles a call whose callee is `alias.name(args)`,
// dispatching to constructor or ordinary-function argument checking exactly
// as checkCall does for a bare identifier callee.
func (c *Checker) checkQualifiedCall(x *ast.CallExpression, qi *ast.QualifiedIdentifier, s *scope.Scope, te *tenv) types.Type {
	if _, ok := c.resolveQualified(qi); !ok {
		for _, a := range x.Args {
			c.checkExpr(a, s, te)
		}
		return types.Unit
	}
	if info, ok := c.ctors[qi.Name]; ok {
		return c.checkConstructorCall(x, info, s, te)
	}
	if sig, ok := c.funcSigs[qi.Name]; ok {
		return c.checkArgsAgainstFunc(x, sig, s, te, qi.Name)
	}
	c.errorf(diag.ErrUnknownIdentifier, qi.Position(), "unknown function %q", qi.Name)
	for _, a := range x.Args {
		c.checkExpr(a, s, te)
	}
	return types.Unit
}

func (c *Checker) ctorBareType(info ctorInfo) types.Type {
	args := make([]types.Type, len(info.owner.TypeParams))
	for i, tp := range info.owner.TypeParams {
		args[i] = &types.TypeParam{Name: tp}
	}
	return &types.Named{Name: info.owner.Name, Args: args}
}

func isOperatorName(name string) bool {
	return strings.HasPrefix(name, "__op_") || name == "__neg" || name == "__not"
}

func (c *Checker) checkCall(x *ast.CallExpression, s *scope.Scope, te *tenv) types.Type {
	if qi, ok := x.Callee.(*ast.QualifiedIdentifier); ok {
		return c.checkQualifiedCall(x, qi, s, te)
	}
	callee, ok := x.Callee.(*ast.Identifier)
	if !ok {
		calleeT := c.checkExpr(x.Callee, s, te)
		fn, ok := calleeT.(*types.Func)
		if !ok {
			c.errorf(diag.ErrTypeMismatch, x.Callee.Position(), "expression is not callable")
			for _, a := range x.Args {
				c.checkExpr(a, s, te)
			}
			return types.Unit
		}
		return c.checkArgsAgainstFunc(x, fn, s, te, "<expr>")
	}

	if isOperatorName(callee.Name) {
		return c.checkOperator(x, callee.Name, s, te)
	}
	if info, ok := c.ctors[callee.Name]; ok {
		return c.checkConstructorCall(x, info, s, te)
	}
	if sig, ok := c.funcSigs[callee.Name]; ok {
		return c.checkArgsAgainstFunc(x, sig, s, te, callee.Name)
	}
	if sig, ok := c.builtins[callee.Name]; ok {
		return c.checkBuiltinCall(x, sig, s, te, callee.Name)
	}
	if t, ok := te.get(callee.Name); ok {
		if fn, ok := t.(*types.Func); ok {
			return c.checkArgsAgainstFunc(x, fn, s, te, callee.Name)
		}
		c.errorf(diag.ErrTypeMismatch, callee.Position(), "%q is not callable", callee.Name)
		return types.Unit
	}
	c.errorf(diag.ErrUnknownIdentifier, callee.Position(), "unknown function %q", callee.Name)
	for _, a := range x.Args {
		c.checkExpr(a, s, te)
	}
	return types.Unit
}

func (c *Checker) checkArgsAgainstFunc(x *ast.CallExpression, sig *types.Func, s *scope.Scope, te *tenv, name string) types.Type {
	if len(x.Args) != len(sig.Params) {
		c.errorf(diag.ErrArity, x.Position(), "%q expects %d argument(s), got %d", name, len(sig.Params), len(x.Args))
	}
	n := minInt(len(x.Args), len(sig.Params))
	for i, a := range x.Args {
		argT := c.checkExpr(a, s, te)
		if i < n && !types.Equal(argT, sig.Params[i]) {
			c.errorf(diag.ErrTypeMismatch, a.Position(),
				"argument %d to %q has type %s, expected %s", i+1, name, argT, sig.Params[i])
		}
	}
	return sig.Return
}

func (c *Checker) checkConstructorCall(x *ast.CallExpression, info ctorInfo, s *scope.Scope, te *tenv) types.Type {
	if len(x.Args) != len(info.fieldTypes) {
		c.errorf(diag.ErrArity, x.Position(),
			"%q expects %d argument(s), got %d", info.variant.Name, len(info.fieldTypes), len(x.Args))
	}
	n := minInt(len(x.Args), len(info.fieldTypes))
	bindings := make(map[string]types.Type)
	for i, a := range x.Args {
		argT := c.checkExpr(a, s, te)
		if i < n {
			c.unifyBind(info.fieldTypes[i], argT, bindings)
			if _, isParam := info.fieldTypes[i].(*types.TypeParam); !isParam {
				if !types.Equal(types.Substitute(info.fieldTypes[i], bindings), argT) {
					c.errorf(diag.ErrTypeMismatch, a.Position(),
						"argument %d to %q has type %s, expected %s", i+1, info.variant.Name, argT, info.fieldTypes[i])
				}
			}
		}
	}
	args := make([]types.Type, len(info.owner.TypeParams))
	for i, tp := range info.owner.TypeParams {
		if b, ok := bindings[tp]; ok {
			args[i] = b
		} else {
			args[i] = &types.TypeParam{Name: tp}
		}
	}
	return &types.Named{Name: info.owner.Name, Args: args}
}

// unifyBind walks declared (which may contain TypeParam placeholders from
// the owning generic type declaration) against actual, recording the first
// concrete type seen for each type parameter. This is a structural,
// single-pass binder, not a full unifier with occurs-check or later
// re-verification across multiple call sites — adequate for Manaknight's
// single-constructor-application generics.
func (c *Checker) unifyBind(declared, actual types.Type, bindings map[string]types.Type) {
	switch d := declared.(type) {
	case *types.TypeParam:
		if _, ok := bindings[d.Name]; !ok {
			bindings[d.Name] = actual
		}
	case *types.Named:
		a, ok := actual.(*types.Named)
		if !ok || a.Name != d.Name || len(a.Args) != len(d.Args) {
			return
		}
		for i := range d.Args {
			c.unifyBind(d.Args[i], a.Args[i], bindings)
		}
	case *types.Func:
		a, ok := actual.(*types.Func)
		if !ok || len(a.Params) != len(d.Params) {
			return
		}
		for i := range d.Params {
			c.unifyBind(d.Params[i], a.Params[i], bindings)
		}
		c.unifyBind(d.Return, a.Return, bindings)
	}
}

// checkBuiltinCall type-checks a call to one of the prelude's polymorphic
// intrinsics (identity, equals, hash, pipe, compose, not, and, or). Unlike
// checkArgsAgainstFunc, each declared parameter may contain a TypeParam, so
// arguments are bound via unifyBind first and only then compared against
// the (now-substituted) declared type — the same two-step checkConstructorCall
// already uses for generic constructor application.
func (c *Checker) checkBuiltinCall(x *ast.CallExpression, sig *types.Func, s *scope.Scope, te *tenv, name string) types.Type {
	if len(x.Args) != len(sig.Params) {
		c.errorf(diag.ErrArity, x.Position(), "%q expects %d argument(s), got %d", name, len(sig.Params), len(x.Args))
	}
	n := minInt(len(x.Args), len(sig.Params))
	bindings := make(map[string]types.Type)
	argTypes := make([]types.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = c.checkExpr(a, s, te)
		if i < n {
			c.unifyBind(sig.Params[i], argTypes[i], bindings)
		}
	}
	for i := 0; i < n; i++ {
		want := types.Substitute(sig.Params[i], bindings)
		if !types.Equal(want, argTypes[i]) {
			c.errorf(diag.ErrTypeMismatch, x.Args[i].Position(),
				"argument %d to %q has type %s, expected %s", i+1, name, argTypes[i], want)
		}
	}
	return types.Substitute(sig.Return, bindings)
}

func (c *Checker) checkOperator(x *ast.CallExpression, name string, s *scope.Scope, te *tenv) types.Type {
	argTypes := make([]types.Type, len(x.Args))
	for i, a := range x.Args {
		argTypes[i] = c.checkExpr(a, s, te)
	}
	switch name {
	case "__neg":
		if len(argTypes) == 1 && !types.Equal(argTypes[0], types.Int) {
			c.errorf(diag.ErrTypeMismatch, x.Position(), "unary - expects Int, got %s", argTypes[0])
		}
		return types.Int
	case "__not":
		if len(argTypes) == 1 && !types.Equal(argTypes[0], types.Bool) {
			c.errorf(diag.ErrTypeMismatch, x.Position(), "! expects Bool, got %s", argTypes[0])
		}
		return types.Bool
	case "__op_+":
		if len(argTypes) == 2 && types.Equal(argTypes[0], types.String) && types.Equal(argTypes[1], types.String) {
			return types.String
		}
		for _, t := range argTypes {
			if !types.Equal(t, types.Int) {
				c.errorf(diag.ErrTypeMismatch, x.Position(), "%s requires Int or String operands, got %s", name, t)
			}
		}
		return types.Int
	case "__op_-", "__op_*", "__op_/", "__op_%":
		for _, t := range argTypes {
			if !types.Equal(t, types.Int) {
				c.errorf(diag.ErrTypeMismatch, x.Position(), "%s requires Int operands, got %s", name, t)
			}
		}
		return types.Int
	case "__op_==", "__op_!=":
		if len(argTypes) == 2 {
			if _, isFunc := argTypes[0].(*types.Func); isFunc {
				c.errorf(diag.ErrTypeMismatch, x.Position(), "%s cannot compare function-typed operands", name)
			} else if !types.Equal(argTypes[0], argTypes[1]) {
				c.errorf(diag.ErrTypeMismatch, x.Position(),
					"%s requires operands of the same type, got %s and %s", name, argTypes[0], argTypes[1])
			}
		}
		return types.Bool
	case "__op_<", "__op_>", "__op_<=", "__op_>=":
		if len(argTypes) == 2 && types.Equal(argTypes[0], types.String) && types.Equal(argTypes[1], types.String) {
			return types.Bool
		}
		for _, t := range argTypes {
			if !types.Equal(t, types.Int) {
				c.errorf(diag.ErrTypeMismatch, x.Position(), "%s requires Int or String operands, got %s", name, t)
			}
		}
		return types.Bool
	case "__op_&&", "__op_||":
		for _, t := range argTypes {
			if !types.Equal(t, types.Bool) {
				c.errorf(diag.ErrTypeMismatch, x.Position(), "%s requires Bool operands, got %s", name, t)
			}
		}
		return types.Bool
	default:
		return types.Unit
	}
}

func (c *Checker) checkLambda(x *ast.LambdaExpression, s *scope.Scope, te *tenv) types.Type {
	lamScope := scope.New(s)
	lamTenv := newTenv(te)
	paramTypes := make([]types.Type, len(x.Params))
	for i, p := range x.Params {
		t := c.resolveType(p.Type, nil)
		paramTypes[i] = t
		lamScope.Declare(scope.Symbol{Name: p.Name, Kind: scope.KindParam}, x.Position(), &c.diags)
		lamTenv.set(p.Name, t)
	}
	bodyT := c.checkExpr(x.Body, lamScope, lamTenv)
	c.scopes[x.NodeID()] = lamScope
	return &types.Func{Params: paramTypes, Return: bodyT, Effects: types.NewEffectSet()}
}

func (c *Checker) checkIfExpr(x *ast.IfExpression, s *scope.Scope, te *tenv) types.Type {
	condT := c.checkExpr(x.Cond, s, te)
	if !types.Equal(condT, types.Bool) {
		c.errorf(diag.ErrNotBool, x.Cond.Position(), "if condition must be Bool, got %s", condT)
	}
	thenT := c.checkBlock(x.Then, s, te)
	elseT := c.checkBlock(x.Else, s, te)
	if !types.Equal(thenT, elseT) {
		c.errorf(diag.ErrTypeMismatch, x.Position(),
			"if branches disagree: then produces %s, else produces %s", thenT, elseT)
	}
	return thenT
}

func (c *Checker) checkPipe(x *ast.PipeExpression, s *scope.Scope, te *tenv) types.Type {
	leftT := c.checkExpr(x.Left, s, te)
	fn := c.resolveCallable(x.Right, s, te)
	if fn == nil {
		return types.Unit
	}
	if len(fn.Params) == 0 {
		c.errorf(diag.ErrArity, x.Right.Position(), "pipe target must accept at least one argument")
		return fn.Return
	}
	// Bind-then-substitute, not a strict equality check, so a pipe target
	// with a polymorphic first parameter (e.g. the prelude's identity)
	// unifies against whatever concrete type was piped in.
	bindings := make(map[string]types.Type)
	c.unifyBind(fn.Params[0], leftT, bindings)
	want := types.Substitute(fn.Params[0], bindings)
	if !types.Equal(want, leftT) {
		c.errorf(diag.ErrTypeMismatch, x.Left.Position(),
			"piped value has type %s but the target's first parameter expects %s", leftT, want)
	}
	return types.Substitute(fn.Return, bindings)
}

// resolveCallable type-checks e and reports the function type it denotes,
// for the pipe operator's right-hand side (spec.md §4.4: "f must be a
// function whose first parameter type unifies with the type of a").
func (c *Checker) resolveCallable(e ast.Expression, s *scope.Scope, te *tenv) *types.Func {
	if id, ok := e.(*ast.Identifier); ok {
		if sig, ok := c.funcSigs[id.Name]; ok {
			return sig
		}
		if sig, ok := c.builtins[id.Name]; ok {
			return sig
		}
		if t, ok := te.get(id.Name); ok {
			if fn, ok := t.(*types.Func); ok {
				return fn
			}
			c.errorf(diag.ErrTypeMismatch, id.Position(), "%q is not callable", id.Name)
			return nil
		}
		c.errorf(diag.ErrUnknownIdentifier, id.Position(), "unknown identifier %q", id.Name)
		return nil
	}
	t := c.checkExpr(e, s, te)
	fn, ok := t.(*types.Func)
	if !ok {
		c.errorf(diag.ErrTypeMismatch, e.Position(), "pipe target is not callable")
		return nil
	}
	return fn
}

// ------------------------------------------------------------------------
// Match arms & pattern binding
// ------------------------------------------------------------------------

func (c *Checker) checkMatchArms(scrutinee ast.Expression, arms []ast.MatchArm, s *scope.Scope, te *tenv) types.Type {
	scrutT := c.checkExpr(scrutinee, s, te)
	named, _ := scrutT.(*types.Named)
	if named == nil {
		c.errorf(diag.ErrNonADTScrutinee, scrutinee.Position(), "match scrutinee has type %s, expected a named record or union type", scrutT)
	}
	var owner *ast.TypeDecl
	if named != nil {
		owner = c.typeDecls[named.Name]
	}

	seen := make(map[string]bool)
	var result types.Type
	for i, arm := range arms {
		if cp, ok := arm.Pattern.(*ast.ConstructorPattern); ok {
			if seen[cp.Constructor] {
				c.errorf(diag.ErrDuplicatePattern, cp.Position(), "constructor %q matched more than once", cp.Constructor)
			}
			seen[cp.Constructor] = true
		} else if _, ok := arm.Pattern.(*ast.WildcardPattern); ok && i != len(arms)-1 {
			c.errorf(diag.ErrRedundantWildcard, arm.Pattern.Position(), "wildcard pattern must be the last arm")
		}

		armScope := scope.New(s)
		armTenv := newTenv(te)
		c.bindPattern(arm.Pattern, named, owner, armScope, armTenv)
		armT := c.checkBlock(arm.Body, armScope, armTenv)
		if i == 0 {
			result = armT
		} else if !types.Equal(result, armT) {
			c.errorf(diag.ErrArmTypeMismatch, arm.Body.Position(),
				"match arm produces %s but an earlier arm produces %s", armT, result)
		}
	}
	if result == nil {
		result = types.Unit
	}
	return result
}

func (c *Checker) bindPattern(pat ast.Pattern, scrutT *types.Named, owner *ast.TypeDecl, s *scope.Scope, te *tenv) {
	cp, ok := pat.(*ast.ConstructorPattern)
	if !ok {
		return // wildcard binds nothing
	}
	info, ok := c.ctors[cp.Constructor]
	if !ok {
		c.errorf(diag.ErrUnknownIdentifier, cp.Position(), "unknown constructor %q", cp.Constructor)
		return
	}
	if owner != nil && info.owner != owner {
		c.errorf(diag.ErrNonADTScrutinee, cp.Position(),
			"constructor %q does not belong to %s", cp.Constructor, owner.Name)
	}

	bindings := make(map[string]types.Type)
	if scrutT != nil {
		for i, tp := range info.owner.TypeParams {
			if i < len(scrutT.Args) {
				bindings[tp] = scrutT.Args[i]
			}
		}
	}
	for i, f := range cp.Fields {
		if f.Binder == "" {
			continue
		}
		var ft types.Type = types.Unit
		if i < len(info.fieldTypes) {
			ft = types.Substitute(info.fieldTypes[i], bindings)
		}
		s.Declare(scope.Symbol{Name: f.Binder, Kind: scope.KindLet}, cp.Position(), &c.diags)
		te.set(f.Binder, ft)
	}
}
