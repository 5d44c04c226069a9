// ==============================================================================================
// FILE: internal/effects/effects.go
// ==============================================================================================
// PACKAGE: effects
// PURPOSE: The Effect Analyzer (spec.md §4.6). Runs after type checking,
//          bottom-up, assigning an inferred effect set to every expression
//          and checking it against each function's declared set. Mirrors
//          internal/checker's own shape: a small struct accumulating a
//          diag.Bag and a side-table keyed by ast.ID, walked with the same
//          type-switch-over-concrete-node style evaluator.Eval uses.
// ==============================================================================================

package effects

import (
	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/resolver"
	"github.com/manaknight/mkc/internal/types"
)

// Result is the effect analyzer's output: the inferred set for every
// expression the analyzer visited, keyed by ast.ID so internal/lower can
// decide which calls need the __effects parameter threaded through.
type Result struct {
	Effects map[ast.ID]types.EffectSet
	Diags   diag.Bag
}

// Analyzer walks a resolved, type-checked graph. It needs the checker's
// result only for two things: which names are prelude builtins (always
// pure) and each declared function's resolved effect set.
type Analyzer struct {
	chk      checker.Result
	declared map[string]bool // every effect name declared anywhere in the program
	effects  map[ast.ID]types.EffectSet
	diags    diag.Bag
}

// Analyze runs the effect analyzer over graph using chk (the already-run
// type checker's result) for name resolution.
func Analyze(graph *resolver.Graph, chk checker.Result) Result {
	a := &Analyzer{
		chk:      chk,
		declared: make(map[string]bool),
		effects:  make(map[ast.ID]types.EffectSet),
	}
	for _, name := range checker.PreludeEffects {
		a.declared[name] = true
	}

	var modules []*ast.Module
	for _, file := range graph.Order {
		modules = append(modules, graph.Units[file].Modules...)
	}
	for _, m := range modules {
		for _, d := range m.Decls {
			if ed, ok := d.(*ast.EffectDecl); ok {
				a.declared[ed.Name] = true
			}
		}
	}

	for _, m := range modules {
		for _, d := range m.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok {
				a.checkFunc(fd)
			}
		}
	}
	for _, r := range graph.AllRoutes() {
		a.checkRoute(r)
	}

	return Result{Effects: a.effects, Diags: a.diags}
}

func pos(p ast.Pos) diag.Position {
	return diag.Position{File: p.File, Line: p.Line, Column: p.Column}
}

// checkFunc validates fd's own `uses { ... }` names against the program's
// declared effect universe (E3005), infers its body's effect set, and
// checks that set against what was declared (E3001/E3002).
func (a *Analyzer) checkFunc(fd *ast.FuncDecl) {
	for _, name := range fd.Effects {
		if !a.declared[name] {
			a.diags.Addf(diag.ErrUnknownEffect, pos(fd.Position()), "function %q uses undeclared effect %q", fd.Name, name)
		}
	}
	declaredSet := types.NewEffectSet(fd.Effects...)
	inferred := a.effectsOfBlock(fd.Body, false)
	a.checkAgainstDeclared(fd.Name, fd.Position(), inferred, declaredSet)
}

// checkRoute collects the route body's inferred effect set (for the
// lowering pass's effect manifest) but does not check it against
// anything — a route has no `uses { ... }` clause in the grammar, so
// there is nothing declared to check it against.
func (a *Analyzer) checkRoute(r *ast.APIRoute) {
	a.effectsOfBlock(r.Body, false)
}

func (a *Analyzer) checkAgainstDeclared(name string, at ast.Pos, inferred, declared types.EffectSet) {
	if len(declared) == 0 {
		if len(inferred) > 0 {
			a.diags.Addf(diag.ErrEffectInPure, pos(at),
				"%q is declared pure but its body performs effect(s) %s", name, inferred)
		}
		return
	}
	for _, missing := range inferred.Sorted() {
		if !declared[missing] {
			a.diags.Addf(diag.ErrEffectLeak, pos(at),
				"%q performs effect %q which is not in its declared set %s", name, missing, declared)
		}
	}
}

// effectsOfBlock implements the "block" row of spec.md §4.6's table: the
// union of every statement's effect set. inLambda tags the walk so a
// nested lambda's own body is checked against the empty set rather than
// threaded outward — lambdas are always pure regardless of what encloses
// them.
func (a *Analyzer) effectsOfBlock(b *ast.Block, inLambda bool) types.EffectSet {
	set := types.EffectSet{}
	for _, stmt := range b.Statements {
		set = set.Union(a.effectsOfStatement(stmt, inLambda))
	}
	if b.Tail != nil {
		set = set.Union(a.effectsOfExpr(b.Tail, inLambda))
	}
	a.record(b.NodeID(), set)
	return set
}

func (a *Analyzer) effectsOfStatement(s ast.Statement, inLambda bool) types.EffectSet {
	switch x := s.(type) {
	case *ast.LetStatement:
		set := a.effectsOfExpr(x.Value, inLambda)
		a.record(x.NodeID(), set)
		return set
	case *ast.ExprStatement:
		set := a.effectsOfExpr(x.Expr, inLambda)
		a.record(x.NodeID(), set)
		return set
	case *ast.IfStatement:
		set := a.effectsOfExpr(x.Cond, inLambda).
			Union(a.effectsOfBlock(x.Then, inLambda)).
			Union(a.effectsOfBlock(x.Else, inLambda))
		a.record(x.NodeID(), set)
		return set
	case *ast.MatchStatement:
		set := a.effectsOfExpr(x.Scrutinee, inLambda)
		for _, arm := range x.Arms {
			set = set.Union(a.effectsOfBlock(arm.Body, inLambda))
		}
		a.record(x.NodeID(), set)
		return set
	default:
		return types.EffectSet{}
	}
}

// effectsOfExpr implements the rest of spec.md §4.6's table. Every case
// records its own computed set into a.effects before returning it, so
// internal/lower can look up any sub-expression's effect set directly by
// ast.ID without re-walking the tree.
func (a *Analyzer) effectsOfExpr(e ast.Expression, inLambda bool) types.EffectSet {
	var set types.EffectSet
	switch x := e.(type) {
	case *ast.IntLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.UnitLiteral, *ast.Identifier, *ast.QualifiedIdentifier:
		set = types.EffectSet{}
	case *ast.CallExpression:
		set = a.calleeEffects(x.Callee)
		for _, arg := range x.Args {
			set = set.Union(a.effectsOfExpr(arg, inLambda))
		}
	case *ast.LambdaExpression:
		body := a.effectsOfExpr(x.Body, true)
		if len(body) > 0 {
			a.diags.Addf(diag.ErrLambdaEffect, pos(x.Position()),
				"lambda bodies must be pure, but this one performs effect(s) %s", body)
		}
		set = types.EffectSet{} // a lambda *value* is itself effect-free to its enclosing expression
	case *ast.IfExpression:
		set = a.effectsOfExpr(x.Cond, inLambda).
			Union(a.effectsOfBlock(x.Then, inLambda)).
			Union(a.effectsOfBlock(x.Else, inLambda))
	case *ast.MatchExpression:
		set = a.effectsOfExpr(x.Scrutinee, inLambda)
		for _, arm := range x.Arms {
			set = set.Union(a.effectsOfBlock(arm.Body, inLambda))
		}
	case *ast.PipeExpression:
		set = a.effectsOfExpr(x.Left, inLambda).Union(a.calleeEffects(x.Right))
	default:
		set = types.EffectSet{}
	}
	a.record(e.NodeID(), set)
	return set
}

// calleeEffects resolves callee to a declared effect set: empty for a
// builtin or an unrecognized/parameter-bound name (a function value
// reached only through a higher-order parameter has no statically known
// declared set, so such a call contributes no effects), or the
// function's own declared set otherwise. The parser's synthetic
// `__neg`/`__not`/`__op_*` operator callees are never effectful.
func (a *Analyzer) calleeEffects(callee ast.Expression) types.EffectSet {
	var name string
	switch c := callee.(type) {
	case *ast.Identifier:
		name = c.Name
	case *ast.QualifiedIdentifier:
		name = c.Name
	default:
		return types.EffectSet{}
	}
	if len(name) >= 2 && name[:2] == "__" {
		return types.EffectSet{}
	}
	if _, ok := a.chk.Builtins[name]; ok {
		return types.EffectSet{}
	}
	if sig, ok := a.chk.FuncSigs[name]; ok {
		return sig.Effects
	}
	return types.EffectSet{}
}

func (a *Analyzer) record(id ast.ID, set types.EffectSet) {
	a.effects[id] = set
}
