// ==============================================================================================
// FILE: internal/exhaust/exhaust.go
// ==============================================================================================
// PACKAGE: exhaust
// PURPOSE: The Exhaustiveness Checker (spec.md §4.7). Runs after type
//          checking: for every match, computes the scrutinee ADT's full
//          constructor set and walks the arms in source order, flagging an
//          uncovered constructor at the end (E4001) and a wildcard arm
//          reached only once every constructor is already explicitly
//          covered (E4005). Duplicate constructor arms (E4003) and a
//          wildcard arm that isn't last (also E4005) are already caught by
//          internal/checker's own checkMatchArms while it binds pattern
//          variables — this pass only adds the coverage-shaped checks that
//          need the full constructor universe to answer.
// ==============================================================================================

package exhaust

import (
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/resolver"
	"github.com/manaknight/mkc/internal/types"
)

// Result carries the diagnostics this pass produced. It has no side-table
// of its own — exhaustiveness is checked, not annotated for a later pass.
type Result struct {
	Diags diag.Bag
}

func pos(p ast.Pos) diag.Position {
	return diag.Position{File: p.File, Line: p.Line, Column: p.Column}
}

type matchSite struct {
	Scrutinee ast.Expression
	Arms      []ast.MatchArm
}

type analyzer struct {
	chk   checker.Result
	diags diag.Bag
}

// Analyze walks every function and route body in graph, checking each
// match expression/statement it finds against chk's resolved types.
func Analyze(graph *resolver.Graph, chk checker.Result) Result {
	c := &analyzer{chk: chk}

	var modules []*ast.Module
	for _, file := range graph.Order {
		modules = append(modules, graph.Units[file].Modules...)
	}
	for _, m := range modules {
		for _, d := range m.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok {
				c.checkBlock(fd.Body)
			}
		}
	}
	for _, r := range graph.AllRoutes() {
		c.checkBlock(r.Body)
	}

	return Result{Diags: c.diags}
}

func (c *analyzer) checkBlock(b *ast.Block) {
	for _, stmt := range b.Statements {
		c.checkStatement(stmt)
	}
	if b.Tail != nil {
		c.checkExpr(b.Tail)
	}
}

func (c *analyzer) checkStatement(s ast.Statement) {
	switch x := s.(type) {
	case *ast.LetStatement:
		c.checkExpr(x.Value)
	case *ast.ExprStatement:
		c.checkExpr(x.Expr)
	case *ast.IfStatement:
		c.checkExpr(x.Cond)
		c.checkBlock(x.Then)
		c.checkBlock(x.Else)
	case *ast.MatchStatement:
		c.checkExpr(x.Scrutinee)
		c.checkMatch(matchSite{Scrutinee: x.Scrutinee, Arms: x.Arms})
		for _, arm := range x.Arms {
			c.checkBlock(arm.Body)
		}
	}
}

func (c *analyzer) checkExpr(e ast.Expression) {
	switch x := e.(type) {
	case *ast.CallExpression:
		c.checkExpr(x.Callee)
		for _, a := range x.Args {
			c.checkExpr(a)
		}
	case *ast.LambdaExpression:
		c.checkExpr(x.Body)
	case *ast.IfExpression:
		c.checkExpr(x.Cond)
		c.checkBlock(x.Then)
		c.checkBlock(x.Else)
	case *ast.MatchExpression:
		c.checkExpr(x.Scrutinee)
		c.checkMatch(matchSite{Scrutinee: x.Scrutinee, Arms: x.Arms})
		for _, arm := range x.Arms {
			c.checkBlock(arm.Body)
		}
	case *ast.PipeExpression:
		c.checkExpr(x.Left)
		c.checkExpr(x.Right)
	}
}

// constructorNames returns every constructor name owner's scrutinee type
// must be covered by: the union's variant names, or — for a plain record,
// which has exactly one implicit constructor sharing the type's own
// name — a single-element slice holding that name.
func constructorNames(owner *ast.TypeDecl) []string {
	if names := owner.ConstructorNames(); names != nil {
		return names
	}
	return []string{owner.Name}
}

// checkMatch resolves site's scrutinee type against chk.Types/chk.TypeDecls
// and walks the arms in source order, computing a covered set exactly the
// way checker.checkMatchArms does, but this time checking it against the
// full constructor universe rather than just against itself.
func (c *analyzer) checkMatch(site matchSite) {
	scrutT, ok := c.chk.Types[site.Scrutinee.NodeID()]
	if !ok {
		return // the type checker already reported this scrutinee's problem
	}
	named, ok := scrutT.(*types.Named)
	if !ok {
		return // E4002 already reported by internal/checker
	}
	owner, ok := c.chk.TypeDecls[named.Name]
	if !ok {
		return
	}
	all := constructorNames(owner)

	covered := make(map[string]bool, len(all))
	for _, arm := range site.Arms {
		cp, isCtor := arm.Pattern.(*ast.ConstructorPattern)
		if isCtor {
			covered[cp.Constructor] = true
			continue
		}
		// A wildcard arm. If every constructor is already covered by the
		// arms before it, this one can never be reached. Either way, a
		// wildcard covers everything from here on, so there is nothing
		// further to check in this match (a non-last wildcard is already
		// flagged by internal/checker).
		if len(covered) == len(all) {
			c.diags.Addf(diag.ErrRedundantWildcard, pos(arm.Pattern.Position()),
				"wildcard arm is unreachable: every constructor of %s is already covered", named.Name)
		}
		return
	}

	var missing []string
	for _, name := range all {
		if !covered[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		c.diags.Addf(diag.ErrNonExhaustive, pos(site.Scrutinee.Position()),
			"match on %s is not exhaustive: missing case(s) %s", named.Name, strings.Join(missing, ", "))
	}
}
