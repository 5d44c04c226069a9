// ==============================================================================================
// FILE: internal/checker/checker.go
// ==============================================================================================
// PACKAGE: checker
// PURPOSE: Bottom-up type checker over a resolved module graph. Produces a
//          side-table (ast.ID -> types.Type) rather than mutating the tree,
//          per internal/ast's ownership invariant. Structured as a
//          switch-over-concrete-type dispatch for each node family, the
//          same shape the teacher's evaluator.Eval uses to dispatch over
//          its own AST — replayed here as a typing pass instead of a
//          value-producing one.
// ==============================================================================================

package checker

import (
	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/resolver"
	"github.com/manaknight/mkc/internal/scope"
	"github.com/manaknight/mkc/internal/types"
)

// Result is everything the later passes (effects, exhaust, lower) need out
// of type checking.
type Result struct {
	Types     map[ast.ID]types.Type
	Scopes    map[ast.ID]*scope.Scope   // the scope each FuncDecl/LambdaExpression body was checked in
	TypeDecls map[string]*ast.TypeDecl  // every type declaration in scope, including the synthesized prelude ones
	Builtins  map[string]*types.Func    // the prelude's intrinsic function signatures
	FuncSigs  map[string]*types.Func    // every declared function's resolved signature, effects included
	Diags     diag.Bag
}

// ctorInfo records where a constructor came from, so a call like Some(5)
// or Point(1, 2) can be checked against its declaring type. Record types
// get an implicit constructor named after the type itself, with its
// fields in declared order — the same mechanism as a union variant,
// since Manaknight's grammar has no named-field call syntax.
type ctorInfo struct {
	owner      *ast.TypeDecl
	variant    ast.Variant
	fieldTypes []types.Type // resolved, with the owner's own type params left as *types.TypeParam
}

// Checker accumulates the whole-graph symbol tables before checking any
// function body, so mutual recursion and forward references within and
// across modules resolve the same way regardless of declaration order.
type Checker struct {
	diags  diag.Bag
	result map[ast.ID]types.Type
	scopes map[ast.ID]*scope.Scope

	typeDecls map[string]*ast.TypeDecl
	ctors     map[string]ctorInfo
	funcSigs  map[string]*types.Func
	builtins  map[string]*types.Func

	prelude *scope.Scope

	// curImports maps an import alias to its target module, for the
	// current module being checked (spec.md §4.4's `alias.name` qualified
	// access). Only aliased imports get an entry; an unaliased import's
	// exported names are already flat-merged into the module scope by
	// mergeImport, so bare identifier lookup covers them.
	curImports map[string]*ast.Module
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{
		result:    make(map[ast.ID]types.Type),
		scopes:    make(map[ast.ID]*scope.Scope),
		typeDecls: make(map[string]*ast.TypeDecl),
		ctors:     make(map[string]ctorInfo),
		funcSigs:  make(map[string]*types.Func),
		prelude:   scope.NewPrelude(),
	}
}

// CheckGraph type-checks every module resolved in graph and returns the
// combined result. Modules are visited in graph.Order (the order files were
// first discovered), which is deterministic for a fixed entry point and
// import list, matching spec.md §5.
func CheckGraph(graph *resolver.Graph) Result {
	c := New()
	arena := graph.Arena
	if arena == nil {
		arena = &ast.Arena{}
	}
	c.installPrelude(arena)

	var modules []*ast.Module
	for _, file := range graph.Order {
		modules = append(modules, graph.Units[file].Modules...)
	}

	c.registerDecls(modules)
	for _, m := range modules {
		c.checkModule(graph, m)
	}
	for _, r := range graph.AllRoutes() {
		c.checkRoute(r)
	}

	return Result{Types: c.result, Scopes: c.scopes, Diags: c.diags, TypeDecls: c.typeDecls, Builtins: c.builtins, FuncSigs: c.funcSigs}
}

// registerDecls is the whole-graph first pass: every type, constructor, and
// function signature becomes visible before any body is checked, so a
// function may call another declared later in the same or a different
// module.
func (c *Checker) registerDecls(modules []*ast.Module) {
	for _, m := range modules {
		for _, d := range m.Decls {
			if decl, ok := d.(*ast.TypeDecl); ok {
				c.typeDecls[decl.Name] = decl
			}
		}
	}
	for _, m := range modules {
		for _, d := range m.Decls {
			decl, ok := d.(*ast.TypeDecl)
			if !ok {
				continue
			}
			switch body := decl.Body.(type) {
			case ast.UnionBody:
				for _, v := range body.Variants {
					c.ctors[v.Name] = ctorInfo{owner: decl, variant: v, fieldTypes: c.resolveFieldTypes(v.Fields, decl.TypeParams)}
				}
			case ast.RecordBody:
				v := ast.Variant{Name: decl.Name, Fields: body.Fields}
				c.ctors[decl.Name] = ctorInfo{owner: decl, variant: v, fieldTypes: c.resolveFieldTypes(body.Fields, decl.TypeParams)}
			}
		}
	}
	for _, m := range modules {
		for _, d := range m.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok {
				c.funcSigs[fd.Name] = c.funcSignature(fd)
			}
		}
	}
}

func (c *Checker) funcSignature(fd *ast.FuncDecl) *types.Func {
	params := make([]types.Type, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = c.resolveType(p.Type, nil)
	}
	return &types.Func{
		Params:  params,
		Return:  c.resolveType(fd.ReturnType, nil),
		Effects: types.NewEffectSet(fd.Effects...),
	}
}

// resolveFieldTypes resolves every field of a record or union variant,
// leaving any name in typeParams as an unbound *types.TypeParam instead of
// an unknown-type error — the fields of `type Option<T> { Some(T), None }`
// reference T before any call site supplies a concrete argument.
func (c *Checker) resolveFieldTypes(fields []ast.Field, typeParams []string) []types.Type {
	out := make([]types.Type, len(fields))
	for i, f := range fields {
		out[i] = c.resolveType(f.Type, typeParams)
	}
	return out
}

// resolveType converts a parsed ast.Type into its resolved types.Type,
// looking up NamedType against registered type declarations unless its
// name is one of typeParams (the enclosing type declaration's own generic
// parameters, left unresolved as a placeholder).
func (c *Checker) resolveType(t ast.Type, typeParams []string) types.Type {
	switch x := t.(type) {
	case nil:
		return types.Unit
	case *ast.PrimitiveType:
		switch x.Kind {
		case ast.PrimInt:
			return types.Int
		case ast.PrimBool:
			return types.Bool
		case ast.PrimString:
			return types.String
		default:
			return types.Unit
		}
	case *ast.NamedType:
		if len(x.Args) == 0 {
			for _, tp := range typeParams {
				if tp == x.Name {
					return &types.TypeParam{Name: tp}
				}
			}
		}
		args := make([]types.Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = c.resolveType(a, typeParams)
		}
		if _, ok := c.typeDecls[x.Name]; !ok {
			c.errorf(diag.ErrUnknownIdentifier, x.Position(), "unknown type %q", x.Name)
		}
		return &types.Named{Name: x.Name, Args: args}
	case *ast.FuncType:
		params := make([]types.Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = c.resolveType(p, typeParams)
		}
		return &types.Func{Params: params, Return: c.resolveType(x.Return, typeParams), Effects: types.NewEffectSet(x.Effects...)}
	default:
		return types.Unit
	}
}

// checkModule builds the module's scope (its own declarations plus the
// exported names of every unaliased import, merged flatly) and checks every
// function body within it. An aliased import additionally registers in
// c.curImports so `alias.name` expressions within this module resolve
// against the target module's own export list (spec.md §4.4).
func (c *Checker) checkModule(graph *resolver.Graph, m *ast.Module) {
	modScope := scope.New(c.prelude)
	c.curImports = make(map[string]*ast.Module)

	for _, d := range m.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			modScope.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindFunc, ID: decl.NodeID()}, decl.Position(), &c.diags)
		case *ast.TypeDecl:
			modScope.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindType, ID: decl.NodeID()}, decl.Position(), &c.diags)
			if u, ok := decl.Body.(ast.UnionBody); ok {
				for _, v := range u.Variants {
					modScope.Declare(scope.Symbol{Name: v.Name, Kind: scope.KindConstructor, ID: decl.NodeID()}, decl.Position(), &c.diags)
				}
			}
		case *ast.EffectDecl:
			modScope.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindEffect, ID: decl.NodeID()}, decl.Position(), &c.diags)
		}
	}

	for _, d := range m.Decls {
		imp, ok := d.(*ast.ImportDecl)
		if !ok {
			continue
		}
		c.mergeImport(graph, modScope, imp)
	}

	for _, d := range m.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			c.checkFuncDecl(fd, modScope)
		}
	}
}

// mergeImport brings imp's target module's exported names into scope. An
// aliased import (`import a.b as x`) binds the alias to the target module
// in c.curImports instead of flat-merging: its names are only reachable
// through `x.name`, which resolveQualified checks against the target's export
// list, so a reference to a private member yields E5003 (spec.md §4.3,
// §4.4). An unaliased import keeps flat-merging its exported names, as
// before — a private name still never crosses that boundary, since only
// exported decls are ever copied into modScope.
func (c *Checker) mergeImport(graph *resolver.Graph, modScope *scope.Scope, imp *ast.ImportDecl) {
	target, ok := graph.ModuleByName(imp.Path)
	if !ok {
		return // already reported as E5001 by the resolver
	}
	if imp.Alias != "" {
		c.curImports[imp.Alias] = target
		return
	}
	for _, d := range target.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			if !target.Exported(decl.Name) {
				continue
			}
			modScope.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindFunc, ID: decl.NodeID()}, imp.Position(), &c.diags)
		case *ast.TypeDecl:
			if !target.Exported(decl.Name) {
				continue
			}
			modScope.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindType, ID: decl.NodeID()}, imp.Position(), &c.diags)
			if u, ok := decl.Body.(ast.UnionBody); ok {
				for _, v := range u.Variants {
					modScope.Declare(scope.Symbol{Name: v.Name, Kind: scope.KindConstructor, ID: decl.NodeID()}, imp.Position(), &c.diags)
				}
			}
		}
	}
}

func (c *Checker) checkFuncDecl(fd *ast.FuncDecl, modScope *scope.Scope) {
	bodyScope := scope.New(modScope)
	for _, p := range fd.Params {
		bodyScope.Declare(scope.Symbol{Name: p.Name, Kind: scope.KindParam}, fd.Position(), &c.diags)
	}
	c.scopes[fd.NodeID()] = bodyScope

	bodyTenv := newTenv(nil)
	for _, p := range fd.Params {
		bodyTenv.set(p.Name, c.resolveType(p.Type, nil))
	}

	want := c.resolveType(fd.ReturnType, nil)
	got := c.checkBlock(fd.Body, bodyScope, bodyTenv)
	if !types.Equal(got, want) {
		c.errorf(diag.ErrReturnMismatch, fd.Position(),
			"function %q declares return type %s but its body produces %s", fd.Name, want, got)
	}
	if !c.blockIsTotal(fd.Body) {
		c.errorf(diag.ErrNonTotal, fd.Position(),
			"function %q does not yield a value on every path", fd.Name)
	}
}

func (c *Checker) checkRoute(r *ast.APIRoute) {
	routeScope := scope.New(c.prelude)
	for _, p := range r.Params {
		routeScope.Declare(scope.Symbol{Name: p.Name, Kind: scope.KindParam}, r.Position(), &c.diags)
	}
	c.scopes[r.NodeID()] = routeScope

	routeTenv := newTenv(nil)
	for _, p := range r.Params {
		routeTenv.set(p.Name, c.resolveType(p.Type, nil))
	}

	want := c.resolveType(r.ReturnType, nil)
	got := c.checkBlock(r.Body, routeScope, routeTenv)
	if !types.Equal(got, want) {
		c.errorf(diag.ErrReturnMismatch, r.Position(),
			"route %s %s declares return type %s but its body produces %s", r.Method, r.Path, want, got)
	}
	if !c.blockIsTotal(r.Body) {
		c.errorf(diag.ErrNonTotal, r.Position(), "route %s %s does not yield a value on every path", r.Method, r.Path)
	}
}

// blockIsTotal reports whether every control-flow path through block
// produces a value (spec.md §4.5's totality invariant). A block with a
// tail expression is total unless that tail is itself an if/match whose
// branches/arms are not all total (e.g. an if-expression tail whose else
// branch is a let-only block); a block with no tail is total only when its
// final statement is an if/match covering every path.
func (c *Checker) blockIsTotal(b *ast.Block) bool {
	if b == nil {
		return false
	}
	if b.Tail != nil {
		switch tail := b.Tail.(type) {
		case *ast.IfExpression:
			return c.blockIsTotal(tail.Then) && c.blockIsTotal(tail.Else)
		case *ast.MatchExpression:
			if len(tail.Arms) == 0 {
				return false
			}
			for _, arm := range tail.Arms {
				if !c.blockIsTotal(arm.Body) {
					return false
				}
			}
			return true
		default:
			return true
		}
	}
	if len(b.Statements) == 0 {
		return false
	}
	switch last := b.Statements[len(b.Statements)-1].(type) {
	case *ast.IfStatement:
		return c.blockIsTotal(last.Then) && c.blockIsTotal(last.Else)
	case *ast.MatchStatement:
		if len(last.Arms) == 0 {
			return false
		}
		for _, arm := range last.Arms {
			if !c.blockIsTotal(arm.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (c *Checker) errorf(code diag.Code, pos ast.Pos, format string, args ...any) {
	c.diags.Addf(code, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...)
}
