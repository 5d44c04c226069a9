// ==============================================================================================
// FILE: internal/checker/prelude.go
// PURPOSE: Installs the always-in-scope core the resolver never has to load
//          from disk (spec.md §4.3): Option<T>, Result<T,E>, List<T>,
//          Map<K,V>, the effect declarations time/random/http/log/crypto,
//          and the handful of built-in functions (identity, equals, hash,
//          pipe, compose, not, and, or). None of these are parsed from
//          Manaknight source — they are synthesized directly as ast nodes
//          sharing the compilation's own arena, the same way the teacher's
//          object.NewEnvironment() seeds a fresh Environment before any
//          user binding exists.
// ==============================================================================================

package checker

import (
	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/scope"
	"github.com/manaknight/mkc/internal/types"
)

// PreludeEffects are the five host capabilities every compilation knows
// about regardless of whether the program declares its own `effect`
// blocks (spec.md §4.3).
var PreludeEffects = []string{"time", "random", "http", "log", "crypto"}

func preludePos() ast.Pos { return ast.Pos{File: "<prelude>"} }

func namedTypeParam(arena *ast.Arena, name string) *ast.NamedType {
	return &ast.NamedType{Base: ast.NewBase(arena, preludePos()), Name: name}
}

// installPrelude seeds c.typeDecls/c.ctors/c.funcSigs/c.builtins and
// c.prelude's scope before any user module is registered, so shadow
// prohibition rejects a program that tries to redeclare `Option`,
// `identity`, or the `time` effect.
func (c *Checker) installPrelude(arena *ast.Arena) {
	for _, decl := range c.preludeTypeDecls(arena) {
		c.typeDecls[decl.Name] = decl
		c.prelude.Declare(scope.Symbol{Name: decl.Name, Kind: scope.KindType, ID: decl.NodeID()}, preludePos(), &c.diags)
		if u, ok := decl.Body.(ast.UnionBody); ok {
			for _, v := range u.Variants {
				c.ctors[v.Name] = ctorInfo{owner: decl, variant: v, fieldTypes: c.resolveFieldTypes(v.Fields, decl.TypeParams)}
				c.prelude.Declare(scope.Symbol{Name: v.Name, Kind: scope.KindConstructor, ID: decl.NodeID()}, preludePos(), &c.diags)
			}
		}
	}

	for _, name := range PreludeEffects {
		decl := &ast.EffectDecl{Base: ast.NewBase(arena, preludePos()), Name: name}
		c.prelude.Declare(scope.Symbol{Name: name, Kind: scope.KindEffect, ID: decl.NodeID()}, preludePos(), &c.diags)
	}

	c.installBuiltins(arena)
}

// preludeTypeDecls builds Option<T>, Result<T,E>, List<T>, and Map<K,V>.
// List and Map are opaque to this grammar (no literal construction syntax
// exists for them — spec.md never gives one), so their bodies are empty
// unions: a type name the checker can resolve and the lowering pass can
// target, but with no constructors a Manaknight program can construct or
// pattern-match directly. Their values only ever arrive through a
// host-provided effect binding.
func (c *Checker) preludeTypeDecls(arena *ast.Arena) []*ast.TypeDecl {
	option := &ast.TypeDecl{
		Base: ast.NewBase(arena, preludePos()), Name: "Option", TypeParams: []string{"T"},
		Body: ast.UnionBody{Variants: []ast.Variant{
			{Name: "Some", Fields: []ast.Field{{Name: "value", Type: namedTypeParam(arena, "T")}}},
			{Name: "None"},
		}},
	}
	result := &ast.TypeDecl{
		Base: ast.NewBase(arena, preludePos()), Name: "Result", TypeParams: []string{"T", "E"},
		Body: ast.UnionBody{Variants: []ast.Variant{
			{Name: "Ok", Fields: []ast.Field{{Name: "value", Type: namedTypeParam(arena, "T")}}},
			{Name: "Err", Fields: []ast.Field{{Name: "error", Type: namedTypeParam(arena, "E")}}},
		}},
	}
	list := &ast.TypeDecl{Base: ast.NewBase(arena, preludePos()), Name: "List", TypeParams: []string{"T"}, Body: ast.UnionBody{}}
	mapT := &ast.TypeDecl{Base: ast.NewBase(arena, preludePos()), Name: "Map", TypeParams: []string{"K", "V"}, Body: ast.UnionBody{}}
	return []*ast.TypeDecl{option, result, list, mapT}
}

// installBuiltins registers the prelude's helper functions directly as
// polymorphic types.Func signatures rather than parsed ast.FuncDecl bodies
// — ast.FuncDecl has no type-parameter list of its own (only ast.TypeDecl
// does), and these helpers have no Manaknight-expressible body anyway: per
// spec.md §1 the standard library's runtime JS bodies are an external
// collaborator, supplied by the host the same way effect handler bodies
// are. Only their signatures need to be visible to the checker so calling
// code type-checks; internal/lower emits plain calls to these names and
// leaves their implementation to the runtime.
func (c *Checker) installBuiltins(arena *ast.Arena) {
	tp := func(name string) types.Type { return &types.TypeParam{Name: name} }

	c.builtins = map[string]*types.Func{
		"identity": {Params: []types.Type{tp("T")}, Return: tp("T")},
		"equals":   {Params: []types.Type{tp("T"), tp("T")}, Return: types.Bool},
		"hash":     {Params: []types.Type{tp("T")}, Return: types.Int},
		"not":      {Params: []types.Type{types.Bool}, Return: types.Bool},
		"and":      {Params: []types.Type{types.Bool, types.Bool}, Return: types.Bool},
		"or":       {Params: []types.Type{types.Bool, types.Bool}, Return: types.Bool},
		"pipe": {
			Params: []types.Type{
				&types.Func{Params: []types.Type{tp("A")}, Return: tp("B")},
				&types.Func{Params: []types.Type{tp("B")}, Return: tp("C")},
			},
			Return: &types.Func{Params: []types.Type{tp("A")}, Return: tp("C")},
		},
		"compose": {
			Params: []types.Type{
				&types.Func{Params: []types.Type{tp("B")}, Return: tp("C")},
				&types.Func{Params: []types.Type{tp("A")}, Return: tp("B")},
			},
			Return: &types.Func{Params: []types.Type{tp("A")}, Return: tp("C")},
		},
	}

	for name := range c.builtins {
		c.prelude.Declare(scope.Symbol{Name: name, Kind: scope.KindFunc, ID: arena.NewID()}, preludePos(), &c.diags)
	}
}

// IsBuiltin reports whether name is one of the prelude's intrinsic
// functions (builtins are always pure).
func (c *Checker) IsBuiltin(name string) bool {
	_, ok := c.builtins[name]
	return ok
}
