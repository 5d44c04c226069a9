// ==============================================================================================
// FILE: internal/scope/scope.go
// ==============================================================================================
// PACKAGE: scope
// PURPOSE: The compiler's symbol table. A parent-chained lookup exactly
//          like the teacher's object.Environment, but Declare refuses a
//          name already visible from an enclosing scope instead of
//          silently shadowing it (spec.md §3's shadow-prohibition
//          invariant — a deliberate REDESIGN from object.Environment.Set,
//          see SPEC_FULL.md §9).
// ==============================================================================================

package scope

import (
	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
)

// Kind distinguishes what a name refers to, which later passes need to
// disambiguate parser constructs that share syntax (a CallExpression is
// either a function call or constructor application depending on the
// callee's Kind).
type Kind string

const (
	KindFunc        Kind = "func"
	KindParam       Kind = "param"
	KindLet         Kind = "let"
	KindConstructor Kind = "constructor"
	KindType        Kind = "type"
	KindEffect      Kind = "effect"
	KindModule      Kind = "module"
)

// Symbol is one declared name.
type Symbol struct {
	Name string
	Kind Kind
	ID   ast.ID // the declaring node
}

// Scope is one lexical level. The root scope (outer == nil) is the
// prelude; module-level declarations nest under it, and each function
// body, lambda, and block nests further.
type Scope struct {
	outer   *Scope
	symbols map[string]Symbol
}

// NewPrelude returns the root scope every compilation starts from. It is
// returned empty; internal/checker's installPrelude then declares the
// prelude's types, constructors, effects and builtins in it, and user
// modules nest under it.
func NewPrelude() *Scope {
	return &Scope{symbols: make(map[string]Symbol)}
}

// New opens a nested scope under outer (a function body, a block, a
// lambda, a match arm's bindings).
func New(outer *Scope) *Scope {
	return &Scope{outer: outer, symbols: make(map[string]Symbol)}
}

// Lookup walks outward from s, like object.Environment.Get.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	if sym, ok := s.symbols[name]; ok {
		return sym, true
	}
	if s.outer != nil {
		return s.outer.Lookup(name)
	}
	return Symbol{}, false
}

// Declare adds a new name to s. It reports E2006 and returns false if the
// name is already visible from s or any enclosing scope — Manaknight has
// no shadowing, so a declaration is a conflict wherever it would be seen.
func (s *Scope) Declare(sym Symbol, pos ast.Pos, diags *diag.Bag) bool {
	if existing, ok := s.Lookup(sym.Name); ok {
		diags.Addf(diag.ErrShadow, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column},
			"%q is already declared as a %s and cannot be shadowed", sym.Name, existing.Kind)
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// DeclareLocal is like Declare but only checks for a conflict within s
// itself — used for parameter lists, where two parameters sharing a name
// in the same list is the only conflict being guarded against at the
// point params are declared (the full Declare call against the function
// body scope still catches a parameter shadowing an outer name).
func (s *Scope) DeclareLocal(sym Symbol, pos ast.Pos, diags *diag.Bag) bool {
	if existing, ok := s.symbols[sym.Name]; ok {
		diags.Addf(diag.ErrShadow, diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column},
			"%q is already declared as a %s in this scope", sym.Name, existing.Kind)
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}
