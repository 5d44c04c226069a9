// ==============================================================================================
// FILE: internal/types/types.go
// ==============================================================================================
// PACKAGE: types
// PURPOSE: Resolved type representation the checker annotates every
//          expression with, keyed by ast.ID in a side-table rather than
//          stored on the node itself (spec.md §9's arena/ownership
//          invariant, the same reason internal/ast nodes are immutable).
// ==============================================================================================

package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is any resolved Manaknight type.
type Type interface {
	String() string
	typeNode()
}

// Primitive is one of Int, Bool, String, Unit.
type Primitive struct {
	Kind string
}

func (p *Primitive) String() string { return p.Kind }
func (*Primitive) typeNode()        {}

var (
	Int    = &Primitive{Kind: "Int"}
	Bool   = &Primitive{Kind: "Bool"}
	String = &Primitive{Kind: "String"}
	Unit   = &Primitive{Kind: "Unit"}
)

// TypeParam is an unresolved generic parameter (the "T" in Option<T>)
// seen while checking a type declaration's own body, before any call
// site supplies concrete arguments.
type TypeParam struct {
	Name string
}

func (t *TypeParam) String() string { return t.Name }
func (*TypeParam) typeNode()        {}

// Named is a record or union type, optionally instantiated with
// concrete type arguments (Args is empty for a non-generic type).
type Named struct {
	Name string
	Args []Type
}

func (n *Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", n.Name, strings.Join(parts, ", "))
}
func (*Named) typeNode() {}

// Func is a function signature: parameter types, a return type, and the
// declared effect set (empty means pure).
type Func struct {
	Params  []Type
	Return  Type
	Effects EffectSet
}

func (f *Func) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	s := fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), f.Return.String())
	if len(f.Effects) > 0 {
		s += " uses " + f.Effects.String()
	}
	return s
}
func (*Func) typeNode() {}

// EffectSet is an unordered capability set; Sorted gives the
// deterministic ordering spec.md §6's __meta.effectsList requires.
type EffectSet map[string]bool

func NewEffectSet(names ...string) EffectSet {
	s := make(EffectSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func (s EffectSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s EffectSet) String() string {
	return "{" + strings.Join(s.Sorted(), ", ") + "}"
}

// Union returns a new set containing every effect in s or other.
func (s EffectSet) Union(other EffectSet) EffectSet {
	out := make(EffectSet, len(s)+len(other))
	for n := range s {
		out[n] = true
	}
	for n := range other {
		out[n] = true
	}
	return out
}

// IsSubsetOf reports whether every effect in s also appears in other —
// the rule a function's inferred effects must satisfy against its
// declared effects (spec.md §4.6, E3001 on violation).
func (s EffectSet) IsSubsetOf(other EffectSet) bool {
	for n := range s {
		if !other[n] {
			return false
		}
	}
	return true
}

// Equal reports structural equality: same primitive kind, same named
// type with equal arguments in order, or same function shape. Two
// distinct TypeParams are never equal to each other or to anything
// else — they only ever appear inside an uninstantiated type
// declaration's own body, never at a call site.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Kind == y.Kind
	case *Named:
		y, ok := b.(*Named)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Func:
		y, ok := b.(*Func)
		if !ok || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Substitute replaces every TypeParam named in bindings with its bound
// concrete type, used when a generic constructor or function is applied
// at a call site (e.g. Some(5) binds T := Int across Option<T>'s body).
func Substitute(t Type, bindings map[string]Type) Type {
	switch x := t.(type) {
	case *TypeParam:
		if bound, ok := bindings[x.Name]; ok {
			return bound
		}
		return x
	case *Named:
		args := make([]Type, len(x.Args))
		for i, a := range x.Args {
			args[i] = Substitute(a, bindings)
		}
		return &Named{Name: x.Name, Args: args}
	case *Func:
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = Substitute(p, bindings)
		}
		return &Func{Params: params, Return: Substitute(x.Return, bindings), Effects: x.Effects}
	default:
		return t
	}
}
