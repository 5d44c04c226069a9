// ==============================================================================================
// FILE: internal/types/types_test.go
// ==============================================================================================

package types

import "testing"

func TestEqualPrimitives(t *testing.T) {
	if !Equal(Int, Int) {
		t.Errorf("Int should equal itself")
	}
	if Equal(Int, Bool) {
		t.Errorf("Int should not equal Bool")
	}
}

func TestEqualNamedWithArgs(t *testing.T) {
	a := &Named{Name: "Option", Args: []Type{Int}}
	b := &Named{Name: "Option", Args: []Type{Int}}
	c := &Named{Name: "Option", Args: []Type{String}}
	if !Equal(a, b) {
		t.Errorf("Option<Int> should equal Option<Int>")
	}
	if Equal(a, c) {
		t.Errorf("Option<Int> should not equal Option<String>")
	}
}

func TestEqualFunc(t *testing.T) {
	f1 := &Func{Params: []Type{Int, Int}, Return: Int}
	f2 := &Func{Params: []Type{Int, Int}, Return: Int}
	f3 := &Func{Params: []Type{Int}, Return: Int}
	if !Equal(f1, f2) {
		t.Errorf("identical func shapes should be equal")
	}
	if Equal(f1, f3) {
		t.Errorf("func shapes with differing arity should not be equal")
	}
}

func TestSubstituteReplacesTypeParam(t *testing.T) {
	option := &Named{Name: "Option", Args: []Type{&TypeParam{Name: "T"}}}
	got := Substitute(option, map[string]Type{"T": Int})
	want := &Named{Name: "Option", Args: []Type{Int}}
	if !Equal(got, want) {
		t.Errorf("Substitute(Option<T>, T->Int) = %s, want %s", got, want)
	}
}

func TestSubstituteLeavesUnboundParam(t *testing.T) {
	tp := &TypeParam{Name: "T"}
	got := Substitute(tp, map[string]Type{"U": Int})
	if _, ok := got.(*TypeParam); !ok {
		t.Errorf("expected an unbound TypeParam to pass through unchanged, got %s", got)
	}
}

func TestEffectSetUnionAndSubset(t *testing.T) {
	a := NewEffectSet("log", "time")
	b := NewEffectSet("time", "random")
	u := a.Union(b)
	if len(u) != 3 {
		t.Fatalf("expected union of 3 distinct effects, got %d", len(u))
	}
	if !a.IsSubsetOf(u) {
		t.Errorf("a should be a subset of its own union with b")
	}
	if b.IsSubsetOf(a) {
		t.Errorf("b should not be a subset of a")
	}
}

func TestEffectSetSortedIsDeterministic(t *testing.T) {
	s := NewEffectSet("random", "log", "crypto")
	got := s.Sorted()
	want := []string{"crypto", "log", "random"}
	if len(got) != len(want) {
		t.Fatalf("Sorted() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sorted()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
