package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		code Code
		want Category
	}{
		{ErrUnterminatedString, Syntax},
		{ErrTypeMismatch, Type},
		{ErrEffectLeak, Effect},
		{ErrNonExhaustive, Pattern},
		{ErrModuleCycle, Module},
		{ErrBadMethod, API},
		{ErrBadBytecode, Runtime},
		{ErrTimeout, Resource},
		{ErrInternal, Internal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CategoryOf(c.code), "category for %s", c.code)
	}
}

func TestBagSortedOrdersByFileLineColumnCode(t *testing.T) {
	var b Bag
	b.Addf(ErrShadow, Position{File: "b.mk", Line: 5, Column: 1}, "shadow")
	b.Addf(ErrArity, Position{File: "a.mk", Line: 10, Column: 1}, "arity")
	b.Addf(ErrTypeMismatch, Position{File: "a.mk", Line: 2, Column: 5}, "mismatch")
	b.Addf(ErrNotBool, Position{File: "a.mk", Line: 2, Column: 1}, "not bool")

	got := b.Sorted()
	assert.Len(t, got, 4)
	assert.Equal(t, "a.mk", got[0].Pos.File)
	assert.Equal(t, 2, got[0].Pos.Line)
	assert.Equal(t, 1, got[0].Pos.Column)
	assert.Equal(t, ErrNotBool, got[0].Code)
	assert.Equal(t, ErrTypeMismatch, got[1].Code)
	assert.Equal(t, 10, got[2].Pos.Line)
	assert.Equal(t, "b.mk", got[3].Pos.File)
}

func TestDiagnosticStringFormat(t *testing.T) {
	d := New(ErrShadow, Position{File: "m.mk", Line: 3, Column: 7}, "name %q already declared", "x")
	assert.Equal(t, `Error E2006: name "x" already declared at m.mk:3:7`, d.String())
}

func TestBagMergePreservesAllDiagnostics(t *testing.T) {
	var a, b Bag
	a.Addf(ErrArity, Position{File: "a.mk"}, "one")
	b.Addf(ErrShadow, Position{File: "a.mk"}, "two")
	a.Merge(&b)
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.HasErrors())
}
