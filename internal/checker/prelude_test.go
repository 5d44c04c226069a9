// ==============================================================================================
// FILE: internal/checker/prelude_test.go
// PURPOSE: Exercises the always-in-scope core installPrelude seeds before
//          any user module is registered: Option<T> construction/matching
//          without a local `type Option` declaration, the polymorphic
//          builtins, and shadow prohibition against prelude names.
// ==============================================================================================

package checker

import (
	"testing"

	"github.com/manaknight/mkc/internal/ast"
)

func TestPreludeOptionIsAlwaysInScope(t *testing.T) {
	res := checkSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
        None -> { fallback }
    }
}

fn run() -> Int {
    unwrapOr(Some(5), 0)
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestPreludeResultConstructorsAreTyped(t *testing.T) {
	res := checkSource(t, `
fn describe(r: Result<Int, String>) -> Int {
    match r {
        Ok(x) -> { x }
        Err(e) -> { 0 }
    }
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestPreludeIdentityIsPolymorphic(t *testing.T) {
	res := checkSource(t, `
fn run() -> Int {
    identity(5)
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestPreludeIdentityRejectsReturnMismatch(t *testing.T) {
	res := checkSource(t, `
fn run() -> Int {
    identity(true)
}
`)
	if !hasCode(res, "E2004") {
		t.Errorf("expected E2004 (identity(true) doesn't return an Int), got %v", res.Diags.Sorted())
	}
}

func TestPreludeEqualsAcrossSameType(t *testing.T) {
	res := checkSource(t, `
fn run() -> Bool {
    equals(1, 2)
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestPreludeNotRejectsNonBool(t *testing.T) {
	res := checkSource(t, `
fn run() -> Bool {
    not(5)
}
`)
	if !hasCode(res, "E2002") {
		t.Errorf("expected E2002 (not(5) on a non-Bool argument), got %v", res.Diags.Sorted())
	}
}

func TestPreludePipeThroughIdentity(t *testing.T) {
	res := checkSource(t, `
fn run() -> Int {
    5 |> identity
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestPreludeRedeclaringOptionIsShadowViolation(t *testing.T) {
	res := checkSource(t, `
type Option<T> {
    Some(T), None
}
`)
	if !hasCode(res, "E2006") {
		t.Errorf("expected E2006 (redeclaring the prelude's Option), got %v", res.Diags.Sorted())
	}
}

func TestPreludeRedeclaringIdentityIsShadowViolation(t *testing.T) {
	res := checkSource(t, `
fn identity(x: Int) -> Int { x }
`)
	if !hasCode(res, "E2006") {
		t.Errorf("expected E2006 (redeclaring the prelude's identity), got %v", res.Diags.Sorted())
	}
}

func TestIsBuiltinRecognizesPreludeNames(t *testing.T) {
	c := New()
	c.installPrelude(&ast.Arena{})
	for _, name := range []string{"identity", "equals", "hash", "not", "and", "or", "pipe", "compose"} {
		if !c.IsBuiltin(name) {
			t.Errorf("expected %q to be a builtin", name)
		}
	}
	if c.IsBuiltin("square") {
		t.Errorf("square is not a prelude builtin")
	}
}
