// ==============================================================================================
// FILE: internal/scope/scope_test.go
// PURPOSE: Verifies parent-chained lookup and shadow prohibition.
// ==============================================================================================

package scope

import (
	"testing"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
)

func TestLookupWalksOuterChain(t *testing.T) {
	prelude := NewPrelude()
	var diags diag.Bag
	module := New(prelude)
	module.Declare(Symbol{Name: "square", Kind: KindFunc}, ast.Pos{}, &diags)

	body := New(module)
	if _, ok := body.Lookup("square"); !ok {
		t.Fatalf("expected square visible from nested scope")
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
}

func TestDeclareRejectsShadowingOuterScope(t *testing.T) {
	prelude := NewPrelude()
	var diags diag.Bag
	module := New(prelude)
	module.Declare(Symbol{Name: "x", Kind: KindLet}, ast.Pos{}, &diags)

	body := New(module)
	ok := body.Declare(Symbol{Name: "x", Kind: KindParam}, ast.Pos{File: "t.mk", Line: 3, Column: 1}, &diags)
	if ok {
		t.Fatalf("expected shadowing declaration to be rejected")
	}
	if !diags.HasErrors() {
		t.Fatalf("expected a shadow diagnostic")
	}
	got := diags.Sorted()[0]
	if got.Code != diag.ErrShadow {
		t.Errorf("expected %s, got %s", diag.ErrShadow, got.Code)
	}
}

func TestDeclareAllowsDistinctNamesInNestedScope(t *testing.T) {
	prelude := NewPrelude()
	var diags diag.Bag
	module := New(prelude)
	module.Declare(Symbol{Name: "x", Kind: KindLet}, ast.Pos{}, &diags)

	body := New(module)
	if !body.Declare(Symbol{Name: "y", Kind: KindParam}, ast.Pos{}, &diags) {
		t.Fatalf("declaring a distinct name must succeed")
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
}

func TestDeclareLocalRejectsDuplicateParameter(t *testing.T) {
	var diags diag.Bag
	params := New(NewPrelude())
	if !params.DeclareLocal(Symbol{Name: "x", Kind: KindParam}, ast.Pos{}, &diags) {
		t.Fatalf("first declaration of x must succeed")
	}
	if params.DeclareLocal(Symbol{Name: "x", Kind: KindParam}, ast.Pos{File: "t.mk", Line: 1, Column: 10}, &diags) {
		t.Fatalf("expected duplicate parameter x to be rejected")
	}
	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for the duplicate parameter")
	}
}
