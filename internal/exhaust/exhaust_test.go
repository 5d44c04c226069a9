// ==============================================================================================
// FILE: internal/exhaust/exhaust_test.go
// ==============================================================================================

package exhaust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/resolver"
)

func analyzeSource(t *testing.T, source string) Result {
	t.Helper()
	root := t.TempDir()
	entry := filepath.Join(root, "main.mk")
	if err := os.WriteFile(entry, []byte(source), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := resolver.New(root, &ast.Arena{})
	graph, diags := r.Resolve(entry)
	if diags.HasErrors() {
		t.Fatalf("unexpected resolver diagnostics: %v", diags.Sorted())
	}
	chk := checker.CheckGraph(graph)
	if chk.Diags.HasErrors() {
		t.Fatalf("unexpected checker diagnostics: %v", chk.Diags.Sorted())
	}
	return Analyze(graph, chk)
}

func hasCode(res Result, code string) bool {
	for _, d := range res.Diags.Sorted() {
		if string(d.Code) == code {
			return true
		}
	}
	return false
}

func TestExhaustiveMatchIsClean(t *testing.T) {
	res := analyzeSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
        None -> { fallback }
    }
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestMissingConstructorIsReported(t *testing.T) {
	res := analyzeSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
    }
}
`)
	if !hasCode(res, "E4001") {
		t.Errorf("expected E4001 (missing None case), got %v", res.Diags.Sorted())
	}
}

func TestWildcardCoversRemainingConstructors(t *testing.T) {
	res := analyzeSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
        _ -> { fallback }
    }
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestWildcardAfterFullCoverageIsRedundant(t *testing.T) {
	res := analyzeSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
        None -> { fallback }
        _ -> { fallback }
    }
}
`)
	if !hasCode(res, "E4005") {
		t.Errorf("expected E4005 (wildcard unreachable, all constructors already covered), got %v", res.Diags.Sorted())
	}
}

func TestMatchBesideLambdaInFunctionBodyIsChecked(t *testing.T) {
	res := analyzeSource(t, `
fn run(o: Option<Int>) -> Int {
    let f = fn() => 0
    match o {
        Some(x) -> { x }
    }
}
`)
	if !hasCode(res, "E4001") {
		t.Errorf("expected E4001, got %v", res.Diags.Sorted())
	}
}

func TestRecordMatchWithSingleImplicitConstructorIsExhaustive(t *testing.T) {
	res := analyzeSource(t, `
type Point {
    x: Int, y: Int
}

fn originX() -> Int {
    let p = Point(0, 0)
    match p {
        Point(x, y) -> { x }
    }
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}
