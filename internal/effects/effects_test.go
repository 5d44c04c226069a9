// ==============================================================================================
// FILE: internal/effects/effects_test.go
// PURPOSE: Drives the analyzer through the real resolver+checker pipeline,
//          same as internal/checker's own tests, rather than hand-building
//          ASTs.
// ==============================================================================================

package effects

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

func TestPureFunctionWithNoEffectsIsClean(t *testing.T) {
	res := analyzeSource(t, `fn square(x: Int) -> Int { x * x }`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestCallingEffectfulFunctionFromPureIsReported(t *testing.T) {
	res := analyzeSource(t, `
fn now() -> Int uses { time } { 0 }

fn bad() -> Int {
    now()
}
`)
	if !hasCode(res, "E3002") {
		t.Errorf("expected E3002, got %v", res.Diags.Sorted())
	}
}

func TestDeclaredEffectSubsumesInferredIsClean(t *testing.T) {
	res := analyzeSource(t, `
fn now() -> Int uses { time } { 0 }

fn wrapper() -> Int uses { time } {
    now()
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestMissingDeclaredEffectIsReported(t *testing.T) {
	res := analyzeSource(t, `
fn now() -> Int uses { time } { 0 }
fn roll() -> Int uses { random } { 0 }

fn both() -> Int uses { time } {
    now()
    roll()
}
`)
	if !hasCode(res, "E3001") {
		t.Errorf("expected E3001 (missing random from both's declared set), got %v", res.Diags.Sorted())
	}
}

func TestUnknownDeclaredEffectIsReported(t *testing.T) {
	res := analyzeSource(t, `
fn bad() -> Int uses { telekinesis } { 0 }
`)
	if !hasCode(res, "E3005") {
		t.Errorf("expected E3005, got %v", res.Diags.Sorted())
	}
}

func TestLambdaBodyMustStayPure(t *testing.T) {
	res := analyzeSource(t, `
fn now() -> Int uses { time } { 0 }

fn run() -> Int uses { time } {
    let f = fn() => now()
    f()
}
`)
	if !hasCode(res, "E3004") {
		t.Errorf("expected E3004 (lambda body calling an effectful function), got %v", res.Diags.Sorted())
	}
}

func TestSpuriousDeclaredEffectIsAllowed(t *testing.T) {
	res := analyzeSource(t, `
fn pureButLabeled() -> Int uses { time } {
    1 + 1
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("a declared effect a function never performs must not be reported: %v", res.Diags.Sorted())
	}
}

func TestUserDeclaredEffectIsRecognized(t *testing.T) {
	res := analyzeSource(t, `
effect audit

fn log_() -> Int uses { audit } { 0 }

fn run() -> Int uses { audit } {
    log_()
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}

func TestRouteBodyEffectsAreCollectedWithoutSubsetCheck(t *testing.T) {
	res := analyzeSource(t, `
fn now() -> Int uses { time } { 0 }

api GET "/health" () -> Int {
    now()
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
}
