// ==============================================================================================
// FILE: internal/lower/lower_test.go
// PURPOSE: Drives the emitter through the real resolver+checker pipeline,
//          same pattern as internal/effects and internal/exhaust's tests,
//          and asserts on fragments of the rendered JS rather than a full
//          golden file (emitter internals like the IIFE wrapper are free to
//          change shape as long as these invariants hold).
// ==============================================================================================

package lower

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/resolver"
)

func lowerSource(t *testing.T, source string) Result {
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
	return Lower(graph, chk)
}

func TestLowerPureFunctionRendersReturn(t *testing.T) {
	res := lowerSource(t, `
fn square(x: Int) -> Int {
    x * x
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, "function square(x) {") {
		t.Errorf("expected square declaration, got:\n%s", res.JS)
	}
	if !strings.Contains(res.JS, "return (x * x);") {
		t.Errorf("expected infix multiply lowered to JS *, got:\n%s", res.JS)
	}
}

func TestLowerMetaBlockCarriesSortedEffects(t *testing.T) {
	res := lowerSource(t, `
fn tick() -> Int uses { time } {
    0
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, `effectsList: ["time"]`) {
		t.Errorf("expected effectsList to carry time, got:\n%s", res.JS)
	}
	if !strings.Contains(res.JS, "effectsHash") {
		t.Errorf("expected an effectsHash field, got:\n%s", res.JS)
	}
}

func TestLowerEffectfulFunctionThreadsEffectsParam(t *testing.T) {
	res := lowerSource(t, `
fn tick() -> Int uses { time } {
    0
}

fn runTwice() -> Int uses { time } {
    tick()
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, "function tick(__effects) {") {
		t.Errorf("expected tick to gain a trailing __effects param, got:\n%s", res.JS)
	}
	if !strings.Contains(res.JS, "tick(__effects)") {
		t.Errorf("expected the call site to thread __effects through, got:\n%s", res.JS)
	}
}

func TestLowerPureFunctionDoesNotThreadEffects(t *testing.T) {
	res := lowerSource(t, `
fn square(x: Int) -> Int {
    x * x
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if strings.Contains(res.JS, "__effects") {
		t.Errorf("pure function should carry no __effects threading, got:\n%s", res.JS)
	}
}

func TestLowerMatchOnOptionRendersTagChain(t *testing.T) {
	res := lowerSource(t, `
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
	if !strings.Contains(res.JS, `.tag === "Some"`) {
		t.Errorf("expected a Some tag check, got:\n%s", res.JS)
	}
	if !strings.Contains(res.JS, `.tag === "None"`) {
		t.Errorf("expected a None tag check, got:\n%s", res.JS)
	}
	if strings.Contains(res.JS, "throw") {
		t.Errorf("lowered output must never use throw, got:\n%s", res.JS)
	}
}

func TestLowerMatchBindsConstructorFieldByDeclaredName(t *testing.T) {
	res := lowerSource(t, `
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
	if !strings.Contains(res.JS, "const x = __scrutinee.value;") {
		t.Errorf("expected Some's bound field to read the declared field name off the scrutinee, got:\n%s", res.JS)
	}
}

func TestLowerRecordConstructionHasNoTagField(t *testing.T) {
	res := lowerSource(t, `
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
	if !strings.Contains(res.JS, "{ x: 0, y: 0 }") {
		t.Errorf("expected a plain, untagged object literal for Point, got:\n%s", res.JS)
	}
	if strings.Contains(res.JS, `tag: "Point"`) {
		t.Errorf("a record construction must never carry a tag field, got:\n%s", res.JS)
	}
}

func TestLowerPipeDesugarsToCall(t *testing.T) {
	res := lowerSource(t, `
fn square(x: Int) -> Int {
    x * x
}

fn run() -> Int {
    3 |> square
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, "square(3)") {
		t.Errorf("expected pipe to desugar to a direct call, got:\n%s", res.JS)
	}
}

func TestLowerReservedWordIdentifierGetsSuffixed(t *testing.T) {
	res := lowerSource(t, `
fn use_class(class: Int) -> Int {
    class
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, "class_") {
		t.Errorf("expected the reserved word class to be suffixed, got:\n%s", res.JS)
	}
	if strings.Contains(res.JS, "(class)") {
		t.Errorf("a bare reserved word must never reach the JS param list, got:\n%s", res.JS)
	}
}

func TestLowerAPIRouteRegistersHandler(t *testing.T) {
	res := lowerSource(t, `
api GET "/health" () -> Int {
    0
}
`)
	if res.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Diags.Sorted())
	}
	if !strings.Contains(res.JS, `__router.register("GET", "/health", function handler(__effects) {`) {
		t.Errorf("expected a router registration with a trailing __effects param, got:\n%s", res.JS)
	}
}

func TestLowerNeverEmitsForbiddenConstructs(t *testing.T) {
	res := lowerSource(t, `
fn unwrapOr(o: Option<Int>, fallback: Int) -> Int {
    match o {
        Some(x) -> { x }
        None -> { fallback }
    }
}
`)
	for _, forbidden := range []string{"var ", "class ", "this.", "eval(", " with (", "try {", "throw ", " null", " undefined"} {
		if strings.Contains(res.JS, forbidden) {
			t.Errorf("lowered output must never contain %q, got:\n%s", forbidden, res.JS)
		}
	}
}
