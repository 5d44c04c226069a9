// ==============================================================================================
// FILE: internal/resolver/resolver_test.go
// PURPOSE: Exercises module loading, cycle detection, and export
//          checking against real temp-directory `.mk` files.
// ==============================================================================================

package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/manaknight/mkc/internal/ast"
)

func writeModule(t *testing.T, root, relPath, source string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(source), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestResolveFollowsImport(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "shapes/area.mk", `
module shapes.area {
    export fn square(x: Int) -> Int {
        x * x
    }
}
`)
	entry := filepath.Join(root, "main.mk")
	writeModule(t, root, "main.mk", `
import shapes.area

fn main() -> Int {
    1
}
`)

	r := New(root, &ast.Arena{})
	_, diags := r.Resolve(entry)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
}

func TestResolveReportsMissingModule(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "main.mk")
	writeModule(t, root, "main.mk", `import nowhere.at.all`)

	r := New(root, &ast.Arena{})
	_, diags := r.Resolve(entry)
	if !diags.HasErrors() {
		t.Fatalf("expected a missing-module diagnostic")
	}
	found := false
	for _, d := range diags.Sorted() {
		if d.Code == "E5001" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E5001, got %v", diags.Sorted())
	}
}

func TestResolveReportsImportCycle(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "a.mk", `
module a {
    import b
}
`)
	writeModule(t, root, "b.mk", `
module b {
    import a
}
`)
	entry := filepath.Join(root, "a.mk")

	r := New(root, &ast.Arena{})
	_, diags := r.Resolve(entry)
	found := false
	for _, d := range diags.Sorted() {
		if d.Code == "E5004" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E5004 for the import cycle, got %v", diags.Sorted())
	}
}

func TestIsExportedSymbolReflectsModuleExportList(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "shapes/area.mk", `
module shapes.area {
    export fn square(x: Int) -> Int {
        x * x
    }
    fn helper(x: Int) -> Int {
        x
    }
}
`)
	entry := filepath.Join(root, "main.mk")
	writeModule(t, root, "main.mk", `import shapes.area`)

	r := New(root, &ast.Arena{})
	graph, diags := r.Resolve(entry)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Sorted())
	}
	mod := graph.byModuleName["shapes.area"]
	if !IsExportedSymbol(mod, "square") {
		t.Errorf("expected square to be exported")
	}
	if IsExportedSymbol(mod, "helper") {
		t.Errorf("helper defaults to private and must not be exported")
	}
}
