// ==============================================================================================
// FILE: internal/driver/driver_test.go
// PURPOSE: End-to-end scenarios from spec.md §8, run through the whole
//          pipeline in one Compile call — the shape kept from the
//          teacher's root-level tests/system_test.go per DESIGN.md.
// ==============================================================================================

package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manaknight/mkc/internal/diag"
)

func writeEntry(t *testing.T, src string) (dir, entry string) {
	t.Helper()
	dir = t.TempDir()
	entry = filepath.Join(dir, "main.mk")
	require.NoError(t, os.WriteFile(entry, []byte(src), 0o644))
	return dir, entry
}

func TestCompileHelloWorld(t *testing.T) {
	dir, entry := writeEntry(t, `fn main() -> String { "hi" }`)
	res := Compile(entry, Options{Root: dir})
	require.False(t, res.HasErrors(), res.Diagnostics)
	require.Contains(t, res.JS, `"use strict"`)
	require.Contains(t, res.JS, "function main(")
	require.NotEmpty(t, res.CorrelationID)
}

func TestCompileEffectEscalation(t *testing.T) {
	dir, entry := writeEntry(t, `
fn now() -> Int uses { time } { 0 }
fn pure() -> Int { now() }
`)
	res := Compile(entry, Options{Root: dir})
	require.True(t, res.HasErrors())
	require.Len(t, res.Diagnostics, 1)
	require.Equal(t, diag.ErrEffectInPure, res.Diagnostics[0].Code)
}

func TestCompileNonExhaustiveMatch(t *testing.T) {
	dir, entry := writeEntry(t, `
fn pick(o: Option<Int>) -> Int {
    match o {
        Some(x) -> { x }
    }
}
`)
	res := Compile(entry, Options{Root: dir})
	require.True(t, res.HasErrors())
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.ErrNonExhaustive {
			found = true
			require.Contains(t, d.Message, "None")
		}
	}
	require.True(t, found, "expected E4001 mentioning missing None constructor")
}

func TestCompileShadowing(t *testing.T) {
	dir, entry := writeEntry(t, `
fn main() -> Int {
    let x = 1
    if true { let x = 2 } else { () }
    0
}
`)
	res := Compile(entry, Options{Root: dir})
	require.True(t, res.HasErrors())
	foundShadow := false
	for _, d := range res.Diagnostics {
		if d.Code == diag.ErrShadow {
			foundShadow = true
		}
	}
	require.True(t, foundShadow, "expected E2006 for the inner shadowing x")
}

func TestCompilePipelineTyping(t *testing.T) {
	dir, entry := writeEntry(t, `
fn inc(x: Int) -> Int { x + 1 }
fn main() -> Int { 1 |> inc }
`)
	res := Compile(entry, Options{Root: dir})
	require.False(t, res.HasErrors(), res.Diagnostics)
	require.Contains(t, res.JS, "inc(1)")
}

func TestCompileAPIRoute(t *testing.T) {
	dir, entry := writeEntry(t, `api GET "/u/:id" (id: String) -> String { "ok: " + id }`)
	res := Compile(entry, Options{Root: dir})
	require.False(t, res.HasErrors(), res.Diagnostics)
	require.Contains(t, res.JS, `__router.register("GET", "/u/:id"`)
}

func TestCompileCheckOnlySkipsLowering(t *testing.T) {
	dir, entry := writeEntry(t, `fn main() -> String { "hi" }`)
	res := Compile(entry, Options{Root: dir, CheckOnly: true})
	require.False(t, res.HasErrors())
	require.Empty(t, res.JS)
}
