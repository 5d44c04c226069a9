// ==============================================================================================
// FILE: internal/openapi/openapi_test.go
// PURPOSE: Exercises spec.md §8 end-to-end scenario 6 — a single GET route
//          with a path parameter produces a paths["/u/:id"].get entry with
//          a 200 string-schema response and a required path parameter.
// ==============================================================================================

package openapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/config"
	"github.com/manaknight/mkc/internal/resolver"
)

func TestBuildRouteWithPathParam(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.mk")
	src := `api GET "/u/:id" (id: String) -> String { "ok: " + id }`
	require.NoError(t, os.WriteFile(entry, []byte(src), 0o644))

	var arena ast.Arena
	r := resolver.New(dir, &arena)
	graph, diags := r.Resolve(entry)
	require.False(t, diags.HasErrors(), diags.Sorted())

	chk := checker.CheckGraph(graph)
	require.False(t, chk.Diags.HasErrors(), chk.Diags.Sorted())

	doc := Build(graph, chk, config.OpenAPIInfo{Title: "Test", Version: "1.0.0"})
	require.Equal(t, "3.0.0", doc.OpenAPI)

	item, ok := doc.Paths["/u/:id"]
	require.True(t, ok, "expected paths[\"/u/:id\"] entry")
	op, ok := item["get"]
	require.True(t, ok, "expected a get operation")

	resp, ok := op.Responses["200"]
	require.True(t, ok)
	require.Equal(t, "string", resp.Content["application/json"].Schema.Type)

	require.Len(t, op.Parameters, 1)
	require.Equal(t, "id", op.Parameters[0].Name)
	require.Equal(t, "path", op.Parameters[0].In)
	require.True(t, op.Parameters[0].Required)
	require.Equal(t, "string", op.Parameters[0].Schema.Type)

	_, err := Marshal(doc)
	require.NoError(t, err)
}
