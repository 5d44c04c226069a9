// ==============================================================================================
// FILE: internal/lower/lower.go
// ==============================================================================================
// PACKAGE: lower
// PURPOSE: The JS emitter (spec.md §4.8). Walks the typed, effect-checked
//          AST and renders the fixed restricted JS subset as a string.
//          Built in the teacher's own string-rendering idiom
//          (object.go's Inspect() methods: bytes/strings.Builder plus
//          strings.Join for comma lists) generalized from "render a
//          runtime value" to "render a JS program".
// ==============================================================================================

package lower

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/resolver"
	"github.com/manaknight/mkc/internal/types"
)

const (
	languageVersion = "1.0"
	stdlibVersion   = "1.0"
)

// Result is the emitter's output: the final JS source text plus any
// internal-error diagnostics (lowering itself never rejects a program —
// by this point type checking, effect checking, and exhaustiveness have
// all already passed — but an unhandled node shape is still reported as
// E9xxx rather than panicking).
type Result struct {
	JS    string
	Diags diag.Bag
}

// reserved is the set of JS reserved words spec.md §6 requires Manaknight
// identifiers to dodge by a trailing underscore.
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "return": true, "super": true,
	"switch": true, "this": true, "throw": true, "try": true, "typeof": true,
	"var": true, "void": true, "while": true, "with": true, "yield": true,
	"let": true, "static": true, "enum": true, "await": true, "implements": true,
	"package": true, "protected": true, "interface": true, "private": true,
	"public": true, "null": true, "true": true, "false": true,
}

func jsName(name string) string {
	if reserved[name] {
		return name + "_"
	}
	return name
}

// opJS maps the parser's synthetic infix callee names back onto real JS
// operators. `==`/`!=` become the strict forms, per spec.md §4.8's "strict
// equality" requirement.
var opJS = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/", "%": "%",
	"&&": "&&", "||": "||",
	"==": "===", "!=": "!==",
	"<": "<", ">": ">", "<=": "<=", ">=": ">=",
}

// emitter holds the read-only context every lowering helper needs: the
// checker's resolved types (for constructor lookups) and the set of
// function names that require __effects threading.
type emitter struct {
	tds       map[string]*ast.TypeDecl
	builtins  map[string]*types.Func
	effectful map[string]bool // declared-effectful function names
	diags     diag.Bag
}

// Lower renders every function declaration and API route reachable from
// graph into one combined JS module, preceded by a __meta block. Lowering
// treats the whole resolved graph as a single compiled program rather than
// one file per Manaknight source file — imports have already flattened
// exported names into scope by the time the checker ran, so there is
// nothing left to separate at the module boundary (see DESIGN.md).
func Lower(graph *resolver.Graph, chk checker.Result) Result {
	e := &emitter{tds: chk.TypeDecls, builtins: chk.Builtins, effectful: map[string]bool{}}
	for name, sig := range chk.FuncSigs {
		if len(sig.Effects) > 0 {
			e.effectful[name] = true
		}
	}

	var modules []*ast.Module
	for _, file := range graph.Order {
		modules = append(modules, graph.Units[file].Modules...)
	}

	var out strings.Builder
	out.WriteString("\"use strict\";\n")
	out.WriteString(e.metaBlock(modules))
	out.WriteString("\n")

	for _, m := range modules {
		for _, d := range m.Decls {
			if fd, ok := d.(*ast.FuncDecl); ok {
				out.WriteString(e.emitFunc(fd))
				out.WriteString("\n")
			}
		}
	}
	for _, r := range graph.AllRoutes() {
		out.WriteString(e.emitRoute(r))
		out.WriteString("\n")
	}

	return Result{JS: out.String(), Diags: e.diags}
}

// metaBlock builds the __meta constant: language/stdlib versions and a
// deterministic hash over the sorted effect set every exported entry
// requires (spec.md §4.8, §6). hash/fnv mirrors object.go's own hashing
// choice for Map, generalized from "hash a runtime key" to "hash an
// effect signature".
func (e *emitter) metaBlock(modules []*ast.Module) string {
	names := map[string]bool{}
	for _, m := range modules {
		for _, d := range m.Decls {
			fd, ok := d.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if m.Name != "" && !m.Exported(fd.Name) {
				continue
			}
			for _, eff := range fd.Effects {
				names[eff] = true
			}
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	h := fnv.New32a()
	h.Write([]byte(strings.Join(sorted, ",")))

	listJSON, _ := json.Marshal(sorted)
	return fmt.Sprintf(
		"const __meta = { languageVersion: %q, stdlibVersion: %q, effectsHash: %q, effectsList: %s };\n",
		languageVersion, stdlibVersion, fmt.Sprintf("%08x", h.Sum32()), listJSON)
}

// emitFunc renders one function declaration. An effectful function gains
// an extra trailing __effects parameter, per spec.md §4.8.
func (e *emitter) emitFunc(fd *ast.FuncDecl) string {
	params := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = jsName(p.Name)
	}
	if len(fd.Effects) > 0 {
		params = append(params, "__effects")
	}
	var out strings.Builder
	fmt.Fprintf(&out, "function %s(%s) {\n", jsName(fd.Name), strings.Join(params, ", "))
	out.WriteString(e.emitBlockReturning(fd.Body, "  "))
	out.WriteString("}\n")
	return out.String()
}

// emitRoute renders an API route as a registration call against the
// injected __router, per spec.md §4.8. The handler always takes
// __effects — routes have no `uses {}` clause in the grammar to opt out
// of it, so every route is treated as a potential
// effect boundary.
func (e *emitter) emitRoute(r *ast.APIRoute) string {
	params := make([]string, len(r.Params))
	for i, p := range r.Params {
		params[i] = jsName(p.Name)
	}
	params = append(params, "__effects")
	var out strings.Builder
	fmt.Fprintf(&out, "__router.register(%q, %q, function handler(%s) {\n", r.Method, r.Path, strings.Join(params, ", "))
	out.WriteString(e.emitBlockReturning(r.Body, "  "))
	out.WriteString("});\n")
	return out.String()
}
