// ==============================================================================================
// FILE: internal/resolver/resolver.go
// ==============================================================================================
// PACKAGE: resolver
// PURPOSE: Builds the module dependency graph, loading each imported
//          file exactly once, detecting cycles, and checking that every
//          imported module exists (spec.md §4.3, §4.9). Whether an
//          imported name is exported is checked later by internal/checker.
// ==============================================================================================

package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/lexer"
	"github.com/manaknight/mkc/internal/parser"
)

// color marks a module's DFS visitation state for cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully resolved
)

// Unit is one resolved source file: its parsed modules, its top-level API
// routes, and its own diagnostics (lexical/syntactic).
type Unit struct {
	File    string
	Modules []*ast.Module
	Routes  []*ast.APIRoute // top-level `api` declarations, outside any module
	Diags   diag.Bag
}

// Graph is the full set of resolved compilation units, keyed by source
// file path, in the order they were first discovered (the order the
// driver feeds later passes, matching spec.md §5's determinism
// guarantee as long as the entry file's import list order is stable).
type Graph struct {
	Order []string
	Units map[string]*Unit

	// Arena is the single arena every file in this graph was parsed with,
	// shared so later passes (the checker's synthetic prelude nodes, the
	// lowering pass's own bookkeeping) can mint further ast.ID values that
	// never collide with a parsed node's identity.
	Arena *ast.Arena

	byModuleName map[string]*ast.Module
}

// Resolver loads files from a root directory, mapping a dotted module
// path straight onto a `.mk` file path the way the teacher's evaluator
// never had to (Eloquence is single-file) — this is new ground,
// generalizing object.Environment's cache-then-recurse shape
// (resolved units are cached in Graph.Units exactly as
// object.Environment.store caches bindings) to a module graph instead
// of a lexical scope chain.
type Resolver struct {
	root  string
	arena *ast.Arena

	colors map[string]color
	graph  *Graph
	diags  diag.Bag
}

// New creates a Resolver that looks up dotted module paths under root.
// Every file it loads shares one arena so ast.ID values stay unique
// across the whole compilation, not just within one file.
func New(root string, arena *ast.Arena) *Resolver {
	if arena == nil {
		arena = &ast.Arena{}
	}
	return &Resolver{
		root:   root,
		arena:  arena,
		colors: make(map[string]color),
		graph: &Graph{
			Units:        make(map[string]*Unit),
			Arena:        arena,
			byModuleName: make(map[string]*ast.Module),
		},
	}
}

// Resolve parses entryFile and recursively follows its imports, building
// a Graph. Diagnostics from every visited file and from the resolution
// itself (missing files, cycles, duplicate module names) are all merged
// into the returned Bag.
func (r *Resolver) Resolve(entryFile string) (*Graph, diag.Bag) {
	r.loadFile(entryFile)
	return r.graph, r.diags
}

// loadFile is the DFS visit for one file. colors is keyed by file path
// (not module name) so a cycle is caught the moment the recursion
// revisits a file still on the current stack, regardless of which
// dotted module path led back to it.
func (r *Resolver) loadFile(file string) *Unit {
	switch r.colors[file] {
	case gray:
		r.diags.Addf(diag.ErrModuleCycle, diag.Position{File: file},
			"import cycle detected while loading %q", file)
		return nil
	case black:
		return r.graph.Units[file]
	}
	r.colors[file] = gray
	defer func() { r.colors[file] = black }()

	src, err := os.ReadFile(file)
	if err != nil {
		r.diags.Addf(diag.ErrModuleNotFound, diag.Position{File: file},
			"%s", errors.Wrapf(err, "reading module file %q", file))
		return nil
	}

	l := lexer.New(file, string(src))
	p := parser.New(file, l, r.arena)
	prog := p.ParseProgram()

	u := &Unit{File: file, Modules: prog.Modules, Routes: prog.Routes}
	u.Diags.Merge(&l.Diags)
	u.Diags.Merge(&p.Diags)
	r.graph.Units[file] = u
	r.graph.Order = append(r.graph.Order, file)
	r.diags.Merge(&u.Diags)

	for _, m := range prog.Modules {
		if m.Name == "" {
			continue // the implicit script-mode root module is never imported
		}
		if existing, ok := r.graph.byModuleName[m.Name]; ok && existing != m {
			r.diags.Addf(diag.ErrModuleDuplicate, diag.Position{File: file},
				"module %q is declared more than once", m.Name)
			continue
		}
		r.graph.byModuleName[m.Name] = m
	}

	for _, m := range prog.Modules {
		r.resolveImports(file, m)
	}
	return u
}

func (r *Resolver) resolveImports(file string, m *ast.Module) {
	for _, d := range m.Decls {
		imp, ok := d.(*ast.ImportDecl)
		if !ok {
			continue
		}
		r.resolveOne(file, imp)
	}
}

// resolveOne loads the file backing imp and confirms the module it
// names actually exists (E5001). Whether a particular *name* drawn from
// that module is visible (E5003) is judged later by internal/checker,
// which resolves a qualified reference like `area.square` against the
// target module's own export list — the resolver's job ends at "this
// module exists and is loaded".
func (r *Resolver) resolveOne(fromFile string, imp *ast.ImportDecl) {
	target := r.pathFor(imp.Path)
	r.loadFile(target)

	if _, ok := r.graph.byModuleName[imp.Path]; !ok {
		r.diags.Addf(diag.ErrModuleNotFound, diag.Position{File: fromFile},
			"no module named %q found under %s", imp.Path, r.root)
	}
}

// pathFor maps a dotted module path onto a `.mk` file under the
// resolver's root, e.g. "shapes.area" -> "<root>/shapes/area.mk".
func (r *Resolver) pathFor(dotted string) string {
	parts := strings.Split(dotted, ".")
	return filepath.Join(r.root, filepath.Join(parts...)) + ".mk"
}

// IsExportedSymbol reports whether name is visible to importers of mod —
// used by the checker when resolving a qualified reference like
// `area.square`.
func IsExportedSymbol(mod *ast.Module, name string) bool {
	return mod.Exported(name)
}

// ModuleByName looks up an already-resolved module by its dotted name, for
// the checker's import-merging pass.
func (g *Graph) ModuleByName(name string) (*ast.Module, bool) {
	m, ok := g.byModuleName[name]
	return m, ok
}

// AllRoutes returns every top-level API route across every resolved unit,
// in discovery order, for the checker and the OpenAPI assembler.
func (g *Graph) AllRoutes() []*ast.APIRoute {
	var routes []*ast.APIRoute
	for _, file := range g.Order {
		routes = append(routes, g.Units[file].Routes...)
	}
	return routes
}
