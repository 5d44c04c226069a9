// ==============================================================================================
// FILE: internal/driver/driver.go
// ==============================================================================================
// PACKAGE: driver
// PURPOSE: Orchestrates the nine-stage pipeline (spec.md §2, §4.10):
//          resolve -> check -> infer effects -> check exhaustiveness ->
//          lower. Diagnostics from every stage accumulate into one bag;
//          a fatal diagnostic in an earlier stage still lets later stages
//          run on the unaffected parts, but lowering itself is skipped
//          once any stage reports an error, since lowering a program the
//          checker has already rejected would have nothing sound to emit.
//          Sequencing mirrors the teacher's own main.go runFile
//          (lexer.New -> parser.New -> ParseProgram -> check errors ->
//          evaluate), generalized to the full pipeline.
// ==============================================================================================

package driver

import (
	"log"

	"github.com/google/uuid"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/checker"
	"github.com/manaknight/mkc/internal/diag"
	"github.com/manaknight/mkc/internal/effects"
	"github.com/manaknight/mkc/internal/exhaust"
	"github.com/manaknight/mkc/internal/lower"
	"github.com/manaknight/mkc/internal/resolver"
)

// Options configures one Compile call, mirroring spec.md §6's CLI flags.
type Options struct {
	// Root is the module search root (spec.md §4.3).
	Root string
	// Verbose requests -v-style progress lines on the driver's logger.
	Verbose bool
	// CheckOnly skips lowering even when every earlier stage is clean
	// (the CLI's `-c` flag).
	CheckOnly bool
}

// Result is everything a caller (cmd/mkc, internal/openapi) needs out of
// one compile invocation.
type Result struct {
	// CorrelationID is a per-invocation UUID used only in -v log lines and
	// never emitted into JS (determinism forbids leaking it into output,
	// per spec.md §9 "Deterministic output").
	CorrelationID string
	Graph         *resolver.Graph
	Checker       checker.Result
	Effects       effects.Result
	Exhaust       exhaust.Result
	JS            string
	Diagnostics   []diag.Diagnostic
}

// HasErrors reports whether any stage produced a diagnostic. The CLI uses
// this to decide its process exit code (spec.md §6).
func (r Result) HasErrors() bool { return len(r.Diagnostics) > 0 }

// Compile runs the whole pipeline against entryFile and returns the
// accumulated result. Lowering only runs when opts.CheckOnly is false and
// no earlier stage reported a diagnostic — spec.md §4.10's fatal-gating is
// per-module for the earlier passes (resolver/checker each already skip
// erroneous subtrees internally) but global for lowering, since a single
// JS module is emitted for the whole resolved graph (see internal/lower's
// own doc comment).
func Compile(entryFile string, opts Options) Result {
	id := uuid.NewString()
	logf := func(format string, args ...any) {
		if opts.Verbose {
			log.Printf("[mkc %s] "+format, append([]any{id}, args...)...)
		}
	}

	logf("resolving module graph from %s", entryFile)
	var arena ast.Arena
	res := resolver.New(opts.Root, &arena)
	graph, resolveDiags := res.Resolve(entryFile)

	var bag diag.Bag
	bag.Merge(&resolveDiags)

	logf("type checking")
	chk := checker.CheckGraph(graph)
	bag.Merge(&chk.Diags)

	logf("analyzing effects")
	eff := effects.Analyze(graph, chk)
	bag.Merge(&eff.Diags)

	logf("checking exhaustiveness")
	exh := exhaust.Analyze(graph, chk)
	bag.Merge(&exh.Diags)

	result := Result{
		CorrelationID: id,
		Graph:         graph,
		Checker:       chk,
		Effects:       eff,
		Exhaust:       exh,
		Diagnostics:   bag.Sorted(),
	}

	if opts.CheckOnly || bag.HasErrors() {
		return result
	}

	logf("lowering to JS")
	lowered := lower.Lower(graph, chk)
	bag.Merge(&lowered.Diags)
	result.JS = lowered.JS
	result.Diagnostics = bag.Sorted()
	return result
}
