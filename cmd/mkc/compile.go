// ==============================================================================================
// FILE: cmd/mkc/compile.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: `mkc compile <input> [-o out.js] [-a openapi.json] [-f] [-c] [-v]`,
//          spec.md §6's documented CLI surface. Exit code 0 on success,
//          non-zero on any diagnostic.
// ==============================================================================================

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manaknight/mkc/internal/ast"
	"github.com/manaknight/mkc/internal/driver"
	"github.com/manaknight/mkc/internal/format"
	"github.com/manaknight/mkc/internal/lexer"
	"github.com/manaknight/mkc/internal/openapi"
	"github.com/manaknight/mkc/internal/parser"
)

var (
	outPath     string
	openAPIPath string
	formatFlag  bool
	checkOnly   bool
	verbose     bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <input>",
	Short: "Compile a Manaknight source file to JS",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&outPath, "out", "o", "", "write emitted JS to this path instead of stdout")
	compileCmd.Flags().StringVarP(&openAPIPath, "openapi", "a", "", "also emit an OpenAPI JSON document to this path")
	compileCmd.Flags().BoolVarP(&formatFlag, "format", "f", false, "print the canonically formatted source to stdout instead of compiling")
	compileCmd.Flags().BoolVarP(&checkOnly, "check", "c", false, "type-check and analyze without emitting JS")
	compileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log per-invocation progress")
}

func runCompile(cmd *cobra.Command, args []string) error {
	input := args[0]

	if formatFlag {
		return runFormat(input)
	}

	root := filepath.Dir(input)
	if cfg.Root != "" && cfg.Root != "." {
		root = cfg.Root
	}

	res := driver.Compile(input, driver.Options{Root: root, Verbose: verbose, CheckOnly: checkOnly})
	for _, d := range res.Diagnostics {
		detail := d.Detail
		if detail != "" && !cfg.Debug {
			fmt.Fprintln(os.Stderr, "Error E9000: an internal error occurred")
		} else {
			fmt.Fprintln(os.Stderr, d.String())
		}
	}
	if res.HasErrors() {
		os.Exit(1)
	}
	if checkOnly {
		return nil
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(res.JS), 0o644); err != nil {
			return err
		}
	} else {
		fmt.Print(res.JS)
	}

	if openAPIPath != "" {
		doc := openapi.Build(res.Graph, res.Checker, cfg.OpenAPI)
		data, err := openapi.Marshal(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(openAPIPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runFormat(input string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	var arena ast.Arena
	l := lexer.New(input, string(src))
	p := parser.New(input, l, &arena)
	prog := p.ParseProgram()
	for _, d := range p.Errors() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	if len(p.Errors()) > 0 {
		os.Exit(1)
	}
	fmt.Print(format.Program(prog))
	return nil
}
