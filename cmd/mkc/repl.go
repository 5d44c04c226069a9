// ==============================================================================================
// FILE: cmd/mkc/repl.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: `mkc repl`, ported from the teacher's repl/repl.go loop shape
//          (bufio.Scanner, leading-dot commands, a LOGO banner) but driving
//          the compile pipeline instead of a tree-walking evaluator: there
//          is no runtime value to print per spec.md's design (Manaknight
//          compiles to JS, it does not execute), so each line is compiled
//          in isolation and its diagnostics or emitted JS are reported.
//          Styling moved to internal/replui (lipgloss instead of the
//          teacher's raw ANSI escape constants).
// ==============================================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manaknight/mkc/internal/driver"
	"github.com/manaknight/mkc/internal/replui"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive compile-and-report session",
	RunE: func(cmd *cobra.Command, args []string) error {
		runREPL(os.Stdin, os.Stdout)
		return nil
	},
}

func runREPL(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	debugMode := false

	dir, err := os.MkdirTemp("", "mkc-repl-")
	if err != nil {
		fmt.Fprintln(out, replui.RenderError("could not start REPL: %s", err))
		return
	}
	defer os.RemoveAll(dir)
	entry := filepath.Join(dir, "line.mk")

	fmt.Fprint(out, replui.RenderLogo())
	printReplHelp(out)

	for {
		fmt.Fprint(out, replui.RenderPrompt())
		if !scanner.Scan() {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch line {
			case ".exit":
				fmt.Fprintln(out, replui.RenderOK("Goodbye!"))
				return
			case ".clear":
				fmt.Fprintln(out, replui.RenderOK("Each line already compiles in isolation; nothing to reset."))
			case ".debug":
				debugMode = !debugMode
				status := "DISABLED"
				if debugMode {
					status = "ENABLED"
				}
				fmt.Fprintln(out, replui.RenderMuted("Debug mode %s", status))
			case ".help":
				printReplHelp(out)
			default:
				fmt.Fprintln(out, replui.RenderError("Unknown command: %s. Type .help for info.", line))
			}
			continue
		}

		if err := os.WriteFile(entry, []byte(line), 0o644); err != nil {
			fmt.Fprintln(out, replui.RenderError("could not write line: %s", err))
			continue
		}

		res := driver.Compile(entry, driver.Options{Root: dir, Verbose: debugMode})
		for _, d := range res.Diagnostics {
			fmt.Fprintln(out, replui.RenderError("%s", d.String()))
		}
		if res.HasErrors() {
			continue
		}
		if res.JS != "" {
			fmt.Fprintln(out, replui.RenderOK("%s", res.JS))
		}
	}
}

func printReplHelp(out io.Writer) {
	fmt.Fprintln(out, replui.RenderMuted("Commands:"))
	fmt.Fprintln(out, "  .exit   Quit the REPL")
	fmt.Fprintln(out, "  .clear  No-op — each line compiles independently")
	fmt.Fprintln(out, "  .debug  Toggle verbose pipeline logging")
	fmt.Fprintln(out, "  .help   Show this message")
	fmt.Fprintln(out)
}
