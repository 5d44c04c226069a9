// ==============================================================================================
// FILE: cmd/mkc/check.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: `mkc check <input>`, a named alias for `compile <input> -c`:
//          resolve/typecheck/infer-effects/check-exhaustiveness without
//          lowering, printing only diagnostics.
// ==============================================================================================

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/manaknight/mkc/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check <input>",
	Short: "Type-check and analyze without emitting JS",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		root := filepath.Dir(input)
		if cfg.Root != "" && cfg.Root != "." {
			root = cfg.Root
		}
		res := driver.Compile(input, driver.Options{Root: root, Verbose: verbose, CheckOnly: true})
		for _, d := range res.Diagnostics {
			fmt.Fprintln(os.Stderr, d.String())
		}
		if res.HasErrors() {
			os.Exit(1)
		}
		fmt.Println("ok")
		return nil
	},
}
