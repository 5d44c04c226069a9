// ==============================================================================================
// FILE: cmd/mkc/root.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: The cobra root command (spec.md §6's "thin collaborator" CLI
//          surface, made concrete). Grounded in AleutianLocal's
//          cmd/aleutian/main.go (cobra root + PersistentPreRun config
//          load) and the teacher's own main.go (script-mode vs REPL-mode
//          branch, now "compile a file" vs "start a REPL").
// ==============================================================================================

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manaknight/mkc/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "mkc",
	Short: "The Manaknight compiler",
	Long: `mkc lexes, parses, resolves, type-checks, infers effects, checks
exhaustiveness, and lowers Manaknight source to a restricted JS subset.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		loaded, err := config.Load(dir)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd, fmtCmd, checkCmd, replCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
