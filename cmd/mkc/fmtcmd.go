// ==============================================================================================
// FILE: cmd/mkc/fmtcmd.go
// ==============================================================================================
// PACKAGE: main
// PURPOSE: `mkc fmt <input>`, a named alias for `compile <input> -f` (spec.md
//          §6 documents formatting as a compile flag; this subcommand just
//          makes the common case reachable without remembering the flag,
//          the way the teacher's main.go exposes both a one-shot script
//          mode and a REPL mode as separate top-level paths).
// ==============================================================================================

package main

import "github.com/spf13/cobra"

var fmtCmd = &cobra.Command{
	Use:   "fmt <input>",
	Short: "Print the canonically formatted source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormat(args[0])
	},
}
