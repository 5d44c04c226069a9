// ==============================================================================================
// FILE: internal/replui/replui.go
// ==============================================================================================
// PACKAGE: replui
// PURPOSE: The REPL's banner/prompt/output styling. Ported from
//          repl/repl.go's raw ANSI escape constants (PROMPT, LOGO,
//          Red/Green/Yellow/...) to lipgloss styles, the pack's idiomatic
//          replacement for hand-rolled ANSI codes (grounded in
//          AleutianLocal's pkg/ux/output.go). The REPL itself now drives
//          the compiler pipeline rather than a tree-walker (see
//          cmd/mkc's repl subcommand), so only the presentation layer
//          survives from the teacher.
// ==============================================================================================

package replui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const Prompt = "mkc> "

const Logo = `
┏━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┓
┃  Manaknight compiler REPL                          ┃
┃  Each line is compiled independently; diagnostics  ┃
┃  and emitted JS are reported, nothing is evaluated ┃
┗━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━┛
`

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54"))
)

func RenderPrompt() string { return promptStyle.Render(Prompt) }

func RenderLogo() string { return Logo }

func RenderError(format string, args ...any) string {
	return errorStyle.Render(fmt.Sprintf(format, args...))
}

func RenderOK(format string, args ...any) string {
	return okStyle.Render(fmt.Sprintf(format, args...))
}

func RenderMuted(format string, args ...any) string {
	return mutedStyle.Render(fmt.Sprintf(format, args...))
}
