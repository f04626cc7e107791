package main

import (
	"os"

	"toolguard/internal/hook"

	"github.com/spf13/cobra"
)

func hookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Evaluate one tool call from stdin (PreToolUse entry point)",
		Long: `Reads a tool-call payload (JSON with tool_name and tool_input) from stdin,
evaluates it against the rule file, and exits 0 to allow or 2 to block.
The block reason is written to stderr. Intended to be registered as a
PreToolUse hook, not run by hand; use 'toolguard check' for that.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if code := hook.Run(resolveConfigPath(), os.Stdin, os.Stderr, logger); code != hook.ExitAllow {
				os.Exit(code)
			}
		},
	}
}
