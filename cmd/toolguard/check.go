package main

import (
	"fmt"
	"os"
	"strings"

	"toolguard/internal/audit"
	"toolguard/internal/config"
	"toolguard/internal/domain"
	"toolguard/internal/hook"
	"toolguard/internal/policy"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run a command or path against the current rules",
		Long: `Evaluates a command or path exactly as the hook would, but prints the
verdict instead of signalling the host, and records nothing in the audit
log. Exits 2 on a block verdict so the result is scriptable.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "command [cmd...]",
		Short: "Check a shell command (e.g. check command rm -rf /)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := checkEngine()
			if err != nil {
				return err
			}
			printVerdict(engine.Evaluate(domain.CommandRequest{Command: strings.Join(args, " ")}))
			return nil
		},
	})

	var read bool
	pathCmd := &cobra.Command{
		Use:   "path [path]",
		Short: "Check a file write (or read, with --read)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := checkEngine()
			if err != nil {
				return err
			}
			mode := domain.AccessWrite
			if read {
				mode = domain.AccessRead
			}
			printVerdict(engine.Evaluate(domain.AccessRequest{Path: args[0], Mode: mode}))
			return nil
		},
	}
	pathCmd.Flags().BoolVar(&read, "read", false, "check read access instead of write")
	cmd.AddCommand(pathCmd)

	return cmd
}

func checkEngine() (*policy.Engine, error) {
	cfgPath := resolveConfigPath()
	doc, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return policy.NewEngine(doc, audit.Nop{}, logger), nil
}

func printVerdict(verdict domain.Verdict) {
	if verdict.Allowed() {
		fmt.Printf("%s %s\n", color.GreenString("ALLOW"), verdict.Reason)
		return
	}
	fmt.Printf("%s %s\n", color.RedString("BLOCK"), verdict.Reason)
	if verdict.Rule != nil {
		fmt.Printf("  rule: %s %q\n", verdict.Rule.Category, verdict.Rule.Pattern)
	}
	os.Exit(hook.ExitBlock)
}
