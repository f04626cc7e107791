package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolguard/internal/config"
	"toolguard/internal/domain"
	"toolguard/internal/policy"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your Toolguard installation",
		Long: `Verifies that the rule file parses, every pattern compiles, the audit log
is writable, and the hook is registered. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("Toolguard Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Rule file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Rule file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'toolguard init' to create a starter rule file.\n")
				return nil
			}
			printPass("Rule file", cfgPath)
			passed++

			// 2. Rule file loads and validates
			doc, err := config.Load(cfgPath)
			if err != nil {
				printFail("Validation", err.Error())
				failed++
				fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
				fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
				fmt.Printf("\nThe hook blocks every tool call until the rule file loads.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			printPass("Validation", "valid")
			passed++

			// 3. Patterns compile
			engine := policy.NewEngine(doc, nil, logger)
			for _, skipped := range engine.SkippedRules() {
				printWarn("Pattern", fmt.Sprintf("%s %q: %v", skipped.Rule.Category, skipped.Rule.Pattern, skipped.Err))
				warned++
			}
			total := engine.ActiveRules(domain.CategoryDangerousCommand) +
				engine.ActiveRules(domain.CategoryProtectedPath) +
				engine.ActiveRules(domain.CategorySafeZone)
			if total == 0 {
				printWarn("Rules", "no rules configured")
				warned++
			} else {
				printPass("Rules", fmt.Sprintf("%d active", total))
				passed++
			}

			// 4. Mode sanity
			if doc.Settings.Mode == string(domain.ModeWhitelist) && engine.ActiveRules(domain.CategorySafeZone) == 0 {
				printWarn("Mode", "whitelist with no safe zones blocks every path access")
				warned++
			} else {
				printPass("Mode", doc.Settings.Mode)
				passed++
			}

			// 5. Audit log writable
			if !doc.Settings.Logging {
				printWarn("Audit log", "logging disabled")
				warned++
			} else {
				logPath := config.ExpandPath(doc.Settings.LogFile)
				if err := checkLogWritable(logPath); err != nil {
					printFail("Audit log", err.Error())
					failed++
				} else {
					printPass("Audit log", logPath)
					passed++
				}
			}

			// 6. Hook registration
			if detail, ok := checkHookRegistered(); ok {
				printPass("Hook", detail)
				passed++
			} else {
				printWarn("Hook", detail)
				warned++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before relying on the guard.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nToolguard should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! Toolguard is ready.\n")
			}
			return nil
		},
	}
}

// checkLogWritable opens the audit log in append mode, creating it and
// its directory the same way the hook would.
func checkLogWritable(logPath string) error {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	return f.Close()
}

// checkHookRegistered looks for a toolguard reference in the host's
// hook settings. Best-effort: the settings file may configure hooks in
// ways this does not parse.
func checkHookRegistered() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cannot resolve home directory", false
	}
	settingsPath := filepath.Join(home, ".claude", "settings.json")
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return fmt.Sprintf("no settings found at %s (hook not registered?)", settingsPath), false
	}
	if !strings.Contains(string(data), "toolguard") {
		return "toolguard not referenced in " + settingsPath, false
	}
	return "registered in " + settingsPath, true
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-12s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-12s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-12s %s\n", check, detail)
}
