package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"toolguard/internal/audit"
	"toolguard/internal/config"
	"toolguard/internal/domain"
	"toolguard/internal/policy"

	"github.com/fatih/color"
	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "toolguard",
		Short: "Toolguard: pre-execution guard for coding agent tool calls",
		Long: `Toolguard screens shell commands and file writes issued by a coding agent
against configurable rules before they run. Registered as a PreToolUse hook,
it exits 0 to allow a tool call and 2 to block it, with the reason on stderr.`,
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to patterns.yaml (default: ~/.toolguard/patterns.yaml)")

	root.AddCommand(hookCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(initCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(logsCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(backupCmd())
	root.AddCommand(restoreCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter rule file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return fmt.Errorf("cannot create config directory: %w", err)
			}
			if err := renameio.WriteFile(cfgPath, []byte(config.StarterConfig), 0o644); err != nil {
				return fmt.Errorf("cannot write config file: %w", err)
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing rule file")
	return cmd
}

// resolveConfigPath returns the config path from the --config flag, a
// config/patterns.yaml next to the executable, or the default.
func resolveConfigPath() string {
	return config.ResolveConfigPath(configPath)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active rules, mode, and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			doc, err := config.Load(cfgPath)
			if err != nil {
				logger.Warn("config not loaded, showing defaults", "path", cfgPath, "err", err)
				doc = config.Defaults()
			}
			engine := policy.NewEngine(doc, nil, logger)
			logPath := config.ExpandPath(doc.Settings.LogFile)

			fmt.Printf("Config:   %s\n", cfgPath)
			fmt.Printf("Mode:     %s\n", doc.Settings.Mode)
			if doc.Settings.Logging {
				fmt.Printf("Logging:  enabled -> %s\n", logPath)
			} else {
				fmt.Printf("Logging:  disabled\n")
			}

			fmt.Println()
			fmt.Println("Rules:")
			fmt.Printf("  dangerous commands  %d\n", engine.ActiveRules(domain.CategoryDangerousCommand))
			fmt.Printf("  protected paths     %d\n", engine.ActiveRules(domain.CategoryProtectedPath))
			fmt.Printf("  safe zones          %d\n", engine.ActiveRules(domain.CategorySafeZone))
			if n := len(engine.SkippedRules()); n > 0 {
				fmt.Printf("  %s\n", color.YellowString("skipped             %d (invalid patterns, see 'toolguard doctor')", n))
			}

			stats, err := audit.ReadStats(logPath)
			if err != nil {
				logger.Warn("cannot read audit log", "path", logPath, "err", err)
			}
			fmt.Println()
			fmt.Printf("Activity: %d decisions (%s allowed, %s blocked)\n",
				stats.Total,
				color.GreenString("%d", stats.Allowed),
				color.RedString("%d", stats.Blocked))
			return nil
		},
	}
}

func logsCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			doc, err := config.Load(cfgPath)
			if err != nil {
				logger.Warn("config not loaded, using defaults", "path", cfgPath, "err", err)
				doc = config.Defaults()
			}
			logPath := config.ExpandPath(doc.Settings.LogFile)
			entries, err := audit.Tail(logPath, lines)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no audit entries")
				return nil
			}
			for _, line := range entries {
				switch {
				case strings.Contains(line, " BLOCK:"):
					fmt.Println(color.RedString("%s", line))
				case strings.Contains(line, " ALLOW:"):
					fmt.Println(color.GreenString("%s", line))
				default:
					fmt.Println(line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify the rule file",
		Long:  "Get, set, and list configuration values. Changes are validated and saved to the rule file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. settings.mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(doc, args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(val)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. settings.mode whitelist)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			doc, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(doc, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Validate(doc); err != nil {
				return fmt.Errorf("rejected: %w", err)
			}
			if err := config.Save(cfgPath, doc); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			values := config.ListPaths(doc)
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s = %v\n", k, values[k])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show rule file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
