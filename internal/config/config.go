package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk rule configuration: global settings plus the
// three ordered rule lists. Unknown top-level keys are ignored.
type Document struct {
	Settings          Settings    `yaml:"settings"`
	ProtectedPaths    []RuleEntry `yaml:"protected_paths"`
	DangerousCommands []RuleEntry `yaml:"dangerous_commands"`
	SafeZones         []RuleEntry `yaml:"safe_zones"`
}

// Settings are the process-wide options.
type Settings struct {
	Mode    string `yaml:"mode"`     // "blocklist" | "whitelist"
	Logging bool   `yaml:"logging"`  // write audit records
	LogFile string `yaml:"log_file"` // audit log location
}

// RuleEntry is a single configured pattern. Level applies to path rules
// only and defaults to "block" when omitted.
type RuleEntry struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level,omitempty"`
	Reason  string `yaml:"reason,omitempty"`
}

// DefaultConfigDir returns the default config directory (~/.toolguard).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolguard"
	}
	return filepath.Join(home, ".toolguard")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "patterns.yaml")
}

func DefaultLogPath() string {
	return filepath.Join(DefaultConfigDir(), "audit.log")
}

// ResolveConfigPath picks the config file for this invocation: the
// explicit path when given, else a patterns.yaml next to the binary
// (config/patterns.yaml relative to the executable), else the default.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if exe, err := os.Executable(); err == nil {
		adjacent := filepath.Join(filepath.Dir(exe), "config", "patterns.yaml")
		if _, err := os.Stat(adjacent); err == nil {
			return adjacent
		}
	}
	return DefaultConfigPath()
}

func Load(path string) (*Document, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	doc := Defaults()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	normalize(doc)

	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return doc, nil
}

// normalize applies documented field defaults: protected paths without
// a level get "block". Safe zones always allow, so their level is left
// as written. Patterns and reasons are never touched, so Save
// round-trips them exactly.
func normalize(doc *Document) {
	for i := range doc.ProtectedPaths {
		if doc.ProtectedPaths[i].Level == "" {
			doc.ProtectedPaths[i].Level = "block"
		}
	}
}

// Save writes the document atomically. The guard and the status surface
// share this file across processes, so partial writes are never visible.
func Save(path string, doc *Document) error {
	path = ExpandPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the document has valid values.
func Validate(doc *Document) error {
	var errs []string

	switch doc.Settings.Mode {
	case "blocklist", "whitelist":
		// valid
	default:
		errs = append(errs, fmt.Sprintf("settings.mode must be one of: blocklist, whitelist (got %q)", doc.Settings.Mode))
	}
	if doc.Settings.LogFile == "" {
		errs = append(errs, "settings.log_file must not be empty")
	}

	validateRules(&errs, "protected_paths", doc.ProtectedPaths, true)
	validateRules(&errs, "dangerous_commands", doc.DangerousCommands, false)
	validateRules(&errs, "safe_zones", doc.SafeZones, true)

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateRules(errs *[]string, section string, rules []RuleEntry, pathRule bool) {
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			*errs = append(*errs, fmt.Sprintf("%s[%d]: pattern must be a non-empty string", section, i))
		}
		if !pathRule {
			continue
		}
		switch r.Level {
		case "", "block", "read_only", "allow":
			// valid
		default:
			*errs = append(*errs, fmt.Sprintf("%s[%d]: level must be one of: block, read_only, allow (got %q)", section, i, r.Level))
		}
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

// ExpandPath resolves a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
