package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	doc := Defaults()
	if err := Validate(doc); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_InvalidMode(t *testing.T) {
	doc := Defaults()
	doc.Settings.Mode = "paranoid"
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestValidate_EmptyLogFile(t *testing.T) {
	doc := Defaults()
	doc.Settings.LogFile = ""
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for empty log_file")
	}
}

func TestValidate_EmptyPattern(t *testing.T) {
	doc := Defaults()
	doc.DangerousCommands = []RuleEntry{{Pattern: "   "}}
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for blank pattern")
	}

	doc = Defaults()
	doc.ProtectedPaths = []RuleEntry{{Pattern: ""}}
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}

func TestValidate_InvalidLevel(t *testing.T) {
	doc := Defaults()
	doc.ProtectedPaths = []RuleEntry{{Pattern: "/etc/**", Level: "forbidden"}}
	if err := Validate(doc); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestValidate_ValidLevels(t *testing.T) {
	for _, level := range []string{"", "block", "read_only", "allow"} {
		doc := Defaults()
		doc.ProtectedPaths = []RuleEntry{{Pattern: "/etc/**", Level: level}}
		if err := Validate(doc); err != nil {
			t.Fatalf("level %q should be valid: %v", level, err)
		}
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")

	original := Defaults()
	original.Settings.Mode = "whitelist"
	original.Settings.Logging = false
	original.ProtectedPaths = []RuleEntry{{Pattern: "~/.ssh/**", Level: "read_only", Reason: "SSH keys"}}
	original.DangerousCommands = []RuleEntry{{Pattern: "rm -rf /", Reason: "Recursive force delete from root"}}
	original.SafeZones = []RuleEntry{{Pattern: "/tmp/**", Reason: "Scratch space"}}

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Settings.Mode != "whitelist" {
		t.Fatalf("expected mode 'whitelist', got %q", loaded.Settings.Mode)
	}
	if loaded.Settings.Logging {
		t.Fatal("expected logging=false to survive the round trip")
	}
	p := loaded.ProtectedPaths[0]
	if p.Pattern != "~/.ssh/**" || p.Level != "read_only" || p.Reason != "SSH keys" {
		t.Fatalf("protected path mangled: %+v", p)
	}
	d := loaded.DangerousCommands[0]
	if d.Pattern != "rm -rf /" || d.Reason != "Recursive force delete from root" {
		t.Fatalf("dangerous command mangled: %+v", d)
	}
	if loaded.SafeZones[0].Pattern != "/tmp/**" {
		t.Fatalf("safe zone mangled: %+v", loaded.SafeZones[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/patterns.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("settings: ["), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	os.WriteFile(path, []byte(""), 0o644)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if doc.Settings.Mode != "blocklist" {
		t.Fatalf("expected default mode 'blocklist', got %q", doc.Settings.Mode)
	}
	if !doc.Settings.Logging {
		t.Fatal("expected logging enabled by default")
	}
	if len(doc.ProtectedPaths)+len(doc.DangerousCommands)+len(doc.SafeZones) != 0 {
		t.Fatal("expected no rules")
	}
}

func TestLoad_LoggingDefaultsOn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	os.WriteFile(path, []byte("settings:\n  mode: blocklist\n"), 0o644)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !doc.Settings.Logging {
		t.Fatal("logging should default to true when omitted")
	}
}

func TestLoad_LevelDefaultsToBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `protected_paths:
  - pattern: "/etc/**"
safe_zones:
  - pattern: "/tmp/**"
`
	os.WriteFile(path, []byte(content), 0o644)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.ProtectedPaths[0].Level != "block" {
		t.Fatalf("expected protected level 'block', got %q", doc.ProtectedPaths[0].Level)
	}
	if doc.SafeZones[0].Level != "" {
		t.Fatalf("safe zone level should stay as written, got %q", doc.SafeZones[0].Level)
	}
}

func TestLoad_UnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `settings:
  mode: blocklist
future_section:
  - whatever: 42
`
	os.WriteFile(path, []byte(content), 0o644)

	if _, err := Load(path); err != nil {
		t.Fatalf("unknown top-level keys should be ignored: %v", err)
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	os.WriteFile(path, []byte("settings:\n  mode: banana\n"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_GUARD_LOG", "/tmp/test-guard/audit.log")

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `settings:
  mode: blocklist
  log_file: ${TEST_GUARD_LOG}
`
	os.WriteFile(path, []byte(content), 0o644)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Settings.LogFile != "/tmp/test-guard/audit.log" {
		t.Fatalf("expected expanded log_file, got %q", doc.Settings.LogFile)
	}
}

// --- Starter config ---

func TestStarterConfig_LoadsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte(StarterConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("starter config must load: %v", err)
	}
	if doc.Settings.Mode != "blocklist" || !doc.Settings.Logging {
		t.Fatalf("unexpected starter settings: %+v", doc.Settings)
	}
	if len(doc.DangerousCommands) == 0 || len(doc.ProtectedPaths) == 0 || len(doc.SafeZones) == 0 {
		t.Fatal("starter config should populate every category")
	}
	readOnly := false
	for _, r := range doc.ProtectedPaths {
		if r.Pattern == "/etc/**" && r.Level == "read_only" {
			readOnly = true
		}
	}
	if !readOnly {
		t.Fatal("starter config should keep /etc/** read_only")
	}
}

// --- Accessor ---

func TestGetByPath_ValidPaths(t *testing.T) {
	doc := Defaults()

	val, err := GetByPath(doc, "settings.mode")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "blocklist" {
		t.Fatalf("expected 'blocklist', got %v", val)
	}
}

func TestGetByPath_ListIndex(t *testing.T) {
	doc := Defaults()
	doc.ProtectedPaths = []RuleEntry{{Pattern: "~/.ssh/**", Level: "block"}}

	val, err := GetByPath(doc, "protected_paths.0.pattern")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "~/.ssh/**" {
		t.Fatalf("expected '~/.ssh/**', got %v", val)
	}

	if _, err := GetByPath(doc, "protected_paths.5.pattern"); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestGetByPath_InvalidPath(t *testing.T) {
	doc := Defaults()
	_, err := GetByPath(doc, "nonexistent.path")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestSetByPath_ValidPath(t *testing.T) {
	doc := Defaults()
	if err := SetByPath(doc, "settings.mode", "whitelist"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if doc.Settings.Mode != "whitelist" {
		t.Fatalf("expected 'whitelist', got %q", doc.Settings.Mode)
	}
}

func TestSetByPath_BoolConversion(t *testing.T) {
	doc := Defaults()
	if err := SetByPath(doc, "settings.logging", "false"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if doc.Settings.Logging {
		t.Fatal("expected settings.logging=false")
	}
}

// --- ListPaths ---

func TestListPaths_ReturnsAllLeaves(t *testing.T) {
	doc := Defaults()
	paths := ListPaths(doc)
	if len(paths) == 0 {
		t.Fatal("expected non-empty paths")
	}

	for _, expected := range []string{"settings.mode", "settings.logging", "settings.log_file"} {
		if _, ok := paths[expected]; !ok {
			t.Errorf("missing expected path: %s", expected)
		}
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_SimpleSubstitution(t *testing.T) {
	t.Setenv("TEST_GUARD_DIR", "/srv/project")
	result := ExpandEnvVars(`pattern: "${TEST_GUARD_DIR}/secrets/**"`)
	expected := `pattern: "/srv/project/secrets/**"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	os.Unsetenv("NONEXISTENT_VAR_12345")
	result := ExpandEnvVars(`log_file: ${NONEXISTENT_VAR_12345:-/tmp/audit.log}`)
	expected := `log_file: /tmp/audit.log`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_SetVarOverridesDefault(t *testing.T) {
	t.Setenv("GUARD_MODE", "whitelist")
	result := ExpandEnvVars(`mode: ${GUARD_MODE:-blocklist}`)
	expected := `mode: whitelist`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VAR_XYZ")
	result := ExpandEnvVars(`"${TOTALLY_UNSET_VAR_XYZ}"`)
	expected := `"${TOTALLY_UNSET_VAR_XYZ}"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")
	result := ExpandEnvVars(`"${EMPTY_VAR:-fallback}"`)
	expected := `"fallback"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DollarSignWithoutBraces(t *testing.T) {
	input := `"$HOME is not substituted"`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change for bare $VAR, got %q", result)
	}
}

// --- ExpandPath ---

func TestExpandPath_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~"); got != home {
		t.Fatalf("expected %q, got %q", home, got)
	}
	if got := ExpandPath("~/x"); got != filepath.Join(home, "x") {
		t.Fatalf("expected %q, got %q", filepath.Join(home, "x"), got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path should be untouched, got %q", got)
	}
}

// --- ResolveConfigPath ---

func TestResolveConfigPath_ExplicitWins(t *testing.T) {
	if got := ResolveConfigPath("/etc/guard/patterns.yaml"); got != "/etc/guard/patterns.yaml" {
		t.Fatalf("explicit path should win, got %q", got)
	}
}

// --- Defaults ---

func TestDefaults_ReturnsValidConfig(t *testing.T) {
	doc := Defaults()
	if doc == nil {
		t.Fatal("defaults returned nil")
	}
	if err := Validate(doc); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if doc.Settings.Mode != "blocklist" {
		t.Fatalf("default mode should be 'blocklist', got %q", doc.Settings.Mode)
	}
	if !doc.Settings.Logging {
		t.Fatal("logging should be on by default")
	}
}
