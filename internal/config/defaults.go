package config

// Defaults returns the document used as the base for Load. The engine
// keeps no built-in rules: an empty document is a legitimate state
// (fully open in blocklist mode, fully closed for paths in whitelist
// mode). Starter rules come from `toolguard init` instead.
func Defaults() *Document {
	return &Document{
		Settings: Settings{
			Mode:    "blocklist",
			Logging: true,
			LogFile: "~/.toolguard/audit.log",
		},
	}
}

// StarterConfig is the commented patterns.yaml written by `toolguard init`.
// It must always parse and validate; config_test locks that in.
const StarterConfig = `# toolguard rule configuration
#
# Three rule categories, checked in this precedence order for path access:
#   safe_zones        always allow, override everything else
#   protected_paths   first match decides (level: block | read_only | allow)
#   settings.mode     fallback when nothing matched
# Shell commands are checked against dangerous_commands only, in both modes.
#
# Within a category the first matching rule wins, in the order listed here.
# Path patterns are globs (* within a segment, ** across segments, ~ for
# your home directory). Command patterns are regular expressions, matched
# anywhere in the command text.

settings:
  # blocklist: allow unless a rule blocks. whitelist: block path access
  # unless a safe zone allows.
  mode: blocklist
  logging: true
  log_file: ~/.toolguard/audit.log

dangerous_commands:
  - pattern: "rm -rf /"
    reason: "Recursive force delete from root"
  - pattern: "rm -rf ~"
    reason: "Recursive force delete of home directory"
  - pattern: "mkfs"
    reason: "Filesystem format command"
  - pattern: "dd .*of=/dev/"
    reason: "Raw write to a block device"
  - pattern: ":\\(\\)\\{.*:\\|:.*\\};:"
    reason: "Fork bomb"
  - pattern: "chmod (-R )?777 /"
    reason: "World-writable permissions on root"
  - pattern: "curl.*\\|.*sh"
    reason: "Piping a remote script into a shell"
  - pattern: "wget.*\\|.*sh"
    reason: "Piping a remote script into a shell"
  - pattern: "> ?/dev/sd"
    reason: "Overwriting a block device"

protected_paths:
  - pattern: "~/.ssh/**"
    level: block
    reason: "SSH keys and configuration"
  - pattern: "~/.aws/**"
    level: block
    reason: "AWS credentials"
  - pattern: "~/.gnupg/**"
    level: block
    reason: "GPG keyring"
  - pattern: "~/.kube/config"
    level: block
    reason: "Kubernetes cluster credentials"
  - pattern: "**/.env"
    level: block
    reason: "Environment secrets file"
  - pattern: "/etc/**"
    level: read_only
    reason: "System configuration"

safe_zones:
  - pattern: "/tmp/**"
    reason: "Scratch space"
`
