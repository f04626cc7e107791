package domain

import "time"

// Mode is the guard's default posture for path access when no rule matches.
type Mode string

const (
	ModeBlocklist Mode = "blocklist"
	ModeWhitelist Mode = "whitelist"
)

// Decision is the outcome of evaluating a single request.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionBlock Decision = "block"
)

// Category identifies which rule list a rule came from.
type Category string

const (
	CategoryDangerousCommand Category = "dangerous_command"
	CategoryProtectedPath    Category = "protected_path"
	CategorySafeZone         Category = "safe_zone"
)

// Level is the effect of a matching path rule.
type Level string

const (
	LevelBlock    Level = "block"
	LevelReadOnly Level = "read_only"
	LevelAllow    Level = "allow"
)

// AccessMode distinguishes reads from writes in access requests.
type AccessMode string

const (
	AccessRead  AccessMode = "read"
	AccessWrite AccessMode = "write"
)

// Rule is one configured pattern plus its category and effect.
// Rules are immutable once loaded; order within a category is the
// order they appear in configuration.
type Rule struct {
	Pattern  string
	Category Category
	Level    Level
	Reason   string
}

// Request is a single evaluation unit: a shell command or a path access.
type Request interface {
	// Kind is the request's tag in the audit log (COMMAND, READ, WRITE).
	Kind() string
	// Summary is the text logged for this request.
	Summary() string
}

// CommandRequest asks whether a shell command may run.
type CommandRequest struct {
	Command string
}

func (r CommandRequest) Kind() string    { return "COMMAND" }
func (r CommandRequest) Summary() string { return r.Command }

// AccessRequest asks whether a filesystem path may be read or written.
type AccessRequest struct {
	Path string
	Mode AccessMode
}

func (r AccessRequest) Kind() string {
	if r.Mode == AccessRead {
		return "READ"
	}
	return "WRITE"
}

func (r AccessRequest) Summary() string { return r.Path }

// Verdict is the result of evaluating one request.
type Verdict struct {
	Decision Decision
	Reason   string
	// Rule references the rule that decided the outcome. Nil when a
	// mode default applied.
	Rule *Rule
}

func (v Verdict) Allowed() bool { return v.Decision == DecisionAllow }

// AuditRecord is one decision, as written to the audit log.
type AuditRecord struct {
	Timestamp time.Time
	Kind      string
	Summary   string
	Decision  Decision
	Reason    string
}
