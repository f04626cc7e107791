package policy

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"toolguard/internal/config"
	"toolguard/internal/domain"
)

// AuditSink receives one record per evaluated request. A nil sink
// disables auditing without changing decisions.
type AuditSink interface {
	Record(rec domain.AuditRecord) error
}

// SkippedRule is a configured rule whose pattern failed to compile.
// Skipped rules never match; they are reported by doctor and status.
type SkippedRule struct {
	Rule domain.Rule
	Err  error
}

type commandRule struct {
	rule   domain.Rule
	re     *regexp.Regexp
	reason string
}

type pathRule struct {
	rule   domain.Rule
	glob   string
	level  domain.Level
	reason string
}

// Engine evaluates requests against a compiled rule set. Evaluation
// order for path access is safe zones, then protected paths, then the
// mode default; within a list the first match wins. Dangerous command
// rules apply in both modes.
type Engine struct {
	mode      domain.Mode
	commands  []commandRule
	safeZones []pathRule
	protected []pathRule
	skipped   []SkippedRule
	audit     AuditSink
	logger    *slog.Logger
}

// NewEngine compiles the rules in doc into an evaluator. Rules whose
// pattern does not compile are skipped with a warning; the remaining
// rules stay in effect. doc must already be validated.
func NewEngine(doc *config.Document, audit AuditSink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		mode:   domain.Mode(doc.Settings.Mode),
		audit:  audit,
		logger: logger,
	}
	for _, entry := range doc.DangerousCommands {
		rule := domain.Rule{
			Pattern:  entry.Pattern,
			Category: domain.CategoryDangerousCommand,
			Reason:   entry.Reason,
		}
		re, err := regexp.Compile(entry.Pattern)
		if err != nil {
			e.skip(rule, err)
			continue
		}
		reason := entry.Reason
		if reason == "" {
			reason = "Matches dangerous command pattern"
		}
		e.commands = append(e.commands, commandRule{rule: rule, re: re, reason: reason})
	}
	e.safeZones = e.compilePaths(doc.SafeZones, domain.CategorySafeZone)
	e.protected = e.compilePaths(doc.ProtectedPaths, domain.CategoryProtectedPath)
	return e
}

func (e *Engine) compilePaths(entries []config.RuleEntry, cat domain.Category) []pathRule {
	rules := make([]pathRule, 0, len(entries))
	for _, entry := range entries {
		rule := domain.Rule{
			Pattern:  entry.Pattern,
			Category: cat,
			Level:    domain.Level(entry.Level),
			Reason:   entry.Reason,
		}
		glob := CompileGlob(entry.Pattern)
		if glob == "" {
			e.skip(rule, fmt.Errorf("invalid glob pattern %q", entry.Pattern))
			continue
		}
		reason := entry.Reason
		if reason == "" {
			if cat == domain.CategorySafeZone {
				reason = fmt.Sprintf("Path in safe zone: %s", entry.Pattern)
			} else {
				reason = fmt.Sprintf("Path matches protected pattern: %s", entry.Pattern)
			}
		}
		rules = append(rules, pathRule{rule: rule, glob: glob, level: rule.Level, reason: reason})
	}
	return rules
}

func (e *Engine) skip(rule domain.Rule, err error) {
	e.skipped = append(e.skipped, SkippedRule{Rule: rule, Err: err})
	e.logger.Warn("skipping rule with invalid pattern",
		"category", string(rule.Category),
		"pattern", rule.Pattern,
		"error", err)
}

// Evaluate decides one request and records the outcome in the audit
// sink. It never returns an error; anything it cannot classify is
// blocked.
func (e *Engine) Evaluate(req domain.Request) domain.Verdict {
	var verdict domain.Verdict
	switch r := req.(type) {
	case domain.CommandRequest:
		verdict = e.evaluateCommand(r)
	case domain.AccessRequest:
		verdict = e.evaluateAccess(r)
	default:
		verdict = domain.Verdict{Decision: domain.DecisionBlock, Reason: "unsupported request type"}
	}
	e.record(req, verdict)
	return verdict
}

func (e *Engine) evaluateCommand(req domain.CommandRequest) domain.Verdict {
	if req.Command == "" {
		return domain.Verdict{Decision: domain.DecisionAllow, Reason: "empty command"}
	}
	for i := range e.commands {
		r := &e.commands[i]
		if r.re.MatchString(req.Command) {
			return domain.Verdict{Decision: domain.DecisionBlock, Reason: r.reason, Rule: &r.rule}
		}
	}
	return domain.Verdict{Decision: domain.DecisionAllow, Reason: "command passed security checks"}
}

func (e *Engine) evaluateAccess(req domain.AccessRequest) domain.Verdict {
	path := NormalizePath(req.Path)
	for i := range e.safeZones {
		r := &e.safeZones[i]
		if matchGlob(r.glob, path) {
			return domain.Verdict{Decision: domain.DecisionAllow, Reason: r.reason, Rule: &r.rule}
		}
	}
	for i := range e.protected {
		r := &e.protected[i]
		if !matchGlob(r.glob, path) {
			continue
		}
		switch r.level {
		case domain.LevelAllow:
			return domain.Verdict{Decision: domain.DecisionAllow, Reason: r.reason, Rule: &r.rule}
		case domain.LevelReadOnly:
			if req.Mode == domain.AccessRead {
				return domain.Verdict{Decision: domain.DecisionAllow, Reason: "read-only path, read access permitted", Rule: &r.rule}
			}
			return domain.Verdict{Decision: domain.DecisionBlock, Reason: r.reason, Rule: &r.rule}
		default:
			return domain.Verdict{Decision: domain.DecisionBlock, Reason: r.reason, Rule: &r.rule}
		}
	}
	if e.mode == domain.ModeWhitelist {
		return domain.Verdict{Decision: domain.DecisionBlock, Reason: "not in an explicit safe zone"}
	}
	return domain.Verdict{Decision: domain.DecisionAllow, Reason: "no matching restriction"}
}

func (e *Engine) record(req domain.Request, verdict domain.Verdict) {
	if e.audit == nil {
		return
	}
	rec := domain.AuditRecord{
		Timestamp: time.Now(),
		Kind:      req.Kind(),
		Summary:   req.Summary(),
		Decision:  verdict.Decision,
		Reason:    verdict.Reason,
	}
	if err := e.audit.Record(rec); err != nil {
		e.logger.Warn("audit record failed", "error", err)
	}
}

// Mode reports the engine's fallback posture.
func (e *Engine) Mode() domain.Mode { return e.mode }

// ActiveRules reports how many rules of a category compiled and are in
// effect.
func (e *Engine) ActiveRules(cat domain.Category) int {
	switch cat {
	case domain.CategoryDangerousCommand:
		return len(e.commands)
	case domain.CategorySafeZone:
		return len(e.safeZones)
	default:
		return len(e.protected)
	}
}

// SkippedRules reports the rules dropped at compile time.
func (e *Engine) SkippedRules() []SkippedRule { return e.skipped }
