package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"toolguard/internal/audit"
	"toolguard/internal/config"
	"toolguard/internal/domain"
	"toolguard/internal/policy"
)

// Exit codes reported to the host. The host treats 0 as allow and a
// non-zero status as block, surfacing the stderr text as the reason.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// Payload is the tool-call description the host writes to stdin.
// Fields beyond these two are ignored.
type Payload struct {
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
}

var commandTools = map[string]bool{
	"Bash": true,
}

var writeTools = map[string]bool{
	"Edit":         true,
	"Write":        true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// pathKeys lists the tool_input fields checked, in order, for the
// target path of a file-write tool.
var pathKeys = []string{"file_path", "path", "notebook_path", "target", "file"}

// Run evaluates one tool-call payload read from stdin and returns the
// process exit code, writing the block reason to stderr when the call
// is denied. Configuration or payload failures block: the guard never
// waves a call through because it could not evaluate it.
func Run(cfgPath string, stdin io.Reader, stderr io.Writer, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("cannot load configuration", "path", cfgPath, "error", err)
		return block(stderr, "policy evaluation failed, blocking by default")
	}

	var payload Payload
	if err := json.NewDecoder(stdin).Decode(&payload); err != nil {
		logger.Error("cannot decode tool payload", "error", err)
		return block(stderr, "policy evaluation failed, blocking by default")
	}
	input := map[string]any{}
	if len(payload.ToolInput) > 0 {
		if err := json.Unmarshal(payload.ToolInput, &input); err != nil {
			logger.Error("cannot decode tool input", "tool", payload.ToolName, "error", err)
			return block(stderr, "policy evaluation failed, blocking by default")
		}
	}

	var req domain.Request
	switch {
	case commandTools[payload.ToolName]:
		cmd, _ := input["command"].(string)
		req = domain.CommandRequest{Command: cmd}
	case writeTools[payload.ToolName]:
		req = domain.AccessRequest{Path: targetPath(input), Mode: domain.AccessWrite}
	default:
		logger.Error("unsupported tool", "tool", payload.ToolName)
		return block(stderr, fmt.Sprintf("unsupported tool %q, blocking by default", payload.ToolName))
	}

	var sink policy.AuditSink
	if doc.Settings.Logging {
		sink = audit.NewLogger(config.ExpandPath(doc.Settings.LogFile))
	}
	engine := policy.NewEngine(doc, sink, logger)
	verdict := engine.Evaluate(req)
	if verdict.Allowed() {
		return ExitAllow
	}
	return block(stderr, verdict.Reason)
}

// targetPath extracts the path a file-write tool is about to touch.
// Tools name the field differently, so the known keys are tried in
// order.
func targetPath(input map[string]any) string {
	for _, key := range pathKeys {
		if v, ok := input[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func block(stderr io.Writer, reason string) int {
	fmt.Fprintf(stderr, "[toolguard] %s\n", reason)
	return ExitBlock
}
