package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"toolguard/internal/domain"
)

// maxSummaryLen caps the request text in a log line; longer summaries
// are truncated with an ellipsis.
const maxSummaryLen = 100

// Logger appends one line per decision to a plain text file. The file
// and its directory are created on first write. Logging failures are
// returned to the caller and never affect decisions.
type Logger struct {
	path string
}

// NewLogger returns a logger appending to path. The path should
// already be expanded; no further resolution happens here.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Record appends rec to the log file.
func (l *Logger) Record(rec domain.AuditRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open log file %s: %w", l.path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatRecord(rec)); err != nil {
		return fmt.Errorf("cannot write log file %s: %w", l.path, err)
	}
	return nil
}

// FormatRecord renders one record as a log line, newline included.
func FormatRecord(rec domain.AuditRecord) string {
	return fmt.Sprintf("[%s] %s %s: %s | %s\n",
		rec.Timestamp.Format(time.RFC3339),
		rec.Kind,
		strings.ToUpper(string(rec.Decision)),
		truncate(flatten(rec.Summary)),
		flatten(rec.Reason))
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func truncate(s string) string {
	if len(s) <= maxSummaryLen {
		return s
	}
	return s[:maxSummaryLen] + "..."
}

// Nop discards every record. Used when logging is disabled and for
// ad-hoc checks that should not count toward statistics.
type Nop struct{}

func (Nop) Record(domain.AuditRecord) error { return nil }
