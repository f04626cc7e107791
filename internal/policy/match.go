package policy

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchPath reports whether a candidate path matches a glob rule
// pattern. `*` matches within a path segment, `**` across segments,
// `?` a single non-separator character. A leading ~ and ${VAR}
// references in the pattern are expanded before matching. The candidate
// is normalized to an absolute, textually clean path; symlinks are not
// resolved. Matching is case-sensitive. An empty candidate never
// matches.
func MatchPath(pattern, path string) bool {
	glob := CompileGlob(pattern)
	if glob == "" {
		return false
	}
	return matchGlob(glob, NormalizePath(path))
}

// CompileGlob expands and validates a path rule pattern, returning the
// slash-normalized glob ready for matchGlob. Returns "" when the
// pattern is empty or not a valid glob.
func CompileGlob(pattern string) string {
	if pattern == "" {
		return ""
	}
	glob := filepath.ToSlash(expandUser(os.ExpandEnv(pattern)))
	if !doublestar.ValidatePattern(glob) {
		return ""
	}
	return glob
}

// matchGlob runs a pre-compiled glob against a normalized candidate.
// A pattern ending in /** also matches the directory itself.
func matchGlob(glob, path string) bool {
	if path == "" {
		return false
	}
	if ok, _ := doublestar.PathMatch(glob, path); ok {
		return true
	}
	if dir, found := strings.CutSuffix(glob, "/**"); found && dir != "" {
		if ok, _ := doublestar.PathMatch(dir, path); ok {
			return true
		}
	}
	return false
}

// NormalizePath expands ~ and environment variables in a candidate path
// and resolves it to an absolute, cleaned form. An empty path stays
// empty.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	p := expandUser(os.ExpandEnv(path))
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(p)
}

// MatchCommand reports whether a dangerous-command pattern matches the
// command text. The pattern is a regular expression searched anywhere
// in the string; the command is never tokenized. Invalid patterns never
// match.
func MatchCommand(pattern, command string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(command)
}

// expandUser resolves a leading ~ to the current user's home directory.
func expandUser(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
