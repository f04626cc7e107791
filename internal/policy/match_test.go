package policy

import (
	"os"
	"path/filepath"
	"testing"
)

// --- MatchPath ---

func TestMatchPath_Globs(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cases := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"star within segment", "/var/log/*.log", "/var/log/app.log", true},
		{"star does not cross segments", "/var/log/*.log", "/var/log/sub/app.log", false},
		{"doublestar crosses segments", "/var/log/**", "/var/log/a/b/c.log", true},
		{"doublestar matches directory itself", "/var/log/**", "/var/log", true},
		{"question mark", "/tmp/file?.txt", "/tmp/file1.txt", true},
		{"tilde in pattern", "~/.ssh/**", "/home/tester/.ssh/id_rsa", true},
		{"tilde in candidate", "~/.ssh/**", "~/.ssh/config", true},
		{"anchored doublestar prefix", "**/.env", "/project/api/.env", true},
		{"env file only at exact name", "**/.env", "/project/api/.envrc", false},
		{"case sensitive", "/TMP/**", "/tmp/x", false},
		{"empty candidate never matches", "/tmp/**", "", false},
		{"dotdot resolved into match", "/tmp/**", "/tmp/../tmp/x", true},
		{"dotdot resolved out of match", "/tmp/**", "/tmp/../etc/passwd", false},
		{"no partial segment match", "/tmp/**", "/tmpfoo/x", false},
		{"invalid glob never matches", "[", "/tmp/x", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchPath(tc.pattern, tc.path); got != tc.want {
				t.Fatalf("MatchPath(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
			}
		})
	}
}

func TestMatchPath_EnvExpansionInPattern(t *testing.T) {
	t.Setenv("TEST_ZONE", "/srv/build")
	if !MatchPath("$TEST_ZONE/out/**", "/srv/build/out/a.bin") {
		t.Fatal("expected env-expanded pattern to match")
	}
}

// --- NormalizePath ---

func TestNormalizePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	if got := NormalizePath(""); got != "" {
		t.Fatalf("empty path should stay empty, got %q", got)
	}
	if got := NormalizePath("~/notes.txt"); got != "/home/tester/notes.txt" {
		t.Fatalf("expected tilde expansion, got %q", got)
	}
	if got := NormalizePath("/a/b/../c"); got != "/a/c" {
		t.Fatalf("expected cleaned path, got %q", got)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.ToSlash(filepath.Join(cwd, "rel.txt"))
	if got := NormalizePath("rel.txt"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

// --- MatchCommand ---

func TestMatchCommand(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		command string
		want    bool
	}{
		{"literal substring", "rm -rf /", "rm -rf /", true},
		{"unanchored match inside command", "rm -rf /", "sudo rm -rf / --no-preserve-root", true},
		{"regex wildcards", "dd .*of=/dev/", "dd if=backup.img of=/dev/sda", true},
		{"anchors respected", "^ls$", "ls -la", false},
		{"case sensitive by default", "RM -RF", "rm -rf /", false},
		{"inline case flag", "(?i)rm -rf", "RM -RF /", true},
		{"no match", "mkfs", "ls -la", false},
		{"invalid pattern never matches", "(", "(anything)", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchCommand(tc.pattern, tc.command); got != tc.want {
				t.Fatalf("MatchCommand(%q, %q) = %v, want %v", tc.pattern, tc.command, got, tc.want)
			}
		})
	}
}
