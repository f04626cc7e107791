package audit

import (
	"fmt"
	"os"
	"strings"
)

// Stats summarizes the decisions recorded in a log file.
type Stats struct {
	Total   int
	Allowed int
	Blocked int
}

// Tail returns the last n lines of the log file, oldest first. A
// missing file yields no lines and no error. n <= 0 returns every
// line.
func Tail(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read log file %s: %w", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// ReadStats scans the log file and counts allow and block lines. A
// missing file yields zero counts.
func ReadStats(path string) (Stats, error) {
	lines, err := Tail(path, 0)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, line := range lines {
		switch {
		case strings.Contains(line, " ALLOW:"):
			stats.Allowed++
		case strings.Contains(line, " BLOCK:"):
			stats.Blocked++
		default:
			continue
		}
		stats.Total++
	}
	return stats, nil
}
