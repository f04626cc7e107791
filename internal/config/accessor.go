package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetByPath retrieves a document value by dot-notation path
// (e.g. "settings.mode" or "protected_paths.0.level").
func GetByPath(doc *Document, path string) (any, error) {
	m, err := toMap(doc)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(path, ".")
	var current any = m
	for _, key := range parts {
		switch v := current.(type) {
		case map[string]any:
			val, ok := v[key]
			if !ok {
				return nil, fmt.Errorf("key not found: %s", path)
			}
			current = val
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("invalid list index: %s", key)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot traverse into %T at %s", current, key)
		}
	}
	return current, nil
}

// SetByPath sets a document value by dot-notation path. String values
// are coerced to bool/int/float where they parse as one, so
// `config set settings.logging false` stores a real boolean.
func SetByPath(doc *Document, path string, value any) error {
	m, err := toMap(doc)
	if err != nil {
		return err
	}

	parts := strings.Split(path, ".")
	if len(parts) == 0 || parts[0] == "" {
		return fmt.Errorf("empty path")
	}

	parent := m
	for i := 0; i < len(parts)-1; i++ {
		child, ok := parent[parts[i]]
		if !ok {
			newMap := make(map[string]any)
			parent[parts[i]] = newMap
			parent = newMap
			continue
		}
		childMap, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot traverse into %T at %s", child, parts[i])
		}
		parent = childMap
	}

	parent[parts[len(parts)-1]] = parseValue(value)

	newData, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(newData, doc)
}

// parseValue tries to convert string values to appropriate Go types.
func parseValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

// ListPaths returns all settable settings paths with their current values.
func ListPaths(doc *Document) map[string]any {
	m, err := toMap(doc)
	if err != nil {
		return nil
	}
	result := make(map[string]any)
	flattenMap("", m, result)
	return result
}

func flattenMap(prefix string, m map[string]any, result map[string]any) {
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flattenMap(path, val, result)
		case []any:
			result[path] = fmt.Sprintf("(%d entries)", len(val))
		default:
			result[path] = val
		}
	}
}

// toMap round-trips the document through yaml into a generic map.
func toMap(doc *Document) (map[string]any, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
