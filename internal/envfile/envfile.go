// Package envfile inspects dotenv-style secrets files without ever writing
// them. Classification is a pure function over file content so callers can
// branch on the result and keep printing concerns elsewhere.
package envfile

import (
	"bufio"
	"bytes"
	"os"
	"strings"
)

// State describes the readiness of a secrets file with respect to one key.
type State int

const (
	// StateAbsent means the file does not exist (or could not be read).
	StateAbsent State = iota
	// StatePlaceholder means the file exists but the key is missing, empty,
	// or still carries the template placeholder value.
	StatePlaceholder
	// StateConfigured means the key holds a real value.
	StateConfigured
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePlaceholder:
		return "placeholder"
	case StateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}

// Parse reads dotenv content into a key/value map. Blank lines and comments
// are skipped, an optional "export " prefix is accepted, values may be
// wrapped in single or double quotes, and the last assignment of a key wins.
func Parse(content []byte) map[string]string {
	vars := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = unquote(value)

		if key != "" {
			vars[key] = value
		}
	}

	return vars
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// Classify reports the state of key within existing file content. It never
// returns StateAbsent; the caller decides existence.
func Classify(content []byte, key, placeholder string) State {
	vars := Parse(content)

	value, ok := vars[key]
	if !ok || value == "" || value == placeholder {
		return StatePlaceholder
	}
	return StateConfigured
}

// Inspect stats and reads the secrets file at path and classifies it.
// A missing or unreadable file is reported as StateAbsent.
func Inspect(path, key, placeholder string) State {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return StateAbsent
	}
	return Classify(content, key, placeholder)
}
