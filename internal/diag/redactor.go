package diag

import (
	"regexp"
)

// Redactor handles sensitive data redaction from text
type Redactor struct {
	patterns []redactionPattern
}

type redactionPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a new redactor with common secret patterns
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactionPattern{
			// Dotenv-style assignments of secret-bearing variables,
			// with or without an export prefix (must come first)
			{
				regex:       regexp.MustCompile(`(?m)^(\s*(?:export\s+)?[A-Z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD|PASSPHRASE)[A-Z0-9_]*)\s*=\s*.+$`),
				replacement: `${1}=[REDACTED]`,
			},
			// Google API keys, recognizable by their AIza prefix
			{
				regex:       regexp.MustCompile(`AIza[0-9A-Za-z_\-]{16,}`),
				replacement: `[REDACTED]`,
			},
			// API keys and tokens (capture any preceding character to preserve it)
			{
				regex:       regexp.MustCompile(`(?i)(^|[^A-Z_])(api[_-]?key|token|secret|password)\s*[:=]\s*["']?([^"'\s]+)["']?`),
				replacement: `${1}${2}: [REDACTED]`,
			},
			// YAML-style secrets
			{
				regex:       regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password):\s*(.+)`),
				replacement: `${1}: [REDACTED]`,
			},
			// Bearer tokens
			{
				regex:       regexp.MustCompile(`(?i)Bearer\s+([A-Za-z0-9_\-\.]+)`),
				replacement: `Bearer [REDACTED]`,
			},
			// Basic auth credentials
			{
				regex:       regexp.MustCompile(`(?i)Authorization:\s*Basic\s+([A-Za-z0-9+/=]+)`),
				replacement: `Authorization: Basic [REDACTED]`,
			},
			// Connection strings with passwords
			{
				regex:       regexp.MustCompile(`(?i)(postgres|mysql|mongodb)://([^:]+):([^@]+)@`),
				replacement: `$1://$2:[REDACTED]@`,
			},
		},
	}
}

// Redact applies all redaction patterns to the input text
func (r *Redactor) Redact(input string) string {
	result := input
	for _, pattern := range r.patterns {
		result = pattern.regex.ReplaceAllString(result, pattern.replacement)
	}
	return result
}
