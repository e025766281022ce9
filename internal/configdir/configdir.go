package configdir

import (
	"os"
	"path/filepath"
)

const fallbackConfigDir = "/etc/agentenv"

// ConfigDir resolves the configuration directory respecting overrides.
// Order: AGENTENV_CONFIG_DIR, then the user config dir (~/.config/agentenv),
// then the system fallback.
func ConfigDir() string {
	if env := os.Getenv("AGENTENV_CONFIG_DIR"); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "agentenv")
	}
	return fallbackConfigDir
}
