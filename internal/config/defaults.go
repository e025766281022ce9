package config

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Python: PythonConfig{
			Version: "3.11",
			EnvDir:  ".venv",
		},
		Kernel: KernelConfig{
			Register:    true,
			Name:        "migration-agent",
			DisplayName: "Migration Agent (Python)",
		},
		Secrets: SecretsConfig{
			File:        ".env",
			Template:    ".env.example",
			KeyName:     "GEMINI_API_KEY",
			Placeholder: "your_api_key_here",
		},
		Install: InstallConfig{
			UpgradePip: true,
			Extras:     nil,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
