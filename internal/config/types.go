package config

// Config represents the complete agentenv configuration
type Config struct {
	Python  PythonConfig  `yaml:"python"`
	Kernel  KernelConfig  `yaml:"kernel"`
	Secrets SecretsConfig `yaml:"secrets"`
	Install InstallConfig `yaml:"install"`
	Logging LoggingConfig `yaml:"logging"`
}

// PythonConfig pins the interpreter and environment location
type PythonConfig struct {
	// Version is the pinned interpreter feature version, e.g. "3.11".
	Version string `yaml:"version"`
	// EnvDir is the environment directory relative to the project root.
	EnvDir string `yaml:"env_dir"`
}

// KernelConfig controls notebook kernel registration
type KernelConfig struct {
	Register    bool   `yaml:"register"`
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
}

// SecretsConfig describes the secrets file this tool inspects but never writes
type SecretsConfig struct {
	File        string `yaml:"file"`
	Template    string `yaml:"template"`
	KeyName     string `yaml:"key_name"`
	Placeholder string `yaml:"placeholder"`
}

// InstallConfig controls the first-run dependency installation
type InstallConfig struct {
	UpgradePip bool     `yaml:"upgrade_pip"`
	Extras     []string `yaml:"extras"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
