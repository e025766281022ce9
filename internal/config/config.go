package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"agentenv/internal/configdir"
)

const (
	userConfigFile    = "config.yaml"
	projectConfigFile = "agentenv.yaml"
)

// overlay mirrors Config for YAML parsing. Bool fields are pointers so a file
// that omits them does not clobber defaults during the merge.
type overlay struct {
	Python struct {
		Version string `yaml:"version"`
		EnvDir  string `yaml:"env_dir"`
	} `yaml:"python"`
	Kernel struct {
		Register    *bool  `yaml:"register"`
		Name        string `yaml:"name"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"kernel"`
	Secrets struct {
		File        string `yaml:"file"`
		Template    string `yaml:"template"`
		KeyName     string `yaml:"key_name"`
		Placeholder string `yaml:"placeholder"`
	} `yaml:"secrets"`
	Install struct {
		UpgradePip *bool    `yaml:"upgrade_pip"`
		Extras     []string `yaml:"extras"`
	} `yaml:"install"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load loads and merges configuration for a project directory.
// Priority: defaults < user config < project config.
func Load(projectDir string) (Config, error) {
	cfg := DefaultConfig()

	userPath := UserConfigPath()
	if err := mergeConfigFile(&cfg, userPath); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load user config: %w", err)
		}
		// Missing user config is fine; defaults apply.
	}

	projectPath := ProjectConfigPath(projectDir)
	if err := mergeConfigFile(&cfg, projectPath); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a specific file path
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeConfigFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// mergeConfigFile reads a YAML file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfig(cfg, &o)
	return nil
}

// mergeConfig merges set values from src into dst
func mergeConfig(dst *Config, src *overlay) {
	if src.Python.Version != "" {
		dst.Python.Version = src.Python.Version
	}
	if src.Python.EnvDir != "" {
		dst.Python.EnvDir = src.Python.EnvDir
	}

	if src.Kernel.Register != nil {
		dst.Kernel.Register = *src.Kernel.Register
	}
	if src.Kernel.Name != "" {
		dst.Kernel.Name = src.Kernel.Name
	}
	if src.Kernel.DisplayName != "" {
		dst.Kernel.DisplayName = src.Kernel.DisplayName
	}

	if src.Secrets.File != "" {
		dst.Secrets.File = src.Secrets.File
	}
	if src.Secrets.Template != "" {
		dst.Secrets.Template = src.Secrets.Template
	}
	if src.Secrets.KeyName != "" {
		dst.Secrets.KeyName = src.Secrets.KeyName
	}
	if src.Secrets.Placeholder != "" {
		dst.Secrets.Placeholder = src.Secrets.Placeholder
	}

	if src.Install.UpgradePip != nil {
		dst.Install.UpgradePip = *src.Install.UpgradePip
	}
	if src.Install.Extras != nil {
		dst.Install.Extras = src.Install.Extras
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), userConfigFile)
}

// ProjectConfigPath returns the path to a project's configuration file
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(projectDir, projectConfigFile)
}
