package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePython()...)
	errors = append(errors, c.validateKernel()...)
	errors = append(errors, c.validateSecrets()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validatePython() []ValidationError {
	var errors []ValidationError

	if !versionPattern.MatchString(c.Python.Version) {
		errors = append(errors, ValidationError{
			Path:    "python.version",
			Message: fmt.Sprintf("must look like '3.11', got '%s'", c.Python.Version),
		})
	}

	switch {
	case c.Python.EnvDir == "":
		errors = append(errors, ValidationError{
			Path:    "python.env_dir",
			Message: "must not be empty",
		})
	case filepath.IsAbs(c.Python.EnvDir):
		errors = append(errors, ValidationError{
			Path:    "python.env_dir",
			Message: fmt.Sprintf("must be relative to the project root, got '%s'", c.Python.EnvDir),
		})
	case c.Python.EnvDir == "." || strings.HasPrefix(c.Python.EnvDir, ".."):
		errors = append(errors, ValidationError{
			Path:    "python.env_dir",
			Message: fmt.Sprintf("must name a directory inside the project, got '%s'", c.Python.EnvDir),
		})
	}

	return errors
}

func (c *Config) validateKernel() []ValidationError {
	if !c.Kernel.Register {
		return nil
	}

	var errors []ValidationError
	if c.Kernel.Name == "" {
		errors = append(errors, ValidationError{
			Path:    "kernel.name",
			Message: "must not be empty when kernel.register is true",
		})
	}
	if c.Kernel.DisplayName == "" {
		errors = append(errors, ValidationError{
			Path:    "kernel.display_name",
			Message: "must not be empty when kernel.register is true",
		})
	}
	return errors
}

func (c *Config) validateSecrets() []ValidationError {
	var errors []ValidationError

	if c.Secrets.File == "" {
		errors = append(errors, ValidationError{
			Path:    "secrets.file",
			Message: "must not be empty",
		})
	}
	if c.Secrets.KeyName == "" {
		errors = append(errors, ValidationError{
			Path:    "secrets.key_name",
			Message: "must not be empty",
		})
	}
	if c.Secrets.Placeholder == "" {
		errors = append(errors, ValidationError{
			Path:    "secrets.placeholder",
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	validLevels := []string{"debug", "info", "warn", "error"}
	if contains(validLevels, c.Logging.Level) {
		return nil
	}

	return []ValidationError{{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
	}}
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
