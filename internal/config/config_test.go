package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"PythonVersion", cfg.Python.Version, "3.11"},
		{"EnvDir", cfg.Python.EnvDir, ".venv"},
		{"KernelRegister", cfg.Kernel.Register, true},
		{"KernelName", cfg.Kernel.Name, "migration-agent"},
		{"KernelDisplayName", cfg.Kernel.DisplayName, "Migration Agent (Python)"},
		{"SecretsFile", cfg.Secrets.File, ".env"},
		{"SecretsTemplate", cfg.Secrets.Template, ".env.example"},
		{"SecretsKeyName", cfg.Secrets.KeyName, "GEMINI_API_KEY"},
		{"SecretsPlaceholder", cfg.Secrets.Placeholder, "your_api_key_here"},
		{"UpgradePip", cfg.Install.UpgradePip, true},
		{"LogLevel", cfg.Logging.Level, "info"},
		{"LogFormat", cfg.Logging.Format, "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestValidation_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	errors := cfg.Validate()

	if len(errors) != 0 {
		t.Errorf("Validate() on default config returned errors: %v", errors)
	}
}

func TestValidation_InvalidPythonVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{"major.minor", "3.11", false},
		{"major only", "3", false},
		{"patch version", "3.11.4", true},
		{"empty", "", true},
		{"garbage", "snake", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Python.Version = tt.version

			errors := cfg.Validate()
			found := false
			for _, err := range errors {
				if err.Path == "python.version" {
					found = true
					break
				}
			}
			if found != tt.wantErr {
				t.Errorf("Validate() python.version error = %v, want %v (errors: %v)", found, tt.wantErr, errors)
			}
		})
	}
}

func TestValidation_InvalidEnvDir(t *testing.T) {
	tests := []struct {
		name   string
		envDir string
	}{
		{"empty", ""},
		{"absolute", "/opt/venv"},
		{"dot", "."},
		{"escapes project", "../venv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Python.EnvDir = tt.envDir

			errors := cfg.Validate()
			found := false
			for _, err := range errors {
				if err.Path == "python.env_dir" {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Validate() should reject env_dir %q", tt.envDir)
			}
		})
	}
}

func TestValidation_KernelNamesRequiredWhenRegistering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kernel.Name = ""
	cfg.Kernel.DisplayName = ""

	errors := cfg.Validate()
	if len(errors) != 2 {
		t.Errorf("Validate() = %d errors, want 2: %v", len(errors), errors)
	}

	cfg.Kernel.Register = false
	if errors := cfg.Validate(); len(errors) != 0 {
		t.Errorf("Validate() with register=false should accept empty names, got %v", errors)
	}
}

func TestValidation_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"

	errors := cfg.Validate()
	if len(errors) == 0 {
		t.Error("Validate() should return error for invalid logging.level")
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentenv.yaml")

	content := `
python:
  version: "3.12"
kernel:
  register: false
install:
  extras: ["dev"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Python.Version != "3.12" {
		t.Errorf("Python.Version = %q, want %q", cfg.Python.Version, "3.12")
	}
	if cfg.Python.EnvDir != ".venv" {
		t.Errorf("Python.EnvDir = %q, want default %q", cfg.Python.EnvDir, ".venv")
	}
	if cfg.Kernel.Register {
		t.Error("Kernel.Register = true, want false from file")
	}
	if cfg.Kernel.Name != "migration-agent" {
		t.Errorf("Kernel.Name = %q, want default kept", cfg.Kernel.Name)
	}
	if len(cfg.Install.Extras) != 1 || cfg.Install.Extras[0] != "dev" {
		t.Errorf("Install.Extras = %v, want [dev]", cfg.Install.Extras)
	}
	if !cfg.Install.UpgradePip {
		t.Error("Install.UpgradePip = false, want default true when file omits it")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentenv.yaml")

	if err := os.WriteFile(path, []byte("python: ["), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on malformed YAML")
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentenv.yaml")

	content := `
python:
  version: "not-a-version"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should surface validation errors")
	}
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	userDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("AGENTENV_CONFIG_DIR", userDir)

	userCfg := `
python:
  version: "3.10"
  env_dir: ".venv-user"
`
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userCfg), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	projectCfg := `
python:
  env_dir: ".venv-project"
`
	if err := os.WriteFile(filepath.Join(projectDir, "agentenv.yaml"), []byte(projectCfg), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	cfg, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Python.Version != "3.10" {
		t.Errorf("Python.Version = %q, want user value %q", cfg.Python.Version, "3.10")
	}
	if cfg.Python.EnvDir != ".venv-project" {
		t.Errorf("Python.EnvDir = %q, want project value %q", cfg.Python.EnvDir, ".venv-project")
	}
}

func TestLoad_MissingFilesUsesDefaults(t *testing.T) {
	t.Setenv("AGENTENV_CONFIG_DIR", filepath.Join(t.TempDir(), "nonexistent"))

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Python.EnvDir != ".venv" {
		t.Errorf("Python.EnvDir = %q, want default", cfg.Python.EnvDir)
	}
}
