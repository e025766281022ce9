package bootstrap

import (
	"time"
)

// Status values used across Report and StepResult.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Step names in execution order.
const (
	StepEnsureEnv      = "ensure-env"
	StepActivate       = "activate"
	StepInstallDeps    = "install-deps"
	StepRegisterKernel = "register-kernel"
	StepSecrets        = "secrets"
)

// StepResult represents the outcome of a single setup step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"` // "ok", "failed", "skipped"
	Detail   string        `json:"detail,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the aggregate outcome of a setup run.
type Report struct {
	RunID      string        `json:"run_id"`
	ProjectDir string        `json:"project_dir"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	// Created is true when the virtual environment was provisioned during
	// this run rather than found in place.
	Created bool   `json:"created"`
	EnvPath string `json:"env_path"`
	// Python is the resolved interpreter inside the environment, empty when
	// activation failed.
	Python  string       `json:"python,omitempty"`
	Secrets string       `json:"secrets"` // "absent", "placeholder", "configured"
	Steps   []StepResult `json:"steps"`
}

// Step returns the recorded result for the named step.
func (r *Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Ok reports whether no step failed.
func (r *Report) Ok() bool {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return false
		}
	}
	return true
}
