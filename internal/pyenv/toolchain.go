package pyenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Toolchain abstracts the interpreter operations used to provision and
// maintain a virtual environment.
type Toolchain interface {
	// Version reports the interpreter version string
	Version(ctx context.Context) (string, error)
	// CreateEnv creates a fresh virtual environment at envDir
	CreateEnv(ctx context.Context, envDir string) error
	// UpgradePip upgrades pip, setuptools and wheel inside the environment
	UpgradePip(ctx context.Context, env *Env) error
	// InstallEditable installs the project at projectDir in editable mode
	InstallEditable(ctx context.Context, env *Env, projectDir string, extras []string) error
	// RegisterKernel registers the environment as a Jupyter kernel
	RegisterKernel(ctx context.Context, env *Env, name, displayName string) error
	// RemoveKernel removes a previously registered kernelspec
	RemoveKernel(ctx context.Context, env *Env, name string) error
}

// execLookPath wraps exec.LookPath for testability
var execLookPath = func(file string) (string, error) {
	return exec.LookPath(file)
}

// newExecCommand creates an exec.Cmd for testability
var newExecCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// SystemToolchain implements Toolchain against an interpreter found on the
// host system.
type SystemToolchain struct {
	interpreter string
}

// NewSystemToolchain creates a toolchain around the given interpreter path.
func NewSystemToolchain(interpreter string) *SystemToolchain {
	return &SystemToolchain{interpreter: interpreter}
}

// Interpreter returns the resolved interpreter path.
func (t *SystemToolchain) Interpreter() string {
	return t.interpreter
}

// Detect locates a system interpreter suitable for the requested version.
// AGENTENV_PYTHON overrides discovery; otherwise the versioned binary is
// preferred and plain python3/python serve as fallbacks.
func Detect(version string) (*SystemToolchain, error) {
	desired := strings.TrimSpace(os.Getenv("AGENTENV_PYTHON"))
	if desired != "" {
		path, err := execLookPath(desired)
		if err != nil {
			return nil, fmt.Errorf("interpreter %s requested via AGENTENV_PYTHON but not found: %w", desired, err)
		}
		return NewSystemToolchain(path), nil
	}

	candidates := []string{"python3", "python"}
	if version != "" {
		candidates = append([]string{"python" + version}, candidates...)
	}

	for _, candidate := range candidates {
		if path, err := execLookPath(candidate); err == nil {
			return NewSystemToolchain(path), nil
		}
	}

	return nil, fmt.Errorf("no python interpreter found (tried %s)", strings.Join(candidates, ", "))
}

// Version reports the interpreter's version string, e.g. "Python 3.11.9".
func (t *SystemToolchain) Version(ctx context.Context) (string, error) {
	// #nosec G204 -- interpreter path is resolved via LookPath or validated configuration
	cmd := newExecCommand(ctx, t.interpreter, "--version")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to query interpreter version: %w, stderr: %s", err, stderr.String())
	}

	// Older interpreters print the version banner to stderr.
	version := strings.TrimSpace(stdout.String())
	if version == "" {
		version = strings.TrimSpace(stderr.String())
	}
	return version, nil
}

// CreateEnv creates a fresh virtual environment at envDir.
func (t *SystemToolchain) CreateEnv(ctx context.Context, envDir string) error {
	// #nosec G204 -- interpreter path is resolved via LookPath or validated configuration
	cmd := newExecCommand(ctx, t.interpreter, "-m", "venv", envDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create virtual environment at %s: %w, stderr: %s", envDir, err, stderr.String())
	}
	return nil
}

// UpgradePip upgrades the packaging baseline inside the environment.
func (t *SystemToolchain) UpgradePip(ctx context.Context, env *Env) error {
	// #nosec G204 -- interpreter path comes from the activated environment handle
	cmd := newExecCommand(ctx, env.Python, "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel")
	cmd.Env = env.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to upgrade pip: %w, stderr: %s", err, stderr.String())
	}
	return nil
}

// InstallEditable installs the project in editable mode so source edits
// take effect without reinstalling.
func (t *SystemToolchain) InstallEditable(ctx context.Context, env *Env, projectDir string, extras []string) error {
	// #nosec G204 -- interpreter path comes from the activated environment handle
	cmd := newExecCommand(ctx, env.Python, "-m", "pip", "install", "-e", editableTarget(extras))
	cmd.Dir = projectDir
	cmd.Env = env.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to install project in editable mode: %w, stderr: %s", err, stderr.String())
	}
	return nil
}

// RegisterKernel registers the environment as a Jupyter kernel under the
// given name.
func (t *SystemToolchain) RegisterKernel(ctx context.Context, env *Env, name, displayName string) error {
	// #nosec G204 -- kernel names come from validated configuration
	cmd := newExecCommand(ctx, env.Python, "-m", "ipykernel", "install", "--user",
		"--name", name, "--display-name", displayName)
	cmd.Env = env.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to register kernel %s: %w, stderr: %s", name, err, stderr.String())
	}
	return nil
}

// RemoveKernel removes the kernelspec registered under name.
func (t *SystemToolchain) RemoveKernel(ctx context.Context, env *Env, name string) error {
	// #nosec G204 -- kernel names come from validated configuration
	cmd := newExecCommand(ctx, env.Python, "-m", "jupyter", "kernelspec", "remove", "-f", name)
	cmd.Env = env.Environ()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to remove kernel %s: %w, stderr: %s", name, err, stderr.String())
	}
	return nil
}

// editableTarget builds the pip install target for the current directory,
// appending extras as ".[a,b]" when requested.
func editableTarget(extras []string) string {
	if len(extras) == 0 {
		return "."
	}
	return ".[" + strings.Join(extras, ",") + "]"
}

// LazyToolchain defers interpreter discovery until an operation actually
// needs the system interpreter. The in-env operations come from the embedded
// zero toolchain and run the environment's own interpreter, so an already
// provisioned checkout stays manageable when no system python is on PATH.
type LazyToolchain struct {
	SystemToolchain

	version string

	once       sync.Once
	resolved   *SystemToolchain
	resolveErr error
}

// NewLazyToolchain creates a toolchain that resolves the system interpreter
// for the given version on first use.
func NewLazyToolchain(version string) *LazyToolchain {
	return &LazyToolchain{version: version}
}

func (t *LazyToolchain) resolve() (*SystemToolchain, error) {
	t.once.Do(func() {
		t.resolved, t.resolveErr = Detect(t.version)
	})
	return t.resolved, t.resolveErr
}

// Version reports the system interpreter's version string.
func (t *LazyToolchain) Version(ctx context.Context) (string, error) {
	tc, err := t.resolve()
	if err != nil {
		return "", err
	}
	return tc.Version(ctx)
}

// CreateEnv creates a fresh virtual environment at envDir, resolving the
// system interpreter first.
func (t *LazyToolchain) CreateEnv(ctx context.Context, envDir string) error {
	tc, err := t.resolve()
	if err != nil {
		return err
	}
	return tc.CreateEnv(ctx, envDir)
}
