// Package bootstrap implements the idempotent setup sequence that prepares
// a project checkout for running the migration agent: virtual environment,
// dependencies, Jupyter kernel and secrets guidance.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/envfile"
	"agentenv/internal/pyenv"
)

// agentCommand is the console entry point the editable install provides.
const agentCommand = "migration-agent"

// Bootstrapper executes the setup sequence for a project checkout. The
// sequence is strictly ordered and safe to re-run: an existing environment
// is reused, never recreated, and the secrets file is never written.
type Bootstrapper struct {
	cfg        config.Config
	toolchain  pyenv.Toolchain
	projectDir string
	out        io.Writer
	logger     *zap.Logger
}

// New creates a Bootstrapper for the given project directory. Progress is
// written to out in human-readable form.
func New(cfg config.Config, toolchain pyenv.Toolchain, projectDir string, out io.Writer, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		cfg:        cfg,
		toolchain:  toolchain,
		projectDir: projectDir,
		out:        out,
		logger:     logger,
	}
}

// Run executes the setup sequence and returns a report of every step taken.
// The returned error is non-nil only when the virtual environment could not
// be created; every later problem is reported as a failed step and surfaced
// as a warning instead, so a re-run or manual fix can pick up from there.
func (b *Bootstrapper) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		ProjectDir: b.projectDir,
		StartedAt:  time.Now(),
		EnvPath:    filepath.Join(b.projectDir, b.cfg.Python.EnvDir),
	}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	b.logger.Info("setup started",
		zap.String("run_id", report.RunID),
		zap.String("project_dir", b.projectDir),
		zap.String("env_path", report.EnvPath))

	created, err := b.ensureEnv(ctx, report)
	if err != nil {
		// Creation failure is the one fatal outcome: nothing after this
		// point can work without an environment.
		return report, err
	}
	report.Created = created

	env := b.activate(report)

	b.installDeps(ctx, report, env)
	b.registerKernel(ctx, report, env)
	b.inspectSecrets(report)

	b.printUsage()

	b.logger.Info("setup finished",
		zap.String("run_id", report.RunID),
		zap.Bool("created", report.Created),
		zap.Bool("ok", report.Ok()),
		zap.Duration("duration", time.Since(report.StartedAt)))

	return report, nil
}

// ensureEnv makes sure the environment directory exists, creating it on
// first run. An existing directory is left untouched.
func (b *Bootstrapper) ensureEnv(ctx context.Context, report *Report) (bool, error) {
	started := time.Now()

	info, statErr := os.Stat(report.EnvPath)
	switch {
	case statErr == nil && info.IsDir():
		b.addStep(report, StepEnsureEnv, StatusOK, "already present", nil, started)
		fmt.Fprintf(b.out, "✓ Virtual environment already present at %s\n", b.cfg.Python.EnvDir)
		return false, nil
	case statErr == nil:
		err := fmt.Errorf("%s exists but is not a directory", report.EnvPath)
		b.addStep(report, StepEnsureEnv, StatusFailed, "", err, started)
		fmt.Fprintf(b.out, "❌ Cannot create virtual environment: %v\n", err)
		return false, err
	}

	fmt.Fprintf(b.out, "Creating virtual environment at %s (Python %s)...\n",
		b.cfg.Python.EnvDir, b.cfg.Python.Version)
	if err := b.toolchain.CreateEnv(ctx, report.EnvPath); err != nil {
		b.addStep(report, StepEnsureEnv, StatusFailed, "", err, started)
		fmt.Fprintf(b.out, "❌ Failed to create virtual environment: %v\n", err)
		return false, err
	}

	b.addStep(report, StepEnsureEnv, StatusOK, "created", nil, started)
	fmt.Fprintln(b.out, "✓ Virtual environment created")
	return true, nil
}

// activate resolves the interpreter paths inside the environment. A nil
// return means the environment is present but unusable; provisioning steps
// are skipped in that case while secrets guidance still runs.
func (b *Bootstrapper) activate(report *Report) *pyenv.Env {
	started := time.Now()

	env, err := pyenv.Activate(report.EnvPath)
	if err != nil {
		b.addStep(report, StepActivate, StatusFailed, "", err, started)
		fmt.Fprintf(b.out, "⚠ Environment present but not usable: %v\n", err)
		fmt.Fprintln(b.out, "  Run 'agentenv purge' to remove it, then set up again.")
		b.logger.Warn("activation failed", zap.String("env_path", report.EnvPath), zap.Error(err))
		return nil
	}

	report.Python = env.Python
	b.addStep(report, StepActivate, StatusOK, env.Python, nil, started)
	fmt.Fprintf(b.out, "✓ Environment activated (%s)\n", env.Python)
	return env
}

// installDeps installs the project in editable mode. It only runs when the
// environment was created during this run; an already provisioned
// environment is assumed to have its dependencies in place.
func (b *Bootstrapper) installDeps(ctx context.Context, report *Report, env *pyenv.Env) {
	started := time.Now()

	if !report.Created {
		b.addStep(report, StepInstallDeps, StatusSkipped, "environment already provisioned", nil, started)
		fmt.Fprintln(b.out, "ℹ  Dependency install skipped (environment already provisioned)")
		return
	}
	if env == nil {
		b.addStep(report, StepInstallDeps, StatusSkipped, "environment not usable", nil, started)
		fmt.Fprintln(b.out, "ℹ  Dependency install skipped (environment not usable)")
		return
	}

	if b.cfg.Install.UpgradePip {
		if err := b.toolchain.UpgradePip(ctx, env); err != nil {
			// Best effort: a stale pip still installs the project.
			b.logger.Warn("pip upgrade failed", zap.Error(err))
		}
	}

	fmt.Fprintln(b.out, "Installing dependencies (editable mode)...")
	if err := b.toolchain.InstallEditable(ctx, env, b.projectDir, b.cfg.Install.Extras); err != nil {
		b.addStep(report, StepInstallDeps, StatusFailed, "", err, started)
		fmt.Fprintf(b.out, "⚠ Dependency install failed: %v\n", err)
		fmt.Fprintf(b.out, "  Install manually: %s -m pip install -e .\n", env.Python)
		b.logger.Warn("editable install failed", zap.Error(err))
		return
	}

	b.addStep(report, StepInstallDeps, StatusOK, "editable install", nil, started)
	fmt.Fprintln(b.out, "✓ Dependencies installed")
}

// registerKernel registers the environment as a Jupyter kernel on first
// creation. Registration is best effort: a failure leaves the environment
// usable and is reported as a warning.
func (b *Bootstrapper) registerKernel(ctx context.Context, report *Report, env *pyenv.Env) {
	started := time.Now()

	if !b.cfg.Kernel.Register {
		b.addStep(report, StepRegisterKernel, StatusSkipped, "disabled in configuration", nil, started)
		fmt.Fprintln(b.out, "ℹ  Kernel registration skipped (disabled in configuration)")
		return
	}
	if !report.Created {
		b.addStep(report, StepRegisterKernel, StatusSkipped, "environment already provisioned", nil, started)
		fmt.Fprintln(b.out, "ℹ  Kernel registration skipped (environment already provisioned)")
		return
	}
	if env == nil {
		b.addStep(report, StepRegisterKernel, StatusSkipped, "environment not usable", nil, started)
		fmt.Fprintln(b.out, "ℹ  Kernel registration skipped (environment not usable)")
		return
	}

	if err := b.toolchain.RegisterKernel(ctx, env, b.cfg.Kernel.Name, b.cfg.Kernel.DisplayName); err != nil {
		b.addStep(report, StepRegisterKernel, StatusFailed, "", err, started)
		fmt.Fprintf(b.out, "⚠ Kernel registration failed: %v\n", err)
		fmt.Fprintf(b.out, "  Register manually: %s -m ipykernel install --user --name %s\n",
			env.Python, b.cfg.Kernel.Name)
		b.logger.Warn("kernel registration failed", zap.String("kernel", b.cfg.Kernel.Name), zap.Error(err))
		return
	}

	b.addStep(report, StepRegisterKernel, StatusOK, b.cfg.Kernel.Name, nil, started)
	fmt.Fprintf(b.out, "✓ Jupyter kernel registered (%s)\n", b.cfg.Kernel.Name)
}

// inspectSecrets classifies the secrets file and prints guidance. The file
// itself is never created or modified.
func (b *Bootstrapper) inspectSecrets(report *Report) {
	started := time.Now()

	path := filepath.Join(b.projectDir, b.cfg.Secrets.File)
	state := envfile.Inspect(path, b.cfg.Secrets.KeyName, b.cfg.Secrets.Placeholder)
	report.Secrets = state.String()
	b.addStep(report, StepSecrets, StatusOK, state.String(), nil, started)

	switch state {
	case envfile.StateAbsent:
		fmt.Fprintf(b.out, "⚠ Secrets file %s not found\n", b.cfg.Secrets.File)
		fmt.Fprintf(b.out, "  Copy %s to %s and set %s to your API key.\n",
			b.cfg.Secrets.Template, b.cfg.Secrets.File, b.cfg.Secrets.KeyName)
	case envfile.StatePlaceholder:
		fmt.Fprintf(b.out, "⚠ %s still contains the placeholder value\n", b.cfg.Secrets.File)
		fmt.Fprintf(b.out, "  Edit %s and set %s to your API key.\n",
			b.cfg.Secrets.File, b.cfg.Secrets.KeyName)
	case envfile.StateConfigured:
		fmt.Fprintf(b.out, "✓ Secrets configured (%s)\n", b.cfg.Secrets.File)
	}
}

func (b *Bootstrapper) printUsage() {
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, "=== Next steps ===")
	fmt.Fprintf(b.out, "  source %s\n", pyenv.ActivateScript(b.cfg.Python.EnvDir))
	fmt.Fprintf(b.out, "  %s --help\n", agentCommand)
}

func (b *Bootstrapper) addStep(report *Report, name, status, detail string, err error, started time.Time) {
	result := StepResult{
		Name:     name,
		Status:   status,
		Detail:   detail,
		Duration: time.Since(started),
	}
	if err != nil {
		result.Err = err.Error()
	}
	report.Steps = append(report.Steps, result)

	b.logger.Info("setup step finished",
		zap.String("step", name),
		zap.String("status", status),
		zap.Duration("duration", result.Duration))
}
