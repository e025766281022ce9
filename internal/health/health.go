// Package health probes the provisioned environment and reports one result
// per dependency: interpreter, environment, pip, kernel, secrets and state
// directory.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agentenv/internal/config"
	"agentenv/internal/envfile"
	"agentenv/internal/fsutil"
	"agentenv/internal/pyenv"
)

// Probe names.
const (
	ProbeInterpreter = "interpreter"
	ProbeEnvironment = "environment"
	ProbePip         = "pip"
	ProbeKernel      = "kernel"
	ProbeSecrets     = "secrets"
	ProbeStateDir    = "state-dir"
)

// probeOrder fixes the display order of results.
var probeOrder = []string{
	ProbeInterpreter,
	ProbeEnvironment,
	ProbePip,
	ProbeKernel,
	ProbeSecrets,
	ProbeStateDir,
}

// ProbeResult is the outcome of a single health check.
type ProbeResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// Report aggregates all probe results of one health run.
type Report struct {
	Timestamp time.Time              `json:"timestamp"`
	Healthy   bool                   `json:"healthy"`
	Probes    map[string]ProbeResult `json:"probes"`
}

// Checker runs the environment health probes.
type Checker struct {
	cfg        config.Config
	toolchain  pyenv.Toolchain
	projectDir string
	logger     *zap.Logger
}

// NewChecker creates a checker for the given project directory.
func NewChecker(cfg config.Config, toolchain pyenv.Toolchain, projectDir string, logger *zap.Logger) *Checker {
	return &Checker{
		cfg:        cfg,
		toolchain:  toolchain,
		projectDir: projectDir,
		logger:     logger,
	}
}

// Run executes all probes concurrently and aggregates their results.
func (c *Checker) Run(ctx context.Context) *Report {
	report := &Report{
		Timestamp: time.Now().UTC(),
		Probes:    make(map[string]ProbeResult, len(probeOrder)),
	}

	var mu sync.Mutex
	var g errgroup.Group

	probes := []func(context.Context) ProbeResult{
		c.probeInterpreter,
		c.probeEnvironment,
		c.probePip,
		c.probeKernel,
		c.probeSecrets,
		c.probeStateDir,
	}
	for _, probe := range probes {
		probe := probe
		g.Go(func() error {
			result := probe(ctx)
			mu.Lock()
			report.Probes[result.Name] = result
			mu.Unlock()
			return nil
		})
	}
	// Wait never returns an error because every probe reports through its
	// result instead of failing the group.
	_ = g.Wait()

	report.Healthy = true
	for _, probe := range report.Probes {
		if !probe.OK {
			report.Healthy = false
			break
		}
	}

	c.logger.Info("health check finished",
		zap.Bool("healthy", report.Healthy),
		zap.Int("probes", len(report.Probes)))

	return report
}

func (c *Checker) envPath() string {
	return filepath.Join(c.projectDir, c.cfg.Python.EnvDir)
}

func (c *Checker) probeInterpreter(ctx context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbeInterpreter}

	version, err := c.toolchain.Version(ctx)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.OK = true
		result.Detail = version
	}

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

func (c *Checker) probeEnvironment(_ context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbeEnvironment}

	env, err := pyenv.Activate(c.envPath())
	if err != nil {
		result.Error = err.Error()
	} else {
		result.OK = true
		result.Detail = env.Python
	}

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

func (c *Checker) probePip(_ context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbePip}

	env, err := pyenv.Activate(c.envPath())
	if err != nil {
		result.Error = "environment not usable"
	} else if _, err := os.Stat(env.Pip); err != nil {
		result.Error = fmt.Sprintf("pip missing at %s", env.Pip)
	} else {
		result.OK = true
		result.Detail = env.Pip
	}

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

func (c *Checker) probeKernel(_ context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbeKernel}

	switch {
	case !c.cfg.Kernel.Register:
		result.OK = true
		result.Detail = "registration disabled"
	case pyenv.KernelRegistered(c.cfg.Kernel.Name):
		result.OK = true
		result.Detail = c.cfg.Kernel.Name
	default:
		result.Error = fmt.Sprintf("kernelspec %s not found", c.cfg.Kernel.Name)
	}

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

func (c *Checker) probeSecrets(_ context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbeSecrets}

	path := filepath.Join(c.projectDir, c.cfg.Secrets.File)
	state := envfile.Inspect(path, c.cfg.Secrets.KeyName, c.cfg.Secrets.Placeholder)
	result.Detail = state.String()
	result.OK = state == envfile.StateConfigured

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

func (c *Checker) probeStateDir(_ context.Context) ProbeResult {
	started := time.Now()
	result := ProbeResult{Name: ProbeStateDir}

	dir := fsutil.StateDir()
	probe := filepath.Join(dir, ".health-probe")
	if err := fsutil.EnsureStateDirectory(dir); err != nil {
		result.Error = err.Error()
	} else if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		result.Error = fmt.Sprintf("state directory not writable: %v", err)
	} else {
		_ = os.Remove(probe)
		result.OK = true
		result.Detail = dir
	}

	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

// Render writes the report in human-readable form.
func Render(w io.Writer, report *Report) {
	fmt.Fprintln(w, "=== Environment Health ===")
	for _, name := range probeOrder {
		probe, ok := report.Probes[name]
		if !ok {
			continue
		}
		icon := "✓"
		if !probe.OK {
			icon = "❌"
		}
		line := fmt.Sprintf("%s %-12s", icon, probe.Name)
		if probe.Detail != "" {
			line += " " + probe.Detail
		}
		if probe.Error != "" {
			line += " (" + probe.Error + ")"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	if report.Healthy {
		fmt.Fprintln(w, "✓ All checks passed")
	} else {
		fmt.Fprintln(w, "❌ Some checks failed")
	}
}

// Save writes the report as JSON into the state directory and returns the
// written path.
func Save(report *Report) (string, error) {
	dir := filepath.Join(fsutil.StateDir(), "reports")
	if err := fsutil.EnsureStateDirectory(dir); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal health report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("health-%s.json", report.Timestamp.Format("20060102-150405")))
	if err := fsutil.AtomicWriteFile(path, data, fsutil.DefaultFilePermissions); err != nil {
		return "", err
	}
	return path, nil
}
