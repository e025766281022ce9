package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/fsutil"
	"agentenv/internal/pyenv"
)

// PurgeLog records what a purge operation removed.
type PurgeLog struct {
	Timestamp    time.Time `json:"timestamp"`
	RemovedItems []string  `json:"removed_items"`
	Errors       []string  `json:"errors,omitempty"`
}

// Purger removes everything setup provisioned: the Jupyter kernelspec, the
// virtual environment and the state directory contents. The secrets file
// belongs to the user and is never touched.
type Purger struct {
	cfg        config.Config
	toolchain  pyenv.Toolchain
	projectDir string
	stateDir   string
	logger     *zap.Logger
}

// NewPurger creates a purger for the given project directory.
func NewPurger(cfg config.Config, toolchain pyenv.Toolchain, projectDir string, logger *zap.Logger) *Purger {
	return &Purger{
		cfg:        cfg,
		toolchain:  toolchain,
		projectDir: projectDir,
		stateDir:   fsutil.StateDir(),
		logger:     logger,
	}
}

// PurgeAll removes the kernelspec, the environment directory and the state
// directory contents. Individual failures are collected in the log rather
// than aborting the operation, so a partial purge can be re-run.
func (p *Purger) PurgeAll(ctx context.Context, removeConfig bool) (*PurgeLog, error) {
	p.logger.Info("purge started",
		zap.String("project_dir", p.projectDir),
		zap.Bool("remove_config", removeConfig))

	log := &PurgeLog{
		Timestamp:    time.Now(),
		RemovedItems: []string{},
		Errors:       []string{},
	}

	p.removeKernel(ctx, log)
	p.removeEnv(log)
	p.cleanStateDirectory(log)

	if removeConfig {
		p.removeUserConfig(log)
	}

	p.logger.Info("purge completed",
		zap.Int("removed_items", len(log.RemovedItems)),
		zap.Int("errors", len(log.Errors)))

	return log, nil
}

// removeKernel removes the registered kernelspec. It prefers the jupyter
// tooling inside the environment and falls back to deleting the kernelspec
// directory when the environment is no longer usable.
func (p *Purger) removeKernel(ctx context.Context, log *PurgeLog) {
	name := p.cfg.Kernel.Name
	if name == "" || !pyenv.KernelRegistered(name) {
		p.logger.Info("no kernelspec registered", zap.String("kernel", name))
		return
	}

	envPath := filepath.Join(p.projectDir, p.cfg.Python.EnvDir)
	if env, err := pyenv.Activate(envPath); err == nil {
		if err := p.toolchain.RemoveKernel(ctx, env, name); err == nil {
			log.RemovedItems = append(log.RemovedItems, "kernel:"+name)
			return
		}
		p.logger.Warn("kernelspec removal via jupyter failed, removing directory directly",
			zap.String("kernel", name))
	}

	dir, err := pyenv.KernelspecDir(name)
	if err != nil {
		log.Errors = append(log.Errors, fmt.Sprintf("failed to locate kernelspec for %s: %v", name, err))
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Errors = append(log.Errors, fmt.Sprintf("failed to remove kernelspec %s: %v", dir, err))
		return
	}
	log.RemovedItems = append(log.RemovedItems, "kernel:"+name)
}

// removeEnv deletes the virtual environment directory.
func (p *Purger) removeEnv(log *PurgeLog) {
	envPath := filepath.Join(p.projectDir, p.cfg.Python.EnvDir)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		p.logger.Info("environment directory does not exist", zap.String("path", envPath))
		return
	}

	if err := os.RemoveAll(envPath); err != nil {
		errMsg := fmt.Sprintf("failed to remove environment %s: %v", envPath, err)
		log.Errors = append(log.Errors, errMsg)
		p.logger.Warn("environment removal failed", zap.String("path", envPath), zap.Error(err))
		return
	}
	log.RemovedItems = append(log.RemovedItems, "env:"+envPath)
}

// cleanStateDirectory removes the contents of the state directory (run
// history, saved reports, UI state).
func (p *Purger) cleanStateDirectory(log *PurgeLog) {
	p.logger.Info("cleaning state directory", zap.String("path", p.stateDir))

	if _, err := os.Stat(p.stateDir); os.IsNotExist(err) {
		p.logger.Info("state directory does not exist")
		return
	}

	entries, err := os.ReadDir(p.stateDir)
	if err != nil {
		log.Errors = append(log.Errors, fmt.Sprintf("failed to read state directory: %v", err))
		return
	}

	for _, entry := range entries {
		path := filepath.Join(p.stateDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			errMsg := fmt.Sprintf("failed to remove %s: %v", path, err)
			log.Errors = append(log.Errors, errMsg)
			p.logger.Warn("state entry removal failed", zap.String("path", path), zap.Error(err))
			continue
		}
		log.RemovedItems = append(log.RemovedItems, "state:"+entry.Name())
	}
}

// removeUserConfig deletes the user-level config file. Only the file itself
// is removed, never the surrounding directory.
func (p *Purger) removeUserConfig(log *PurgeLog) {
	path := config.UserConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		p.logger.Info("user config does not exist", zap.String("path", path))
		return
	}

	if err := os.Remove(path); err != nil {
		log.Errors = append(log.Errors, fmt.Sprintf("failed to remove config %s: %v", path, err))
		return
	}
	log.RemovedItems = append(log.RemovedItems, "config:"+path)
}

// VerifyClean checks whether any provisioned artifacts remain after a purge.
func (p *Purger) VerifyClean() (bool, []string) {
	leftovers := []string{}

	envPath := filepath.Join(p.projectDir, p.cfg.Python.EnvDir)
	if _, err := os.Stat(envPath); err == nil {
		leftovers = append(leftovers, "env:"+envPath)
	}

	if p.cfg.Kernel.Name != "" && pyenv.KernelRegistered(p.cfg.Kernel.Name) {
		leftovers = append(leftovers, "kernel:"+p.cfg.Kernel.Name)
	}

	if entries, err := os.ReadDir(p.stateDir); err == nil {
		for _, entry := range entries {
			leftovers = append(leftovers, "state:"+entry.Name())
		}
	}

	isClean := len(leftovers) == 0
	p.logger.Info("purge verification complete",
		zap.Bool("clean", isClean),
		zap.Int("leftovers", len(leftovers)))

	return isClean, leftovers
}
