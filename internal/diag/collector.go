package diag

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"agentenv/internal/config"
	"agentenv/internal/envfile"
	"agentenv/internal/history"
	"agentenv/internal/pyenv"
)

// Collector gathers diagnostic artifacts
type Collector struct {
	cfg      *Config
	redactor *Redactor
	logger   *zap.Logger
}

// NewCollector creates a new diagnostic collector
func NewCollector(cfg *Config, logger *zap.Logger) *Collector {
	return &Collector{
		cfg:      cfg,
		redactor: NewRedactor(),
		logger:   logger,
	}
}

// CollectLogs gathers all log files from the log directory. Every file passes
// through the redactor before it enters the bundle.
func (c *Collector) CollectLogs() (map[string][]byte, error) {
	if !c.cfg.IncludeLogs {
		return nil, nil
	}

	files := make(map[string][]byte)

	if _, err := os.Stat(c.cfg.LogDir); os.IsNotExist(err) {
		c.logger.Warn("log directory not found", zap.String("path", c.cfg.LogDir))
		return files, nil
	}

	err := filepath.Walk(c.cfg.LogDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			c.logger.Warn("error accessing log file", zap.String("path", path), zap.Error(err))
			return nil // Continue walking
		}

		if info.IsDir() {
			return nil
		}

		if filepath.Ext(path) != ".log" {
			return nil
		}

		content, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the log directory
		if err != nil {
			c.logger.Warn("failed to read log file", zap.String("path", path), zap.Error(err))
			return nil // Continue with other files
		}

		relPath, err := filepath.Rel(c.cfg.LogDir, path)
		if err != nil {
			relPath = filepath.Base(path)
		}

		files["logs/"+filepath.ToSlash(relPath)] = []byte(c.redactor.Redact(string(content)))
		return nil
	})

	if err != nil {
		return files, fmt.Errorf("failed to walk log directory: %w", err)
	}

	c.logger.Info("log collection complete", zap.Int("file_count", len(files)))

	return files, nil
}

// CollectConfig gathers and redacts the user and project configuration files
func (c *Collector) CollectConfig() (map[string][]byte, error) {
	if !c.cfg.IncludeConfig {
		return nil, nil
	}

	files := make(map[string][]byte)

	sources := []struct {
		path string
		name string
	}{
		{config.UserConfigPath(), "config/config.yaml"},
		{config.ProjectConfigPath(c.cfg.ProjectDir), "config/agentenv.yaml"},
	}

	for _, src := range sources {
		content, err := os.ReadFile(src.path) // #nosec G304 -- well-known configuration locations
		if err != nil {
			if !os.IsNotExist(err) {
				c.logger.Warn("failed to read config file", zap.String("path", src.path), zap.Error(err))
			}
			continue
		}
		files[src.name] = []byte(c.redactor.Redact(string(content)))
	}

	c.logger.Info("config collection complete", zap.Int("file_count", len(files)))

	return files, nil
}

// CollectSystemInfo gathers host and version information
func (c *Collector) CollectSystemInfo() (map[string][]byte, error) {
	files := make(map[string][]byte)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	sysInfo := map[string]interface{}{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"host":             hostname,
		"agentenv_version": c.cfg.Version,
		"os":               runtime.GOOS,
		"arch":             runtime.GOARCH,
	}

	sysInfoJSON, err := json.MarshalIndent(sysInfo, "", "  ")
	if err != nil {
		return files, fmt.Errorf("failed to marshal system info: %w", err)
	}

	files["system_info.json"] = sysInfoJSON

	c.logger.Info("system info collection complete")

	return files, nil
}

// CollectEnvironment describes the state of the managed environment: the
// virtual environment, the notebook kernel, and the secrets file. Only the
// classification of the secrets file is recorded, never its content.
func (c *Collector) CollectEnvironment() (map[string][]byte, error) {
	files := make(map[string][]byte)

	app := c.cfg.App
	envPath := filepath.Join(c.cfg.ProjectDir, app.Python.EnvDir)
	secretsPath := filepath.Join(c.cfg.ProjectDir, app.Secrets.File)
	state := envfile.Inspect(secretsPath, app.Secrets.KeyName, app.Secrets.Placeholder)

	info := map[string]interface{}{
		"project_dir":       c.cfg.ProjectDir,
		"env_path":          envPath,
		"python_version":    app.Python.Version,
		"kernel_name":       app.Kernel.Name,
		"kernel_registered": pyenv.KernelRegistered(app.Kernel.Name),
		"secrets_file":      app.Secrets.File,
		"secrets_state":     state.String(),
	}

	env, err := pyenv.Activate(envPath)
	if err != nil {
		info["env_present"] = false
		info["activation_error"] = err.Error()
	} else {
		info["env_present"] = true
		info["python"] = env.Python
	}

	infoJSON, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return files, fmt.Errorf("failed to marshal environment report: %w", err)
	}

	files["environment.json"] = infoJSON

	c.logger.Info("environment report complete", zap.String("secrets_state", state.String()))

	return files, nil
}

// CollectHistory gathers the most recent setup run records
func (c *Collector) CollectHistory() (map[string][]byte, error) {
	files := make(map[string][]byte)

	records, err := history.ReadLast(history.DefaultPath(), c.cfg.HistoryLimit)
	if err != nil {
		c.logger.Warn("failed to read run history", zap.Error(err))
		return files, nil
	}
	if len(records) == 0 {
		return files, nil
	}

	var buf bytes.Buffer
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	files["history.jsonl"] = buf.Bytes()

	c.logger.Info("history collection complete", zap.Int("record_count", len(records)))

	return files, nil
}

// CalculateSHA256 computes SHA256 hash of data
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CalculateFileSHA256 computes SHA256 hash of a file
func CalculateFileSHA256(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 -- caller supplies the path to verify
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close() // Read-only operation, error can be safely ignored
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
