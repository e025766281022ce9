package diag

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Packager creates diagnostic ZIP bundles
type Packager struct {
	cfg       *Config
	collector *Collector
	logger    *zap.Logger
}

// NewPackager creates a new diagnostic packager
func NewPackager(cfg *Config, logger *zap.Logger) *Packager {
	return &Packager{
		cfg:       cfg,
		collector: NewCollector(cfg, logger),
		logger:    logger,
	}
}

// CreatePackage creates a complete diagnostic bundle. A failing collection
// step degrades the bundle instead of aborting it.
func (p *Packager) CreatePackage() (string, error) {
	p.logger.Info("creating diagnostic bundle", zap.String("output", p.cfg.OutputPath))

	allFiles := make(map[string][]byte)

	collections := []struct {
		name    string
		collect func() (map[string][]byte, error)
	}{
		{"logs", p.collector.CollectLogs},
		{"config", p.collector.CollectConfig},
		{"system info", p.collector.CollectSystemInfo},
		{"environment", p.collector.CollectEnvironment},
		{"history", p.collector.CollectHistory},
	}

	for _, collection := range collections {
		files, err := collection.collect()
		if err != nil {
			p.logger.Error("collection failed, continuing with partial bundle",
				zap.String("collection", collection.name),
				zap.Error(err))
		}
		for path, content := range files {
			allFiles[path] = content
		}
	}

	manifest, err := p.createManifest(allFiles)
	if err != nil {
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	allFiles["diag_manifest.json"] = manifestJSON

	if err := p.createZIP(allFiles); err != nil {
		return "", fmt.Errorf("failed to create ZIP: %w", err)
	}

	p.logger.Info("diagnostic bundle created",
		zap.String("output", p.cfg.OutputPath),
		zap.Int("file_count", len(allFiles)))

	return p.cfg.OutputPath, nil
}

// createManifest generates the bundle manifest with a checksum per file
func (p *Packager) createManifest(files map[string][]byte) (*Manifest, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	manifest := &Manifest{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Host:            hostname,
		AgentenvVersion: p.cfg.Version,
		Files:           make([]ManifestFile, 0, len(files)),
	}

	for _, path := range sortedPaths(files) {
		content := files[path]
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:      path,
			SizeBytes: int64(len(content)),
			SHA256:    CalculateSHA256(content),
		})
	}

	return manifest, nil
}

// createZIP creates the ZIP archive
func (p *Packager) createZIP(files map[string][]byte) error {
	zipFile, err := os.Create(p.cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil {
			p.logger.Warn("failed to close ZIP file", zap.Error(closeErr))
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil {
			p.logger.Error("failed to close ZIP writer", zap.Error(closeErr))
		}
	}()

	for _, path := range sortedPaths(files) {
		writer, err := zipWriter.Create(path)
		if err != nil {
			p.logger.Warn("failed to add file to ZIP", zap.String("path", path), zap.Error(err))
			continue
		}

		if _, err := writer.Write(files[path]); err != nil {
			p.logger.Warn("failed to write file to ZIP", zap.String("path", path), zap.Error(err))
			continue
		}
	}

	return nil
}

func sortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
