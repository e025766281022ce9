package pyenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// KernelspecDir returns the user-level Jupyter kernelspec directory for the
// given kernel name. JUPYTER_DATA_DIR overrides the default location.
func KernelspecDir(name string) (string, error) {
	if dir := os.Getenv("JUPYTER_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "kernels", name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "jupyter", "kernels", name), nil
}

// KernelRegistered reports whether a kernelspec directory exists for name.
func KernelRegistered(name string) bool {
	dir, err := KernelspecDir(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
