package pyenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Env is the activation handle for a virtual environment. It holds the
// resolved absolute paths of the environment's interpreter and pip so
// callers never depend on shell activation or the ambient PATH.
type Env struct {
	// Root is the absolute path of the environment directory.
	Root string
	// BinDir is the directory holding the environment's executables.
	BinDir string
	// Python is the absolute path of the environment's interpreter.
	Python string
	// Pip is the absolute path of the environment's pip.
	Pip string
}

// Activate resolves the executable paths inside an existing environment
// directory. It fails when the directory is missing or does not contain
// a usable interpreter, and never modifies the environment.
func Activate(envDir string) (*Env, error) {
	root, err := filepath.Abs(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve environment path %s: %w", envDir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("environment directory %s not found: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("environment path %s is not a directory", root)
	}

	binDir := filepath.Join(root, binDirName())
	python := filepath.Join(binDir, exeName("python"))
	if _, err := os.Stat(python); err != nil {
		return nil, fmt.Errorf("environment at %s has no interpreter: %w", root, err)
	}

	return &Env{
		Root:   root,
		BinDir: binDir,
		Python: python,
		Pip:    filepath.Join(binDir, exeName("pip")),
	}, nil
}

// Environ returns the process environment with the handle applied: the
// environment's bin directory is prepended to PATH and VIRTUAL_ENV points
// at the environment root. This mirrors what sourcing the activate script
// would do for a shell.
func (e *Env) Environ() []string {
	base := os.Environ()
	out := make([]string, 0, len(base)+2)
	path := os.Getenv("PATH")
	for _, kv := range base {
		if strings.HasPrefix(kv, "PATH=") || strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			continue
		}
		out = append(out, kv)
	}
	out = append(out, "VIRTUAL_ENV="+e.Root)
	out = append(out, "PATH="+e.BinDir+string(os.PathListSeparator)+path)
	return out
}

// ActivateScript returns the path of the shell activation script for an
// environment directory, suitable for printing usage hints.
func ActivateScript(envDir string) string {
	return filepath.Join(envDir, binDirName(), "activate")
}

func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}
