// standin/standingen is a tool to generate record/replay test doubles for Go interfaces.
// To use it, install it with `go install github.com/toejough/standin/standingen@latest`
// and in your test files, add a `//go:generate standingen <interface>` comment to generate a double for the
// specified interface. By default, the generated struct will be named <interface>Standin. Add a `--name <name>`
// flag to specify a custom name. The generated double will be placed in a file named <name>_test.go, in the
// same package as the test file containing the `//go:generate` comment.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toejough/standin/standingen/run"
)

// main is the entry point of the standingen tool.
func main() {
	if os.Args == nil {
		return
	}

	err := run.Run(os.Args, os.Getenv, &realFileSystem{}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// realFileSystem implements FileSystem using os package.
type realFileSystem struct{}

// Glob returns the names of all files matching pattern.
func (fs *realFileSystem) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob failed for pattern %s: %w", pattern, err)
	}

	return matches, nil
}

// ReadFile reads the file named by name and returns the contents.
func (fs *realFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}

	return data, nil
}

// WriteFile writes data to the file named by name.
func (fs *realFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(name, data, perm)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}

	return nil
}
