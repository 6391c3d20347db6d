//go:build targ

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/toejough/go-reorder"
	"github.com/toejough/targ"
	"github.com/toejough/targ/sh"
)

// Build builds the local standingen binary.
func Build() error {
	fmt.Println("Building standingen...")

	if err := os.MkdirAll("bin", 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	return sh.Run("go", "build", "-o", "bin/standingen", "./standingen")
}

// Check runs all checks & fixes on the code, in order of correctness.
func Check() error {
	fmt.Println("Checking...")

	return targ.Deps(
		Tidy,         // clean up the module dependencies
		FixImports,   // fix imports to remove unused ones
		Test,         // does our code work?
		ReorderDecls, // linter will yell about declaration order if not correct
		Lint,
	)
}

// Clean cleans up the dev env.
func Clean() {
	fmt.Println("Cleaning...")
	os.Remove("coverage.out")
}

// FixImports fixes import formatting across the repo.
func FixImports() error {
	fmt.Println("Fixing imports...")

	return sh.Run("goimports", "-w", ".")
}

// Lint lints the codebase.
func Lint() error {
	fmt.Println("Linting...")

	return sh.Run("golangci-lint", "run", "-c", "dev/golangci.toml")
}

// Mutate runs the mutation test suite.
func Mutate() error {
	fmt.Println("Running mutation tests...")

	return sh.Run("go", "test", "-tags", "mutation", "-run", "TestMutation", "-timeout", "30m", ".")
}

// ReorderDecls reorders declarations in all non-generated Go files.
func ReorderDecls() error {
	fmt.Println("Reordering declarations...")

	files, err := goFiles()
	if err != nil {
		return err
	}

	reorderedCount := 0

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		reordered, err := reorder.Source(string(content))
		if err != nil {
			fmt.Printf("Warning: failed to reorder %s: %v\n", file, err)

			continue
		}

		if string(content) != reordered {
			err = os.WriteFile(file, []byte(reordered), 0o600)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			fmt.Printf("  Reordered: %s\n", file)
			reorderedCount++
		}
	}

	fmt.Printf("Reordered %d file(s).\n", reorderedCount)

	return nil
}

// ReorderDeclsCheck reports files that need reordering without modifying them.
func ReorderDeclsCheck() error {
	fmt.Println("Checking declaration order...")

	files, err := goFiles()
	if err != nil {
		return err
	}

	outOfOrder := 0

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		reordered, err := reorder.Source(string(content))
		if err != nil {
			continue
		}

		if string(content) != reordered {
			diff := textdiff.Unified(file+" (current)", file+" (reordered)", string(content), reordered)
			fmt.Println(diff)

			outOfOrder++
		}
	}

	if outOfOrder > 0 {
		return fmt.Errorf("%d file(s) need reordering", outOfOrder)
	}

	return nil
}

// Test runs the test suite with coverage.
func Test() error {
	fmt.Println("Testing...")

	return sh.Run("go", "test", "-race", "-coverprofile=coverage.out", "./...")
}

// Tidy tidies up the go module.
func Tidy() error {
	fmt.Println("Tidying...")

	return sh.Run("go", "mod", "tidy")
}

// goFiles lists the repo's non-generated Go source files.
func goFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "bin" {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if strings.Contains(string(content), "Code generated by standingen") {
			return nil
		}

		files = append(files, path)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source tree: %w", err)
	}

	return files, nil
}
