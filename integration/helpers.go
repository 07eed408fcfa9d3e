//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// solver sums the numbers on stdin, one per line
const solver = "#!/bin/sh\nawk '{ s += $1 } END { print s }'\n"

// runConfig copies the solver into place as the build step, removes it
// afterwards and runs it against every case
const runConfig = `
build:
  - run: [sh, -c, "cp solve.sh main && chmod +x main"]
clean:
  - delete: main
test:
  - run: ./main
`

// TempDBPath creates a temporary database path for testing
func TempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// writeFiles creates files below dir, creating parent directories as needed
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

// CreateWorkspace lays out a registry with day 1 in a temp directory and
// returns the workspace and the day's root. Extra test files are added to
// the day's tests directory.
func CreateWorkspace(t *testing.T, cases map[string]string) (workspace, root string) {
	t.Helper()
	workspace = t.TempDir()
	root = filepath.Join(workspace, "day01")

	writeFiles(t, workspace, map[string]string{
		"days.yaml": "days:\n  - day: 1\n    root: day01\n",
	})
	writeFiles(t, root, map[string]string{
		"solve.sh": solver,
		"run.yaml": runConfig,
	})

	testFiles := make(map[string]string, len(cases))
	for name, content := range cases {
		testFiles[filepath.Join("tests", name)] = content
	}
	writeFiles(t, root, testFiles)

	return workspace, root
}
