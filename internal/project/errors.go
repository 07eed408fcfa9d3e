package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hochfrequenz/advent-runner/internal/program"
)

var (
	// ErrBuildFailed is matched by every *BuildError
	ErrBuildFailed = errors.New("build failed")
	// ErrTestFailed is matched by every *CaseError
	ErrTestFailed = errors.New("test case failed")
	// ErrMultipleCleanPaths is returned when a run config lists more than one clean path
	ErrMultipleCleanPaths = errors.New("only one 'delete' entry is supported")
)

// BuildError reports a build step that could not run or exited non-zero
type BuildError struct {
	Step    int
	Program program.Program
	Stdout  string
	Stderr  string
	Err     error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build step %d (%s) failed: %v", e.Step, e.Program, e.Err)
	if out := strings.TrimSpace(e.Stdout); out != "" {
		b.WriteString("\nstdout:\n")
		b.WriteString(out)
	}
	if out := strings.TrimSpace(e.Stderr); out != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(out)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

func (e *BuildError) Is(target error) bool { return target == ErrBuildFailed }

// ExitError reports a program under test that exited unsuccessfully
type ExitError struct {
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return fmt.Sprintf("%v: %s", e.Err, msg)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// MismatchError reports output that differs from the expectation.
// Actual and Expected are already trimmed.
type MismatchError struct {
	Actual   string
	Expected string
}

func (e *MismatchError) Error() string {
	return "the output was not correct"
}

// CaseError ties a failure to the test case it happened in
type CaseError struct {
	Dir  string
	Case string
	Err  error
}

func (e *CaseError) Error() string {
	return fmt.Sprintf("test case '%s' in %s failed: %v", e.Case, e.Dir, e.Err)
}

func (e *CaseError) Unwrap() error { return e.Err }

func (e *CaseError) Is(target error) bool { return target == ErrTestFailed }
