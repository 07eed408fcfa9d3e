package project

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hochfrequenz/advent-runner/internal/config"
	"github.com/hochfrequenz/advent-runner/internal/domain"
	"github.com/hochfrequenz/advent-runner/internal/program"
)

type recorder struct {
	NopReporter
	running    []string
	cases      []string
	passed     []string
	warnings   []string
	mismatches []string
	removed    []string
	failed     []int
	summary    *domain.RunReport
}

func (r *recorder) Running(p program.Program) { r.running = append(r.running, p.String()) }
func (r *recorder) RunningCase(_ program.Program, tc TestCase, _ int) {
	r.cases = append(r.cases, tc.Name)
}
func (r *recorder) Warn(msg string) { r.warnings = append(r.warnings, msg) }
func (r *recorder) CasePassed(tc TestCase, _ time.Duration) { r.passed = append(r.passed, tc.Name) }
func (r *recorder) Mismatch(tc TestCase, _, _ string) { r.mismatches = append(r.mismatches, tc.Name) }
func (r *recorder) Removing(path string) { r.removed = append(r.removed, path) }
func (r *recorder) BuildFailed(step int, _ program.Program, _, _ string) {
	r.failed = append(r.failed, step)
}
func (r *recorder) Summary(report *domain.RunReport) { r.summary = report }

func shell(script string) program.Program {
	return program.New("sh").WithArgs("-c", script)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

func TestRunBuildSteps_StopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	p := AtRoot(root, Config{}, rec)

	err := p.RunBuildSteps(context.Background(), []program.Program{
		shell("echo one >> steps.log"),
		shell("echo compiling; echo 'syntax error' >&2; exit 1"),
		shell("echo three >> steps.log"),
	})

	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("err = %v, want ErrBuildFailed", err)
	}
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("err = %T, want *BuildError", err)
	}
	if buildErr.Step != 2 {
		t.Errorf("Step = %d, want 2", buildErr.Step)
	}
	if !strings.Contains(buildErr.Stdout, "compiling") {
		t.Errorf("Stdout = %q", buildErr.Stdout)
	}
	if !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("error %q does not carry the captured stderr", err)
	}

	if got := readLines(t, filepath.Join(root, "steps.log")); len(got) != 1 || got[0] != "one" {
		t.Errorf("steps.log = %v, want [one]", got)
	}
	if len(rec.running) != 2 {
		t.Errorf("started %d steps, want 2", len(rec.running))
	}
	if len(rec.failed) != 1 || rec.failed[0] != 2 {
		t.Errorf("BuildFailed calls = %v, want [2]", rec.failed)
	}
}

func TestRunBuildSteps_RunsInRoot(t *testing.T) {
	root := t.TempDir()
	p := AtRoot(root, Config{}, nil)

	if err := p.RunBuildSteps(context.Background(), []program.Program{shell("pwd > where.txt")}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(root, "where.txt"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	want, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("ran in %q, want %q", got, want)
	}
}

func TestRunBuildSteps_SpawnFailure(t *testing.T) {
	p := AtRoot(t.TempDir(), Config{}, nil)

	err := p.RunBuildSteps(context.Background(), []program.Program{program.New("advent-runner-no-such-command")})
	if !errors.Is(err, ErrBuildFailed) {
		t.Fatalf("err = %v, want ErrBuildFailed", err)
	}
	if !strings.Contains(err.Error(), "could not run build command") {
		t.Errorf("error = %q", err)
	}
}

func TestRunTests_PairsAndOrdersCases(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")
	writeFiles(t, testDir, map[string]string{
		"c.in":  "3\n",
		"b.in":  "2\n",
		"a.in":  "1\n",
		"a.out": "1\n",
		"b.out": "2",
	})

	rec := &recorder{}
	p := AtRoot(root, Config{}, rec)

	results, err := p.RunTests(context.Background(), shell("tee -a seen.log"), testDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 2 || results[0].Name != "a" || results[1].Name != "b" {
		t.Fatalf("results = %+v, want cases a, b", results)
	}
	for _, r := range results {
		if r.Status != domain.CasePassed {
			t.Errorf("case %s status = %s", r.Name, r.Status)
		}
	}
	if got := readLines(t, filepath.Join(root, "seen.log")); strings.Join(got, ",") != "1,2" {
		t.Errorf("executed inputs = %v, want [1 2]", got)
	}
	if len(rec.warnings) != 1 || !strings.Contains(rec.warnings[0], "found 'c.in' but not 'c.out'") {
		t.Errorf("warnings = %v", rec.warnings)
	}
}

func TestRunTests_TrimInsensitiveMatch(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")
	writeFiles(t, testDir, map[string]string{"x.in": "", "x.out": "42"})

	p := AtRoot(root, Config{}, nil)
	if _, err := p.RunTests(context.Background(), shell(`printf '42\n'`), testDir); err != nil {
		t.Errorf("trailing newline should not matter: %v", err)
	}
}

func TestRunTests_MismatchAbortsRemainingCases(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")
	writeFiles(t, testDir, map[string]string{
		"a.in": "", "a.out": "42\n",
		"b.in": "", "b.out": "42\n",
	})

	rec := &recorder{}
	p := AtRoot(root, Config{}, rec)

	results, err := p.RunTests(context.Background(), shell("echo ran >> ran.log; echo 43"), testDir)
	if !errors.Is(err, ErrTestFailed) {
		t.Fatalf("err = %v, want ErrTestFailed", err)
	}

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want *MismatchError", err)
	}
	if mismatch.Actual != "43" || mismatch.Expected != "42" {
		t.Errorf("mismatch = %+v", mismatch)
	}

	var caseErr *CaseError
	if errors.As(err, &caseErr) && caseErr.Case != "a" {
		t.Errorf("failing case = %q, want a", caseErr.Case)
	}
	if len(results) != 1 || results[0].Status != domain.CaseFailed {
		t.Errorf("results = %+v", results)
	}
	if got := readLines(t, filepath.Join(root, "ran.log")); len(got) != 1 {
		t.Errorf("program ran %d times, want 1", len(got))
	}
	if len(rec.mismatches) != 1 {
		t.Errorf("Mismatch calls = %v", rec.mismatches)
	}
}

func TestRunTests_NonZeroExitSurfacesStderr(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")
	writeFiles(t, testDir, map[string]string{"a.in": "1", "a.out": "1"})

	p := AtRoot(root, Config{}, nil)
	results, err := p.RunTests(context.Background(), shell("echo 'index out of range' >&2; exit 3"), testDir)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if !strings.Contains(err.Error(), "index out of range") {
		t.Errorf("error %q does not include stderr", err)
	}
	if len(results) != 1 || results[0].Status != domain.CaseErrored {
		t.Errorf("results = %+v", results)
	}
}

func TestRunTests_LargeInputDoesNotDeadlock(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")

	// Larger than any pipe buffer in both directions.
	input := bytes.Repeat([]byte("0123456789abcdef\n"), 1<<16)
	writeFiles(t, testDir, map[string]string{"big.in": string(input), "big.out": string(input)})

	p := AtRoot(root, Config{Timeout: 30 * time.Second}, nil)
	if _, err := p.RunTests(context.Background(), program.New("cat"), testDir); err != nil {
		t.Fatal(err)
	}
}

func TestRunTests_MissingDirectory(t *testing.T) {
	p := AtRoot(t.TempDir(), Config{}, nil)
	_, err := p.RunTests(context.Background(), program.New("cat"), filepath.Join(p.Root(), "nope"))
	if err == nil || !strings.Contains(err.Error(), "reading test directory") {
		t.Errorf("err = %v", err)
	}
}

func TestRunTests_Timeout(t *testing.T) {
	root := t.TempDir()
	testDir := filepath.Join(root, "tests")
	writeFiles(t, testDir, map[string]string{"a.in": "", "a.out": ""})

	p := AtRoot(root, Config{Timeout: 100 * time.Millisecond}, nil)

	start := time.Now()
	_, err := p.RunTests(context.Background(), shell("exec sleep 10"), testDir)
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("err = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestRun_CleansUpAfterFailedTests(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "tests"), map[string]string{
		"a.in": "hello", "a.out": "hello",
		"b.in": "world", "b.out": "something else",
	})

	build := shell(`printf '#!/bin/sh\ncat\n' > main && chmod +x main`)
	test := program.New("./main")
	cfg := &config.RunConfig{
		Build: []program.Program{build},
		Clean: []string{"main"},
		Test:  &test,
	}

	rec := &recorder{}
	p := AtRoot(root, Config{Day: 1}, rec)

	report, err := p.Run(context.Background(), cfg)
	if !errors.Is(err, ErrTestFailed) {
		t.Fatalf("err = %v, want ErrTestFailed", err)
	}
	if strings.Contains(err.Error(), "removing temporary artifact") {
		t.Errorf("cleanup error leaked into %q", err)
	}

	if _, statErr := os.Stat(filepath.Join(root, "main")); !os.IsNotExist(statErr) {
		t.Errorf("artifact still exists: %v", statErr)
	}
	if len(rec.removed) != 1 {
		t.Errorf("Removing calls = %v", rec.removed)
	}

	if report.Status != domain.RunFailed || report.Day != 1 || report.ID == "" {
		t.Errorf("report = %+v", report)
	}
	if len(report.Cases) != 2 || report.Cases[0].Status != domain.CasePassed || report.Cases[1].Status != domain.CaseFailed {
		t.Errorf("cases = %+v", report.Cases)
	}
	if rec.summary != report {
		t.Error("Summary was not called with the report")
	}
}

func TestRun_Success(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "samples", "d07"), map[string]string{"a.in": "7", "a.out": "7\n"})

	test := program.New("cat")
	cfg := &config.RunConfig{Test: &test}

	p := AtRoot(root, Config{Day: 7, TestDirs: []string{"samples/d{day}"}}, nil)
	report, err := p.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != domain.RunPassed || report.CountByStatus(domain.CasePassed) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_RejectsMultipleCleanPathsBeforeBuilding(t *testing.T) {
	root := t.TempDir()
	cfg := &config.RunConfig{
		Build: []program.Program{shell("touch built")},
		Clean: []string{"a", "b"},
	}

	p := AtRoot(root, Config{}, nil)
	_, err := p.Run(context.Background(), cfg)
	if !errors.Is(err, ErrMultipleCleanPaths) {
		t.Fatalf("err = %v, want ErrMultipleCleanPaths", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "built")); !os.IsNotExist(statErr) {
		t.Error("build step ran despite invalid config")
	}
}

func TestRun_WithoutTestProgram(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	p := AtRoot(root, Config{}, rec)

	report, err := p.Run(context.Background(), &config.RunConfig{
		Build: []program.Program{shell("touch out.bin")},
		Clean: []string{"out.bin"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Status != domain.RunPassed {
		t.Errorf("Status = %s", report.Status)
	}
	if len(rec.warnings) != 1 || !strings.Contains(rec.warnings[0], "no test program") {
		t.Errorf("warnings = %v", rec.warnings)
	}
	if _, statErr := os.Stat(filepath.Join(root, "out.bin")); !os.IsNotExist(statErr) {
		t.Error("artifact was not removed")
	}
}

func TestTestDirs(t *testing.T) {
	p := AtRoot("/work/day3", Config{Day: 3, TestDirs: []string{"samples/d{day}", "/abs/inputs"}}, nil)

	got := p.TestDirs()
	want := []string{"/work/day3/samples/d03", "/abs/inputs"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("TestDirs() = %v, want %v", got, want)
	}
}
