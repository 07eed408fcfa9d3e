// Package project builds a day's program and checks it against its test
// cases: build steps run in order, every test directory is scanned for
// input/expectation pairs and the test program is run once per pair. The
// first failure stops the run.
package project

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hochfrequenz/advent-runner/internal/config"
	"github.com/hochfrequenz/advent-runner/internal/domain"
	"github.com/hochfrequenz/advent-runner/internal/program"
)

// Config configures a Project
type Config struct {
	Day          uint8
	InputSuffix  string
	OutputSuffix string
	// TestDirs are run in order. Relative paths resolve against the root and
	// "{day}" expands to the zero-padded day number.
	TestDirs []string
	// Timeout bounds every child process. Zero means no limit.
	Timeout time.Duration
	Debug   bool
}

// Project runs build steps and tests inside one project root
type Project struct {
	root string
	cfg  Config
	out  Reporter
}

// AtRoot creates a Project rooted at root
func AtRoot(root string, cfg Config, out Reporter) *Project {
	if cfg.InputSuffix == "" {
		cfg.InputSuffix = ".in"
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = ".out"
	}
	if len(cfg.TestDirs) == 0 {
		cfg.TestDirs = []string{"tests"}
	}
	if out == nil {
		out = NopReporter{}
	}
	return &Project{root: root, cfg: cfg, out: out}
}

// Root returns the working directory of every child process
func (p *Project) Root() string {
	return p.root
}

// TestDirs returns the configured test directories, resolved against the root
func (p *Project) TestDirs() []string {
	dirs := make([]string, 0, len(p.cfg.TestDirs))
	for _, d := range p.cfg.TestDirs {
		d = strings.ReplaceAll(d, "{day}", fmt.Sprintf("%02d", p.cfg.Day))
		dirs = append(dirs, p.resolve(d))
	}
	return dirs
}

func (p *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.root, path)
}

// Run executes a whole run config: build steps, then the test program
// against every test directory. When a clean path is configured the test
// phase is guarded so the artifact is removed even if a test fails.
func (p *Project) Run(ctx context.Context, cfg *config.RunConfig) (*domain.RunReport, error) {
	report := &domain.RunReport{
		ID:        uuid.NewString(),
		Day:       p.cfg.Day,
		Root:      p.root,
		Status:    domain.RunRunning,
		StartedAt: time.Now(),
	}

	err := p.run(ctx, cfg, report)
	report.Finish(time.Now(), err)
	p.out.Summary(report)

	return report, err
}

func (p *Project) run(ctx context.Context, cfg *config.RunConfig, report *domain.RunReport) error {
	if len(cfg.Clean) > 1 {
		return fmt.Errorf("%w, found %d", ErrMultipleCleanPaths, len(cfg.Clean))
	}

	if err := p.RunBuildSteps(ctx, cfg.Build); err != nil {
		return err
	}

	testPhase := func() (struct{}, error) {
		return struct{}{}, p.testPhase(ctx, cfg.Test, report)
	}

	if len(cfg.Clean) == 0 {
		_, err := testPhase()
		return err
	}

	artifact := Artifact{Path: p.resolve(cfg.Clean[0]), OnRemove: p.out.Removing}
	_, err := DeferDeletion(artifact, testPhase)
	return err
}

func (p *Project) testPhase(ctx context.Context, test *program.Program, report *domain.RunReport) error {
	if test == nil {
		p.out.Warn("no test program configured, skipping tests")
		return nil
	}

	for _, dir := range p.TestDirs() {
		results, err := p.RunTests(ctx, *test, dir)
		report.Cases = append(report.Cases, results...)
		if err != nil {
			return err
		}
	}
	return nil
}

// RunBuildSteps runs each step in order and stops at the first one that
// fails, returning a *BuildError carrying its captured output.
func (p *Project) RunBuildSteps(ctx context.Context, steps []program.Program) error {
	for i, step := range steps {
		p.out.Running(step)

		res, err := p.execute(ctx, step, nil)
		if err != nil {
			return &BuildError{Step: i + 1, Program: step, Err: fmt.Errorf("could not run build command: %w", err)}
		}
		if res.ExitErr != nil {
			p.out.BuildFailed(i+1, step, string(res.Stdout), string(res.Stderr))
			return &BuildError{
				Step:    i + 1,
				Program: step,
				Stdout:  string(res.Stdout),
				Stderr:  string(res.Stderr),
				Err:     res.ExitErr,
			}
		}
	}
	return nil
}

// RunTests runs prog against every test case in dir, in name order, and
// stops at the first case that fails. Results of the cases that ran are
// returned in either case.
func (p *Project) RunTests(ctx context.Context, prog program.Program, dir string) ([]domain.CaseResult, error) {
	d, err := DiscoverTestCases(dir, p.cfg.InputSuffix, p.cfg.OutputSuffix)
	if err != nil {
		return nil, err
	}
	for _, w := range d.Warnings {
		p.out.Warn(w)
	}
	if len(d.Cases) == 0 {
		p.out.Warn(fmt.Sprintf("no test cases found in %s", dir))
	}

	results := make([]domain.CaseResult, 0, len(d.Cases))
	for _, tc := range d.Cases {
		res, err := p.runCase(ctx, prog, dir, tc)
		results = append(results, res)
		if err != nil {
			return results, &CaseError{Dir: dir, Case: tc.Name, Err: err}
		}
		p.out.CasePassed(tc, res.Duration)
	}

	if p.cfg.Debug {
		log.Printf("[project] %d cases passed in %s", len(results), dir)
	}
	return results, nil
}

func (p *Project) runCase(ctx context.Context, prog program.Program, dir string, tc TestCase) (domain.CaseResult, error) {
	res := domain.CaseResult{Dir: dir, Name: tc.Name, Status: domain.CaseErrored}

	input, err := os.ReadFile(tc.InputPath)
	if err != nil {
		return res, fmt.Errorf("failed to read input file: %w", err)
	}
	expected, err := os.ReadFile(tc.ExpectedPath)
	if err != nil {
		return res, fmt.Errorf("failed to read expectation file: %w", err)
	}

	p.out.RunningCase(prog, tc, len(input))
	out, err := p.execute(ctx, prog, input)
	if err != nil {
		return res, fmt.Errorf("could not run program: %w", err)
	}

	res.Duration = out.Duration
	res.Stdout = string(out.Stdout)
	res.Stderr = string(out.Stderr)

	if out.ExitErr != nil {
		return res, &ExitError{Err: out.ExitErr, Stderr: res.Stderr}
	}
	if out.FeedErr != nil {
		return res, fmt.Errorf("failed to write input to stdin: %w", out.FeedErr)
	}

	actual := bytes.TrimSpace(out.Stdout)
	want := bytes.TrimSpace(expected)
	if !bytes.Equal(actual, want) {
		res.Status = domain.CaseFailed
		p.out.Mismatch(tc, string(actual), string(want))
		return res, &MismatchError{Actual: string(actual), Expected: string(want)}
	}

	res.Status = domain.CasePassed
	return res, nil
}
