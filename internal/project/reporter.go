package project

import (
	"time"

	"github.com/hochfrequenz/advent-runner/internal/domain"
	"github.com/hochfrequenz/advent-runner/internal/program"
)

// Reporter receives progress of a run for presentation
type Reporter interface {
	// Running is called before each build step starts.
	Running(p program.Program)
	// RunningCase is called before the test program runs against a case.
	RunningCase(p program.Program, tc TestCase, inputSize int)
	Warn(msg string)
	BuildFailed(step int, p program.Program, stdout, stderr string)
	CasePassed(tc TestCase, d time.Duration)
	// Mismatch receives the trimmed actual and expected output.
	Mismatch(tc TestCase, actual, expected string)
	Removing(path string)
	Summary(report *domain.RunReport)
}

// NopReporter discards all progress
type NopReporter struct{}

func (NopReporter) Running(program.Program) {}
func (NopReporter) RunningCase(program.Program, TestCase, int) {}
func (NopReporter) Warn(string) {}
func (NopReporter) BuildFailed(int, program.Program, string, string) {}
func (NopReporter) CasePassed(TestCase, time.Duration) {}
func (NopReporter) Mismatch(TestCase, string, string) {}
func (NopReporter) Removing(string) {}
func (NopReporter) Summary(*domain.RunReport) {}
