package domain

import (
	"fmt"
	"time"
)

// CaseResult captures the outcome of running one test case
type CaseResult struct {
	Dir      string
	Name     string
	Status   CaseStatus
	Duration time.Duration
	Stdout   string
	Stderr   string
}

// RunReport represents a single build-and-test run of a day
type RunReport struct {
	ID         string
	Day        uint8
	Root       string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Cases      []CaseResult
	Error      string
}

// Finish marks the run as done, deriving the status from err
func (r *RunReport) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	if err != nil {
		r.Status = RunFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunPassed
}

// Duration returns how long the run took, or zero while it is running
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByStatus returns how many cases ended with status
func (r *RunReport) CountByStatus(status CaseStatus) int {
	n := 0
	for _, c := range r.Cases {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Label names the run for humans, e.g. "day 04"
func (r *RunReport) Label() string {
	return fmt.Sprintf("day %02d", r.Day)
}
