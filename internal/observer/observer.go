// Package observer watches a project for changes and keeps statistics over
// the runs a watch session triggered.
package observer

import (
	"sync"
	"time"

	"github.com/hochfrequenz/advent-runner/internal/domain"
)

// Observer collects metrics over finished runs
type Observer struct {
	slowThreshold time.Duration

	runs []runRecord
	mu   sync.RWMutex
}

type runRecord struct {
	Passed   bool
	Duration time.Duration
	Cases    int
}

// Metrics holds aggregated metrics
type Metrics struct {
	TotalRuns   int
	TotalPassed int
	TotalFailed int
	TotalCases  int
	AvgDuration time.Duration
	// Streak counts the most recent consecutive runs with the same outcome
	// as the last one.
	Streak     int
	LastPassed bool
}

// New creates a new Observer. Runs taking longer than slowThreshold are
// reported by IsSlow; zero disables the check.
func New(slowThreshold time.Duration) *Observer {
	return &Observer{
		slowThreshold: slowThreshold,
	}
}

// IsSlow returns true if a finished run took longer than the threshold
func (o *Observer) IsSlow(report *domain.RunReport) bool {
	if o.slowThreshold <= 0 || report.FinishedAt == nil {
		return false
	}
	return report.Duration() > o.slowThreshold
}

// RecordRun records a finished run
func (o *Observer) RecordRun(report *domain.RunReport) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runs = append(o.runs, runRecord{
		Passed:   report.Status == domain.RunPassed,
		Duration: report.Duration(),
		Cases:    len(report.Cases),
	})
}

// GetMetrics returns aggregated metrics
func (o *Observer) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var metrics Metrics
	var totalDuration time.Duration

	for _, r := range o.runs {
		metrics.TotalRuns++
		if r.Passed {
			metrics.TotalPassed++
		} else {
			metrics.TotalFailed++
		}
		metrics.TotalCases += r.Cases
		totalDuration += r.Duration
	}

	if metrics.TotalRuns > 0 {
		metrics.AvgDuration = totalDuration / time.Duration(metrics.TotalRuns)

		last := o.runs[len(o.runs)-1].Passed
		metrics.LastPassed = last
		for i := len(o.runs) - 1; i >= 0 && o.runs[i].Passed == last; i-- {
			metrics.Streak++
		}
	}

	return metrics
}
