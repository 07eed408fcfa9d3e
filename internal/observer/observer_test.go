package observer

import (
	"testing"
	"time"

	"github.com/hochfrequenz/advent-runner/internal/domain"
)

func finishedReport(id string, status domain.RunStatus, took time.Duration, cases int) *domain.RunReport {
	finished := time.Now()
	return &domain.RunReport{
		ID:         id,
		Status:     status,
		StartedAt:  finished.Add(-took),
		FinishedAt: &finished,
		Cases:      make([]domain.CaseResult, cases),
	}
}

func TestObserver_IsSlow(t *testing.T) {
	obs := New(5 * time.Second)

	if !obs.IsSlow(finishedReport("a", domain.RunPassed, 10*time.Second, 1)) {
		t.Error("run taking 10s should be slow")
	}
	if obs.IsSlow(finishedReport("b", domain.RunPassed, 2*time.Second, 1)) {
		t.Error("run taking 2s should not be slow")
	}
	if obs.IsSlow(&domain.RunReport{StartedAt: time.Now().Add(-time.Hour)}) {
		t.Error("unfinished run should not be slow")
	}
	if New(0).IsSlow(finishedReport("c", domain.RunPassed, time.Hour, 1)) {
		t.Error("zero threshold should disable the check")
	}
}

func TestObserver_Metrics(t *testing.T) {
	obs := New(0)

	obs.RecordRun(finishedReport("r1", domain.RunFailed, 1*time.Second, 2))
	obs.RecordRun(finishedReport("r2", domain.RunPassed, 2*time.Second, 3))
	obs.RecordRun(finishedReport("r3", domain.RunPassed, 3*time.Second, 3))

	metrics := obs.GetMetrics()

	if metrics.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3", metrics.TotalRuns)
	}
	if metrics.TotalPassed != 2 || metrics.TotalFailed != 1 {
		t.Errorf("passed/failed = %d/%d, want 2/1", metrics.TotalPassed, metrics.TotalFailed)
	}
	if metrics.TotalCases != 8 {
		t.Errorf("TotalCases = %d, want 8", metrics.TotalCases)
	}
	if metrics.AvgDuration != 2*time.Second {
		t.Errorf("AvgDuration = %v, want 2s", metrics.AvgDuration)
	}
	if metrics.Streak != 2 || !metrics.LastPassed {
		t.Errorf("Streak = %d passing %v, want 2 passing", metrics.Streak, metrics.LastPassed)
	}

	obs.RecordRun(finishedReport("r4", domain.RunFailed, 2*time.Second, 1))
	if m := obs.GetMetrics(); m.Streak != 1 || m.LastPassed {
		t.Errorf("after failure Streak = %d passing %v, want 1 failing", m.Streak, m.LastPassed)
	}
}

func TestObserver_Empty(t *testing.T) {
	if m := New(0).GetMetrics(); m != (Metrics{}) {
		t.Errorf("metrics = %+v, want zero", m)
	}
}
