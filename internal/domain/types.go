package domain

// RunStatus represents the outcome of a whole run
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunPassed  RunStatus = "passed"
	RunFailed  RunStatus = "failed"
)

// CaseStatus represents the outcome of a single test case
type CaseStatus string

const (
	CasePassed CaseStatus = "passed"
	// CaseFailed means the program ran but its output did not match.
	CaseFailed CaseStatus = "failed"
	// CaseErrored means the program could not run or exited non-zero.
	CaseErrored CaseStatus = "errored"
)
