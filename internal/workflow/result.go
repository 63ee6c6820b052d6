package workflow

import "time"

// Outcome classifies how a manager's run ended.
type Outcome string

const (
	// OutcomeCompleted means every stage ran; warn-level failures allowed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means a raising stage failed and the manager stopped.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the manager never started (ineligible, skipped by
	// configuration, or behind a cancellation).
	OutcomeSkipped Outcome = "skipped"
	// OutcomeCancelled means the run was interrupted during this manager.
	OutcomeCancelled Outcome = "cancelled"
)

// Result records one manager's outcome within a run.
type Result struct {
	Manager  string
	Label    string
	Outcome  Outcome
	Reason   string
	Err      error
	Duration time.Duration
}

// Summary aggregates a whole run.
type Summary struct {
	RunID    string
	Results  []Result
	Duration time.Duration
}

// Counts returns the number of results per outcome.
func (s Summary) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, 4)
	for _, res := range s.Results {
		counts[res.Outcome]++
	}
	return counts
}

// Failed reports whether any manager failed outright.
func (s Summary) Failed() bool {
	for _, res := range s.Results {
		if res.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Cancelled reports whether the run was interrupted.
func (s Summary) Cancelled() bool {
	for _, res := range s.Results {
		if res.Outcome == OutcomeCancelled {
			return true
		}
	}
	return false
}

// ExitCode maps the summary to the process exit code: failures win over
// cancellation, cancellation over success.
func (s Summary) ExitCode() int {
	switch {
	case s.Failed():
		return 1
	case s.Cancelled():
		return 130
	default:
		return 0
	}
}
