package domain

import "time"

// StepResult summarises one pipeline step of a run.
type StepResult struct {
	Step      string    `json:"step"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Issues    []Issue   `json:"issues,omitempty"`
	// Err is set when the step as a whole could not run.
	Err string `json:"error,omitempty"`
}

// RunReport aggregates the results of one run. It is kept in memory
// only, for logging and the trigger surface.
type RunReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
}

// Failed reports whether any step failed outright.
func (r RunReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != "" {
			return true
		}
	}
	return false
}
