package model

import "time"

// RunStatus represents the current state of an extraction run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusError     RunStatus = "error"
)

// validTransitions maps each status to the statuses it may move to.
// All terminal states have no outgoing edges; there is no way back to pending.
var validTransitions = map[RunStatus][]RunStatus{
	RunStatusPending: {RunStatusCompleted, RunStatusFailed, RunStatusError},
}

// CanTransition reports whether a run in status s may move to status to.
func (s RunStatus) CanTransition(to RunStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final status.
func (s RunStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// RunMetrics summarizes the outcome of a completed ingestion run.
type RunMetrics struct {
	Total      int `json:"total"`
	Normalized int `json:"normalized"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`
}

// ExtractionRun tracks one execution of the external scraping job.
// The row is created when the job launches; this subsystem owns only the
// status, metrics, error and finished_at fields.
type ExtractionRun struct {
	ID           string      `json:"id"`
	RemoteRunID  string      `json:"remote_run_id"`
	CampaignID   string      `json:"campaign_id"`
	ActorKey     string      `json:"actor_key"`
	Status       RunStatus   `json:"status"`
	Metrics      *RunMetrics `json:"metrics,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}
