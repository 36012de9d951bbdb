package models

import "time"

// RefreshJob tracks one background full-universe refresh run.
type RefreshJob struct {
	ID           string      `json:"id"`
	Mode         RefreshMode `json:"mode"`
	Force        bool        `json:"force"`
	Status       string      `json:"status"`
	TotalTickers int         `json:"total_tickers"`
	SuccessCount int         `json:"success_count"`
	FailedCount  int         `json:"failed_count"`
	StartedAt    time.Time   `json:"started_at"`
	CompletedAt  time.Time   `json:"completed_at,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Refresh job status constants
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)
