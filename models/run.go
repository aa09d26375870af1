package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
)

type SyncType string

const (
	SyncTypeDaily  SyncType = "daily_sync"
	SyncTypeManual SyncType = "manual_sync"
)

// SyncResult aggregates the counters of one sync run. Skipped fresh records
// are not counted anywhere.
type SyncResult struct {
	Added          int `json:"added"`
	Updated        int `json:"updated"`
	Errors         int `json:"errors"`
	TotalProcessed int `json:"totalProcessed"`
}

// Aggregate folds another result into r
func (r *SyncResult) Aggregate(other SyncResult) {
	r.Added += other.Added
	r.Updated += other.Updated
	r.Errors += other.Errors
	r.TotalProcessed += other.TotalProcessed
}

// SyncLog is the persisted record of a finished run.
type SyncLog struct {
	ID             int64     `json:"id" db:"id"`
	RunID          string    `json:"runId" db:"run_id"`
	Date           time.Time `json:"date" db:"date"`
	Type           SyncType  `json:"type" db:"type"`
	Status         RunStatus `json:"status" db:"status"`
	Added          int       `json:"added" db:"added"`
	Updated        int       `json:"updated" db:"updated"`
	Errors         int       `json:"errors" db:"errors"`
	TotalProcessed int       `json:"totalProcessed" db:"total_processed"`
	DurationMS     int64     `json:"durationMs" db:"duration_ms"`
}

func (l *SyncLog) Result() SyncResult {
	return SyncResult{
		Added:          l.Added,
		Updated:        l.Updated,
		Errors:         l.Errors,
		TotalProcessed: l.TotalProcessed,
	}
}
