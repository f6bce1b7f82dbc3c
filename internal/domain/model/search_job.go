package model

import (
	"encoding/json"
	"time"
)

type SearchJobStatus string

const (
	SearchJobStatusPending   SearchJobStatus = "pending"
	SearchJobStatusCompleted SearchJobStatus = "completed"
	SearchJobStatusFailed    SearchJobStatus = "failed"
)

// Terminal reports whether no further remote transition can occur.
func (s SearchJobStatus) Terminal() bool {
	return s == SearchJobStatusCompleted || s == SearchJobStatusFailed
}

// SearchJob is a read-only snapshot of a remote search job. The client never
// writes job state; every field mirrors what the status endpoint reported.
type SearchJob struct {
	JobID       string
	Identifier  string
	SearchType  SearchType
	Status      SearchJobStatus
	Progress    int    // 0..100, best effort
	Phase       string // remote worker phase label, informational
	ErrorCode   string // set when Status == failed
	Result      json.RawMessage
	SubmittedAt time.Time
	CheckedAt   time.Time
}

// SearchInfo is what the remote service returns when a search is accepted.
type SearchInfo struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id,omitempty"`
	UserRole string `json:"user_role,omitempty"`
}
