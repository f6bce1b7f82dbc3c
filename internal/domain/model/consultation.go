package model

import (
	"encoding/json"
	"time"
)

// Consultation is the persisted outcome of one tool invocation. Job state is
// never stored locally; this records only what the envelope already told the
// caller, so hybrid lookups and ops stats can reuse it.
type Consultation struct {
	ID             string // ULID, time-sortable
	Tool           string
	Identifier     string
	SearchType     SearchType
	Status         string // envelope status: success | error
	Code           string // envelope error code, empty on success
	TotalProcesses int
	Result         json.RawMessage
	DurationMs     int64
	CreatedAt      time.Time
}
