package model

import "encoding/json"

// Stable envelope error codes surfaced to the calling agent.
const (
	CodeNoProcessFound         = "NO_PROCESS_FOUND"
	CodeNoDocumentFound        = "NO_DOCUMENT_FOUND"
	CodeSearchInitiationFailed = "SEARCH_INITIATION_FAILED"
	CodeAuthError              = "AUTH_ERROR"
	CodeTransportError         = "TRANSPORT_ERROR"
	CodePollingTimeout         = "POLLING_TIMEOUT"
	CodeSearchFailed           = "SEARCH_FAILED"
	CodeSearchInProgress       = "SEARCH_IN_PROGRESS"
	CodeAPIError               = "API_ERROR"
	CodeUnexpectedError        = "UNEXPECTED_ERROR"
)

// ToolQuery echoes what was searched.
type ToolQuery struct {
	ProcessNumber string     `json:"process_number,omitempty"`
	Document      string     `json:"document,omitempty"`
	SearchType    SearchType `json:"search_type"`
}

// ToolSummary is the compact digest appended to success envelopes.
type ToolSummary struct {
	TotalProcesses    int    `json:"total_processes"`
	DocumentSearched  string `json:"document_searched"`
	SearchCompletedAt string `json:"search_completed_at,omitempty"`
	Source            string `json:"source,omitempty"` // "api" | "local"
}

// ToolError carries a stable code plus a human-readable message.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolResponse is the single JSON shape the calling agent ever sees, success
// or failure. Data is the raw remote payload on success and null otherwise.
type ToolResponse struct {
	Status     string          `json:"status"` // "success" | "error"
	Tool       string          `json:"tool"`
	Query      *ToolQuery      `json:"query,omitempty"`
	SearchInfo *SearchInfo     `json:"search_info,omitempty"`
	Data       json.RawMessage `json:"data"`
	Summary    *ToolSummary    `json:"summary,omitempty"`
	Error      *ToolError      `json:"error,omitempty"`
}

func (r *ToolResponse) Success() bool { return r.Status == "success" }
