package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"justice-agent-tools/internal/domain"
	"justice-agent-tools/internal/domain/model"
)

// assembler maps terminal jobs and engine faults onto the uniform envelope.
// It never fails: whatever happens upstream, the calling agent receives a
// structured value.
type assembler struct {
	tool string
}

// resultSummary is the subset of the remote payload the summary block echoes.
type resultSummary struct {
	TotalProcessos    int    `json:"total_processos"`
	Documento         string `json:"documento"`
	SearchCompletedAt string `json:"search_completed_at"`
}

func (a assembler) success(id model.Identifier, info *model.SearchInfo, result json.RawMessage, source string) *model.ToolResponse {
	var rs resultSummary
	_ = json.Unmarshal(result, &rs) // best effort; zero values are acceptable
	if rs.Documento == "" {
		rs.Documento = id.String()
	}
	if rs.SearchCompletedAt == "" {
		rs.SearchCompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return &model.ToolResponse{
		Status:     "success",
		Tool:       a.tool,
		Query:      a.query(id),
		SearchInfo: info,
		Data:       result,
		Summary: &model.ToolSummary{
			TotalProcesses:    rs.TotalProcessos,
			DocumentSearched:  rs.Documento,
			SearchCompletedAt: rs.SearchCompletedAt,
			Source:            source,
		},
	}
}

func (a assembler) failure(code, message string) *model.ToolResponse {
	return &model.ToolResponse{
		Status: "error",
		Tool:   a.tool,
		Data:   json.RawMessage("null"),
		Error:  &model.ToolError{Code: code, Message: message},
	}
}

// fromError funnels every engine-level fault through the envelope shape with
// a stable code; raw errors never reach the calling agent.
func (a assembler) fromError(err error) *model.ToolResponse {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return a.failure(model.CodeAuthError, "API authentication failed: "+err.Error())
	case errors.Is(err, domain.ErrPollTimeout):
		return a.failure(model.CodePollingTimeout, "search did not finish before the polling ceiling: "+err.Error())
	case errors.Is(err, domain.ErrTransport):
		return a.failure(model.CodeTransportError, "could not reach the search service: "+err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		return a.failure(model.CodeSearchInitiationFailed, "the search service rejected the request: "+err.Error())
	case errors.Is(err, domain.ErrSearchFailed):
		return a.failure(model.CodeSearchFailed, err.Error())
	case errors.Is(err, domain.ErrResultsNotReady):
		return a.failure(model.CodeAPIError, "search finished but results are not consolidated yet: "+err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return a.failure(model.CodeAPIError, "consultation aborted: "+err.Error())
	default:
		return a.failure(model.CodeUnexpectedError, "an unexpected error occurred: "+err.Error())
	}
}

// fromFailedJob maps a job that reached the remote Failed state.
func (a assembler) fromFailedJob(job *model.SearchJob) *model.ToolResponse {
	code := job.ErrorCode
	if code == "" {
		code = model.CodeAPIError
	}
	return a.failure(model.CodeSearchFailed, "remote search failed with code "+code)
}

func (a assembler) query(id model.Identifier) *model.ToolQuery {
	q := &model.ToolQuery{SearchType: id.SearchType()}
	if id.Kind == model.IdentifierKindProcess {
		q.ProcessNumber = id.String()
	} else {
		q.Document = id.String()
	}
	return q
}
