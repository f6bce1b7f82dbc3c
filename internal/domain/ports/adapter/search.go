package adapter

import (
	"context"
	"encoding/json"

	"justice-agent-tools/internal/domain/model"
)

// SearchGateway is the narrow transport seam to the remote search service.
// Implementations perform exactly one network round trip per call and carry
// no retry logic; backoff and retries belong to the polling engine.
type SearchGateway interface {
	// StartSearch submits an identifier and returns the accepted job info.
	StartSearch(ctx context.Context, identifier string, searchType model.SearchType) (*model.SearchInfo, error)
	// Status returns the current remote snapshot for a job.
	Status(ctx context.Context, jobID string) (*model.SearchJob, error)
	// Results fetches the consolidated payload for a completed search.
	Results(ctx context.Context, identifier string) (json.RawMessage, error)
	// CheckAuth probes whether the configured credential is accepted.
	CheckAuth(ctx context.Context) error
	// Health reports the remote service health payload.
	Health(ctx context.Context) (json.RawMessage, error)
}
