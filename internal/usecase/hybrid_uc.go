package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain"
	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/adapter"
	"justice-agent-tools/internal/domain/ports/repository"
	"justice-agent-tools/internal/domain/validator"
	"justice-agent-tools/internal/infra/logging"
	"justice-agent-tools/internal/infra/metrics"
)

// JobTracker receives jobs whose synchronous polling window expired so a
// background watcher can record the eventual outcome.
type JobTracker interface {
	Track(jobID, identifier string, searchType model.SearchType)
}

// Compile-time check
var _ HybridSearchUseCase = (*hybridUC)(nil)

// HybridSearchUseCase answers from local history when a fresh result exists
// and falls back to a remote search otherwise. When the remote search outlives
// the polling ceiling the job is handed to the tracker and the caller gets a
// SEARCH_IN_PROGRESS envelope instead of a plain timeout.
type HybridSearchUseCase interface {
	Search(ctx context.Context, userInput string) *model.ToolResponse
}

type hybridUC struct {
	gateway   adapter.SearchGateway
	poller    *Poller
	history   repository.ConsultationRepository // nil disables the local path
	tracker   JobTracker                        // nil disables the handoff
	freshness time.Duration
	log       *zerolog.Logger

	mu     sync.Mutex
	authOK bool
}

func NewHybridSearchUseCase(
	gateway adapter.SearchGateway,
	poller *Poller,
	history repository.ConsultationRepository,
	tracker JobTracker,
	freshness time.Duration,
	logger *zerolog.Logger,
) *hybridUC {
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	return &hybridUC{
		gateway:   gateway,
		poller:    poller,
		history:   history,
		tracker:   tracker,
		freshness: freshness,
		log:       logger,
	}
}

func (u *hybridUC) Search(ctx context.Context, userInput string) *model.ToolResponse {
	asm := assembler{tool: ToolHybridSearch}
	ctx = logging.WithTool(ctx, asm.tool)
	defer logging.TraceDuration(logging.With(ctx, u.log), "HybridUC.Search")()

	p, ok := validator.ExtractProcessNumber(userInput)
	if !ok {
		metrics.IncConsultation(asm.tool, model.CodeNoProcessFound, 0)
		return asm.failure(model.CodeNoProcessFound,
			"No valid process number found in your message. Please provide a process number in the format: NNNNNNN-DD.AAAA.J.TR.OOOO")
	}
	id := model.Identifier{Kind: model.IdentifierKindProcess, Process: &p}

	start := time.Now()
	log := logging.With(ctx, u.log)

	if resp := u.localLookup(ctx, asm, id, log); resp != nil {
		metrics.IncConsultation(asm.tool, "", time.Since(start))
		return resp
	}

	resp := u.remote(ctx, asm, id, log)
	u.record(ctx, id, resp, time.Since(start))
	return resp
}

// localLookup returns a fresh prior result or nil when the remote path must
// run. History rows, not job state: only completed consultations live there.
func (u *hybridUC) localLookup(ctx context.Context, asm assembler, id model.Identifier, log *zerolog.Logger) *model.ToolResponse {
	if u.history == nil {
		return nil
	}
	rec, err := u.history.LatestCompletedByIdentifier(ctx, id.String(), time.Now().Add(-u.freshness))
	if err != nil {
		log.Warn().Err(err).Msg("local history lookup failed, falling back to remote")
		return nil
	}
	if rec == nil {
		return nil
	}
	log.Info().Str("consultation_id", rec.ID).Msg("answering from local history")
	return asm.success(id, nil, rec.Result, "local")
}

func (u *hybridUC) remote(ctx context.Context, asm assembler, id model.Identifier, log *zerolog.Logger) *model.ToolResponse {
	if err := u.ensureAuth(ctx); err != nil {
		log.Error().Err(err).Msg("authentication probe failed")
		return asm.fromError(err)
	}

	info, err := u.gateway.StartSearch(ctx, id.String(), id.SearchType())
	if err != nil {
		log.Error().Err(err).Msg("initiate search failed")
		return asm.fromError(err)
	}
	ctx = logging.WithJobID(ctx, info.JobID)

	job, err := u.poller.AwaitCompletion(ctx, info.JobID, func(ctx context.Context) (*model.SearchJob, error) {
		return u.gateway.Status(ctx, info.JobID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrPollTimeout) && u.tracker != nil {
			u.tracker.Track(info.JobID, id.String(), id.SearchType())
			log.Info().Str("job_id", info.JobID).Msg("polling ceiling hit, job handed to completion watcher")
			return asm.failure(model.CodeSearchInProgress,
				"the search is still running; its outcome will be recorded once the remote workers finish")
		}
		return asm.fromError(err)
	}
	if job.Status == model.SearchJobStatusFailed {
		return asm.fromFailedJob(job)
	}

	result := job.Result
	if len(result) == 0 {
		result, err = u.gateway.Results(ctx, id.String())
		if err != nil {
			return asm.fromError(err)
		}
	}
	return asm.success(id, info, result, "api")
}

func (u *hybridUC) ensureAuth(ctx context.Context) error {
	u.mu.Lock()
	ok := u.authOK
	u.mu.Unlock()
	if ok {
		return nil
	}
	if err := u.gateway.CheckAuth(ctx); err != nil {
		return err
	}
	u.mu.Lock()
	u.authOK = true
	u.mu.Unlock()
	return nil
}

func (u *hybridUC) record(ctx context.Context, id model.Identifier, resp *model.ToolResponse, elapsed time.Duration) {
	code := ""
	if resp.Error != nil {
		code = resp.Error.Code
	}
	metrics.IncConsultation(ToolHybridSearch, code, elapsed)

	if u.history == nil {
		return
	}
	c := &model.Consultation{
		ID:         ulid.Make().String(),
		Tool:       ToolHybridSearch,
		Identifier: id.String(),
		SearchType: id.SearchType(),
		Status:     resp.Status,
		Code:       code,
		Result:     resp.Data,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if resp.Summary != nil {
		c.TotalProcesses = resp.Summary.TotalProcesses
	}
	if err := u.history.Save(ctx, c); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("failed to record consultation")
	}
}
