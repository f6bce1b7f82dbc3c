package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/adapter"
	"justice-agent-tools/internal/domain/ports/repository"
	"justice-agent-tools/internal/domain/validator"
	"justice-agent-tools/internal/infra/logging"
	"justice-agent-tools/internal/infra/metrics"
)

const (
	ToolProcessConsultation  = "process_consultation"
	ToolDocumentConsultation = "document_consultation"
	ToolHybridSearch         = "hybrid_process_search"
)

// Compile-time check
var _ ConsultationUseCase = (*consultationUC)(nil)

// ConsultationUseCase is the synchronous agent-facing surface: free text in,
// one envelope out. Implementations never return an error; every outcome is
// folded into the envelope.
type ConsultationUseCase interface {
	// ConsultProcess extracts a CNJ process number from userInput and runs a
	// full remote search for it.
	ConsultProcess(ctx context.Context, userInput string) *model.ToolResponse
	// ConsultDocument does the same for a CPF/CNPJ document.
	ConsultDocument(ctx context.Context, userInput string) *model.ToolResponse
}

type consultationUC struct {
	gateway adapter.SearchGateway
	poller  *Poller
	history repository.ConsultationRepository // nil disables history
	log     *zerolog.Logger

	mu     sync.Mutex
	authOK bool
}

func NewConsultationUseCase(
	gateway adapter.SearchGateway,
	poller *Poller,
	history repository.ConsultationRepository,
	logger *zerolog.Logger,
) *consultationUC {
	return &consultationUC{gateway: gateway, poller: poller, history: history, log: logger}
}

func (u *consultationUC) ConsultProcess(ctx context.Context, userInput string) *model.ToolResponse {
	asm := assembler{tool: ToolProcessConsultation}
	ctx = logging.WithTool(ctx, asm.tool)
	defer logging.TraceDuration(logging.With(ctx, u.log), "ConsultationUC.ConsultProcess")()

	p, ok := validator.ExtractProcessNumber(userInput)
	if !ok {
		metrics.IncConsultation(asm.tool, model.CodeNoProcessFound, 0)
		return asm.failure(model.CodeNoProcessFound,
			"No valid process number found in your message. Please provide a process number in the format: NNNNNNN-DD.AAAA.J.TR.OOOO")
	}
	id := model.Identifier{Kind: model.IdentifierKindProcess, Process: &p}
	return u.consult(ctx, asm, id)
}

func (u *consultationUC) ConsultDocument(ctx context.Context, userInput string) *model.ToolResponse {
	asm := assembler{tool: ToolDocumentConsultation}
	ctx = logging.WithTool(ctx, asm.tool)
	defer logging.TraceDuration(logging.With(ctx, u.log), "ConsultationUC.ConsultDocument")()

	d, ok := validator.ExtractDocument(userInput)
	if !ok {
		metrics.IncConsultation(asm.tool, model.CodeNoDocumentFound, 0)
		return asm.failure(model.CodeNoDocumentFound,
			"No valid CPF or CNPJ found in your message. Please provide a document with its check digits.")
	}
	id := model.Identifier{Kind: d.Kind, Document: &d}
	return u.consult(ctx, asm, id)
}

// consult runs the shared pipeline: auth probe, initiate, poll, fetch
// results, assemble, record.
func (u *consultationUC) consult(ctx context.Context, asm assembler, id model.Identifier) *model.ToolResponse {
	start := time.Now()
	log := logging.With(ctx, u.log)

	resp := u.run(ctx, asm, id, log)
	u.record(ctx, asm.tool, id, resp, time.Since(start))
	return resp
}

func (u *consultationUC) run(ctx context.Context, asm assembler, id model.Identifier, log *zerolog.Logger) *model.ToolResponse {
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
	log.Info().Str("job_id", info.JobID).Str("search_type", string(id.SearchType())).Msg("search initiated")

	job, err := u.poller.AwaitCompletion(ctx, info.JobID, func(ctx context.Context) (*model.SearchJob, error) {
		return u.gateway.Status(ctx, info.JobID)
	})
	if err != nil {
		return asm.fromError(err)
	}
	if job.Status == model.SearchJobStatusFailed {
		log.Warn().Str("job_id", info.JobID).Str("error_code", job.ErrorCode).Msg("remote search failed")
		return asm.fromFailedJob(job)
	}

	result := job.Result
	if len(result) == 0 {
		// status endpoint did not inline the payload; fetch the consolidated one
		result, err = u.gateway.Results(ctx, id.String())
		if err != nil {
			return asm.fromError(err)
		}
	}
	return asm.success(id, info, result, "api")
}

// ensureAuth probes the credential once; a success latches, a failure is
// retried on the next consultation.
func (u *consultationUC) ensureAuth(ctx context.Context) error {
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

// record updates metrics and, when history is enabled, persists the outcome.
// Persistence is best effort: a storage fault never changes the envelope.
func (u *consultationUC) record(ctx context.Context, tool string, id model.Identifier, resp *model.ToolResponse, elapsed time.Duration) {
	code := ""
	if resp.Error != nil {
		code = resp.Error.Code
	}
	metrics.IncConsultation(tool, code, elapsed)

	if u.history == nil {
		return
	}
	c := &model.Consultation{
		ID:         ulid.Make().String(),
		Tool:       tool,
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
