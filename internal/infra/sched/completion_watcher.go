package sched

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/adapter"
	"justice-agent-tools/internal/domain/ports/repository"
	"justice-agent-tools/internal/infra/metrics"
	"justice-agent-tools/internal/infra/worker"
	"justice-agent-tools/internal/usecase"
)

// trackedJob is a remote search that outlived its synchronous polling window.
type trackedJob struct {
	jobID      string
	identifier string
	searchType model.SearchType
	since      time.Time
}

// CompletionWatcher keeps probing handed-off jobs in the background and
// records their eventual outcome in the consultation history. Jobs older than
// maxAge are abandoned with a timeout row so the tracked set cannot grow
// without bound.
type CompletionWatcher struct {
	gateway  adapter.SearchGateway
	history  repository.ConsultationRepository
	pool     *worker.Pool
	interval time.Duration
	maxAge   time.Duration
	log      *zerolog.Logger

	mu       sync.Mutex
	jobs     map[string]trackedJob
	inflight map[string]bool
}

var _ usecase.JobTracker = (*CompletionWatcher)(nil)

func NewCompletionWatcher(
	gateway adapter.SearchGateway,
	history repository.ConsultationRepository,
	pool *worker.Pool,
	interval, maxAge time.Duration,
	logger *zerolog.Logger,
) *CompletionWatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &CompletionWatcher{
		gateway:  gateway,
		history:  history,
		pool:     pool,
		interval: interval,
		maxAge:   maxAge,
		log:      logger,
		jobs:     make(map[string]trackedJob),
		inflight: make(map[string]bool),
	}
}

// Track registers a job for background completion. Re-tracking the same job
// keeps the original deadline.
func (w *CompletionWatcher) Track(jobID, identifier string, searchType model.SearchType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.jobs[jobID]; ok {
		return
	}
	w.jobs[jobID] = trackedJob{jobID: jobID, identifier: identifier, searchType: searchType, since: time.Now()}
	metrics.SetWatchedJobs(len(w.jobs))
	w.log.Info().Str("job_id", jobID).Str("identifier", identifier).Msg("job tracked for background completion")
}

// Watched reports the current tracked-set size.
func (w *CompletionWatcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.jobs)
}

// Start runs the sweep loop until ctx is cancelled.
// This should be run in a goroutine.
func (w *CompletionWatcher) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("completion watcher started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("completion watcher stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep abandons expired jobs and submits one probe per remaining job.
func (w *CompletionWatcher) sweep(ctx context.Context) {
	w.mu.Lock()
	var due []trackedJob
	for id, job := range w.jobs {
		if time.Since(job.since) > w.maxAge {
			delete(w.jobs, id)
			go w.abandon(ctx, job)
			continue
		}
		if !w.inflight[id] {
			w.inflight[id] = true
			due = append(due, job)
		}
	}
	metrics.SetWatchedJobs(len(w.jobs))
	w.mu.Unlock()

	for _, job := range due {
		job := job
		if err := w.pool.Submit(func(ctx context.Context) error {
			defer w.clearInflight(job.jobID)
			w.probe(ctx, job)
			return nil
		}); err != nil {
			w.clearInflight(job.jobID)
			w.log.Warn().Str("job_id", job.jobID).Err(err).Msg("probe not scheduled")
		}
	}
}

func (w *CompletionWatcher) clearInflight(jobID string) {
	w.mu.Lock()
	delete(w.inflight, jobID)
	w.mu.Unlock()
}

func (w *CompletionWatcher) untrack(jobID string) {
	w.mu.Lock()
	delete(w.jobs, jobID)
	metrics.SetWatchedJobs(len(w.jobs))
	w.mu.Unlock()
}

// probe checks one job and, on a terminal state, records the outcome and
// stops tracking it. Transient faults leave the job for the next sweep.
func (w *CompletionWatcher) probe(ctx context.Context, job trackedJob) {
	snapshot, err := w.gateway.Status(ctx, job.jobID)
	if err != nil {
		w.log.Warn().Str("job_id", job.jobID).Err(err).Msg("background status check failed")
		return
	}
	if !snapshot.Status.Terminal() {
		return
	}

	if snapshot.Status == model.SearchJobStatusFailed {
		code := snapshot.ErrorCode
		if code == "" {
			code = model.CodeSearchFailed
		}
		w.record(ctx, job, "error", code, nil, 0)
		w.untrack(job.jobID)
		return
	}

	result := snapshot.Result
	if len(result) == 0 {
		result, err = w.gateway.Results(ctx, job.identifier)
		if err != nil {
			w.log.Warn().Str("job_id", job.jobID).Err(err).Msg("background results fetch failed")
			return
		}
	}
	var rs struct {
		Total int `json:"total_processos"`
	}
	_ = json.Unmarshal(result, &rs)

	w.record(ctx, job, "success", "", result, rs.Total)
	w.untrack(job.jobID)
	w.log.Info().Str("job_id", job.jobID).Int("total", rs.Total).Msg("background search completed")
}

// abandon writes a timeout row for a job that stayed pending past maxAge.
func (w *CompletionWatcher) abandon(ctx context.Context, job trackedJob) {
	w.log.Warn().Str("job_id", job.jobID).Dur("age", time.Since(job.since)).Msg("abandoning job past max age")
	w.record(ctx, job, "error", model.CodePollingTimeout, nil, 0)
}

func (w *CompletionWatcher) record(ctx context.Context, job trackedJob, status, code string, result json.RawMessage, total int) {
	if w.history == nil {
		return
	}
	c := &model.Consultation{
		ID:             ulid.Make().String(),
		Tool:           usecase.ToolHybridSearch,
		Identifier:     job.identifier,
		SearchType:     job.searchType,
		Status:         status,
		Code:           code,
		TotalProcesses: total,
		Result:         result,
		DurationMs:     time.Since(job.since).Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if err := w.history.Save(ctx, c); err != nil {
		w.log.Error().Str("job_id", job.jobID).Err(err).Msg("failed to record background outcome")
	}
}
