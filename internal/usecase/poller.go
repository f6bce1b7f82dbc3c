package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"justice-agent-tools/internal/config"
	"justice-agent-tools/internal/domain"
	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/infra/metrics"
)

// StatusFunc reports the current remote snapshot for the job being polled.
type StatusFunc func(ctx context.Context) (*model.SearchJob, error)

// PollConfig bounds one polling loop.
type PollConfig struct {
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxWait              time.Duration
	MaxTransportFailures int
}

func PollConfigFrom(cfg config.PollingConfig) PollConfig {
	return PollConfig{
		InitialInterval:      cfg.InitialInterval,
		MaxInterval:          cfg.MaxInterval,
		Multiplier:           cfg.Multiplier,
		MaxWait:              cfg.MaxWait,
		MaxTransportFailures: cfg.MaxTransportFailures,
	}
}

func (c PollConfig) withDefaults() PollConfig {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 2 * time.Second
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2.0
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 15 * time.Minute
	}
	if c.MaxTransportFailures <= 0 {
		c.MaxTransportFailures = 5
	}
	return c
}

// pollAttempt is the ephemeral per-tick record; it exists only to compute and
// log the next wait.
type pollAttempt struct {
	number   int
	interval time.Duration
	elapsed  time.Duration
}

// Poller drives repeated status checks with bounded exponential backoff until
// the job reaches a terminal state, the ceiling is hit, or the transport
// failure budget runs out. One Poller is safe for concurrent use; each call
// owns its own loop state.
type Poller struct {
	cfg PollConfig
	log *zerolog.Logger
}

func NewPoller(cfg PollConfig, logger *zerolog.Logger) *Poller {
	return &Poller{cfg: cfg.withDefaults(), log: logger}
}

// AwaitCompletion polls status until a terminal snapshot is returned.
// The loop always sleeps before the first check: the remote job cannot finish
// faster than the minimum interval, and checking immediately after submission
// would only hammer the service.
//
// Transport faults are absorbed as non-terminal ticks until more than
// MaxTransportFailures happen consecutively. Auth and request faults abort
// immediately. Cancelling ctx aborts promptly at any suspension point; the
// remote search continues independently.
func (p *Poller) AwaitCompletion(ctx context.Context, jobID string, status StatusFunc) (*model.SearchJob, error) {
	cfg := p.cfg
	start := time.Now()
	interval := cfg.InitialInterval
	transportFailures := 0

	for attempt := 1; ; attempt++ {
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}

		job, err := status(ctx)
		switch {
		case err == nil:
			transportFailures = 0
			if job.Status.Terminal() {
				elapsed := time.Since(start)
				metrics.ObservePoll(attempt, elapsed, string(job.Status))
				p.log.Debug().Str("job_id", jobID).Int("attempts", attempt).
					Dur("elapsed", elapsed).Str("status", string(job.Status)).
					Msg("polling finished")
				return job, nil
			}
		case errors.Is(err, domain.ErrTransport):
			transportFailures++
			metrics.IncTransportFailure()
			if transportFailures > cfg.MaxTransportFailures {
				metrics.ObservePoll(attempt, time.Since(start), "transport_error")
				return nil, fmt.Errorf("polling aborted after %d consecutive transport failures: %w", transportFailures, err)
			}
			p.log.Warn().Str("job_id", jobID).Int("consecutive_failures", transportFailures).
				Err(err).Msg("transient transport failure during poll")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			// auth or request faults are not retried here
			metrics.ObservePoll(attempt, time.Since(start), "error")
			return nil, err
		}

		next := pollAttempt{
			number:   attempt,
			interval: nextInterval(interval, cfg),
			elapsed:  time.Since(start),
		}
		p.log.Trace().Str("job_id", jobID).Int("attempt", next.number).
			Dur("next_interval", next.interval).Dur("elapsed", next.elapsed).
			Msg("poll tick")

		if next.elapsed >= cfg.MaxWait {
			metrics.ObservePoll(attempt, next.elapsed, "timeout")
			return nil, fmt.Errorf("%w: waited %s over %d attempts", domain.ErrPollTimeout, next.elapsed.Round(time.Millisecond), attempt)
		}
		interval = next.interval
	}
}

func nextInterval(cur time.Duration, cfg PollConfig) time.Duration {
	next := time.Duration(float64(cur) * cfg.Multiplier)
	if next > cfg.MaxInterval {
		next = cfg.MaxInterval
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
