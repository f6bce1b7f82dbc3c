//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/domain/ports/adapter"
	"justice-agent-tools/internal/domain/ports/repository"
)

// mockGateway is a hand-rolled SearchGateway double. Each behaviour is a
// function field; nil fields use a benign default. calls counts every remote
// round trip across all methods.
type mockGateway struct {
	mu    sync.Mutex
	calls int

	StartSearchFunc func(ctx context.Context, identifier string, st model.SearchType) (*model.SearchInfo, error)
	StatusFunc      func(ctx context.Context, jobID string) (*model.SearchJob, error)
	ResultsFunc     func(ctx context.Context, identifier string) (json.RawMessage, error)
	CheckAuthFunc   func(ctx context.Context) error
	HealthFunc      func(ctx context.Context) (json.RawMessage, error)
}

var _ adapter.SearchGateway = (*mockGateway)(nil)

func (m *mockGateway) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockGateway) StartSearch(ctx context.Context, identifier string, st model.SearchType) (*model.SearchInfo, error) {
	m.count()
	if m.StartSearchFunc != nil {
		return m.StartSearchFunc(ctx, identifier, st)
	}
	return &model.SearchInfo{JobID: "job-1", UserID: "u-1", UserRole: "ai_agent"}, nil
}

func (m *mockGateway) Status(ctx context.Context, jobID string) (*model.SearchJob, error) {
	m.count()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, jobID)
	}
	return &model.SearchJob{JobID: jobID, Status: model.SearchJobStatusCompleted}, nil
}

func (m *mockGateway) Results(ctx context.Context, identifier string) (json.RawMessage, error) {
	m.count()
	if m.ResultsFunc != nil {
		return m.ResultsFunc(ctx, identifier)
	}
	return json.RawMessage(`{"total_processos":1,"processos":[{"numero":"` + identifier + `"}]}`), nil
}

func (m *mockGateway) CheckAuth(ctx context.Context) error {
	m.count()
	if m.CheckAuthFunc != nil {
		return m.CheckAuthFunc(ctx)
	}
	return nil
}

func (m *mockGateway) Health(ctx context.Context) (json.RawMessage, error) {
	m.count()
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

// mockHistory is an in-memory ConsultationRepository.
type mockHistory struct {
	mu    sync.Mutex
	saved []*model.Consultation

	LatestFunc func(ctx context.Context, identifier string, since time.Time) (*model.Consultation, error)
	SaveErr    error
}

var _ repository.ConsultationRepository = (*mockHistory)(nil)

func (m *mockHistory) Save(ctx context.Context, c *model.Consultation) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	m.saved = append(m.saved, c)
	m.mu.Unlock()
	return nil
}

func (m *mockHistory) ListRecent(ctx context.Context, limit int) ([]*model.Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Consultation, 0, limit)
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[i])
	}
	return out, nil
}

func (m *mockHistory) LatestCompletedByIdentifier(ctx context.Context, identifier string, since time.Time) (*model.Consultation, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, identifier, since)
	}
	return nil, nil
}

func (m *mockHistory) CountByToolStatus(ctx context.Context) (map[string]map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]int)
	for _, c := range m.saved {
		if out[c.Tool] == nil {
			out[c.Tool] = make(map[string]int)
		}
		out[c.Tool][c.Status]++
	}
	return out, nil
}

func (m *mockHistory) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// mockTracker records handed-off jobs.
type mockTracker struct {
	mu      sync.Mutex
	tracked []string
}

func (m *mockTracker) Track(jobID, identifier string, st model.SearchType) {
	m.mu.Lock()
	m.tracked = append(m.tracked, jobID)
	m.mu.Unlock()
}

func (m *mockTracker) trackedJobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tracked...)
}

func fastPollConfig() PollConfig {
	return PollConfig{
		InitialInterval:      time.Millisecond,
		MaxInterval:          2 * time.Millisecond,
		Multiplier:           2,
		MaxWait:              200 * time.Millisecond,
		MaxTransportFailures: 5,
	}
}
