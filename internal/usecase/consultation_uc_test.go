//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"justice-agent-tools/internal/domain"
	"justice-agent-tools/internal/domain/model"
)

const validCNJ = "1234567-47.2023.8.26.0100"

func newConsultationUC(gw *mockGateway, history *mockHistory) *consultationUC {
	poller := testPoller(fastPollConfig())
	// a typed nil pointer must not reach the interface field
	if history == nil {
		return NewConsultationUseCase(gw, poller, nil, &testLogger)
	}
	return NewConsultationUseCase(gw, poller, history, &testLogger)
}

func TestConsultationUC_ConsultProcess(t *testing.T) {
	t.Run("full round trip yields a success envelope", func(t *testing.T) {
		gw := &mockGateway{
			StatusFunc: func(ctx context.Context, jobID string) (*model.SearchJob, error) {
				return &model.SearchJob{
					JobID:  jobID,
					Status: model.SearchJobStatusCompleted,
					Result: json.RawMessage(`{"total_processos":1,"documento":"` + validCNJ + `"}`),
				}, nil
			},
		}
		history := &mockHistory{}
		uc := newConsultationUC(gw, history)

		resp := uc.ConsultProcess(context.Background(), "please look up "+validCNJ+" for me")
		if !resp.Success() {
			t.Fatalf("expected success, got %+v", resp.Error)
		}
		if resp.Tool != ToolProcessConsultation {
			t.Errorf("tool: %s", resp.Tool)
		}
		if resp.Query == nil || resp.Query.ProcessNumber != validCNJ {
			t.Errorf("query: %+v", resp.Query)
		}
		if resp.Query.SearchType != model.SearchTypeProcess {
			t.Errorf("search type: %s", resp.Query.SearchType)
		}
		if resp.SearchInfo == nil || resp.SearchInfo.JobID != "job-1" {
			t.Errorf("search info: %+v", resp.SearchInfo)
		}
		if resp.Summary == nil || resp.Summary.TotalProcesses != 1 {
			t.Errorf("summary: %+v", resp.Summary)
		}
		if resp.Summary.Source != "api" {
			t.Errorf("source: %s", resp.Summary.Source)
		}
		var data struct {
			Total int `json:"total_processos"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil || data.Total != 1 {
			t.Errorf("data: %s err=%v", resp.Data, err)
		}
		if history.savedCount() != 1 {
			t.Errorf("expected one history row, got %d", history.savedCount())
		}
	})

	t.Run("plain text yields NO_PROCESS_FOUND without any network call", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), "hello there")
		if resp.Success() {
			t.Fatal("expected error envelope")
		}
		if resp.Error.Code != model.CodeNoProcessFound {
			t.Errorf("code: %s", resp.Error.Code)
		}
		if string(resp.Data) != "null" {
			t.Errorf("data: %s", resp.Data)
		}
		if gw.callCount() != 0 {
			t.Errorf("expected zero gateway calls, got %d", gw.callCount())
		}
	})

	t.Run("auth failure maps to AUTH_ERROR", func(t *testing.T) {
		gw := &mockGateway{
			CheckAuthFunc: func(ctx context.Context) error {
				return fmt.Errorf("%w: invalid key", domain.ErrAuth)
			},
		}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if resp.Success() || resp.Error.Code != model.CodeAuthError {
			t.Errorf("envelope: %+v", resp)
		}
	})

	t.Run("auth probe latches after first success", func(t *testing.T) {
		authCalls := 0
		gw := &mockGateway{
			CheckAuthFunc: func(ctx context.Context) error {
				authCalls++
				return nil
			},
		}
		uc := newConsultationUC(gw, nil)

		uc.ConsultProcess(context.Background(), validCNJ)
		uc.ConsultProcess(context.Background(), validCNJ)
		if authCalls != 1 {
			t.Errorf("expected one auth probe, got %d", authCalls)
		}
	})

	t.Run("rejected submission maps to SEARCH_INITIATION_FAILED", func(t *testing.T) {
		gw := &mockGateway{
			StartSearchFunc: func(ctx context.Context, identifier string, st model.SearchType) (*model.SearchInfo, error) {
				return nil, fmt.Errorf("%w: quota exceeded", domain.ErrBadRequest)
			},
		}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if resp.Success() || resp.Error.Code != model.CodeSearchInitiationFailed {
			t.Errorf("envelope: %+v", resp)
		}
	})

	t.Run("failed job maps to SEARCH_FAILED", func(t *testing.T) {
		gw := &mockGateway{
			StatusFunc: func(ctx context.Context, jobID string) (*model.SearchJob, error) {
				return &model.SearchJob{JobID: jobID, Status: model.SearchJobStatusFailed, ErrorCode: "SCRAPER_BLOCKED"}, nil
			},
		}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if resp.Success() || resp.Error.Code != model.CodeSearchFailed {
			t.Errorf("envelope: %+v", resp)
		}
	})

	t.Run("never-finishing job maps to POLLING_TIMEOUT", func(t *testing.T) {
		gw := &mockGateway{
			StatusFunc: func(ctx context.Context, jobID string) (*model.SearchJob, error) {
				return &model.SearchJob{JobID: jobID, Status: model.SearchJobStatusPending}, nil
			},
		}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if resp.Success() || resp.Error.Code != model.CodePollingTimeout {
			t.Errorf("envelope: %+v", resp)
		}
	})

	t.Run("fetches consolidated results when status has no payload", func(t *testing.T) {
		fetched := false
		gw := &mockGateway{
			ResultsFunc: func(ctx context.Context, identifier string) (json.RawMessage, error) {
				fetched = true
				return json.RawMessage(`{"total_processos":2}`), nil
			},
		}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if !resp.Success() {
			t.Fatalf("expected success, got %+v", resp.Error)
		}
		if !fetched {
			t.Error("expected a consolidated results fetch")
		}
		if resp.Summary.TotalProcesses != 2 {
			t.Errorf("summary: %+v", resp.Summary)
		}
	})

	t.Run("history faults never change the envelope", func(t *testing.T) {
		gw := &mockGateway{}
		history := &mockHistory{SaveErr: fmt.Errorf("pool closed")}
		uc := newConsultationUC(gw, history)

		resp := uc.ConsultProcess(context.Background(), validCNJ)
		if !resp.Success() {
			t.Errorf("expected success despite storage fault, got %+v", resp.Error)
		}
	})
}

func TestConsultationUC_ConsultDocument(t *testing.T) {
	t.Run("CPF round trip", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultDocument(context.Background(), "documentos de 529.982.247-25 por favor")
		if !resp.Success() {
			t.Fatalf("expected success, got %+v", resp.Error)
		}
		if resp.Tool != ToolDocumentConsultation {
			t.Errorf("tool: %s", resp.Tool)
		}
		if resp.Query.Document != "529.982.247-25" {
			t.Errorf("query document: %s", resp.Query.Document)
		}
		if resp.Query.SearchType != model.SearchTypeDocument {
			t.Errorf("search type: %s", resp.Query.SearchType)
		}
	})

	t.Run("no document yields NO_DOCUMENT_FOUND without network calls", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultDocument(context.Background(), "find everything about acme ltda")
		if resp.Success() || resp.Error.Code != model.CodeNoDocumentFound {
			t.Errorf("envelope: %+v", resp)
		}
		if gw.callCount() != 0 {
			t.Errorf("expected zero gateway calls, got %d", gw.callCount())
		}
	})

	t.Run("CNPJ with check-digit error is ignored", func(t *testing.T) {
		gw := &mockGateway{}
		uc := newConsultationUC(gw, nil)

		resp := uc.ConsultDocument(context.Background(), "11.222.333/0001-82")
		if resp.Success() || resp.Error.Code != model.CodeNoDocumentFound {
			t.Errorf("envelope: %+v", resp)
		}
	})
}
