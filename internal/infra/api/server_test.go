//go:build !integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain/model"
	"justice-agent-tools/internal/infra/api"
)

type stubConsult struct {
	lastQuery string
	resp      *model.ToolResponse
}

func (s *stubConsult) ConsultProcess(ctx context.Context, q string) *model.ToolResponse {
	s.lastQuery = q
	return s.resp
}

func (s *stubConsult) ConsultDocument(ctx context.Context, q string) *model.ToolResponse {
	s.lastQuery = q
	return s.resp
}

type stubHybrid struct {
	resp *model.ToolResponse
}

func (s *stubHybrid) Search(ctx context.Context, q string) *model.ToolResponse { return s.resp }

type stubGateway struct {
	healthErr error
}

func (s *stubGateway) StartSearch(ctx context.Context, identifier string, st model.SearchType) (*model.SearchInfo, error) {
	return nil, nil
}
func (s *stubGateway) Status(ctx context.Context, jobID string) (*model.SearchJob, error) {
	return nil, nil
}
func (s *stubGateway) Results(ctx context.Context, identifier string) (json.RawMessage, error) {
	return nil, nil
}
func (s *stubGateway) CheckAuth(ctx context.Context) error { return nil }
func (s *stubGateway) Health(ctx context.Context) (json.RawMessage, error) {
	if s.healthErr != nil {
		return nil, s.healthErr
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

func successEnvelope() *model.ToolResponse {
	return &model.ToolResponse{
		Status: "success",
		Tool:   "process_consultation",
		Data:   json.RawMessage(`{"total_processos":1}`),
	}
}

func newTestServer(t *testing.T, opts api.ServerOptions, consult *stubConsult, hybrid *stubHybrid, gw *stubGateway) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	s := api.NewServer(opts, consult, hybrid, gw, &logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, key string, body interface{}) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Service-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_ConsultRoutes(t *testing.T) {
	consult := &stubConsult{resp: successEnvelope()}
	hybrid := &stubHybrid{resp: successEnvelope()}
	srv := newTestServer(t, api.ServerOptions{ServiceKeys: []string{"svc-key"}}, consult, hybrid, &stubGateway{})

	t.Run("process route returns the envelope verbatim", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/v1/consult/process", "svc-key", map[string]string{"query": "find 1234567-47.2023.8.26.0100"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status: %d", resp.StatusCode)
		}
		var env model.ToolResponse
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatal(err)
		}
		if env.Status != "success" {
			t.Errorf("envelope status: %s", env.Status)
		}
		if consult.lastQuery != "find 1234567-47.2023.8.26.0100" {
			t.Errorf("query passed through: %q", consult.lastQuery)
		}
	})

	t.Run("error envelopes still ship with HTTP 200", func(t *testing.T) {
		consult.resp = &model.ToolResponse{
			Status: "error",
			Tool:   "process_consultation",
			Data:   json.RawMessage("null"),
			Error:  &model.ToolError{Code: model.CodeNoProcessFound, Message: "nothing there"},
		}
		resp := postJSON(t, srv.URL+"/api/v1/consult/process", "svc-key", map[string]string{"query": "hello there"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status: %d", resp.StatusCode)
		}
		var env model.ToolResponse
		_ = json.NewDecoder(resp.Body).Decode(&env)
		if env.Error == nil || env.Error.Code != model.CodeNoProcessFound {
			t.Errorf("envelope: %+v", env)
		}
	})

	t.Run("missing query is a 400", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/v1/consult/document", "svc-key", map[string]string{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/consult/hybrid", bytes.NewReader([]byte("{not json")))
		req.Header.Set("X-Service-Key", "svc-key")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})
}

func TestServer_Guards(t *testing.T) {
	t.Run("wrong service key is a 401", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{ServiceKeys: []string{"svc-key"}}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{})
		resp := postJSON(t, srv.URL+"/api/v1/consult/process", "nope", map[string]string{"query": "x"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})

	t.Run("empty key list disables the guard", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{})
		resp := postJSON(t, srv.URL+"/api/v1/consult/process", "", map[string]string{"query": "x"})
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})

	t.Run("limiter rejection is a 429", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{Limiter: denyAll{}}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{})
		resp := postJSON(t, srv.URL+"/api/v1/consult/process", "", map[string]string{"query": "x"})
		if resp.StatusCode != http.StatusTooManyRequests {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})

	t.Run("health bypasses the guards", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{ServiceKeys: []string{"svc-key"}}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{})
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status: %d", resp.StatusCode)
		}
		var h struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&h)
		if h.Status != "ok" {
			t.Errorf("health: %+v", h)
		}
	})

	t.Run("dead upstream degrades health", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{healthErr: context.DeadlineExceeded})
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var h struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&h)
		if h.Status != "degraded" {
			t.Errorf("health: %+v", h)
		}
	})

	t.Run("metrics endpoint is exposed", func(t *testing.T) {
		srv := newTestServer(t, api.ServerOptions{}, &stubConsult{resp: successEnvelope()}, &stubHybrid{resp: successEnvelope()}, &stubGateway{})
		resp, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status: %d", resp.StatusCode)
		}
	})
}
