package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain/ports/adapter"
	"justice-agent-tools/internal/infra/logging"
	"justice-agent-tools/internal/usecase"
)

// Server exposes the consultation tools over HTTP for calling agents.
// Every tool route answers 200 with an envelope; HTTP-level failures are
// reserved for malformed requests and the guards.
type Server struct {
	consult usecase.ConsultationUseCase
	hybrid  usecase.HybridSearchUseCase
	gateway adapter.SearchGateway
	log     *zerolog.Logger

	srv *http.Server
}

type ServerOptions struct {
	Port           int
	ServiceKeys    []string
	RequestTimeout time.Duration
	Limiter        Limiter
}

func NewServer(
	opts ServerOptions,
	consult usecase.ConsultationUseCase,
	hybrid usecase.HybridSearchUseCase,
	gateway adapter.SearchGateway,
	logger *zerolog.Logger,
) *Server {
	s := &Server{consult: consult, hybrid: hybrid, gateway: gateway, log: logger}

	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(logger))
	r.Use(Recover(logger))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ServiceKey(opts.ServiceKeys, logger))
		r.Use(RateLimit(opts.Limiter, logger))
		if opts.RequestTimeout > 0 {
			r.Use(Timeout(opts.RequestTimeout))
		}
		r.Post("/consult/process", s.handleConsultProcess)
		r.Post("/consult/document", s.handleConsultDocument)
		r.Post("/consult/hybrid", s.handleHybrid)
	})

	s.srv = &http.Server{
		Addr:              addr(opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func addr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return ":" + strconv.Itoa(port)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("agent api listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// consultRequest is the body every tool route accepts. Query carries the
// free-form agent message; identifier extraction happens in the use case.
type consultRequest struct {
	Query string `json:"query"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (consultRequest, bool) {
	var req consultRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (s *Server) writeEnvelope(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to write envelope")
	}
}

func (s *Server) handleConsultProcess(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.writeEnvelope(w, s.consult.ConsultProcess(r.Context(), req.Query))
}

func (s *Server) handleConsultDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.writeEnvelope(w, s.consult.ConsultDocument(r.Context(), req.Query))
}

func (s *Server) handleHybrid(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.writeEnvelope(w, s.hybrid.Search(r.Context(), req.Query))
}

// handleHealth reports local liveness plus the upstream service state. The
// upstream check is bounded so a dead remote cannot stall the probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status   string          `json:"status"`
		Upstream json.RawMessage `json:"upstream,omitempty"`
	}
	h := health{Status: "ok"}

	if s.gateway != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		up, err := s.gateway.Health(ctx)
		if err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("upstream health check failed")
			h.Status = "degraded"
			h.Upstream = json.RawMessage(`{"status":"unreachable"}`)
		} else {
			h.Upstream = up
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h)
}
