package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"

	"justice-agent-tools/internal/domain/ports/repository"
)

// Server is the operator-facing surface: session login plus read-only views
// over the consultation history. It never touches the remote search service.
type Server struct {
	history     repository.ConsultationRepository
	auth        *AuthManager
	adminSecret string
	log         *zerolog.Logger
}

func NewServer(
	history repository.ConsultationRepository,
	auth *AuthManager,
	adminSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		history:     history,
		auth:        auth,
		adminSecret: adminSecret,
		log:         logger,
	}
}

// RegisterRoutes sets up the routing for the ops API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ops/login", s.handleLogin)
	mux.HandleFunc("/ops/logout", s.handleLogout)

	mux.Handle("/ops/stats", s.sessionMiddleware(statsHandler(s.history)))
	mux.Handle("/ops/consultations", s.sessionMiddleware(consultationsHandler(s.history)))
}

// sessionMiddleware requires a valid operator session, minted by /ops/login.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminSecret == "" {
			s.log.Error().Msg("ops admin secret is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.adminSecret == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	secret := r.Header.Get("X-Admin-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		s.log.Warn().Msg("ops login rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to mint ops session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
