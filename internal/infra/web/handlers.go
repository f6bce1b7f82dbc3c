package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"justice-agent-tools/internal/domain/ports/repository"
)

const defaultListLimit = 50

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statsHandler aggregates consultation counts per tool and outcome.
func statsHandler(history repository.ConsultationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if history == nil {
			http.Error(w, "History is not enabled", http.StatusNotImplemented)
			return
		}

		counts, err := history.CountByToolStatus(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}

		total := 0
		for _, byStatus := range counts {
			for _, n := range byStatus {
				total += n
			}
		}

		response := struct {
			TotalConsultations int                       `json:"total_consultations"`
			ByTool             map[string]map[string]int `json:"by_tool"`
		}{
			TotalConsultations: total,
			ByTool:             counts,
		}
		writeJSON(w, http.StatusOK, response)
	}
}

// consultationsHandler lists the most recent consultation outcomes.
// ?limit= caps the page size, default 50.
func consultationsHandler(history repository.ConsultationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if history == nil {
			http.Error(w, "History is not enabled", http.StatusNotImplemented)
			return
		}

		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 500 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		rows, err := history.ListRecent(r.Context(), limit)
		if err != nil {
			http.Error(w, "Failed to list consultations", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Consultations any `json:"consultations"`
			Count         int `json:"count"`
		}{Consultations: rows, Count: len(rows)})
	}
}
