package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/franckalain/nutrilens/internal/analysis"
)

const (
	defaultScanLimit = 20
	maxScanLimit     = 100
)

type analyzeRequest struct {
	Image string `json:"image"`
	Query string `json:"query"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageSize)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analysis.Input{Image: req.Image, Text: req.Query})
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, analysis.ErrNoInput) || errors.Is(err, analysis.ErrInvalidImage) {
			status = http.StatusBadRequest
		}
		writeError(w, status, analysis.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "Analysis journal is disabled")
		return
	}

	limit := defaultScanLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, maxScanLimit)
	}

	records, err := s.journal.GetRecentAnalysisRecords(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("Error retrieving analysis journal")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Error writing response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
