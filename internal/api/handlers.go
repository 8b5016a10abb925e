package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"finder/internal/domain"

	"go.uber.org/zap"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := s.pipeline.Resolve(r.Context(), q)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			s.respondWithError(w, http.StatusBadRequest, "Invalid query parameters")
			return
		}
		s.logger.Error("resolution failed", zap.String("term", q.Term), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not resolve query")
		return
	}

	if s.history != nil {
		if err := s.history.SaveResolution(r.Context(), q, res, time.Since(start)); err != nil {
			s.logger.Error("failed to save resolution history", zap.Error(err))
			s.metrics.IncErrors("history_save_failed")
		}
	}

	s.respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondWithError(w, http.StatusNotFound, "History is not enabled")
		return
	}
	rows, err := s.history.RecentResolutions(r.Context(), 50)
	if err != nil {
		s.logger.Error("failed to read resolution history", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve history")
		return
	}
	s.respondWithJSON(w, http.StatusOK, rows)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"cache": "healthy"}
	healthy := true

	if err := s.store.Ping(ctx); err != nil {
		healthStatus["cache"] = "unhealthy"
		healthy = false
		s.logger.Error("health check failed for cache", zap.Error(err))
	}
	if s.history != nil {
		healthStatus["postgres"] = "healthy"
		if err := s.history.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for postgres", zap.Error(err))
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// queryFromRequest parses the q, category, max_price and limit parameters.
func queryFromRequest(r *http.Request) (domain.Query, error) {
	params := r.URL.Query()

	q := domain.Query{
		Term:     params.Get("q"),
		Category: params.Get("category"),
	}
	if q.Term == "" {
		return q, errors.New("q parameter is required")
	}

	if raw := params.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return q, errors.New("max_price must be a non-negative number")
		}
		q.MaxPrice = v
	}
	if raw := params.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		q.Limit = v
	}
	return q.Clamp(), nil
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
