// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/models"
	"quote-workers/internal/quote"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error      *apperrors.StandardError `json:"error"`
	Evaluation *models.QuoteEvaluation  `json:"evaluation,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.probes))
	status := http.StatusOK
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req quote.Request
	if err := decodeJSON(r, &req); err != nil {
		metrics.QuoteEvaluations.WithLabelValues(metrics.SourceHTTP, metrics.OutcomeError).Inc()
		s.writeError(w, apperrors.NewParseError(err), nil)
		return
	}
	if req.Values == nil {
		req.Values = map[string]interface{}{}
	}

	if !req.Inline() && req.BusinessID != "" && s.subs != nil {
		if err := s.subs.Check(r.Context(), req.BusinessID); err != nil {
			metrics.QuoteEvaluations.WithLabelValues(metrics.SourceHTTP, metrics.OutcomeError).Inc()
			s.writeError(w, apperrors.FromEngineError(err), nil)
			return
		}
	}

	eval, err := s.service.Evaluate(r.Context(), req, metrics.SourceHTTP)
	if err != nil {
		s.writeError(w, apperrors.FromEngineError(err), eval)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleValidateForm(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, apperrors.NewParseError(err), nil)
		return
	}

	report, err := quote.Lint(raw)
	if err != nil {
		s.writeError(w, apperrors.NewParseError(err), nil)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleInvalidateForm(w http.ResponseWriter, r *http.Request) {
	if s.forms == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	businessID := chi.URLParam(r, "businessId")
	serviceID := chi.URLParam(r, "serviceId")
	if err := s.forms.Invalidate(r.Context(), businessID, serviceID); err != nil {
		s.writeError(w, apperrors.NewFormLoadFailedError(err), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, stdErr *apperrors.StandardError, eval *models.QuoteEvaluation) {
	status := StatusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	writeJSON(w, status, errorResponse{Error: stdErr, Evaluation: eval})
}

// StatusFor maps error codes onto HTTP statuses.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeParseError, apperrors.ErrCodeInputValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeFormNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeSubscriptionInvalid, apperrors.ErrCodeSubscriptionExpired:
		return http.StatusForbidden
	case apperrors.ErrCodeCalculationFailed, apperrors.ErrCodeFormDefinitionInvalid, apperrors.ErrCodeFormIncomplete:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeFormLoadFailed, apperrors.ErrCodeSubscriptionCheckFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
