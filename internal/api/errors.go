package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"homie/internal/db"
	"homie/internal/extract"
	"homie/internal/llm"
	"homie/internal/scraper"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: message})
}

// writeError maps domain errors onto status codes.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, extract.ErrNotPropertyPage):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "not_property_page"}
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusBadGateway, ErrorResponse{Error: "malformed_response", Message: "analysis service returned an unreadable reply", Retryable: true}
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway, ErrorResponse{Error: "upstream_failure", Message: "analysis service unavailable", Retryable: true}
	case errors.Is(err, scraper.ErrBlocked):
		return http.StatusBadGateway, ErrorResponse{Error: "blocked", Message: err.Error(), Retryable: true}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: err.Error()}
	}
}
