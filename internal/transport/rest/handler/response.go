package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"auditapi/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service errors to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: inputErr.Reason, Missing: inputErr.Missing})
	case errors.Is(err, service.ErrAIUnavailable):
		writeError(w, http.StatusServiceUnavailable, "API service unavailable")
	case errors.Is(err, service.ErrGeneration):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrReportFailed):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Could not generate audit report",
			Details: "Failed to process API response",
		})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
