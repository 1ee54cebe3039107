// Package handlers provides JSON response helpers shared by domain HTTP handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON body written for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondRaw writes a pre-encoded JSON document with the given status code.
func RespondRaw(w http.ResponseWriter, status int, doc []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(doc)
}

// RespondError logs err and writes it as a JSON error body.
// Server errors log at error level; client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, ErrorResponse{Error: err.Error()})
}
