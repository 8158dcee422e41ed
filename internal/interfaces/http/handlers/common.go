// Phase 11 - File: internal/interfaces/http/handlers/common.go
// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/http/middleware"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

// getUserIDFromContext extracts user ID from request context (set by auth middleware).
func getUserIDFromContext(r *http.Request) string {
	return middleware.ContextGetUserID(r.Context())
}

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DegradedResponse is the body for an error that maps to a non-5xx status
// per the propagation policy in pkg/errors: the caller gets a successful
// status with the condition surfaced as a warning rather than an error.
type DegradedResponse struct {
	Code     string   `json:"code"`
	Warnings []string `json:"warnings"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, err error) {
	resp := ErrorResponse{
		Code:    http.StatusText(statusCode),
		Message: err.Error(),
	}
	writeJSON(w, statusCode, resp)
}

// writeAppError maps application-level errors to HTTP status codes using
// the ErrorCodeHTTPStatus table in pkg/errors, the single source of truth
// for the propagation policy: only retrieval_unavailable is a hard failure
// to the caller, everything else that maps below 500 is degraded-but-
// answerable and gets a 200 with the condition surfaced as a warning.
func writeAppError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	code := errors.GetCode(err)
	if errors.IsDegraded(err) {
		writeJSON(w, http.StatusOK, DegradedResponse{
			Code:     code.String(),
			Warnings: []string{err.Error()},
		})
		return
	}
	writeError(w, errors.HTTPStatusForCode(code), err)
}

