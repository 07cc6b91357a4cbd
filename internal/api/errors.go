package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ovc-go/internal/ovc"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeAlreadyAcknowledged = "ALREADY_ACKNOWLEDGED"
	CodeAlreadyCleared      = "ALREADY_CLEARED"
	CodeScanFailed          = "SCAN_FAILED"
	CodeRestoreFailed       = "RESTORE_FAILED"
	CodeInternalError       = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes {"error":{"code":...,"message":...}} with the given status.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Code: code, Message: message},
	})
}

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ovc.ErrAlreadyAcknowledged):
		return http.StatusConflict, CodeAlreadyAcknowledged
	case errors.Is(err, ovc.ErrAlreadyCleared):
		return http.StatusConflict, CodeAlreadyCleared
	case errors.Is(err, ovc.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ovc.ErrConflict), errors.Is(err, ovc.ErrDirectoryInactive):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, ovc.ErrPassphraseRequired):
		return http.StatusBadRequest, CodeValidationError
	case errors.Is(err, ovc.ErrRestoreFailed):
		return http.StatusBadGateway, CodeRestoreFailed
	case errors.Is(err, ovc.ErrScanFailed):
		return http.StatusBadGateway, CodeScanFailed
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// writeServiceError answers with the mapped error. Internal errors are logged
// and their details withheld.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, status, code, "internal error")
		return
	}
	WriteError(w, status, code, err.Error())
}

func validationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}
