package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/msomdec/mtaabiz/internal/domain"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx JSON response. Field is set for
// validation errors only.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readJSON decodes a size-limited request body into dst.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.NewValidationError("body", fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("body", "request body must not be empty")
		default:
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return domain.NewValidationError(typeErr.Field, "wrong type")
			}
			return domain.NewValidationError("body", "malformed JSON")
		}
	}
	return nil
}

// writeServiceError maps a service error onto an HTTP status. Unexpected
// errors are logged with op and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "Free plan limit reached. Upgrade to PRO to create more invoices.")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Unable to log in with provided credentials.")
	case errors.Is(err, domain.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "A user with that username already exists.", Field: "username"})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "A user with that email already exists.", Field: "email"})
	case errors.Is(err, domain.ErrDuplicate):
		writeError(w, http.StatusConflict, "Already exists.")
	default:
		loggerFrom(r.Context()).Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}
