package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/originhq/origin/internal/apperror"
)

// Respond writes a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// ErrorResponse is ORIGIN's standard JSON error envelope (spec.md §7: every
// error carries an error_code, a short message, and the correlation id).
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// RespondError writes a JSON error response with a bare code/message, for
// call sites that haven't been raised to an *apperror.Error yet.
func RespondError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	Respond(w, status, ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: CorrelationID(r),
	})
}

// RespondAppError renders err using its own HTTP status and code, setting
// Retry-After when the error carries one.
func RespondAppError(w http.ResponseWriter, r *http.Request, err *apperror.Error) {
	if err.RetryAfter != nil {
		w.Header().Set("Retry-After", strconv.Itoa(int(err.RetryAfter.Seconds())))
	}
	Respond(w, err.HTTPStatus, ErrorResponse{
		Error:         string(err.Code),
		Message:       err.Message,
		CorrelationID: CorrelationID(r),
	})
}
