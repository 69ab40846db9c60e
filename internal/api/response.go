package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/mroshb/moodgram/pkg/errors"
	"github.com/mroshb/moodgram/pkg/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

var statusByCode = map[string]int{
	errors.ErrCodeValidation:        http.StatusBadRequest,
	errors.ErrCodeNotFound:          http.StatusNotFound,
	errors.ErrCodeUnauthorized:      http.StatusUnauthorized,
	errors.ErrCodeForbidden:         http.StatusForbidden,
	errors.ErrCodeAlreadyExists:     http.StatusConflict,
	errors.ErrCodeConflict:          http.StatusConflict,
	errors.ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	errors.ErrCodeUnavailable:       http.StatusServiceUnavailable,
}

func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Warn("Failed to encode response", "error", err)
		}
	}
}

// writeError renders err with the status its code maps to. Internal
// details are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)
	message := err.Error()

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "request_id", requestIDFrom(r.Context()), "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	}

	writeJSON(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
	})
}
