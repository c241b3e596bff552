// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger logs a failure with its cause and answers the client with the
// JSON error shape every endpoint shares: {"error": "..."}. The message sent
// to the client is the human-readable one, never err.Error().
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error string `json:"error"`
}

// Respond writes {"error": msg} with the given status, without logging.
// Use it for expected client mistakes (validation failures, bad input).
func Respond(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errBody{Error: msg})
}

// LogBadRequest logs at warn level and answers 400.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, what string, err error, msg string) {
	e.Log.Warn(what, zap.String("path", r.URL.Path), zap.Error(err))
	Respond(w, http.StatusBadRequest, msg)
}

// LogServerError logs at error level and answers 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, what string, err error, msg string) {
	e.Log.Error(what, zap.String("path", r.URL.Path), zap.Error(err))
	Respond(w, http.StatusInternalServerError, msg)
}

// NotFound answers 404 without logging; missing records are routine.
func NotFound(w http.ResponseWriter, msg string) {
	Respond(w, http.StatusNotFound, msg)
}

// Conflict answers 409 without logging.
func Conflict(w http.ResponseWriter, msg string) {
	Respond(w, http.StatusConflict, msg)
}

// Unauthorized answers 401 without logging.
func Unauthorized(w http.ResponseWriter, msg string) {
	Respond(w, http.StatusUnauthorized, msg)
}
