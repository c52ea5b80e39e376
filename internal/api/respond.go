package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/kepler"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/propagation"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/transform"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/translator"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorResponse carries a parse error's location when there is one.
type errorResponse struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
	Field string `json:"field,omitempty"`
}

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned before the response was ready.
const statusClientClosedRequest = 499

// statusFor maps library errors to HTTP status codes.
func statusFor(err error) int {
	var pe *tle.ParseError
	var me *propagation.ModelError
	var ce *kepler.ConvergenceError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, transform.ErrUnsupportedFrame),
		errors.Is(err, translator.ErrInvalidStep),
		errors.Is(err, translator.ErrTooManySamples),
		errors.Is(err, timesys.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, propagation.ErrNotInCatalog):
		return http.StatusNotFound
	case errors.Is(err, propagation.ErrNoDataset), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, propagation.ErrDecayed), errors.As(err, &me), errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "component", "api", "error", err)
		writeError(w, status, "internal error")
		return
	}
	if status == statusClientClosedRequest {
		logger.Debug("request cancelled", "component", "api", "error", err)
	}
	resp := errorResponse{Error: err.Error()}
	var pe *tle.ParseError
	if errors.As(err, &pe) {
		resp.Line = pe.Line
		resp.Field = pe.Field
	}
	writeJSON(w, status, resp)
}
