package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeFailure maps a domain error onto a status code. Partial writes carry
// the step that failed so clients know what was already applied.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, artsociety.ErrInvalidPayload):
		status = http.StatusBadRequest
	case errors.Is(err, artsociety.ErrLocked):
		status = http.StatusConflict
	case errors.Is(err, artsociety.ErrPartialWrite):
		status = http.StatusInternalServerError
	case errors.Is(err, artsociety.ErrStoreUnavailable), errors.Is(err, artsociety.ErrSchemaMismatch):
		status = http.StatusServiceUnavailable
	}

	step := artsociety.StepOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"step", step,
			"error", err,
		)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Step: step})
}
