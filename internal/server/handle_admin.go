package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Nicoding1996/art-society/internal/admin"
)

type ImportResponse struct {
	OK     bool         `json:"ok"`
	Counts admin.Counts `json:"counts"`
}

type ResetResponse struct {
	OK          bool `json:"ok"`
	KeptPlayers bool `json:"keptPlayers"`
}

func handleAdminImport(im *admin.Importer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p admin.Payload
		if err := readJSON(w, r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		counts, err := im.Import(r.Context(), p)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		logger.Info("import finished",
			"players", counts.Players,
			"games", counts.Games,
			"lineups", counts.Lineups,
		)
		writeJSON(w, http.StatusOK, ImportResponse{OK: true, Counts: counts})
	}
}

func handleAdminReset(im *admin.Importer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keep := false
		if v := r.URL.Query().Get("keepPlayers"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "keepPlayers must be a boolean")
				return
			}
			keep = b
		}

		if err := im.Reset(r.Context(), keep); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, ResetResponse{OK: true, KeptPlayers: keep})
	}
}
