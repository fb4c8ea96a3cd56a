package server

import (
	"log/slog"
	"net/http"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/ranking"
	"github.com/Nicoding1996/art-society/internal/recorder"
)

type RecordGameRequest struct {
	Game *artsociety.Snapshot `json:"game"`
}

type RecordGameResponse struct {
	OK     bool                `json:"ok"`
	Game   artsociety.Snapshot `json:"game"`
	Winner *ranking.Ref        `json:"winner,omitempty"`
	Lineup string              `json:"lineup,omitempty"`
}

func handleRecordGame(rec *recorder.Recorder, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordGameRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Game == nil {
			writeError(w, http.StatusBadRequest, "game is required")
			return
		}

		res, err := rec.Record(r.Context(), *req.Game)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, RecordGameResponse{
			OK:     true,
			Game:   res.Game,
			Winner: res.Winner,
			Lineup: res.Lineup,
		})
	}
}
