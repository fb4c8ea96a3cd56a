package server

import (
	"log/slog"
	"net/http"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/leaderboard"
)

type HistoryResponse struct {
	OK          bool                        `json:"ok"`
	History     []artsociety.Snapshot       `json:"history"`
	Leaderboard []artsociety.LeaderboardRow `json:"leaderboard"`
	// Degraded is set when player rows could not be read and the
	// leaderboard was built from history alone.
	Degraded bool `json:"degraded,omitempty"`
}

func handleHistory(svc *leaderboard.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.History(r.Context())
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, HistoryResponse{
			OK:          true,
			History:     view.History,
			Leaderboard: view.Leaderboard,
			Degraded:    view.Degraded,
		})
	}
}
