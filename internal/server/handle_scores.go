package server

import (
	"log/slog"
	"net/http"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/ranking"
	"github.com/Nicoding1996/art-society/internal/scoring"
)

type ScoreRequest struct {
	PrestigeOrder artsociety.PrestigeOrder `json:"prestigeOrder"`
	Players       []artsociety.Participant `json:"players"`
}

type ScoreResponse struct {
	OK         bool                     `json:"ok"`
	BonusColor artsociety.Color         `json:"bonusColor"`
	Players    []artsociety.Participant `json:"players"`
	Standings  []ranking.Standing       `json:"standings"`
	Winner     *ranking.Ref             `json:"winner,omitempty"`
}

// handleScores scores every seat against the submitted prestige order
// without storing anything.
func handleScores(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		order := req.PrestigeOrder
		if len(order) == 0 {
			order = artsociety.DefaultPrestigeOrder()
		}
		if err := scoring.ValidateOrder(order); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		if err := scoring.ValidatePlayers(req.Players); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		scored := scoring.ScoreAll(order, req.Players)
		resp := ScoreResponse{
			OK:         true,
			BonusColor: scoring.BonusColor(order),
			Players:    scored,
			Standings:  ranking.Standings(scored),
		}
		if winner, ok := ranking.ResolveWinner(scored); ok {
			resp.Winner = &winner
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type PrestigeMoveRequest struct {
	PrestigeOrder artsociety.PrestigeOrder `json:"prestigeOrder"`
	Index         int                      `json:"index"`
	Direction     int                      `json:"direction"`
	Players       []artsociety.Participant `json:"players"`
}

type PrestigeMoveResponse struct {
	OK            bool                     `json:"ok"`
	PrestigeOrder artsociety.PrestigeOrder `json:"prestigeOrder"`
	BonusColor    artsociety.Color         `json:"bonusColor"`
}

// handlePrestigeMove reorders the prestige track. Once any seat has
// entered a tally the order is locked.
func handlePrestigeMove(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PrestigeMoveRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if scoring.Locked(req.Players) {
			writeFailure(w, r, logger, artsociety.ErrLocked)
			return
		}

		order := req.PrestigeOrder
		if len(order) == 0 {
			order = artsociety.DefaultPrestigeOrder()
		}
		next, err := scoring.Move(order, req.Index, req.Direction)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, PrestigeMoveResponse{
			OK:            true,
			PrestigeOrder: next,
			BonusColor:    scoring.BonusColor(next),
		})
	}
}
