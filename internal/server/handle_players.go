package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/identity"
)

type PlayerSearchResponse struct {
	OK          bool                  `json:"ok"`
	Canonical   string                `json:"canonical"`
	Matches     []artsociety.Identity `json:"matches"`
	Suggestions []artsociety.Identity `json:"suggestions"`
}

func handlePlayerSearch(res *identity.Resolver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if strings.TrimSpace(q) == "" {
			writeError(w, http.StatusBadRequest, "q query parameter required")
			return
		}

		found, err := res.Search(r.Context(), q)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, PlayerSearchResponse{
			OK:          true,
			Canonical:   found.Canonical,
			Matches:     found.Matches,
			Suggestions: found.Suggestions,
		})
	}
}
