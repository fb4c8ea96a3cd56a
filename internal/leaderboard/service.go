package leaderboard

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/store"
)

// View is the history screen: every saved game, newest first, and the
// leaderboard built from them.
type View struct {
	History     []artsociety.Snapshot       `json:"history"`
	Leaderboard []artsociety.LeaderboardRow `json:"leaderboard"`
	// Degraded is set when identity rows could not be read and the
	// leaderboard was computed from history alone.
	Degraded bool `json:"degraded,omitempty"`
}

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(s store.Store, logger *slog.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// History reads games and identities concurrently. A schema mismatch on the
// players table degrades to a history-only leaderboard; any other store
// failure is returned.
func (s *Service) History(ctx context.Context) (View, error) {
	var (
		games      []artsociety.Snapshot
		players    []artsociety.Identity
		playersErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = s.store.ListGames(gctx)
		return err
	})
	g.Go(func() error {
		players, playersErr = s.store.ListPlayers(gctx)
		if errors.Is(playersErr, artsociety.ErrSchemaMismatch) {
			return nil
		}
		return playersErr
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	view := View{History: games}
	if playersErr != nil {
		s.logger.Warn("players table unreadable, leaderboard from history only", "error", playersErr)
		players = nil
		view.Degraded = true
	}
	if view.History == nil {
		view.History = []artsociety.Snapshot{}
	}
	view.Leaderboard = Build(players, games)
	return view, nil
}
