// Package recorder saves a finished game and updates everything derived
// from it: identities, per-player counters and the lineup.
//
// The steps are not atomic. A failure after the snapshot is written leaves
// the game saved with stale counters; the leaderboard falls back to history
// for those, and resubmitting the same game id is safe for the snapshot
// itself. Counter updates are read-modify-write, so two saves touching the
// same player at the same moment can lose an increment.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/canon"
	"github.com/Nicoding1996/art-society/internal/events"
	"github.com/Nicoding1996/art-society/internal/identity"
	"github.com/Nicoding1996/art-society/internal/metrics"
	"github.com/Nicoding1996/art-society/internal/ranking"
	"github.com/Nicoding1996/art-society/internal/scoring"
	"github.com/Nicoding1996/art-society/internal/store"
)

const sinkTimeout = 5 * time.Second

// Archiver receives every recorded game after the store has it.
type Archiver interface {
	Archive(ctx context.Context, g artsociety.Snapshot) error
}

// Options holds the optional collaborators. Nil fields are skipped.
type Options struct {
	Publisher events.Publisher
	Archive   Archiver
	Metrics   *metrics.Metrics
}

type Recorder struct {
	store      store.Store
	identities *identity.Resolver
	logger     *slog.Logger
	opts       Options

	now func() time.Time
}

func New(s store.Store, identities *identity.Resolver, logger *slog.Logger, opts Options) *Recorder {
	return &Recorder{
		store:      s,
		identities: identities,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Result is what a successful record produced.
type Result struct {
	Game   artsociety.Snapshot `json:"game"`
	Winner *ranking.Ref        `json:"winner,omitempty"`
	// Lineup is the lineup id touched, empty when a seat had no identity.
	Lineup string `json:"lineup,omitempty"`
}

// Record validates and saves g. Validation errors match
// artsociety.ErrInvalidPayload and nothing is written. Later failures are
// *artsociety.StepError values naming the step that failed.
func (r *Recorder) Record(ctx context.Context, g artsociety.Snapshot) (Result, error) {
	res, err := r.record(ctx, g)
	if err != nil {
		r.opts.Metrics.RecordFailed(artsociety.StepOf(err))
		return Result{}, err
	}
	r.opts.Metrics.GameRecorded()
	return res, nil
}

func (r *Recorder) record(ctx context.Context, g artsociety.Snapshot) (Result, error) {
	now := r.now().UTC()

	g, err := prepare(g, now)
	if err != nil {
		return Result{}, err
	}

	g.Players, err = r.identities.Resolve(ctx, g.Players)
	if err != nil {
		return Result{}, artsociety.WrapStep(artsociety.StepIdentities, err)
	}

	// Once the snapshot write starts the rest runs to completion.
	ctx = context.WithoutCancel(ctx)

	if err := r.store.UpsertGames(ctx, []artsociety.Snapshot{g}); err != nil {
		return Result{}, artsociety.WrapStep(artsociety.StepSnapshot, err)
	}

	res := Result{Game: g}
	winner, hasWinner := ranking.ResolveWinner(g.Players)
	if hasWinner {
		res.Winner = &winner
	}

	if err := r.updateAggregates(ctx, g.Players, winner.PlayerID, now); err != nil {
		return Result{}, artsociety.WrapStep(artsociety.StepAggregates, err)
	}

	if ids, ok := lineupIDs(g.Players); ok {
		res.Lineup = artsociety.LineupKey(ids)
		if err := r.touchLineup(ctx, ids, now); err != nil {
			return Result{}, artsociety.WrapStep(artsociety.StepLineup, err)
		}
	}

	r.logger.Info("game recorded",
		"game_id", g.ID,
		"players", len(g.Players),
		"winner", winner.Name,
		"lineup", res.Lineup,
	)

	r.deliver(ctx, g, now)
	return res, nil
}

// prepare validates g and fills defaults: creation time, prestige order,
// version and the score of any seat submitted without one.
func prepare(g artsociety.Snapshot, now time.Time) (artsociety.Snapshot, error) {
	g.ID = strings.TrimSpace(g.ID)
	if g.ID == "" {
		return g, artsociety.Invalidf("game id is required")
	}

	if len(g.PrestigeOrder) == 0 {
		g.PrestigeOrder = artsociety.DefaultPrestigeOrder()
	}
	if err := scoring.ValidateOrder(g.PrestigeOrder); err != nil {
		return g, err
	}
	if err := scoring.ValidatePlayers(g.Players); err != nil {
		return g, err
	}

	named := slices.ContainsFunc(g.Players, func(p artsociety.Participant) bool {
		return strings.TrimSpace(p.Name) != ""
	})
	if !named {
		return g, artsociety.Invalidf("at least one player needs a name")
	}

	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.CreatedAt = g.CreatedAt.UTC()
	if g.Version == 0 {
		g.Version = artsociety.SnapshotVersion
	}

	scored := scoring.ScoreAll(g.PrestigeOrder, g.Players)
	players := slices.Clone(g.Players)
	for i := range players {
		if players[i].FinalScore == nil {
			players[i] = scored[i]
		}
	}
	g.Players = players
	return g, nil
}

// updateAggregates bumps games played for every resolved seat and wins for
// the winner. A player seated twice counts once.
func (r *Recorder) updateAggregates(ctx context.Context, players []artsociety.Participant, winnerID string, now time.Time) error {
	var ids []string
	seat := make(map[string]artsociety.Participant)
	for _, p := range players {
		if p.PlayerID == "" {
			continue
		}
		if _, dup := seat[p.PlayerID]; dup {
			continue
		}
		ids = append(ids, p.PlayerID)
		seat[p.PlayerID] = p
	}
	if len(ids) == 0 {
		return nil
	}

	current, err := r.store.PlayersByID(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]artsociety.Identity, len(current))
	for _, p := range current {
		byID[p.ID] = p
	}

	updated := make([]artsociety.Identity, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			p = artsociety.Identity{ID: id, CreatedAt: &now}
		}
		name := strings.TrimSpace(seat[id].Name)
		if name != "" {
			p.DisplayName = name
			p.Canonical = canon.Canonicalize(name)
		}

		games, wins := 0, 0
		if p.GamesPlayed != nil {
			games = *p.GamesPlayed
		}
		if p.Wins != nil {
			wins = *p.Wins
		}
		games++
		if id == winnerID {
			wins++
		}
		p.GamesPlayed = &games
		p.Wins = &wins
		p.LastPlayedAt = &now
		updated = append(updated, p)
	}
	return r.store.UpsertPlayers(ctx, updated)
}

// lineupIDs returns the seat-ordered identity ids, or false when any seat
// is unresolved.
func lineupIDs(players []artsociety.Participant) ([]string, bool) {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		if p.PlayerID == "" {
			return nil, false
		}
		ids = append(ids, p.PlayerID)
	}
	return ids, true
}

func (r *Recorder) touchLineup(ctx context.Context, ids []string, now time.Time) error {
	key := artsociety.LineupKey(ids)

	_, err := r.store.Lineup(ctx, key)
	switch {
	case err == nil:
		return r.store.TouchLineup(ctx, key, now)
	case !errors.Is(err, artsociety.ErrNotFound):
		return err
	}

	err = r.store.InsertLineup(ctx, artsociety.Lineup{
		ID:         key,
		Size:       len(ids),
		PlayerIDs:  ids,
		LastUsedAt: now,
		Uses:       1,
	})
	if errors.Is(err, artsociety.ErrConflict) {
		return r.store.TouchLineup(ctx, key, now)
	}
	return err
}

// deliver hands the game to the optional sinks. Their failures are logged
// and counted, never returned.
func (r *Recorder) deliver(ctx context.Context, g artsociety.Snapshot, now time.Time) {
	if p := r.opts.Publisher; p != nil {
		pctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := p.Publish(pctx, events.GameRecorded(g, now)); err != nil {
			r.logger.Warn("publishing game event", "game_id", g.ID, "error", err)
			r.opts.Metrics.SinkFailed("events")
		}
		cancel()
	}

	if a := r.opts.Archive; a != nil {
		actx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := a.Archive(actx, g); err != nil {
			r.logger.Warn("archiving game", "game_id", g.ID, "error", err)
			r.opts.Metrics.SinkFailed("archive")
		}
		cancel()
	}
}
