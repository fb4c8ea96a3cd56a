// Package admin implements the bulk operations: a one-time import from a
// device's local cache, and wiping games and lineups for a fresh start.
package admin

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/canon"
	"github.com/Nicoding1996/art-society/internal/store"
)

// Payload is the import body. Every section is optional.
type Payload struct {
	Players []artsociety.Identity `json:"players"`
	History []artsociety.Snapshot `json:"history"`
	Lineups []artsociety.Lineup   `json:"lineups"`
}

type Counts struct {
	Players int `json:"players"`
	Games   int `json:"games"`
	Lineups int `json:"lineups"`
}

type Importer struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewImporter(s store.Store, logger *slog.Logger) *Importer {
	return &Importer{store: s, logger: logger, now: time.Now}
}

// Import upserts the payload by id, overwriting what is stored. Nothing is
// merged: counters and lineup uses are taken as given. Sections are written
// players, games, lineups; a failure names the section and leaves earlier
// sections applied.
func (im *Importer) Import(ctx context.Context, p Payload) (Counts, error) {
	players, games, lineups, err := im.normalize(p)
	if err != nil {
		return Counts{}, err
	}

	if len(players) > 0 {
		if err := im.store.UpsertPlayers(ctx, players); err != nil {
			return Counts{}, artsociety.WrapStep(artsociety.StepPlayers, err)
		}
	}
	if len(games) > 0 {
		if err := im.store.UpsertGames(ctx, games); err != nil {
			return Counts{}, artsociety.WrapStep(artsociety.StepGames, err)
		}
	}
	if len(lineups) > 0 {
		if err := im.store.UpsertLineups(ctx, lineups); err != nil {
			return Counts{}, artsociety.WrapStep(artsociety.StepLineups, err)
		}
	}

	c := Counts{Players: len(players), Games: len(games), Lineups: len(lineups)}
	im.logger.Info("import complete", "players", c.Players, "games", c.Games, "lineups", c.Lineups)
	return c, nil
}

// normalize validates every row before anything is written and fills the
// defaults: canonical names recomputed from the display name, version 1,
// lineup ids derived from their player ids, one use.
func (im *Importer) normalize(p Payload) ([]artsociety.Identity, []artsociety.Snapshot, []artsociety.Lineup, error) {
	now := im.now().UTC()

	players := make([]artsociety.Identity, 0, len(p.Players))
	for i, row := range p.Players {
		row.ID = strings.TrimSpace(row.ID)
		if row.ID == "" {
			return nil, nil, nil, artsociety.Invalidf("players[%d]: id is required", i)
		}
		name := row.DisplayName
		if name == "" {
			name = row.Canonical
		}
		row.Canonical = canon.Canonicalize(name)
		if row.GamesPlayed == nil {
			row.GamesPlayed = artsociety.Ptr(0)
		}
		if row.Wins == nil {
			row.Wins = artsociety.Ptr(0)
		}
		players = append(players, row)
	}

	games := make([]artsociety.Snapshot, 0, len(p.History))
	for i, g := range p.History {
		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" {
			return nil, nil, nil, artsociety.Invalidf("history[%d]: id is required", i)
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		if len(g.PrestigeOrder) == 0 {
			g.PrestigeOrder = artsociety.DefaultPrestigeOrder()
		}
		if g.Version == 0 {
			g.Version = artsociety.SnapshotVersion
		}
		games = append(games, g)
	}

	lineups := make([]artsociety.Lineup, 0, len(p.Lineups))
	for i, l := range p.Lineups {
		if l.ID == "" {
			if len(l.PlayerIDs) == 0 {
				return nil, nil, nil, artsociety.Invalidf("lineups[%d]: id or playerIds is required", i)
			}
			l.ID = artsociety.LineupKey(l.PlayerIDs)
		}
		if l.Size == 0 {
			l.Size = len(l.PlayerIDs)
		}
		if l.Uses == 0 {
			l.Uses = 1
		}
		if l.LastUsedAt.IsZero() {
			l.LastUsedAt = now
		}
		lineups = append(lineups, l)
	}

	return players, games, lineups, nil
}

// Reset deletes every game and lineup, and every identity unless
// keepPlayers is set.
func (im *Importer) Reset(ctx context.Context, keepPlayers bool) error {
	if err := im.store.Reset(ctx, keepPlayers); err != nil {
		return err
	}
	im.logger.Warn("store reset", "keep_players", keepPlayers)
	return nil
}
