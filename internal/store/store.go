// Package store persists players, games and lineups.
//
// Every adapter wraps backend failures with artsociety.ErrStoreUnavailable.
// Reads of the players table report artsociety.ErrSchemaMismatch when a
// required column is missing; absent optional columns come back as nil
// fields instead.
package store

import (
	"context"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

type Store interface {
	ListPlayers(ctx context.Context) ([]artsociety.Identity, error)
	PlayersByCanonical(ctx context.Context, canonicals []string) ([]artsociety.Identity, error)
	PlayersByID(ctx context.Context, ids []string) ([]artsociety.Identity, error)
	// InsertPlayers creates each identity unless a row with the same
	// canonical already exists, and returns the rows it created.
	InsertPlayers(ctx context.Context, players []artsociety.Identity) ([]artsociety.Identity, error)
	UpsertPlayers(ctx context.Context, players []artsociety.Identity) error

	// ListGames returns every snapshot, newest first.
	ListGames(ctx context.Context) ([]artsociety.Snapshot, error)
	UpsertGames(ctx context.Context, games []artsociety.Snapshot) error

	// Lineup returns artsociety.ErrNotFound when id is unknown.
	Lineup(ctx context.Context, id string) (artsociety.Lineup, error)
	// InsertLineup returns artsociety.ErrConflict when id already exists.
	InsertLineup(ctx context.Context, l artsociety.Lineup) error
	// TouchLineup increments uses and sets last used time.
	TouchLineup(ctx context.Context, id string, usedAt time.Time) error
	UpsertLineups(ctx context.Context, lineups []artsociety.Lineup) error

	// Reset deletes all games and lineups, and players unless keepPlayers.
	Reset(ctx context.Context, keepPlayers bool) error
	Ping(ctx context.Context) error
}

const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
