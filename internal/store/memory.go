package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

// Operation names accepted by MemoryStore.FailOn and MemoryStore.OnCall.
const (
	OpListPlayers        = "ListPlayers"
	OpPlayersByCanonical = "PlayersByCanonical"
	OpPlayersByID        = "PlayersByID"
	OpInsertPlayers      = "InsertPlayers"
	OpUpsertPlayers      = "UpsertPlayers"
	OpListGames          = "ListGames"
	OpUpsertGames        = "UpsertGames"
	OpLineup             = "Lineup"
	OpInsertLineup       = "InsertLineup"
	OpTouchLineup        = "TouchLineup"
	OpUpsertLineups      = "UpsertLineups"
	OpReset              = "Reset"
	OpPing               = "Ping"
)

// MemoryStore implements Store in process memory. It enforces no uniqueness
// on canonical names, like the SQL schema.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]artsociety.Identity
	games   map[string]artsociety.Snapshot
	lineups map[string]artsociety.Lineup

	failures map[string]error
	hooks    map[string]func()
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		players:  make(map[string]artsociety.Identity),
		games:    make(map[string]artsociety.Snapshot),
		lineups:  make(map[string]artsociety.Lineup),
		failures: make(map[string]error),
		hooks:    make(map[string]func()),
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// OnCall registers fn to run at the start of op, before any data is read or
// written and without the store lock held.
func (m *MemoryStore) OnCall(op string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[op] = fn
}

func (m *MemoryStore) enter(op string) error {
	m.mu.RLock()
	fn := m.hooks[op]
	err := m.failures[op]
	m.mu.RUnlock()

	if fn != nil {
		fn()
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, artsociety.ErrSchemaMismatch) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return unavailable(op, err)
}

func (m *MemoryStore) ListPlayers(ctx context.Context) ([]artsociety.Identity, error) {
	if err := m.enter(OpListPlayers); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterPlayers(func(artsociety.Identity) bool { return true }), nil
}

func (m *MemoryStore) PlayersByCanonical(ctx context.Context, canonicals []string) ([]artsociety.Identity, error) {
	if err := m.enter(OpPlayersByCanonical); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterPlayers(func(p artsociety.Identity) bool {
		return slices.Contains(canonicals, p.Canonical)
	}), nil
}

func (m *MemoryStore) PlayersByID(ctx context.Context, ids []string) ([]artsociety.Identity, error) {
	if err := m.enter(OpPlayersByID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterPlayers(func(p artsociety.Identity) bool {
		return slices.Contains(ids, p.ID)
	}), nil
}

func (m *MemoryStore) filterPlayers(keep func(artsociety.Identity) bool) []artsociety.Identity {
	var out []artsociety.Identity
	for _, p := range m.players {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b artsociety.Identity) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (m *MemoryStore) InsertPlayers(ctx context.Context, players []artsociety.Identity) ([]artsociety.Identity, error) {
	if err := m.enter(OpInsertPlayers); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var inserted []artsociety.Identity
	for _, p := range players {
		exists := false
		for _, existing := range m.players {
			if existing.Canonical == p.Canonical {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		p = withCounters(p)
		m.players[p.ID] = p
		inserted = append(inserted, p)
	}
	return inserted, nil
}

func (m *MemoryStore) UpsertPlayers(ctx context.Context, players []artsociety.Identity) error {
	if err := m.enter(OpUpsertPlayers); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		m.players[p.ID] = withCounters(p)
	}
	return nil
}

// withCounters fills nil counters with zero, matching the SQL column defaults.
func withCounters(p artsociety.Identity) artsociety.Identity {
	if p.GamesPlayed == nil {
		p.GamesPlayed = artsociety.Ptr(0)
	}
	if p.Wins == nil {
		p.Wins = artsociety.Ptr(0)
	}
	return p
}

func (m *MemoryStore) ListGames(ctx context.Context) ([]artsociety.Snapshot, error) {
	if err := m.enter(OpListGames); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]artsociety.Snapshot, 0, len(m.games))
	for _, g := range m.games {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b artsociety.Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (m *MemoryStore) UpsertGames(ctx context.Context, games []artsociety.Snapshot) error {
	if err := m.enter(OpUpsertGames); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		if g.Version == 0 {
			g.Version = artsociety.SnapshotVersion
		}
		g.Players = slices.Clone(g.Players)
		m.games[g.ID] = g
	}
	return nil
}

func (m *MemoryStore) Lineup(ctx context.Context, id string) (artsociety.Lineup, error) {
	if err := m.enter(OpLineup); err != nil {
		return artsociety.Lineup{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lineups[id]
	if !ok {
		return artsociety.Lineup{}, artsociety.ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) InsertLineup(ctx context.Context, l artsociety.Lineup) error {
	if err := m.enter(OpInsertLineup); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lineups[l.ID]; ok {
		return fmt.Errorf("lineup %s: %w", l.ID, artsociety.ErrConflict)
	}
	l.PlayerIDs = slices.Clone(l.PlayerIDs)
	m.lineups[l.ID] = l
	return nil
}

func (m *MemoryStore) TouchLineup(ctx context.Context, id string, usedAt time.Time) error {
	if err := m.enter(OpTouchLineup); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lineups[id]
	if !ok {
		return fmt.Errorf("lineup %s: %w", id, artsociety.ErrNotFound)
	}
	l.Uses++
	l.LastUsedAt = usedAt.UTC()
	m.lineups[id] = l
	return nil
}

func (m *MemoryStore) UpsertLineups(ctx context.Context, lineups []artsociety.Lineup) error {
	if err := m.enter(OpUpsertLineups); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range lineups {
		l.PlayerIDs = slices.Clone(l.PlayerIDs)
		m.lineups[l.ID] = l
	}
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context, keepPlayers bool) error {
	if err := m.enter(OpReset); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.games)
	clear(m.lineups)
	if !keepPlayers {
		clear(m.players)
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.enter(OpPing)
}
