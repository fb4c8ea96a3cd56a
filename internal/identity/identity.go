// Package identity maps free-text player names to durable identities.
package identity

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/canon"
	"github.com/Nicoding1996/art-society/internal/lock"
	"github.com/Nicoding1996/art-society/internal/metrics"
	"github.com/Nicoding1996/art-society/internal/store"
)

const lockTimeout = 5 * time.Second

type Resolver struct {
	store   store.Store
	locker  lock.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewResolver(s store.Store, l lock.Locker, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  s,
		locker: l,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithMetrics counts created identities on m.
func (r *Resolver) WithMetrics(m *metrics.Metrics) *Resolver {
	r.metrics = m
	return r
}

// Resolve fills PlayerID for every participant that lacks one and has a
// usable name, creating identities for names never seen before. Creation is
// serialized per canonical name; if another writer still wins the race, the
// oldest stored identity for that name is adopted. On any store failure
// nothing is merged and the error wraps artsociety.ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, players []artsociety.Participant) ([]artsociety.Participant, error) {
	out := slices.Clone(players)

	var (
		canonicals []string
		display    = make(map[string]string)
	)
	for _, p := range out {
		if p.PlayerID != "" {
			continue
		}
		c := canon.Canonicalize(p.Name)
		if c == "" {
			continue
		}
		if _, seen := display[c]; !seen {
			canonicals = append(canonicals, c)
			display[c] = strings.TrimSpace(p.Name)
		}
	}
	if len(canonicals) == 0 {
		return out, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	release, err := r.locker.Lock(lockCtx, canonicals...)
	cancel()
	if err != nil {
		return nil, unavailable("locking identities", err)
	}
	defer release()

	existing, err := r.store.PlayersByCanonical(ctx, canonicals)
	if err != nil {
		return nil, unavailable("fetching identities", err)
	}
	resolved := pickOldest(existing)

	var create []artsociety.Identity
	now := r.now().UTC()
	for _, c := range canonicals {
		if _, ok := resolved[c]; ok {
			continue
		}
		create = append(create, artsociety.Identity{
			ID:          r.newID(),
			Canonical:   c,
			DisplayName: display[c],
			CreatedAt:   &now,
			GamesPlayed: artsociety.Ptr(0),
			Wins:        artsociety.Ptr(0),
		})
	}

	if len(create) > 0 {
		inserted, err := r.store.InsertPlayers(ctx, create)
		if err != nil {
			return nil, unavailable("creating identities", err)
		}
		for _, p := range inserted {
			resolved[p.Canonical] = p
		}
		if len(inserted) > 0 {
			r.logger.Info("created identities", "count", len(inserted))
			r.metrics.IdentitiesCreated(len(inserted))
		}

		if len(inserted) < len(create) {
			if err := r.adoptWinners(ctx, create, resolved); err != nil {
				return nil, err
			}
		}
	}

	for i, p := range out {
		if p.PlayerID != "" {
			continue
		}
		if id, ok := resolved[canon.Canonicalize(p.Name)]; ok {
			out[i].PlayerID = id.ID
		}
	}
	return out, nil
}

// adoptWinners re-reads canonicals whose creation lost to a concurrent writer.
func (r *Resolver) adoptWinners(ctx context.Context, attempted []artsociety.Identity, resolved map[string]artsociety.Identity) error {
	var lost []string
	for _, p := range attempted {
		if _, ok := resolved[p.Canonical]; !ok {
			lost = append(lost, p.Canonical)
		}
	}

	r.logger.Warn("identity creation conflict, refetching", "canonicals", lost)

	rows, err := r.store.PlayersByCanonical(ctx, lost)
	if err != nil {
		return unavailable("refetching identities", err)
	}
	for c, p := range pickOldest(rows) {
		resolved[c] = p
	}

	for _, c := range lost {
		if _, ok := resolved[c]; !ok {
			return fmt.Errorf("%w: identity %q neither created nor found", artsociety.ErrStoreUnavailable, c)
		}
	}
	return nil
}

// pickOldest chooses one identity per canonical: earliest creation time,
// rows without one first, then lowest id.
func pickOldest(rows []artsociety.Identity) map[string]artsociety.Identity {
	out := make(map[string]artsociety.Identity, len(rows))
	for _, p := range rows {
		cur, ok := out[p.Canonical]
		if !ok || older(p, cur) {
			out[p.Canonical] = p
		}
	}
	return out
}

func older(a, b artsociety.Identity) bool {
	switch {
	case a.CreatedAt == nil && b.CreatedAt != nil:
		return true
	case a.CreatedAt != nil && b.CreatedAt == nil:
		return false
	case a.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt):
		return a.CreatedAt.Before(*b.CreatedAt)
	}
	return a.ID < b.ID
}

func unavailable(op string, err error) error {
	if errors.Is(err, artsociety.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", artsociety.ErrStoreUnavailable, op, err)
}

const maxSuggestions = 10

// SearchResult splits identities into exact canonical matches and names
// that are close enough to be worth offering.
type SearchResult struct {
	Canonical   string                `json:"canonical"`
	Matches     []artsociety.Identity `json:"matches"`
	Suggestions []artsociety.Identity `json:"suggestions"`
}

// Search looks up identities for a typed name. Suggestions are names within
// one edit of the query or starting with it.
func (r *Resolver) Search(ctx context.Context, query string) (SearchResult, error) {
	res := SearchResult{
		Canonical:   canon.Canonicalize(query),
		Matches:     []artsociety.Identity{},
		Suggestions: []artsociety.Identity{},
	}
	if res.Canonical == "" {
		return res, nil
	}

	players, err := r.store.ListPlayers(ctx)
	if err != nil {
		return res, err
	}

	for _, p := range players {
		switch {
		case p.Canonical == res.Canonical:
			res.Matches = append(res.Matches, p)
		case canon.IsCloseMatch(p.Canonical, res.Canonical), strings.HasPrefix(p.Canonical, res.Canonical):
			res.Suggestions = append(res.Suggestions, p)
		}
	}

	slices.SortFunc(res.Suggestions, func(a, b artsociety.Identity) int {
		return cmp.Or(cmp.Compare(a.Canonical, b.Canonical), cmp.Compare(a.ID, b.ID))
	})
	if len(res.Suggestions) > maxSuggestions {
		res.Suggestions = res.Suggestions[:maxSuggestions]
	}
	return res, nil
}
