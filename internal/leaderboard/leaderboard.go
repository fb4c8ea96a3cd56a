// Package leaderboard derives per-player statistics from stored identity
// counters and from the game history.
//
// Stored counters win whenever they are present. History fills the gaps:
// identities without counters, players whose identity row is missing, and
// the average and high score, which are never stored. Identity rows sharing
// a canonical name are folded into one row named after the most recently
// played of them.
package leaderboard

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/canon"
	"github.com/Nicoding1996/art-society/internal/ranking"
)

// tally is what the history says about one player key.
type tally struct {
	games, wins   int
	total, scored int
	high          int
	hasHigh       bool
	last          time.Time
	name          string
	canonical     string
	playerID      string
}

func (t *tally) merge(o *tally) {
	t.games += o.games
	t.wins += o.wins
	t.total += o.total
	t.scored += o.scored
	if o.hasHigh && (!t.hasHigh || o.high > t.high) {
		t.high = o.high
		t.hasHigh = true
	}
	if t.name == "" || o.last.After(t.last) {
		t.name = o.name
		t.canonical = o.canonical
		if o.playerID != "" {
			t.playerID = o.playerID
		}
	}
	if o.last.After(t.last) {
		t.last = o.last
	}
}

func (t *tally) avg() float64 {
	if t.scored == 0 {
		return 0
	}
	// Halves round up, so -2.25 becomes -2.2.
	return math.Floor(float64(t.total)/float64(t.scored)*10+0.5) / 10
}

func idKey(id string) string          { return "id:" + id }
func nameKey(canonical string) string { return "name:" + canonical }

// fromHistory tallies every appearance, keyed by identity id when the
// participant has one and by canonical name otherwise.
func fromHistory(history []artsociety.Snapshot) map[string]*tally {
	out := make(map[string]*tally)
	for _, g := range history {
		winner, hasWinner := ranking.WinnerIndex(g.Players)
		for i, p := range g.Players {
			c := canon.Canonicalize(p.Name)
			var key string
			switch {
			case p.PlayerID != "":
				key = idKey(p.PlayerID)
			case c != "":
				key = nameKey(c)
			default:
				continue
			}

			one := &tally{games: 1, last: g.CreatedAt, name: p.Name, canonical: c, playerID: p.PlayerID}
			if hasWinner && i == winner {
				one.wins = 1
			}
			if p.FinalScore != nil {
				one.total = *p.FinalScore
				one.scored = 1
				one.high = *p.FinalScore
				one.hasHigh = true
			}

			if t, ok := out[key]; ok {
				t.merge(one)
			} else {
				out[key] = one
			}
		}
	}
	return out
}

// Build returns the leaderboard ordered by wins, then games (both
// descending), then name. Players with no games, wins or high score are
// left out.
func Build(identities []artsociety.Identity, history []artsociety.Snapshot) []artsociety.LeaderboardRow {
	tallies := fromHistory(history)
	used := make(map[string]bool)

	groups := groupByCanonical(identities)
	hists := make([]*tally, len(groups))
	byCanonical := make(map[string]int)
	for i, group := range groups {
		hist := &tally{}
		keys := []string{nameKey(group[0].Canonical)}
		for _, p := range group {
			keys = append(keys, idKey(p.ID))
		}
		for _, k := range keys {
			if t, ok := tallies[k]; ok && !used[k] {
				hist.merge(t)
				used[k] = true
			}
		}
		hists[i] = hist
		if c := group[0].Canonical; c != "" {
			byCanonical[c] = i
		}
	}

	// History seats carrying an id with no stored row still belong to the
	// identity group of the same name.
	keys := slices.Sorted(maps.Keys(tallies))
	for _, k := range keys {
		t := tallies[k]
		if used[k] || t.playerID == "" || t.canonical == "" {
			continue
		}
		if i, ok := byCanonical[t.canonical]; ok {
			hists[i].merge(t)
			used[k] = true
		}
	}

	var rows []artsociety.LeaderboardRow
	for i, group := range groups {
		rows = append(rows, mergeGroup(group, hists[i]))
	}

	orphans := make(map[string]*tally)
	var order []string
	for _, k := range keys {
		t := tallies[k]
		if used[k] {
			continue
		}
		group := t.canonical
		if group == "" {
			group = k
		}
		if o, ok := orphans[group]; ok {
			o.merge(t)
			continue
		}
		cp := *t
		orphans[group] = &cp
		order = append(order, group)
	}
	slices.Sort(order)
	for _, g := range order {
		t := orphans[g]
		id := t.playerID
		if id == "" {
			id = nameKey(t.canonical)
		}
		rows = append(rows, artsociety.LeaderboardRow{
			ID:           id,
			Name:         t.name,
			Wins:         t.wins,
			Games:        t.games,
			Avg:          t.avg(),
			High:         t.high,
			LastPlayedAt: timePtr(t.last),
		})
	}

	rows = slices.DeleteFunc(rows, func(r artsociety.LeaderboardRow) bool {
		return r.Games == 0 && r.Wins == 0 && r.High == 0
	})
	slices.SortFunc(rows, func(a, b artsociety.LeaderboardRow) int {
		return cmp.Or(
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(b.Games, a.Games),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if rows == nil {
		rows = []artsociety.LeaderboardRow{}
	}
	return rows
}

// groupByCanonical buckets identity rows by canonical name. Rows without a
// canonical name stand alone.
func groupByCanonical(identities []artsociety.Identity) [][]artsociety.Identity {
	index := make(map[string]int)
	var groups [][]artsociety.Identity
	for _, p := range identities {
		key := p.Canonical
		if key == "" {
			key = idKey(p.ID)
		}
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], p)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []artsociety.Identity{p})
	}
	return groups
}

func mergeGroup(group []artsociety.Identity, hist *tally) artsociety.LeaderboardRow {
	rep := group[0]
	var (
		games, wins       int
		hasGames, hasWins bool
		lastPlayed        *time.Time
	)
	for _, p := range group {
		if p.GamesPlayed != nil {
			games += *p.GamesPlayed
			hasGames = true
		}
		if p.Wins != nil {
			wins += *p.Wins
			hasWins = true
		}
		if p.LastPlayedAt != nil && (lastPlayed == nil || p.LastPlayedAt.After(*lastPlayed)) {
			lastPlayed = p.LastPlayedAt
		}
		if playedAfter(p, rep) {
			rep = p
		}
	}

	if !hasGames {
		games = hist.games
	}
	if !hasWins {
		wins = hist.wins
	}
	if lastPlayed == nil {
		lastPlayed = timePtr(hist.last)
	}

	name := rep.DisplayName
	if name == "" {
		name = hist.name
	}
	if name == "" {
		name = rep.Canonical
	}

	return artsociety.LeaderboardRow{
		ID:           rep.ID,
		Name:         name,
		Wins:         wins,
		Games:        games,
		Avg:          hist.avg(),
		High:         hist.high,
		LastPlayedAt: lastPlayed,
	}
}

// playedAfter reports whether a was played more recently than b. A row
// never played is never more recent.
func playedAfter(a, b artsociety.Identity) bool {
	switch {
	case a.LastPlayedAt == nil:
		return false
	case b.LastPlayedAt == nil:
		return true
	}
	return a.LastPlayedAt.After(*b.LastPlayedAt)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
