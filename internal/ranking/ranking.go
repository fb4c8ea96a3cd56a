// Package ranking decides game winners and podium order.
//
// Among the players tied at the top score, a manual tie-break flag wins
// outright (first flagged player in seat order). Without a flag the tie is
// broken by decor count, highest first, then by name in byte order.
package ranking

import (
	"slices"
	"strings"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

// Ref points at a winner: the identity id when resolved, otherwise the name.
type Ref struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name"`
}

// Key is the identity id, or the name when no identity is attached.
func (r Ref) Key() string {
	if r.PlayerID != "" {
		return r.PlayerID
	}
	return r.Name
}

// WinnerIndex returns the seat index of the winner. It reports false when no
// player has a final score.
func WinnerIndex(players []artsociety.Participant) (int, bool) {
	tied := topScorers(players)
	if len(tied) == 0 {
		return 0, false
	}

	for _, i := range tied {
		if players[i].TieBreakWinner {
			return i, true
		}
	}

	best := tied[0]
	for _, i := range tied[1:] {
		if automatic(players[i], players[best]) < 0 {
			best = i
		}
	}
	return best, true
}

// ResolveWinner returns a reference to the winning player.
func ResolveWinner(players []artsociety.Participant) (Ref, bool) {
	i, ok := WinnerIndex(players)
	if !ok {
		return Ref{}, false
	}
	return Ref{PlayerID: players[i].PlayerID, Name: players[i].Name}, true
}

func topScorers(players []artsociety.Participant) []int {
	var (
		tied []int
		top  int
	)
	for i, p := range players {
		if p.FinalScore == nil {
			continue
		}
		switch s := *p.FinalScore; {
		case len(tied) == 0 || s > top:
			top = s
			tied = append(tied[:0], i)
		case s == top:
			tied = append(tied, i)
		}
	}
	return tied
}

// automatic orders two equally scored players: more decor first, then name.
func automatic(a, b artsociety.Participant) int {
	if a.DecorCount != b.DecorCount {
		return b.DecorCount - a.DecorCount
	}
	return strings.Compare(a.Name, b.Name)
}

// Standing is one podium position.
type Standing struct {
	Place  int                    `json:"place"`
	Player artsociety.Participant `json:"player"`
	Winner bool                   `json:"winner"`
}

// Standings orders players by score, decor and name, placing the resolved
// winner first. Unscored players go last. Players sharing score, decor and
// name share a place.
func Standings(players []artsociety.Participant) []Standing {
	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(i, j int) int {
		a, b := players[i], players[j]
		switch {
		case a.FinalScore == nil && b.FinalScore == nil:
			return 0
		case a.FinalScore == nil:
			return 1
		case b.FinalScore == nil:
			return -1
		case *a.FinalScore != *b.FinalScore:
			return *b.FinalScore - *a.FinalScore
		}
		return automatic(a, b)
	})

	winner, hasWinner := WinnerIndex(players)
	if hasWinner {
		pos := slices.Index(order, winner)
		order = slices.Delete(order, pos, pos+1)
		order = slices.Insert(order, 0, winner)
	}

	out := make([]Standing, len(order))
	for n, i := range order {
		place := n + 1
		if n > 0 && !(hasWinner && n == 1) && sameRank(players[order[n-1]], players[i]) {
			place = out[n-1].Place
		}
		out[n] = Standing{
			Place:  place,
			Player: players[i],
			Winner: hasWinner && i == winner,
		}
	}
	return out
}

func sameRank(a, b artsociety.Participant) bool {
	if a.FinalScore == nil || b.FinalScore == nil {
		return a.FinalScore == nil && b.FinalScore == nil
	}
	return *a.FinalScore == *b.FinalScore && automatic(a, b) == 0
}
