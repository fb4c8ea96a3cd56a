// Package scoring computes final scores from raw tallies under a prestige
// order, and manages the order itself.
package scoring

import (
	"github.com/Nicoding1996/art-society/internal/artsociety"
)

// ComputeScore returns the final score and its breakdown. The eyeline count
// is clamped to the bonus color's tile count. Scores may be negative.
func ComputeScore(p artsociety.Participant, mult map[artsociety.Color]artsociety.Multiplier, bonus artsociety.Color) (int, artsociety.Breakdown) {
	b := artsociety.Breakdown{
		PerColor: make(map[artsociety.Color]artsociety.ColorPoints, len(artsociety.Colors)),
	}

	paintingSum := 0
	for _, c := range artsociety.Colors {
		tiles := p.Paintings.Get(c)
		m := int(mult[c])
		pts := tiles * m
		b.PerColor[c] = artsociety.ColorPoints{Tiles: tiles, Multiplier: m, Points: pts}
		paintingSum += pts
	}

	eyeline := min(p.EyelineCount, p.Paintings.Get(bonus))
	b.Eyeline = artsociety.EyelinePoints{
		Tiles:   eyeline,
		PerTile: artsociety.EyelinePointsPerTile,
		Points:  eyeline * artsociety.EyelinePointsPerTile,
	}

	b.Decor = p.DecorCount
	if p.CompleteBoard {
		b.Bonuses.CompleteBoard = artsociety.CompleteBoardBonus
	}
	b.Penalties = artsociety.Penalties{
		EmptyCorners:      p.Penalties.EmptyCorners * artsociety.PenaltyPerItem,
		UnplacedPaintings: p.Penalties.UnplacedPaintings * artsociety.PenaltyPerItem,
	}

	final := paintingSum + b.Eyeline.Points + b.Decor + b.Bonuses.CompleteBoard -
		b.Penalties.EmptyCorners - b.Penalties.UnplacedPaintings
	return final, b
}

// ScoreAll returns copies of players with FinalScore and Breakdown filled in.
func ScoreAll(order artsociety.PrestigeOrder, players []artsociety.Participant) []artsociety.Participant {
	mult := Multipliers(order)
	bonus := BonusColor(order)

	out := make([]artsociety.Participant, len(players))
	for i, p := range players {
		final, b := ComputeScore(p, mult, bonus)
		p.FinalScore = &final
		p.Breakdown = &b
		out[i] = p
	}
	return out
}

// SetTiles sets a color's tile count, lowering the eyeline count when it
// would exceed the bonus color's new total.
func SetTiles(p *artsociety.Participant, c artsociety.Color, n int, bonus artsociety.Color) {
	p.Paintings.Set(c, n)
	if c == bonus && p.EyelineCount > n {
		p.EyelineCount = n
	}
}

// SetEyeline sets the eyeline count, capped at the bonus color's tile count.
func SetEyeline(p *artsociety.Participant, n int, bonus artsociety.Color) {
	p.EyelineCount = min(n, p.Paintings.Get(bonus))
}

// ValidateParticipant checks every tally is within 0..MaxTally.
func ValidateParticipant(p artsociety.Participant) error {
	type tally struct {
		field string
		n     int
	}
	counts := []tally{
		{"eyelineCountForX5", p.EyelineCount},
		{"decorCount", p.DecorCount},
		{"penalties.emptyCorners", p.Penalties.EmptyCorners},
		{"penalties.unplacedPaintings", p.Penalties.UnplacedPaintings},
	}
	for _, c := range artsociety.Colors {
		counts = append(counts, tally{"paintings." + string(c), p.Paintings.Get(c)})
	}
	for _, t := range counts {
		if t.n < 0 || t.n > artsociety.MaxTally {
			return artsociety.Invalidf("player %q: %s = %d out of range 0..%d", p.ID, t.field, t.n, artsociety.MaxTally)
		}
	}
	return nil
}

// ValidatePlayers checks the seat count and each participant's tallies.
func ValidatePlayers(players []artsociety.Participant) error {
	if n := len(players); n < artsociety.MinPlayers || n > artsociety.MaxPlayers {
		return artsociety.Invalidf("need %d to %d players, got %d", artsociety.MinPlayers, artsociety.MaxPlayers, n)
	}
	for _, p := range players {
		if err := ValidateParticipant(p); err != nil {
			return err
		}
	}
	return nil
}
