package scoring

import (
	"github.com/Nicoding1996/art-society/internal/artsociety"
)

// ValidateOrder checks that order has one item per color and that position i
// carries multiplier 5-i.
func ValidateOrder(order artsociety.PrestigeOrder) error {
	if len(order) != len(artsociety.Colors) {
		return artsociety.Invalidf("prestige order must have %d items, got %d", len(artsociety.Colors), len(order))
	}
	seen := make(map[artsociety.Color]bool, len(order))
	for i, item := range order {
		if !item.Color.Valid() {
			return artsociety.Invalidf("prestige order: unknown color %q", item.Color)
		}
		if seen[item.Color] {
			return artsociety.Invalidf("prestige order: duplicate color %q", item.Color)
		}
		seen[item.Color] = true
		if want := artsociety.Multiplier(5 - i); item.Multiplier != want {
			return artsociety.Invalidf("prestige order: position %d has multiplier %d, want %d", i, item.Multiplier, want)
		}
	}
	return nil
}

// Multipliers maps each color to its multiplier. Colors missing from order
// default to 2.
func Multipliers(order artsociety.PrestigeOrder) map[artsociety.Color]artsociety.Multiplier {
	m := make(map[artsociety.Color]artsociety.Multiplier, len(artsociety.Colors))
	for _, c := range artsociety.Colors {
		m[c] = 2
	}
	for _, item := range order {
		m[item.Color] = item.Multiplier
	}
	return m
}

// BonusColor returns the color holding the x5 multiplier.
func BonusColor(order artsociety.PrestigeOrder) artsociety.Color {
	for _, item := range order {
		if item.Multiplier == 5 {
			return item.Color
		}
	}
	return artsociety.DefaultPrestigeOrder()[0].Color
}

// Move swaps the item at idx with its neighbour in direction dir (-1 or 1)
// and reassigns multipliers by position. Moving past either end returns the
// order unchanged.
func Move(order artsociety.PrestigeOrder, idx, dir int) (artsociety.PrestigeOrder, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(order) {
		return nil, artsociety.Invalidf("index %d out of range", idx)
	}
	if dir != -1 && dir != 1 {
		return nil, artsociety.Invalidf("direction must be -1 or 1, got %d", dir)
	}

	next := make(artsociety.PrestigeOrder, len(order))
	copy(next, order)

	j := idx + dir
	if j < 0 || j >= len(next) {
		return next, nil
	}
	next[idx], next[j] = next[j], next[idx]
	for i := range next {
		next[i].Multiplier = artsociety.Multiplier(5 - i)
	}
	return next, nil
}

// Locked reports whether any player has entered scoring input. The prestige
// order must not change once this is true.
func Locked(players []artsociety.Participant) bool {
	for _, p := range players {
		if HasInput(p) {
			return true
		}
	}
	return false
}

func HasInput(p artsociety.Participant) bool {
	if p.EyelineCount > 0 || p.DecorCount > 0 || p.CompleteBoard {
		return true
	}
	if p.Penalties.EmptyCorners > 0 || p.Penalties.UnplacedPaintings > 0 {
		return true
	}
	for _, c := range artsociety.Colors {
		if p.Paintings.Get(c) > 0 {
			return true
		}
	}
	return false
}
