// Package events announces recorded games to live listeners.
package events

import (
	"context"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/ranking"
)

const TypeGameRecorded = "game.recorded"

// Score is one seat's result as carried in an event.
type Score struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name"`
	Score    *int   `json:"score"`
}

type Event struct {
	Type   string       `json:"type"`
	GameID string       `json:"gameId"`
	At     time.Time    `json:"at"`
	Winner *ranking.Ref `json:"winner,omitempty"`
	Scores []Score      `json:"scores"`
}

// GameRecorded builds the event sent after g has been saved.
func GameRecorded(g artsociety.Snapshot, at time.Time) Event {
	e := Event{
		Type:   TypeGameRecorded,
		GameID: g.ID,
		At:     at.UTC(),
		Scores: make([]Score, 0, len(g.Players)),
	}
	if w, ok := ranking.ResolveWinner(g.Players); ok {
		e.Winner = &w
	}
	for _, p := range g.Players {
		e.Scores = append(e.Scores, Score{PlayerID: p.PlayerID, Name: p.Name, Score: p.FinalScore})
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
