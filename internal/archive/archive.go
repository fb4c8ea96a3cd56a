// Package archive copies per-seat scores of recorded games into ClickHouse
// for long-range analysis. The primary store stays the source of truth.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/canon"
	"github.com/Nicoding1996/art-society/internal/ranking"
	"github.com/Nicoding1996/art-society/internal/scoring"
)

// Row is one seat of one game.
type Row struct {
	GameID     string
	PlayedAt   time.Time
	Seat       uint8
	PlayerID   string
	Name       string
	Canonical  string
	Score      int32
	Winner     bool
	Red        uint8
	Blue       uint8
	Yellow     uint8
	Green      uint8
	Eyeline    uint8
	Decor      uint8
	Complete   bool
	BonusColor string
}

// Rows flattens g into archive rows in seat order. Seats without a final
// score are skipped.
func Rows(g artsociety.Snapshot) []Row {
	winner, hasWinner := ranking.WinnerIndex(g.Players)
	bonus := string(scoring.BonusColor(g.PrestigeOrder))

	rows := make([]Row, 0, len(g.Players))
	for i, p := range g.Players {
		if p.FinalScore == nil {
			continue
		}
		rows = append(rows, Row{
			GameID:     g.ID,
			PlayedAt:   g.CreatedAt.UTC(),
			Seat:       uint8(i),
			PlayerID:   p.PlayerID,
			Name:       p.Name,
			Canonical:  canon.Canonicalize(p.Name),
			Score:      int32(*p.FinalScore),
			Winner:     hasWinner && i == winner,
			Red:        uint8(p.Paintings.Red),
			Blue:       uint8(p.Paintings.Blue),
			Yellow:     uint8(p.Paintings.Yellow),
			Green:      uint8(p.Paintings.Green),
			Eyeline:    uint8(p.EyelineCount),
			Decor:      uint8(p.DecorCount),
			Complete:   p.CompleteBoard,
			BonusColor: bonus,
		})
	}
	return rows
}

const createTable = `
CREATE TABLE IF NOT EXISTS score_archive (
	game_id     String,
	played_at   DateTime64(3, 'UTC'),
	seat        UInt8,
	player_id   String,
	name        String,
	canonical   String,
	score       Int32,
	winner      Bool,
	red         UInt8,
	blue        UInt8,
	yellow      UInt8,
	green       UInt8,
	eyeline     UInt8,
	decor       UInt8,
	complete    Bool,
	bonus_color LowCardinality(String),
	archived_at DateTime64(3, 'UTC') DEFAULT now64(3)
)
ENGINE = ReplacingMergeTree(archived_at)
ORDER BY (game_id, seat)`

// ClickHouse archives games into the score_archive table. Replays of a game
// replace its earlier rows at merge time.
type ClickHouse struct {
	conn driver.Conn
}

type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// NewClickHouse connects, pings and creates the archive table if needed.
func NewClickHouse(ctx context.Context, opts Options) (*ClickHouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	if err := conn.Exec(ctx, createTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating score_archive: %w", err)
	}

	return &ClickHouse{conn: conn}, nil
}

func (c *ClickHouse) Archive(ctx context.Context, g artsociety.Snapshot) error {
	rows := Rows(g)
	if len(rows) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO score_archive (game_id, played_at, seat, player_id, name, canonical, score, winner, red, blue, yellow, green, eyeline, decor, complete, bonus_color)")
	if err != nil {
		return fmt.Errorf("preparing batch: %w", err)
	}
	defer batch.Abort()

	for _, r := range rows {
		err := batch.Append(
			r.GameID, r.PlayedAt, r.Seat, r.PlayerID, r.Name, r.Canonical,
			r.Score, r.Winner, r.Red, r.Blue, r.Yellow, r.Green,
			r.Eyeline, r.Decor, r.Complete, r.BonusColor,
		)
		if err != nil {
			return fmt.Errorf("appending seat %d: %w", r.Seat, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending batch for game %s: %w", g.ID, err)
	}
	return nil
}

func (c *ClickHouse) Check(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
