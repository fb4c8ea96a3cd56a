package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// SQLStore implements Store on database/sql, for libSQL or PostgreSQL.
// JSON columns are JSONB in both.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQL(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

const (
	playerColumns     = "id, canonical, display_name, avatar_key, color_hint, created_at, last_played_at, games_played, wins"
	corePlayerColumns = "id, canonical, display_name"
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", artsociety.ErrStoreUnavailable, op, err)
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) jsonIn() string {
	if s.dialect == Postgres {
		return "CAST(? AS JSONB)"
	}
	return "jsonb(?)"
}

func (s *SQLStore) jsonOut(col string) string {
	if s.dialect == Postgres {
		return col + "::text"
	}
	return "json(" + col + ")"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isMissingColumn(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42703"
	}
	return err != nil && strings.Contains(err.Error(), "no such column")
}

// --- players ---

func (s *SQLStore) ListPlayers(ctx context.Context) ([]artsociety.Identity, error) {
	return s.queryPlayers(ctx, "list players", "", nil)
}

func (s *SQLStore) PlayersByCanonical(ctx context.Context, canonicals []string) ([]artsociety.Identity, error) {
	if len(canonicals) == 0 {
		return nil, nil
	}
	return s.queryPlayers(ctx, "select players by canonical",
		"WHERE canonical IN ("+placeholders(len(canonicals))+")", stringArgs(canonicals))
}

func (s *SQLStore) PlayersByID(ctx context.Context, ids []string) ([]artsociety.Identity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryPlayers(ctx, "select players by id",
		"WHERE id IN ("+placeholders(len(ids))+")", stringArgs(ids))
}

// queryPlayers reads with the full projection and falls back to the core
// columns when optional ones are missing.
func (s *SQLStore) queryPlayers(ctx context.Context, op, where string, args []any) ([]artsociety.Identity, error) {
	full := true
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT "+playerColumns+" FROM players "+where+" ORDER BY id"), args...)
	if isMissingColumn(err) {
		full = false
		rows, err = s.db.QueryContext(ctx, s.rebind("SELECT "+corePlayerColumns+" FROM players "+where+" ORDER BY id"), args...)
		if isMissingColumn(err) {
			return nil, fmt.Errorf("%w: %s: %w", artsociety.ErrSchemaMismatch, op, err)
		}
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var out []artsociety.Identity
	for rows.Next() {
		var (
			p                       artsociety.Identity
			canonical, display      sql.NullString
			avatar, color           sql.NullString
			createdAt, lastPlayedAt sql.NullString
			gamesPlayed, wins       sql.NullInt64
		)
		dest := []any{&p.ID, &canonical, &display}
		if full {
			dest = append(dest, &avatar, &color, &createdAt, &lastPlayedAt, &gamesPlayed, &wins)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, unavailable(op, err)
		}

		p.Canonical = canonical.String
		p.DisplayName = display.String
		p.AvatarKey = nullString(avatar)
		p.ColorHint = nullString(color)
		p.CreatedAt = nullTime(createdAt)
		p.LastPlayedAt = nullTime(lastPlayedAt)
		p.GamesPlayed = nullInt(gamesPlayed)
		p.Wins = nullInt(wins)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

func (s *SQLStore) InsertPlayers(ctx context.Context, players []artsociety.Identity) ([]artsociety.Identity, error) {
	q := s.rebind(`INSERT INTO players (` + playerColumns + `)
		SELECT CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS TEXT),
		       CAST(? AS TEXT), CAST(? AS TEXT), CAST(? AS INTEGER), CAST(? AS INTEGER)
		WHERE NOT EXISTS (SELECT 1 FROM players WHERE canonical = ?)`)

	var inserted []artsociety.Identity
	for _, p := range players {
		args := append(playerArgs(p), p.Canonical)
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return inserted, unavailable("insert players", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, p)
		}
	}
	return inserted, nil
}

func (s *SQLStore) UpsertPlayers(ctx context.Context, players []artsociety.Identity) error {
	q := s.rebind(`INSERT INTO players (` + playerColumns + `)
		VALUES (` + placeholders(9) + `)
		ON CONFLICT(id) DO UPDATE SET
			canonical = excluded.canonical,
			display_name = excluded.display_name,
			avatar_key = excluded.avatar_key,
			color_hint = excluded.color_hint,
			created_at = excluded.created_at,
			last_played_at = excluded.last_played_at,
			games_played = excluded.games_played,
			wins = excluded.wins`)

	return s.inTx(ctx, "upsert players", func(tx *sql.Tx) error {
		for _, p := range players {
			if _, err := tx.ExecContext(ctx, q, playerArgs(p)...); err != nil {
				return err
			}
		}
		return nil
	})
}

func playerArgs(p artsociety.Identity) []any {
	return []any{
		p.ID,
		p.Canonical,
		p.DisplayName,
		ptrArg(p.AvatarKey),
		ptrArg(p.ColorHint),
		timeArg(p.CreatedAt),
		timeArg(p.LastPlayedAt),
		derefInt(p.GamesPlayed),
		derefInt(p.Wins),
	}
}

// --- games ---

func (s *SQLStore) ListGames(ctx context.Context) ([]artsociety.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, created_at, %s, %s, version FROM games ORDER BY created_at DESC, id DESC`,
		s.jsonOut("prestige_order"), s.jsonOut("players"),
	))
	if err != nil {
		return nil, unavailable("list games", err)
	}
	defer rows.Close()

	var out []artsociety.Snapshot
	for rows.Next() {
		var (
			g              artsociety.Snapshot
			createdAt      string
			order, players sql.NullString
			version        sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &createdAt, &order, &players, &version); err != nil {
			return nil, unavailable("list games", err)
		}
		g.CreatedAt, _ = parseTime(createdAt)
		if err := json.Unmarshal([]byte(order.String), &g.PrestigeOrder); err != nil || len(g.PrestigeOrder) == 0 {
			g.PrestigeOrder = artsociety.DefaultPrestigeOrder()
		}
		if err := json.Unmarshal([]byte(players.String), &g.Players); err != nil {
			g.Players = nil
		}
		g.Version = int(version.Int64)
		if g.Version == 0 {
			g.Version = artsociety.SnapshotVersion
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list games", err)
	}
	return out, nil
}

func (s *SQLStore) UpsertGames(ctx context.Context, games []artsociety.Snapshot) error {
	q := s.rebind(fmt.Sprintf(`INSERT INTO games (id, created_at, prestige_order, players, version)
		VALUES (?, ?, %[1]s, %[1]s, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			prestige_order = excluded.prestige_order,
			players = excluded.players,
			version = excluded.version`, s.jsonIn()))

	return s.inTx(ctx, "upsert games", func(tx *sql.Tx) error {
		for _, g := range games {
			order, err := json.Marshal(g.PrestigeOrder)
			if err != nil {
				return err
			}
			players, err := json.Marshal(g.Players)
			if err != nil {
				return err
			}
			version := g.Version
			if version == 0 {
				version = artsociety.SnapshotVersion
			}
			if _, err := tx.ExecContext(ctx, q, g.ID, formatTime(g.CreatedAt), string(order), string(players), version); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- lineups ---

func (s *SQLStore) Lineup(ctx context.Context, id string) (artsociety.Lineup, error) {
	var (
		l        artsociety.Lineup
		ids      string
		lastUsed string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`SELECT id, size, %s, last_used_at, uses FROM lineups WHERE id = ?`, s.jsonOut("player_ids"),
	)), id).Scan(&l.ID, &l.Size, &ids, &lastUsed, &l.Uses)
	if errors.Is(err, sql.ErrNoRows) {
		return artsociety.Lineup{}, artsociety.ErrNotFound
	}
	if err != nil {
		return artsociety.Lineup{}, unavailable("select lineup", err)
	}
	if err := json.Unmarshal([]byte(ids), &l.PlayerIDs); err != nil {
		return artsociety.Lineup{}, unavailable("select lineup", err)
	}
	l.LastUsedAt, _ = parseTime(lastUsed)
	return l, nil
}

func (s *SQLStore) InsertLineup(ctx context.Context, l artsociety.Lineup) error {
	ids, err := json.Marshal(l.PlayerIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf(
		`INSERT INTO lineups (id, size, player_ids, last_used_at, uses) VALUES (?, ?, %s, ?, ?)
		 ON CONFLICT(id) DO NOTHING`, s.jsonIn(),
	)), l.ID, l.Size, string(ids), formatTime(l.LastUsedAt), l.Uses)
	if err != nil {
		return unavailable("insert lineup", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lineup %s: %w", l.ID, artsociety.ErrConflict)
	}
	return nil
}

func (s *SQLStore) TouchLineup(ctx context.Context, id string, usedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE lineups SET uses = uses + 1, last_used_at = ? WHERE id = ?`,
	), formatTime(usedAt), id)
	if err != nil {
		return unavailable("update lineup", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lineup %s: %w", id, artsociety.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) UpsertLineups(ctx context.Context, lineups []artsociety.Lineup) error {
	q := s.rebind(fmt.Sprintf(`INSERT INTO lineups (id, size, player_ids, last_used_at, uses)
		VALUES (?, ?, %s, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			size = excluded.size,
			player_ids = excluded.player_ids,
			last_used_at = excluded.last_used_at,
			uses = excluded.uses`, s.jsonIn()))

	return s.inTx(ctx, "upsert lineups", func(tx *sql.Tx) error {
		for _, l := range lineups {
			ids, err := json.Marshal(l.PlayerIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, q, l.ID, l.Size, string(ids), formatTime(l.LastUsedAt), l.Uses); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- admin ---

func (s *SQLStore) Reset(ctx context.Context, keepPlayers bool) error {
	tables := []string{"games", "lineups"}
	if !keepPlayers {
		tables = append(tables, "players")
	}
	return s.inTx(ctx, "reset", func(tx *sql.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("deleting %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *SQLStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// --- helpers ---

func stringArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t, ok := parseTime(ns.String)
	if !ok {
		return nil
	}
	return &t
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func ptrArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
