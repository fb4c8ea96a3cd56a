package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Nicoding1996/art-society/internal/artsociety"
	"github.com/Nicoding1996/art-society/internal/store"
)

var day = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func at(d int) *time.Time {
	t := day.AddDate(0, 0, d)
	return &t
}

func seat(playerID, name string, score, decor int) artsociety.Participant {
	return artsociety.Participant{ID: name, PlayerID: playerID, Name: name, FinalScore: &score, DecorCount: decor}
}

func game(id string, d int, players ...artsociety.Participant) artsociety.Snapshot {
	return artsociety.Snapshot{ID: id, CreatedAt: *at(d), PrestigeOrder: artsociety.DefaultPrestigeOrder(), Players: players, Version: 1}
}

func find(rows []artsociety.LeaderboardRow, name string) (artsociety.LeaderboardRow, bool) {
	for _, r := range rows {
		if r.Name == name {
			return r, true
		}
	}
	return artsociety.LeaderboardRow{}, false
}

func TestBuildMergesDuplicateCanonical(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "s1", Canonical: "sam", DisplayName: "sam", GamesPlayed: artsociety.Ptr(3), Wins: artsociety.Ptr(1), LastPlayedAt: at(1)},
		{ID: "s2", Canonical: "sam", DisplayName: "Sam W.", GamesPlayed: artsociety.Ptr(2), Wins: artsociety.Ptr(0), LastPlayedAt: at(5)},
	}

	rows := Build(identities, nil)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(rows), rows)
	}
	r := rows[0]
	if r.Games != 5 || r.Wins != 1 {
		t.Errorf("games/wins = %d/%d, want 5/1", r.Games, r.Wins)
	}
	if r.Name != "Sam W." || r.ID != "s2" {
		t.Errorf("representative = %s/%s, want s2/Sam W.", r.ID, r.Name)
	}
	if !r.LastPlayedAt.Equal(*at(5)) {
		t.Errorf("last played = %v, want %v", r.LastPlayedAt, at(5))
	}
}

func TestBuildNoiseFilter(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "a", Canonical: "ana", DisplayName: "Ana", GamesPlayed: artsociety.Ptr(0), Wins: artsociety.Ptr(0)},
		{ID: "b", Canonical: "ben", DisplayName: "Ben", GamesPlayed: artsociety.Ptr(1), Wins: artsociety.Ptr(0)},
	}

	rows := Build(identities, nil)
	if _, ok := find(rows, "Ana"); ok {
		t.Error("Ana has no games and should be filtered out")
	}
	if _, ok := find(rows, "Ben"); !ok {
		t.Error("Ben should be listed")
	}
}

func TestBuildPrefersStoredCounters(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "a", Canonical: "ana", DisplayName: "Ana", GamesPlayed: artsociety.Ptr(10), Wins: artsociety.Ptr(4)},
	}
	history := []artsociety.Snapshot{
		game("g1", 0, seat("a", "Ana", 30, 0), seat("", "Ben", 20, 0)),
	}

	r, ok := find(Build(identities, history), "Ana")
	if !ok {
		t.Fatal("Ana missing")
	}
	if r.Games != 10 || r.Wins != 4 {
		t.Errorf("games/wins = %d/%d, want stored 10/4", r.Games, r.Wins)
	}
	if r.High != 30 || r.Avg != 30 {
		t.Errorf("high/avg = %d/%v, want 30/30 from history", r.High, r.Avg)
	}
}

func TestBuildFallsBackToHistoryForPartialRows(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "a", Canonical: "ana", DisplayName: "Ana"},
	}
	history := []artsociety.Snapshot{
		game("g1", 0, seat("a", "Ana", 30, 0), seat("", "Ben", 20, 0)),
		game("g2", 1, seat("a", "Ana", 10, 0), seat("", "Ben", 20, 0)),
		game("g3", 2, seat("", "ana", 11, 0), seat("", "Ben", 5, 0)),
	}

	rows := Build(identities, history)
	r, ok := find(rows, "Ana")
	if !ok {
		t.Fatalf("Ana missing: %+v", rows)
	}
	if r.Games != 3 || r.Wins != 2 {
		t.Errorf("games/wins = %d/%d, want 3/2 from history", r.Games, r.Wins)
	}
	if r.Avg != 17 {
		t.Errorf("avg = %v, want 17", r.Avg)
	}
	if r.High != 30 {
		t.Errorf("high = %d, want 30", r.High)
	}
	if r.LastPlayedAt == nil || !r.LastPlayedAt.Equal(*at(2)) {
		t.Errorf("last played = %v, want %v", r.LastPlayedAt, at(2))
	}

	ben, ok := find(rows, "Ben")
	if !ok {
		t.Fatal("Ben missing")
	}
	if ben.Games != 3 || ben.Wins != 1 || ben.ID != "name:ben" {
		t.Errorf("ben = %+v", ben)
	}
}

func TestBuildGroupsOrphanHistoryByCanonical(t *testing.T) {
	history := []artsociety.Snapshot{
		game("g1", 0, seat("", "Zoë", 12, 0), seat("", "Max", 2, 0)),
		game("g2", 1, seat("", "zoe!", 10, 0), seat("", "Max", 9, 0)),
	}

	rows := Build(nil, history)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	z := rows[0]
	if z.Name != "zoe!" || z.Games != 2 || z.Wins != 2 {
		t.Errorf("zoe row = %+v", z)
	}
	if z.Avg != 11 || z.High != 12 {
		t.Errorf("avg/high = %v/%d, want 11/12", z.Avg, z.High)
	}
}

func TestBuildAverageRounding(t *testing.T) {
	history := []artsociety.Snapshot{
		game("g1", 0, seat("a", "Ana", 10, 0), seat("b", "Ben", 0, 0)),
		game("g2", 1, seat("a", "Ana", 11, 0), seat("b", "Ben", 0, 0)),
		game("g3", 2, seat("a", "Ana", 11, 0), seat("b", "Ben", 0, 0)),
	}

	r, _ := find(Build(nil, history), "Ana")
	if r.Avg != 10.7 {
		t.Errorf("avg = %v, want 10.7", r.Avg)
	}
}

func TestBuildAverageRoundsHalvesUp(t *testing.T) {
	history := []artsociety.Snapshot{
		game("g1", 0, seat("a", "Ana", -2, 0), seat("b", "Ben", -10, 0)),
		game("g2", 1, seat("a", "Ana", -3, 0), seat("b", "Ben", -10, 0)),
		game("g3", 2, seat("a", "Ana", -2, 0), seat("b", "Ben", -10, 0)),
		game("g4", 3, seat("a", "Ana", -2, 0), seat("b", "Ben", -10, 0)),
	}

	r, _ := find(Build(nil, history), "Ana")
	if r.Avg != -2.2 {
		t.Errorf("avg = %v, want -2.2", r.Avg)
	}
}

func TestBuildFoldsUnknownIDIntoCanonicalGroup(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "A", Canonical: "sam", DisplayName: "Sam", GamesPlayed: artsociety.Ptr(3), Wins: artsociety.Ptr(1)},
	}
	history := []artsociety.Snapshot{
		game("g1", 0, seat("Z", "Sam", 10, 0), seat("", "Bo", 5, 0)),
	}

	rows := Build(identities, history)
	var sams int
	for _, r := range rows {
		if r.Name == "Sam" {
			sams++
		}
	}
	if sams != 1 {
		t.Fatalf("got %d Sam rows, want 1: %+v", sams, rows)
	}
	r, _ := find(rows, "Sam")
	if r.ID != "A" || r.Games != 3 || r.Wins != 1 || r.Avg != 10 || r.High != 10 {
		t.Errorf("Sam = %+v, want A with 3 games, 1 win, avg 10, high 10", r)
	}
	if _, ok := find(rows, "Bo"); !ok {
		t.Errorf("Bo missing: %+v", rows)
	}
}

func TestBuildOrdering(t *testing.T) {
	identities := []artsociety.Identity{
		{ID: "1", Canonical: "dana", DisplayName: "Dana", GamesPlayed: artsociety.Ptr(5), Wins: artsociety.Ptr(1)},
		{ID: "2", Canonical: "ben", DisplayName: "Ben", GamesPlayed: artsociety.Ptr(3), Wins: artsociety.Ptr(2)},
		{ID: "3", Canonical: "cleo", DisplayName: "Cleo", GamesPlayed: artsociety.Ptr(6), Wins: artsociety.Ptr(1)},
		{ID: "4", Canonical: "ana", DisplayName: "Ana", GamesPlayed: artsociety.Ptr(5), Wins: artsociety.Ptr(1)},
		{ID: "5", Canonical: "bob", DisplayName: "bob", GamesPlayed: artsociety.Ptr(5), Wins: artsociety.Ptr(1)},
	}

	rows := Build(identities, nil)
	want := []string{"Ben", "Cleo", "Ana", "Dana", "bob"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, name := range want {
		if rows[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, rows[i].Name, name)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	rows := Build(nil, nil)
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestServiceHistory(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	s.UpsertGames(ctx, []artsociety.Snapshot{
		game("old", 0, seat("a", "Ana", 10, 0), seat("b", "Ben", 20, 0)),
		game("new", 3, seat("a", "Ana", 30, 0), seat("b", "Ben", 20, 0)),
	})
	s.UpsertPlayers(ctx, []artsociety.Identity{
		{ID: "a", Canonical: "ana", DisplayName: "Ana", GamesPlayed: artsociety.Ptr(2), Wins: artsociety.Ptr(1)},
		{ID: "b", Canonical: "ben", DisplayName: "Ben", GamesPlayed: artsociety.Ptr(2), Wins: artsociety.Ptr(1)},
	})

	view, err := NewService(s, slog.Default()).History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(view.History) != 2 || view.History[0].ID != "new" {
		t.Errorf("history order = %+v", view.History)
	}
	if len(view.Leaderboard) != 2 || view.Degraded {
		t.Errorf("leaderboard = %+v degraded=%v", view.Leaderboard, view.Degraded)
	}
}

func TestServiceHistoryDegradesOnSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	s.UpsertGames(ctx, []artsociety.Snapshot{
		game("g1", 0, seat("a", "Ana", 10, 0), seat("b", "Ben", 20, 0)),
	})
	s.FailOn(store.OpListPlayers, artsociety.ErrSchemaMismatch)

	view, err := NewService(s, slog.Default()).History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if !view.Degraded {
		t.Error("expected degraded view")
	}
	ben, ok := find(view.Leaderboard, "Ben")
	if !ok || ben.Wins != 1 || ben.Games != 1 {
		t.Errorf("ben = %+v, want history-derived 1 win", ben)
	}
}

func TestServiceHistoryStoreUnavailable(t *testing.T) {
	for _, op := range []string{store.OpListGames, store.OpListPlayers} {
		t.Run(op, func(t *testing.T) {
			s := store.NewMemory()
			s.FailOn(op, errors.New("timeout"))

			_, err := NewService(s, slog.Default()).History(context.Background())
			if !errors.Is(err, artsociety.ErrStoreUnavailable) {
				t.Fatalf("err = %v, want ErrStoreUnavailable", err)
			}
		})
	}
}
