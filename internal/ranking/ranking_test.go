package ranking

import (
	"testing"

	"github.com/Nicoding1996/art-society/internal/artsociety"
)

func scored(name string, score, decor int) artsociety.Participant {
	return artsociety.Participant{ID: name, Name: name, FinalScore: &score, DecorCount: decor}
}

func TestResolveWinner(t *testing.T) {
	flagged := scored("Cleo", 30, 0)
	flagged.TieBreakWinner = true

	lowFlag := scored("Dana", 10, 9)
	lowFlag.TieBreakWinner = true

	withID := scored("Eve", 50, 0)
	withID.PlayerID = "id-eve"

	tests := []struct {
		name    string
		players []artsociety.Participant
		want    string
		wantOK  bool
	}{
		{
			name:    "highest score",
			players: []artsociety.Participant{scored("Ana", 20, 0), scored("Ben", 25, 0)},
			want:    "Ben",
			wantOK:  true,
		},
		{
			name:    "tie broken by decor",
			players: []artsociety.Participant{scored("Ana", 30, 2), scored("Ben", 30, 5)},
			want:    "Ben",
			wantOK:  true,
		},
		{
			name:    "tie broken by name",
			players: []artsociety.Participant{scored("Ben", 30, 5), scored("Ana", 30, 5)},
			want:    "Ana",
			wantOK:  true,
		},
		{
			name:    "name compare is case sensitive",
			players: []artsociety.Participant{scored("ana", 30, 5), scored("Zed", 30, 5)},
			want:    "Zed",
			wantOK:  true,
		},
		{
			name:    "manual override beats decor and name",
			players: []artsociety.Participant{scored("Ana", 30, 9), flagged},
			want:    "Cleo",
			wantOK:  true,
		},
		{
			name:    "override outside the top score is ignored",
			players: []artsociety.Participant{scored("Ana", 30, 0), lowFlag},
			want:    "Ana",
			wantOK:  true,
		},
		{
			name:    "identity id returned when present",
			players: []artsociety.Participant{withID, scored("Ana", 1, 0)},
			want:    "id-eve",
			wantOK:  true,
		},
		{
			name:    "no scores",
			players: []artsociety.Participant{{Name: "Ana"}, {Name: "Ben"}},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveWinner(tt.players)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.Key() != tt.want {
				t.Errorf("winner = %q, want %q", got.Key(), tt.want)
			}
		})
	}
}

func TestResolveWinnerFirstFlagWins(t *testing.T) {
	a := scored("Ana", 30, 0)
	a.TieBreakWinner = true
	b := scored("Ben", 30, 9)
	b.TieBreakWinner = true

	got, _ := ResolveWinner([]artsociety.Participant{b, a})
	if got.Name != "Ben" {
		t.Errorf("winner = %q, want Ben", got.Name)
	}
}

func TestStandings(t *testing.T) {
	flagged := scored("Cleo", 30, 0)
	flagged.TieBreakWinner = true

	players := []artsociety.Participant{
		scored("Ana", 30, 4),
		{ID: "x", Name: "Unscored"},
		scored("Ben", 12, 0),
		flagged,
	}

	got := Standings(players)
	names := []string{"Cleo", "Ana", "Ben", "Unscored"}
	for i, s := range got {
		if s.Player.Name != names[i] {
			t.Fatalf("position %d = %s, want %s", i, s.Player.Name, names[i])
		}
		if s.Place != i+1 {
			t.Errorf("%s place = %d, want %d", s.Player.Name, s.Place, i+1)
		}
	}
	if !got[0].Winner || got[1].Winner {
		t.Error("only the first standing should be the winner")
	}
}

func TestStandingsSharedPlace(t *testing.T) {
	players := []artsociety.Participant{
		scored("Ana", 40, 0),
		scored("Ben", 20, 1),
		scored("Ben", 20, 1),
	}

	got := Standings(players)
	if got[1].Place != 2 || got[2].Place != 2 {
		t.Errorf("places = %d, %d, want 2, 2", got[1].Place, got[2].Place)
	}
}
