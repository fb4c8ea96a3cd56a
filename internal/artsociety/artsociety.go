// Package artsociety defines the core domain types shared by the scoring,
// identity and record-keeping packages. It has no external dependencies.
package artsociety

import (
	"strings"
	"time"
)

const (
	MinPlayers = 2
	MaxPlayers = 4

	// MaxTally is the upper bound of every per-player counter.
	MaxTally = 20

	EyelinePointsPerTile = 3
	CompleteBoardBonus   = 5
	PenaltyPerItem       = 2

	SnapshotVersion = 1
)

type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Yellow Color = "yellow"
	Green  Color = "green"
)

// Colors lists every painting color in display order.
var Colors = []Color{Red, Blue, Yellow, Green}

func (c Color) Valid() bool {
	switch c {
	case Red, Blue, Yellow, Green:
		return true
	}
	return false
}

type Multiplier int

type PrestigeItem struct {
	Color      Color      `json:"color"`
	Multiplier Multiplier `json:"multiplier"`
}

// PrestigeOrder is the scoring track: position i carries multiplier 5-i.
type PrestigeOrder []PrestigeItem

// DefaultPrestigeOrder returns a fresh copy of the order every new game starts with.
func DefaultPrestigeOrder() PrestigeOrder {
	return PrestigeOrder{
		{Color: Blue, Multiplier: 5},
		{Color: Green, Multiplier: 4},
		{Color: Red, Multiplier: 3},
		{Color: Yellow, Multiplier: 2},
	}
}

// Tiles holds painting tile counts per color.
type Tiles struct {
	Red    int `json:"red"`
	Blue   int `json:"blue"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

func (t Tiles) Get(c Color) int {
	switch c {
	case Red:
		return t.Red
	case Blue:
		return t.Blue
	case Yellow:
		return t.Yellow
	case Green:
		return t.Green
	}
	return 0
}

func (t *Tiles) Set(c Color, n int) {
	switch c {
	case Red:
		t.Red = n
	case Blue:
		t.Blue = n
	case Yellow:
		t.Yellow = n
	case Green:
		t.Green = n
	}
}

type Penalties struct {
	EmptyCorners      int `json:"emptyCorners"`
	UnplacedPaintings int `json:"unplacedPaintings"`
}

type ColorPoints struct {
	Tiles      int `json:"tiles"`
	Multiplier int `json:"multiplier"`
	Points     int `json:"points"`
}

type EyelinePoints struct {
	Tiles   int `json:"tiles"`
	PerTile int `json:"perTile"`
	Points  int `json:"points"`
}

type Bonuses struct {
	CompleteBoard int `json:"completeBoard"`
}

// Breakdown itemizes a final score. Penalty fields hold points, not counts.
type Breakdown struct {
	PerColor  map[Color]ColorPoints `json:"perColor"`
	Eyeline   EyelinePoints         `json:"eyeline"`
	Decor     int                   `json:"decor"`
	Bonuses   Bonuses               `json:"bonuses"`
	Penalties Penalties             `json:"penalties"`
}

// Participant is one seat of a game: raw tallies plus, once scored, the
// captured result.
type Participant struct {
	ID             string     `json:"id"`
	PlayerID       string     `json:"playerId,omitempty"`
	Name           string     `json:"name"`
	Paintings      Tiles      `json:"paintings"`
	EyelineCount   int        `json:"eyelineCountForX5"`
	DecorCount     int        `json:"decorCount"`
	CompleteBoard  bool       `json:"completeBoard"`
	Penalties      Penalties  `json:"penalties"`
	FinalScore     *int       `json:"finalScore,omitempty"`
	Breakdown      *Breakdown `json:"breakdown,omitempty"`
	TieBreakWinner bool       `json:"tieBreakWinner,omitempty"`
}

// Snapshot is a completed game as saved. It is never rescored after saving.
type Snapshot struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"createdAt"`
	PrestigeOrder PrestigeOrder `json:"prestigeOrder"`
	Players       []Participant `json:"players"`
	Version       int           `json:"version"`
}

// Identity is a players row. Only ID, Canonical and DisplayName are
// guaranteed; the rest are nil when the column is absent or NULL.
type Identity struct {
	ID           string     `json:"id"`
	Canonical    string     `json:"canonical"`
	DisplayName  string     `json:"displayName"`
	AvatarKey    *string    `json:"avatarKey,omitempty"`
	ColorHint    *string    `json:"colorHint,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	LastPlayedAt *time.Time `json:"lastPlayedAt,omitempty"`
	GamesPlayed  *int       `json:"gamesPlayed,omitempty"`
	Wins         *int       `json:"wins,omitempty"`
}

type Lineup struct {
	ID         string    `json:"id"`
	Size       int       `json:"size"`
	PlayerIDs  []string  `json:"playerIds"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	Uses       int       `json:"uses"`
}

// LineupKey identifies an ordered set of identities: [A B] and [B A] differ.
func LineupKey(playerIDs []string) string {
	return "lu-" + strings.Join(playerIDs, "|")
}

type LeaderboardRow struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Wins         int        `json:"wins"`
	Games        int        `json:"games"`
	Avg          float64    `json:"avg"`
	High         int        `json:"high"`
	LastPlayedAt *time.Time `json:"lastPlayedAt"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
