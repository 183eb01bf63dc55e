package domain

import "math/big"

// GameStatus is derived from the state of a game's conditions: any resolved
// condition wins over canceled, and a paused condition blocks either terminal
// status.
type GameStatus string

const (
	GameStatusCreated  GameStatus = "Created"
	GameStatusPaused   GameStatus = "Paused"
	GameStatusResolved GameStatus = "Resolved"
	GameStatusCanceled GameStatus = "Canceled"
)

// Game is a sporting event aggregating the turnover and lifecycle of its
// conditions. The four condition id sets are pairwise disjoint and their
// union is every condition ever created for the game.
type Game struct {
	ID     string
	GameID *big.Int

	LiquidityPoolID string
	LeagueID        string
	SportID         string

	Title    string
	Slug     string
	Provider *big.Int

	Status              GameStatus
	HasActiveConditions bool

	ActiveConditionIDs   []string
	PausedConditionIDs   []string
	ResolvedConditionIDs []string
	CanceledConditionIDs []string

	Turnover *big.Int
	StartsAt int64

	MetadataHash string

	CreatedTxHash         string
	CreatedBlockNumber    int64
	CreatedBlockTimestamp int64

	ShiftedTxHash string

	ResolvedTxHash         string
	ResolvedBlockNumber    int64
	ResolvedBlockTimestamp int64

	UpdatedAt int64
}

// League groups games under a country; tracks the set of games that still
// carry at least one active condition.
type League struct {
	ID        string
	Name      string
	Slug      string
	CountryID string

	Turnover      *big.Int
	HasActiveGames bool
	ActiveGameIDs  []string
}

// Country groups leagues under a sport; tracks the set of leagues that still
// carry at least one active game.
type Country struct {
	ID      string
	Name    string
	Slug    string
	SportID string

	Turnover         *big.Int
	HasActiveLeagues bool
	ActiveLeagueIDs  []string
}

// Sport is a taxonomy node resolved from the injected sport dictionary.
type Sport struct {
	ID         string
	SportID    *big.Int
	Name       string
	Slug       string
	SportHubID string
}

// SportHub is the top taxonomy level (e.g. "sports", "esports").
type SportHub struct {
	ID   string
	Name string
	Slug string
}

// Participant is one side of a game, taken from off-chain metadata.
type Participant struct {
	ID        string
	GameID    string
	Name      string
	Image     string
	SortOrder int
}
