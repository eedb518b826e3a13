package models

// GameStatus is the lifecycle of a room's game (or of the standalone game,
// which additionally uses StatusInactive before its first start).
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
	StatusInactive GameStatus = "inactive"
)

// GuessResult names the guidance given to the guesser, not the comparison
// direction: ResultHigher means the guess was below the secret ("go
// higher"), ResultLower means it was above ("go lower").
type GuessResult string

const (
	ResultCorrect GuessResult = "correct"
	ResultHigher  GuessResult = "higher"
	ResultLower   GuessResult = "lower"
)

// Player is a directory entry. Identity is connection-scoped: the entry is
// deleted when the owning connection goes away.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is the persisted room metadata. PlayerIDs preserves join order,
// which seeds the turn order at game start.
type Room struct {
	ID        string     `json:"id"`
	Status    GameStatus `json:"status"`
	CreatedAt string     `json:"createdAt"`
	PlayerIDs []string   `json:"playerIds"`
}

// RoomState is the display snapshot of a room: member ids resolved into
// full player records plus readiness and turn information.
type RoomState struct {
	Room                Room     `json:"room"`
	Players             []Player `json:"players"`
	ReadyPlayers        []string `json:"readyPlayers"`
	CurrentTurnPlayerID string   `json:"currentTurnPlayerId,omitempty"`
	TotalGuesses        int64    `json:"totalGuesses"`
}

// GameState is the public view of a game. It never carries the secret.
type GameState struct {
	Status              GameStatus `json:"status"`
	ActivePlayers       []Player   `json:"activePlayers"`
	TotalGuesses        int64      `json:"totalGuesses"`
	CurrentTurnPlayerID string     `json:"currentTurnPlayerId,omitempty"`
	RoomID              string     `json:"roomId,omitempty"`
}

// PlayerGuess is one history entry. Entries are append-only.
type PlayerGuess struct {
	PlayerID  string      `json:"playerId"`
	Guess     int         `json:"guess"`
	Result    GuessResult `json:"result"`
	Timestamp string      `json:"timestamp"`
}

// GuessResponse is the synchronous result of a single guess. Winner and
// TotalAttempts are only set when Result is ResultCorrect.
type GuessResponse struct {
	Result        GuessResult `json:"result"`
	Winner        string      `json:"winner,omitempty"`
	TotalAttempts int64       `json:"totalAttempts,omitempty"`
}
