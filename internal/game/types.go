// internal/game/types.go
//
// Snapshot model shared with the Wordle game server.
// Defines:
//   - LetterStatus: per-letter result of a guess (HIT/PRESENT/MISS).
//   - GuessResult: one evaluated letter; a guess evaluates to WordLength of them.
//   - Player, Room: the multiplayer room snapshot as the server emits it.
//   - GameState, MultiPlayerGameState: single-player and per-player views.
//
// The server is the only writer of these shapes. The client keeps read-only
// copies and never reorders per-letter results.

package game

const (
	// MaxRounds is the number of guesses every player gets.
	MaxRounds = 6
	// WordLength is the number of letters in a guess.
	WordLength = 5
	// MinPlayers is the smallest room that may be started.
	MinPlayers = 2
	// DefaultMaxPlayers is used when a room is created without a size.
	DefaultMaxPlayers = 4
)

// LetterStatus represents the evaluation result for a single letter in a guess.
//   - "HIT":     letter is correct and in the correct position.
//   - "PRESENT": letter exists in the answer but in a different position.
//   - "MISS":    letter is not in the answer (after HIT/PRESENT accounting).
type LetterStatus string

const (
	StatusHit     LetterStatus = "HIT"
	StatusPresent LetterStatus = "PRESENT"
	StatusMiss    LetterStatus = "MISS"
)

// Valid reports whether s is one of the three known statuses.
func (s LetterStatus) Valid() bool {
	switch s {
	case StatusHit, StatusPresent, StatusMiss:
		return true
	}
	return false
}

// GuessResult is one evaluated letter.
type GuessResult struct {
	Letter string       `json:"letter"`
	Status LetterStatus `json:"status"`
}

// RoomStatus is the server-side lifecycle of a room.
type RoomStatus string

const (
	RoomWaiting    RoomStatus = "WAITING"
	RoomInProgress RoomStatus = "IN_PROGRESS"
	RoomFinished   RoomStatus = "FINISHED"
)

// Valid reports whether s is a known room status.
func (s RoomStatus) Valid() bool {
	return s.order() >= 0
}

// After reports whether s is strictly later in the lifecycle than o.
func (s RoomStatus) After(o RoomStatus) bool {
	return s.order() > o.order()
}

func (s RoomStatus) order() int {
	switch s {
	case RoomWaiting:
		return 0
	case RoomInProgress:
		return 1
	case RoomFinished:
		return 2
	}
	return -1
}

// Player holds one participant's identity and progress within a room.
type Player struct {
	PlayerID     string          `json:"playerId"`
	Username     string          `json:"username,omitempty"`
	Guesses      []string        `json:"guesses,omitempty"`
	GuessResults [][]GuessResult `json:"guessResults,omitempty"`
	Rank         int             `json:"rank,omitempty"` // 0 while still playing
	Finished     bool            `json:"finished,omitempty"`
	Won          bool            `json:"won,omitempty"`
	HasWonAlias  bool            `json:"hasWon,omitempty"` // deprecated spelling of Won
	Points       int             `json:"points,omitempty"`
	WinTime      string          `json:"winTime,omitempty"` // server local time, zone-less
}

// Room is a shared multiplayer session.
type Room struct {
	RoomID      string     `json:"roomId"`
	RoomName    string     `json:"roomName,omitempty"`
	CreatorID   string     `json:"creatorId"`
	Players     []Player   `json:"players"`
	MaxPlayers  int        `json:"maxPlayers"`
	Status      RoomStatus `json:"status"`
	WinnerID    string     `json:"winnerId,omitempty"`
	CreatedAt   string     `json:"createdAt,omitempty"`
	CurrentWord string     `json:"currentWord,omitempty"`
	TargetWord  string     `json:"targetWord,omitempty"`
}

// GameState is a single-player game as returned by the server.
type GameState struct {
	GameID       string          `json:"gameId"`
	Guesses      [][]GuessResult `json:"guesses"`
	CurrentRound int             `json:"currentRound"`
	MaxRounds    int             `json:"maxRounds"`
	GameOver     bool            `json:"gameOver"`
	Won          bool            `json:"won"`
	Message      string          `json:"message,omitempty"`
	TargetWord   string          `json:"targetWord,omitempty"`
	Finished     bool            `json:"finished,omitempty"`
}

// MultiPlayerGameState is one player's view of a running room.
type MultiPlayerGameState struct {
	Guesses      []string        `json:"guesses"`
	GuessResults [][]GuessResult `json:"guessResults"`
	Finished     bool            `json:"finished"`
	Won          bool            `json:"won"`
	TargetWord   string          `json:"targetWord,omitempty"`
	Rank         int             `json:"rank,omitempty"`
	Points       int             `json:"points,omitempty"`
}
