// internal/remote/client.go
//
// Client is the boundary to the Wordle game server. Everything above this
// package (poller, lobby controller, solo sessions) talks to the server only
// through it, so tests substitute the generated mock or a fake server.

package remote

import (
	"context"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_client.go github.com/robalobadob/wordle/apps/go-client/internal/remote Client

// Client covers the single-player and multiplayer endpoints.
type Client interface {
	// Single player.
	CreateGame(ctx context.Context, maxRounds int) (*game.GameState, error)
	Guess(ctx context.Context, gameID, guess string) (*game.GameState, error)
	GetGame(ctx context.Context, gameID string) (*game.GameState, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Multiplayer.
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*game.Room, error)
	JoinRoom(ctx context.Context, req JoinRoomRequest) (*game.Room, error)
	StartGame(ctx context.Context, roomID, playerID string) (*StartGameResult, error)
	ListRooms(ctx context.Context) ([]game.Room, error)
	GetRoom(ctx context.Context, roomID string) (*game.Room, error)
	GetGameState(ctx context.Context, roomID, playerID string) (*game.MultiPlayerGameState, error)
	SubmitGuess(ctx context.Context, roomID, playerID, guess string) (*GuessResponse, error)
}

// CreateRoomRequest is the create-room body. HTTPClient fills a zero
// MaxPlayers with game.DefaultMaxPlayers.
type CreateRoomRequest struct {
	CreatorID  string `json:"creatorId"`
	RoomName   string `json:"roomName"`
	Username   string `json:"username"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
}

// JoinRoomRequest is the join-room body.
type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

// StartGameRequest asks the server to start roomID on behalf of PlayerID,
// which must be the creator.
type StartGameRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId,omitempty"`
}

// StartGameResult only signals acceptance. The room moves to IN_PROGRESS on
// the server and the client learns of it from the next snapshot.
type StartGameResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GuessRequest is a single-player guess.
type GuessRequest struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

// MultiGuessRequest is a guess inside a multiplayer room.
type MultiGuessRequest struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Guess    string `json:"guess"`
}

// GuessResponse is the reply to a multiplayer guess. Result and GameState are
// set only when Success is true.
type GuessResponse struct {
	Success   bool                       `json:"success"`
	Message   string                     `json:"message,omitempty"`
	Result    []game.GuessResult         `json:"result,omitempty"`
	GameState *game.MultiPlayerGameState `json:"gameState,omitempty"`
}

// Err returns nil for an accepted guess and the classified refusal otherwise.
func (r *GuessResponse) Err() error {
	if r == nil || r.Success {
		return nil
	}
	return refusal(0, r.Message)
}
