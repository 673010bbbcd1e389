// internal/lobby/errors.go
//
// Refusals the controller decides on its own, from the room snapshot and
// the local phase. None of them sends a request or touches the guess buffer.

package lobby

// LobbyError is a refusal decided locally, before any request is sent.
type LobbyError string

func (e LobbyError) Error() string { return string(e) }

const (
	ErrNoPlayerID        LobbyError = "a player id is required"
	ErrAlreadyInRoom     LobbyError = "already in a room"
	ErrInvalidMaxPlayers LobbyError = "a room must allow at least 2 players"
	ErrRoomFull          LobbyError = "room is full"
	ErrGameInProgress    LobbyError = "game already in progress"
	ErrNotWaiting        LobbyError = "the game can only be started from the waiting room"
	ErrNotEnoughPlayers  LobbyError = "at least 2 players are needed to start"
	ErrNotCreator        LobbyError = "only the room creator can start the game"
	ErrNotPlaying        LobbyError = "no game in progress"
	ErrNotInRoom         LobbyError = "you are not a player in this room"
	ErrPlayerFinished    LobbyError = "you have already finished"
	ErrNoGuessesLeft     LobbyError = "no guesses left"
	ErrGuessInFlight     LobbyError = "a guess is already being submitted"
	ErrAbandoned         LobbyError = "the room was left before the server answered"
	ErrClosed            LobbyError = "controller closed"
)
