// internal/lobby/phase.go
//
// Local lifecycle phases and their mapping from the server's room status.

package lobby

import (
	"fmt"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

// Phase is the client-side room lifecycle. Waiting, Playing and Finished
// mirror the room status; Unjoined and Joining exist only locally.
type Phase int

const (
	Unjoined Phase = iota
	Joining
	Waiting
	Playing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Unjoined:
		return "unjoined"
	case Joining:
		return "joining"
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// InRoom reports whether the phase has a cached room.
func (p Phase) InRoom() bool { return p >= Waiting }

func phaseFor(s game.RoomStatus) Phase {
	switch s {
	case game.RoomInProgress:
		return Playing
	case game.RoomFinished:
		return Finished
	}
	return Waiting
}
