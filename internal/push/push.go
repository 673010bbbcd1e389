// internal/push/push.go
//
// Real-time room events. The server announces joins, game start, every
// scored guess and game end; the client merges them through the same apply
// path as poll results. Push is best effort: polling alone keeps the client
// correct, push only makes it faster.
//
// Transports:
//   - WebSocket: ws(s)://<server>/ws/room/{roomId}, one JSON Event per message.
//   - Redis:     pub/sub channel "room:{roomId}", one JSON Event per message.
//   - Nop:       push disabled.

package push

import (
	"context"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_push.go github.com/robalobadob/wordle/apps/go-client/internal/push Publisher,Subscriber

type EventType string

const (
	PlayerJoined EventType = "PLAYER_JOINED"
	GameStarted  EventType = "GAME_STARTED"
	GuessResult  EventType = "GUESS_RESULT"
	GameEnded    EventType = "GAME_ENDED"
)

// Event is one server announcement. Room, when present, is a full snapshot
// and is reconciled like a poll result.
type Event struct {
	Type       EventType          `json:"type"`
	RoomID     string             `json:"roomId,omitempty"`
	Room       *game.Room         `json:"room,omitempty"`
	PlayerID   string             `json:"playerId,omitempty"`
	Guess      string             `json:"guess,omitempty"`
	Result     []game.GuessResult `json:"result,omitempty"`
	TargetWord string             `json:"targetWord,omitempty"`
}

// Subscriber opens a stream of events for one room. The returned channel is
// closed when ctx is cancelled or the transport drops.
type Subscriber interface {
	Subscribe(ctx context.Context, roomID string) (<-chan Event, error)
}

// Publisher is the sending side, used by servers and test fixtures.
type Publisher interface {
	Publish(ctx context.Context, roomID string, ev Event) error
}

// Channel is the pub/sub channel name for a room.
func Channel(roomID string) string { return "room:" + roomID }

// Nop is the Subscriber used when push is disabled. It never delivers.
type Nop struct{}

// Subscribe returns a nil channel, which callers treat as "no push".
func (Nop) Subscribe(context.Context, string) (<-chan Event, error) { return nil, nil }

// Publish drops the event.
func (Nop) Publish(context.Context, string, Event) error { return nil }
