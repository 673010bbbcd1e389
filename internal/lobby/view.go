// internal/lobby/view.go
//
// Read side of the controller: View copies for rendering and the guess
// buffer the player types into.

package lobby

import (
	"time"
	"unicode"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/reconcile"
)

// View is a snapshot of everything the UI renders. It shares no memory with
// the controller.
type View struct {
	Version  uint64
	Phase    Phase
	PlayerID string
	Username string

	Lobby     []game.Room
	Room      *game.Room
	Standings []game.Player // Room.Players in display order
	Game      *game.MultiPlayerGameState

	Buffer     string
	Submitting bool
	Err        error

	PushConnected bool
	LastSync      time.Time
}

// IsCreator reports whether the local player owns the room.
func (v View) IsCreator() bool {
	return v.Room != nil && v.Room.CreatorID == v.PlayerID
}

// Me returns the local player's entry in the room, or nil.
func (v View) Me() *game.Player {
	return v.Room.Player(v.PlayerID)
}

// View returns the current state. Version only moves when something a
// reader could observe has changed.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Version:       c.version,
		Phase:         c.phase,
		PlayerID:      c.id.PlayerID,
		Username:      c.id.Username,
		Room:          c.room.Clone(),
		Game:          c.game.Clone(),
		Buffer:        string(c.buffer),
		Submitting:    c.submitting,
		Err:           c.err,
		PushConnected: c.pushLive,
		LastSync:      c.lastSync,
	}
	if c.lobby != nil {
		v.Lobby = make([]game.Room, len(c.lobby))
		for i := range c.lobby {
			v.Lobby[i] = *c.lobby[i].Clone()
		}
	}
	if c.room != nil {
		v.Standings = reconcile.Standings(c.room.Players)
	}
	return v
}

// Version is View().Version without the copy.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// ------------------------------- guess buffer -------------------------------

// TypeLetter appends a letter to the guess buffer. Input outside Playing,
// non-letters, a full buffer or typing while a guess is in flight are
// ignored and report false.
func (c *Controller) TypeLetter(r rune) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Playing || c.submitting || len(c.buffer) >= game.WordLength {
		return false
	}
	r = unicode.ToUpper(r)
	if r < 'A' || r > 'Z' {
		return false
	}
	c.buffer = append(c.buffer, r)
	c.changedLocked()
	return true
}

// Backspace removes the last buffered letter.
func (c *Controller) Backspace() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Playing || c.submitting || len(c.buffer) == 0 {
		return false
	}
	c.buffer = c.buffer[:len(c.buffer)-1]
	c.changedLocked()
	return true
}

// ClearBuffer empties the guess buffer.
func (c *Controller) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting || len(c.buffer) == 0 {
		return
	}
	c.buffer = nil
	c.changedLocked()
}

// Buffer returns the letters typed so far.
func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buffer)
}
