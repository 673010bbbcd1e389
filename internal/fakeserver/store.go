// internal/fakeserver/store.go
//
// In-memory room and game storage for the fake server.
//
// Characteristics:
//   - Rooms and single-player games keyed by ID in maps.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Callers get deep copies; mutation goes through update, which holds the
//     write lock for the whole read-modify-write.

package fakeserver

import (
	"errors"
	"sort"
	"sync"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

var errNotFound = errors.New("not found")

// room is the server-side record: the snapshot plus the hidden answer.
type room struct {
	snap   game.Room
	answer string
	seq    int // creation order, for stable listings
}

// soloGame is a single-player session.
type soloGame struct {
	state  game.GameState
	answer string
}

type memory struct {
	mu    sync.RWMutex
	rooms map[string]*room
	games map[string]*soloGame
	seq   int
}

func newMemory() *memory {
	return &memory{rooms: make(map[string]*room), games: make(map[string]*soloGame)}
}

func (m *memory) putRoom(r *room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.seq = m.seq
	m.rooms[r.snap.RoomID] = r
}

// getRoom returns a copy of the room record.
func (m *memory) getRoom(id string) (room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return room{}, errNotFound
	}
	out := *r
	out.snap = *r.snap.Clone()
	return out, nil
}

// updateRoom runs fn on the live record under the write lock.
func (m *memory) updateRoom(id string, fn func(r *room) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return errNotFound
	}
	return fn(r)
}

// listRooms returns copies of every room in creation order.
func (m *memory) listRooms() []room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]room, 0, len(m.rooms))
	for _, r := range m.rooms {
		c := *r
		c.snap = *r.snap.Clone()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (m *memory) putGame(g *soloGame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.state.GameID] = g
}

func (m *memory) updateGame(id string, fn func(g *soloGame) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return errNotFound
	}
	return fn(g)
}

func (m *memory) getGame(id string) (soloGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return soloGame{}, errNotFound
	}
	out := *g
	out.state.Guesses = cloneRows(g.state.Guesses)
	return out, nil
}

func (m *memory) deleteGame(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
}

func cloneRows(rows [][]game.GuessResult) [][]game.GuessResult {
	out := make([][]game.GuessResult, len(rows))
	for i, row := range rows {
		out[i] = append([]game.GuessResult(nil), row...)
	}
	return out
}
