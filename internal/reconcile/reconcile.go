// internal/reconcile/reconcile.go
//
// Snapshot reconciliation. Every room, lobby list and per-player state the
// client holds is the result of merging server snapshots through this
// package, whether they came from a poll, an action response or a push event.
//
// Rules:
//   - Snapshots are validated at the boundary; malformed ones never replace
//     good state.
//   - A snapshot that would move state backwards (status regression, a
//     player losing guesses, a terminal flag reverting) is stale and dropped.
//     Responses race, and the newest one to arrive is not always the newest
//     one the server produced.
//   - Otherwise the server wins: structurally equal snapshots are no-ops,
//     different ones replace local state wholesale. There is no field merge.

package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

// Outcome says what a merge did.
type Outcome int

const (
	Unchanged Outcome = iota
	Replaced
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	case Stale:
		return "stale"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrRoomMismatch      = errors.New("snapshot is for a different room")
)

// nil and empty slices are the same snapshot.
var equalOpts = cmp.Options{cmpopts.EquateEmpty()}

// Room merges incoming into current. current may be nil (first snapshot).
// The returned room is never aliased with incoming.
func Room(current, incoming *game.Room) (*game.Room, Outcome, error) {
	if err := ValidateRoom(incoming); err != nil {
		return current, Unchanged, err
	}
	if current == nil {
		return incoming.Clone(), Replaced, nil
	}
	if current.RoomID != incoming.RoomID {
		return current, Unchanged, fmt.Errorf("%w: have %s, got %s", ErrRoomMismatch, current.RoomID, incoming.RoomID)
	}
	if roomIsStale(current, incoming) {
		return current, Stale, nil
	}
	if cmp.Equal(current, incoming, equalOpts) {
		return current, Unchanged, nil
	}
	return incoming.Clone(), Replaced, nil
}

func roomIsStale(current, incoming *game.Room) bool {
	if current.Status.After(incoming.Status) {
		return true
	}
	for i := range current.Players {
		have := &current.Players[i]
		got := incoming.Player(have.PlayerID)
		if got == nil {
			continue
		}
		if playerRegressed(have.Round(), have.IsFinished(), have.HasWon(), got.Round(), got.IsFinished(), got.HasWon()) {
			return true
		}
	}
	return false
}

func playerRegressed(haveRound int, haveFinished, haveWon bool, gotRound int, gotFinished, gotWon bool) bool {
	return gotRound < haveRound || (haveFinished && !gotFinished) || (haveWon && !gotWon)
}

// Rooms merges a lobby listing. Malformed entries are dropped and reported
// in the returned error; the rest still apply.
func Rooms(current, incoming []game.Room) ([]game.Room, Outcome, error) {
	valid := make([]game.Room, 0, len(incoming))
	var errs []error
	for i := range incoming {
		if err := ValidateRoom(&incoming[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, *incoming[i].Clone())
	}
	err := errors.Join(errs...)
	if cmp.Equal(current, valid, equalOpts) {
		return current, Unchanged, err
	}
	return valid, Replaced, err
}

// GameState merges one player's state.
func GameState(current, incoming *game.MultiPlayerGameState) (*game.MultiPlayerGameState, Outcome, error) {
	if incoming == nil {
		return current, Unchanged, fmt.Errorf("%w: nil game state", ErrMalformedSnapshot)
	}
	if err := validateRows(incoming.Guesses, incoming.GuessResults); err != nil {
		return current, Unchanged, err
	}
	if current == nil {
		return incoming.Clone(), Replaced, nil
	}
	if playerRegressed(len(current.Guesses), current.Finished, current.Won,
		len(incoming.Guesses), incoming.Finished, incoming.Won) {
		return current, Stale, nil
	}
	if cmp.Equal(current, incoming, equalOpts) {
		return current, Unchanged, nil
	}
	return incoming.Clone(), Replaced, nil
}

// AppendGuess records a scored guess for playerID before the next snapshot
// confirms it. index is the slot the guess was submitted for (the player's
// round at submit time); if that slot is already filled, or earlier slots
// are missing, the room is returned untouched. room itself is never mutated.
func AppendGuess(room *game.Room, playerID string, index int, guess string, result []game.GuessResult) (*game.Room, bool) {
	p := room.Player(playerID)
	if p == nil || len(p.Guesses) != index || len(p.GuessResults) != index || index >= game.MaxRounds {
		return room, false
	}
	next := room.Clone()
	np := next.Player(playerID)
	np.Guesses = append(np.Guesses, game.NormalizeGuess(guess))
	np.GuessResults = append(np.GuessResults, append([]game.GuessResult(nil), result...))
	if game.AllHit(result) {
		np.Won = true
	}
	np.Finished = np.IsFinished()
	return next, true
}

// AppendGameGuess is AppendGuess for a per-player state.
func AppendGameGuess(gs *game.MultiPlayerGameState, index int, guess string, result []game.GuessResult) (*game.MultiPlayerGameState, bool) {
	if gs == nil || len(gs.Guesses) != index || len(gs.GuessResults) != index || index >= game.MaxRounds {
		return gs, false
	}
	next := gs.Clone()
	next.Guesses = append(next.Guesses, game.NormalizeGuess(guess))
	next.GuessResults = append(next.GuessResults, append([]game.GuessResult(nil), result...))
	if game.AllHit(result) {
		next.Won = true
	}
	next.Finished = next.Finished || next.Won || len(next.Guesses) >= game.MaxRounds
	return next, true
}

// Standings orders players for display: ranked players first by rank, then
// unranked (rank 0), ties broken by fewer guesses, then by room order.
func Standings(players []game.Player) []game.Player {
	out := make([]game.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if (ri == 0) != (rj == 0) {
			return rj == 0
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Round() < out[j].Round()
	})
	return out
}
