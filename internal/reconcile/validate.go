// internal/reconcile/validate.go
//
// Boundary checks on server snapshots. A snapshot failing them is reported
// as ErrMalformedSnapshot and never replaces held state.

package reconcile

import (
	"fmt"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

// ValidateRoom rejects snapshots that cannot have come from a healthy server.
func ValidateRoom(r *game.Room) error {
	if r == nil {
		return fmt.Errorf("%w: nil room", ErrMalformedSnapshot)
	}
	if r.RoomID == "" {
		return fmt.Errorf("%w: empty roomId", ErrMalformedSnapshot)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: room %s has unknown status %q", ErrMalformedSnapshot, r.RoomID, r.Status)
	}
	seen := make(map[string]bool, len(r.Players))
	for i := range r.Players {
		p := &r.Players[i]
		if p.PlayerID == "" {
			return fmt.Errorf("%w: room %s has a player without id", ErrMalformedSnapshot, r.RoomID)
		}
		if seen[p.PlayerID] {
			return fmt.Errorf("%w: room %s lists player %s twice", ErrMalformedSnapshot, r.RoomID, p.PlayerID)
		}
		seen[p.PlayerID] = true
		if err := validateRows(p.Guesses, p.GuessResults); err != nil {
			return fmt.Errorf("room %s player %s: %w", r.RoomID, p.PlayerID, err)
		}
	}
	return nil
}

func validateRows(guesses []string, results [][]game.GuessResult) error {
	if len(guesses) != len(results) {
		return fmt.Errorf("%w: %d guesses but %d results", ErrMalformedSnapshot, len(guesses), len(results))
	}
	if len(guesses) > game.MaxRounds {
		return fmt.Errorf("%w: %d guesses exceeds %d", ErrMalformedSnapshot, len(guesses), game.MaxRounds)
	}
	for i, row := range results {
		if len(row) != game.WordLength {
			return fmt.Errorf("%w: result %d has %d letters", ErrMalformedSnapshot, i, len(row))
		}
		for _, gr := range row {
			if !gr.Status.Valid() {
				return fmt.Errorf("%w: result %d has status %q", ErrMalformedSnapshot, i, gr.Status)
			}
		}
	}
	return nil
}
