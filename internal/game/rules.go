// internal/game/rules.go
//
// Read-only rules over snapshots: guess validation, per-player progress,
// room capacity, and deep copies used by copy-on-write updates.

package game

import (
	"strings"
	"unicode/utf8"
)

// GuessError is returned for guesses that can be rejected without asking
// the server.
type GuessError string

func (e GuessError) Error() string { return string(e) }

const (
	ErrGuessLength GuessError = "guess must be exactly 5 letters"
	ErrGuessFormat GuessError = "guess must contain only letters"
)

// NormalizeGuess trims and upper-cases a guess the way the server stores it.
func NormalizeGuess(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateGuess checks length and alphabet. Word-list membership is the
// server's call.
func ValidateGuess(s string) error {
	s = NormalizeGuess(s)
	if utf8.RuneCountInString(s) != WordLength {
		return ErrGuessLength
	}
	if !isAlpha(s) {
		return ErrGuessFormat
	}
	return nil
}

// isAlpha checks that a string consists only of A–Z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// AllHit returns true if every letter of a non-empty result is a HIT.
func AllHit(res []GuessResult) bool {
	if len(res) == 0 {
		return false
	}
	for _, x := range res {
		if x.Status != StatusHit {
			return false
		}
	}
	return true
}

// HasWon is the canonical winner flag. Older servers send "hasWon"; both
// spellings are accepted and either one set means the player won.
func (p Player) HasWon() bool { return p.Won || p.HasWonAlias }

// Round is the number of guesses already taken.
func (p Player) Round() int { return len(p.Guesses) }

// IsFinished reports whether the player can no longer guess. The server
// flag is trusted, and the rule itself is re-derived for servers that
// omit it.
func (p Player) IsFinished() bool {
	if p.Finished || p.HasWon() {
		return true
	}
	if p.Round() >= MaxRounds {
		return true
	}
	if n := len(p.GuessResults); n > 0 && AllHit(p.GuessResults[n-1]) {
		return true
	}
	return false
}

// Player returns a pointer to the player with id, or nil.
func (r *Room) Player(id string) *Player {
	if r == nil {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].PlayerID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// IsFull reports whether no more players fit.
func (r *Room) IsFull() bool {
	return r.MaxPlayers > 0 && len(r.Players) >= r.MaxPlayers
}

// CanStart mirrors the server rule: WAITING with at least MinPlayers.
func (r *Room) CanStart() bool {
	return r.Status == RoomWaiting && len(r.Players) >= MinPlayers
}

// RevealedWord returns the target word once the room is finished.
func (r *Room) RevealedWord() string {
	if r.Status != RoomFinished {
		return ""
	}
	if r.TargetWord != "" {
		return r.TargetWord
	}
	return r.CurrentWord
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.Players != nil {
		out.Players = make([]Player, len(r.Players))
		for i, p := range r.Players {
			out.Players[i] = p.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	out := p
	if p.Guesses != nil {
		out.Guesses = append([]string(nil), p.Guesses...)
	}
	out.GuessResults = cloneRows(p.GuessResults)
	return out
}

// Clone returns a deep copy of the per-player state.
func (s *MultiPlayerGameState) Clone() *MultiPlayerGameState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Guesses != nil {
		out.Guesses = append([]string(nil), s.Guesses...)
	}
	out.GuessResults = cloneRows(s.GuessResults)
	return &out
}

// Clone returns a deep copy of the single-player game.
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	out := *g
	out.Guesses = cloneRows(g.Guesses)
	return &out
}

func cloneRows(rows [][]GuessResult) [][]GuessResult {
	if rows == nil {
		return nil
	}
	out := make([][]GuessResult, len(rows))
	for i, row := range rows {
		out[i] = append([]GuessResult(nil), row...)
	}
	return out
}
