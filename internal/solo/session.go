// internal/solo/session.go
//
// Single-player session over the /api/wordle endpoints:
//   - NewGame starts a game (any previous one is simply forgotten).
//   - Guess submits the buffered word and adopts the returned state.
//   - Refresh re-reads the game; Abandon deletes it server-side.
//
// The server owns the target word and scoring. The session only keeps the
// latest state, a five-letter input buffer and the last error, with the
// same buffer rule as multiplayer: a WORD_NOT_FOUND rejection keeps the
// typed word, every other failure clears it.

package solo

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote"
)

// SessionError is a refusal decided without asking the server.
type SessionError string

func (e SessionError) Error() string { return string(e) }

const (
	ErrNoGame   SessionError = "no game in progress"
	ErrGameOver SessionError = "the game is over"
)

// Recorder keeps finished games. identity.Store satisfies it.
type Recorder interface {
	RecordResult(ctx context.Context, r identity.Result) error
}

type Config struct {
	Client    remote.Client
	Recorder  Recorder // optional
	MaxRounds int      // game.MaxRounds when zero
	Now       func() time.Time
}

// Session is safe for concurrent use.
type Session struct {
	client    remote.Client
	recorder  Recorder
	maxRounds int
	now       func() time.Time

	mu      sync.Mutex
	state   *game.GameState
	buffer  []rune
	err     error
	version uint64
}

func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	s := &Session{
		client:    cfg.Client,
		recorder:  cfg.Recorder,
		maxRounds: cfg.MaxRounds,
		now:       cfg.Now,
	}
	if s.maxRounds <= 0 {
		s.maxRounds = game.MaxRounds
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// View is a copy of the session state.
type View struct {
	Version uint64
	Game    *game.GameState
	Buffer  string
	Err     error
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Version: s.version,
		Game:    s.state.Clone(),
		Buffer:  string(s.buffer),
		Err:     s.err,
	}
}

// NewGame starts a fresh game.
func (s *Session) NewGame(ctx context.Context) (*game.GameState, error) {
	gs, err := s.client.CreateGame(ctx, s.maxRounds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failLocked(err)
		return nil, err
	}
	s.state = gs.Clone()
	s.buffer = nil
	s.err = nil
	s.version++
	log.Debug().Str("gameId", gs.GameID).Int("maxRounds", gs.MaxRounds).Msg("solo game started")
	return gs, nil
}

// Guess submits the buffered word.
func (s *Session) Guess(ctx context.Context) (*game.GameState, error) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return nil, ErrNoGame
	}
	if s.state.GameOver || s.state.CurrentRound >= s.state.MaxRounds {
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	guess := string(s.buffer)
	if err := game.ValidateGuess(guess); err != nil {
		s.err = err
		s.version++
		s.mu.Unlock()
		return nil, err
	}
	gameID := s.state.GameID
	s.mu.Unlock()

	gs, err := s.client.Guess(ctx, gameID, guess)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.GameID != gameID {
		return nil, ErrNoGame
	}
	if err != nil {
		if remote.KindOf(err) != remote.KindWordNotFound {
			s.buffer = nil
		}
		s.failLocked(err)
		return nil, err
	}
	s.state = gs.Clone()
	s.buffer = nil
	s.err = nil
	s.version++
	if gs.GameOver {
		s.recordLocked(gs)
	}
	return gs, nil
}

// Refresh re-reads the current game. A reply with fewer rounds than already
// seen is ignored.
func (s *Session) Refresh(ctx context.Context) (*game.GameState, error) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return nil, ErrNoGame
	}
	gameID := s.state.GameID
	s.mu.Unlock()

	gs, err := s.client.GetGame(ctx, gameID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.GameID != gameID {
		return nil, ErrNoGame
	}
	if err != nil {
		s.failLocked(err)
		return nil, err
	}
	if gs.CurrentRound < s.state.CurrentRound {
		return s.state.Clone(), nil
	}
	s.state = gs.Clone()
	s.version++
	return gs, nil
}

// Abandon deletes the current game on the server and forgets it.
func (s *Session) Abandon(ctx context.Context) error {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return ErrNoGame
	}
	gameID := s.state.GameID
	s.mu.Unlock()

	err := s.client.DeleteGame(ctx, gameID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failLocked(err)
		return err
	}
	if s.state != nil && s.state.GameID == gameID {
		s.state = nil
		s.buffer = nil
		s.err = nil
		s.version++
	}
	return nil
}

func (s *Session) failLocked(err error) {
	s.err = err
	s.version++
}

// recordLocked stores a finished game. Failures are logged only.
func (s *Session) recordLocked(gs *game.GameState) {
	if s.recorder == nil {
		return
	}
	res := identity.Result{
		Mode:       identity.ModeSolo,
		GameID:     gs.GameID,
		Won:        gs.Won,
		Guesses:    gs.CurrentRound,
		TargetWord: gs.TargetWord,
		FinishedAt: s.now(),
	}
	if err := s.recorder.RecordResult(context.Background(), res); err != nil {
		log.Warn().Err(err).Str("gameId", gs.GameID).Msg("record result")
	}
}

// ------------------------------- input buffer -------------------------------

// TypeLetter appends an upper-cased letter. Anything else, or a sixth
// letter, is ignored.
func (s *Session) TypeLetter(r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil || s.state.GameOver || len(s.buffer) >= game.WordLength {
		return false
	}
	r = unicode.ToUpper(r)
	if r < 'A' || r > 'Z' {
		return false
	}
	s.buffer = append(s.buffer, r)
	s.version++
	return true
}

func (s *Session) Backspace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buffer) == 0 {
		return false
	}
	s.buffer = s.buffer[:len(s.buffer)-1]
	s.version++
	return true
}

func (s *Session) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buffer) > 0 {
		s.buffer = nil
		s.version++
	}
}

func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buffer)
}
