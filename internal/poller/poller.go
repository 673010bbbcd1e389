// internal/poller/poller.go
//
// Polling scheduler with two mutually exclusive scopes:
//   - lobby: periodic list-available-rooms while the player is browsing.
//   - room:  periodic fetch of one room once the player is in it.
//
// Each active scope is one goroutine that fetches immediately and then on
// every tick, so fetches for a scope never overlap; a tick that lands while a
// fetch is in flight is dropped. Results go to the Sink tagged with a
// Ticket. Stopping or replacing a job invalidates its tickets at once, so a
// response that arrives late is discarded by Live instead of being applied.
//
// Locking: the Sink may hold its own lock while calling Start*/Stop/Live.
// The scheduler never calls the Sink with its lock held and Stop never waits
// for a job, which keeps that order deadlock free. Close waits and must not
// be called from inside a Sink callback.

package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/common/clock"
	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_poller.go github.com/robalobadob/wordle/apps/go-client/internal/poller Fetcher,Sink

const DefaultTimeout = 10 * time.Second

type Scope int

const (
	ScopeNone Scope = iota
	ScopeLobby
	ScopeRoom
)

func (s Scope) String() string {
	switch s {
	case ScopeNone:
		return "none"
	case ScopeLobby:
		return "lobby"
	case ScopeRoom:
		return "room"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Ticket identifies the job a result came from.
type Ticket struct {
	Scope  Scope
	RoomID string
	Gen    uint64
}

// Fetcher is the slice of the remote client the scheduler polls.
type Fetcher interface {
	ListRooms(ctx context.Context) ([]game.Room, error)
	GetRoom(ctx context.Context, roomID string) (*game.Room, error)
}

// Sink receives successful fetches. Implementations should check
// Scheduler.Live(t) under their own lock before applying.
type Sink interface {
	LobbyRooms(t Ticket, rooms []game.Room)
	RoomSnapshot(t Ticket, room *game.Room)
}

// Config holds the scheduler's collaborators.
type Config struct {
	Fetcher Fetcher
	Sink    Sink
	Clock   clock.Clock
	Timeout time.Duration // per fetch; DefaultTimeout when zero
}

type job struct {
	ticket Ticket
	cancel context.CancelFunc
}

// Scheduler owns at most one polling job.
type Scheduler struct {
	fetcher Fetcher
	sink    Sink
	clock   clock.Clock
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	active *job
	closed bool
	wg     sync.WaitGroup
}

// New validates cfg and returns an idle scheduler.
func New(cfg *Config) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if cfg.Sink == nil {
		return nil, errors.New("sink cannot be nil")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = &clock.DefaultClock{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scheduler{
		fetcher: cfg.Fetcher,
		sink:    cfg.Sink,
		clock:   clk,
		timeout: timeout,
	}, nil
}

// StartLobby polls the room list. A no-op while lobby polling already runs;
// any room job is cancelled first.
func (s *Scheduler) StartLobby(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.active != nil && s.active.ticket.Scope == ScopeLobby) {
		return
	}
	s.startLocked(Ticket{Scope: ScopeLobby}, interval)
}

// StartRoom polls one room. A no-op for the room already being polled; a
// different room, or the lobby job, is cancelled first.
func (s *Scheduler) StartRoom(roomID string, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if a := s.active; a != nil && a.ticket.Scope == ScopeRoom && a.ticket.RoomID == roomID {
		return
	}
	s.startLocked(Ticket{Scope: ScopeRoom, RoomID: roomID}, interval)
}

// Stop cancels the job for scope, if that scope is the active one. It does
// not wait for the job goroutine to exit.
func (s *Scheduler) Stop(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ticket.Scope == scope {
		s.stopLocked()
	}
}

// StopAll cancels whatever is running.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Close stops polling for good and waits for job goroutines to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// Live reports whether t belongs to the job that is running now.
func (s *Scheduler) Live(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil && s.active.ticket == t
}

// Active returns the running scope and, for ScopeRoom, its room.
func (s *Scheduler) Active() (Scope, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ScopeNone, ""
	}
	return s.active.ticket.Scope, s.active.ticket.RoomID
}

func (s *Scheduler) startLocked(t Ticket, interval time.Duration) {
	s.stopLocked()
	s.gen++
	t.Gen = s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.active = &job{ticket: t, cancel: cancel}
	ticker := s.clock.NewTicker(interval)

	log.Debug().Str("scope", t.Scope.String()).Str("roomId", t.RoomID).Dur("interval", interval).Msg("polling started")
	s.wg.Add(1)
	go s.run(ctx, t, ticker)
}

func (s *Scheduler) stopLocked() {
	if s.active == nil {
		return
	}
	s.active.cancel()
	log.Debug().Str("scope", s.active.ticket.Scope.String()).Str("roomId", s.active.ticket.RoomID).Msg("polling stopped")
	s.active = nil
}

func (s *Scheduler) run(ctx context.Context, t Ticket, ticker clock.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.fetch(ctx, t)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.fetch(ctx, t)
			// Drop a tick that queued up during the fetch.
			select {
			case <-ticker.C():
			default:
			}
		}
	}
}

func (s *Scheduler) fetch(ctx context.Context, t Ticket) {
	if ctx.Err() != nil {
		return
	}
	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch t.Scope {
	case ScopeLobby:
		rooms, err := s.fetcher.ListRooms(fctx)
		if err != nil {
			s.logFailure(ctx, t, err)
			return
		}
		if s.Live(t) {
			s.sink.LobbyRooms(t, rooms)
		}
	case ScopeRoom:
		room, err := s.fetcher.GetRoom(fctx, t.RoomID)
		if err != nil {
			s.logFailure(ctx, t, err)
			return
		}
		if s.Live(t) {
			s.sink.RoomSnapshot(t, room)
		}
	}
}

func (s *Scheduler) logFailure(ctx context.Context, t Ticket, err error) {
	if ctx.Err() != nil {
		return // cancelled with the job
	}
	log.Warn().Err(err).Str("scope", t.Scope.String()).Str("roomId", t.RoomID).Msg("poll failed")
}
