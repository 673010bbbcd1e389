// internal/lobby/controller.go
//
// Controller drives one player's multiplayer session:
//   - lobby browsing (polled room list) while Unjoined,
//   - create/join, the waiting room, start, guessing and the final standings,
//   - leave, which cancels every timer and subscription tied to the room.
//
// All server data is folded in through reconcile, whatever its source: poll
// results (as a poller.Sink), action responses and push events use the same
// apply path. Each room entry bumps an epoch; responses and events carrying
// an older epoch arrive after a leave and are dropped.
//
// Locking: c.mu guards all state. The controller calls into the scheduler
// with c.mu held (allowed by poller's lock order) but never calls
// Scheduler.Close or waits on background work while holding it.

package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/common/clock"
	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/poller"
	"github.com/robalobadob/wordle/apps/go-client/internal/push"
	"github.com/robalobadob/wordle/apps/go-client/internal/reconcile"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote"
)

const (
	DefaultLobbyInterval = 2 * time.Second
	DefaultRoomInterval  = time.Second
	DefaultTimeout       = 10 * time.Second
)

// Recorder keeps finished games. identity.Store satisfies it.
type Recorder interface {
	RecordResult(ctx context.Context, r identity.Result) error
}

// Config holds the controller's collaborators and timings.
type Config struct {
	Client   remote.Client
	Identity identity.Identity
	Push     push.Subscriber // push.Nop when nil
	Recorder Recorder        // optional
	Clock    clock.Clock

	LobbyInterval time.Duration
	RoomInterval  time.Duration
	Timeout       time.Duration // per background request
}

// Controller is safe for concurrent use.
type Controller struct {
	client   remote.Client
	push     push.Subscriber
	recorder Recorder
	clock    clock.Clock
	sched    *poller.Scheduler

	lobbyInterval time.Duration
	roomInterval  time.Duration
	timeout       time.Duration

	mu         sync.Mutex
	id         identity.Identity
	phase      Phase
	room       *game.Room
	lobby      []game.Room
	game       *game.MultiPlayerGameState
	buffer     []rune
	submitting bool
	err        error
	version    uint64
	epoch      uint64
	recorded   uint64 // epoch whose result was recorded
	lastSync   time.Time
	pushCancel context.CancelFunc
	pushLive   bool
	closed     bool
	changes    chan struct{}
	bg         sync.WaitGroup
}

// New validates cfg and returns an idle controller. Call Open to start
// lobby polling.
func New(cfg *Config) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	c := &Controller{
		client:        cfg.Client,
		push:          cfg.Push,
		recorder:      cfg.Recorder,
		clock:         cfg.Clock,
		id:            cfg.Identity,
		lobbyInterval: orDefault(cfg.LobbyInterval, DefaultLobbyInterval),
		roomInterval:  orDefault(cfg.RoomInterval, DefaultRoomInterval),
		timeout:       orDefault(cfg.Timeout, DefaultTimeout),
		changes:       make(chan struct{}, 1),
	}
	if c.push == nil {
		c.push = push.Nop{}
	}
	if c.clock == nil {
		c.clock = &clock.DefaultClock{}
	}
	sched, err := poller.New(&poller.Config{
		Fetcher: cfg.Client,
		Sink:    c,
		Clock:   c.clock,
		Timeout: c.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("poller: %w", err)
	}
	c.sched = sched
	return c, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Open starts lobby polling. It is a no-op while in a room.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.phase != Unjoined {
		return
	}
	c.sched.StartLobby(c.lobbyInterval)
}

// Close leaves any room, stops polling and waits for background work. The
// Changes channel is closed on return.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	c.stopPushLocked()
	c.mu.Unlock()

	c.sched.Close()
	c.bg.Wait()

	c.mu.Lock()
	close(c.changes)
	c.mu.Unlock()
}

// Changes signals that View may return something new. Signals coalesce:
// one pending value stands for any number of changes.
func (c *Controller) Changes() <-chan struct{} { return c.changes }

// Identity returns the local player.
func (c *Controller) Identity() identity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// SetIdentity swaps the local player. Only allowed outside a room.
func (c *Controller) SetIdentity(id identity.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Unjoined {
		return ErrAlreadyInRoom
	}
	c.id = id
	c.changedLocked()
	return nil
}

// ------------------------------- room entry ---------------------------------

// CreateRoom creates a room owned by the local player and enters it. An
// empty name becomes "<username>'s Room"; maxPlayers 0 uses the server
// default, any other value must be at least game.MinPlayers.
func (c *Controller) CreateRoom(ctx context.Context, name string, maxPlayers int) (*game.Room, error) {
	c.mu.Lock()
	if maxPlayers != 0 && maxPlayers < game.MinPlayers {
		err := c.refuseLocked(ErrInvalidMaxPlayers)
		c.mu.Unlock()
		return nil, err
	}
	ep, err := c.beginJoinLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if name == "" {
		name = c.id.Username + "'s Room"
	}
	req := remote.CreateRoomRequest{
		CreatorID:  c.id.PlayerID,
		RoomName:   name,
		Username:   c.id.Username,
		MaxPlayers: maxPlayers,
	}
	c.mu.Unlock()

	room, err := c.client.CreateRoom(ctx, req)
	return c.finishJoin(ep, room, err)
}

// JoinRoom joins roomID. Rooms the cached lobby already shows as full or
// started are refused without a request.
func (c *Controller) JoinRoom(ctx context.Context, roomID string) (*game.Room, error) {
	c.mu.Lock()
	if c.phase == Unjoined {
		for i := range c.lobby {
			r := &c.lobby[i]
			if r.RoomID != roomID {
				continue
			}
			var err error
			switch {
			case r.IsFull():
				err = c.refuseLocked(ErrRoomFull)
			case r.Status != game.RoomWaiting:
				err = c.refuseLocked(ErrGameInProgress)
			}
			if err != nil {
				c.mu.Unlock()
				return nil, err
			}
		}
	}
	ep, err := c.beginJoinLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	req := remote.JoinRoomRequest{RoomID: roomID, PlayerID: c.id.PlayerID, Username: c.id.Username}
	c.mu.Unlock()

	room, err := c.client.JoinRoom(ctx, req)
	return c.finishJoin(ep, room, err)
}

// beginJoinLocked moves Unjoined to Joining. On refusal c.mu is still held.
func (c *Controller) beginJoinLocked() (uint64, error) {
	switch {
	case c.closed:
		return 0, ErrClosed
	case c.id.PlayerID == "":
		return 0, c.refuseLocked(ErrNoPlayerID)
	case c.phase != Unjoined:
		return 0, c.refuseLocked(ErrAlreadyInRoom)
	}
	c.epoch++
	c.phase = Joining
	c.err = nil
	c.changedLocked()
	return c.epoch, nil
}

func (c *Controller) finishJoin(ep uint64, room *game.Room, err error) (*game.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ep != c.epoch || c.phase != Joining {
		return nil, ErrAbandoned
	}
	if err == nil {
		var out reconcile.Outcome
		room, out, err = reconcile.Room(nil, room)
		if out != reconcile.Replaced && err == nil {
			err = reconcile.ErrMalformedSnapshot
		}
	}
	if err != nil {
		c.phase = Unjoined
		c.err = err
		c.changedLocked()
		return nil, err
	}

	c.room = room
	c.lobby = nil
	c.game = nil
	c.buffer = nil
	c.lastSync = c.clock.Now()
	c.phase = phaseFor(room.Status)
	c.sched.StartRoom(room.RoomID, c.roomInterval)
	c.startPushLocked(room.RoomID)
	if c.phase >= Playing {
		c.fetchGameStateLocked()
	}
	c.changedLocked()
	log.Info().Str("roomId", room.RoomID).Str("phase", c.phase.String()).Msg("entered room")
	return room.Clone(), nil
}

// Leave exits the current room (or abandons a pending join) and resumes
// lobby polling. No request is sent: the server has no leave endpoint.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.phase != Unjoined && c.room != nil {
		log.Info().Str("roomId", c.room.RoomID).Msg("left room")
	}
	c.epoch++
	c.stopPushLocked()
	c.sched.StopAll()
	c.phase = Unjoined
	c.room = nil
	c.game = nil
	c.buffer = nil
	c.submitting = false
	c.err = nil
	c.sched.StartLobby(c.lobbyInterval)
	c.changedLocked()
}

// ------------------------------- game actions -------------------------------

// StartGame asks the server to start the waiting room. Only the creator may
// start, and only with at least two players; both are checked locally. On
// acceptance the room snapshot is refreshed right away instead of waiting
// for the next tick.
func (c *Controller) StartGame(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.phase != Waiting {
		err := c.refuseLocked(ErrNotWaiting)
		c.mu.Unlock()
		return err
	}
	if len(c.room.Players) < game.MinPlayers {
		err := c.refuseLocked(ErrNotEnoughPlayers)
		c.mu.Unlock()
		return err
	}
	if c.room.CreatorID != c.id.PlayerID {
		err := c.refuseLocked(ErrNotCreator)
		c.mu.Unlock()
		return err
	}
	ep, roomID, playerID := c.epoch, c.room.RoomID, c.id.PlayerID
	c.mu.Unlock()

	res, err := c.client.StartGame(ctx, roomID, playerID)
	if err == nil && !res.Success {
		err = remote.Refusal(res.Message)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ep != c.epoch {
		return ErrAbandoned
	}
	c.err = err
	c.changedLocked()
	if err != nil {
		return err
	}
	c.refreshRoomLocked()
	return nil
}

// SubmitGuess sends the buffered word. Guesses that are not five letters,
// or from a player who already finished or used every round, are refused
// locally and leave the buffer as it was. A server rejection keeps the
// buffer only for WORD_NOT_FOUND, so the player can fix a typo.
func (c *Controller) SubmitGuess(ctx context.Context) ([]game.GuessResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	guess, index, err := c.checkGuessLocked()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	ep, roomID, playerID := c.epoch, c.room.RoomID, c.id.PlayerID
	c.changedLocked()
	c.mu.Unlock()

	res, err := c.client.SubmitGuess(ctx, roomID, playerID, guess)
	if err == nil {
		err = res.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ep != c.epoch {
		return nil, ErrAbandoned
	}
	c.submitting = false
	if err != nil {
		if remote.KindOf(err) != remote.KindWordNotFound {
			c.buffer = nil
		}
		c.err = err
		c.changedLocked()
		log.Debug().Err(err).Str("roomId", roomID).Str("guess", guess).Msg("guess rejected")
		return nil, err
	}

	if len(res.Result) == game.WordLength {
		if next, ok := reconcile.AppendGuess(c.room, playerID, index, guess, res.Result); ok {
			c.room = next
		}
		if res.GameState == nil {
			if next, ok := reconcile.AppendGameGuess(c.game, index, guess, res.Result); ok {
				c.game = next
			}
		}
	}
	if res.GameState != nil {
		c.applyGameStateLocked(res.GameState)
	}
	c.buffer = nil
	c.err = nil
	c.changedLocked()
	return append([]game.GuessResult(nil), res.Result...), nil
}

func (c *Controller) checkGuessLocked() (string, int, error) {
	if c.phase != Playing {
		return "", 0, c.refuseLocked(ErrNotPlaying)
	}
	if c.submitting {
		return "", 0, ErrGuessInFlight
	}
	guess := string(c.buffer)
	if err := game.ValidateGuess(guess); err != nil {
		return "", 0, c.refuseLocked(err)
	}
	me := c.room.Player(c.id.PlayerID)
	switch {
	case me == nil:
		return "", 0, c.refuseLocked(ErrNotInRoom)
	case me.Round() >= game.MaxRounds:
		return "", 0, c.refuseLocked(ErrNoGuessesLeft)
	case me.IsFinished():
		return "", 0, c.refuseLocked(ErrPlayerFinished)
	}
	return guess, me.Round(), nil
}

// refuseLocked surfaces a local refusal without touching the buffer.
func (c *Controller) refuseLocked(err error) error {
	c.err = err
	c.changedLocked()
	return err
}

// ------------------------------- sink + push --------------------------------

// LobbyRooms applies a lobby poll. Implements poller.Sink.
func (c *Controller) LobbyRooms(t poller.Ticket, rooms []game.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.sched.Live(t) || c.phase.InRoom() {
		return
	}
	c.lastSync = c.clock.Now()
	next, out, err := reconcile.Rooms(c.lobby, rooms)
	if err != nil {
		log.Warn().Err(err).Msg("dropped malformed lobby entries")
	}
	if out == reconcile.Replaced {
		c.lobby = next
		c.changedLocked()
	}
}

// RoomSnapshot applies a room poll. Implements poller.Sink.
func (c *Controller) RoomSnapshot(t poller.Ticket, room *game.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.sched.Live(t) || c.room == nil || c.room.RoomID != t.RoomID {
		return
	}
	c.applyRoomLocked(room, "poll")
}

func (c *Controller) startPushLocked(roomID string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.pushCancel = cancel
	ep := c.epoch
	c.bg.Add(1)
	go c.runPush(ctx, ep, roomID)
}

func (c *Controller) stopPushLocked() {
	if c.pushCancel != nil {
		c.pushCancel()
		c.pushCancel = nil
	}
	c.pushLive = false
}

func (c *Controller) runPush(ctx context.Context, ep uint64, roomID string) {
	defer c.bg.Done()
	events, err := c.push.Subscribe(ctx, roomID)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("push unavailable, polling only")
		}
		return
	}
	if events == nil {
		return
	}
	c.setPushLive(ep, true)
	for ev := range events {
		c.applyEvent(ep, ev)
	}
	c.setPushLive(ep, false)
}

func (c *Controller) setPushLive(ep uint64, live bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ep != c.epoch || c.pushLive == live {
		return
	}
	c.pushLive = live
	c.changedLocked()
}

// applyEvent folds a push event in. Only events carrying a room snapshot
// are applied; the bare fields cannot be placed without an index.
func (c *Controller) applyEvent(ep uint64, ev push.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ep != c.epoch || c.room == nil || ev.Room == nil {
		return
	}
	if ev.RoomID != "" && ev.RoomID != c.room.RoomID {
		return
	}
	c.applyRoomLocked(ev.Room, string(ev.Type))
}

// applyRoomLocked is the single path from a room snapshot to local state.
func (c *Controller) applyRoomLocked(room *game.Room, source string) {
	next, out, err := reconcile.Room(c.room, room)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("dropped room snapshot")
		return
	}
	c.lastSync = c.clock.Now()
	if out != reconcile.Replaced {
		if out == reconcile.Stale {
			log.Debug().Str("roomId", c.room.RoomID).Str("source", source).Msg("stale room snapshot")
		}
		return
	}
	prev := c.phase
	c.room = next
	c.phase = phaseFor(next.Status)
	if c.phase != prev {
		log.Info().Str("roomId", next.RoomID).Str("from", prev.String()).Str("to", c.phase.String()).Msg("room phase")
		c.buffer = nil
		if c.phase >= Playing {
			c.fetchGameStateLocked()
		}
	}
	if c.phase == Finished {
		c.recordLocked()
	}
	c.changedLocked()
}

// ----------------------------- background fetches ---------------------------

func (c *Controller) refreshRoomLocked() {
	ep, roomID := c.epoch, c.room.RoomID
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		room, err := c.client.GetRoom(ctx, roomID)
		if err != nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("refresh room")
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if ep != c.epoch {
			return
		}
		c.applyRoomLocked(room, "refresh")
	}()
}

func (c *Controller) fetchGameStateLocked() {
	ep, roomID, playerID := c.epoch, c.room.RoomID, c.id.PlayerID
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		gs, err := c.client.GetGameState(ctx, roomID, playerID)
		if err != nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("fetch game state")
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if ep != c.epoch {
			return
		}
		if c.applyGameStateLocked(gs) {
			c.changedLocked()
		}
	}()
}

func (c *Controller) applyGameStateLocked(gs *game.MultiPlayerGameState) bool {
	next, out, err := reconcile.GameState(c.game, gs)
	if err != nil {
		log.Warn().Err(err).Msg("dropped game state")
		return false
	}
	if out != reconcile.Replaced {
		return false
	}
	c.game = next
	return true
}

// recordLocked stores the local player's result once per room entry.
func (c *Controller) recordLocked() {
	if c.recorder == nil || c.recorded == c.epoch {
		return
	}
	me := c.room.Player(c.id.PlayerID)
	if me == nil {
		return
	}
	c.recorded = c.epoch
	res := identity.Result{
		Mode:       identity.ModeMultiplayer,
		GameID:     c.room.RoomID,
		Won:        me.HasWon(),
		Guesses:    me.Round(),
		Rank:       me.Rank,
		Points:     me.Points,
		TargetWord: c.room.RevealedWord(),
		FinishedAt: c.clock.Now(),
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.recorder.RecordResult(ctx, res); err != nil {
			log.Warn().Err(err).Str("roomId", res.GameID).Msg("record result")
		}
	}()
}

// changedLocked bumps the version and wakes a Changes reader.
func (c *Controller) changedLocked() {
	c.version++
	if c.closed {
		return
	}
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
