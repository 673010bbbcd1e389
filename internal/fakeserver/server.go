// internal/fakeserver/server.go
//
// In-process Wordle game server for package tests (remote, lobby, solo,
// cli), served through httptest. It speaks the same HTTP contract as the real server:
//   - Single player: POST /api/wordle/new-game, POST /api/wordle/guess,
//     GET|DELETE /api/wordle/game/{id}.
//   - Multiplayer: POST create-room, join-room, start-game, guess;
//     GET rooms, room/{id}, game-state/{roomId}/{playerId}
//     (all under /api/multiplayer).
//   - Push: GET /ws/room/{roomId} (websocket), plus an optional Publisher
//     (e.g. redis) that receives the same events.
//
// Notes:
//   - Refusals mirror the real server, including its quirks: the multiplayer
//     guess endpoint answers 200 {success:false} for rule violations, and
//     join/start answer 400.
//   - The answer is fixed per server (Options.Answer) so tests are
//     deterministic.

package fakeserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/push"
)

const (
	DefaultAnswer = "CRANE"
	timeLayout    = "2006-01-02T15:04:05.000"
)

// Options configures a Server. The zero value is usable.
type Options struct {
	Answer    string         // target word for every game and room
	Words     []string       // accepted guesses; empty accepts any five letters
	Publisher push.Publisher // receives every room event in addition to websockets
	Now       func() time.Time
}

// Server bundles router, in-memory rooms/games and the websocket hub.
type Server struct {
	r     *chi.Mux
	store *memory
	hub   *hub
	opts  Options
	words map[string]bool

	mu   sync.Mutex
	hits map[string]int
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Answer == "" {
		opts.Answer = DefaultAnswer
	}
	opts.Answer = game.NormalizeGuess(opts.Answer)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		r:     chi.NewRouter(),
		store: newMemory(),
		hub:   newHub(),
		opts:  opts,
		hits:  make(map[string]int),
	}
	if len(opts.Words) > 0 {
		s.words = make(map[string]bool, len(opts.Words)+1)
		for _, w := range opts.Words {
			s.words[game.NormalizeGuess(w)] = true
		}
		s.words[opts.Answer] = true
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.countHits)

	s.r.Get("/ws/room/{roomId}", s.handleSocket)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Route("/api/wordle", func(r chi.Router) {
			r.Post("/new-game", s.handleNewGame)
			r.Post("/guess", s.handleGuess)
			r.Get("/game/{id}", s.handleGetGame)
			r.Delete("/game/{id}", s.handleDeleteGame)
		})

		r.Route("/api/multiplayer", func(r chi.Router) {
			r.Post("/create-room", s.handleCreateRoom)
			r.Post("/join-room", s.handleJoinRoom)
			r.Post("/start-game", s.handleStartGame)
			r.Get("/rooms", s.handleListRooms)
			r.Get("/room/{roomId}", s.handleGetRoom)
			r.Get("/game-state/{roomId}/{playerId}", s.handleGameState)
			r.Post("/guess", s.handleMultiGuess)
		})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Close drops every websocket subscriber.
func (s *Server) Close() { s.hub.closeAll() }

// Hits reports how many requests matched route, e.g.
// "POST /api/multiplayer/guess".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Room returns the full server-side snapshot, answer included.
func (s *Server) Room(id string) (*game.Room, bool) {
	r, err := s.store.getRoom(id)
	if err != nil {
		return nil, false
	}
	snap := r.snap
	snap.CurrentWord = r.answer
	return &snap, true
}

// UpdateRoom mutates a room in place and announces the result, letting
// tests drive transitions the HTTP surface has no endpoint for.
func (s *Server) UpdateRoom(id string, typ push.EventType, fn func(r *game.Room)) bool {
	var snap game.Room
	err := s.store.updateRoom(id, func(r *room) error {
		fn(&r.snap)
		snap = *sanitize(r).Clone()
		return nil
	})
	if err != nil {
		return false
	}
	s.publish(push.Event{Type: typ, RoomID: id, Room: &snap})
	return true
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// countHits records the matched route pattern once the request is routed.
func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		rc := chi.RouteContext(r.Context())
		if rc == nil {
			return
		}
		s.mu.Lock()
		s.hits[r.Method+" "+rc.RoutePattern()]++
		s.mu.Unlock()
	})
}

// ---------------------------- single player --------------------------------

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	maxRounds := game.MaxRounds
	if v := r.URL.Query().Get("maxRounds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "INVALID_FORMAT", Message: "maxRounds must be a positive integer", Code: 400})
			return
		}
		maxRounds = n
	}
	g := &soloGame{
		state: game.GameState{
			GameID:    uuid.NewString(),
			Guesses:   [][]game.GuessResult{},
			MaxRounds: maxRounds,
		},
		answer: s.opts.Answer,
	}
	s.store.putGame(g)
	writeJSON(w, http.StatusOK, g.state)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID string `json:"gameId"`
		Guess  string `json:"guess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" || strings.TrimSpace(req.Guess) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "INVALID_FORMAT", Message: "Game ID and guess are required", Code: 400})
		return
	}
	guess := game.NormalizeGuess(req.Guess)

	var out game.GameState
	var refused *errorResponse
	err := s.store.updateGame(req.GameID, func(g *soloGame) error {
		if g.state.GameOver {
			return errNotFound
		}
		if e := s.checkGuess(guess); e != nil {
			refused = e
			return nil
		}
		g.state.Guesses = append(g.state.Guesses, score(g.answer, guess))
		g.state.CurrentRound++
		if guess == g.answer {
			g.state.Won = true
		}
		if g.state.Won || g.state.CurrentRound >= g.state.MaxRounds {
			g.state.GameOver = true
			g.state.TargetWord = g.answer
			if g.state.Won {
				g.state.Message = "Congratulations! You won!"
			} else {
				g.state.Message = "Game over! Better luck next time."
			}
		}
		out = g.state
		out.Guesses = cloneRows(g.state.Guesses)
		return nil
	})
	switch {
	case err != nil:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "GAME_NOT_FOUND", Message: "Game not found or already finished", Code: 404})
	case refused != nil:
		writeJSON(w, http.StatusUnprocessableEntity, refused)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

// checkGuess applies the single-player validation and its error kinds.
func (s *Server) checkGuess(guess string) *errorResponse {
	if len(guess) != game.WordLength {
		return &errorResponse{Error: "INVALID_LENGTH", Message: "Your guess must be exactly 5 letters long.", Code: 422}
	}
	if err := game.ValidateGuess(guess); err != nil {
		return &errorResponse{Error: "INVALID_FORMAT", Message: "Your guess must contain only letters.", Code: 422}
	}
	if !s.allowed(guess) {
		return &errorResponse{Error: "WORD_NOT_FOUND",
			Message: "The word '" + guess + "' is not in our dictionary. Please try another word.", Code: 422}
	}
	return nil
}

func (s *Server) allowed(guess string) bool {
	return s.words == nil || s.words[guess]
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.getGame(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, g.state)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	s.store.deleteGame(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusOK)
}

// ----------------------------- multiplayer ----------------------------------

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CreatorID  string `json:"creatorId"`
		RoomName   string `json:"roomName"`
		Username   string `json:"username"`
		MaxPlayers int    `json:"maxPlayers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CreatorID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = game.DefaultMaxPlayers
	}
	rm := &room{snap: game.Room{
		RoomID:     strings.ToUpper(uuid.NewString()[:8]),
		RoomName:   req.RoomName,
		CreatorID:  req.CreatorID,
		MaxPlayers: req.MaxPlayers,
		Status:     game.RoomWaiting,
		CreatedAt:  s.opts.Now().Format(timeLayout),
		Players:    []game.Player{newPlayer(req.CreatorID, req.Username)},
	}}
	resp := sanitize(rm).Clone()
	s.store.putRoom(rm)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID   string `json:"roomId"`
		PlayerID string `json:"playerId"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var snap game.Room
	joined := false
	err := s.store.updateRoom(req.RoomID, func(rm *room) error {
		if rm.snap.Player(req.PlayerID) != nil {
			snap = *sanitize(rm).Clone()
			return nil
		}
		if rm.snap.IsFull() {
			return refusal("Room is full")
		}
		if rm.snap.Status != game.RoomWaiting {
			return refusal("Game already in progress")
		}
		rm.snap.Players = append(rm.snap.Players, newPlayer(req.PlayerID, req.Username))
		snap = *sanitize(rm).Clone()
		joined = true
		return nil
	})
	if err != nil {
		writeRefusal(w, http.StatusBadRequest, err, "Room not found")
		return
	}
	if joined {
		s.publish(push.Event{Type: push.PlayerJoined, RoomID: snap.RoomID, PlayerID: req.PlayerID, Room: snap.Clone()})
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"roomId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	var snap game.Room
	err := s.store.updateRoom(req.RoomID, func(rm *room) error {
		if !rm.snap.CanStart() {
			return refusal("Cannot start game")
		}
		rm.answer = s.opts.Answer
		rm.snap.Status = game.RoomInProgress
		for i := range rm.snap.Players {
			p := &rm.snap.Players[i]
			p.Guesses, p.GuessResults = []string{}, [][]game.GuessResult{}
			p.Won, p.HasWonAlias, p.Finished = false, false, false
			p.WinTime, p.Rank, p.Points = "", 0, 0
		}
		snap = *sanitize(rm).Clone()
		return nil
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Cannot start game"})
		return
	}
	s.publish(push.Event{Type: push.GameStarted, RoomID: snap.RoomID, Room: &snap})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	out := []game.Room{}
	for _, rm := range s.store.listRooms() {
		if rm.snap.Status == game.RoomWaiting && !rm.snap.IsFull() {
			out = append(out, *sanitize(&rm))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.store.getRoom(chi.URLParam(r, "roomId"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(&rm))
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	rm, err := s.store.getRoom(chi.URLParam(r, "roomId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Room not found"})
		return
	}
	p := rm.snap.Player(chi.URLParam(r, "playerId"))
	if p == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Player not found"})
		return
	}
	gs := playerState(p)
	if rm.snap.Status == game.RoomFinished {
		gs.TargetWord = rm.answer
	}
	writeJSON(w, http.StatusOK, gs)
}

func (s *Server) handleMultiGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID   string `json:"roomId"`
		PlayerID string `json:"playerId"`
		Guess    string `json:"guess"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	guess := game.NormalizeGuess(req.Guess)

	var (
		result []game.GuessResult
		gs     game.MultiPlayerGameState
		snap   game.Room
		ended  bool
		answer string
	)
	err := s.store.updateRoom(req.RoomID, func(rm *room) error {
		if rm.snap.Status != game.RoomInProgress {
			return refusal("Game not in progress")
		}
		p := rm.snap.Player(req.PlayerID)
		if p == nil {
			return refusal("Player not found")
		}
		if p.IsFinished() {
			return refusal("Player already finished")
		}
		if game.ValidateGuess(guess) != nil {
			return refusal("Guess must be exactly 5 letters")
		}
		if !s.allowed(guess) {
			return refusal("Invalid word")
		}

		result = score(rm.answer, guess)
		p.Guesses = append(p.Guesses, guess)
		p.GuessResults = append(p.GuessResults, result)
		if guess == rm.answer {
			p.HasWonAlias = true
			p.WinTime = s.opts.Now().Format(timeLayout)
			if rm.snap.WinnerID == "" {
				rm.snap.WinnerID = p.PlayerID
			}
		}
		p.Finished = p.IsFinished()
		gs = playerState(p)

		if rm.snap.WinnerID != "" || allFinished(rm.snap.Players) {
			rm.snap.Status = game.RoomFinished
			rankPlayers(&rm.snap)
			ended, answer = true, rm.answer
			gs = playerState(rm.snap.Player(req.PlayerID))
			gs.TargetWord = rm.answer
		}
		snap = *sanitize(rm).Clone()
		return nil
	})

	var ref refusal
	switch {
	case err == errNotFound:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Failed to process guess"})
		return
	case asRefusal(err, &ref):
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": string(ref)})
		return
	}

	s.publish(push.Event{Type: push.GuessResult, RoomID: snap.RoomID, PlayerID: req.PlayerID,
		Guess: guess, Result: result, Room: snap.Clone()})
	if ended {
		s.publish(push.Event{Type: push.GameEnded, RoomID: snap.RoomID, Room: snap.Clone(), TargetWord: answer})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result, "gameState": gs})
}

// ------------------------------- helpers -------------------------------------

// refusal is a rule violation reported back with its message.
type refusal string

func (r refusal) Error() string { return string(r) }

func asRefusal(err error, out *refusal) bool {
	r, ok := err.(refusal)
	if ok {
		*out = r
	}
	return ok
}

func writeRefusal(w http.ResponseWriter, status int, err error, notFound string) {
	msg := notFound
	var ref refusal
	if asRefusal(err, &ref) {
		msg = string(ref)
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func newPlayer(id, username string) game.Player {
	return game.Player{
		PlayerID:     id,
		Username:     username,
		Guesses:      []string{},
		GuessResults: [][]game.GuessResult{},
	}
}

func playerState(p *game.Player) game.MultiPlayerGameState {
	c := p.Clone()
	return game.MultiPlayerGameState{
		Guesses:      c.Guesses,
		GuessResults: c.GuessResults,
		Finished:     c.IsFinished(),
		Won:          c.HasWon(),
		Rank:         c.Rank,
		Points:       c.Points,
	}
}

func allFinished(ps []game.Player) bool {
	for _, p := range ps {
		if !p.IsFinished() {
			return false
		}
	}
	return true
}

// rankPlayers orders finished players (winners by win time, then the rest
// by guesses used) and awards 10/7/5/2 points.
func rankPlayers(r *game.Room) {
	var order []*game.Player
	for i := range r.Players {
		if r.Players[i].IsFinished() {
			order = append(order, &r.Players[i])
		}
	}
	less := func(a, b *game.Player) bool {
		if a.HasWon() != b.HasWon() {
			return a.HasWon()
		}
		if a.HasWon() {
			return a.WinTime < b.WinTime
		}
		return a.Round() < b.Round()
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(order[j], order[j-1]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	points := []int{10, 7, 5}
	for i, p := range order {
		p.Rank = i + 1
		if i < len(points) {
			p.Points = points[i]
		} else {
			p.Points = 2
		}
	}
}

// sanitize returns the client-facing snapshot: the answer is only revealed
// once the room is finished.
func sanitize(rm *room) *game.Room {
	out := rm.snap
	out.CurrentWord, out.TargetWord = "", ""
	if out.Status == game.RoomFinished {
		out.CurrentWord, out.TargetWord = rm.answer, rm.answer
	}
	return &out
}

func (s *Server) publish(ev push.Event) {
	s.hub.broadcast(ev)
	if s.opts.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.opts.Publisher.Publish(ctx, ev.RoomID, ev); err != nil {
		log.Warn().Err(err).Str("roomId", ev.RoomID).Str("type", string(ev.Type)).Msg("publish room event")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
