// internal/remote/http.go
//
// HTTP implementation of Client.
//   - JSON in/out, base URL from configuration (no ambient lookups).
//   - Every request is bounded by Options.Timeout via context.
//   - Outgoing requests share one token-bucket limiter so a burst of poll
//     ticks and key presses cannot flood the server.
//   - start-game and multiplayer guess treat HTTP 400 as a refusal
//     (success=false with the server's message) rather than an error.

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10
	maxBodyBytes     = 1 << 20
)

// Options configures an HTTPClient. Zero values pick the defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; <0 disables limiting
	Burst      int
	HTTPClient *http.Client
}

// HTTPClient talks to the game server over HTTP.
type HTTPClient struct {
	base    string
	timeout time.Duration
	hc      *http.Client
	limiter *rate.Limiter
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the server at opts.BaseURL.
func NewHTTPClient(opts Options) *HTTPClient {
	c := &HTTPClient{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		hc:      opts.HTTPClient,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	limit := opts.RateLimit
	if limit == 0 {
		limit = DefaultRateLimit
	}
	if limit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(limit)
			if burst < 1 {
				burst = 1
			}
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return c
}

// BaseURL is the server root the client was built with.
func (c *HTTPClient) BaseURL() string { return c.base }

// ------------------------------ single player ------------------------------

// CreateGame starts a single-player game; maxRounds <= 0 means game.MaxRounds.
func (c *HTTPClient) CreateGame(ctx context.Context, maxRounds int) (*game.GameState, error) {
	if maxRounds <= 0 {
		maxRounds = game.MaxRounds
	}
	var gs game.GameState
	path := "/api/wordle/new-game?maxRounds=" + strconv.Itoa(maxRounds)
	if _, err := c.do(ctx, http.MethodPost, path, struct{}{}, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// Guess submits one word for a single-player game and returns the updated
// state. Unknown words come back as a WORD_NOT_FOUND *Error.
func (c *HTTPClient) Guess(ctx context.Context, gameID, guess string) (*game.GameState, error) {
	var gs game.GameState
	req := GuessRequest{GameID: gameID, Guess: guess}
	if _, err := c.do(ctx, http.MethodPost, "/api/wordle/guess", req, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// GetGame re-reads a single-player game.
func (c *HTTPClient) GetGame(ctx context.Context, gameID string) (*game.GameState, error) {
	var gs game.GameState
	if _, err := c.do(ctx, http.MethodGet, "/api/wordle/game/"+url.PathEscape(gameID), nil, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// DeleteGame abandons a single-player game on the server.
func (c *HTTPClient) DeleteGame(ctx context.Context, gameID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/wordle/game/"+url.PathEscape(gameID), nil, nil)
	return err
}

// ------------------------------- multiplayer -------------------------------

// CreateRoom creates a room owned by req.CreatorID, who is also its first
// player. A zero MaxPlayers is sent as game.DefaultMaxPlayers.
func (c *HTTPClient) CreateRoom(ctx context.Context, req CreateRoomRequest) (*game.Room, error) {
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = game.DefaultMaxPlayers
	}
	var room game.Room
	if _, err := c.do(ctx, http.MethodPost, "/api/multiplayer/create-room", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// JoinRoom adds the player to a WAITING room and returns the room snapshot.
func (c *HTTPClient) JoinRoom(ctx context.Context, req JoinRoomRequest) (*game.Room, error) {
	var room game.Room
	if _, err := c.do(ctx, http.MethodPost, "/api/multiplayer/join-room", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// StartGame asks to start the room. A 400 from the server is a refusal:
// Success=false with the server's message, and no error.
func (c *HTTPClient) StartGame(ctx context.Context, roomID, playerID string) (*StartGameResult, error) {
	req := StartGameRequest{RoomID: roomID, PlayerID: playerID}
	var res StartGameResult
	if _, err := c.do(ctx, http.MethodPost, "/api/multiplayer/start-game", req, &res); err != nil {
		if msg, ok := badRequest(err, "Cannot start game"); ok {
			return &StartGameResult{Success: false, Message: msg}, nil
		}
		return nil, err
	}
	// The server answers 200 with an empty body.
	res.Success = true
	return &res, nil
}

// ListRooms returns the rooms the lobby may show. Never nil on success.
func (c *HTTPClient) ListRooms(ctx context.Context) ([]game.Room, error) {
	var rooms []game.Room
	if _, err := c.do(ctx, http.MethodGet, "/api/multiplayer/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []game.Room{}
	}
	return rooms, nil
}

// GetRoom fetches one room snapshot.
func (c *HTTPClient) GetRoom(ctx context.Context, roomID string) (*game.Room, error) {
	var room game.Room
	if _, err := c.do(ctx, http.MethodGet, "/api/multiplayer/room/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// GetGameState fetches the per-player view of a room's game, including the
// target word once the game is over.
func (c *HTTPClient) GetGameState(ctx context.Context, roomID, playerID string) (*game.MultiPlayerGameState, error) {
	var gs game.MultiPlayerGameState
	path := fmt.Sprintf("/api/multiplayer/game-state/%s/%s", url.PathEscape(roomID), url.PathEscape(playerID))
	if _, err := c.do(ctx, http.MethodGet, path, nil, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// SubmitGuess sends a multiplayer guess. As with StartGame, a 400 is
// reported as Success=false rather than an error.
func (c *HTTPClient) SubmitGuess(ctx context.Context, roomID, playerID, guess string) (*GuessResponse, error) {
	req := MultiGuessRequest{RoomID: roomID, PlayerID: playerID, Guess: guess}
	var res GuessResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/multiplayer/guess", req, &res); err != nil {
		if msg, ok := badRequest(err, "Invalid guess"); ok {
			return &GuessResponse{Success: false, Message: msg}, nil
		}
		return nil, err
	}
	return &res, nil
}

// --------------------------------- plumbing --------------------------------

// do sends one JSON request and decodes the reply into out (when non-nil and
// the body is non-empty). Non-2xx statuses come back as *Error.
func (c *HTTPClient) do(parent context.Context, method, path string, in, out any) (int, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	if c.limiter != nil {
		// Wait fails early, without wrapping DeadlineExceeded, when the next
		// token lies beyond the deadline.
		if err := c.limiter.Wait(ctx); err != nil {
			if parent.Err() != nil {
				return 0, classifyTransport(parent.Err())
			}
			return 0, &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout,
				Message: "Request timed out. Please try again.", Err: err}
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, &Error{Kind: KindUnknown, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, &Error{Kind: KindUnknown, Message: "build request", Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		rerr := classifyTransport(err)
		log.Debug().Err(err).Str("method", method).Str("path", path).Str("kind", string(rerr.Kind)).Msg("api request failed")
		return 0, rerr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, classifyTransport(err)
	}
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, classifyStatus(resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "malformed response", Err: err}
		}
	}
	return resp.StatusCode, nil
}

// badRequest extracts the refusal message from a 400 reply. The server
// sometimes sends a bare 400 with no body; fallback covers that.
func badRequest(err error, fallback string) (string, bool) {
	re, ok := err.(*Error)
	if !ok || re.Status != http.StatusBadRequest {
		return "", false
	}
	if re.Message != "" && re.Message != http.StatusText(http.StatusBadRequest) {
		return re.Message, true
	}
	return fallback, true
}
