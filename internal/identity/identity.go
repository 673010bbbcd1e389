// internal/identity/identity.go
//
// Local session identity and durable client-side storage.
// Responsibilities:
//   - Player identity: a UUID player id generated once and a username the
//     player picks, both persisted under fixed keys so they survive restarts.
//   - Match history: one row per finished solo game or multiplayer room.
//
// Backends: SQLite (default, see sqlite.go) and memory (tests, or an empty
// storage path).

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/robalobadob/wordle/apps/go-client/internal/common/uuid"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_store.go github.com/robalobadob/wordle/apps/go-client/internal/identity Store

const (
	KeyPlayerID = "wordle.playerId"
	KeyUsername = "wordle.username"

	maxUsername = 20
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidUsername = errors.New("username must be 1-20 characters")
)

// Store is a small key/value store plus match history.
type Store interface {
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error

	// RecordResult stores a finished game. Recording the same (mode, game)
	// twice keeps the first row.
	RecordResult(ctx context.Context, r Result) error
	// Results returns the newest results first.
	Results(ctx context.Context, limit int) ([]Result, error)

	Close() error
}

// Mode names where a result came from.
type Mode string

const (
	ModeSolo        Mode = "solo"
	ModeMultiplayer Mode = "multiplayer"
)

// Result is one finished game.
type Result struct {
	Mode       Mode
	GameID     string // game id (solo) or room id (multiplayer)
	Won        bool
	Guesses    int
	Rank       int
	Points     int
	TargetWord string
	FinishedAt time.Time
}

// Identity is who the local player is.
type Identity struct {
	PlayerID string
	Username string
}

// LoadOrCreate returns the persisted identity, creating the player id on
// first use. A non-empty username replaces the stored one; with neither, the
// username defaults to a prefix of the player id.
func LoadOrCreate(ctx context.Context, st Store, ids uuid.UUID, username string) (Identity, error) {
	id, err := st.Get(ctx, KeyPlayerID)
	switch {
	case errors.Is(err, ErrNotFound) || (err == nil && id == ""):
		id = ids.NewUUID()
		if err := st.Set(ctx, KeyPlayerID, id); err != nil {
			return Identity{}, fmt.Errorf("save player id: %w", err)
		}
	case err != nil:
		return Identity{}, fmt.Errorf("load player id: %w", err)
	}

	if username = strings.TrimSpace(username); username != "" {
		if err := SetUsername(ctx, st, username); err != nil {
			return Identity{}, err
		}
		return Identity{PlayerID: id, Username: username}, nil
	}

	name, err := st.Get(ctx, KeyUsername)
	if errors.Is(err, ErrNotFound) || (err == nil && name == "") {
		name = "player-" + shortID(id)
		if err := st.Set(ctx, KeyUsername, name); err != nil {
			return Identity{}, fmt.Errorf("save username: %w", err)
		}
	} else if err != nil {
		return Identity{}, fmt.Errorf("load username: %w", err)
	}
	return Identity{PlayerID: id, Username: name}, nil
}

// SetUsername validates and persists a new username.
func SetUsername(ctx context.Context, st Store, name string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxUsername {
		return ErrInvalidUsername
	}
	if err := st.Set(ctx, KeyUsername, name); err != nil {
		return fmt.Errorf("save username: %w", err)
	}
	return nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
