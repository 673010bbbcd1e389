// internal/cli/app.go
//
// Line-oriented terminal front end. Commands are read from In, one per line;
// output goes to Out. Room updates that arrive between commands (other
// players joining, guessing, the game ending) are printed as they land.
//
// Commands:
//   rooms | create [name] [max] | join <id> | start | leave | room
//   guess <word> (a bare five-letter word also works while playing)
//   solo | abandon | history | name <username> | whoami | help | quit

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/lobby"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote"
	"github.com/robalobadob/wordle/apps/go-client/internal/solo"
)

const defaultTimeout = 10 * time.Second

var errQuit = errors.New("quit")

type Config struct {
	Lobby   *lobby.Controller
	Solo    *solo.Session
	Store   identity.Store
	In      io.Reader
	Out     io.Writer
	Timeout time.Duration // per command
}

type mode int

const (
	modeLobby mode = iota
	modeSolo
)

// App owns no lifecycle: the caller opens and closes the controller, the
// session and the store.
type App struct {
	lobby   *lobby.Controller
	solo    *solo.Session
	store   identity.Store
	in      io.Reader
	timeout time.Duration

	outMu sync.Mutex
	out   io.Writer

	mode     mode
	lastSeen string // summary of the last room state printed
}

func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Lobby == nil {
		return nil, errors.New("lobby controller cannot be nil")
	}
	if cfg.Solo == nil {
		return nil, errors.New("solo session cannot be nil")
	}
	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("input and output are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &App{
		lobby:   cfg.Lobby,
		solo:    cfg.Solo,
		store:   cfg.Store,
		in:      cfg.In,
		out:     cfg.Out,
		timeout: timeout,
	}, nil
}

// Run processes commands until quit, end of input or ctx cancellation.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watch(ctx)
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	id := a.lobby.Identity()
	a.printf("playing as %s (%s); type help for commands\n", id.Username, id.PlayerID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if err := a.exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				a.printf("error: %s\n", describe(err))
			}
		}
	}
}

func (a *App) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	switch cmd {
	case "help", "?":
		a.printf("rooms | create [name] [max] | join <id> | start | leave | room\n" +
			"guess <word> | solo | abandon | history | name <username> | whoami | quit\n")
	case "quit", "exit":
		return errQuit
	case "whoami":
		id := a.lobby.Identity()
		a.printf("%s (%s)\n", id.Username, id.PlayerID)
	case "name":
		return a.rename(ctx, strings.Join(args, " "))
	case "rooms":
		a.withOut(func(w io.Writer) { renderLobby(w, a.lobby.View().Lobby) })
	case "create":
		return a.create(ctx, args)
	case "join":
		if len(args) != 1 {
			return errors.New("usage: join <room id>")
		}
		a.mode = modeLobby
		r, err := a.lobby.JoinRoom(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		a.printf("joined %s\n", r.RoomID)
		a.showRoom(true)
	case "start":
		if err := a.lobby.StartGame(ctx); err != nil {
			return err
		}
		a.printf("starting...\n")
	case "leave":
		a.lobby.Leave()
		a.mode = modeLobby
		a.printf("back in the lobby\n")
	case "room":
		a.showRoom(true)
	case "guess":
		if len(args) != 1 {
			return errors.New("usage: guess <word>")
		}
		return a.guess(ctx, args[0])
	case "solo":
		return a.startSolo(ctx)
	case "abandon":
		if err := a.solo.Abandon(ctx); err != nil {
			return err
		}
		a.mode = modeLobby
		a.printf("solo game abandoned\n")
	case "history":
		return a.history(ctx)
	default:
		if len(fields) == 1 && len(cmd) == game.WordLength && a.canGuess() {
			return a.guess(ctx, cmd)
		}
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (a *App) rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	id := a.lobby.Identity()
	id.Username = name
	if a.lobby.View().Phase != lobby.Unjoined {
		return lobby.ErrAlreadyInRoom
	}
	if err := identity.SetUsername(ctx, a.store, name); err != nil {
		return err
	}
	if err := a.lobby.SetIdentity(id); err != nil {
		return err
	}
	a.printf("you are now %s\n", name)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	name, maxPlayers := "", 0
	if n := len(args); n > 0 {
		if v, err := strconv.Atoi(args[n-1]); err == nil {
			maxPlayers, args = v, args[:n-1]
		}
		name = strings.Join(args, " ")
	}
	a.mode = modeLobby
	r, err := a.lobby.CreateRoom(ctx, name, maxPlayers)
	if err != nil {
		return err
	}
	a.printf("created room %s; share the id so others can join\n", r.RoomID)
	a.showRoom(true)
	return nil
}

func (a *App) canGuess() bool {
	if a.mode == modeSolo {
		return true
	}
	return a.lobby.View().Phase == lobby.Playing
}

func (a *App) guess(ctx context.Context, word string) error {
	if err := game.ValidateGuess(word); err != nil {
		return err
	}
	if a.mode == modeSolo {
		a.solo.ClearBuffer()
		for _, r := range word {
			a.solo.TypeLetter(r)
		}
		if _, err := a.solo.Guess(ctx); err != nil {
			return err
		}
		a.withOut(func(w io.Writer) { renderSolo(w, a.solo.View()) })
		return nil
	}

	a.lobby.ClearBuffer()
	for _, r := range word {
		a.lobby.TypeLetter(r)
	}
	res, err := a.lobby.SubmitGuess(ctx)
	if err != nil {
		return err
	}
	a.printf("  %s\n", renderRow(res))
	return nil
}

func (a *App) startSolo(ctx context.Context) error {
	if a.lobby.View().Phase != lobby.Unjoined {
		return errors.New("leave the room first")
	}
	if _, err := a.solo.NewGame(ctx); err != nil {
		return err
	}
	a.mode = modeSolo
	a.withOut(func(w io.Writer) { renderSolo(w, a.solo.View()) })
	return nil
}

func (a *App) history(ctx context.Context) error {
	results, err := a.store.Results(ctx, 0)
	if err != nil {
		return err
	}
	a.withOut(func(w io.Writer) {
		if len(results) == 0 {
			fmt.Fprintln(w, "no finished games yet")
			return
		}
		for _, r := range results {
			outcome := "lost"
			if r.Won {
				outcome = "won"
			}
			fmt.Fprintf(w, "%s %-11s %-10s %s in %d", r.FinishedAt.Format("2006-01-02 15:04"), r.Mode, r.GameID, outcome, r.Guesses)
			if r.Mode == identity.ModeMultiplayer && r.Rank > 0 {
				fmt.Fprintf(w, " rank #%d %d pts", r.Rank, r.Points)
			}
			if r.TargetWord != "" {
				fmt.Fprintf(w, " (%s)", r.TargetWord)
			}
			fmt.Fprintln(w)
		}
	})
	return nil
}

// watch prints the room whenever something other than the guess buffer
// changes.
func (a *App) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-a.lobby.Changes():
			if !ok {
				return
			}
			a.showRoom(false)
		}
	}
}

// showRoom prints the room. Unless forced it stays quiet when nothing
// worth showing changed since the last print.
func (a *App) showRoom(force bool) {
	v := a.lobby.View()
	if v.Room == nil {
		return
	}
	key := roomSummary(v)
	a.outMu.Lock()
	defer a.outMu.Unlock()
	if !force && key == a.lastSeen {
		return
	}
	a.lastSeen = key
	renderRoom(a.out, v)
	if v.Phase == lobby.Finished {
		log.Debug().Str("roomId", v.Room.RoomID).Msg("game over shown")
	}
}

func roomSummary(v lobby.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s", v.Room.RoomID, v.Room.Status)
	for _, p := range v.Room.Players {
		fmt.Fprintf(&b, "|%s:%d:%d:%t", p.PlayerID, p.Round(), p.Rank, p.IsFinished())
	}
	return b.String()
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) withOut(fn func(w io.Writer)) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fn(a.out)
}

// describe renders an error for the player.
func describe(err error) string {
	var re *remote.Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
