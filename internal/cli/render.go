package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
	"github.com/robalobadob/wordle/apps/go-client/internal/lobby"
	"github.com/robalobadob/wordle/apps/go-client/internal/solo"
)

// renderRow prints one evaluated guess in server order:
// [C] hit, (C) present, ' C ' miss.
func renderRow(row []game.GuessResult) string {
	var b strings.Builder
	for i, r := range row {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch r.Status {
		case game.StatusHit:
			fmt.Fprintf(&b, "[%s]", r.Letter)
		case game.StatusPresent:
			fmt.Fprintf(&b, "(%s)", r.Letter)
		default:
			fmt.Fprintf(&b, " %s ", r.Letter)
		}
	}
	return b.String()
}

func renderBoard(w io.Writer, rows [][]game.GuessResult, maxRounds int, buffer string) {
	for _, row := range rows {
		fmt.Fprintf(w, "  %s\n", renderRow(row))
	}
	if len(rows) < maxRounds && buffer != "" {
		fmt.Fprintf(w, "  %s\n", strings.Join(strings.Split(buffer, ""), "   "))
	}
}

func renderLobby(w io.Writer, rooms []game.Room) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, "no open rooms")
		return
	}
	for _, r := range rooms {
		fmt.Fprintf(w, "%-10s %-24s %d/%d %s\n", r.RoomID, r.RoomName, len(r.Players), r.MaxPlayers, r.Status)
	}
}

func renderRoom(w io.Writer, v lobby.View) {
	r := v.Room
	if r == nil {
		fmt.Fprintln(w, "not in a room")
		return
	}
	fmt.Fprintf(w, "room %s %q [%s] %d/%d players\n", r.RoomID, r.RoomName, r.Status, len(r.Players), r.MaxPlayers)
	for _, p := range v.Standings {
		var tags []string
		if p.PlayerID == r.CreatorID {
			tags = append(tags, "host")
		}
		if p.PlayerID == v.PlayerID {
			tags = append(tags, "you")
		}
		if p.HasWon() {
			tags = append(tags, "won")
		} else if p.IsFinished() {
			tags = append(tags, "done")
		}
		rank := "-"
		if p.Rank > 0 {
			rank = fmt.Sprintf("#%d", p.Rank)
		}
		fmt.Fprintf(w, "  %-3s %-20s %d/%d guesses %3d pts %s\n",
			rank, p.Username, p.Round(), game.MaxRounds, p.Points, strings.Join(tags, ","))
	}
	if me := v.Me(); me != nil && r.Status != game.RoomWaiting {
		renderBoard(w, me.GuessResults, game.MaxRounds, v.Buffer)
	}
	if word := r.RevealedWord(); word != "" {
		fmt.Fprintf(w, "the word was %s\n", word)
	}
}

func renderSolo(w io.Writer, v solo.View) {
	g := v.Game
	if g == nil {
		fmt.Fprintln(w, "no solo game")
		return
	}
	fmt.Fprintf(w, "solo %s round %d/%d\n", g.GameID, g.CurrentRound, g.MaxRounds)
	renderBoard(w, g.Guesses, g.MaxRounds, v.Buffer)
	if g.GameOver {
		if g.Message != "" {
			fmt.Fprintln(w, g.Message)
		}
		if g.TargetWord != "" {
			fmt.Fprintf(w, "the word was %s\n", g.TargetWord)
		}
	}
}
