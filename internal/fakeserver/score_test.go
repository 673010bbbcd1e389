package fakeserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

func statuses(res []game.GuessResult) string {
	out := make([]byte, len(res))
	for i, r := range res {
		switch r.Status {
		case game.StatusHit:
			out[i] = 'H'
		case game.StatusPresent:
			out[i] = 'P'
		default:
			out[i] = '.'
		}
	}
	return string(out)
}

func TestScore(t *testing.T) {
	tests := []struct {
		answer, guess, want string
	}{
		{"CRANE", "CRANE", "HHHHH"},
		{"CRANE", "CRATE", "HHH.H"},
		{"CRANE", "NACRE", "PPPPH"},
		{"CRANE", "LIGHT", "....."},
		// Repeated guess letters only score as many times as the answer has them.
		{"CRANE", "EERIE", "..P.H"},
		{"ABBEY", "BABES", "PPHH."},
		{"SPEED", "EERIE", "PP..."},
	}
	for _, tt := range tests {
		t.Run(tt.answer+"/"+tt.guess, func(t *testing.T) {
			res := score(tt.answer, tt.guess)
			assert.Equal(t, tt.want, statuses(res))
			for i := range res {
				assert.Equal(t, string(tt.guess[i]), res[i].Letter)
			}
		})
	}
}

func TestRankPlayers(t *testing.T) {
	r := &game.Room{Players: []game.Player{
		{PlayerID: "slow-win", Guesses: make([]string, 4), HasWonAlias: true, WinTime: "2025-01-01T10:00:05.000"},
		{PlayerID: "still-playing", Guesses: make([]string, 2)},
		{PlayerID: "lost", Guesses: make([]string, 6), Finished: true},
		{PlayerID: "fast-win", Guesses: make([]string, 5), Won: true, WinTime: "2025-01-01T10:00:01.000"},
	}}
	rankPlayers(r)

	assert.Equal(t, 2, r.Players[0].Rank)
	assert.Equal(t, 7, r.Players[0].Points)
	assert.Equal(t, 0, r.Players[1].Rank)
	assert.Equal(t, 0, r.Players[1].Points)
	assert.Equal(t, 3, r.Players[2].Rank)
	assert.Equal(t, 5, r.Players[2].Points)
	assert.Equal(t, 1, r.Players[3].Rank)
	assert.Equal(t, 10, r.Players[3].Points)
}
