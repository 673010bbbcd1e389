// internal/fakeserver/score.go
//
// Classic two-pass Wordle scoring.
//
// Pass 1:
//   - Mark exact matches as HIT.
//   - Count remaining (non-hit) answer letters.
//
// Pass 2:
//   - For each non-hit guess letter: if there is remaining count for that
//     letter, mark PRESENT and decrement; otherwise MISS.

package fakeserver

import "github.com/robalobadob/wordle/apps/go-client/internal/game"

// score expects upper-case A–Z inputs of equal length.
func score(answer, guess string) []game.GuessResult {
	n := len(guess)
	res := make([]game.GuessResult, n)
	var counts [26]int

	for i := 0; i < n; i++ {
		res[i].Letter = string(guess[i])
		if guess[i] == answer[i] {
			res[i].Status = game.StatusHit
		} else {
			counts[answer[i]-'A']++
		}
	}
	for i := 0; i < n; i++ {
		if res[i].Status == game.StatusHit {
			continue
		}
		j := guess[i] - 'A'
		if counts[j] > 0 {
			res[i].Status = game.StatusPresent
			counts[j]--
		} else {
			res[i].Status = game.StatusMiss
		}
	}
	return res
}
