package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", &Error{Kind: KindWordNotFound}, KindWordNotFound},
		{"wrapped", fmt.Errorf("submit: %w", &Error{Kind: KindNetwork}), KindNetwork},
		{"local length", game.ErrGuessLength, KindInvalidLength},
		{"local format", fmt.Errorf("x: %w", game.ErrGuessFormat), KindInvalidFormat},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestClassifyMessage(t *testing.T) {
	assert.Equal(t, KindWordNotFound, ClassifyMessage("Invalid word"))
	assert.Equal(t, KindWordNotFound, ClassifyMessage("The word 'QQQQQ' is not in our dictionary. Please try another word."))
	assert.Equal(t, KindInvalidLength, ClassifyMessage("Guess must be exactly 5 letters"))
	assert.Equal(t, KindInvalidFormat, ClassifyMessage("Your guess must contain only letters."))
	assert.Equal(t, KindUnknown, ClassifyMessage("Player already finished"))
}

func TestClassifyStatus(t *testing.T) {
	e := classifyStatus(http.StatusUnprocessableEntity, []byte(`{"error":"WORD_NOT_FOUND","message":"nope","code":422}`))
	assert.Equal(t, KindWordNotFound, e.Kind)
	assert.Equal(t, "nope", e.Message)

	e = classifyStatus(http.StatusBadRequest, []byte(`{"success":false,"message":"Cannot start game"}`))
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, "Cannot start game", e.Message)

	e = classifyStatus(http.StatusBadRequest, []byte(`{"error":"Room not found"}`))
	assert.Equal(t, "Room not found", e.Message)

	e = classifyStatus(http.StatusInternalServerError, nil)
	assert.Equal(t, KindUnknown, e.Kind)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, "Internal Server Error", e.Message)
}

func TestGuessResponseErr(t *testing.T) {
	var nilResp *GuessResponse
	assert.NoError(t, nilResp.Err())
	assert.NoError(t, (&GuessResponse{Success: true}).Err())

	err := (&GuessResponse{Message: "Invalid word"}).Err()
	assert.Equal(t, KindWordNotFound, KindOf(err))
	assert.False(t, IsRetryable(err))
}
